// Package purchase реализует покупку курсов через Stripe и Razorpay
// и сверку статуса оплаты по событиям шлюзов.
package purchase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/learnify-backend/internal/lib/apperr"
	"github.com/magabrotheeeer/learnify-backend/internal/lib/sl"
	"github.com/magabrotheeeer/learnify-backend/internal/metrics"
	"github.com/magabrotheeeer/learnify-backend/internal/models"
	"github.com/magabrotheeeer/learnify-backend/internal/paymentgateway"
)

const (
	eventKeyPrefix = "stripe:event:"
	eventTTL       = 24 * time.Hour
)

// Repository хранилище курсов и покупок.
type Repository interface {
	GetCourse(ctx context.Context, courseID string) (*models.Course, error)
	ListLectures(ctx context.Context, courseID string) ([]models.Lecture, error)
	CreatePurchase(ctx context.Context, p models.CoursePurchase) (*models.CoursePurchase, error)
	GetPurchaseByPaymentID(ctx context.Context, method, paymentID string) (*models.CoursePurchase, error)
	CompletePurchase(ctx context.Context, method, paymentID string, amount *float64) (*models.CoursePurchase, bool, error)
	HasCompletedPurchase(ctx context.Context, userUID, courseID string) (bool, error)
	ListCompletedPurchases(ctx context.Context, userUID string) ([]models.PurchasedCourse, error)
}

// StripeGateway checkout-сессии и webhook Stripe.
type StripeGateway interface {
	CreateCheckoutSession(ctx context.Context, req paymentgateway.CheckoutRequest) (*paymentgateway.CheckoutSession, error)
	ParseWebhook(payload []byte, signature string) (*paymentgateway.Event, error)
	Currency() string
}

// RazorpayGateway заказы и проверка подписи Razorpay.
type RazorpayGateway interface {
	CreateOrder(ctx context.Context, req paymentgateway.OrderRequest) (*paymentgateway.Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
	Currency() string
}

// EventStore запоминает обработанные события webhook.
type EventStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// CheckoutResult адрес страницы оплаты Stripe.
type CheckoutResult struct {
	CheckoutURL string `json:"checkoutUrl"`
	SessionID   string `json:"sessionId"`
}

// WebhookResult итог обработки события Stripe.
type WebhookResult struct {
	EventID   string                 `json:"eventId"`
	Type      string                 `json:"type"`
	Processed bool                   `json:"processed"`
	Purchase  *models.CoursePurchase `json:"purchase,omitempty"`
}

// Status курс и признак его покупки пользователем.
type Status struct {
	Course      *models.Course `json:"course"`
	IsPurchased bool           `json:"isPurchased"`
}

// Service бизнес-логика покупок.
type Service struct {
	repo     Repository
	stripe   StripeGateway
	razorpay RazorpayGateway
	events   EventStore
	metrics  *metrics.Metrics
	log      *slog.Logger
}

// New создаёт сервис покупок.
func New(repo Repository, stripe StripeGateway, razorpay RazorpayGateway, events EventStore, m *metrics.Metrics, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		stripe:   stripe,
		razorpay: razorpay,
		events:   events,
		metrics:  m,
		log:      log,
	}
}

// InitiateStripeCheckout создаёт checkout-сессию и ожидающую оплаты покупку.
// Повторный вызов создаёт ещё одну ожидающую покупку.
func (s *Service) InitiateStripeCheckout(ctx context.Context, userUID, courseID string) (*CheckoutResult, error) {
	const op = "services.purchase.InitiateStripeCheckout"

	course, err := s.purchasableCourse(ctx, userUID, courseID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sess, err := s.stripe.CreateCheckoutSession(ctx, paymentgateway.CheckoutRequest{
		CourseID:  course.ID,
		UserUID:   userUID,
		Title:     course.Title,
		Thumbnail: course.Thumbnail,
		Price:     course.Price,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err = s.repo.CreatePurchase(ctx, models.CoursePurchase{
		CourseID:      course.ID,
		UserUID:       userUID,
		Amount:        course.Price,
		Currency:      s.stripe.Currency(),
		Status:        models.PurchaseStatusPending,
		PaymentMethod: models.PaymentMethodStripe,
		PaymentID:     sess.ID,
	}); err != nil {
		s.log.Error("checkout session created but purchase was not saved",
			slog.String("session_id", sess.ID), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.PurchasesInitiated.WithLabelValues(models.PaymentMethodStripe).Inc()

	s.log.Info("stripe checkout started",
		slog.String("user_uid", userUID),
		slog.String("course_id", courseID),
		slog.String("session_id", sess.ID))
	return &CheckoutResult{CheckoutURL: sess.URL, SessionID: sess.ID}, nil
}

// HandleStripeEvent проверяет подпись события и завершает покупку по
// checkout.session.completed. Повторная доставка события ничего не меняет.
func (s *Service) HandleStripeEvent(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	const op = "services.purchase.HandleStripeEvent"

	evt, err := s.stripe.ParseWebhook(payload, signature)
	if err != nil {
		s.metrics.WebhookEvents.WithLabelValues("unknown", "rejected").Inc()
		return nil, fmt.Errorf("%s: %w", op, apperr.WithMessage(err, apperr.ErrInvalidSignature, "invalid webhook signature"))
	}
	res := &WebhookResult{EventID: evt.ID, Type: evt.Type}
	log := s.log.With(slog.String("event_id", evt.ID), slog.String("event_type", evt.Type))

	if evt.Type != paymentgateway.EventCheckoutSessionCompleted {
		s.metrics.WebhookEvents.WithLabelValues(evt.Type, "ignored").Inc()
		log.Debug("webhook event ignored")
		return res, nil
	}

	key := eventKeyPrefix + evt.ID
	seen, err := s.events.Exists(ctx, key)
	if err != nil {
		log.Warn("failed to check processed events", sl.Err(err))
	}
	if seen {
		s.metrics.WebhookEvents.WithLabelValues(evt.Type, "duplicate").Inc()
		log.Info("webhook event already processed")
		return res, nil
	}

	amount := paymentgateway.FromMinorUnits(evt.AmountTotal)
	purchase, changed, err := s.repo.CompletePurchase(ctx, models.PaymentMethodStripe, evt.SessionID, &amount)
	if err != nil {
		s.metrics.WebhookEvents.WithLabelValues(evt.Type, "failed").Inc()
		return nil, fmt.Errorf("%s: %w", op, apperr.WithMessage(err, apperr.ErrNotFound, "purchase not found"))
	}
	if courseID := evt.Metadata[paymentgateway.MetadataCourseID]; courseID != "" && courseID != purchase.CourseID {
		log.Warn("session metadata does not match purchase",
			slog.String("metadata_course_id", courseID), slog.String("course_id", purchase.CourseID))
	}

	if _, err = s.events.MarkOnce(ctx, key, eventTTL); err != nil {
		log.Warn("failed to remember processed event", sl.Err(err))
	}

	res.Purchase = purchase
	res.Processed = changed
	if changed {
		s.metrics.PurchasesCompleted.WithLabelValues(models.PaymentMethodStripe).Inc()
		s.metrics.WebhookEvents.WithLabelValues(evt.Type, "processed").Inc()
		log.Info("purchase completed",
			slog.String("purchase_id", purchase.ID),
			slog.String("course_id", purchase.CourseID),
			slog.Float64("amount", purchase.Amount))
	} else {
		s.metrics.WebhookEvents.WithLabelValues(evt.Type, "duplicate").Inc()
		log.Info("purchase already completed", slog.String("purchase_id", purchase.ID))
	}
	return res, nil
}

// CreateRazorpayOrder создаёт заказ Razorpay и ожидающую оплаты покупку.
func (s *Service) CreateRazorpayOrder(ctx context.Context, userUID, courseID string) (*paymentgateway.Order, error) {
	const op = "services.purchase.CreateRazorpayOrder"

	course, err := s.purchasableCourse(ctx, userUID, courseID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	order, err := s.razorpay.CreateOrder(ctx, paymentgateway.OrderRequest{
		CourseID: course.ID,
		UserUID:  userUID,
		Price:    course.Price,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err = s.repo.CreatePurchase(ctx, models.CoursePurchase{
		CourseID:      course.ID,
		UserUID:       userUID,
		Amount:        course.Price,
		Currency:      s.razorpay.Currency(),
		Status:        models.PurchaseStatusPending,
		PaymentMethod: models.PaymentMethodRazorpay,
		PaymentID:     order.ID,
	}); err != nil {
		s.log.Error("razorpay order created but purchase was not saved",
			slog.String("order_id", order.ID), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.PurchasesInitiated.WithLabelValues(models.PaymentMethodRazorpay).Inc()

	s.log.Info("razorpay order created",
		slog.String("user_uid", userUID),
		slog.String("course_id", courseID),
		slog.String("order_id", order.ID))
	return order, nil
}

// VerifyRazorpayPayment проверяет подпись платежа и завершает покупку.
// Уже завершённая покупка возвращается без изменений.
func (s *Service) VerifyRazorpayPayment(ctx context.Context, userUID string, req models.VerifyPaymentRequest) (*models.CoursePurchase, error) {
	const op = "services.purchase.VerifyRazorpayPayment"

	if !s.razorpay.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		s.log.Warn("razorpay signature mismatch", slog.String("order_id", req.OrderID), slog.String("user_uid", userUID))
		return nil, fmt.Errorf("%s: %w", op, apperr.New(apperr.ErrInvalidSignature, "payment verification failed"))
	}

	purchase, err := s.repo.GetPurchaseByPaymentID(ctx, models.PaymentMethodRazorpay, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, apperr.WithMessage(err, apperr.ErrNotFound, "purchase not found"))
	}
	if purchase.UserUID != userUID {
		return nil, fmt.Errorf("%s: %w", op, apperr.New(apperr.ErrForbidden, "purchase belongs to another user"))
	}
	if purchase.IsCompleted() {
		return purchase, nil
	}

	purchase, changed, err := s.repo.CompletePurchase(ctx, models.PaymentMethodRazorpay, req.OrderID, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, apperr.WithMessage(err, apperr.ErrNotFound, "purchase not found"))
	}
	if changed {
		s.metrics.PurchasesCompleted.WithLabelValues(models.PaymentMethodRazorpay).Inc()
		s.log.Info("purchase completed",
			slog.String("purchase_id", purchase.ID),
			slog.String("payment_id", req.PaymentID),
			slog.String("course_id", purchase.CourseID))
	}
	return purchase, nil
}

// GetPurchaseStatus возвращает курс и признак его покупки пользователем.
func (s *Service) GetPurchaseStatus(ctx context.Context, userUID, courseID string) (*Status, error) {
	const op = "services.purchase.GetPurchaseStatus"

	course, err := s.repo.GetCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, apperr.WithMessage(err, apperr.ErrNotFound, "course not found"))
	}
	if !course.VisibleTo(userUID) {
		return nil, fmt.Errorf("%s: %w", op, apperr.New(apperr.ErrNotFound, "course not found"))
	}
	lectures, err := s.repo.ListLectures(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	purchased, err := s.repo.HasCompletedPurchase(ctx, userUID, courseID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	course.Lectures = models.RedactLectures(lectures, course.HasFullAccess(userUID, purchased))
	return &Status{Course: course, IsPurchased: purchased}, nil
}

// ListPurchasedCourses возвращает оплаченные курсы пользователя.
func (s *Service) ListPurchasedCourses(ctx context.Context, userUID string) ([]models.PurchasedCourse, error) {
	const op = "services.purchase.ListPurchasedCourses"

	list, err := s.repo.ListCompletedPurchases(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if list == nil {
		list = []models.PurchasedCourse{}
	}
	return list, nil
}

func (s *Service) purchasableCourse(ctx context.Context, userUID, courseID string) (*models.Course, error) {
	course, err := s.repo.GetCourse(ctx, courseID)
	if err != nil {
		return nil, apperr.WithMessage(err, apperr.ErrNotFound, "course not found")
	}
	if !course.VisibleTo(userUID) {
		return nil, apperr.New(apperr.ErrNotFound, "course not found")
	}
	if course.InstructorUID == userUID {
		return nil, apperr.New(apperr.ErrConflict, "instructors cannot buy their own course")
	}

	owned, err := s.repo.HasCompletedPurchase(ctx, userUID, courseID)
	if err != nil {
		return nil, err
	}
	if owned {
		return nil, apperr.New(apperr.ErrConflict, "course already purchased")
	}
	return course, nil
}
