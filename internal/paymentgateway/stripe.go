package paymentgateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/magabrotheeeer/learnify-backend/internal/config"
	"github.com/magabrotheeeer/learnify-backend/internal/lib/apperr"
)

// EventCheckoutSessionCompleted тип события об успешной оплате checkout-сессии.
const EventCheckoutSessionCompleted = "checkout.session.completed"

// Ключи metadata checkout-сессии.
const (
	MetadataCourseID = "courseId"
	MetadataUserID   = "userId"
)

// CheckoutRequest данные курса для создания checkout-сессии.
type CheckoutRequest struct {
	CourseID  string
	UserUID   string
	Title     string
	Thumbnail string
	Price     float64
}

// CheckoutSession созданная в Stripe сессия оплаты.
type CheckoutSession struct {
	ID  string
	URL string
}

// Event проверенное событие webhook Stripe.
type Event struct {
	ID          string
	Type        string
	SessionID   string
	AmountTotal int64
	Metadata    map[string]string
}

// Stripe адаптер Stripe Checkout.
type Stripe struct {
	api           *client.API
	webhookSecret string
	currency      string
	clientURL     string
	tolerance     time.Duration
}

// NewStripe создаёт адаптер. backends позволяет подменить API Stripe, nil означает боевой API.
func NewStripe(cfg config.Stripe, clientURL string, backends *stripe.Backends) *Stripe {
	api := &client.API{}
	api.Init(cfg.SecretKey, backends)
	currency := strings.ToLower(cfg.Currency)
	if currency == "" {
		currency = "inr"
	}
	return &Stripe{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
		currency:      currency,
		clientURL:     strings.TrimRight(clientURL, "/"),
		tolerance:     webhook.DefaultTolerance,
	}
}

// Currency валюта, в которой выставляются счета.
func (s *Stripe) Currency() string {
	return s.currency
}

// CreateCheckoutSession создаёт сессию оплаты одного курса.
func (s *Stripe) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	const op = "paymentgateway.Stripe.CreateCheckoutSession"

	product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripe.String(req.Title),
	}
	if strings.HasPrefix(req.Thumbnail, "http") {
		product.Images = stripe.StringSlice([]string{req.Thumbnail})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String(s.currency),
					ProductData: product,
					UnitAmount:  stripe.Int64(ToMinorUnits(req.Price)),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(fmt.Sprintf("%s/course-progress/%s", s.clientURL, req.CourseID)),
		CancelURL:  stripe.String(fmt.Sprintf("%s/course-detail/%s", s.clientURL, req.CourseID)),
	}
	params.Context = ctx
	params.AddMetadata(MetadataCourseID, req.CourseID)
	params.AddMetadata(MetadataUserID, req.UserUID)

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if sess.URL == "" {
		return nil, fmt.Errorf("%s: session %s has no redirect url", op, sess.ID)
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// ParseWebhook проверяет подпись Stripe-Signature и разбирает событие.
// Ошибка подписи оборачивает apperr.ErrInvalidSignature.
func (s *Stripe) ParseWebhook(payload []byte, signature string) (*Event, error) {
	const op = "paymentgateway.Stripe.ParseWebhook"

	evt, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		Tolerance:                s.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, apperr.ErrInvalidSignature, err)
	}

	out := &Event{ID: evt.ID, Type: string(evt.Type)}
	if out.Type != EventCheckoutSessionCompleted || evt.Data == nil {
		return out, nil
	}

	var sess stripe.CheckoutSession
	if err = json.Unmarshal(evt.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, apperr.ErrInvalidInput, err)
	}
	out.SessionID = sess.ID
	out.AmountTotal = sess.AmountTotal
	out.Metadata = sess.Metadata
	return out, nil
}
