package purchase

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/learnify-backend/internal/models"
	"github.com/magabrotheeeer/learnify-backend/internal/paymentgateway"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetCourse(ctx context.Context, courseID string) (*models.Course, error) {
	args := m.Called(ctx, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	c := *args.Get(0).(*models.Course)
	return &c, args.Error(1)
}

func (m *RepoMock) ListLectures(ctx context.Context, courseID string) ([]models.Lecture, error) {
	args := m.Called(ctx, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Lecture), args.Error(1)
}

func (m *RepoMock) CreatePurchase(ctx context.Context, p models.CoursePurchase) (*models.CoursePurchase, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CoursePurchase), args.Error(1)
}

func (m *RepoMock) GetPurchaseByPaymentID(ctx context.Context, method, paymentID string) (*models.CoursePurchase, error) {
	args := m.Called(ctx, method, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CoursePurchase), args.Error(1)
}

func (m *RepoMock) CompletePurchase(ctx context.Context, method, paymentID string, amount *float64) (*models.CoursePurchase, bool, error) {
	args := m.Called(ctx, method, paymentID, amount)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.CoursePurchase), args.Bool(1), args.Error(2)
}

func (m *RepoMock) HasCompletedPurchase(ctx context.Context, userUID, courseID string) (bool, error) {
	args := m.Called(ctx, userUID, courseID)
	return args.Bool(0), args.Error(1)
}

func (m *RepoMock) ListCompletedPurchases(ctx context.Context, userUID string) ([]models.PurchasedCourse, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PurchasedCourse), args.Error(1)
}

type StripeMock struct{ mock.Mock }

func (m *StripeMock) CreateCheckoutSession(ctx context.Context, req paymentgateway.CheckoutRequest) (*paymentgateway.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentgateway.CheckoutSession), args.Error(1)
}

func (m *StripeMock) ParseWebhook(payload []byte, signature string) (*paymentgateway.Event, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentgateway.Event), args.Error(1)
}

func (m *StripeMock) Currency() string { return "inr" }

type RazorpayMock struct{ mock.Mock }

func (m *RazorpayMock) CreateOrder(ctx context.Context, req paymentgateway.OrderRequest) (*paymentgateway.Order, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentgateway.Order), args.Error(1)
}

func (m *RazorpayMock) VerifySignature(orderID, paymentID, signature string) bool {
	return m.Called(orderID, paymentID, signature).Bool(0)
}

func (m *RazorpayMock) Currency() string { return "INR" }

type EventsMock struct{ mock.Mock }

func (m *EventsMock) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *EventsMock) MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}
