package purchase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/magabrotheeeer/learnify-backend/internal/cache"
	"github.com/magabrotheeeer/learnify-backend/internal/config"
	"github.com/magabrotheeeer/learnify-backend/internal/lib/apperr"
	"github.com/magabrotheeeer/learnify-backend/internal/metrics"
	"github.com/magabrotheeeer/learnify-backend/internal/models"
	"github.com/magabrotheeeer/learnify-backend/internal/paymentgateway"
)

var publishedCourse = &models.Course{
	ID:            "c1",
	Title:         "Go in practice",
	Price:         499,
	InstructorUID: "author-1",
	IsPublished:   true,
}

type mocks struct {
	repo     *RepoMock
	stripe   *StripeMock
	razorpay *RazorpayMock
	events   *EventsMock
}

func newTestService() (*Service, mocks, *metrics.Metrics) {
	m := mocks{repo: new(RepoMock), stripe: new(StripeMock), razorpay: new(RazorpayMock), events: new(EventsMock)}
	met := metrics.NewNop()
	return New(m.repo, m.stripe, m.razorpay, m.events, met, newNoopLogger()), m, met
}

func TestService_InitiateStripeCheckout(t *testing.T) {
	notFound := fmt.Errorf("storage.GetCourse: %w", apperr.ErrNotFound)

	tests := []struct {
		name       string
		userUID    string
		setupMocks func(m mocks)
		wantErr    error
		wantURL    string
	}{
		{
			name:    "success",
			userUID: "student",
			setupMocks: func(m mocks) {
				m.repo.On("GetCourse", mock.Anything, "c1").Return(publishedCourse, nil).Once()
				m.repo.On("HasCompletedPurchase", mock.Anything, "student", "c1").Return(false, nil).Once()
				m.stripe.On("CreateCheckoutSession", mock.Anything, paymentgateway.CheckoutRequest{
					CourseID: "c1", UserUID: "student", Title: "Go in practice", Price: 499,
				}).Return(&paymentgateway.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.com/cs_1"}, nil).Once()
				m.repo.On("CreatePurchase", mock.Anything, models.CoursePurchase{
					CourseID:      "c1",
					UserUID:       "student",
					Amount:        499,
					Currency:      "inr",
					Status:        models.PurchaseStatusPending,
					PaymentMethod: models.PaymentMethodStripe,
					PaymentID:     "cs_1",
				}).Return(&models.CoursePurchase{ID: "p1"}, nil).Once()
			},
			wantURL: "https://checkout.stripe.com/cs_1",
		},
		{
			name:    "course not found",
			userUID: "student",
			setupMocks: func(m mocks) {
				m.repo.On("GetCourse", mock.Anything, "c1").Return(nil, notFound).Once()
			},
			wantErr: apperr.ErrNotFound,
		},
		{
			name:    "unpublished course",
			userUID: "student",
			setupMocks: func(m mocks) {
				draft := *publishedCourse
				draft.IsPublished = false
				m.repo.On("GetCourse", mock.Anything, "c1").Return(&draft, nil).Once()
			},
			wantErr: apperr.ErrNotFound,
		},
		{
			name:    "instructor buys own course",
			userUID: "author-1",
			setupMocks: func(m mocks) {
				m.repo.On("GetCourse", mock.Anything, "c1").Return(publishedCourse, nil).Once()
			},
			wantErr: apperr.ErrConflict,
		},
		{
			name:    "already purchased",
			userUID: "student",
			setupMocks: func(m mocks) {
				m.repo.On("GetCourse", mock.Anything, "c1").Return(publishedCourse, nil).Once()
				m.repo.On("HasCompletedPurchase", mock.Anything, "student", "c1").Return(true, nil).Once()
			},
			wantErr: apperr.ErrConflict,
		},
		{
			name:    "gateway error",
			userUID: "student",
			setupMocks: func(m mocks) {
				m.repo.On("GetCourse", mock.Anything, "c1").Return(publishedCourse, nil).Once()
				m.repo.On("HasCompletedPurchase", mock.Anything, "student", "c1").Return(false, nil).Once()
				m.stripe.On("CreateCheckoutSession", mock.Anything, mock.Anything).Return(nil, errors.New("stripe unavailable")).Once()
			},
			wantErr: errors.New("stripe unavailable"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m, met := newTestService()
			tt.setupMocks(m)

			res, err := svc.InitiateStripeCheckout(context.Background(), tt.userUID, "c1")
			if tt.wantErr != nil {
				if errors.Is(tt.wantErr, apperr.ErrNotFound) || errors.Is(tt.wantErr, apperr.ErrConflict) {
					assert.ErrorIs(t, err, tt.wantErr)
				} else {
					assert.ErrorContains(t, err, tt.wantErr.Error())
				}
				assert.Nil(t, res)
				m.repo.AssertNotCalled(t, "CreatePurchase", mock.Anything, mock.Anything)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantURL, res.CheckoutURL)
				assert.Equal(t, "cs_1", res.SessionID)
				assert.Equal(t, float64(1), testutil.ToFloat64(met.PurchasesInitiated.WithLabelValues("stripe")))
			}
			m.repo.AssertExpectations(t)
			m.stripe.AssertExpectations(t)
		})
	}
}

func TestService_HandleStripeEvent(t *testing.T) {
	completed := &paymentgateway.Event{
		ID:          "evt_1",
		Type:        paymentgateway.EventCheckoutSessionCompleted,
		SessionID:   "cs_1",
		AmountTotal: 49900,
		Metadata:    map[string]string{"courseId": "c1", "userId": "student"},
	}
	amount499 := mock.MatchedBy(func(a *float64) bool { return a != nil && *a == 499 })
	done := &models.CoursePurchase{ID: "p1", CourseID: "c1", Amount: 499, Status: models.PurchaseStatusCompleted}

	tests := []struct {
		name          string
		setupMocks    func(m mocks)
		wantErr       error
		wantProcessed bool
	}{
		{
			name: "completes pending purchase",
			setupMocks: func(m mocks) {
				m.stripe.On("ParseWebhook", mock.Anything, "sig").Return(completed, nil).Once()
				m.events.On("Exists", mock.Anything, "stripe:event:evt_1").Return(false, nil).Once()
				m.repo.On("CompletePurchase", mock.Anything, "stripe", "cs_1", amount499).Return(done, true, nil).Once()
				m.events.On("MarkOnce", mock.Anything, "stripe:event:evt_1", 24*time.Hour).Return(true, nil).Once()
			},
			wantProcessed: true,
		},
		{
			name: "replayed event id is skipped",
			setupMocks: func(m mocks) {
				m.stripe.On("ParseWebhook", mock.Anything, "sig").Return(completed, nil).Once()
				m.events.On("Exists", mock.Anything, "stripe:event:evt_1").Return(true, nil).Once()
			},
		},
		{
			name: "already completed purchase is not changed",
			setupMocks: func(m mocks) {
				m.stripe.On("ParseWebhook", mock.Anything, "sig").Return(completed, nil).Once()
				m.events.On("Exists", mock.Anything, "stripe:event:evt_1").Return(false, nil).Once()
				m.repo.On("CompletePurchase", mock.Anything, "stripe", "cs_1", amount499).Return(done, false, nil).Once()
				m.events.On("MarkOnce", mock.Anything, "stripe:event:evt_1", 24*time.Hour).Return(true, nil).Once()
			},
		},
		{
			name: "redis down does not block processing",
			setupMocks: func(m mocks) {
				m.stripe.On("ParseWebhook", mock.Anything, "sig").Return(completed, nil).Once()
				m.events.On("Exists", mock.Anything, "stripe:event:evt_1").Return(false, errors.New("redis down")).Once()
				m.repo.On("CompletePurchase", mock.Anything, "stripe", "cs_1", amount499).Return(done, true, nil).Once()
				m.events.On("MarkOnce", mock.Anything, "stripe:event:evt_1", 24*time.Hour).Return(false, errors.New("redis down")).Once()
			},
			wantProcessed: true,
		},
		{
			name: "unknown session",
			setupMocks: func(m mocks) {
				m.stripe.On("ParseWebhook", mock.Anything, "sig").Return(completed, nil).Once()
				m.events.On("Exists", mock.Anything, "stripe:event:evt_1").Return(false, nil).Once()
				m.repo.On("CompletePurchase", mock.Anything, "stripe", "cs_1", amount499).
					Return(nil, false, fmt.Errorf("storage.GetPurchaseByPaymentID: %w", apperr.ErrNotFound)).Once()
			},
			wantErr: apperr.ErrNotFound,
		},
		{
			name: "invalid signature",
			setupMocks: func(m mocks) {
				m.stripe.On("ParseWebhook", mock.Anything, "sig").
					Return(nil, fmt.Errorf("paymentgateway.Stripe.ParseWebhook: %w", apperr.ErrInvalidSignature)).Once()
			},
			wantErr: apperr.ErrInvalidSignature,
		},
		{
			name: "other event type is acknowledged",
			setupMocks: func(m mocks) {
				m.stripe.On("ParseWebhook", mock.Anything, "sig").
					Return(&paymentgateway.Event{ID: "evt_2", Type: "payment_intent.created"}, nil).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m, _ := newTestService()
			tt.setupMocks(m)

			res, err := svc.HandleStripeEvent(context.Background(), []byte("{}"), "sig")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				m.events.AssertNotCalled(t, "MarkOnce", mock.Anything, mock.Anything, mock.Anything)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantProcessed, res.Processed)
			}
			m.repo.AssertExpectations(t)
			m.events.AssertExpectations(t)
			m.stripe.AssertExpectations(t)
		})
	}
}

func TestService_VerifyRazorpayPayment(t *testing.T) {
	req := models.VerifyPaymentRequest{OrderID: "order_1", PaymentID: "pay_1", Signature: "sig"}
	pending := &models.CoursePurchase{ID: "p1", UserUID: "student", CourseID: "c1", Status: models.PurchaseStatusPending}
	completed := &models.CoursePurchase{ID: "p1", UserUID: "student", CourseID: "c1", Status: models.PurchaseStatusCompleted}

	tests := []struct {
		name       string
		userUID    string
		setupMocks func(m mocks)
		wantErr    error
	}{
		{
			name:    "completes pending purchase",
			userUID: "student",
			setupMocks: func(m mocks) {
				m.razorpay.On("VerifySignature", "order_1", "pay_1", "sig").Return(true).Once()
				m.repo.On("GetPurchaseByPaymentID", mock.Anything, "razorpay", "order_1").Return(pending, nil).Once()
				m.repo.On("CompletePurchase", mock.Anything, "razorpay", "order_1", (*float64)(nil)).Return(completed, true, nil).Once()
			},
		},
		{
			name:    "already completed is idempotent",
			userUID: "student",
			setupMocks: func(m mocks) {
				m.razorpay.On("VerifySignature", "order_1", "pay_1", "sig").Return(true).Once()
				m.repo.On("GetPurchaseByPaymentID", mock.Anything, "razorpay", "order_1").Return(completed, nil).Once()
			},
		},
		{
			name:    "signature mismatch",
			userUID: "student",
			setupMocks: func(m mocks) {
				m.razorpay.On("VerifySignature", "order_1", "pay_1", "sig").Return(false).Once()
			},
			wantErr: apperr.ErrInvalidSignature,
		},
		{
			name:    "unknown order",
			userUID: "student",
			setupMocks: func(m mocks) {
				m.razorpay.On("VerifySignature", "order_1", "pay_1", "sig").Return(true).Once()
				m.repo.On("GetPurchaseByPaymentID", mock.Anything, "razorpay", "order_1").
					Return(nil, fmt.Errorf("storage.GetPurchaseByPaymentID: %w", apperr.ErrNotFound)).Once()
			},
			wantErr: apperr.ErrNotFound,
		},
		{
			name:    "purchase of another user",
			userUID: "intruder",
			setupMocks: func(m mocks) {
				m.razorpay.On("VerifySignature", "order_1", "pay_1", "sig").Return(true).Once()
				m.repo.On("GetPurchaseByPaymentID", mock.Anything, "razorpay", "order_1").Return(pending, nil).Once()
			},
			wantErr: apperr.ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m, _ := newTestService()
			tt.setupMocks(m)

			got, err := svc.VerifyRazorpayPayment(context.Background(), tt.userUID, req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				m.repo.AssertNotCalled(t, "CompletePurchase", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			} else {
				require.NoError(t, err)
				assert.True(t, got.IsCompleted())
			}
			m.repo.AssertExpectations(t)
			m.razorpay.AssertExpectations(t)
		})
	}
}

func TestService_CreateRazorpayOrder(t *testing.T) {
	svc, m, met := newTestService()
	m.repo.On("GetCourse", mock.Anything, "c1").Return(publishedCourse, nil).Once()
	m.repo.On("HasCompletedPurchase", mock.Anything, "student", "c1").Return(false, nil).Once()
	m.razorpay.On("CreateOrder", mock.Anything, paymentgateway.OrderRequest{CourseID: "c1", UserUID: "student", Price: 499}).
		Return(&paymentgateway.Order{ID: "order_1", Amount: 49900, Currency: "INR", KeyID: "rzp_test"}, nil).Once()
	m.repo.On("CreatePurchase", mock.Anything, mock.MatchedBy(func(p models.CoursePurchase) bool {
		return p.PaymentMethod == models.PaymentMethodRazorpay && p.PaymentID == "order_1" &&
			p.Amount == 499 && p.Currency == "INR" && p.Status == models.PurchaseStatusPending
	})).Return(&models.CoursePurchase{ID: "p1"}, nil).Once()

	order, err := svc.CreateRazorpayOrder(context.Background(), "student", "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(49900), order.Amount)
	assert.Equal(t, "rzp_test", order.KeyID)
	assert.Equal(t, float64(1), testutil.ToFloat64(met.PurchasesInitiated.WithLabelValues("razorpay")))
	m.repo.AssertExpectations(t)
}

func TestService_GetPurchaseStatus(t *testing.T) {
	lectures := []models.Lecture{
		{ID: "l1", VideoURL: "https://cdn/l1.mp4", IsPreview: true},
		{ID: "l2", VideoURL: "https://cdn/l2.mp4"},
	}

	for _, purchased := range []bool{false, true} {
		svc, m, _ := newTestService()
		m.repo.On("GetCourse", mock.Anything, "c1").Return(publishedCourse, nil).Once()
		m.repo.On("ListLectures", mock.Anything, "c1").Return(lectures, nil).Once()
		m.repo.On("HasCompletedPurchase", mock.Anything, "student", "c1").Return(purchased, nil).Once()

		st, err := svc.GetPurchaseStatus(context.Background(), "student", "c1")
		require.NoError(t, err)
		assert.Equal(t, purchased, st.IsPurchased)
		assert.Equal(t, "https://cdn/l1.mp4", st.Course.Lectures[0].VideoURL)
		assert.Equal(t, purchased, st.Course.Lectures[1].VideoURL != "")
	}
}

func TestService_GetPurchaseStatus_Draft(t *testing.T) {
	draft := *publishedCourse
	draft.IsPublished = false

	svc, m, _ := newTestService()
	m.repo.On("GetCourse", mock.Anything, "c1").Return(&draft, nil).Once()

	_, err := svc.GetPurchaseStatus(context.Background(), "student", "c1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, "course not found", apperr.Message(err))
	m.repo.AssertNotCalled(t, "ListLectures", mock.Anything, mock.Anything)
	m.repo.AssertExpectations(t)

	svc, m, _ = newTestService()
	m.repo.On("GetCourse", mock.Anything, "c1").Return(&draft, nil).Once()
	m.repo.On("ListLectures", mock.Anything, "c1").Return([]models.Lecture{{ID: "l1", VideoURL: "https://cdn/l1.mp4"}}, nil).Once()
	m.repo.On("HasCompletedPurchase", mock.Anything, "author-1", "c1").Return(false, nil).Once()

	st, err := svc.GetPurchaseStatus(context.Background(), "author-1", "c1")
	require.NoError(t, err)
	assert.False(t, st.IsPurchased)
	assert.Equal(t, "https://cdn/l1.mp4", st.Course.Lectures[0].VideoURL)
	m.repo.AssertExpectations(t)
}

func TestService_ListPurchasedCourses_Empty(t *testing.T) {
	svc, m, _ := newTestService()
	m.repo.On("ListCompletedPurchases", mock.Anything, "student").Return(nil, nil).Once()

	list, err := svc.ListPurchasedCourses(context.Background(), "student")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

// fixedCheckout подменяет создание сессии, проверка webhook остаётся настоящей.
type fixedCheckout struct {
	*paymentgateway.Stripe
	sessionID string
}

func (f fixedCheckout) CreateCheckoutSession(_ context.Context, _ paymentgateway.CheckoutRequest) (*paymentgateway.CheckoutSession, error) {
	return &paymentgateway.CheckoutSession{ID: f.sessionID, URL: "https://checkout.stripe.com/c/pay/" + f.sessionID}, nil
}

func TestService_StripePurchaseScenario(t *testing.T) {
	const secret = "whsec_scenario"
	mr := miniredis.RunT(t)
	events, err := cache.InitServer(context.Background(), config.RedisConnection{AddressRedis: mr.Addr()})
	require.NoError(t, err)

	gateway := fixedCheckout{
		Stripe:    paymentgateway.NewStripe(config.Stripe{SecretKey: "sk_test", WebhookSecret: secret}, "http://localhost:5173", nil),
		sessionID: "cs_test_499",
	}
	repo := new(RepoMock)
	svc := New(repo, gateway, new(RazorpayMock), events, metrics.NewNop(), newNoopLogger())
	ctx := context.Background()

	var saved models.CoursePurchase
	repo.On("GetCourse", mock.Anything, "c1").Return(publishedCourse, nil).Once()
	repo.On("HasCompletedPurchase", mock.Anything, "student", "c1").Return(false, nil).Once()
	repo.On("CreatePurchase", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(models.CoursePurchase)
	}).Return(&models.CoursePurchase{ID: "p1"}, nil).Once()

	_, err = svc.InitiateStripeCheckout(ctx, "student", "c1")
	require.NoError(t, err)
	assert.Equal(t, float64(499), saved.Amount)
	assert.Equal(t, models.PurchaseStatusPending, saved.Status)
	assert.Equal(t, "cs_test_499", saved.PaymentID)

	payload := []byte(`{"id":"evt_499","object":"event","type":"checkout.session.completed",
		"data":{"object":{"id":"cs_test_499","object":"checkout.session","amount_total":49900,
		"metadata":{"courseId":"c1","userId":"student"}}}}`)
	header := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: secret}).Header

	completed := saved
	completed.ID = "p1"
	completed.Status = models.PurchaseStatusCompleted
	repo.On("CompletePurchase", mock.Anything, "stripe", "cs_test_499",
		mock.MatchedBy(func(a *float64) bool { return a != nil && *a == 499 })).Return(&completed, true, nil).Once()

	res, err := svc.HandleStripeEvent(ctx, payload, header)
	require.NoError(t, err)
	assert.True(t, res.Processed)
	assert.Equal(t, float64(499), res.Purchase.Amount)
	assert.Equal(t, models.PurchaseStatusCompleted, res.Purchase.Status)

	// повторная доставка того же события отсекается по id
	res, err = svc.HandleStripeEvent(ctx, payload, header)
	require.NoError(t, err)
	assert.False(t, res.Processed)
	repo.AssertNumberOfCalls(t, "CompletePurchase", 1)

	_, err = svc.HandleStripeEvent(ctx, payload, "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, apperr.ErrInvalidSignature)
}
