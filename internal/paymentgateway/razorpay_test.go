package paymentgateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/learnify-backend/internal/config"
)

func TestRazorpaySignature(t *testing.T) {
	got := RazorpaySignature("secret", "order_1", "pay_1")
	assert.Equal(t, "52115a0d3400de9e86aade1f1b6eba9e8974604f4e267a9e9a16633a4c8dd2cb", got)
	assert.Equal(t, got, RazorpaySignature("secret", "order_1", "pay_1"))
	assert.NotEqual(t, got, RazorpaySignature("secret", "order_1", "pay_2"))
	assert.NotEqual(t, got, RazorpaySignature("other", "order_1", "pay_1"))
}

func TestVerifyRazorpaySignature(t *testing.T) {
	r := NewRazorpay(config.Razorpay{KeyID: "rzp_test", KeySecret: "secret"})
	valid := RazorpaySignature("secret", "order_1", "pay_1")

	tests := []struct {
		name      string
		orderID   string
		paymentID string
		signature string
		want      bool
	}{
		{name: "valid", orderID: "order_1", paymentID: "pay_1", signature: valid, want: true},
		{name: "uppercase hex", orderID: "order_1", paymentID: "pay_1", signature: upper(valid), want: true},
		{name: "swapped ids", orderID: "pay_1", paymentID: "order_1", signature: valid},
		{name: "other payment", orderID: "order_1", paymentID: "pay_2", signature: valid},
		{name: "empty signature", orderID: "order_1", paymentID: "pay_1", signature: ""},
		{name: "garbage", orderID: "order_1", paymentID: "pay_1", signature: "not-hex"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.VerifySignature(tt.orderID, tt.paymentID, tt.signature))
		})
	}
}

func TestNewRazorpay_Defaults(t *testing.T) {
	r := NewRazorpay(config.Razorpay{KeyID: "k", KeySecret: "s", Currency: "usd"})
	assert.Equal(t, "USD", r.Currency())

	r = NewRazorpay(config.Razorpay{KeyID: "k", KeySecret: "s"})
	assert.Equal(t, "INR", r.Currency())
}

func TestCreateOrder_CanceledContext(t *testing.T) {
	r := NewRazorpay(config.Razorpay{KeyID: "k", KeySecret: "s"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.CreateOrder(ctx, OrderRequest{CourseID: "c", UserUID: "u", Price: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOrderFromResponse(t *testing.T) {
	order, err := orderFromResponse(map[string]interface{}{
		"id":       "order_9A33XWu170gUtm",
		"amount":   float64(49900),
		"currency": "INR",
		"receipt":  "rcpt_1",
		"status":   "created",
	})
	require.NoError(t, err)
	assert.Equal(t, &Order{ID: "order_9A33XWu170gUtm", Amount: 49900, Currency: "INR", Receipt: "rcpt_1"}, order)

	_, err = orderFromResponse(map[string]interface{}{"error": "bad"})
	assert.Error(t, err)
}

func TestReceiptFor(t *testing.T) {
	receipt := receiptFor("0c3a1e52-7a1b-4bd0-8a55-2d1c5c8e9f10", "9b0f7c1e-8a57-4d5e-9d8e-1f9f6b7c2a11")
	assert.LessOrEqual(t, len(receipt), 40)
	assert.Equal(t, "rcpt_0c3a1e527a1b_9b0f7c1e8a57", receipt)
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'f' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}
