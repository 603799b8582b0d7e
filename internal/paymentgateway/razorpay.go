package paymentgateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	razorpay "github.com/razorpay/razorpay-go"

	"github.com/magabrotheeeer/learnify-backend/internal/config"
)

// OrderRequest данные для создания заказа Razorpay.
type OrderRequest struct {
	CourseID string
	UserUID  string
	Price    float64
}

// Order заказ Razorpay, который клиент передаёт в виджет оплаты.
type Order struct {
	ID       string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	KeyID    string `json:"keyId"`
}

// Razorpay адаптер Razorpay Orders API.
type Razorpay struct {
	client    *razorpay.Client
	keyID     string
	keySecret string
	currency  string
}

// NewRazorpay создаёт адаптер по ключам из конфигурации.
func NewRazorpay(cfg config.Razorpay) *Razorpay {
	currency := strings.ToUpper(cfg.Currency)
	if currency == "" {
		currency = "INR"
	}
	return &Razorpay{
		client:    razorpay.NewClient(cfg.KeyID, cfg.KeySecret),
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		currency:  currency,
	}
}

// Currency валюта заказов.
func (r *Razorpay) Currency() string {
	return r.currency
}

// CreateOrder создаёт заказ на стоимость курса.
func (r *Razorpay) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	const op = "paymentgateway.Razorpay.CreateOrder"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	receipt := receiptFor(req.CourseID, req.UserUID)
	data := map[string]interface{}{
		"amount":   ToMinorUnits(req.Price),
		"currency": r.currency,
		"receipt":  receipt,
		"notes": map[string]interface{}{
			MetadataCourseID: req.CourseID,
			MetadataUserID:   req.UserUID,
		},
	}
	resp, err := r.client.Order.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	order, err := orderFromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	order.KeyID = r.keyID
	return order, nil
}

// VerifySignature проверяет подпись платежа: hex(HMAC-SHA256(secret, orderID|paymentID)).
func (r *Razorpay) VerifySignature(orderID, paymentID, signature string) bool {
	return VerifyRazorpaySignature(r.keySecret, orderID, paymentID, signature)
}

// VerifyRazorpaySignature сравнивает подпись за постоянное время.
func VerifyRazorpaySignature(secret, orderID, paymentID, signature string) bool {
	expected := RazorpaySignature(secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

// RazorpaySignature вычисляет ожидаемую подпись платежа.
func RazorpaySignature(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// receiptFor строит квитанцию заказа; Razorpay ограничивает её 40 символами.
func receiptFor(courseID, userUID string) string {
	receipt := "rcpt_" + short(courseID) + "_" + short(userUID)
	if len(receipt) > 40 {
		receipt = receipt[:40]
	}
	return receipt
}

func short(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func orderFromResponse(resp map[string]interface{}) (*Order, error) {
	id, _ := resp["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("order response has no id")
	}
	order := &Order{ID: id}
	switch amount := resp["amount"].(type) {
	case float64:
		order.Amount = int64(amount)
	case int64:
		order.Amount = amount
	case int:
		order.Amount = int64(amount)
	}
	order.Currency, _ = resp["currency"].(string)
	order.Receipt, _ = resp["receipt"].(string)
	return order, nil
}
