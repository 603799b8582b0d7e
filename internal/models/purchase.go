package models

import "time"

// Статусы покупки. Переход возможен только pending -> completed.
const (
	PurchaseStatusPending   = "pending"
	PurchaseStatusCompleted = "completed"
)

// Платёжные шлюзы.
const (
	PaymentMethodStripe   = "stripe"
	PaymentMethodRazorpay = "razorpay"
)

// CoursePurchase связывает пользователя и купленный курс.
// PaymentID содержит id checkout-сессии Stripe или заказа Razorpay.
type CoursePurchase struct {
	ID            string    `json:"id"`
	CourseID      string    `json:"courseId"`
	UserUID       string    `json:"userId"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	PaymentMethod string    `json:"paymentMethod"`
	PaymentID     string    `json:"paymentId"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// IsCompleted сообщает, завершена ли оплата.
func (p *CoursePurchase) IsCompleted() bool {
	return p.Status == PurchaseStatusCompleted
}

// PurchasedCourse элемент списка купленных курсов.
type PurchasedCourse struct {
	Purchase CoursePurchase `json:"purchase"`
	Course   Course         `json:"course"`
}
