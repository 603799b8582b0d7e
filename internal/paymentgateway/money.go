// Package paymentgateway содержит адаптеры платёжных шлюзов Stripe и Razorpay.
//
// Шлюзы оперируют суммами в минимальных единицах валюты (центы, пайсы),
// в базе и API платформы цены хранятся в основных единицах.
package paymentgateway

import "math"

// ToMinorUnits переводит сумму в минимальные единицы валюты: 499 -> 49900.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FromMinorUnits переводит сумму из минимальных единиц: 49900 -> 499.
func FromMinorUnits(amount int64) float64 {
	return float64(amount) / 100
}
