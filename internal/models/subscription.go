package models

import "time"

// Значения статуса подписки.
const (
	StatusActive    = "active"
	StatusExpired   = "expired"
	StatusCancelled = "cancelled"
)

// DefaultCurrency и DefaultFrequency подставляются, если клиент их не передал.
const (
	DefaultCurrency  = "INR"
	DefaultFrequency = "monthly"
)

// Subscription описывает подписку в бизнес-логике и хранилище.
// RenewalDate == nil означает, что дата ещё не вычислена.
type Subscription struct {
	ID            string     `json:"id"`
	Name          string     `json:"name" validate:"required,min=3,max=50"`
	Price         float64    `json:"price" validate:"min=0"`
	Currency      string     `json:"currency" validate:"oneof=USD EUR GBP INR JPY"`
	Frequency     string     `json:"frequency" validate:"oneof=daily weekly monthly yearly"`
	Category      string     `json:"category" validate:"required,oneof=Music Video Education"`
	PaymentMethod string     `json:"paymentMethod" validate:"required"`
	Status        string     `json:"status" validate:"oneof=active expired cancelled"`
	StartDate     time.Time  `json:"startDate" validate:"required,notfuture"`
	RenewalDate   *time.Time `json:"renewalDate,omitempty"`
	UserID        string     `json:"user" validate:"required"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// SubscriptionInput используется для приёма данных из JSON-запроса.
// Необязательные поля — указатели, чтобы отличать "не передано" от нулевого значения.
type SubscriptionInput struct {
	Name          string   `json:"name"`
	Price         *float64 `json:"price"`
	Currency      string   `json:"currency,omitempty"`
	Frequency     string   `json:"frequency,omitempty"`
	Category      string   `json:"category"`
	PaymentMethod string   `json:"paymentMethod"`
	Status        string   `json:"status,omitempty"`
	StartDate     *Date    `json:"startDate,omitempty"`
	RenewalDate   *Date    `json:"renewalDate,omitempty"`
}
