package dto

import (
	"time"

	"github.com/google/uuid"
)

type PlanRequest struct {
	Name      string   `json:"name"`
	PlanType  string   `json:"plan_type"`
	Price     float64  `json:"price"`
	PostCount int      `json:"post_count"`
	Features  []string `json:"features"`
}

type PurchaseRequest struct {
	PlanID        uuid.UUID `json:"plan_id"`
	PaymentMethod string    `json:"payment_method"`
	// EndDate is required for custom plans only, RFC 3339.
	EndDate string `json:"end_date,omitempty"`
}

type ConfirmPaymentRequest struct {
	TransactionID string `json:"transaction_id"`
}

type SubscriptionResponse struct {
	ID            uuid.UUID `json:"id"`
	PlanID        uuid.UUID `json:"plan_id"`
	PlanType      string    `json:"plan_type"`
	Status        string    `json:"status"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	Price         float64   `json:"price"`
	PaymentMethod string    `json:"payment_method"`
	TransactionID string    `json:"transaction_id"`
	ConsumedSlots int       `json:"consumed_slots"`
}

type EntitlementResponse struct {
	Active       bool                  `json:"active"`
	Subscription *SubscriptionResponse `json:"subscription,omitempty"`
}
