package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscription statuses. Cancelled and expired are terminal: no operation
// ever transitions a record out of them, a new purchase creates a new row.
const (
	SubscriptionPending   = "pending"
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
	SubscriptionExpired   = "expired"
)

// Subscription is one purchase of a plan by a user. Price is snapshotted at
// purchase time so later plan price changes never touch existing records.
// ConsumedSlots counts premium listings posted against this subscription;
// it never exceeds the plan's PostCount.
type Subscription struct {
	ID            uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID        uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	PlanID        uuid.UUID        `gorm:"type:uuid;not null;index" json:"plan_id"`
	PlanType      string           `gorm:"size:20;not null" json:"plan_type"`
	Status        string           `gorm:"size:20;not null;default:'pending';index" json:"status"`
	StartDate     time.Time        `gorm:"not null" json:"start_date"`
	EndDate       time.Time        `gorm:"not null" json:"end_date"`
	Price         float64          `gorm:"type:decimal(10,2);not null" json:"price"`
	PaymentMethod string           `gorm:"size:50" json:"payment_method"`
	TransactionID string           `gorm:"size:100;index" json:"transaction_id"`
	ConsumedSlots int              `gorm:"not null;default:0" json:"consumed_slots"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	User          User             `gorm:"foreignKey:UserID" json:"-"`
	Plan          SubscriptionPlan `gorm:"foreignKey:PlanID" json:"-"`
}
