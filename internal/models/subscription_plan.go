package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Plan billing periods. Custom plans carry no implied duration; the end
// date is supplied at purchase time.
const (
	PlanMonthly = "monthly"
	PlanYearly  = "yearly"
	PlanCustom  = "custom"
)

// SubscriptionPlan is a purchasable premium-listing package. PostCount is
// the number of premium vehicle slots the plan grants. Deactivated plans
// cannot be newly purchased, but subscriptions already running on them stay
// valid until they end.
type SubscriptionPlan struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string         `gorm:"size:100;not null" json:"name"`
	PlanType  string         `gorm:"size:20;not null;default:'monthly'" json:"plan_type"`
	Price     float64        `gorm:"type:decimal(10,2);not null" json:"price"`
	PostCount int            `gorm:"not null" json:"post_count"`
	Features  datatypes.JSON `gorm:"type:jsonb;default:'[]'" json:"features"`
	IsActive  bool           `gorm:"default:true;index" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
