package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Vehicle listing moderation statuses.
const (
	VehiclePending  = "pending"
	VehicleApproved = "approved"
	VehicleRejected = "rejected"
	VehicleSold     = "sold"
)

// Vehicle is a marketplace listing. IsPremium is only ever set through the
// subscription slot-consumption path, never directly by the owner.
type Vehicle struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Make           string         `gorm:"size:50;not null" json:"make"`
	Model          string         `gorm:"size:50;not null" json:"model"`
	Year           int            `gorm:"not null" json:"year"`
	Mileage        int            `json:"mileage"`
	Price          float64        `gorm:"type:decimal(12,2);not null" json:"price"`
	Description    string         `gorm:"type:text" json:"description"`
	Status         string         `gorm:"size:20;not null;default:'pending';index" json:"status"`
	IsPremium      bool           `gorm:"default:false;index" json:"is_premium"`
	SubscriptionID *uuid.UUID     `gorm:"type:uuid;index" json:"subscription_id,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	User           User           `gorm:"foreignKey:UserID" json:"-"`
}
