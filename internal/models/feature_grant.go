package models

import (
	"time"

	"github.com/google/uuid"
)

// FeatureGrant holds the per-feature permission bits of one admin. One row
// per (admin, feature) pair, created lazily the first time a superadmin
// grants anything on that feature. The create/edit/delete bits are only
// effective while CanAccess is true; the resolver treats them as false
// otherwise, whatever is stored here.
type FeatureGrant struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AdminID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_grants_admin_feature" json:"admin_id"`
	Feature   string    `gorm:"size:50;not null;uniqueIndex:idx_grants_admin_feature" json:"feature"`
	CanAccess bool      `gorm:"default:false" json:"can_access"`
	CanCreate bool      `gorm:"default:false" json:"can_create"`
	CanEdit   bool      `gorm:"default:false" json:"can_edit"`
	CanDelete bool      `gorm:"default:false" json:"can_delete"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Admin     User      `gorm:"foreignKey:AdminID" json:"-"`
}
