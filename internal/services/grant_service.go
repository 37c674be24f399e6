package services

import (
	"errors"
	"fmt"

	"github.com/autohub-app/autohub-backend/internal/models"
	"github.com/autohub-app/autohub-backend/internal/permission"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrUnknownFeature = errors.New("unknown feature")
	ErrNotAdmin       = errors.New("grants can only be assigned to admin accounts")
)

// GrantService manages per-admin feature grants and answers authorization
// questions against them.
type GrantService struct {
	db *gorm.DB
}

func NewGrantService(db *gorm.DB) *GrantService {
	return &GrantService{db: db}
}

// Authorize fetches the actor's grants and runs the resolver over them.
// Superadmins skip the fetch entirely; for everyone else a fetch failure
// yields an empty grant set, so errors deny rather than allow.
func (s *GrantService) Authorize(user *models.User, feature permission.Feature, action permission.Action) bool {
	actor := permission.Actor{ID: user.ID.String(), Role: user.Role}
	if user.Role == models.RoleSuperadmin {
		return permission.Authorize(actor, nil, feature, action)
	}
	if user.Role != models.RoleAdmin {
		return false
	}

	var grants []models.FeatureGrant
	if err := s.db.Where("admin_id = ?", user.ID).Find(&grants).Error; err != nil {
		return false
	}
	return permission.Authorize(actor, permission.NewGrantSet(grants), feature, action)
}

// ListForAdmin returns all grant rows of one admin.
func (s *GrantService) ListForAdmin(adminID uuid.UUID) ([]models.FeatureGrant, error) {
	var grants []models.FeatureGrant
	err := s.db.Where("admin_id = ?", adminID).Order("feature").Find(&grants).Error
	return grants, err
}

// Upsert creates the (admin, feature) grant row on first use and updates
// its bits afterwards. Access-only features keep their sub-bits false.
func (s *GrantService) Upsert(adminID uuid.UUID, feature string, canAccess, canCreate, canEdit, canDelete bool) (*models.FeatureGrant, error) {
	if !permission.Known(permission.Feature(feature)) {
		return nil, ErrUnknownFeature
	}

	var admin models.User
	if err := s.db.First(&admin, "id = ?", adminID).Error; err != nil {
		return nil, ErrUserNotFound
	}
	if admin.Role != models.RoleAdmin {
		return nil, ErrNotAdmin
	}

	if permission.Catalog[permission.Feature(feature)].AccessOnly {
		canCreate, canEdit, canDelete = false, false, false
	}

	grant := models.FeatureGrant{
		ID:        uuid.New(),
		AdminID:   adminID,
		Feature:   feature,
		CanAccess: canAccess,
		CanCreate: canCreate,
		CanEdit:   canEdit,
		CanDelete: canDelete,
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "admin_id"}, {Name: "feature"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"can_access", "can_create", "can_edit", "can_delete", "updated_at",
		}),
	}).Create(&grant).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert grant: %w", err)
	}

	var saved models.FeatureGrant
	if err := s.db.Where("admin_id = ? AND feature = ?", adminID, feature).First(&saved).Error; err != nil {
		return nil, err
	}
	return &saved, nil
}
