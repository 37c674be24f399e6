package services

import (
	"errors"
	"fmt"

	"github.com/autohub-app/autohub-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrInvalidRole = errors.New("invalid role")

// UserService backs the user management console.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) List(limit, offset int) ([]models.User, int64, error) {
	var users []models.User
	var total int64

	s.db.Model(&models.User{}).Count(&total)

	err := s.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error
	return users, total, err
}

func (s *UserService) Get(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// SetRole is the explicit role-change operation. Demoting an admin also
// drops its feature grants so stale rows cannot come back to life if the
// account is ever re-promoted.
func (s *UserService) SetRole(id uuid.UUID, role string) (*models.User, error) {
	switch role {
	case models.RoleUser, models.RoleAdmin, models.RoleSuperadmin:
	default:
		return nil, ErrInvalidRole
	}

	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if user.Role == models.RoleAdmin && role != models.RoleAdmin {
			if err := tx.Where("admin_id = ?", id).Delete(&models.FeatureGrant{}).Error; err != nil {
				return err
			}
		}
		return tx.Model(user).Update("role", role).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to change role: %w", err)
	}
	user.Role = role
	return user, nil
}

// Delete removes an account and everything hanging off it.
func (s *UserService) Delete(id uuid.UUID) error {
	user, err := s.Get(id)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		tx.Where("user_id = ?", id).Delete(&models.RefreshToken{})
		tx.Where("admin_id = ?", id).Delete(&models.FeatureGrant{})
		tx.Where("user_id = ?", id).Delete(&models.Vehicle{})
		return tx.Delete(user).Error
	})
}
