package services

import (
	"errors"
	"fmt"

	"github.com/autohub-app/autohub-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrSettingNotFound = errors.New("setting not found")

// SettingsService stores site configuration key/value pairs, managed
// through the settings_management feature.
type SettingsService struct {
	db *gorm.DB
}

func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{db: db}
}

func (s *SettingsService) List() ([]models.Setting, error) {
	var settings []models.Setting
	err := s.db.Order("key").Find(&settings).Error
	return settings, err
}

func (s *SettingsService) Get(key string) (*models.Setting, error) {
	var setting models.Setting
	if err := s.db.Where("key = ?", key).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingNotFound
		}
		return nil, err
	}
	return &setting, nil
}

func (s *SettingsService) Set(key, value string, updatedBy uuid.UUID) (*models.Setting, error) {
	setting := models.Setting{
		ID:        uuid.New(),
		Key:       key,
		Value:     value,
		UpdatedBy: updatedBy,
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_by", "updated_at"}),
	}).Create(&setting).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save setting: %w", err)
	}

	return s.Get(key)
}

func (s *SettingsService) Delete(key string) error {
	result := s.db.Where("key = ?", key).Delete(&models.Setting{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSettingNotFound
	}
	return nil
}
