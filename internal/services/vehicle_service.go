package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/autohub-app/autohub-backend/internal/dto"
	"github.com/autohub-app/autohub-backend/internal/entitlement"
	"github.com/autohub-app/autohub-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrVehicleNotFound = errors.New("vehicle not found")
	ErrNotOwner        = errors.New("you can only manage your own listings")
	ErrAlreadyPremium  = errors.New("listing is already premium")
)

// VehicleService manages marketplace listings. The premium flag is only
// ever set through MarkPremium, which consumes a subscription slot.
type VehicleService struct {
	db            *gorm.DB
	subscriptions *SubscriptionService
}

func NewVehicleService(db *gorm.DB, subscriptions *SubscriptionService) *VehicleService {
	return &VehicleService{db: db, subscriptions: subscriptions}
}

func (s *VehicleService) Create(userID uuid.UUID, req *dto.VehicleRequest) (*models.Vehicle, error) {
	if req.Make == "" || req.Model == "" {
		return nil, errors.New("make and model are required")
	}
	if req.Year < 1900 || req.Year > time.Now().Year()+1 {
		return nil, errors.New("invalid model year")
	}
	if req.Price <= 0 {
		return nil, errors.New("price must be positive")
	}

	vehicle := models.Vehicle{
		ID:          uuid.New(),
		UserID:      userID,
		Make:        req.Make,
		Model:       req.Model,
		Year:        req.Year,
		Mileage:     req.Mileage,
		Price:       req.Price,
		Description: req.Description,
		Status:      models.VehiclePending,
	}

	if err := s.db.Create(&vehicle).Error; err != nil {
		return nil, fmt.Errorf("failed to create vehicle: %w", err)
	}
	return &vehicle, nil
}

// ListPublic returns approved listings, premium first.
func (s *VehicleService) ListPublic(limit, offset int) ([]models.Vehicle, int64, error) {
	var vehicles []models.Vehicle
	var total int64

	s.db.Model(&models.Vehicle{}).Where("status = ?", models.VehicleApproved).Count(&total)

	err := s.db.Where("status = ?", models.VehicleApproved).
		Order("is_premium DESC, created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&vehicles).Error

	return vehicles, total, err
}

// ListOwned returns all listings of one user regardless of status.
func (s *VehicleService) ListOwned(userID uuid.UUID) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&vehicles).Error
	return vehicles, err
}

func (s *VehicleService) Get(id uuid.UUID) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	if err := s.db.First(&vehicle, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVehicleNotFound
		}
		return nil, err
	}
	return &vehicle, nil
}

func (s *VehicleService) Update(userID uuid.UUID, id uuid.UUID, req *dto.VehicleRequest) (*models.Vehicle, error) {
	vehicle, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if vehicle.UserID != userID {
		return nil, ErrNotOwner
	}

	vehicle.Make = req.Make
	vehicle.Model = req.Model
	vehicle.Year = req.Year
	vehicle.Mileage = req.Mileage
	vehicle.Price = req.Price
	vehicle.Description = req.Description
	// Edits go back through moderation.
	vehicle.Status = models.VehiclePending

	if err := s.db.Save(vehicle).Error; err != nil {
		return nil, fmt.Errorf("failed to update vehicle: %w", err)
	}
	return vehicle, nil
}

func (s *VehicleService) Delete(userID uuid.UUID, id uuid.UUID) error {
	result := s.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Vehicle{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete vehicle: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrVehicleNotFound
	}
	return nil
}

// MarkPremium flags the owner's listing as premium by consuming one slot
// of their active subscription. The typed errors from the entitlement
// package pass through so the handler can distinguish "no active
// subscription" from "quota used up" in the response.
func (s *VehicleService) MarkPremium(userID uuid.UUID, vehicleID uuid.UUID) (*models.Vehicle, *entitlement.MarkPremiumResult, error) {
	vehicle, err := s.Get(vehicleID)
	if err != nil {
		return nil, nil, err
	}
	if vehicle.UserID != userID {
		return nil, nil, ErrNotOwner
	}
	if vehicle.IsPremium {
		return nil, nil, ErrAlreadyPremium
	}

	sub, err := s.subscriptions.Current(userID)
	if err != nil {
		return nil, nil, err
	}
	if sub == nil {
		return nil, nil, entitlement.ErrNotActive
	}

	result, err := s.subscriptions.ConsumeSlot(sub.ID)
	if err != nil {
		return nil, nil, err
	}

	err = s.db.Model(vehicle).Updates(map[string]interface{}{
		"is_premium":      true,
		"subscription_id": sub.ID,
	}).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to flag listing premium: %w", err)
	}
	vehicle.IsPremium = true
	vehicle.SubscriptionID = &sub.ID
	return vehicle, result, nil
}

// Moderate sets the moderation status of a listing (admin path).
func (s *VehicleService) Moderate(id uuid.UUID, status string) (*models.Vehicle, error) {
	if status != models.VehicleApproved && status != models.VehicleRejected {
		return nil, errors.New("status must be approved or rejected")
	}

	vehicle, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	vehicle.Status = status
	if err := s.db.Model(vehicle).Update("status", status).Error; err != nil {
		return nil, err
	}
	return vehicle, nil
}

// ListForModeration returns listings awaiting review.
func (s *VehicleService) ListForModeration() ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	err := s.db.Where("status = ?", models.VehiclePending).Order("created_at").Find(&vehicles).Error
	return vehicles, err
}
