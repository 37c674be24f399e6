package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/autohub-app/autohub-backend/internal/dto"
	"github.com/autohub-app/autohub-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrPlanNotFound = errors.New("plan not found")
	ErrInvalidPlan  = errors.New("invalid plan")
	ErrPlanInUse    = errors.New("plan has subscriptions and can only be deactivated")
)

// PlanService manages the subscription plan catalog.
type PlanService struct {
	db *gorm.DB
}

func NewPlanService(db *gorm.DB) *PlanService {
	return &PlanService{db: db}
}

// ListActive returns plans currently available for purchase.
func (s *PlanService) ListActive() ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	err := s.db.Where("is_active = true").Order("price").Find(&plans).Error
	return plans, err
}

// ListAll returns every plan, for the admin console.
func (s *PlanService) ListAll() ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	err := s.db.Order("created_at").Find(&plans).Error
	return plans, err
}

func (s *PlanService) Get(id uuid.UUID) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	if err := s.db.First(&plan, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (s *PlanService) Create(req *dto.PlanRequest) (*models.SubscriptionPlan, error) {
	if err := validatePlan(req); err != nil {
		return nil, err
	}

	features, err := json.Marshal(req.Features)
	if err != nil {
		return nil, fmt.Errorf("failed to encode features: %w", err)
	}

	plan := models.SubscriptionPlan{
		ID:        uuid.New(),
		Name:      req.Name,
		PlanType:  req.PlanType,
		Price:     req.Price,
		PostCount: req.PostCount,
		Features:  datatypes.JSON(features),
		IsActive:  true,
	}

	if err := s.db.Create(&plan).Error; err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}
	return &plan, nil
}

// Update edits a plan in place. Running subscriptions are unaffected: they
// carry their own price snapshot and their quota is read from the plan row
// only at consumption time, so PostCount changes apply to future checks.
func (s *PlanService) Update(id uuid.UUID, req *dto.PlanRequest) (*models.SubscriptionPlan, error) {
	if err := validatePlan(req); err != nil {
		return nil, err
	}

	plan, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	features, err := json.Marshal(req.Features)
	if err != nil {
		return nil, fmt.Errorf("failed to encode features: %w", err)
	}

	plan.Name = req.Name
	plan.PlanType = req.PlanType
	plan.Price = req.Price
	plan.PostCount = req.PostCount
	plan.Features = datatypes.JSON(features)

	if err := s.db.Save(plan).Error; err != nil {
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}
	return plan, nil
}

// SetActive flips availability for new purchases. Existing subscriptions
// on a deactivated plan keep running until they end.
func (s *PlanService) SetActive(id uuid.UUID, active bool) (*models.SubscriptionPlan, error) {
	plan, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	plan.IsActive = active
	if err := s.db.Save(plan).Error; err != nil {
		return nil, err
	}
	return plan, nil
}

// Delete removes a plan that was never purchased. Plans with subscription
// history must be deactivated instead so historical records keep a valid
// reference.
func (s *PlanService) Delete(id uuid.UUID) error {
	plan, err := s.Get(id)
	if err != nil {
		return err
	}

	var count int64
	if err := s.db.Model(&models.Subscription{}).Where("plan_id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrPlanInUse
	}

	return s.db.Delete(plan).Error
}

func validatePlan(req *dto.PlanRequest) error {
	if req.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPlan)
	}
	switch req.PlanType {
	case models.PlanMonthly, models.PlanYearly, models.PlanCustom:
	default:
		return fmt.Errorf("%w: plan type must be monthly, yearly or custom", ErrInvalidPlan)
	}
	if req.Price < 0 {
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidPlan)
	}
	if req.PostCount <= 0 {
		return fmt.Errorf("%w: post count must be positive", ErrInvalidPlan)
	}
	return nil
}
