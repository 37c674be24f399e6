package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/autohub-app/autohub-backend/internal/dto"
	"github.com/autohub-app/autohub-backend/internal/entitlement"
	"github.com/autohub-app/autohub-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrPaymentDeclined      = errors.New("payment was declined")
)

// SubscriptionService persists the entitlement lifecycle. All state
// transitions are computed by the entitlement package; this service owns
// reading the records, the tick-on-read expiry persistence and the
// conditional update that keeps concurrent slot consumption within quota.
type SubscriptionService struct {
	db *gorm.DB
}

func NewSubscriptionService(db *gorm.DB) *SubscriptionService {
	return &SubscriptionService{db: db}
}

// Current returns the user's active subscription after applying lazy
// expiry, or nil when none is active right now. The stored status can lag
// wall clock time until something reads it; this is the read path that
// catches up.
func (s *SubscriptionService) Current(userID uuid.UUID) (*models.Subscription, error) {
	return s.currentTx(s.db, userID)
}

func (s *SubscriptionService) currentTx(tx *gorm.DB, userID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	err := tx.Where("user_id = ? AND status = ?", userID, models.SubscriptionActive).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}

	if entitlement.Tick(&sub, time.Now()) {
		if err := tx.Model(&sub).Update("status", sub.Status).Error; err != nil {
			return nil, fmt.Errorf("failed to persist expiry: %w", err)
		}
		return nil, nil
	}
	return &sub, nil
}

// HasActiveEntitlement reports whether the user holds a live subscription,
// observing expiry even if no tick has persisted it yet.
func (s *SubscriptionService) HasActiveEntitlement(userID uuid.UUID) (bool, error) {
	sub, err := s.Current(userID)
	if err != nil {
		return false, err
	}
	return sub != nil && entitlement.IsActiveAt(sub, time.Now()), nil
}

// Purchase buys a plan for the user. Card payments clear through the
// simulated gateway immediately and yield an active subscription; bank
// transfers start pending until payment management confirms them. A user
// with a live subscription is rejected before any payment is attempted.
func (s *SubscriptionService) Purchase(userID uuid.UUID, plan *models.SubscriptionPlan, req *dto.PurchaseRequest) (*models.Subscription, error) {
	confirmed, transactionID, err := processPayment(req.PaymentMethod, plan.Price)
	if err != nil {
		return nil, err
	}

	var created *models.Subscription
	err = s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := s.currentTx(tx, userID)
		if err != nil {
			return err
		}

		var end time.Time
		if req.EndDate != "" {
			end, err = time.Parse(time.RFC3339, req.EndDate)
			if err != nil {
				return fmt.Errorf("%w: invalid end_date", entitlement.ErrEndDateRequired)
			}
		}

		sub, err := entitlement.Purchase(userID, plan, existing != nil, entitlement.PurchaseOptions{
			PaymentConfirmed: confirmed,
			PaymentMethod:    req.PaymentMethod,
			TransactionID:    transactionID,
			CustomEndDate:    end,
		}, time.Now())
		if err != nil {
			return err
		}

		if err := tx.Create(sub).Error; err != nil {
			return fmt.Errorf("failed to create subscription: %w", err)
		}
		created = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ConfirmPayment activates a pending subscription once payment management
// verifies the transfer arrived.
func (s *SubscriptionService) ConfirmPayment(subID uuid.UUID, transactionID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&sub, "id = ?", subID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubscriptionNotFound
			}
			return err
		}

		active, err := s.currentTx(tx, sub.UserID)
		if err != nil {
			return err
		}

		if err := entitlement.ConfirmPayment(&sub, active != nil, transactionID); err != nil {
			return err
		}
		return tx.Model(&sub).Updates(map[string]interface{}{
			"status":         sub.Status,
			"transaction_id": sub.TransactionID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// RejectPayment cancels a pending subscription whose payment never arrived.
func (s *SubscriptionService) RejectPayment(subID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	if err := s.db.First(&sub, "id = ?", subID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	if err := entitlement.RejectPayment(&sub); err != nil {
		return nil, err
	}
	if err := s.db.Model(&sub).Update("status", sub.Status).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// ConsumeSlot uses one premium listing slot of the subscription.
//
// The decision is validated against an in-memory snapshot first, then
// enforced with a conditional increment so two concurrent calls can never
// both take the last slot: the guard only matches while consumed_slots is
// below the plan quota, and the losing side sees zero rows affected and
// reports quota exhaustion. When the winning increment fills the quota the
// same transaction also retires the subscription; the returned result
// carries AutoCancelled so the caller can prompt for renewal rather than
// show a generic expiry.
func (s *SubscriptionService) ConsumeSlot(subID uuid.UUID) (*entitlement.MarkPremiumResult, error) {
	var result *entitlement.MarkPremiumResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var sub models.Subscription
		if err := tx.First(&sub, "id = ?", subID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubscriptionNotFound
			}
			return err
		}

		var plan models.SubscriptionPlan
		if err := tx.First(&plan, "id = ?", sub.PlanID).Error; err != nil {
			return fmt.Errorf("failed to load plan: %w", err)
		}

		snapshot := sub
		_, err := entitlement.MarkPremium(&snapshot, plan.PostCount, time.Now())
		if err != nil {
			// Persist a lazily observed expiry before reporting.
			if errors.Is(err, entitlement.ErrNotActive) && entitlement.Tick(&sub, time.Now()) {
				tx.Model(&sub).Update("status", sub.Status)
			}
			return err
		}

		update := tx.Model(&models.Subscription{}).
			Where("id = ? AND status = ? AND consumed_slots < ?", sub.ID, models.SubscriptionActive, plan.PostCount).
			UpdateColumn("consumed_slots", gorm.Expr("consumed_slots + 1"))
		if update.Error != nil {
			return fmt.Errorf("failed to consume slot: %w", update.Error)
		}
		if update.RowsAffected == 0 {
			// Lost the race to another request or the record changed
			// state underneath us.
			return entitlement.ErrQuotaExhausted
		}

		if err := tx.First(&sub, "id = ?", sub.ID).Error; err != nil {
			return err
		}
		if sub.ConsumedSlots >= plan.PostCount {
			sub.Status = models.SubscriptionCancelled
			if err := tx.Model(&sub).Update("status", sub.Status).Error; err != nil {
				return fmt.Errorf("failed to retire exhausted subscription: %w", err)
			}
			result = &entitlement.MarkPremiumResult{Subscription: &sub, AutoCancelled: true}
		} else {
			result = &entitlement.MarkPremiumResult{Subscription: &sub}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CancelOwned cancels the subscription only if userID owns it, for the
// self-service route. A foreign subscription reads as not found so the
// route cannot be used to probe other users' records.
func (s *SubscriptionService) CancelOwned(userID, subID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.Where("id = ? AND user_id = ?", subID, userID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.Cancel(subID)
}

// Cancel ends the subscription explicitly. Cancelling a record that is
// already terminal is reported, not swallowed.
func (s *SubscriptionService) Cancel(subID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&sub, "id = ?", subID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubscriptionNotFound
			}
			return err
		}

		// Catch up on expiry first so cancelling a lapsed subscription
		// reports the terminal state rather than succeeding.
		if entitlement.Tick(&sub, time.Now()) {
			if err := tx.Model(&sub).Update("status", sub.Status).Error; err != nil {
				return err
			}
		}

		if err := entitlement.Cancel(&sub); err != nil {
			return err
		}
		return tx.Model(&sub).Update("status", sub.Status).Error
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// History returns the user's subscriptions, newest first.
func (s *SubscriptionService) History(userID uuid.UUID) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&subs).Error
	return subs, err
}

// ListPending returns subscriptions awaiting payment confirmation, for the
// payment management console.
func (s *SubscriptionService) ListPending() ([]models.Subscription, error) {
	var subs []models.Subscription
	err := s.db.Where("status = ?", models.SubscriptionPending).Order("created_at").Find(&subs).Error
	return subs, err
}

// processPayment stands in for the payment gateway. Card payments clear
// instantly, bank transfers stay unconfirmed until verified manually.
func processPayment(method string, amount float64) (confirmed bool, transactionID string, err error) {
	switch strings.ToLower(method) {
	case "card", "credit_card", "":
		return true, newTransactionID(), nil
	case "bank_transfer":
		return false, "", nil
	default:
		return false, "", ErrPaymentDeclined
	}
}

func newTransactionID() string {
	return "txn_" + strings.ReplaceAll(uuid.New().String(), "-", "")
}
