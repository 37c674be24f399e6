// Package entitlement implements the subscription state machine: purchase,
// premium-slot consumption, time-driven expiry and cancellation. Every
// function here is a pure transition over subscription snapshots; reading
// and persisting the records is the caller's job.
package entitlement

import (
	"errors"
	"time"

	"github.com/autohub-app/autohub-backend/internal/models"
	"github.com/google/uuid"
)

var (
	// ErrActiveSubscription rejects a purchase while another subscription
	// of the same user is still active.
	ErrActiveSubscription = errors.New("active subscription exists")
	// ErrPlanInactive rejects purchasing a deactivated plan.
	ErrPlanInactive = errors.New("plan is not available for purchase")
	// ErrEndDateRequired rejects a custom-plan purchase without an
	// explicit end date, or one not after the start.
	ErrEndDateRequired = errors.New("custom plan requires an end date after the start date")
	// ErrNotActive rejects slot consumption or cancellation of a
	// subscription that is not currently active, including one whose end
	// date has already passed even if the stored status says otherwise.
	ErrNotActive = errors.New("subscription is not active")
	// ErrQuotaExhausted rejects slot consumption once every premium slot
	// of the plan has been used.
	ErrQuotaExhausted = errors.New("premium slot quota exhausted")
	// ErrAlreadyTerminal rejects cancelling a subscription that is
	// already cancelled or expired.
	ErrAlreadyTerminal = errors.New("subscription already cancelled or expired")
	// ErrNotPending rejects confirming or rejecting payment on a
	// subscription that is not awaiting payment.
	ErrNotPending = errors.New("subscription is not pending payment")
)

// IsTerminal reports whether status is a sink state.
func IsTerminal(status string) bool {
	return status == models.SubscriptionCancelled || status == models.SubscriptionExpired
}

// PurchaseOptions carries the payment outcome and, for custom plans, the
// caller-chosen end date. Payment processing itself happens upstream; the
// lifecycle only sees whether it was confirmed.
type PurchaseOptions struct {
	PaymentConfirmed bool
	PaymentMethod    string
	TransactionID    string
	CustomEndDate    time.Time
}

// Purchase builds the subscription record for a new plan purchase.
//
// hasActive is the caller's answer to "does this user already hold an
// active subscription"; when true the purchase conflicts and is rejected
// outright rather than silently replacing the existing record. The plan
// price is snapshotted so later plan edits never change what was bought.
// A confirmed payment yields an active record; an unconfirmed one yields
// pending, to be resolved later via ConfirmPayment or RejectPayment.
func Purchase(userID uuid.UUID, plan *models.SubscriptionPlan, hasActive bool, opts PurchaseOptions, now time.Time) (*models.Subscription, error) {
	if hasActive {
		return nil, ErrActiveSubscription
	}
	if !plan.IsActive {
		return nil, ErrPlanInactive
	}

	var end time.Time
	switch plan.PlanType {
	case models.PlanMonthly:
		end = now.AddDate(0, 1, 0)
	case models.PlanYearly:
		end = now.AddDate(1, 0, 0)
	default:
		if !opts.CustomEndDate.After(now) {
			return nil, ErrEndDateRequired
		}
		end = opts.CustomEndDate
	}

	status := models.SubscriptionPending
	if opts.PaymentConfirmed {
		status = models.SubscriptionActive
	}

	return &models.Subscription{
		ID:            uuid.New(),
		UserID:        userID,
		PlanID:        plan.ID,
		PlanType:      plan.PlanType,
		Status:        status,
		StartDate:     now,
		EndDate:       end,
		Price:         plan.Price,
		PaymentMethod: opts.PaymentMethod,
		TransactionID: opts.TransactionID,
		ConsumedSlots: 0,
	}, nil
}

// ConfirmPayment moves a pending subscription to active. hasActive guards
// the single-active invariant against another subscription having been
// activated while this one waited for payment.
func ConfirmPayment(sub *models.Subscription, hasActive bool, transactionID string) error {
	if sub.Status != models.SubscriptionPending {
		return ErrNotPending
	}
	if hasActive {
		return ErrActiveSubscription
	}
	sub.Status = models.SubscriptionActive
	if transactionID != "" {
		sub.TransactionID = transactionID
	}
	return nil
}

// RejectPayment cancels a pending subscription whose payment failed or
// timed out.
func RejectPayment(sub *models.Subscription) error {
	if sub.Status != models.SubscriptionPending {
		return ErrNotPending
	}
	sub.Status = models.SubscriptionCancelled
	return nil
}

// MarkPremiumResult reports a successful slot consumption. AutoCancelled is
// set when the consumed slot was the plan's last one and the subscription
// was retired in the same step, so the caller can show a renewal prompt
// instead of a generic expiry message.
type MarkPremiumResult struct {
	Subscription  *models.Subscription
	AutoCancelled bool
}

// MarkPremium consumes one premium listing slot.
//
// postCount is the owning plan's slot quota. The call fails with
// ErrQuotaExhausted when every slot is already used — checked first, so a
// subscription retired by consuming its last slot keeps answering "quota
// used up" (the caller's remedy is renewal) — and otherwise with
// ErrNotActive when the subscription is not active or its end date has
// passed (expiry is observed here even if no tick ran). In both cases the
// counter is left untouched. Consuming the final slot cancels the
// subscription in the same transition: the subscription's value is exactly
// its post quota, so a fully consumed one is retired early.
//
// Note for persisting callers: the increment and quota check must be
// applied to the store as one conditional update so that concurrent calls
// can never push ConsumedSlots past postCount.
func MarkPremium(sub *models.Subscription, postCount int, now time.Time) (*MarkPremiumResult, error) {
	if sub.ConsumedSlots >= postCount {
		return nil, ErrQuotaExhausted
	}
	if sub.Status != models.SubscriptionActive || now.After(sub.EndDate) {
		return nil, ErrNotActive
	}

	sub.ConsumedSlots++
	res := &MarkPremiumResult{Subscription: sub}
	if sub.ConsumedSlots >= postCount {
		sub.Status = models.SubscriptionCancelled
		res.AutoCancelled = true
	}
	return res, nil
}

// Tick applies the time-driven expiry transition. It reports whether the
// record changed so the caller knows to persist it, and is idempotent:
// ticking a terminal or pending record, or an active one still inside its
// period, changes nothing.
func Tick(sub *models.Subscription, now time.Time) bool {
	if sub.Status == models.SubscriptionActive && now.After(sub.EndDate) {
		sub.Status = models.SubscriptionExpired
		return true
	}
	return false
}

// Cancel applies an explicit user or admin cancellation. Only an active
// subscription can be cancelled; repeating the call on an already terminal
// record is a reported error, not a silent success, because cancellation
// must stay an intentional, observable action.
func Cancel(sub *models.Subscription) error {
	switch {
	case sub.Status == models.SubscriptionActive:
		sub.Status = models.SubscriptionCancelled
		return nil
	case IsTerminal(sub.Status):
		return ErrAlreadyTerminal
	default:
		return ErrNotActive
	}
}

// IsActiveAt reports whether the subscription entitles its owner right now:
// stored status active and the period not yet over. The end date is checked
// directly rather than trusting the stored status, so a record whose expiry
// no tick has persisted yet still answers false.
func IsActiveAt(sub *models.Subscription, now time.Time) bool {
	return sub.Status == models.SubscriptionActive && !now.After(sub.EndDate)
}
