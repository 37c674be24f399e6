package entitlement

import (
	"testing"
	"time"

	"github.com/autohub-app/autohub-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func testPlan(postCount int) *models.SubscriptionPlan {
	return &models.SubscriptionPlan{
		ID:        uuid.New(),
		Name:      "Premium Seller",
		PlanType:  models.PlanMonthly,
		Price:     29.90,
		PostCount: postCount,
		IsActive:  true,
	}
}

func activeSub(postCount int) (*models.Subscription, *models.SubscriptionPlan) {
	plan := testPlan(postCount)
	sub, err := Purchase(uuid.New(), plan, false, PurchaseOptions{
		PaymentConfirmed: true,
		PaymentMethod:    "card",
		TransactionID:    "txn_test",
	}, now)
	if err != nil {
		panic(err)
	}
	return sub, plan
}

func TestPurchaseMonthly(t *testing.T) {
	userID := uuid.New()
	plan := testPlan(3)

	sub, err := Purchase(userID, plan, false, PurchaseOptions{
		PaymentConfirmed: true,
		PaymentMethod:    "card",
		TransactionID:    "txn_1",
	}, now)
	require.NoError(t, err)

	assert.Equal(t, models.SubscriptionActive, sub.Status)
	assert.Equal(t, userID, sub.UserID)
	assert.Equal(t, now, sub.StartDate)
	assert.Equal(t, now.AddDate(0, 1, 0), sub.EndDate)
	assert.Equal(t, plan.Price, sub.Price)
	assert.Equal(t, 0, sub.ConsumedSlots)
}

func TestPurchaseYearlyDuration(t *testing.T) {
	plan := testPlan(10)
	plan.PlanType = models.PlanYearly

	sub, err := Purchase(uuid.New(), plan, false, PurchaseOptions{PaymentConfirmed: true}, now)
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(1, 0, 0), sub.EndDate)
}

func TestPurchaseCustomNeedsEndDate(t *testing.T) {
	plan := testPlan(5)
	plan.PlanType = models.PlanCustom

	_, err := Purchase(uuid.New(), plan, false, PurchaseOptions{PaymentConfirmed: true}, now)
	assert.ErrorIs(t, err, ErrEndDateRequired)

	// End date in the past is as bad as none.
	_, err = Purchase(uuid.New(), plan, false, PurchaseOptions{
		PaymentConfirmed: true,
		CustomEndDate:    now.AddDate(0, 0, -1),
	}, now)
	assert.ErrorIs(t, err, ErrEndDateRequired)

	end := now.AddDate(0, 3, 0)
	sub, err := Purchase(uuid.New(), plan, false, PurchaseOptions{
		PaymentConfirmed: true,
		CustomEndDate:    end,
	}, now)
	require.NoError(t, err)
	assert.Equal(t, end, sub.EndDate)
}

func TestPurchaseConflictsWithActive(t *testing.T) {
	plan := testPlan(3)
	_, err := Purchase(uuid.New(), plan, true, PurchaseOptions{PaymentConfirmed: true}, now)
	assert.ErrorIs(t, err, ErrActiveSubscription)
}

func TestPurchaseInactivePlan(t *testing.T) {
	plan := testPlan(3)
	plan.IsActive = false
	_, err := Purchase(uuid.New(), plan, false, PurchaseOptions{PaymentConfirmed: true}, now)
	assert.ErrorIs(t, err, ErrPlanInactive)
}

func TestPurchaseUnconfirmedPaymentIsPending(t *testing.T) {
	sub, err := Purchase(uuid.New(), testPlan(3), false, PurchaseOptions{
		PaymentMethod: "bank_transfer",
	}, now)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionPending, sub.Status)
}

func TestPriceSnapshotImmuneToPlanChange(t *testing.T) {
	plan := testPlan(3)
	sub, err := Purchase(uuid.New(), plan, false, PurchaseOptions{PaymentConfirmed: true}, now)
	require.NoError(t, err)

	plan.Price = 59.90
	assert.Equal(t, 29.90, sub.Price)
}

func TestConfirmPayment(t *testing.T) {
	sub, _ := activeSub(3)
	sub.Status = models.SubscriptionPending

	require.NoError(t, ConfirmPayment(sub, false, "txn_bank_1"))
	assert.Equal(t, models.SubscriptionActive, sub.Status)
	assert.Equal(t, "txn_bank_1", sub.TransactionID)

	// Not pending anymore.
	assert.ErrorIs(t, ConfirmPayment(sub, false, "txn_bank_2"), ErrNotPending)
}

func TestConfirmPaymentBlockedByNewerActive(t *testing.T) {
	sub, _ := activeSub(3)
	sub.Status = models.SubscriptionPending

	err := ConfirmPayment(sub, true, "txn_late")
	assert.ErrorIs(t, err, ErrActiveSubscription)
	assert.Equal(t, models.SubscriptionPending, sub.Status)
}

func TestRejectPayment(t *testing.T) {
	sub, _ := activeSub(3)
	sub.Status = models.SubscriptionPending

	require.NoError(t, RejectPayment(sub))
	assert.Equal(t, models.SubscriptionCancelled, sub.Status)

	assert.ErrorIs(t, RejectPayment(sub), ErrNotPending)
}

func TestMarkPremiumConsumesSlots(t *testing.T) {
	sub, plan := activeSub(3)

	res, err := MarkPremium(sub, plan.PostCount, now)
	require.NoError(t, err)
	assert.Equal(t, 1, sub.ConsumedSlots)
	assert.False(t, res.AutoCancelled)
	assert.Equal(t, models.SubscriptionActive, sub.Status)
}

func TestMarkPremiumAutoCancelOnLastSlot(t *testing.T) {
	sub, plan := activeSub(3)

	// Three slots: the third consumption retires the subscription in the
	// same step.
	for i := 1; i <= 2; i++ {
		res, err := MarkPremium(sub, plan.PostCount, now)
		require.NoError(t, err)
		assert.Equal(t, i, sub.ConsumedSlots)
		assert.False(t, res.AutoCancelled)
	}

	res, err := MarkPremium(sub, plan.PostCount, now)
	require.NoError(t, err)
	assert.Equal(t, 3, sub.ConsumedSlots)
	assert.True(t, res.AutoCancelled)
	assert.Equal(t, models.SubscriptionCancelled, sub.Status)

	// A fourth attempt reports the exhausted quota so the caller can
	// prompt for renewal rather than a generic not-active message.
	_, err = MarkPremium(sub, plan.PostCount, now)
	assert.ErrorIs(t, err, ErrQuotaExhausted)
	assert.Equal(t, 3, sub.ConsumedSlots)
}

func TestMarkPremiumQuotaExhausted(t *testing.T) {
	sub, plan := activeSub(3)

	// Stored counter already at quota but status still active (e.g. a
	// writer that missed the auto-cancel): the quota check holds the line
	// and the counter stays put.
	sub.ConsumedSlots = plan.PostCount
	_, err := MarkPremium(sub, plan.PostCount, now)
	assert.ErrorIs(t, err, ErrQuotaExhausted)
	assert.Equal(t, plan.PostCount, sub.ConsumedSlots)
}

func TestMarkPremiumObservesExpiry(t *testing.T) {
	sub, plan := activeSub(3)

	// No tick ever ran; stored status still says active.
	later := sub.EndDate.Add(time.Hour)
	_, err := MarkPremium(sub, plan.PostCount, later)
	assert.ErrorIs(t, err, ErrNotActive)
	assert.Equal(t, 0, sub.ConsumedSlots)
}

func TestMarkPremiumNotActive(t *testing.T) {
	for _, status := range []string{
		models.SubscriptionPending,
		models.SubscriptionCancelled,
		models.SubscriptionExpired,
	} {
		sub, plan := activeSub(3)
		sub.Status = status
		_, err := MarkPremium(sub, plan.PostCount, now)
		assert.ErrorIs(t, err, ErrNotActive, "status %s", status)
	}
}

func TestTickExpiresActive(t *testing.T) {
	sub, _ := activeSub(3)

	assert.False(t, Tick(sub, now), "still inside the period")
	assert.Equal(t, models.SubscriptionActive, sub.Status)

	later := sub.EndDate.Add(time.Minute)
	assert.True(t, Tick(sub, later))
	assert.Equal(t, models.SubscriptionExpired, sub.Status)

	// Idempotent on expired records.
	assert.False(t, Tick(sub, later.Add(time.Hour)))
	assert.Equal(t, models.SubscriptionExpired, sub.Status)
}

func TestTickLeavesPendingAndTerminalAlone(t *testing.T) {
	for _, status := range []string{
		models.SubscriptionPending,
		models.SubscriptionCancelled,
		models.SubscriptionExpired,
	} {
		sub, _ := activeSub(3)
		sub.Status = status
		assert.False(t, Tick(sub, sub.EndDate.Add(time.Hour)), "status %s", status)
		assert.Equal(t, status, sub.Status)
	}
}

func TestCancel(t *testing.T) {
	sub, _ := activeSub(3)

	require.NoError(t, Cancel(sub))
	assert.Equal(t, models.SubscriptionCancelled, sub.Status)

	// Double cancel is a reported error, not a silent success.
	assert.ErrorIs(t, Cancel(sub), ErrAlreadyTerminal)

	expired, _ := activeSub(3)
	expired.Status = models.SubscriptionExpired
	assert.ErrorIs(t, Cancel(expired), ErrAlreadyTerminal)

	pending, _ := activeSub(3)
	pending.Status = models.SubscriptionPending
	assert.ErrorIs(t, Cancel(pending), ErrNotActive)
}

func TestTerminalStatesAreSinks(t *testing.T) {
	for _, status := range []string{models.SubscriptionCancelled, models.SubscriptionExpired} {
		sub, plan := activeSub(3)
		sub.Status = status

		_, err := MarkPremium(sub, plan.PostCount, now)
		assert.Error(t, err)
		assert.Error(t, Cancel(sub))
		assert.False(t, Tick(sub, sub.EndDate.Add(time.Hour)))
		assert.Equal(t, status, sub.Status, "terminal state must not change")
	}
}

func TestIsActiveAtLazyExpiry(t *testing.T) {
	sub, _ := activeSub(3)

	assert.True(t, IsActiveAt(sub, now))
	assert.True(t, IsActiveAt(sub, sub.EndDate), "end date itself is still inside the period")

	// Stored status lags wall clock until a tick runs; the entitlement
	// answer must not.
	assert.False(t, IsActiveAt(sub, sub.EndDate.Add(time.Second)))
	assert.Equal(t, models.SubscriptionActive, sub.Status)

	cancelled, _ := activeSub(3)
	cancelled.Status = models.SubscriptionCancelled
	assert.False(t, IsActiveAt(cancelled, now))
}

func TestSingleSlotPlanAutoCancelsImmediately(t *testing.T) {
	sub, plan := activeSub(1)

	res, err := MarkPremium(sub, plan.PostCount, now)
	require.NoError(t, err)
	assert.True(t, res.AutoCancelled)
	assert.Equal(t, models.SubscriptionCancelled, sub.Status)
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(models.SubscriptionCancelled))
	assert.True(t, IsTerminal(models.SubscriptionExpired))
	assert.False(t, IsTerminal(models.SubscriptionActive))
	assert.False(t, IsTerminal(models.SubscriptionPending))
}
