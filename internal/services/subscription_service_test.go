package services

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/autohub-app/autohub-backend/internal/entitlement"
	"github.com/autohub-app/autohub-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func subscriptionRows(sub *models.Subscription) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "plan_id", "plan_type", "status",
		"start_date", "end_date", "price", "payment_method",
		"transaction_id", "consumed_slots", "created_at", "updated_at",
	}).AddRow(
		sub.ID.String(), sub.UserID.String(), sub.PlanID.String(), sub.PlanType, sub.Status,
		sub.StartDate, sub.EndDate, sub.Price, sub.PaymentMethod,
		sub.TransactionID, sub.ConsumedSlots, sub.CreatedAt, sub.UpdatedAt,
	)
}

func planRows(plan *models.SubscriptionPlan) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "plan_type", "price", "post_count", "features", "is_active",
	}).AddRow(
		plan.ID.String(), plan.Name, plan.PlanType, plan.Price, plan.PostCount, []byte("[]"), plan.IsActive,
	)
}

func consumableSub(planID uuid.UUID, consumed int) *models.Subscription {
	now := time.Now()
	return &models.Subscription{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		PlanID:        planID,
		PlanType:      models.PlanMonthly,
		Status:        models.SubscriptionActive,
		StartDate:     now.AddDate(0, 0, -1),
		EndDate:       now.AddDate(0, 1, 0),
		Price:         49.90,
		PaymentMethod: "card",
		ConsumedSlots: consumed,
	}
}

// Two requests race for the last slot: both read the row while a slot is
// still free, but only one conditional increment matches. The loser's
// update touches zero rows and must surface as quota exhaustion, never as
// a second success.
func TestConsumeSlotLosingRace(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewSubscriptionService(db)

	plan := &models.SubscriptionPlan{ID: uuid.New(), Name: "Starter", PlanType: models.PlanMonthly, Price: 49.90, PostCount: 3, IsActive: true}
	sub := consumableSub(plan.ID, 2)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE id =`).
		WillReturnRows(subscriptionRows(sub))
	mock.ExpectQuery(`SELECT \* FROM "subscription_plans"`).
		WillReturnRows(planRows(plan))
	mock.ExpectExec(`UPDATE "subscriptions" SET "consumed_slots"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	result, err := service.ConsumeSlot(sub.ID)
	require.ErrorIs(t, err, entitlement.ErrQuotaExhausted)
	require.Nil(t, result)
	require.NoError(t, mock.ExpectationsWereMet())
}

// The winning increment of the race fills the quota, so the same
// transaction retires the subscription and flags the auto-cancel.
func TestConsumeSlotWinnerTakesLastSlot(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewSubscriptionService(db)

	plan := &models.SubscriptionPlan{ID: uuid.New(), Name: "Starter", PlanType: models.PlanMonthly, Price: 49.90, PostCount: 3, IsActive: true}
	sub := consumableSub(plan.ID, 2)

	after := *sub
	after.ConsumedSlots = 3

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE id =`).
		WillReturnRows(subscriptionRows(sub))
	mock.ExpectQuery(`SELECT \* FROM "subscription_plans"`).
		WillReturnRows(planRows(plan))
	mock.ExpectExec(`UPDATE "subscriptions" SET "consumed_slots"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE id =`).
		WillReturnRows(subscriptionRows(&after))
	mock.ExpectExec(`UPDATE "subscriptions" SET "status"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := service.ConsumeSlot(sub.ID)
	require.NoError(t, err)
	require.True(t, result.AutoCancelled)
	require.Equal(t, models.SubscriptionCancelled, result.Subscription.Status)
	require.Equal(t, 3, result.Subscription.ConsumedSlots)
	require.NoError(t, mock.ExpectationsWereMet())
}

// Consuming a mid-quota slot increments the counter and leaves the
// subscription running.
func TestConsumeSlotMidQuota(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewSubscriptionService(db)

	plan := &models.SubscriptionPlan{ID: uuid.New(), Name: "Starter", PlanType: models.PlanMonthly, Price: 49.90, PostCount: 3, IsActive: true}
	sub := consumableSub(plan.ID, 0)

	after := *sub
	after.ConsumedSlots = 1

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE id =`).
		WillReturnRows(subscriptionRows(sub))
	mock.ExpectQuery(`SELECT \* FROM "subscription_plans"`).
		WillReturnRows(planRows(plan))
	mock.ExpectExec(`UPDATE "subscriptions" SET "consumed_slots"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE id =`).
		WillReturnRows(subscriptionRows(&after))
	mock.ExpectCommit()

	result, err := service.ConsumeSlot(sub.ID)
	require.NoError(t, err)
	require.False(t, result.AutoCancelled)
	require.Equal(t, models.SubscriptionActive, result.Subscription.Status)
	require.Equal(t, 1, result.Subscription.ConsumedSlots)
	require.NoError(t, mock.ExpectationsWereMet())
}

// A subscription whose quota is already spent is refused before any
// update is attempted, and the refusal names the quota, not the status.
func TestConsumeSlotAlreadyExhausted(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewSubscriptionService(db)

	plan := &models.SubscriptionPlan{ID: uuid.New(), Name: "Starter", PlanType: models.PlanMonthly, Price: 49.90, PostCount: 3, IsActive: true}
	sub := consumableSub(plan.ID, 3)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE id =`).
		WillReturnRows(subscriptionRows(sub))
	mock.ExpectQuery(`SELECT \* FROM "subscription_plans"`).
		WillReturnRows(planRows(plan))
	mock.ExpectRollback()

	result, err := service.ConsumeSlot(sub.ID)
	require.ErrorIs(t, err, entitlement.ErrQuotaExhausted)
	require.Nil(t, result)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeSlotUnknownSubscription(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewSubscriptionService(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE id =`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	result, err := service.ConsumeSlot(uuid.New())
	require.Nil(t, result)
	require.True(t, errors.Is(err, ErrSubscriptionNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}
