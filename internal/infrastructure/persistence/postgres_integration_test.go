//go:build integration

package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/fabtrack/backend/internal/domain/finance"
	"github.com/fabtrack/backend/internal/domain/shared"
	"github.com/fabtrack/backend/internal/domain/trade"
	"github.com/fabtrack/backend/internal/infrastructure/migration"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newPostgresTestDB starts a disposable postgres container with the
// repository migrations applied
func newPostgresTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("fabtrack_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	path := migration.FindPath(".")
	require.NotEmpty(t, path, "Could not find migrations directory")
	m, err := migration.New(sqlDB, path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())

	return db
}

func TestPostgres_OrderLifecycle(t *testing.T) {
	db := newPostgresTestDB(t)
	orders := NewGormOrderRepository(db)
	store := NewGormSettlementStore(db)
	expenses := NewGormExpenseRepository(db)
	ctx := context.Background()
	today := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	number, err := orders.GenerateOrderNumber(ctx)
	require.NoError(t, err)
	order, err := trade.NewOrder(number, uuid.New(), uuid.New(), uuid.New(), decimal.NewFromInt(1000))
	require.NoError(t, err)
	require.NoError(t, orders.Save(ctx, order))

	require.NoError(t, order.Confirm(10, today))
	scheduled, err := trade.NewInstallmentScheduler().Reschedule(order, decimal.Zero, 2, trade.PaymentMethodBoleto, today)
	require.NoError(t, err)
	require.NoError(t, orders.Save(ctx, scheduled))

	settled, expense, err := finance.NewSettlementReconciler().Settle(scheduled, 1, today.AddDate(0, 1, 0), decimal.NewFromInt(490), "NF-1", trade.PaymentMethodBoleto)
	require.NoError(t, err)
	require.NoError(t, store.SaveSettlement(ctx, settled, expense))

	paid, err := orders.FindPaidBetween(ctx, today, today.AddDate(0, 2, 0))
	require.NoError(t, err)
	require.Len(t, paid, 1)
	assert.True(t, paid[0].Installments[0].IsPaid())

	booked, err := expenses.FindByOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, booked, 1)
	assert.True(t, booked[0].Value.Equal(decimal.NewFromInt(10)))

	stale := scheduled.Clone()
	stale.SetNotes("stale write")
	err = orders.Save(ctx, stale)
	assert.Equal(t, "CONCURRENCY_CONFLICT", shared.ErrorCode(err))
}
