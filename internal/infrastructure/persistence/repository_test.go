package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/fabtrack/backend/internal/domain/catalog"
	"github.com/fabtrack/backend/internal/domain/commission"
	"github.com/fabtrack/backend/internal/domain/finance"
	"github.com/fabtrack/backend/internal/domain/shared"
	"github.com/fabtrack/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// a single connection keeps every query on the same in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(AllModels()...))
	return db
}

func newStoredOrder(t *testing.T, repo *GormOrderRepository, total string) *trade.Order {
	t.Helper()
	ctx := context.Background()
	number, err := repo.GenerateOrderNumber(ctx)
	require.NoError(t, err)
	order, err := trade.NewOrder(number, uuid.New(), uuid.New(), uuid.New(), decimal.RequireFromString(total))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, order))
	return order
}

// ==================== Orders ====================

func TestGormOrderRepository_SaveAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	order := newStoredOrder(t, repo, "1000")
	today := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, order.Confirm(10, today))
	scheduled, err := trade.NewInstallmentScheduler().Reschedule(order, decimal.NewFromInt(100), 3, trade.PaymentMethodPix, today)
	require.NoError(t, err)
	itemID := uuid.New()
	scheduled.SelectedItemIDs = []uuid.UUID{itemID}
	scheduled.PriceOverrides = map[uuid.UUID]decimal.Decimal{itemID: decimal.NewFromInt(1000)}

	require.NoError(t, repo.Save(ctx, scheduled))
	assert.Equal(t, 2, scheduled.Version)

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.OrderStatusContractSigned, found.Status)
	assert.Equal(t, 2, found.Version)
	require.Len(t, found.Installments, 3)
	assert.True(t, found.Installments[0].Value.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 2, found.Installments[1].Number)
	require.Len(t, found.History, 1)
	assert.Equal(t, trade.StageNewOrder, found.History[0].Stage)
	assert.Equal(t, []uuid.UUID{itemID}, found.SelectedItemIDs)
	assert.True(t, found.PriceOverrides[itemID].Equal(decimal.NewFromInt(1000)))
	assert.NoError(t, found.CheckInvariants())
}

func TestGormOrderRepository_FindByID_NotFound(t *testing.T) {
	repo := NewGormOrderRepository(setupTestDB(t))
	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormOrderRepository_NilSelectionRoundTrip(t *testing.T) {
	repo := NewGormOrderRepository(setupTestDB(t))
	order := newStoredOrder(t, repo, "250")

	found, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Nil(t, found.SelectedItemIDs)
	assert.Nil(t, found.PriceOverrides)
	assert.Empty(t, found.Installments)
}

func TestGormOrderRepository_Save_Guards(t *testing.T) {
	ctx := context.Background()

	t.Run("stale version is rejected", func(t *testing.T) {
		repo := NewGormOrderRepository(setupTestDB(t))
		order := newStoredOrder(t, repo, "500")

		first := order.Clone()
		second := order.Clone()
		first.SetNotes("first")
		require.NoError(t, repo.Save(ctx, first))

		second.SetNotes("second")
		err := repo.Save(ctx, second)
		assert.Equal(t, "CONCURRENCY_CONFLICT", shared.ErrorCode(err))

		found, err := repo.FindByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, "first", found.Notes)
	})

	t.Run("schedule not matching total is rejected", func(t *testing.T) {
		repo := NewGormOrderRepository(setupTestDB(t))
		order := newStoredOrder(t, repo, "500")
		broken := order.Clone()
		broken.Installments = []trade.Installment{{Number: 1, Value: decimal.NewFromInt(400), Status: trade.InstallmentStatusPending}}

		err := repo.Save(ctx, broken)
		assert.Equal(t, "INVARIANT_VIOLATION", shared.ErrorCode(err))
	})

	t.Run("history cannot shrink", func(t *testing.T) {
		repo := NewGormOrderRepository(setupTestDB(t))
		order := newStoredOrder(t, repo, "500")
		at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
		require.NoError(t, order.Confirm(5, at))
		advanced, err := trade.NewProductionStateMachine().Advance(order, at.Add(time.Hour))
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, advanced))

		truncated := advanced.Clone()
		truncated.History = truncated.History[:1]
		err = repo.Save(ctx, truncated)
		assert.Equal(t, "INVARIANT_VIOLATION", shared.ErrorCode(err))
	})
}

func TestGormOrderRepository_HistoryAppends(t *testing.T) {
	repo := NewGormOrderRepository(setupTestDB(t))
	ctx := context.Background()
	sm := trade.NewProductionStateMachine()

	order := newStoredOrder(t, repo, "800")
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, order.Confirm(5, at))
	require.NoError(t, repo.Save(ctx, order))

	current := order
	for i := 1; i <= 3; i++ {
		next, err := sm.Advance(current, at.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, next))
		current = next
	}
	back, err := sm.Regress(current, at.Add(5*time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, back))

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, found.History, 5)
	stage, ok := found.CurrentStage()
	require.True(t, ok)
	assert.Equal(t, trade.ProductionStages()[2], stage)

	count, err := repo.Count(ctx, trade.OrderFilter{Stage: &stage})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestGormOrderRepository_FindAll(t *testing.T) {
	repo := NewGormOrderRepository(setupTestDB(t))
	ctx := context.Background()

	a := newStoredOrder(t, repo, "100")
	newStoredOrder(t, repo, "200")
	require.NoError(t, a.Confirm(1, time.Now()))
	require.NoError(t, repo.Save(ctx, a))

	t.Run("filters by status", func(t *testing.T) {
		status := trade.OrderStatusQuote
		orders, err := repo.FindAll(ctx, trade.OrderFilter{Filter: shared.DefaultFilter(), Status: &status})
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.True(t, orders[0].Total.Equal(decimal.NewFromInt(200)))
	})

	t.Run("filters by seller", func(t *testing.T) {
		orders, err := repo.FindAll(ctx, trade.OrderFilter{Filter: shared.DefaultFilter(), SellerID: &a.SellerID})
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, a.ID, orders[0].ID)
	})

	t.Run("pages results", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.PageSize = 1
		filter.OrderBy = "order_number"
		filter.OrderDir = "asc"
		orders, err := repo.FindAll(ctx, trade.OrderFilter{Filter: filter})
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, a.OrderNumber, orders[0].OrderNumber)
	})
}

func TestGormOrderRepository_FindPaidBetween(t *testing.T) {
	repo := NewGormOrderRepository(setupTestDB(t))
	ctx := context.Background()
	today := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

	paid := newStoredOrder(t, repo, "950")
	scheduled, err := trade.NewInstallmentScheduler().Reschedule(paid, decimal.Zero, 2, trade.PaymentMethodBoleto, today)
	require.NoError(t, err)
	require.NoError(t, scheduled.MarkInstallmentPaid(1, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), decimal.RequireFromString("475"), "NF-1", trade.PaymentMethodBoleto))
	require.NoError(t, repo.Save(ctx, scheduled))

	unpaid := newStoredOrder(t, repo, "300")
	pending, err := trade.NewInstallmentScheduler().Reschedule(unpaid, decimal.Zero, 1, trade.PaymentMethodPix, today)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, pending))

	orders, err := repo.FindPaidBetween(ctx,
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, paid.ID, orders[0].ID)
	assert.True(t, orders[0].Installments[0].IsPaid())

	none, err := repo.FindPaidBetween(ctx,
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGormOrderRepository_GenerateOrderNumber(t *testing.T) {
	repo := NewGormOrderRepository(setupTestDB(t))
	year := time.Now().Year()

	first := newStoredOrder(t, repo, "1")
	second := newStoredOrder(t, repo, "1")

	assert.Equal(t, "PED-"+itoa(year)+"-00001", first.OrderNumber)
	assert.Equal(t, "PED-"+itoa(year)+"-00002", second.OrderNumber)
}

func TestGormOrderRepository_GenerateOrderNumberConcurrent(t *testing.T) {
	repo := NewGormOrderRepository(setupTestDB(t))
	const callers = 20

	numbers := make([]string, callers)
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < callers; i++ {
		g.Go(func() error {
			number, err := repo.GenerateOrderNumber(ctx)
			numbers[i] = number
			return err
		})
	}
	require.NoError(t, g.Wait())

	seen := make(map[string]struct{}, callers)
	for _, n := range numbers {
		seen[n] = struct{}{}
	}
	assert.Len(t, seen, callers, "every caller gets its own number")
	assert.Contains(t, seen, "PED-"+itoa(time.Now().Year())+"-00020")
}

func TestGormOrderRepository_Delete(t *testing.T) {
	repo := NewGormOrderRepository(setupTestDB(t))
	ctx := context.Background()
	order := newStoredOrder(t, repo, "10")

	require.NoError(t, repo.Delete(ctx, order.ID))
	_, err := repo.FindByID(ctx, order.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, order.ID), shared.ErrNotFound)
}

// ==================== Catalog ====================

func TestGormCatalogRepositories(t *testing.T) {
	db := setupTestDB(t)
	items := NewGormCatalogItemRepository(db)
	sheets := NewGormMeasurementSheetRepository(db)
	ctx := context.Background()

	door, err := catalog.NewCatalogItem("door-01", "Door", "doors", catalog.UnitEach, decimal.NewFromInt(600))
	require.NoError(t, err)
	glass, err := catalog.NewCatalogItem("gls-01", "Glass", "glass", catalog.UnitArea, decimal.NewFromInt(120))
	require.NoError(t, err)
	glass.SetFiscalInfo(catalog.FiscalInfo{NCM: "7005.29.00", CFOP: "5102", Origin: "0"})
	require.NoError(t, items.Save(ctx, door))
	require.NoError(t, items.Save(ctx, glass))

	t.Run("finds items by ids", func(t *testing.T) {
		found, err := items.FindByIDs(ctx, []uuid.UUID{door.ID, glass.ID, uuid.New()})
		require.NoError(t, err)
		assert.Len(t, found, 2)

		cat := catalog.NewCatalog(found)
		ci, ok := cat.Lookup(glass.ID)
		require.True(t, ok)
		assert.Equal(t, "7005.29.00", ci.Fiscal.NCM)
		assert.Equal(t, catalog.UnitArea, ci.Unit)
	})

	t.Run("searches by name", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.Search = "Gla"
		found, err := items.FindAll(ctx, filter)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "GLS-01", found[0].Code)
	})

	t.Run("sheet items are replaced on save", func(t *testing.T) {
		sheet, err := catalog.NewMeasurementSheet(uuid.New())
		require.NoError(t, err)
		parent, err := sheet.AddItem(door.ID, nil, decimal.Zero, decimal.Zero, 1, "kitchen")
		require.NoError(t, err)
		_, err = sheet.AddItem(glass.ID, &parent.ID, decimal.RequireFromString("1.2"), decimal.RequireFromString("0.5"), 1, "kitchen")
		require.NoError(t, err)
		require.NoError(t, sheets.Save(ctx, sheet))

		found, err := sheets.FindByID(ctx, sheet.ID)
		require.NoError(t, err)
		require.Len(t, found.Items, 2)
		assert.Equal(t, parent.ID, found.Items[0].ID)
		assert.True(t, found.Items[1].IsAccessory())
		assert.True(t, found.Items[1].Area().Equal(decimal.RequireFromString("0.6")))

		sheet.Items = sheet.Items[:1]
		require.NoError(t, sheets.Save(ctx, sheet))
		found, err = sheets.FindByID(ctx, sheet.ID)
		require.NoError(t, err)
		assert.Len(t, found.Items, 1)
	})

	t.Run("missing ids", func(t *testing.T) {
		_, err := items.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
		_, err = sheets.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
		empty, err := sheets.FindByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}

// ==================== Expenses & settlements ====================

func TestGormSettlementStore(t *testing.T) {
	db := setupTestDB(t)
	orders := NewGormOrderRepository(db)
	expenses := NewGormExpenseRepository(db)
	store := NewGormSettlementStore(db)
	ctx := context.Background()
	today := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	order := newStoredOrder(t, orders, "1000")
	scheduled, err := trade.NewInstallmentScheduler().Reschedule(order, decimal.Zero, 2, trade.PaymentMethodCreditCard, today)
	require.NoError(t, err)
	require.NoError(t, orders.Save(ctx, scheduled))

	t.Run("order and expense are stored together", func(t *testing.T) {
		settled, expense, err := finance.NewSettlementReconciler().Settle(scheduled, 1, today, decimal.NewFromInt(480), "NF-10", trade.PaymentMethodCreditCard)
		require.NoError(t, err)
		require.NotNil(t, expense)

		require.NoError(t, store.SaveSettlement(ctx, settled, expense))
		assert.Equal(t, scheduled.Version+1, settled.Version)

		booked, err := expenses.FindByOrder(ctx, order.ID)
		require.NoError(t, err)
		require.Len(t, booked, 1)
		assert.True(t, booked[0].Value.Equal(decimal.NewFromInt(20)))
		assert.Equal(t, finance.ExpenseCategoryFee, booked[0].Category)

		found, err := orders.FindByID(ctx, order.ID)
		require.NoError(t, err)
		assert.True(t, found.Installments[0].IsPaid())
		assert.Equal(t, "NF-10", found.Installments[0].FiscalRef)
	})

	t.Run("stale order rolls back the expense", func(t *testing.T) {
		settled, expense, err := finance.NewSettlementReconciler().Settle(scheduled, 2, today, decimal.NewFromInt(400), "", trade.PaymentMethodCreditCard)
		require.NoError(t, err)

		err = store.SaveSettlement(ctx, settled, expense)
		assert.Equal(t, "CONCURRENCY_CONFLICT", shared.ErrorCode(err))

		booked, err := expenses.FindByOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Len(t, booked, 1)
	})

	t.Run("lists expenses by category", func(t *testing.T) {
		category := finance.ExpenseCategoryFee
		booked, err := expenses.FindAll(ctx, finance.ExpenseFilter{Filter: shared.DefaultFilter(), Category: &category})
		require.NoError(t, err)
		assert.Len(t, booked, 1)
	})
}

// ==================== Sellers ====================

func TestGormSellerRepository(t *testing.T) {
	repo := NewGormSellerRepository(setupTestDB(t))
	ctx := context.Background()

	ana := &commission.Seller{ID: uuid.New(), Name: "Ana", Email: "ana@example.com", Active: true}
	bruno := &commission.Seller{ID: uuid.New(), Name: "Bruno", Active: true}
	require.NoError(t, repo.Save(ctx, bruno))
	require.NoError(t, repo.Save(ctx, ana))

	ana.Active = false
	require.NoError(t, repo.Save(ctx, ana))

	sellers, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, sellers, 2)
	assert.Equal(t, "Ana", sellers[0].Name)
	assert.False(t, sellers[0].Active)

	found, err := repo.FindByID(ctx, bruno.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bruno", found.Name)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func itoa(n int) string {
	return decimal.NewFromInt(int64(n)).String()
}
