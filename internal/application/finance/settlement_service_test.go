package finance

import (
	"context"
	"testing"
	"time"

	"github.com/fabtrack/backend/internal/domain/finance"
	"github.com/fabtrack/backend/internal/domain/shared"
	"github.com/fabtrack/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAll(ctx context.Context, filter trade.OrderFilter) ([]trade.Order, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]trade.Order), args.Error(1)
}

func (m *MockOrderRepository) Count(ctx context.Context, filter trade.OrderFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) FindPaidBetween(ctx context.Context, from, to time.Time) ([]trade.Order, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]trade.Order), args.Error(1)
}

func (m *MockOrderRepository) Save(ctx context.Context, order *trade.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockOrderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

type MockExpenseRepository struct {
	mock.Mock
}

func (m *MockExpenseRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]finance.Expense, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]finance.Expense), args.Error(1)
}

func (m *MockExpenseRepository) FindAll(ctx context.Context, filter finance.ExpenseFilter) ([]finance.Expense, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]finance.Expense), args.Error(1)
}

func (m *MockExpenseRepository) Save(ctx context.Context, expense *finance.Expense) error {
	return m.Called(ctx, expense).Error(0)
}

type MockSettlementStore struct {
	mock.Mock
}

func (m *MockSettlementStore) SaveSettlement(ctx context.Context, order *trade.Order, expense *finance.Expense) error {
	return m.Called(ctx, order, expense).Error(0)
}

type capturingPublisher struct {
	events []shared.DomainEvent
}

func (p *capturingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

type noopLocker struct{}

func (noopLocker) Obtain(context.Context, string) (shared.ReleaseFunc, error) {
	return func(context.Context) error { return nil }, nil
}

var fixedNow = time.Date(2024, 4, 10, 14, 30, 0, 0, time.UTC)

type settlementFixture struct {
	orders    *MockOrderRepository
	expenses  *MockExpenseRepository
	store     *MockSettlementStore
	publisher *capturingPublisher
	service   *SettlementService
	order     *trade.Order
}

func newSettlementFixture(t *testing.T) *settlementFixture {
	t.Helper()
	order, err := trade.NewOrder("PED-2024-00042", uuid.New(), uuid.New(), uuid.New(), decimal.NewFromInt(1000))
	require.NoError(t, err)
	require.NoError(t, order.Confirm(20, fixedNow.AddDate(0, -1, 0)))
	installments, err := trade.NewInstallmentScheduler().Generate(order.Total, decimal.Zero, 2, trade.PaymentMethodCreditCard, fixedNow.AddDate(0, -1, 0))
	require.NoError(t, err)
	order.Installments = installments
	order.ClearDomainEvents()

	f := &settlementFixture{
		orders:    new(MockOrderRepository),
		expenses:  new(MockExpenseRepository),
		store:     new(MockSettlementStore),
		publisher: &capturingPublisher{},
		order:     order,
	}
	f.service = NewSettlementService(f.orders, f.expenses, f.store, noopLocker{},
		WithEventPublisher(f.publisher),
		WithClock(func() time.Time { return fixedNow }),
	)
	return f
}

func TestSettlementService_Settle_WithShortfall(t *testing.T) {
	f := newSettlementFixture(t)
	f.orders.On("FindByID", mock.Anything, f.order.ID).Return(f.order, nil)
	f.store.On("SaveSettlement", mock.Anything, mock.AnythingOfType("*trade.Order"), mock.AnythingOfType("*finance.Expense")).Return(nil)

	resp, err := f.service.Settle(context.Background(), f.order.ID, 1, SettleRequest{
		NetValue:  decimal.RequireFromString("485.50"),
		FiscalRef: "NF-1001",
	})
	require.NoError(t, err)

	inst := resp.Order.Installments[0]
	assert.Equal(t, string(trade.InstallmentStatusPaid), inst.Status)
	assert.Equal(t, string(trade.PaymentMethodCreditCard), inst.Method, "defaults to the scheduled method")
	require.NotNil(t, inst.PaymentDate)
	assert.Equal(t, time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC), *inst.PaymentDate)

	require.NotNil(t, resp.Expense)
	assert.True(t, resp.Expense.Value.Equal(decimal.RequireFromString("14.50")))
	assert.Equal(t, string(finance.ExpenseCategoryFee), resp.Expense.Category)

	types := make([]string, len(f.publisher.events))
	for i, e := range f.publisher.events {
		types[i] = e.EventType()
	}
	assert.Equal(t, []string{trade.EventTypeInstallmentSettled, finance.EventTypeShortfallExpenseBooked}, types)
}

func TestSettlementService_Settle_FullAmount(t *testing.T) {
	f := newSettlementFixture(t)
	f.orders.On("FindByID", mock.Anything, f.order.ID).Return(f.order, nil)
	f.store.On("SaveSettlement", mock.Anything, mock.Anything, (*finance.Expense)(nil)).Return(nil)

	paid := time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)
	resp, err := f.service.Settle(context.Background(), f.order.ID, 2, SettleRequest{
		PaymentDate: &paid,
		NetValue:    decimal.NewFromInt(500),
		Method:      string(trade.PaymentMethodPix),
	})
	require.NoError(t, err)
	assert.Nil(t, resp.Expense)
	assert.Equal(t, string(trade.PaymentMethodPix), resp.Order.Installments[1].Method)
	assert.Len(t, f.publisher.events, 1)
}

func TestSettlementService_Settle_Rejections(t *testing.T) {
	t.Run("already paid", func(t *testing.T) {
		f := newSettlementFixture(t)
		require.NoError(t, f.order.MarkInstallmentPaid(1, fixedNow, decimal.NewFromInt(500), "", trade.PaymentMethodPix))
		f.orders.On("FindByID", mock.Anything, f.order.ID).Return(f.order, nil)

		_, err := f.service.Settle(context.Background(), f.order.ID, 1, SettleRequest{NetValue: decimal.NewFromInt(500)})
		assert.Equal(t, "INSTALLMENT_ALREADY_PAID", shared.ErrorCode(err))
		f.store.AssertNotCalled(t, "SaveSettlement", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown installment", func(t *testing.T) {
		f := newSettlementFixture(t)
		f.orders.On("FindByID", mock.Anything, f.order.ID).Return(f.order, nil)

		_, err := f.service.Settle(context.Background(), f.order.ID, 9, SettleRequest{NetValue: decimal.NewFromInt(1)})
		assert.Equal(t, "NOT_FOUND", shared.ErrorCode(err))
	})

	t.Run("store failure publishes nothing", func(t *testing.T) {
		f := newSettlementFixture(t)
		f.orders.On("FindByID", mock.Anything, f.order.ID).Return(f.order, nil)
		f.store.On("SaveSettlement", mock.Anything, mock.Anything, mock.Anything).Return(shared.ErrConcurrencyConflict)

		_, err := f.service.Settle(context.Background(), f.order.ID, 1, SettleRequest{NetValue: decimal.NewFromInt(400)})
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.Empty(t, f.publisher.events)
		assert.Equal(t, string(trade.InstallmentStatusPending), string(f.order.Installments[0].Status))
	})
}

func TestSettlementService_Unsettle(t *testing.T) {
	f := newSettlementFixture(t)
	require.NoError(t, f.order.MarkInstallmentPaid(1, fixedNow, decimal.NewFromInt(480), "", trade.PaymentMethodPix))
	f.order.ClearDomainEvents()
	f.orders.On("FindByID", mock.Anything, f.order.ID).Return(f.order, nil)
	f.store.On("SaveSettlement", mock.Anything, mock.Anything, (*finance.Expense)(nil)).Return(nil)

	resp, err := f.service.Unsettle(context.Background(), f.order.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, string(trade.InstallmentStatusPending), resp.Installments[0].Status)
	assert.Nil(t, resp.Installments[0].PaymentDate)

	_, err = f.service.Unsettle(context.Background(), f.order.ID, 2)
	assert.Equal(t, "INSTALLMENT_NOT_PAID", shared.ErrorCode(err))
}

func TestSettlementService_ListExpenses(t *testing.T) {
	f := newSettlementFixture(t)
	expense, err := finance.NewExpense(f.order.ID, 1, "Payment fee", decimal.NewFromInt(15), fixedNow, finance.ExpenseCategoryFee)
	require.NoError(t, err)

	f.expenses.On("FindAll", mock.Anything, mock.MatchedBy(func(filter finance.ExpenseFilter) bool {
		return filter.OrderID != nil && *filter.OrderID == f.order.ID &&
			filter.Category != nil && *filter.Category == finance.ExpenseCategoryFee
	})).Return([]finance.Expense{*expense}, nil)

	result, err := f.service.ListExpenses(context.Background(), ExpenseListFilter{
		OrderID:  f.order.ID.String(),
		Category: "FEE",
	})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, 1, result[0].InstallmentNumber)

	_, err = f.service.ListExpenses(context.Background(), ExpenseListFilter{Category: "RENT"})
	assert.Equal(t, "INVALID_INPUT", shared.ErrorCode(err))
}

func TestSettlementService_OrderExpenses(t *testing.T) {
	f := newSettlementFixture(t)
	f.orders.On("FindByID", mock.Anything, f.order.ID).Return(f.order, nil)
	f.expenses.On("FindByOrder", mock.Anything, f.order.ID).Return([]finance.Expense{}, nil)

	result, err := f.service.OrderExpenses(context.Background(), f.order.ID)
	require.NoError(t, err)
	assert.Empty(t, result)

	missing := uuid.New()
	f.orders.On("FindByID", mock.Anything, missing).Return(nil, shared.ErrNotFound)
	_, err = f.service.OrderExpenses(context.Background(), missing)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
