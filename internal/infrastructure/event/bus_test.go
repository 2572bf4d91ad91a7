package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fabtrack/backend/internal/domain/finance"
	"github.com/fabtrack/backend/internal/domain/shared"
	"github.com/fabtrack/backend/internal/domain/trade"
	"github.com/fabtrack/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Test", uuid.New(), time.Now()),
	}
}

type recordingHandler struct {
	mu      sync.Mutex
	types   []string
	handled []string
	err     error
	panics  bool
}

func (h *recordingHandler) Handle(_ context.Context, ev shared.DomainEvent) error {
	if h.panics {
		panic("boom")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, ev.EventType())
	return h.err
}

func (h *recordingHandler) EventTypes() []string { return h.types }

func (h *recordingHandler) Handled() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.handled...)
}

// ==================== InMemoryEventBus ====================

func TestInMemoryEventBus_Routing(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	typed := &recordingHandler{types: []string{"A"}}
	explicit := &recordingHandler{}
	all := &recordingHandler{}

	bus.Subscribe(typed)
	bus.Subscribe(explicit, "B")
	bus.Subscribe(all)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("A"), newTestEvent("B"), newTestEvent("C")))

	assert.Equal(t, []string{"A"}, typed.Handled())
	assert.Equal(t, []string{"B"}, explicit.Handled())
	assert.Equal(t, []string{"A", "B", "C"}, all.Handled())
	assert.Equal(t, 2, bus.HandlerCount("A"))
	assert.Equal(t, 1, bus.HandlerCount("Z"))
}

func TestInMemoryEventBus_FailingHandlersDoNotStopDelivery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	ctx := logger.WithContext(context.Background(), zap.New(core))

	bus := NewInMemoryEventBus(zap.NewNop())
	failing := &recordingHandler{err: errors.New("nope")}
	panicking := &recordingHandler{panics: true}
	healthy := &recordingHandler{}
	bus.Subscribe(failing, "A")
	bus.Subscribe(panicking, "A")
	bus.Subscribe(healthy, "A")

	require.NoError(t, bus.Publish(ctx, newTestEvent("A")))

	assert.Equal(t, []string{"A"}, healthy.Handled())
	assert.Equal(t, 2, logs.FilterMessage("event handler failed").Len())
}

// ==================== OrderEventHandler ====================

type mockMetrics struct {
	mock.Mock
}

func (m *mockMetrics) RecordOrderConfirmed(ctx context.Context) { m.Called() }
func (m *mockMetrics) RecordOrderCancelled(ctx context.Context, fromStatus string) {
	m.Called(fromStatus)
}
func (m *mockMetrics) RecordStageTransition(ctx context.Context, from, to string, regressed bool) {
	m.Called(from, to, regressed)
}
func (m *mockMetrics) RecordSettlement(ctx context.Context, method string, net decimal.Decimal) {
	m.Called(method, net.StringFixed(2))
}
func (m *mockMetrics) RecordShortfall(ctx context.Context, category string, value decimal.Decimal) {
	m.Called(category, value.StringFixed(2))
}

func confirmedOrder(t *testing.T) *trade.Order {
	t.Helper()
	o, err := trade.NewOrder("PED-2024-00001", uuid.New(), uuid.New(), uuid.New(), decimal.NewFromInt(500))
	require.NoError(t, err)
	require.NoError(t, o.Confirm(10, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)))
	return o
}

func TestOrderEventHandler_FeedsMetrics(t *testing.T) {
	metrics := new(mockMetrics)
	metrics.On("RecordOrderConfirmed").Once()
	metrics.On("RecordStageTransition", "NEW_ORDER", "PREPARATION", false).Once()
	metrics.On("RecordSettlement", "PIX", "480.00").Once()
	metrics.On("RecordShortfall", "FEE", "20.00").Once()

	core, logs := observer.New(zapcore.InfoLevel)
	ctx := logger.WithContext(context.Background(), zap.New(core))

	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(NewOrderEventHandler(metrics))

	order := confirmedOrder(t)
	paidAt := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	net := decimal.NewFromInt(480)
	settled := &trade.InstallmentSettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(trade.EventTypeInstallmentSettled, trade.AggregateTypeOrder, order.ID, paidAt),
		OrderID:         order.ID,
		Number:          1,
		Value:           decimal.NewFromInt(500),
		NetValue:        net,
		PaymentDate:     paidAt,
		Method:          trade.PaymentMethodPix,
	}
	expense, err := finance.NewExpense(order.ID, 1, "Payment shortfall", decimal.NewFromInt(20), paidAt, finance.ExpenseCategoryFee)
	require.NoError(t, err)
	stage := trade.NewProductionStageChangedEvent(order, trade.StageNewOrder, trade.StagePreparation, order.Status, paidAt)

	events := append(order.GetDomainEvents(), stage, settled, finance.NewShortfallExpenseBookedEvent(expense, order.OrderNumber))
	require.NoError(t, bus.Publish(ctx, events...))

	metrics.AssertExpectations(t)
	assert.Equal(t, 1, logs.FilterMessage("Order confirmed").Len())
	assert.Equal(t, 1, logs.FilterMessage("Shortfall expense booked").Len())
}

func TestOrderEventHandler_NilMetrics(t *testing.T) {
	h := NewOrderEventHandler(nil)
	order := confirmedOrder(t)
	require.NoError(t, order.Cancel("customer gave up", time.Now()))

	for _, ev := range order.GetDomainEvents() {
		assert.NoError(t, h.Handle(context.Background(), ev))
	}
	assert.Contains(t, h.EventTypes(), trade.EventTypeOrderCancelled)
}
