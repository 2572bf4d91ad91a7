package event

import (
	"context"

	"github.com/fabtrack/backend/internal/domain/finance"
	"github.com/fabtrack/backend/internal/domain/shared"
	"github.com/fabtrack/backend/internal/domain/trade"
	"github.com/fabtrack/backend/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderMetricsRecorder is the subset of telemetry.OrderMetrics the
// subscriber feeds.
type OrderMetricsRecorder interface {
	RecordOrderConfirmed(ctx context.Context)
	RecordOrderCancelled(ctx context.Context, fromStatus string)
	RecordStageTransition(ctx context.Context, from, to string, regressed bool)
	RecordSettlement(ctx context.Context, method string, net decimal.Decimal)
	RecordShortfall(ctx context.Context, category string, value decimal.Decimal)
}

// OrderEventHandler writes an audit log line for every order event and
// feeds the order metrics.
type OrderEventHandler struct {
	metrics OrderMetricsRecorder
}

// NewOrderEventHandler creates the subscriber. metrics may be nil.
func NewOrderEventHandler(metrics OrderMetricsRecorder) *OrderEventHandler {
	return &OrderEventHandler{metrics: metrics}
}

// EventTypes returns the order and settlement events handled.
func (h *OrderEventHandler) EventTypes() []string {
	return []string{
		trade.EventTypeOrderCreated,
		trade.EventTypeOrderConfirmed,
		trade.EventTypeOrderCancelled,
		trade.EventTypeOrderTotalChanged,
		trade.EventTypeInstallmentsScheduled,
		trade.EventTypeProductionStageChanged,
		trade.EventTypeInstallmentSettled,
		trade.EventTypeInstallmentUnsettled,
		finance.EventTypeShortfallExpenseBooked,
	}
}

// Handle logs and records the event.
func (h *OrderEventHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	log := logger.L(ctx).With(
		zap.String("event_type", ev.EventType()),
		zap.String("aggregate_id", ev.AggregateID().String()),
	)

	switch e := ev.(type) {
	case *trade.OrderCreatedEvent:
		log.Info("Quote created", zap.String("order_number", e.OrderNumber), zap.String("total", e.Total.StringFixed(2)))
	case *trade.OrderConfirmedEvent:
		log.Info("Order confirmed",
			zap.String("order_number", e.OrderNumber),
			zap.Int("delivery_days", e.DeliveryDays),
			zap.Time("delivery_deadline", e.DeliveryDeadline),
		)
		if h.metrics != nil {
			h.metrics.RecordOrderConfirmed(ctx)
		}
	case *trade.OrderCancelledEvent:
		log.Info("Order cancelled", zap.String("order_number", e.OrderNumber), zap.String("reason", e.Reason))
		if h.metrics != nil {
			h.metrics.RecordOrderCancelled(ctx, string(e.PreviousStatus))
		}
	case *trade.OrderTotalChangedEvent:
		log.Info("Order total changed",
			zap.String("previous", e.Previous.StringFixed(2)),
			zap.String("total", e.Total.StringFixed(2)),
			zap.String("reason", e.Reason),
		)
	case *trade.InstallmentsScheduledEvent:
		log.Info("Installments scheduled", zap.Int("count", e.Count), zap.String("total", e.Total.StringFixed(2)))
	case *trade.ProductionStageChangedEvent:
		log.Info("Production stage changed",
			zap.String("order_number", e.OrderNumber),
			zap.String("from", string(e.FromStage)),
			zap.String("to", string(e.ToStage)),
			zap.String("status", string(e.Status)),
		)
		if h.metrics != nil {
			h.metrics.RecordStageTransition(ctx, string(e.FromStage), string(e.ToStage), e.Regressed())
		}
	case *trade.InstallmentSettledEvent:
		log.Info("Installment settled",
			zap.String("order_number", e.OrderNumber),
			zap.Int("installment", e.Number),
			zap.String("value", e.Value.StringFixed(2)),
			zap.String("net_value", e.NetValue.StringFixed(2)),
		)
		if h.metrics != nil {
			h.metrics.RecordSettlement(ctx, string(e.Method), e.NetValue)
		}
	case *trade.InstallmentUnsettledEvent:
		log.Warn("Installment settlement reverted", zap.String("order_number", e.OrderNumber), zap.Int("installment", e.Number))
	case *finance.ShortfallExpenseBookedEvent:
		log.Info("Shortfall expense booked",
			zap.String("order_number", e.OrderNumber),
			zap.Int("installment", e.InstallmentNumber),
			zap.String("value", e.Value.StringFixed(2)),
		)
		if h.metrics != nil {
			h.metrics.RecordShortfall(ctx, string(finance.ExpenseCategoryFee), e.Value)
		}
	default:
		log.Debug("Unhandled event")
	}
	return nil
}

var _ shared.EventHandler = (*OrderEventHandler)(nil)
