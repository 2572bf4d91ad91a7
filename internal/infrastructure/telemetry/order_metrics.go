package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// StageCountProvider reports how many orders currently sit in each
// production stage. The telemetry layer polls it without depending on the
// trade domain.
type StageCountProvider interface {
	CountByStage(ctx context.Context) (map[string]int64, error)
}

// OrderMetrics tracks the commercial and production flow of orders.
type OrderMetrics struct {
	logger *zap.Logger

	ordersConfirmed    *Counter
	ordersCancelled    *Counter
	stageTransitions   *Counter
	installmentsSettle *Counter
	settledAmount      *FloatCounter
	shortfallAmount    *FloatCounter
	operationDuration  *Histogram
	ordersInStage      *Gauge

	stageProvider StageCountProvider
	stopChan      chan struct{}
	stopOnce      sync.Once
	collectOnce   sync.Once
}

// OrderMetricsConfig holds configuration for order metrics.
type OrderMetricsConfig struct {
	Meter         metric.Meter
	Logger        *zap.Logger
	StageProvider StageCountProvider
}

// NewOrderMetrics registers the order instruments on the meter.
func NewOrderMetrics(cfg OrderMetricsConfig) (*OrderMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	om := &OrderMetrics{
		logger:        logger,
		stageProvider: cfg.StageProvider,
		stopChan:      make(chan struct{}),
	}

	var err error
	if om.ordersConfirmed, err = NewCounter(cfg.Meter, "fab_orders_confirmed_total",
		"Quotes converted into signed contracts", "{orders}"); err != nil {
		return nil, err
	}
	if om.ordersCancelled, err = NewCounter(cfg.Meter, "fab_orders_cancelled_total",
		"Orders cancelled before production", "{orders}"); err != nil {
		return nil, err
	}
	if om.stageTransitions, err = NewCounter(cfg.Meter, "fab_production_stage_transitions_total",
		"Production stage changes by direction", "{transitions}"); err != nil {
		return nil, err
	}
	if om.installmentsSettle, err = NewCounter(cfg.Meter, "fab_installments_settled_total",
		"Installments marked as paid", "{installments}"); err != nil {
		return nil, err
	}
	if om.settledAmount, err = NewFloatCounter(cfg.Meter, "fab_settled_amount_total",
		"Net amount received on settled installments", "{currency}"); err != nil {
		return nil, err
	}
	if om.shortfallAmount, err = NewFloatCounter(cfg.Meter, "fab_settlement_shortfall_total",
		"Amount booked as FEE expense when net received falls short", "{currency}"); err != nil {
		return nil, err
	}
	if om.operationDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "fab_order_operation_duration_seconds",
		Description: "Duration of order application operations",
		Unit:        "s",
		Boundaries:  OperationDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if om.ordersInStage, err = NewGauge(cfg.Meter, "fab_orders_in_stage",
		"Orders currently in each production stage", "{orders}"); err != nil {
		return nil, err
	}

	return om, nil
}

// RecordOrderConfirmed counts a confirmed order.
func (om *OrderMetrics) RecordOrderConfirmed(ctx context.Context) {
	om.ordersConfirmed.Inc(ctx)
}

// RecordOrderCancelled counts a cancelled order by the status it left.
func (om *OrderMetrics) RecordOrderCancelled(ctx context.Context, fromStatus string) {
	om.ordersCancelled.Inc(ctx, AttrOrderStatus.String(fromStatus))
}

// RecordStageTransition counts a stage change. regressed marks a move back.
func (om *OrderMetrics) RecordStageTransition(ctx context.Context, from, to string, regressed bool) {
	direction := "advance"
	if regressed {
		direction = "regress"
	}
	om.stageTransitions.Inc(ctx,
		AttrFromStage.String(from),
		AttrStage.String(to),
		AttrDirection.String(direction),
	)
}

// RecordSettlement counts a settled installment and its net amount.
func (om *OrderMetrics) RecordSettlement(ctx context.Context, method string, net decimal.Decimal) {
	om.installmentsSettle.Inc(ctx, AttrPaymentMethod.String(method))
	om.settledAmount.Add(ctx, net.InexactFloat64(), AttrPaymentMethod.String(method))
}

// RecordShortfall adds a booked shortfall expense.
func (om *OrderMetrics) RecordShortfall(ctx context.Context, category string, value decimal.Decimal) {
	om.shortfallAmount.Add(ctx, value.InexactFloat64(), AttrExpenseCategory.String(category))
}

// ObserveOperation records how long an application operation took.
func (om *OrderMetrics) ObserveOperation(ctx context.Context, operation string, started time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	om.operationDuration.RecordDuration(ctx, time.Since(started),
		AttrOperation.String(operation),
		AttrOutcome.String(outcome),
	)
}

// StartPeriodicCollection polls the stage provider every interval until Stop.
// Calling it more than once has no effect.
func (om *OrderMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	if om.stageProvider == nil {
		om.logger.Debug("No stage provider, periodic order collection disabled")
		return
	}
	if interval <= 0 {
		interval = time.Minute
	}
	om.collectOnce.Do(func() {
		go om.run(ctx, interval)
	})
}

func (om *OrderMetrics) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	om.collect(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-om.stopChan:
			return
		case <-ticker.C:
			om.collect(ctx)
		}
	}
}

func (om *OrderMetrics) collect(ctx context.Context) {
	counts, err := om.stageProvider.CountByStage(ctx)
	if err != nil {
		om.logger.Warn("Failed to collect orders by stage", zap.Error(err))
		return
	}
	for stage, n := range counts {
		om.ordersInStage.Record(ctx, n, AttrStage.String(stage))
	}
}

// Stop stops the periodic collection.
func (om *OrderMetrics) Stop() {
	om.stopOnce.Do(func() {
		close(om.stopChan)
	})
}

// ErrMeterNil is returned when no meter is supplied.
var ErrMeterNil = &MetricsError{Op: "NewOrderMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
