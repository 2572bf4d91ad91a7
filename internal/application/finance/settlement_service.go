package finance

import (
	"context"
	"fmt"
	"time"

	apptrade "github.com/fabtrack/backend/internal/application/trade"
	"github.com/fabtrack/backend/internal/domain/finance"
	"github.com/fabtrack/backend/internal/domain/shared"
	"github.com/fabtrack/backend/internal/domain/trade"
	"github.com/fabtrack/backend/internal/infrastructure/logger"
	"github.com/fabtrack/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SettlementService records installment payments against orders
type SettlementService struct {
	orderRepo      trade.OrderRepository
	expenseRepo    finance.ExpenseRepository
	store          finance.SettlementStore
	locker         shared.Locker
	reconciler     *finance.SettlementReconciler
	eventPublisher shared.EventPublisher
	observer       apptrade.OperationObserver
	clock          func() time.Time
	location       *time.Location
}

// SettlementServiceOption configures a SettlementService
type SettlementServiceOption func(*SettlementService)

// WithEventPublisher sets the publisher that receives events after persist
func WithEventPublisher(p shared.EventPublisher) SettlementServiceOption {
	return func(s *SettlementService) { s.eventPublisher = p }
}

// WithOperationObserver sets the observer timing every operation
func WithOperationObserver(o apptrade.OperationObserver) SettlementServiceOption {
	return func(s *SettlementService) { s.observer = o }
}

// WithReconciler replaces the default reconciler
func WithReconciler(r *finance.SettlementReconciler) SettlementServiceOption {
	return func(s *SettlementService) { s.reconciler = r }
}

// WithClock replaces time.Now
func WithClock(clock func() time.Time) SettlementServiceOption {
	return func(s *SettlementService) { s.clock = clock }
}

// WithLocation sets the time zone the default payment date is taken in
func WithLocation(loc *time.Location) SettlementServiceOption {
	return func(s *SettlementService) {
		if loc != nil {
			s.location = loc
		}
	}
}

// NewSettlementService creates a new SettlementService
func NewSettlementService(
	orderRepo trade.OrderRepository,
	expenseRepo finance.ExpenseRepository,
	store finance.SettlementStore,
	locker shared.Locker,
	opts ...SettlementServiceOption,
) *SettlementService {
	s := &SettlementService{
		orderRepo:   orderRepo,
		expenseRepo: expenseRepo,
		store:       store,
		locker:      locker,
		reconciler:  finance.NewSettlementReconciler(),
		clock:       time.Now,
		location:    time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Settle marks an installment paid. When the net amount received is below
// the installment value the difference is booked as a FEE expense in the
// same transaction.
func (s *SettlementService) Settle(ctx context.Context, orderID uuid.UUID, number int, req SettleRequest) (resp *SettlementResponse, err error) {
	ctx = logger.WithOrderID(ctx, orderID.String())
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "settle",
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, orderID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrInstallmentNumber, number))
	defer span.End()
	started := s.clock()
	defer func() { s.observe(ctx, "settle", started, err) }()

	release, err := apptrade.LockOrder(ctx, s.locker, orderID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	defer release()

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	paymentDate := s.today()
	if req.PaymentDate != nil {
		paymentDate = *req.PaymentDate
	}
	method := trade.PaymentMethod(req.Method)
	if method == "" {
		if idx, ok := order.FindInstallment(number); ok {
			method = order.Installments[idx].Method
		}
	}

	settled, expense, err := s.reconciler.Settle(order, number, paymentDate, req.NetValue, req.FiscalRef, method)
	if err != nil {
		logger.L(ctx).Warn("Settlement rejected", zap.Int("installment", number), zap.Error(err))
		return nil, err
	}

	if err := s.store.SaveSettlement(ctx, settled, expense); err != nil {
		telemetry.RecordError(span, err)
		logger.L(ctx).Error("Failed to persist settlement", zap.Int("installment", number), zap.Error(err))
		return nil, err
	}

	events := settled.GetDomainEvents()
	settled.ClearDomainEvents()
	if expense != nil {
		events = append(events, expense.GetDomainEvents()...)
		expense.ClearDomainEvents()
	}
	s.publish(ctx, events)

	fields := []zap.Field{
		zap.Int("installment", number),
		zap.String("net_value", req.NetValue.StringFixed(2)),
		zap.String("method", string(method)),
	}
	if expense != nil {
		fields = append(fields, zap.String("fee", expense.Value.StringFixed(2)))
	}
	logger.L(ctx).Info("Installment settled", fields...)

	resp = &SettlementResponse{Order: apptrade.ToOrderResponse(settled)}
	if expense != nil {
		e := ToExpenseResponse(expense)
		resp.Expense = &e
	}
	return resp, nil
}

// Unsettle reverts an installment to PENDING. A fee booked at settlement
// time is kept.
func (s *SettlementService) Unsettle(ctx context.Context, orderID uuid.UUID, number int) (resp *apptrade.OrderResponse, err error) {
	ctx = logger.WithOrderID(ctx, orderID.String())
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "unsettle",
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, orderID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrInstallmentNumber, number))
	defer span.End()
	started := s.clock()
	defer func() { s.observe(ctx, "unsettle", started, err) }()

	release, err := apptrade.LockOrder(ctx, s.locker, orderID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	defer release()

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	reverted, err := s.reconciler.Unsettle(order, number)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveSettlement(ctx, reverted, nil); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	events := reverted.GetDomainEvents()
	reverted.ClearDomainEvents()
	s.publish(ctx, events)

	logger.L(ctx).Info("Installment settlement reverted", zap.Int("installment", number))

	r := apptrade.ToOrderResponse(reverted)
	return &r, nil
}

// ListExpenses retrieves expenses with filtering and pagination
func (s *SettlementService) ListExpenses(ctx context.Context, filter ExpenseListFilter) ([]ExpenseResponse, error) {
	domainFilter := finance.ExpenseFilter{Filter: shared.DefaultFilter()}
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderID != "" {
		id, err := uuid.Parse(filter.OrderID)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_INPUT", "order_id must be a UUID")
		}
		domainFilter.OrderID = &id
	}
	if filter.Category != "" {
		category := finance.ExpenseCategory(filter.Category)
		if !category.IsValid() {
			return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown expense category %s", filter.Category))
		}
		domainFilter.Category = &category
	}

	expenses, err := s.expenseRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	result := make([]ExpenseResponse, len(expenses))
	for i := range expenses {
		result[i] = ToExpenseResponse(&expenses[i])
	}
	return result, nil
}

// OrderExpenses retrieves the expenses booked against one order
func (s *SettlementService) OrderExpenses(ctx context.Context, orderID uuid.UUID) ([]ExpenseResponse, error) {
	if _, err := s.orderRepo.FindByID(ctx, orderID); err != nil {
		return nil, err
	}
	expenses, err := s.expenseRepo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	result := make([]ExpenseResponse, len(expenses))
	for i := range expenses {
		result[i] = ToExpenseResponse(&expenses[i])
	}
	return result, nil
}

func (s *SettlementService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		logger.L(ctx).Error("Failed to publish settlement events", zap.Error(err))
	}
}

func (s *SettlementService) observe(ctx context.Context, op string, started time.Time, err error) {
	if s.observer != nil {
		s.observer.ObserveOperation(ctx, op, started, err)
	}
}

func (s *SettlementService) today() time.Time {
	now := s.clock().In(s.location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
}
