package trade

import (
	"context"
	"fmt"
	"time"

	"github.com/fabtrack/backend/internal/domain/catalog"
	"github.com/fabtrack/backend/internal/domain/shared"
	"github.com/fabtrack/backend/internal/domain/trade"
	"github.com/fabtrack/backend/internal/infrastructure/logger"
	"github.com/fabtrack/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultDeliveryDays is used when neither the request nor the service
// configuration names the delivery term.
const DefaultDeliveryDays = 30

// OperationObserver records the outcome of an application operation
type OperationObserver interface {
	ObserveOperation(ctx context.Context, operation string, started time.Time, err error)
}

// OrderService handles the commercial and production operations of orders.
// Every mutation runs under the per-order lock: load, compute a new value,
// persist it, then publish its events. When the persist fails the stored
// order stays authoritative and the computed one is dropped.
type OrderService struct {
	orderRepo      trade.OrderRepository
	sheetRepo      catalog.MeasurementSheetRepository
	catalogRepo    catalog.CatalogItemRepository
	locker         shared.Locker
	eventPublisher shared.EventPublisher
	observer       OperationObserver

	pricing    *trade.PricingEngine
	scheduler  *trade.InstallmentScheduler
	production *trade.ProductionStateMachine

	deliveryDays int
	clock        func() time.Time
	location     *time.Location
}

// OrderServiceOption configures an OrderService
type OrderServiceOption func(*OrderService)

// WithEventPublisher sets the publisher that receives events after persist
func WithEventPublisher(p shared.EventPublisher) OrderServiceOption {
	return func(s *OrderService) { s.eventPublisher = p }
}

// WithOperationObserver sets the observer timing every operation
func WithOperationObserver(o OperationObserver) OrderServiceOption {
	return func(s *OrderService) { s.observer = o }
}

// WithDefaultDeliveryDays sets the delivery term used when confirmation omits it
func WithDefaultDeliveryDays(days int) OrderServiceOption {
	return func(s *OrderService) {
		if days >= 0 {
			s.deliveryDays = days
		}
	}
}

// WithClock replaces time.Now
func WithClock(clock func() time.Time) OrderServiceOption {
	return func(s *OrderService) { s.clock = clock }
}

// WithLocation sets the time zone "today" is computed in
func WithLocation(loc *time.Location) OrderServiceOption {
	return func(s *OrderService) {
		if loc != nil {
			s.location = loc
		}
	}
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepo trade.OrderRepository,
	sheetRepo catalog.MeasurementSheetRepository,
	catalogRepo catalog.CatalogItemRepository,
	locker shared.Locker,
	opts ...OrderServiceOption,
) *OrderService {
	s := &OrderService{
		orderRepo:    orderRepo,
		sheetRepo:    sheetRepo,
		catalogRepo:  catalogRepo,
		locker:       locker,
		pricing:      trade.NewPricingEngine(),
		scheduler:    trade.NewInstallmentScheduler(),
		production:   trade.NewProductionStateMachine(),
		deliveryDays: DefaultDeliveryDays,
		clock:        time.Now,
		location:     time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ==================== Queries ====================

// GetByID retrieves an order
func (s *OrderService) GetByID(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)
	return &resp, nil
}

// List retrieves orders with filtering and pagination
func (s *OrderService) List(ctx context.Context, filter OrderListFilter) ([]OrderListItemResponse, int64, error) {
	domainFilter, err := toDomainFilter(filter)
	if err != nil {
		return nil, 0, err
	}

	orders, err := s.orderRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orderRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	items := make([]OrderListItemResponse, len(orders))
	for i := range orders {
		items[i] = ToOrderListItemResponse(&orders[i])
	}
	return items, total, nil
}

// Pricing returns the per-item pricing of an order
func (s *OrderService) Pricing(ctx context.Context, orderID uuid.UUID) (*PricingResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	sheet, cat, err := s.loadPricingContext(ctx, order.SheetID)
	if err != nil {
		return nil, err
	}
	resp := ToPricingResponse(order.ID, s.pricing.Breakdown(order, sheet, cat))
	return &resp, nil
}

// Timeline returns how long the order spent in each production stage
func (s *OrderService) Timeline(ctx context.Context, orderID uuid.UUID) (*TimelineResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	now := s.clock()
	spans := s.production.StageDurations(order, now)

	resp := &TimelineResponse{
		OrderID:          order.ID,
		Status:           string(order.Status),
		DeliveryDeadline: order.DeliveryDeadline,
		Stages:           make([]StageSpanResponse, len(spans)),
	}
	if stage, ok := order.CurrentStage(); ok {
		resp.CurrentStage = string(stage)
	}
	if order.DeliveryDeadline != nil && order.Status != trade.OrderStatusFinished {
		resp.Late = now.After(*order.DeliveryDeadline)
	}
	for i, sp := range spans {
		d := sp.Duration
		if sp.InProgress {
			d = sp.Elapsed
		}
		resp.Stages[i] = StageSpanResponse{
			Stage:           string(sp.Stage),
			EnteredAt:       sp.EnteredAt,
			LeftAt:          sp.LeftAt,
			DurationSeconds: int64(d / time.Second),
			InProgress:      sp.InProgress,
		}
	}
	return resp, nil
}

// CountByStage reports how many orders sit in each production stage
func (s *OrderService) CountByStage(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, len(trade.ProductionStages()))
	for _, stage := range trade.ProductionStages() {
		st := stage
		n, err := s.orderRepo.Count(ctx, trade.OrderFilter{Stage: &st})
		if err != nil {
			return nil, fmt.Errorf("count orders in %s: %w", stage, err)
		}
		counts[string(stage)] = n
	}
	return counts, nil
}

// ==================== Commercial operations ====================

// Create quotes a measurement sheet. The total defaults to the list price
// of the selected items.
func (s *OrderService) Create(ctx context.Context, req CreateOrderRequest) (resp *OrderResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "create",
		telemetry.WithAttribute(telemetry.SpanAttrSellerID, req.SellerID.String()))
	defer span.End()
	defer s.observe(ctx, "create", s.clock())(&err)

	sheet, cat, err := s.loadPricingContext(ctx, req.SheetID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if sheet.CustomerID != req.CustomerID {
		return nil, shared.NewDomainError("INVALID_INPUT", "Measurement sheet belongs to another customer")
	}

	number, err := s.orderRepo.GenerateOrderNumber(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("generate order number: %w", err)
	}

	order, err := trade.NewOrder(number, req.CustomerID, req.SellerID, req.SheetID, decimal.Zero)
	if err != nil {
		return nil, err
	}
	order.SetNotes(req.Notes)

	if order, err = s.pricing.SelectItems(order, sheet, cat, req.ItemIDs); err != nil {
		return nil, err
	}
	if req.Total != nil {
		if order, err = s.pricing.SetManualTotal(order, *req.Total); err != nil {
			return nil, err
		}
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		telemetry.RecordError(span, err)
		logger.L(ctx).Error("Failed to save new order", zap.String("order_number", number), zap.Error(err))
		return nil, err
	}
	s.publish(ctx, order)

	telemetry.SetAttributes(span, telemetry.SpanAttrOrderID, order.ID.String(), telemetry.SpanAttrOrderNumber, number)
	logger.L(logger.WithOrderID(ctx, order.ID.String())).Info("Quote created",
		zap.String("order_number", number),
		zap.String("total", order.Total.StringFixed(2)),
	)

	r := ToOrderResponse(order)
	return &r, nil
}

// Confirm signs the contract and starts production at NEW_ORDER
func (s *OrderService) Confirm(ctx context.Context, orderID uuid.UUID, req ConfirmOrderRequest) (*OrderResponse, error) {
	days := s.deliveryDays
	if req.DeliveryDays != nil {
		days = *req.DeliveryDays
	}
	return s.mutate(ctx, "confirm", orderID, func(o *trade.Order) (*trade.Order, error) {
		result := o.Clone()
		if err := result.Confirm(days, s.clock()); err != nil {
			return nil, err
		}
		return result, nil
	})
}

// Cancel cancels a quote or an unpaid signed contract
func (s *OrderService) Cancel(ctx context.Context, orderID uuid.UUID, req CancelOrderRequest) (*OrderResponse, error) {
	return s.mutate(ctx, "cancel", orderID, func(o *trade.Order) (*trade.Order, error) {
		result := o.Clone()
		if err := result.Cancel(req.Reason, s.clock()); err != nil {
			return nil, err
		}
		return result, nil
	})
}

// SelectItems restricts the order to a subset of its sheet
func (s *OrderService) SelectItems(ctx context.Context, orderID uuid.UUID, req SelectItemsRequest) (*OrderResponse, error) {
	return s.mutate(ctx, "select_items", orderID, func(o *trade.Order) (*trade.Order, error) {
		sheet, cat, err := s.loadPricingContext(ctx, o.SheetID)
		if err != nil {
			return nil, err
		}
		return s.pricing.SelectItems(o, sheet, cat, req.ItemIDs)
	})
}

// SetTotal sets an order-level total
func (s *OrderService) SetTotal(ctx context.Context, orderID uuid.UUID, req SetTotalRequest) (*OrderResponse, error) {
	return s.mutate(ctx, "set_total", orderID, func(o *trade.Order) (*trade.Order, error) {
		return s.pricing.SetManualTotal(o, req.Total)
	})
}

// EditItemPrice sets the price of one item of the order
func (s *OrderService) EditItemPrice(ctx context.Context, orderID, itemID uuid.UUID, req EditItemPriceRequest) (*OrderResponse, error) {
	return s.mutate(ctx, "edit_item_price", orderID, func(o *trade.Order) (*trade.Order, error) {
		sheet, cat, err := s.loadPricingContext(ctx, o.SheetID)
		if err != nil {
			return nil, err
		}
		return s.pricing.EditItemPrice(o, sheet, cat, itemID, req.Price)
	})
}

// ==================== Installments ====================

// GenerateInstallments replaces the payment schedule
func (s *OrderService) GenerateInstallments(ctx context.Context, orderID uuid.UUID, req GenerateInstallmentsRequest) (*OrderResponse, error) {
	start := s.today()
	if req.StartDate != nil {
		start = *req.StartDate
	}
	return s.mutate(ctx, "generate_installments", orderID, func(o *trade.Order) (*trade.Order, error) {
		return s.scheduler.Reschedule(o, req.DownPayment, req.Count, trade.PaymentMethod(req.Method), start)
	})
}

// EditInstallment changes the value of one pending installment
func (s *OrderService) EditInstallment(ctx context.Context, orderID uuid.UUID, number int, req EditInstallmentRequest) (*OrderResponse, error) {
	return s.mutate(ctx, "edit_installment", orderID, func(o *trade.Order) (*trade.Order, error) {
		return s.scheduler.EditInstallmentValue(o, number, req.Value)
	})
}

// ==================== Production ====================

// Advance moves the order to the next production stage
func (s *OrderService) Advance(ctx context.Context, orderID uuid.UUID, req StageChangeRequest) (*OrderResponse, error) {
	at := s.stageTime(req)
	return s.mutate(ctx, "advance_stage", orderID, func(o *trade.Order) (*trade.Order, error) {
		return s.production.Advance(o, at)
	})
}

// Regress moves the order back one production stage
func (s *OrderService) Regress(ctx context.Context, orderID uuid.UUID, req StageChangeRequest) (*OrderResponse, error) {
	at := s.stageTime(req)
	return s.mutate(ctx, "regress_stage", orderID, func(o *trade.Order) (*trade.Order, error) {
		return s.production.Regress(o, at)
	})
}

// ==================== Internals ====================

func (s *OrderService) mutate(ctx context.Context, op string, orderID uuid.UUID, compute func(*trade.Order) (*trade.Order, error)) (resp *OrderResponse, err error) {
	ctx = logger.WithOrderID(ctx, orderID.String())
	ctx, span := telemetry.StartServiceSpan(ctx, "order", op,
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, orderID.String()))
	defer span.End()
	defer s.observe(ctx, op, s.clock())(&err)

	release, err := LockOrder(ctx, s.locker, orderID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	defer release()

	current, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	next, err := compute(current)
	if err != nil {
		logger.L(ctx).Warn("Order operation rejected", zap.String("operation", op), zap.Error(err))
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, next); err != nil {
		telemetry.RecordError(span, err)
		logger.L(ctx).Error("Failed to persist order", zap.String("operation", op), zap.Error(err))
		return nil, err
	}
	s.publish(ctx, next)

	telemetry.SetAttributes(span, telemetry.SpanAttrOrderStatus, string(next.Status))
	logger.L(ctx).Info("Order updated",
		zap.String("operation", op),
		zap.String("status", string(next.Status)),
		zap.Int("version", next.Version),
	)

	r := ToOrderResponse(next)
	return &r, nil
}

func (s *OrderService) publish(ctx context.Context, order *trade.Order) {
	events := order.GetDomainEvents()
	order.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		logger.L(ctx).Error("Failed to publish order events", zap.Error(err))
	}
}

// observe returns a func, deferred with the named error result, that
// reports the operation to the observer.
func (s *OrderService) observe(ctx context.Context, op string, started time.Time) func(*error) {
	return func(errp *error) {
		if s.observer != nil {
			s.observer.ObserveOperation(ctx, op, started, *errp)
		}
	}
}

func (s *OrderService) loadPricingContext(ctx context.Context, sheetID uuid.UUID) (*catalog.MeasurementSheet, catalog.Catalog, error) {
	return LoadPricingContext(ctx, s.sheetRepo, s.catalogRepo, sheetID)
}

func (s *OrderService) today() time.Time {
	now := s.clock().In(s.location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
}

func (s *OrderService) stageTime(req StageChangeRequest) time.Time {
	if req.At != nil {
		return *req.At
	}
	return s.clock()
}

// LoadPricingContext loads a measurement sheet and the catalog entries its
// items reference.
func LoadPricingContext(ctx context.Context, sheets catalog.MeasurementSheetRepository, items catalog.CatalogItemRepository, sheetID uuid.UUID) (*catalog.MeasurementSheet, catalog.Catalog, error) {
	sheet, err := sheets.FindByID(ctx, sheetID)
	if err != nil {
		return nil, nil, err
	}
	catalogItems, err := items.FindByIDs(ctx, CatalogIDsOf(*sheet))
	if err != nil {
		return nil, nil, fmt.Errorf("load catalog for sheet %s: %w", sheetID, err)
	}
	return sheet, catalog.NewCatalog(catalogItems), nil
}

// CatalogIDsOf returns the distinct catalog item IDs used by the sheets
func CatalogIDsOf(sheets ...catalog.MeasurementSheet) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0)
	for _, sheet := range sheets {
		for _, item := range sheet.Items {
			if _, ok := seen[item.CatalogItemID]; ok {
				continue
			}
			seen[item.CatalogItemID] = struct{}{}
			ids = append(ids, item.CatalogItemID)
		}
	}
	return ids
}

func toDomainFilter(f OrderListFilter) (trade.OrderFilter, error) {
	filter := trade.OrderFilter{Filter: shared.DefaultFilter()}
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	if f.OrderBy != "" {
		filter.OrderBy = f.OrderBy
	}
	if f.OrderDir != "" {
		filter.OrderDir = f.OrderDir
	}
	filter.Search = f.Search

	if f.Status != "" {
		status := trade.OrderStatus(f.Status)
		if !status.IsValid() {
			return filter, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown order status %s", f.Status))
		}
		filter.Status = &status
	}
	if f.Stage != "" {
		stage := trade.ProductionStage(f.Stage)
		if !stage.IsValid() {
			return filter, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown production stage %s", f.Stage))
		}
		filter.Stage = &stage
	}
	if f.SellerID != "" {
		id, err := uuid.Parse(f.SellerID)
		if err != nil {
			return filter, shared.NewDomainError("INVALID_INPUT", "seller_id must be a UUID")
		}
		filter.SellerID = &id
	}
	if f.CustomerID != "" {
		id, err := uuid.Parse(f.CustomerID)
		if err != nil {
			return filter, shared.NewDomainError("INVALID_INPUT", "customer_id must be a UUID")
		}
		filter.CustomerID = &id
	}
	return filter, nil
}
