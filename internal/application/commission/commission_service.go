package commission

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	apptrade "github.com/fabtrack/backend/internal/application/trade"
	"github.com/fabtrack/backend/internal/domain/catalog"
	"github.com/fabtrack/backend/internal/domain/commission"
	"github.com/fabtrack/backend/internal/domain/shared"
	"github.com/fabtrack/backend/internal/domain/shared/valueobject"
	"github.com/fabtrack/backend/internal/domain/trade"
	"github.com/fabtrack/backend/internal/infrastructure/export"
	"github.com/fabtrack/backend/internal/infrastructure/logger"
	"github.com/fabtrack/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CommissionService computes monthly seller commissions from paid installments
type CommissionService struct {
	orderRepo   trade.OrderRepository
	sellerRepo  commission.SellerRepository
	sheetRepo   catalog.MeasurementSheetRepository
	catalogRepo catalog.CatalogItemRepository
	calculator  *commission.Calculator
	pricing     *trade.PricingEngine
	location    *time.Location
}

// ServiceOption configures a CommissionService
type ServiceOption func(*CommissionService)

// WithCalculator replaces the default calculator
func WithCalculator(c *commission.Calculator) ServiceOption {
	return func(s *CommissionService) { s.calculator = c }
}

// WithLocation sets the time zone month boundaries are taken in
func WithLocation(loc *time.Location) ServiceOption {
	return func(s *CommissionService) {
		if loc != nil {
			s.location = loc
		}
	}
}

// NewCommissionService creates a new CommissionService
func NewCommissionService(
	orderRepo trade.OrderRepository,
	sellerRepo commission.SellerRepository,
	sheetRepo catalog.MeasurementSheetRepository,
	catalogRepo catalog.CatalogItemRepository,
	opts ...ServiceOption,
) *CommissionService {
	s := &CommissionService{
		orderRepo:   orderRepo,
		sellerRepo:  sellerRepo,
		sheetRepo:   sheetRepo,
		catalogRepo: catalogRepo,
		calculator:  commission.NewCalculator(),
		pricing:     trade.NewPricingEngine(),
	}
	for _, opt := range opts {
		opt(s)
	}
	// the repository window and the calculator must share one zone
	if s.location == nil {
		s.location = s.calculator.Location()
	} else {
		s.calculator = s.calculator.In(s.location)
	}
	return s
}

// Statement returns the commission lines paid out in month/year
func (s *CommissionService) Statement(ctx context.Context, q PeriodQuery) (*StatementResponse, error) {
	lines, from, to, err := s.compute(ctx, q)
	if err != nil {
		return nil, err
	}
	resp := &StatementResponse{
		Month:       q.Month,
		Year:        q.Year,
		WindowStart: from,
		WindowEnd:   to,
		Lines:       make([]LineResponse, len(lines)),
		Total:       valueobject.Round2(commission.Total(lines)),
	}
	for i, l := range lines {
		resp.Lines[i] = ToLineResponse(l)
	}
	return resp, nil
}

// Summary returns the per-seller totals paid out in month/year
func (s *CommissionService) Summary(ctx context.Context, q PeriodQuery) (*SummaryResponse, error) {
	lines, _, _, err := s.compute(ctx, q)
	if err != nil {
		return nil, err
	}
	summaries := commission.SummarizeBySeller(lines)
	resp := &SummaryResponse{
		Month:   q.Month,
		Year:    q.Year,
		Sellers: make([]SellerSummaryResponse, len(summaries)),
		Total:   valueobject.Round2(commission.Total(lines)),
	}
	for i, sum := range summaries {
		resp.Sellers[i] = ToSellerSummaryResponse(sum)
	}
	return resp, nil
}

// Export writes the statement of month/year as an xlsx workbook and returns
// its file name
func (s *CommissionService) Export(ctx context.Context, q PeriodQuery, w io.Writer) (string, error) {
	lines, _, _, err := s.compute(ctx, q)
	if err != nil {
		return "", err
	}
	st := export.CommissionStatement{
		Month:   time.Month(q.Month),
		Year:    q.Year,
		Lines:   lines,
		Sellers: commission.SummarizeBySeller(lines),
	}
	if err := export.WriteCommissionXLSX(w, st); err != nil {
		return "", fmt.Errorf("write commission workbook: %w", err)
	}
	return st.Filename(), nil
}

// RegisterSeller creates a seller
func (s *CommissionService) RegisterSeller(ctx context.Context, req CreateSellerRequest) (*SellerResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Seller name cannot be empty")
	}
	seller := commission.Seller{ID: uuid.New(), Name: name, Email: req.Email, Active: true}
	if err := s.sellerRepo.Save(ctx, &seller); err != nil {
		return nil, err
	}
	logger.L(ctx).Info("Seller registered", zap.String("seller_id", seller.ID.String()))
	resp := ToSellerResponse(seller)
	return &resp, nil
}

// ListSellers returns every seller
func (s *CommissionService) ListSellers(ctx context.Context) ([]SellerResponse, error) {
	sellers, err := s.sellerRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]SellerResponse, len(sellers))
	for i, seller := range sellers {
		result[i] = ToSellerResponse(seller)
	}
	return result, nil
}

func (s *CommissionService) compute(ctx context.Context, q PeriodQuery) ([]commission.Line, time.Time, time.Time, error) {
	if q.Month < 1 || q.Month > 12 {
		return nil, time.Time{}, time.Time{}, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Month %d is out of range", q.Month))
	}
	if q.Year < 1 {
		return nil, time.Time{}, time.Time{}, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Year %d is out of range", q.Year))
	}
	month := time.Month(q.Month)
	period := fmt.Sprintf("%04d-%02d", q.Year, q.Month)

	ctx, span := telemetry.StartServiceSpan(ctx, "commission", "compute",
		telemetry.WithAttribute(telemetry.SpanAttrPeriod, period))
	defer span.End()

	from, to := commission.WindowBounds(month, q.Year, s.location)
	orders, err := s.orderRepo.FindPaidBetween(ctx, from, to)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, from, to, fmt.Errorf("load orders paid in window: %w", err)
	}

	var (
		sellers    map[uuid.UUID]commission.Seller
		listPrices map[uuid.UUID]decimal.Decimal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		all, err := s.sellerRepo.FindAll(gctx)
		if err != nil {
			return fmt.Errorf("load sellers: %w", err)
		}
		sellers = make(map[uuid.UUID]commission.Seller, len(all))
		for _, seller := range all {
			sellers[seller.ID] = seller
		}
		return nil
	})
	g.Go(func() error {
		prices, err := s.listPrices(gctx, orders)
		if err != nil {
			return err
		}
		listPrices = prices
		return nil
	})
	if err := g.Wait(); err != nil {
		telemetry.RecordError(span, err)
		return nil, from, to, err
	}

	lines := s.calculator.CommissionsFor(orders, listPrices, sellers, month, q.Year)
	telemetry.SetAttributes(span, "commission.lines", len(lines))
	logger.L(ctx).Debug("Commissions computed",
		zap.String("period", period),
		zap.Int("orders", len(orders)),
		zap.Int("lines", len(lines)),
	)
	return lines, from, to, nil
}

// listPrices returns the base-price sum of each order's selected items
func (s *CommissionService) listPrices(ctx context.Context, orders []trade.Order) (map[uuid.UUID]decimal.Decimal, error) {
	prices := make(map[uuid.UUID]decimal.Decimal, len(orders))
	if len(orders) == 0 {
		return prices, nil
	}

	sheetIDs := make([]uuid.UUID, 0, len(orders))
	seen := make(map[uuid.UUID]struct{}, len(orders))
	for _, o := range orders {
		if _, ok := seen[o.SheetID]; !ok {
			seen[o.SheetID] = struct{}{}
			sheetIDs = append(sheetIDs, o.SheetID)
		}
	}

	sheets, err := s.sheetRepo.FindByIDs(ctx, sheetIDs)
	if err != nil {
		return nil, fmt.Errorf("load measurement sheets: %w", err)
	}
	items, err := s.catalogRepo.FindByIDs(ctx, apptrade.CatalogIDsOf(sheets...))
	if err != nil {
		return nil, fmt.Errorf("load catalog items: %w", err)
	}
	cat := catalog.NewCatalog(items)

	byID := make(map[uuid.UUID]*catalog.MeasurementSheet, len(sheets))
	for i := range sheets {
		byID[sheets[i].ID] = &sheets[i]
	}
	for i := range orders {
		o := &orders[i]
		sheet, ok := byID[o.SheetID]
		if !ok {
			logger.L(ctx).Warn("Measurement sheet missing for order, pricing at full rate",
				zap.String("order_number", o.OrderNumber),
				zap.String("sheet_id", o.SheetID.String()),
			)
			continue
		}
		prices[o.ID] = s.pricing.ListPrice(o, sheet, cat)
	}
	return prices, nil
}
