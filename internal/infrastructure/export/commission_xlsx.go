// Package export renders commission statements as spreadsheets.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/fabtrack/backend/internal/domain/commission"
	"github.com/xuri/excelize/v2"
)

// XLSXContentType is the MIME type of the generated workbook.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	linesSheet   = "Commissions"
	sellersSheet = "Sellers"
)

var (
	lineHeadings = []any{
		"Payment date", "Order", "Seller", "Installment", "Installment value",
		"Discount %", "Rate", "Commission",
	}
	sellerHeadings = []any{"Seller", "Installments", "Base", "Commission"}
)

// CommissionStatement is the data of one monthly statement.
type CommissionStatement struct {
	Month   time.Month
	Year    int
	Lines   []commission.Line
	Sellers []commission.SellerSummary
}

// Filename returns the attachment name for the statement.
func (s CommissionStatement) Filename() string {
	return fmt.Sprintf("commissions-%04d-%02d.xlsx", s.Year, int(s.Month))
}

// WriteCommissionXLSX writes the statement as a workbook with one sheet of
// lines and one sheet of per-seller totals.
func WriteCommissionXLSX(w io.Writer, st CommissionStatement) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", linesSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(sellersSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	rows := make([][]any, 0, len(st.Lines)+1)
	for _, l := range st.Lines {
		rows = append(rows, []any{
			l.PaymentDate.Format("2006-01-02"),
			l.OrderNumber,
			l.SellerName,
			fmt.Sprintf("%d/%d", l.InstallmentNumber, l.InstallmentCount),
			l.InstallmentValue.InexactFloat64(),
			l.DiscountPercent.InexactFloat64(),
			l.Rate.InexactFloat64(),
			l.Commission.InexactFloat64(),
		})
	}
	rows = append(rows, []any{"Total", "", "", "", "", "", "", commission.Total(st.Lines).InexactFloat64()})
	if err := writeTable(f, linesSheet, lineHeadings, rows, bold); err != nil {
		return err
	}

	rows = rows[:0]
	for _, s := range st.Sellers {
		rows = append(rows, []any{
			s.SellerName,
			s.Installments,
			s.BaseTotal.InexactFloat64(),
			s.CommissionTotal.InexactFloat64(),
		})
	}
	if err := writeTable(f, sellersSheet, sellerHeadings, rows, bold); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeTable(f *excelize.File, sheet string, headings []any, rows [][]any, headerStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &headings); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headings), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}
