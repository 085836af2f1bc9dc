// Package report builds the admin sales report and renders it as a workbook.
package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bobabar/api/internal/database"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// TopItemsLimit is how many best sellers a report lists.
const TopItemsLimit = 10

const dateLayout = "2006-01-02"

// SalesStore defines the DB methods needed for the sales report.
// Satisfied by *database.Queries; narrow interface for testability.
type SalesStore interface {
	GetSalesSummary(ctx context.Context, r database.SalesRange) (database.SalesSummaryRow, error)
	ListTopItems(ctx context.Context, r database.SalesRange, limit uint64) ([]database.TopItemRow, error)
}

// Sales is the report over [From, To]. To is inclusive at day granularity.
type Sales struct {
	From        time.Time
	To          time.Time
	TotalOrders int64
	Revenue     decimal.Decimal
	TopItems    []TopItem
}

type TopItem struct {
	ItemName string
	Quantity int64
	Revenue  decimal.Decimal
}

// BuildSales aggregates non-cancelled orders created between from and to,
// both calendar days, inclusive.
func BuildSales(ctx context.Context, store SalesStore, from, to time.Time) (Sales, error) {
	r := database.SalesRange{From: from}
	if !to.IsZero() {
		r.To = to.AddDate(0, 0, 1)
	}

	summary, err := store.GetSalesSummary(ctx, r)
	if err != nil {
		return Sales{}, fmt.Errorf("sales summary: %w", err)
	}
	rows, err := store.ListTopItems(ctx, r, TopItemsLimit)
	if err != nil {
		return Sales{}, fmt.Errorf("top items: %w", err)
	}

	s := Sales{
		From:        from,
		To:          to,
		TotalOrders: summary.TotalOrders,
		Revenue:     database.ToDecimal(summary.Revenue),
		TopItems:    make([]TopItem, len(rows)),
	}
	for i, row := range rows {
		s.TopItems[i] = TopItem{
			ItemName: row.ItemName,
			Quantity: row.Quantity,
			Revenue:  database.ToDecimal(row.Revenue),
		}
	}
	return s, nil
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// FromLabel and ToLabel render the bounds as YYYY-MM-DD, empty for open ends.
func (s Sales) FromLabel() string { return formatDay(s.From) }
func (s Sales) ToLabel() string   { return formatDay(s.To) }

const (
	summarySheet  = "Summary"
	topItemsSheet = "Top Items"
)

// Workbook renders s into a two-sheet workbook. The caller closes it.
func Workbook(s Sales) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(topItemsSheet); err != nil {
		return nil, err
	}

	money, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	summary := [][]interface{}{
		{"From", s.FromLabel()},
		{"To", s.ToLabel()},
		{"Total orders", s.TotalOrders},
		{"Revenue", s.Revenue.InexactFloat64()},
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", "A4", bold); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(summarySheet, "B4", "B4", money); err != nil {
		return nil, err
	}

	if err := f.SetSheetRow(topItemsSheet, "A1", &[]interface{}{"Item", "Quantity", "Revenue"}); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(topItemsSheet, "A1", "C1", bold); err != nil {
		return nil, err
	}
	for i, it := range s.TopItems {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(topItemsSheet, cell, &[]interface{}{it.ItemName, it.Quantity, it.Revenue.InexactFloat64()}); err != nil {
			return nil, err
		}
	}
	if n := len(s.TopItems); n > 0 {
		end, _ := excelize.CoordinatesToCellName(3, n+1)
		if err := f.SetCellStyle(topItemsSheet, "C2", end, money); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(topItemsSheet, "A", "A", 32); err != nil {
		return nil, err
	}

	return f, nil
}

// WriteXLSX streams the workbook for s to w.
func WriteXLSX(w io.Writer, s Sales) error {
	f, err := Workbook(s)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}
