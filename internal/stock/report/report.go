// Package report exports stock listings as XLSX workbooks.
package report

import (
	"context"
	"fmt"
	"io"

	"github.com/fekuna/omnipos-stock-service/internal/stock"
	"github.com/fekuna/omnipos-stock-service/internal/stock/dto"
	"github.com/xuri/excelize/v2"
)

const (
	stockSheet  = "Stock"
	countsSheet = "Views"
	exportBatch = 100
)

var stockHeaders = []string{
	"ID", "Parent", "Type", "SKU", "Name", "Supplier", "Purchase price", "Regular price",
	"Stock", "Indicator", "Inbound", "Sold", "Lost sales", "Days out of stock",
}

var colWidths = []float64{8, 8, 12, 14, 32, 10, 14, 14, 10, 22, 10, 10, 12, 16}

type Exporter struct {
	uc stock.UseCase
}

func NewExporter(uc stock.UseCase) *Exporter {
	return &Exporter{uc: uc}
}

// Build walks every page of the listing selected by c and returns the workbook with
// the number of product rows written, children included.
func (e *Exporter) Build(ctx context.Context, c dto.Criteria) (*excelize.File, int, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", stockSheet); err != nil {
		return nil, 0, err
	}
	if _, err := f.NewSheet(countsSheet); err != nil {
		return nil, 0, err
	}

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, 0, err
	}
	for i, h := range stockHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		if err := f.SetCellValue(stockSheet, cell, h); err != nil {
			return nil, 0, err
		}
		_ = f.SetCellStyle(stockSheet, cell, cell, bold)
		_ = f.SetColWidth(stockSheet, col, col, colWidths[i])
	}

	c.PerPage = exportBatch
	line := 2
	var counts dto.ViewCounts
	var totals dto.Totals
	for page := 1; ; page++ {
		c.Page = page
		list, err := e.uc.List(ctx, &c)
		if err != nil {
			return nil, 0, err
		}
		counts = list.Counts
		totals.Stock += list.Totals.Stock
		totals.Inbound += list.Totals.Inbound

		for _, r := range list.Rows {
			if err := writeRow(f, line, &r); err != nil {
				return nil, 0, err
			}
			line++
			for _, child := range r.Children {
				if err := writeRow(f, line, &child); err != nil {
					return nil, 0, err
				}
				line++
			}
		}
		if page >= list.Pagination.TotalPages {
			break
		}
	}

	summary, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	_ = f.SetCellValue(stockSheet, fmt.Sprintf("A%d", line), "Total")
	_ = f.SetCellValue(stockSheet, fmt.Sprintf("I%d", line), totals.Stock)
	_ = f.SetCellValue(stockSheet, fmt.Sprintf("K%d", line), totals.Inbound)
	_ = f.SetCellStyle(stockSheet, fmt.Sprintf("A%d", line), fmt.Sprintf("N%d", line), summary)

	views := [][]interface{}{
		{"View", "Products"},
		{"All", counts.All},
		{"In stock", counts.InStock},
		{"Low stock", counts.LowStock},
		{"Out of stock", counts.OutOfStock},
		{"Unmanaged", counts.Unmanaged},
	}
	for i, v := range views {
		if err := f.SetSheetRow(countsSheet, fmt.Sprintf("A%d", i+1), &v); err != nil {
			return nil, 0, err
		}
	}
	_ = f.SetCellStyle(countsSheet, "A1", "B1", bold)

	return f, line - 2, nil
}

// Write builds the workbook for c and writes it to w.
func (e *Exporter) Write(ctx context.Context, c dto.Criteria, w io.Writer) (int, error) {
	f, n, err := e.Build(ctx, c)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return 0, err
	}
	return n, nil
}

func writeRow(f *excelize.File, line int, r *dto.StockRow) error {
	values := []interface{}{
		r.ID, nil, string(r.Type), nil, r.Name, nil, nil, nil,
		nil, string(r.Indicator), r.Inbound, r.SoldLastDays, nil, nil,
	}
	if r.ParentID != nil {
		values[1] = *r.ParentID
	}
	if r.SKU != nil {
		values[3] = *r.SKU
	}
	if r.SupplierID != nil {
		values[5] = *r.SupplierID
	}
	if r.PurchasePrice.Valid {
		values[6] = r.PurchasePrice.Decimal.InexactFloat64()
	}
	if r.RegularPrice.Valid {
		values[7] = r.RegularPrice.Decimal.InexactFloat64()
	}
	if r.Stock != nil {
		values[8] = *r.Stock
	}
	if r.LostSales != nil {
		values[12] = r.LostSales.InexactFloat64()
	}
	if r.OutOfStockDays != nil {
		values[13] = *r.OutOfStockDays
	}
	if r.Indicator == dto.IndicatorContainer {
		values[10], values[11] = nil, nil
	}
	return f.SetSheetRow(stockSheet, fmt.Sprintf("A%d", line), &values)
}
