package export

import (
	"fmt"
	"io"

	appcatalog "github.com/clinicstock/backend/internal/application/catalog"
	"github.com/xuri/excelize/v2"
)

// XLSXContentType is the MIME type of the produced workbook
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	expiringSheet = "Expiring"
	dateLayout    = "2006-01-02"
)

var expiringHeader = []interface{}{
	"Product code",
	"Product name",
	"Batch",
	"Expiry date",
	"Days left",
	"Expired",
	"On hand",
	"Reserved",
}

// ExpiringXLSXWriter renders the expiring-batch listing as an Excel workbook
type ExpiringXLSXWriter struct{}

// NewExpiringXLSXWriter creates a new ExpiringXLSXWriter
func NewExpiringXLSXWriter() *ExpiringXLSXWriter {
	return &ExpiringXLSXWriter{}
}

// ContentType returns the workbook MIME type
func (w *ExpiringXLSXWriter) ContentType() string {
	return XLSXContentType
}

// WriteExpiring writes one row per batch followed by a total line
func (w *ExpiringXLSXWriter) WriteExpiring(out io.Writer, report *appcatalog.ExpiringReport) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), expiringSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	expiredStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "#C00000"},
	})
	if err != nil {
		return fmt.Errorf("create expired style: %w", err)
	}

	header := expiringHeader
	if err := f.SetSheetRow(expiringSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(expiringHeader))
	if err := f.SetCellStyle(expiringSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	row := 2
	for _, b := range report.Batches {
		expiry := ""
		if b.ExpiryDate != nil {
			expiry = b.ExpiryDate.Format(dateLayout)
		}
		values := []interface{}{
			b.ProductCode,
			b.ProductName,
			b.BatchNumber,
			expiry,
			b.DaysUntilExpiry,
			b.Expired,
			b.OnHand.InexactFloat64(),
			b.Reserved.InexactFloat64(),
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return fmt.Errorf("row %d: %w", row, err)
		}
		if err := f.SetSheetRow(expiringSheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
		if b.Expired {
			end := fmt.Sprintf("%s%d", lastCol, row)
			if err := f.SetCellStyle(expiringSheet, cell, end, expiredStyle); err != nil {
				return fmt.Errorf("style row %d: %w", row, err)
			}
		}
		row++
	}

	totalCell := fmt.Sprintf("A%d", row)
	if err := f.SetCellValue(expiringSheet, totalCell, fmt.Sprintf("Total (%d days)", report.HorizonDays)); err != nil {
		return fmt.Errorf("write total: %w", err)
	}
	if err := f.SetCellValue(expiringSheet, fmt.Sprintf("G%d", row), report.TotalOnHand.InexactFloat64()); err != nil {
		return fmt.Errorf("write total: %w", err)
	}
	if err := f.SetCellStyle(expiringSheet, totalCell, fmt.Sprintf("%s%d", lastCol, row), headerStyle); err != nil {
		return fmt.Errorf("style total: %w", err)
	}
	_ = f.SetColWidth(expiringSheet, "A", "B", 24)

	if err := f.Write(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

var _ appcatalog.ExpiringReportWriter = (*ExpiringXLSXWriter)(nil)
