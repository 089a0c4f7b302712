package applications

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	applicationstore "github.com/dalemusser/partnerportal/internal/app/store/applications"
	"github.com/dalemusser/partnerportal/internal/app/system/timeouts"
	"github.com/dalemusser/partnerportal/internal/domain/models"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Applications"

var exportHeaders = []string{
	"ID", "Company", "Contact", "Email", "Phone", "Status",
	"Submitted", "Reviewed by", "Reviewed at", "Last invite",
}

var exportWidths = []float64{26, 30, 24, 30, 18, 12, 18, 26, 18, 12}

// ServeExport handles GET /admin/applications/export. It applies the same
// filters and ordering as the list page.
func (h *Handler) ServeExport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "applications export")
	defer cancel()

	apps, err := h.Reviews.List(ctx, parseQuery(r))
	if errors.Is(err, applicationstore.ErrInvalidStatus) {
		h.ErrLog.LogBadRequest(w, r, "bad status filter", err, "Unknown status filter.", listPath)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list applications failed", err, "A database error occurred.", listPath)
		return
	}

	data, err := buildWorkbook(apps)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "build export failed", err, "Unable to build the export.", listPath)
		return
	}

	name := fmt.Sprintf("applications-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

// buildWorkbook renders apps as a single-sheet workbook with a frozen
// header row.
func buildWorkbook(apps []models.Application) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	idx, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(idx)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	if err := f.SetSheetRow(exportSheet, "A1", &exportHeaders); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	if err := f.SetCellStyle(exportSheet, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}
	for i, width := range exportWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(exportSheet, col, col, width); err != nil {
			return nil, fmt.Errorf("column width: %w", err)
		}
	}

	for i, a := range apps {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{
			a.ID.Hex(), a.CompanyName, a.ContactName, a.Email, a.Phone, a.Status,
			a.SubmittedAt.UTC().Format(dateLayout), a.ReviewedBy, formatOptTime(a.ReviewedAt), a.LastInviteKind,
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(exportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func formatOptTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(dateLayout)
}
