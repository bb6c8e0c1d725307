package infra

// pdf.go renders the weekly cash-up summary as an A4 report using go-pdf/fpdf:
//   - title with the week range
//   - status counts table
//   - timeliness counts
//   - repeat offender table
//
// The file is written to storagePath/cashup_week_{start}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"sdkadmin/internal/dto"

	"github.com/go-pdf/fpdf"
)

// GenerateWeeklyReportPDF writes the summary to storagePath and returns the file path.
func GenerateWeeklyReportPDF(s *dto.WeeklySummaryResponse, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	filePath := filepath.Join(storagePath, fmt.Sprintf("cashup_week_%s.pdf", s.WeekStart))

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, "Weekly Cash-Up Summary", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 6, fmt.Sprintf("Week %s to %s (exclusive)", s.WeekStart, s.WeekEnd), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 6, "Generated "+s.GeneratedAt, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	section := func(title string, rows [][2]string) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(contentW, 7, title, "B", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, r := range rows {
			pdf.CellFormat(contentW*0.7, 6, r[0], "", 0, "L", false, 0, "")
			pdf.CellFormat(contentW*0.3, 6, r[1], "", 1, "R", false, 0, "")
		}
		pdf.Ln(3)
	}
	itoa := strconv.Itoa

	section("Staff", [][2]string{
		{"Staff audited", itoa(s.TotalStaffAudited)},
		{"Expected to submit", itoa(s.ExpectedStaff)},
		{"Submissions", itoa(s.Submissions)},
	})
	section("Balances", [][2]string{
		{"Balanced", itoa(s.Balanced)},
		{"Short", itoa(s.Short)},
		{"Over", itoa(s.Over)},
		{"Awaiting system balance", itoa(s.AwaitingSystemBalance)},
		{"Missing batch receipt", itoa(s.MissingBatchReceipt)},
		{"High risk", itoa(s.HighRisk)},
		{"Resolved discrepancies", itoa(s.ResolvedDiscrepancies)},
		{"Unresolved discrepancies", itoa(s.UnresolvedDiscrepancies)},
		{"Total short", "R " + s.ShortTotal.StringFixed(2)},
		{"Total over", "R " + s.OverTotal.StringFixed(2)},
	})
	section("Timeliness", [][2]string{
		{"On time", itoa(s.OnTime)},
		{"Late (grace period)", itoa(s.LateGrace)},
		{"Late", itoa(s.Late)},
		{"Not submitted", itoa(s.NotSubmitted)},
	})

	// ── Repeat offenders ─────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(contentW, 7, "Repeat offenders (trailing window)", "B", 1, "L", false, 0, "")
	if len(s.RepeatOffenders) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(contentW, 6, "None", "", 1, "L", false, 0, "")
	} else {
		col1, col2, col3, col4 := contentW*0.46, contentW*0.18, contentW*0.18, contentW*0.18
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(col1, 6, "Employee", "B", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 6, "Discrepancies", "B", 0, "R", false, 0, "")
		pdf.CellFormat(col3, 6, "Late", "B", 0, "R", false, 0, "")
		pdf.CellFormat(col4, 6, "Total", "B", 1, "R", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		for _, o := range s.RepeatOffenders {
			pdf.CellFormat(col1, 6, o.EmployeeName, "", 0, "L", false, 0, "")
			pdf.CellFormat(col2, 6, itoa(o.Discrepancies), "", 0, "R", false, 0, "")
			pdf.CellFormat(col3, 6, itoa(o.LateSubmissions), "", 0, "R", false, 0, "")
			pdf.CellFormat(col4, 6, itoa(o.TotalIssues), "", 1, "R", false, 0, "")
		}
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
