package worker

// report_worker.go
// Processes weekly_report jobs from QueueReports: aggregates the week,
// renders the PDF and mails it to the requested recipients. SMTP delivery
// goes through the circuit breaker so a dead relay fails fast.

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"sdkadmin/internal/dto"
	"sdkadmin/internal/infra"
	"sdkadmin/internal/service"

	"github.com/rs/zerolog/log"
)

// WeeklyReportPayload is the job body sent to QueueReports.
type WeeklyReportPayload struct {
	WeekStart   string   `json:"week_start"`
	Recipients  []string `json:"recipients"`
	RequestedBy string   `json:"requested_by"`
}

// ReportMailer is satisfied by infra.Mailer.
type ReportMailer interface {
	SendReport(to []string, subject, body, pdfPath string) error
}

type ReportWorker struct {
	summaries   service.SummaryService
	mailer      ReportMailer
	cb          *infra.CircuitBreaker
	storagePath string
	render      func(s *dto.WeeklySummaryResponse, storagePath string) (string, error)
}

func NewReportWorker(summaries service.SummaryService, mailer ReportMailer, cb *infra.CircuitBreaker, storagePath string) *ReportWorker {
	return &ReportWorker{
		summaries:   summaries,
		mailer:      mailer,
		cb:          cb,
		storagePath: storagePath,
		render:      infra.GenerateWeeklyReportPDF,
	}
}

// Process handles one job:
//  1. Parse the payload
//  2. Aggregate the week
//  3. Render the PDF to the report storage path
//  4. Send it through the circuit breaker
func (w *ReportWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload WeeklyReportPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("%w: invalid payload: %v", ErrPermanent, err)
	}
	if len(payload.Recipients) == 0 {
		return fmt.Errorf("%w: no recipients", ErrPermanent)
	}
	weekStart, err := service.ParseCivilDate(payload.WeekStart)
	if err != nil {
		return fmt.Errorf("%w: week_start %q", ErrPermanent, payload.WeekStart)
	}

	summary, err := w.summaries.Weekly(ctx, weekStart)
	if err != nil {
		return fmt.Errorf("aggregate week %s: %w", payload.WeekStart, err)
	}

	pdfPath, err := w.render(summary, w.storagePath)
	if err != nil {
		return err
	}
	defer os.Remove(pdfPath)

	subject := fmt.Sprintf("Weekly cash-up summary %s", summary.WeekStart)
	body := reportBody(summary)
	if err := w.cb.Execute(func() error {
		return w.mailer.SendReport(payload.Recipients, subject, body, pdfPath)
	}); err != nil {
		return fmt.Errorf("send report: %w", err)
	}

	log.Info().
		Str("week_start", summary.WeekStart).
		Strs("to", payload.Recipients).
		Str("requested_by", payload.RequestedBy).
		Msg("report_worker: weekly summary sent")
	return nil
}

func reportBody(s *dto.WeeklySummaryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Cash-up summary for the week starting %s.\n\n", s.WeekStart)
	fmt.Fprintf(&b, "Staff audited: %d\n", s.TotalStaffAudited)
	fmt.Fprintf(&b, "Discrepancies: %d (%d unresolved, %d high risk)\n", s.Discrepancies, s.UnresolvedDiscrepancies, s.HighRisk)
	fmt.Fprintf(&b, "Late submissions: %d, not submitted: %d\n", s.Late+s.LateGrace, s.NotSubmitted)
	fmt.Fprintf(&b, "Repeat offenders: %d\n\n", len(s.RepeatOffenders))
	fmt.Fprintf(&b, "Generated %s. The full report is attached.\n", s.GeneratedAt)
	return b.String()
}

// Handler adapts Process to the pool's Handler signature.
func (w *ReportWorker) Handler() Handler {
	return func(ctx context.Context, payload json.RawMessage) error {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()
		return w.Process(ctx, payload)
	}
}
