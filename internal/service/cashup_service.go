package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sdkadmin/internal/config"
	"sdkadmin/internal/dto"
	"sdkadmin/internal/model"
	"sdkadmin/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SummaryInvalidator drops cached weekly summaries after a submission changes.
// Satisfied by infra.SummaryCache.
type SummaryInvalidator interface {
	Bump(ctx context.Context) error
}

type CashUpService interface {
	Submit(ctx context.Context, req dto.SubmitCashUpRequest, actor Actor) (*dto.CashUpResponse, error)
	RecordSystemBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal, actor Actor) (*dto.CashUpResponse, error)
	Evaluate(ctx context.Context, employeeID uuid.UUID, date time.Time) (*dto.EvaluationResponse, error)
	AddNote(ctx context.Context, id uuid.UUID, note string, author Actor) (*dto.CashUpResponse, error)
	Resolve(ctx context.Context, id uuid.UUID, notes string, reviewer Actor) (*dto.CashUpResponse, error)
	AddAttachment(ctx context.Context, id uuid.UUID, req dto.AttachmentRequest, actor Actor) (*dto.CashUpResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.CashUpResponse, error)
	ListByDate(ctx context.Context, date time.Time) ([]dto.CashUpResponse, error)
}

type cashUpService struct {
	repo      repository.CashUpRepository
	employees repository.EmployeeRepository
	policy    config.CashUpPolicy
	cache     SummaryInvalidator // optional
	now       func() time.Time
}

func NewCashUpService(
	repo repository.CashUpRepository,
	employees repository.EmployeeRepository,
	policy config.CashUpPolicy,
	cache SummaryInvalidator,
) CashUpService {
	return &cashUpService{repo: repo, employees: employees, policy: policy, cache: cache, now: time.Now}
}

// ── Submit ────────────────────────────────────────────────────────────────────
// One submission per employee per civil date. SubmittedAt comes from the
// server clock; the client never supplies it.

func (s *cashUpService) Submit(ctx context.Context, req dto.SubmitCashUpRequest, actor Actor) (*dto.CashUpResponse, error) {
	date, err := ParseCivilDate(req.Date)
	if err != nil {
		return nil, err
	}
	if req.BatchReceiptTotal != nil && req.BatchReceiptTotal.IsNegative() {
		return nil, ErrInvalidAmount
	}

	employeeID, employeeName, err := s.submitter(ctx, req.EmployeeID, actor)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByEmployeeDate(ctx, employeeID, date); err == nil {
		return nil, ErrAlreadySubmitted
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := s.now()
	sub := &model.CashUpSubmission{
		EmployeeID:        employeeID,
		EmployeeName:      employeeName,
		Date:              date,
		BatchReceiptTotal: req.BatchReceiptTotal,
		SubmittedAt:       now,
		Notes:             strings.TrimSpace(req.Notes),
	}
	for _, a := range req.Attachments {
		sub.Attachments = append(sub.Attachments, model.CashUpAttachment{
			URL:        a.URL,
			FileName:   a.FileName,
			UploadedBy: actor.Name,
		})
	}
	if err := s.evaluate(ctx, sub); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadySubmitted
		}
		return nil, fmt.Errorf("create cash-up: %w", err)
	}
	s.invalidate(ctx)

	log.Info().
		Str("submission_id", sub.ID.String()).
		Str("employee_id", employeeID.String()).
		Str("date", req.Date).
		Str("status", sub.Status).
		Str("submission_status", sub.SubmissionStatus).
		Msg("cashup: submitted")

	return s.reload(ctx, sub.ID)
}

// submitter decides whose cash-up this is. Staff always submit for
// themselves; reviewers may name another employee.
func (s *cashUpService) submitter(ctx context.Context, requested string, actor Actor) (uuid.UUID, string, error) {
	employeeID := actor.ID
	if requested != "" && actor.CanReview() {
		id, err := uuid.Parse(requested)
		if err != nil {
			return uuid.Nil, "", fmt.Errorf("invalid employee_id: %w", err)
		}
		employeeID = id
	}

	emp, err := s.employees.FindByID(ctx, employeeID)
	switch {
	case err == nil:
		return emp.ID, emp.Name, nil
	case errors.Is(err, gorm.ErrRecordNotFound) && employeeID == actor.ID:
		return actor.ID, actor.Name, nil
	default:
		return uuid.Nil, "", notFound(err)
	}
}

// ── RecordSystemBalance ───────────────────────────────────────────────────────

func (s *cashUpService) RecordSystemBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal, actor Actor) (*dto.CashUpResponse, error) {
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	balance := amount.Round(2)
	sub.SystemBalance = &balance
	if err := s.evaluate(ctx, sub); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateEvaluation(ctx, sub); err != nil {
		return nil, fmt.Errorf("update cash-up: %w", err)
	}
	s.invalidate(ctx)

	log.Info().
		Str("submission_id", id.String()).
		Str("status", sub.Status).
		Str("by", actor.Name).
		Msg("cashup: system balance recorded")
	// a concurrent resolve may have landed since FindByID
	return s.reload(ctx, id)
}

// ── Evaluate ──────────────────────────────────────────────────────────────────
// Recomputed from the stored inputs on every call.

func (s *cashUpService) Evaluate(ctx context.Context, employeeID uuid.UUID, date time.Time) (*dto.EvaluationResponse, error) {
	cutoff := Cutoff(date, s.policy)
	resp := &dto.EvaluationResponse{
		EmployeeID:  employeeID.String(),
		Date:        date.Format(dto.DateLayout),
		Cutoff:      cutoff.Format(time.RFC3339),
		GraceEndsAt: cutoff.Add(s.policy.Grace).Format(time.RFC3339),
	}

	sub, err := s.repo.FindByEmployeeDate(ctx, employeeID, date)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		_, resp.Status = Evaluate(nil, nil)
		resp.SubmissionStatus = Timeliness(nil, date, s.policy)
		return resp, nil
	}
	if err != nil {
		return nil, err
	}
	if err := s.evaluate(ctx, sub); err != nil {
		return nil, err
	}

	id := sub.ID.String()
	submittedAt := sub.SubmittedAt.Format(time.RFC3339)
	resp.SubmissionID = &id
	resp.BatchReceiptTotal = sub.BatchReceiptTotal
	resp.SystemBalance = sub.SystemBalance
	resp.Discrepancy = sub.Discrepancy
	resp.Status = sub.Status
	resp.RiskLevel = sub.RiskLevel
	resp.SubmissionStatus = sub.SubmissionStatus
	resp.SubmittedAt = &submittedAt
	resp.IsResolved = sub.IsResolved
	return resp, nil
}

// ── AddNote ───────────────────────────────────────────────────────────────────
// Append-only; status is untouched.

func (s *cashUpService) AddNote(ctx context.Context, id uuid.UUID, note string, author Actor) (*dto.CashUpResponse, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, notFound(err)
	}
	n := &model.CashUpNote{
		SubmissionID: id,
		Author:       author.Name,
		Body:         strings.TrimSpace(note),
	}
	if err := s.repo.AddNote(ctx, n); err != nil {
		return nil, fmt.Errorf("add note: %w", err)
	}
	return s.reload(ctx, id)
}

// ── Resolve ───────────────────────────────────────────────────────────────────
// One-way. Short and Over need resolution notes; other statuses may be
// closed without them.

func (s *cashUpService) Resolve(ctx context.Context, id uuid.UUID, notes string, reviewer Actor) (*dto.CashUpResponse, error) {
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if sub.IsResolved {
		return nil, ErrAlreadyResolved
	}
	notes = strings.TrimSpace(notes)
	if sub.IsDiscrepant() && notes == "" {
		return nil, ErrNotesRequired
	}

	var notesPtr *string
	if notes != "" {
		notesPtr = &notes
	}
	ok, err := s.repo.MarkResolved(ctx, id, notesPtr, reviewer.Name, s.now())
	if err != nil {
		return nil, fmt.Errorf("resolve cash-up: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyResolved
	}
	s.invalidate(ctx)

	log.Info().
		Str("submission_id", id.String()).
		Str("status", sub.Status).
		Str("by", reviewer.Name).
		Msg("cashup: resolved")
	return s.reload(ctx, id)
}

// ── AddAttachment ─────────────────────────────────────────────────────────────

func (s *cashUpService) AddAttachment(ctx context.Context, id uuid.UUID, req dto.AttachmentRequest, actor Actor) (*dto.CashUpResponse, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, notFound(err)
	}
	a := &model.CashUpAttachment{
		SubmissionID: id,
		URL:          req.URL,
		FileName:     req.FileName,
		UploadedBy:   actor.Name,
	}
	if err := s.repo.AddAttachment(ctx, a); err != nil {
		return nil, fmt.Errorf("add attachment: %w", err)
	}
	return s.reload(ctx, id)
}

// ── Get / ListByDate ──────────────────────────────────────────────────────────

func (s *cashUpService) Get(ctx context.Context, id uuid.UUID) (*dto.CashUpResponse, error) {
	return s.reload(ctx, id)
}

func (s *cashUpService) ListByDate(ctx context.Context, date time.Time) ([]dto.CashUpResponse, error) {
	subs, err := s.repo.ListByDateRange(ctx, date, date.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	out := make([]dto.CashUpResponse, len(subs))
	for i := range subs {
		out[i] = *toCashUpResponse(&subs[i])
	}
	return out, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// evaluate recomputes every derived field of sub from its inputs.
func (s *cashUpService) evaluate(ctx context.Context, sub *model.CashUpSubmission) error {
	sub.Discrepancy, sub.Status = Evaluate(sub.BatchReceiptTotal, sub.SystemBalance)
	sub.SubmissionStatus = Timeliness(&sub.SubmittedAt, sub.Date, s.policy)

	prior := 0
	if sub.Discrepancy != nil && !sub.Discrepancy.IsZero() && s.policy.RepeatEscalation > 0 {
		from := sub.Date.Add(-s.policy.Window)
		n, err := s.repo.CountIssues(ctx, sub.EmployeeID, from, sub.Date, sub.ID)
		if err != nil {
			return fmt.Errorf("count prior issues: %w", err)
		}
		prior = int(n)
	}
	sub.RiskLevel = ClassifyRisk(sub.Discrepancy, prior, s.policy)
	return nil
}

func (s *cashUpService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil {
		log.Warn().Err(err).Msg("cashup: summary cache invalidation failed")
	}
}

func (s *cashUpService) reload(ctx context.Context, id uuid.UUID) (*dto.CashUpResponse, error) {
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return toCashUpResponse(sub), nil
}

func toCashUpResponse(sub *model.CashUpSubmission) *dto.CashUpResponse {
	resp := &dto.CashUpResponse{
		ID:                sub.ID.String(),
		EmployeeID:        sub.EmployeeID.String(),
		EmployeeName:      sub.EmployeeName,
		Date:              sub.Date.Format(dto.DateLayout),
		BatchReceiptTotal: sub.BatchReceiptTotal,
		SystemBalance:     sub.SystemBalance,
		Discrepancy:       sub.Discrepancy,
		Status:            sub.Status,
		RiskLevel:         sub.RiskLevel,
		SubmittedAt:       sub.SubmittedAt.Format(time.RFC3339),
		SubmissionStatus:  sub.SubmissionStatus,
		IsResolved:        sub.IsResolved,
		ResolutionNotes:   sub.ResolutionNotes,
		ResolvedBy:        sub.ResolvedBy,
		Notes:             sub.Notes,
		ReviewNotes:       make([]dto.NoteResponse, len(sub.ReviewNotes)),
		Attachments:       make([]dto.AttachmentResponse, len(sub.Attachments)),
	}
	if sub.ResolvedAt != nil {
		r := sub.ResolvedAt.Format(time.RFC3339)
		resp.ResolvedAt = &r
	}
	for i, n := range sub.ReviewNotes {
		resp.ReviewNotes[i] = dto.NoteResponse{
			ID:        n.ID.String(),
			Author:    n.Author,
			Body:      n.Body,
			CreatedAt: n.CreatedAt.Format(time.RFC3339),
		}
	}
	for i, a := range sub.Attachments {
		resp.Attachments[i] = dto.AttachmentResponse{
			ID:         a.ID.String(),
			URL:        a.URL,
			FileName:   a.FileName,
			UploadedBy: a.UploadedBy,
		}
	}
	return resp
}
