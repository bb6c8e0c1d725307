package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"sdkadmin/internal/config"
	"sdkadmin/internal/dto"
	"sdkadmin/internal/model"
	"sdkadmin/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// SummaryCache stores rendered summaries under a generation number.
// Satisfied by infra.SummaryCache.
type SummaryCache interface {
	Version(ctx context.Context) (int64, error)
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type SummaryService interface {
	// Weekly aggregates the seven civil days starting at weekStart.
	Weekly(ctx context.Context, weekStart time.Time) (*dto.WeeklySummaryResponse, error)
}

type summaryService struct {
	cashups   repository.CashUpRepository
	employees repository.EmployeeRepository
	policy    config.CashUpPolicy
	cache     SummaryCache // nil or ttl 0 disables caching
	ttl       time.Duration
	now       func() time.Time
}

func NewSummaryService(
	cashups repository.CashUpRepository,
	employees repository.EmployeeRepository,
	policy config.CashUpPolicy,
	cache SummaryCache,
	ttl time.Duration,
) SummaryService {
	return &summaryService{
		cashups:   cashups,
		employees: employees,
		policy:    policy,
		cache:     cache,
		ttl:       ttl,
		now:       time.Now,
	}
}

func (s *summaryService) Weekly(ctx context.Context, weekStart time.Time) (*dto.WeeklySummaryResponse, error) {
	weekStart = time.Date(weekStart.Year(), weekStart.Month(), weekStart.Day(), 0, 0, 0, 0, time.UTC)

	key := ""
	if s.cache != nil && s.ttl > 0 {
		if v, err := s.cache.Version(ctx); err == nil {
			key = fmt.Sprintf("cashup:summary:%d:%s", v, weekStart.Format(dto.DateLayout))
			if b, ok := s.cache.Get(ctx, key); ok {
				var cached dto.WeeklySummaryResponse
				if err := json.Unmarshal(b, &cached); err == nil {
					return &cached, nil
				}
			}
		} else {
			log.Warn().Err(err).Msg("summary: cache unavailable")
		}
	}

	summary, err := s.compute(ctx, weekStart)
	if err != nil {
		return nil, err
	}

	if key != "" {
		if b, err := json.Marshal(summary); err == nil {
			if err := s.cache.Set(ctx, key, b, s.ttl); err != nil {
				log.Warn().Err(err).Msg("summary: cache write failed")
			}
		}
	}
	return summary, nil
}

func (s *summaryService) compute(ctx context.Context, weekStart time.Time) (*dto.WeeklySummaryResponse, error) {
	weekEnd := weekStart.AddDate(0, 0, 7)
	now := s.now()

	subs, err := s.cashups.ListByDateRange(ctx, weekStart, weekEnd)
	if err != nil {
		return nil, fmt.Errorf("load week submissions: %w", err)
	}
	roster, err := s.employees.ListCashUpRoster(ctx)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}

	out := &dto.WeeklySummaryResponse{
		WeekStart:       weekStart.Format(dto.DateLayout),
		WeekEnd:         weekEnd.Format(dto.DateLayout),
		ExpectedStaff:   len(roster),
		Submissions:     len(subs),
		ShortTotal:      decimal.Zero,
		OverTotal:       decimal.Zero,
		RepeatOffenders: []dto.RepeatOffender{},
		GeneratedAt:     now.Format(time.RFC3339),
	}

	audited := make(map[uuid.UUID]struct{}, len(roster))
	for _, e := range roster {
		audited[e.ID] = struct{}{}
	}

	type empDay struct {
		employee uuid.UUID
		day      string
	}
	submitted := make(map[empDay]struct{}, len(subs))

	for i := range subs {
		sub := &subs[i]
		audited[sub.EmployeeID] = struct{}{}
		submitted[empDay{sub.EmployeeID, sub.Date.Format(dto.DateLayout)}] = struct{}{}

		switch sub.Status {
		case model.StatusBalanced:
			out.Balanced++
		case model.StatusShort:
			out.Short++
			if sub.Discrepancy != nil {
				out.ShortTotal = out.ShortTotal.Add(sub.Discrepancy.Abs())
			}
		case model.StatusOver:
			out.Over++
			if sub.Discrepancy != nil {
				out.OverTotal = out.OverTotal.Add(*sub.Discrepancy)
			}
		case model.StatusAwaitingSystemBalance:
			out.AwaitingSystemBalance++
		case model.StatusMissingBatchReceipt:
			out.MissingBatchReceipt++
		}
		if sub.IsDiscrepant() {
			if sub.IsResolved {
				out.ResolvedDiscrepancies++
			} else {
				out.UnresolvedDiscrepancies++
			}
		}
		if sub.RiskLevel == model.RiskHigh {
			out.HighRisk++
		}

		switch sub.SubmissionStatus {
		case model.SubmissionOnTime:
			out.OnTime++
		case model.SubmissionLateGrace:
			out.LateGrace++
		case model.SubmissionLate:
			out.Late++
		}
	}
	out.Discrepancies = out.Short + out.Over
	out.TotalStaffAudited = len(audited)

	// A roster day only counts as missed once its grace period has ended
	for day := weekStart; day.Before(weekEnd); day = day.AddDate(0, 0, 1) {
		if !s.policy.IsCashUpDay(day.Weekday()) {
			continue
		}
		if !now.After(Cutoff(day, s.policy).Add(s.policy.Grace)) {
			continue
		}
		key := day.Format(dto.DateLayout)
		for _, e := range roster {
			if !e.CreatedAt.IsZero() && CivilDate(e.CreatedAt, s.policy.Location).After(day) {
				continue
			}
			if _, ok := submitted[empDay{e.ID, key}]; !ok {
				out.NotSubmitted++
			}
		}
	}

	offenders, err := s.repeatOffenders(ctx, weekEnd)
	if err != nil {
		return nil, err
	}
	out.RepeatOffenders = offenders
	return out, nil
}

// repeatOffenders counts discrepancies and late submissions per employee in
// [weekEnd-window, weekEnd). A submission that is both discrepant and late
// counts as two issues.
func (s *summaryService) repeatOffenders(ctx context.Context, weekEnd time.Time) ([]dto.RepeatOffender, error) {
	from := weekEnd.Add(-s.policy.Window)
	subs, err := s.cashups.ListByDateRange(ctx, from, weekEnd)
	if err != nil {
		return nil, fmt.Errorf("load offender window: %w", err)
	}

	byEmployee := make(map[uuid.UUID]*dto.RepeatOffender)
	lastIssue := make(map[uuid.UUID]time.Time)
	for i := range subs {
		sub := &subs[i]
		discrepant, late := sub.IsDiscrepant(), sub.IsLate()
		if !discrepant && !late {
			continue
		}
		o, ok := byEmployee[sub.EmployeeID]
		if !ok {
			o = &dto.RepeatOffender{EmployeeID: sub.EmployeeID.String(), EmployeeName: sub.EmployeeName}
			byEmployee[sub.EmployeeID] = o
		}
		if discrepant {
			o.Discrepancies++
		}
		if late {
			o.LateSubmissions++
		}
		if sub.Date.After(lastIssue[sub.EmployeeID]) {
			lastIssue[sub.EmployeeID] = sub.Date
		}
	}

	out := []dto.RepeatOffender{}
	for id, o := range byEmployee {
		o.TotalIssues = o.Discrepancies + o.LateSubmissions
		if o.TotalIssues <= 1 {
			continue
		}
		o.LastIssueDate = lastIssue[id].Format(dto.DateLayout)
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalIssues != out[j].TotalIssues {
			return out[i].TotalIssues > out[j].TotalIssues
		}
		return out[i].EmployeeName < out[j].EmployeeName
	})
	return out, nil
}
