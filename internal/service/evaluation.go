package service

// evaluation.go holds the pure cash-up rules. Nothing here touches storage so
// the same functions back Submit, RecordSystemBalance, Evaluate and the
// weekly aggregation.

import (
	"time"

	"sdkadmin/internal/config"
	"sdkadmin/internal/dto"
	"sdkadmin/internal/model"

	"github.com/shopspring/decimal"
)

// Evaluate returns the discrepancy (declared minus system) and the status.
// The discrepancy is nil unless both amounts are known. A missing declared
// total wins over a missing system balance.
func Evaluate(batchTotal, systemBalance *decimal.Decimal) (*decimal.Decimal, string) {
	switch {
	case batchTotal == nil:
		return nil, model.StatusMissingBatchReceipt
	case systemBalance == nil:
		return nil, model.StatusAwaitingSystemBalance
	}
	d := batchTotal.Sub(*systemBalance)
	switch d.Sign() {
	case 0:
		return &d, model.StatusBalanced
	case -1:
		return &d, model.StatusShort
	default:
		return &d, model.StatusOver
	}
}

// ClassifyRisk grades the magnitude of a discrepancy against the policy
// thresholds. priorIssues at or above RepeatEscalation bumps a non-zero
// discrepancy one level. Unknown discrepancies have no risk level.
func ClassifyRisk(discrepancy *decimal.Decimal, priorIssues int, p config.CashUpPolicy) string {
	if discrepancy == nil {
		return ""
	}
	levels := []string{model.RiskLow, model.RiskMedium, model.RiskHigh}

	abs := discrepancy.Abs()
	level := 0
	if abs.GreaterThanOrEqual(p.MediumThreshold) {
		level = 1
	}
	if abs.GreaterThanOrEqual(p.HighThreshold) {
		level = 2
	}
	if !discrepancy.IsZero() && p.RepeatEscalation > 0 && priorIssues >= p.RepeatEscalation && level < 2 {
		level++
	}
	return levels[level]
}

// Cutoff is the configured time of day on the civil date, in the policy zone.
func Cutoff(date time.Time, p config.CashUpPolicy) time.Time {
	h := int(p.Cutoff / time.Hour)
	m := int((p.Cutoff % time.Hour) / time.Minute)
	return time.Date(date.Year(), date.Month(), date.Day(), h, m, 0, 0, p.Location)
}

// Timeliness classifies a submission time against the date's cutoff. The
// cutoff instant itself is on time and so is the last instant of grace.
func Timeliness(submittedAt *time.Time, date time.Time, p config.CashUpPolicy) string {
	if submittedAt == nil {
		return model.SubmissionMissing
	}
	cutoff := Cutoff(date, p)
	switch {
	case !submittedAt.After(cutoff):
		return model.SubmissionOnTime
	case !submittedAt.After(cutoff.Add(p.Grace)):
		return model.SubmissionLateGrace
	default:
		return model.SubmissionLate
	}
}

// CivilDate returns the calendar day of t in loc, as midnight UTC.
func CivilDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseCivilDate parses YYYY-MM-DD into midnight UTC.
func ParseCivilDate(s string) (time.Time, error) {
	t, err := time.Parse(dto.DateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}
