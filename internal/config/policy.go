package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CashUpPolicy is the business configuration the cash-up evaluator and the
// weekly aggregator run against.
type CashUpPolicy struct {
	Location *time.Location
	// Cutoff is the offset from local midnight after which a submission is late.
	Cutoff time.Duration
	Grace  time.Duration
	// Days are the weekdays on which staff are expected to cash up.
	Days []time.Weekday

	MediumThreshold decimal.Decimal
	HighThreshold   decimal.Decimal
	// RepeatEscalation is the number of prior issues within Window that bumps
	// a discrepancy's risk one level. Zero disables escalation.
	RepeatEscalation int
	Window           time.Duration
}

// DefaultCashUpPolicy mirrors the defaults of Load.
func DefaultCashUpPolicy() CashUpPolicy {
	loc, err := time.LoadLocation("Africa/Johannesburg")
	if err != nil {
		loc = time.FixedZone("SAST", 2*60*60)
	}
	return CashUpPolicy{
		Location:         loc,
		Cutoff:           20 * time.Hour,
		Grace:            30 * time.Minute,
		Days:             []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday},
		MediumThreshold:  decimal.NewFromInt(50),
		HighThreshold:    decimal.NewFromInt(500),
		RepeatEscalation: 2,
		Window:           30 * 24 * time.Hour,
	}
}

// CashUpPolicy converts the raw env settings into a validated policy.
func (c *Config) CashUpPolicy() (CashUpPolicy, error) {
	var p CashUpPolicy

	loc, err := time.LoadLocation(c.CashUpTimezone)
	if err != nil {
		return p, fmt.Errorf("CASHUP_TIMEZONE %q: %w", c.CashUpTimezone, err)
	}
	cutoff, err := parseCutoff(c.CashUpCutoff)
	if err != nil {
		return p, err
	}
	days, err := parseDays(c.CashUpDays)
	if err != nil {
		return p, err
	}
	medium, err := decimal.NewFromString(c.RiskMediumThreshold)
	if err != nil {
		return p, fmt.Errorf("RISK_MEDIUM_THRESHOLD %q: %w", c.RiskMediumThreshold, err)
	}
	high, err := decimal.NewFromString(c.RiskHighThreshold)
	if err != nil {
		return p, fmt.Errorf("RISK_HIGH_THRESHOLD %q: %w", c.RiskHighThreshold, err)
	}
	if high.LessThan(medium) {
		return p, fmt.Errorf("RISK_HIGH_THRESHOLD (%s) must not be below RISK_MEDIUM_THRESHOLD (%s)", high, medium)
	}
	if c.CashUpGraceMinutes < 0 {
		return p, fmt.Errorf("CASHUP_GRACE_MINUTES must not be negative")
	}
	windowDays := c.RepeatOffenderWindowDay
	if windowDays <= 0 {
		windowDays = 30
	}

	return CashUpPolicy{
		Location:         loc,
		Cutoff:           cutoff,
		Grace:            time.Duration(c.CashUpGraceMinutes) * time.Minute,
		Days:             days,
		MediumThreshold:  medium,
		HighThreshold:    high,
		RepeatEscalation: c.RiskRepeatEscalation,
		Window:           time.Duration(windowDays) * 24 * time.Hour,
	}, nil
}

// IsCashUpDay reports whether staff are expected to submit on d.
func (p CashUpPolicy) IsCashUpDay(d time.Weekday) bool {
	for _, day := range p.Days {
		if day == d {
			return true
		}
	}
	return false
}
