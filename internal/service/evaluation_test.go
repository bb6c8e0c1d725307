package service

import (
	"testing"
	"time"

	"sdkadmin/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_Statuses(t *testing.T) {
	cases := []struct {
		name        string
		batch, sys  string
		status      string
		discrepancy string
	}{
		{"balanced", "5000", "5000", model.StatusBalanced, "0"},
		{"short", "4800", "5000", model.StatusShort, "-200"},
		{"over", "5000.10", "5000", model.StatusOver, "0.1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, status := Evaluate(dec(tc.batch), dec(tc.sys))
			require.NotNil(t, d)
			assert.Equal(t, tc.status, status)
			assert.True(t, d.Equal(*dec(tc.discrepancy)), "got %s", d)
		})
	}
}

func TestEvaluate_UnknownInputsLeaveDiscrepancyUnset(t *testing.T) {
	d, status := Evaluate(dec("100"), nil)
	assert.Nil(t, d)
	assert.Equal(t, model.StatusAwaitingSystemBalance, status)

	d, status = Evaluate(nil, dec("100"))
	assert.Nil(t, d)
	assert.Equal(t, model.StatusMissingBatchReceipt, status)

	// missing declaration wins when both are unknown
	d, status = Evaluate(nil, nil)
	assert.Nil(t, d)
	assert.Equal(t, model.StatusMissingBatchReceipt, status)
}

func TestClassifyRisk(t *testing.T) {
	p := testPolicy()

	assert.Equal(t, "", ClassifyRisk(nil, 5, p))
	assert.Equal(t, model.RiskLow, ClassifyRisk(dec("0"), 0, p))
	assert.Equal(t, model.RiskLow, ClassifyRisk(dec("-49.99"), 0, p))
	assert.Equal(t, model.RiskMedium, ClassifyRisk(dec("-50"), 0, p))
	assert.Equal(t, model.RiskMedium, ClassifyRisk(dec("499.99"), 0, p))
	assert.Equal(t, model.RiskHigh, ClassifyRisk(dec("-500"), 0, p))

	// repeat issues escalate one level, never past high and never a zero discrepancy
	assert.Equal(t, model.RiskMedium, ClassifyRisk(dec("-10"), 2, p))
	assert.Equal(t, model.RiskLow, ClassifyRisk(dec("-10"), 1, p))
	assert.Equal(t, model.RiskHigh, ClassifyRisk(dec("-200"), 3, p))
	assert.Equal(t, model.RiskHigh, ClassifyRisk(dec("900"), 3, p))
	assert.Equal(t, model.RiskLow, ClassifyRisk(dec("0"), 10, p))

	p.RepeatEscalation = 0
	assert.Equal(t, model.RiskLow, ClassifyRisk(dec("-10"), 10, p))
}

func TestTimeliness_Boundaries(t *testing.T) {
	p := testPolicy()
	date := civil("2024-01-05")
	ts := func(tm time.Time) *time.Time { return &tm }

	assert.Equal(t, model.SubmissionOnTime, Timeliness(ts(at("2024-01-05", 19, 59, 59)), date, p))
	assert.Equal(t, model.SubmissionOnTime, Timeliness(ts(at("2024-01-05", 20, 0, 0)), date, p))
	assert.Equal(t, model.SubmissionLateGrace, Timeliness(ts(at("2024-01-05", 20, 0, 1)), date, p))
	assert.Equal(t, model.SubmissionLateGrace, Timeliness(ts(at("2024-01-05", 20, 30, 0)), date, p))
	assert.Equal(t, model.SubmissionLate, Timeliness(ts(at("2024-01-05", 20, 30, 1)), date, p))
	assert.Equal(t, model.SubmissionLate, Timeliness(ts(at("2024-01-06", 8, 0, 0)), date, p))
	assert.Equal(t, model.SubmissionMissing, Timeliness(nil, date, p))

	// the same instant expressed in UTC classifies identically
	assert.Equal(t, model.SubmissionOnTime, Timeliness(ts(at("2024-01-05", 20, 0, 0).UTC()), date, p))
}

func TestCivilDate_UsesPolicyZone(t *testing.T) {
	p := testPolicy()
	// 23:30 UTC on the 4th is already the 5th in SAST
	got := CivilDate(time.Date(2024, 1, 4, 23, 30, 0, 0, time.UTC), p.Location)
	assert.Equal(t, civil("2024-01-05"), got)
}

func TestParseCivilDate(t *testing.T) {
	d, err := ParseCivilDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, d.Location())

	_, err = ParseCivilDate("29/02/2024")
	assert.ErrorIs(t, err, ErrInvalidDate)
}
