package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"sdkadmin/internal/dto"
	"sdkadmin/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Week of Monday 2024-01-08; cash-up days Mon-Sat.
func newSummaryFixture(now time.Time) (*summaryService, *memCashUpRepo, []model.Employee) {
	roster := []model.Employee{
		{ID: uuid.New(), Name: "Anele", RequiresCashUp: true, Active: true},
		{ID: uuid.New(), Name: "Busi", RequiresCashUp: true, Active: true},
		{ID: uuid.New(), Name: "Chris", RequiresCashUp: true, Active: true},
		{ID: uuid.New(), Name: "Driver", RequiresCashUp: false, Active: true},
	}
	repo := newMemCashUpRepo()
	svc := NewSummaryService(repo, newMemEmployeeRepo(roster...), testPolicy(), nil, 0).(*summaryService)
	svc.now = func() time.Time { return now }
	return svc, repo, roster
}

func sub(e model.Employee, date, status, timeliness, disc string) model.CashUpSubmission {
	s := model.CashUpSubmission{
		EmployeeID:       e.ID,
		EmployeeName:     e.Name,
		Date:             civil(date),
		Status:           status,
		SubmissionStatus: timeliness,
	}
	if disc != "" {
		s.Discrepancy = dec(disc)
	}
	return s
}

func TestWeekly_Counts(t *testing.T) {
	// Wednesday after the grace period: Mon, Tue and Wed have passed
	svc, repo, roster := newSummaryFixture(at("2024-01-10", 21, 0, 0))
	anele, busi, chris := roster[0], roster[1], roster[2]

	high := sub(anele, "2024-01-08", model.StatusShort, model.SubmissionOnTime, "-600")
	high.RiskLevel = model.RiskHigh
	repo.put(high)
	repo.put(sub(anele, "2024-01-09", model.StatusBalanced, model.SubmissionOnTime, "0"))
	repo.put(sub(anele, "2024-01-10", model.StatusOver, model.SubmissionLateGrace, "25"))
	resolved := sub(busi, "2024-01-08", model.StatusShort, model.SubmissionLate, "-40")
	resolved.IsResolved = true
	repo.put(resolved)
	repo.put(sub(busi, "2024-01-09", model.StatusAwaitingSystemBalance, model.SubmissionOnTime, ""))
	repo.put(sub(busi, "2024-01-10", model.StatusMissingBatchReceipt, model.SubmissionOnTime, ""))
	// chris never submits; outside-the-week rows are ignored
	repo.put(sub(chris, "2024-01-15", model.StatusShort, model.SubmissionLate, "-1"))

	s, err := svc.Weekly(context.Background(), civil("2024-01-08"))
	require.NoError(t, err)

	assert.Equal(t, "2024-01-08", s.WeekStart)
	assert.Equal(t, "2024-01-15", s.WeekEnd)
	assert.Equal(t, 3, s.ExpectedStaff)
	assert.Equal(t, 3, s.TotalStaffAudited)
	assert.Equal(t, 6, s.Submissions)
	assert.Equal(t, 1, s.Balanced)
	assert.Equal(t, 2, s.Short)
	assert.Equal(t, 1, s.Over)
	assert.Equal(t, 3, s.Discrepancies)
	assert.Equal(t, 1, s.AwaitingSystemBalance)
	assert.Equal(t, 1, s.MissingBatchReceipt)
	assert.Equal(t, 1, s.HighRisk)
	assert.Equal(t, 4, s.OnTime)
	assert.Equal(t, 1, s.LateGrace)
	assert.Equal(t, 1, s.Late)
	assert.Equal(t, 3, s.NotSubmitted, "chris missed Mon, Tue, Wed")
	assert.Equal(t, 1, s.ResolvedDiscrepancies)
	assert.Equal(t, 2, s.UnresolvedDiscrepancies)
	assert.Equal(t, "640", s.ShortTotal.String())
	assert.Equal(t, "25", s.OverTotal.String())
}

func TestWeekly_NotSubmittedWaitsForGraceEnd(t *testing.T) {
	svc, _, _ := newSummaryFixture(at("2024-01-08", 20, 30, 0))
	s, err := svc.Weekly(context.Background(), civil("2024-01-08"))
	require.NoError(t, err)
	assert.Equal(t, 0, s.NotSubmitted)

	svc.now = func() time.Time { return at("2024-01-08", 20, 30, 1) }
	s, err = svc.Weekly(context.Background(), civil("2024-01-08"))
	require.NoError(t, err)
	assert.Equal(t, 3, s.NotSubmitted)
}

func TestWeekly_RepeatOffenders(t *testing.T) {
	svc, repo, roster := newSummaryFixture(at("2024-01-20", 12, 0, 0))
	anele, busi, chris := roster[0], roster[1], roster[2]

	// anele: 3 issues, one of them both short and late
	repo.put(sub(anele, "2023-12-20", model.StatusShort, model.SubmissionLate, "-5"))
	repo.put(sub(anele, "2024-01-09", model.StatusOver, model.SubmissionOnTime, "5"))
	// busi: 2 issues
	repo.put(sub(busi, "2024-01-02", model.StatusBalanced, model.SubmissionLateGrace, "0"))
	repo.put(sub(busi, "2024-01-10", model.StatusShort, model.SubmissionOnTime, "-5"))
	// chris: one issue in window, one outside it
	repo.put(sub(chris, "2024-01-03", model.StatusShort, model.SubmissionOnTime, "-5"))
	repo.put(sub(chris, "2023-12-01", model.StatusShort, model.SubmissionOnTime, "-5"))

	s, err := svc.Weekly(context.Background(), civil("2024-01-08"))
	require.NoError(t, err)

	require.Len(t, s.RepeatOffenders, 2)
	assert.Equal(t, "Anele", s.RepeatOffenders[0].EmployeeName)
	assert.Equal(t, 3, s.RepeatOffenders[0].TotalIssues)
	assert.Equal(t, 2, s.RepeatOffenders[0].Discrepancies)
	assert.Equal(t, 1, s.RepeatOffenders[0].LateSubmissions)
	assert.Equal(t, "2024-01-09", s.RepeatOffenders[0].LastIssueDate)
	assert.Equal(t, "Busi", s.RepeatOffenders[1].EmployeeName)
	assert.Equal(t, 2, s.RepeatOffenders[1].TotalIssues)
}

func TestWeekly_UsesCache(t *testing.T) {
	cache := &mockCache{}
	repo := newMemCashUpRepo()
	svc := NewSummaryService(repo, newMemEmployeeRepo(), testPolicy(), cache, time.Minute)

	cached := dto.WeeklySummaryResponse{WeekStart: "2024-01-08", Balanced: 42}
	b, _ := json.Marshal(cached)
	cache.On("Version", mock.Anything).Return(int64(7), nil)
	cache.On("Get", mock.Anything, "cashup:summary:7:2024-01-08").Return(b, true)

	s, err := svc.Weekly(context.Background(), civil("2024-01-08"))
	require.NoError(t, err)
	assert.Equal(t, 42, s.Balanced)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWeekly_FillsCacheOnMiss(t *testing.T) {
	cache := &mockCache{}
	svc := NewSummaryService(newMemCashUpRepo(), newMemEmployeeRepo(), testPolicy(), cache, time.Minute)

	cache.On("Version", mock.Anything).Return(int64(0), nil)
	cache.On("Get", mock.Anything, "cashup:summary:0:2024-01-08").Return(nil, false)
	cache.On("Set", mock.Anything, "cashup:summary:0:2024-01-08", mock.Anything, time.Minute).Return(nil)

	_, err := svc.Weekly(context.Background(), civil("2024-01-08"))
	require.NoError(t, err)
	cache.AssertExpectations(t)
}

func TestEmployeeService(t *testing.T) {
	repo := newMemEmployeeRepo()
	cache := &mockCache{}
	cache.On("Bump", mock.Anything).Return(nil)
	svc := NewEmployeeService(repo, cache)
	ctx := context.Background()

	no := false
	driver, err := svc.Create(ctx, dto.CreateEmployeeRequest{Name: " Driver ", RequiresCashUp: &no})
	require.NoError(t, err)
	assert.Equal(t, "Driver", driver.Name)
	assert.False(t, driver.RequiresCashUp)
	assert.True(t, driver.Active)

	clerk, err := svc.Create(ctx, dto.CreateEmployeeRequest{Name: "Clerk"})
	require.NoError(t, err)
	assert.True(t, clerk.RequiresCashUp)

	require.NoError(t, svc.Deactivate(ctx, uuid.MustParse(clerk.ID)))
	roster, _ := repo.ListCashUpRoster(ctx)
	assert.Empty(t, roster)

	assert.ErrorIs(t, svc.Deactivate(ctx, uuid.New()), ErrNotFound)
	// every roster change drops cached summaries; the failed deactivate does not
	cache.AssertNumberOfCalls(t, "Bump", 3)
}
