package dto

import "github.com/shopspring/decimal"

type WeeklyReportRequest struct {
	WeekStart  string   `json:"week_start" validate:"required,datetime=2006-01-02"`
	Recipients []string `json:"recipients" validate:"required,min=1,dive,email"`
}

type RepeatOffender struct {
	EmployeeID      string `json:"employee_id"`
	EmployeeName    string `json:"employee_name"`
	Discrepancies   int    `json:"discrepancies"`
	LateSubmissions int    `json:"late_submissions"`
	TotalIssues     int    `json:"total_issues"`
	LastIssueDate   string `json:"last_issue_date"`
}

// WeeklySummaryResponse is derived on demand and never persisted.
type WeeklySummaryResponse struct {
	WeekStart string `json:"week_start"`
	WeekEnd   string `json:"week_end"` // exclusive

	TotalStaffAudited int `json:"total_staff_audited"`
	ExpectedStaff     int `json:"expected_staff"`
	Submissions       int `json:"submissions"`

	Balanced              int `json:"balanced"`
	Short                 int `json:"short"`
	Over                  int `json:"over"`
	Discrepancies         int `json:"discrepancies"`
	AwaitingSystemBalance int `json:"awaiting_system_balance"`
	MissingBatchReceipt   int `json:"missing_batch_receipt"`
	HighRisk              int `json:"high_risk"`

	OnTime       int `json:"on_time"`
	LateGrace    int `json:"late_grace"`
	Late         int `json:"late"`
	NotSubmitted int `json:"not_submitted"`

	ResolvedDiscrepancies   int `json:"resolved_discrepancies"`
	UnresolvedDiscrepancies int `json:"unresolved_discrepancies"`

	ShortTotal decimal.Decimal `json:"short_total"`
	OverTotal  decimal.Decimal `json:"over_total"`

	RepeatOffenders []RepeatOffender `json:"repeat_offenders"`
	GeneratedAt     string           `json:"generated_at"`
}

type WeeklyReportQueued struct {
	WeekStart  string   `json:"week_start"`
	Recipients []string `json:"recipients"`
	Status     string   `json:"status"`
}
