package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type AttachmentRequest struct {
	URL      string `json:"url"       validate:"required,url"`
	FileName string `json:"file_name" validate:"omitempty,max=255"`
}

// SubmitCashUpRequest is a staff member's daily declaration. EmployeeID is
// only honoured for reviewers submitting on someone's behalf.
type SubmitCashUpRequest struct {
	EmployeeID        string              `json:"employee_id"         validate:"omitempty,uuid"`
	Date              string              `json:"date"                validate:"required,datetime=2006-01-02"`
	BatchReceiptTotal *decimal.Decimal    `json:"batch_receipt_total"`
	Notes             string              `json:"notes"               validate:"max=2000"`
	Attachments       []AttachmentRequest `json:"attachments"         validate:"dive"`
}

type SystemBalanceRequest struct {
	SystemBalance *decimal.Decimal `json:"system_balance"`
}

type AddNoteRequest struct {
	Note string `json:"note" validate:"required,max=2000"`
}

type ResolveCashUpRequest struct {
	Notes string `json:"notes" validate:"max=2000"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type NoteResponse struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}

type AttachmentResponse struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	FileName   string `json:"file_name,omitempty"`
	UploadedBy string `json:"uploaded_by"`
}

type CashUpResponse struct {
	ID                string               `json:"id"`
	EmployeeID        string               `json:"employee_id"`
	EmployeeName      string               `json:"employee_name"`
	Date              string               `json:"date"`
	BatchReceiptTotal *decimal.Decimal     `json:"batch_receipt_total"`
	SystemBalance     *decimal.Decimal     `json:"system_balance"`
	Discrepancy       *decimal.Decimal     `json:"discrepancy"`
	Status            string               `json:"status"`
	RiskLevel         string               `json:"risk_level"`
	SubmittedAt       string               `json:"submitted_at"`
	SubmissionStatus  string               `json:"submission_status"`
	IsResolved        bool                 `json:"is_resolved"`
	ResolutionNotes   *string              `json:"resolution_notes"`
	ResolvedBy        *string              `json:"resolved_by"`
	ResolvedAt        *string              `json:"resolved_at"`
	Notes             string               `json:"notes"`
	ReviewNotes       []NoteResponse       `json:"review_notes"`
	Attachments       []AttachmentResponse `json:"attachments"`
}

// EvaluationResponse is the status bundle for one employee and day.
type EvaluationResponse struct {
	EmployeeID        string           `json:"employee_id"`
	Date              string           `json:"date"`
	SubmissionID      *string          `json:"submission_id"`
	BatchReceiptTotal *decimal.Decimal `json:"batch_receipt_total"`
	SystemBalance     *decimal.Decimal `json:"system_balance"`
	Discrepancy       *decimal.Decimal `json:"discrepancy"`
	Status            string           `json:"status"`
	RiskLevel         string           `json:"risk_level"`
	SubmissionStatus  string           `json:"submission_status"`
	SubmittedAt       *string          `json:"submitted_at"`
	Cutoff            string           `json:"cutoff"`
	GraceEndsAt       string           `json:"grace_ends_at"`
	IsResolved        bool             `json:"is_resolved"`
}
