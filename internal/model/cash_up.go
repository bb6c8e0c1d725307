package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cash-up status values.
const (
	StatusBalanced              = "Balanced"
	StatusShort                 = "Short"
	StatusOver                  = "Over"
	StatusAwaitingSystemBalance = "Awaiting System Balance"
	StatusMissingBatchReceipt   = "Missing Batch Receipt"
)

// Submission timeliness values.
const (
	SubmissionOnTime    = "On Time"
	SubmissionLateGrace = "Submitted Late (Grace Period)"
	SubmissionLate      = "Submitted Late"
	SubmissionMissing   = "Not Submitted"
)

// Risk levels. An empty RiskLevel means the discrepancy is not known yet.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// CashUpSubmission is one employee's declared receipt total for one day.
// Discrepancy is NULL (not zero) whenever either amount is unknown.
type CashUpSubmission struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cashup_employee_date"`
	EmployeeName string    `gorm:"not null"`
	// Date is the civil day, stored as midnight UTC
	Date time.Time `gorm:"type:date;not null;uniqueIndex:idx_cashup_employee_date;index"`

	BatchReceiptTotal *decimal.Decimal `gorm:"type:decimal(14,2)"`
	SystemBalance     *decimal.Decimal `gorm:"type:decimal(14,2)"`
	Discrepancy       *decimal.Decimal `gorm:"type:decimal(14,2)"`
	Status            string           `gorm:"type:varchar(40);not null"`
	RiskLevel         string           `gorm:"type:varchar(10)"`

	SubmittedAt      time.Time `gorm:"not null"`
	SubmissionStatus string    `gorm:"type:varchar(40);not null"`

	IsResolved      bool `gorm:"not null;default:false"`
	ResolutionNotes *string
	ResolvedBy      *string `gorm:"type:varchar(120)"`
	ResolvedAt      *time.Time

	Notes string

	ReviewNotes []CashUpNote       `gorm:"foreignKey:SubmissionID"`
	Attachments []CashUpAttachment `gorm:"foreignKey:SubmissionID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsDiscrepant reports whether the evaluated status is Short or Over.
func (s *CashUpSubmission) IsDiscrepant() bool {
	return s.Status == StatusShort || s.Status == StatusOver
}

// IsLate covers both the grace-period and the plain late classification.
func (s *CashUpSubmission) IsLate() bool {
	return s.SubmissionStatus == SubmissionLate || s.SubmissionStatus == SubmissionLateGrace
}

// CashUpNote is an append-only reviewer note. Notes are never edited or removed.
type CashUpNote struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SubmissionID uuid.UUID `gorm:"type:uuid;index;not null"`
	Author       string    `gorm:"type:varchar(120);not null"`
	Body         string    `gorm:"not null"`
	CreatedAt    time.Time
}

// CashUpAttachment references a receipt image stored by the upload service.
type CashUpAttachment struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SubmissionID uuid.UUID `gorm:"type:uuid;index;not null"`
	URL          string    `gorm:"not null"`
	FileName     string
	UploadedBy   string `gorm:"type:varchar(120)"`
	CreatedAt    time.Time
}
