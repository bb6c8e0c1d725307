package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is a single EFT/Easypay payment line.
// PolicyNumber stays NULL until the resolver links it; once set it is only
// changed through an administrative override.
type Transaction struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BatchID         string          `gorm:"type:varchar(120);not null;index"`
	Amount          decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	EasypayNumber   string          `gorm:"type:varchar(60);not null;index"`
	TransactionDate *time.Time      `gorm:"type:date"`
	Description     string
	PolicyNumber    *string    `gorm:"type:varchar(60);index"`
	ResolvedAt      *time.Time
	// PolicyOverriddenBy is set when an administrator replaced the resolved number
	PolicyOverriddenBy *string `gorm:"type:varchar(120)"`
	CreatedAt          time.Time
}
