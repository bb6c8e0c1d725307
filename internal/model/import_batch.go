package model

import (
	"time"

	"gorm.io/datatypes"
)

// ImportBatch records one statement import. The BatchID is the dedup key and
// ContentHash catches the same file re-sent under a different id.
// Batches are written once and never updated or deleted.
type ImportBatch struct {
	BatchID      string `gorm:"type:varchar(120);primaryKey"`
	Source       string `gorm:"type:varchar(60);not null"`
	RecordCount  int    `gorm:"not null"`
	SkippedCount int    `gorm:"not null;default:0"`
	// SkippedRows holds []SkippedRow so dropped lines can be audited later
	SkippedRows datatypes.JSON
	ContentHash string `gorm:"type:varchar(32);uniqueIndex;not null"`
	ImportedBy  string `gorm:"type:varchar(120)"`
	ImportedAt  time.Time
}

// SkippedRow itemizes a row the importer could not turn into a transaction.
type SkippedRow struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}
