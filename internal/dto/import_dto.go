package dto

import "sdkadmin/internal/model"

// DateLayout is the wire format of civil dates.
const DateLayout = "2006-01-02"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// ImportBatchRequest carries raw statement rows. Keys are matched loosely
// (Amount / amount / AMOUNT all work).
type ImportBatchRequest struct {
	BatchID string           `json:"batch_id" validate:"required,max=120"`
	Source  string           `json:"source"   validate:"omitempty,max=60"`
	Rows    []map[string]any `json:"rows"     validate:"required"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

const (
	ImportStatusImported        = "imported"
	ImportStatusAlreadyImported = "already_imported"
)

type ImportResult struct {
	Status  string `json:"status"` // imported | already_imported
	BatchID string `json:"batch_id"`
	// DuplicateOf names the earlier batch when the same content was re-sent under a new id
	DuplicateOf string             `json:"duplicate_of,omitempty"`
	Imported    int                `json:"imported"`
	Skipped     []model.SkippedRow `json:"skipped"`
	Message     string             `json:"message"`
}

type ImportBatchResponse struct {
	BatchID      string `json:"batch_id"`
	Source       string `json:"source"`
	RecordCount  int    `json:"record_count"`
	SkippedCount int    `json:"skipped_count"`
	ImportedBy   string `json:"imported_by"`
	ImportedAt   string `json:"imported_at"`
}
