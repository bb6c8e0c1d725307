package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OverridePolicyRequest struct {
	PolicyNumber string `json:"policy_number" validate:"required,max=60"`
}

// TransactionFilter drives the transaction listing.
type TransactionFilter struct {
	Unresolved    bool
	BatchID       string
	EasypayNumber string
	Page          int
	Limit         int
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type TransactionResponse struct {
	ID                 string          `json:"id"`
	BatchID            string          `json:"batch_id"`
	Amount             decimal.Decimal `json:"amount"`
	EasypayNumber      string          `json:"easypay_number"`
	TransactionDate    *string         `json:"transaction_date"`
	Description        string          `json:"description,omitempty"`
	PolicyNumber       *string         `json:"policy_number"`
	ResolvedAt         *string         `json:"resolved_at"`
	PolicyOverriddenBy *string         `json:"policy_overridden_by,omitempty"`
}

type TransactionListResponse struct {
	Data  []TransactionResponse `json:"data"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}

// ResolveResult reports one resolver run.
type ResolveResult struct {
	Groups   int `json:"groups"`
	Resolved int `json:"resolved"`
	// Unresolved lists the Easypay numbers with no usable mapping
	Unresolved []string `json:"unresolved"`
}
