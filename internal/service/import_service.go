package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"sdkadmin/internal/dto"
	"sdkadmin/internal/model"
	"sdkadmin/internal/repository"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ImportService interface {
	ImportBatch(ctx context.Context, req dto.ImportBatchRequest, importedBy string) (*dto.ImportResult, error)
	ListBatches(ctx context.Context, page, limit int) ([]dto.ImportBatchResponse, int64, error)
}

type importService struct {
	repo repository.ImportRepository
	now  func() time.Time
}

func NewImportService(repo repository.ImportRepository) ImportService {
	return &importService{repo: repo, now: time.Now}
}

// ── ImportBatch ───────────────────────────────────────────────────────────────
// 1. Known batch id → already_imported, nothing written
// 2. Normalize rows, itemizing the ones that cannot become a transaction
// 3. Same content already imported under another id → already_imported
// 4. Write transactions + batch record in one DB transaction

func (s *importService) ImportBatch(ctx context.Context, req dto.ImportBatchRequest, importedBy string) (*dto.ImportResult, error) {
	batchID := strings.TrimSpace(req.BatchID)
	if batchID == "" {
		return nil, ErrInvalidBatch
	}

	if existing, err := s.repo.FindBatch(ctx, batchID); err == nil {
		return alreadyImported(batchID, existing), nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup batch %s: %w", batchID, err)
	}

	txs, skipped := normalizeRows(batchID, req.Rows)
	hash := contentHash(batchID, txs)

	if original, err := s.repo.FindBatchByHash(ctx, hash); err == nil {
		res := alreadyImported(batchID, original)
		res.DuplicateOf = original.BatchID
		res.Message = fmt.Sprintf("Identical content was already imported as batch %s", original.BatchID)
		return res, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup content hash: %w", err)
	}

	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = "easypay"
	}
	skippedJSON, err := json.Marshal(skipped)
	if err != nil {
		return nil, err
	}
	batch := &model.ImportBatch{
		BatchID:      batchID,
		Source:       source,
		RecordCount:  len(txs),
		SkippedCount: len(skipped),
		SkippedRows:  skippedJSON,
		ContentHash:  hash,
		ImportedBy:   importedBy,
		ImportedAt:   s.now(),
	}

	if err := s.repo.CreateBatch(ctx, batch, txs); err != nil {
		// A concurrent import of the same id or content won the race
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if existing, ferr := s.repo.FindBatch(ctx, batchID); ferr == nil {
				return alreadyImported(batchID, existing), nil
			}
			if original, ferr := s.repo.FindBatchByHash(ctx, hash); ferr == nil {
				res := alreadyImported(batchID, original)
				res.DuplicateOf = original.BatchID
				return res, nil
			}
		}
		return nil, fmt.Errorf("import batch %s: %w", batchID, err)
	}

	log.Info().
		Str("batch_id", batchID).
		Str("source", source).
		Int("imported", len(txs)).
		Int("skipped", len(skipped)).
		Msg("import: batch recorded")

	if skipped == nil {
		skipped = []model.SkippedRow{}
	}
	return &dto.ImportResult{
		Status:   dto.ImportStatusImported,
		BatchID:  batchID,
		Imported: len(txs),
		Skipped:  skipped,
		Message:  fmt.Sprintf("Imported %d transactions, skipped %d rows", len(txs), len(skipped)),
	}, nil
}

func alreadyImported(batchID string, existing *model.ImportBatch) *dto.ImportResult {
	return &dto.ImportResult{
		Status:   dto.ImportStatusAlreadyImported,
		BatchID:  batchID,
		Imported: 0,
		Skipped:  []model.SkippedRow{},
		Message:  fmt.Sprintf("Batch already imported on %s", existing.ImportedAt.Format(time.RFC3339)),
	}
}

// ── ListBatches ───────────────────────────────────────────────────────────────

func (s *importService) ListBatches(ctx context.Context, page, limit int) ([]dto.ImportBatchResponse, int64, error) {
	batches, total, err := s.repo.ListBatches(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.ImportBatchResponse, len(batches))
	for i, b := range batches {
		out[i] = dto.ImportBatchResponse{
			BatchID:      b.BatchID,
			Source:       b.Source,
			RecordCount:  b.RecordCount,
			SkippedCount: b.SkippedCount,
			ImportedBy:   b.ImportedBy,
			ImportedAt:   b.ImportedAt.Format(time.RFC3339),
		}
	}
	return out, total, nil
}

// ── Row normalization ─────────────────────────────────────────────────────────

const (
	fieldAmount      = "amount"
	fieldReference   = "reference"
	fieldDate        = "date"
	fieldDescription = "description"
)

// columnAliases maps folded header names onto the fields the importer reads.
var columnAliases = map[string]string{
	"amount":           fieldAmount,
	"easypaynumber":    fieldReference,
	"easypayno":        fieldReference,
	"reference":        fieldReference,
	"paymentreference": fieldReference,
	"date":             fieldDate,
	"transactiondate":  fieldDate,
	"valuedate":        fieldDate,
	"description":      fieldDescription,
	"narrative":        fieldDescription,
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	time.RFC3339,
	"02 Jan 2006",
	"20060102",
}

// foldKey lower-cases a header and drops spaces, underscores and dashes.
func foldKey(k string) string {
	var b strings.Builder
	for _, r := range k {
		if r == '_' || r == '-' || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// normalizeRows converts raw rows into transactions. Row numbers in the
// skipped list are 1-based.
func normalizeRows(batchID string, rows []map[string]any) ([]model.Transaction, []model.SkippedRow) {
	var txs []model.Transaction
	var skipped []model.SkippedRow

	for i, raw := range rows {
		fields := make(map[string]any, len(raw))
		for k, v := range raw {
			if f, ok := columnAliases[foldKey(k)]; ok {
				if _, seen := fields[f]; !seen {
					fields[f] = v
				}
			}
		}

		ref := strings.TrimSpace(stringValue(fields[fieldReference]))
		rawAmount, hasAmount := fields[fieldAmount]
		switch {
		case !hasAmount || strings.TrimSpace(stringValue(rawAmount)) == "":
			skipped = append(skipped, model.SkippedRow{Row: i + 1, Reason: "missing amount"})
			continue
		case ref == "":
			skipped = append(skipped, model.SkippedRow{Row: i + 1, Reason: "missing easypay number"})
			continue
		}

		amount, err := parseAmount(rawAmount)
		if err != nil {
			skipped = append(skipped, model.SkippedRow{Row: i + 1, Reason: fmt.Sprintf("invalid amount %q", stringValue(rawAmount))})
			continue
		}

		txs = append(txs, model.Transaction{
			BatchID:         batchID,
			Amount:          amount,
			EasypayNumber:   ref,
			TransactionDate: parseDate(fields[fieldDate]),
			Description:     strings.TrimSpace(stringValue(fields[fieldDescription])),
		})
	}
	return txs, skipped
}

func stringValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// parseAmount accepts JSON numbers and strings such as "R 1,200.50".
func parseAmount(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case float64:
		return decimal.NewFromFloat(x).Round(2), nil
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case json.Number:
		return decimal.NewFromString(x.String())
	case decimal.Decimal:
		return x.Round(2), nil
	}

	s := strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, stringValue(v))
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "R"), "r")
	if neg {
		s = "-" + s
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	return d.Round(2), nil
}

// parseDate returns nil when the value is empty or in no known layout.
func parseDate(v any) *time.Time {
	if t, ok := v.(time.Time); ok {
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return &d
	}
	s := strings.TrimSpace(stringValue(v))
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	return nil
}

// contentHash fingerprints the normalized rows. A batch with no valid rows
// hashes its own id so empty files under different ids do not collide.
func contentHash(batchID string, txs []model.Transaction) string {
	h := xxhash.New()
	if len(txs) == 0 {
		_, _ = h.WriteString("empty:" + batchID)
		return fmt.Sprintf("%016x", h.Sum64())
	}
	for _, t := range txs {
		date := ""
		if t.TransactionDate != nil {
			date = t.TransactionDate.Format(dto.DateLayout)
		}
		_, _ = h.WriteString(t.Amount.StringFixed(2))
		_, _ = h.WriteString("|")
		_, _ = h.WriteString(t.EasypayNumber)
		_, _ = h.WriteString("|")
		_, _ = h.WriteString(date)
		_, _ = h.WriteString("|")
		_, _ = h.WriteString(t.Description)
		_, _ = h.WriteString("\n")
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
