package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"sdkadmin/internal/dto"
	"sdkadmin/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportBatch_NormalizesAndDedupsByBatchID(t *testing.T) {
	repo := newMemImportRepo()
	svc := NewImportService(repo)
	ctx := context.Background()

	req := dto.ImportBatchRequest{
		BatchID: "B1",
		Rows:    []map[string]any{{"Amount": "1,200.50", "EasypayNumber": "EP123", "date": "2024-01-05"}},
	}
	res, err := svc.ImportBatch(ctx, req, "ops")
	require.NoError(t, err)
	assert.Equal(t, dto.ImportStatusImported, res.Status)
	assert.Equal(t, 1, res.Imported)
	require.Len(t, repo.txs, 1)

	tx := repo.txs[0]
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("1200.50")))
	assert.Equal(t, "EP123", tx.EasypayNumber)
	require.NotNil(t, tx.TransactionDate)
	assert.Equal(t, "2024-01-05", tx.TransactionDate.Format(dto.DateLayout))
	assert.Nil(t, tx.PolicyNumber)

	// any payload under the same id is a no-op
	again, err := svc.ImportBatch(ctx, dto.ImportBatchRequest{
		BatchID: "B1",
		Rows:    []map[string]any{{"amount": "9", "reference": "EP999"}},
	}, "ops")
	require.NoError(t, err)
	assert.Equal(t, dto.ImportStatusAlreadyImported, again.Status)
	assert.Len(t, repo.txs, 1)
}

func TestImportBatch_SkippedRowsAreItemized(t *testing.T) {
	repo := newMemImportRepo()
	svc := NewImportService(repo)

	res, err := svc.ImportBatch(context.Background(), dto.ImportBatchRequest{
		BatchID: "B2",
		Rows: []map[string]any{
			{"AMOUNT": "R 80.00", "Easypay_No": "EP1", "Value Date": "05/01/2024"},
			{"amount": "12.00"},
			{"reference": "EP3"},
			{"amount": "abc", "reference": "EP4"},
			{"amount": json.Number("15.5"), "payment-reference": "EP5", "date": "not a date"},
			{"amount": 7.25, "reference": "EP6", "narrative": " cash deposit "},
		},
	}, "ops")
	require.NoError(t, err)

	assert.Equal(t, 3, res.Imported)
	assert.Equal(t, []model.SkippedRow{
		{Row: 2, Reason: "missing easypay number"},
		{Row: 3, Reason: "missing amount"},
		{Row: 4, Reason: `invalid amount "abc"`},
	}, res.Skipped)

	batch := repo.batches["B2"]
	assert.Equal(t, 3, batch.RecordCount)
	assert.Equal(t, 3, batch.SkippedCount)
	var persisted []model.SkippedRow
	require.NoError(t, json.Unmarshal(batch.SkippedRows, &persisted))
	assert.Len(t, persisted, 3)

	require.Len(t, repo.txs, 3)
	assert.True(t, repo.txs[0].Amount.Equal(decimal.RequireFromString("80")))
	assert.Equal(t, "2024-01-05", repo.txs[0].TransactionDate.Format(dto.DateLayout))
	assert.Nil(t, repo.txs[1].TransactionDate, "unparseable date keeps the row")
	assert.Equal(t, "cash deposit", repo.txs[2].Description)
}

func TestImportBatch_SameContentUnderNewIDIsDuplicate(t *testing.T) {
	repo := newMemImportRepo()
	svc := NewImportService(repo)
	ctx := context.Background()
	rows := []map[string]any{{"amount": "10", "reference": "EP1", "date": "2024-01-05"}}

	_, err := svc.ImportBatch(ctx, dto.ImportBatchRequest{BatchID: "first", Rows: rows}, "ops")
	require.NoError(t, err)

	res, err := svc.ImportBatch(ctx, dto.ImportBatchRequest{BatchID: "second", Rows: rows}, "ops")
	require.NoError(t, err)
	assert.Equal(t, dto.ImportStatusAlreadyImported, res.Status)
	assert.Equal(t, "first", res.DuplicateOf)
	assert.Len(t, repo.txs, 1)
}

func TestImportBatch_EmptyBatchesStillRecorded(t *testing.T) {
	repo := newMemImportRepo()
	svc := NewImportService(repo)
	ctx := context.Background()

	res, err := svc.ImportBatch(ctx, dto.ImportBatchRequest{BatchID: "E1", Rows: []map[string]any{}}, "ops")
	require.NoError(t, err)
	assert.Equal(t, dto.ImportStatusImported, res.Status)
	assert.Equal(t, 0, res.Imported)

	// a second empty file under another id is not mistaken for a duplicate
	res, err = svc.ImportBatch(ctx, dto.ImportBatchRequest{BatchID: "E2", Rows: []map[string]any{}}, "ops")
	require.NoError(t, err)
	assert.Equal(t, dto.ImportStatusImported, res.Status)
	assert.Len(t, repo.batches, 2)
}

func TestImportBatch_Validation(t *testing.T) {
	svc := NewImportService(newMemImportRepo())
	_, err := svc.ImportBatch(context.Background(), dto.ImportBatchRequest{BatchID: "  "}, "ops")
	assert.ErrorIs(t, err, ErrInvalidBatch)
}

func TestImportBatch_StorageFailureAborts(t *testing.T) {
	repo := newMemImportRepo()
	repo.failErr = errors.New("connection reset")
	svc := NewImportService(repo)

	_, err := svc.ImportBatch(context.Background(), dto.ImportBatchRequest{
		BatchID: "B9",
		Rows:    []map[string]any{{"amount": "1", "reference": "EP1"}},
	}, "ops")
	require.Error(t, err)
	assert.Empty(t, repo.batches)
	assert.Empty(t, repo.txs)
}

func TestParseAmount(t *testing.T) {
	cases := map[any]string{
		"1,200.50":          "1200.5",
		" R 3 000.00 ":      "3000",
		"1\u00a0250.10":     "1250.1",
		"-R45":              "-45",
		float64(19.999):     "20",
		json.Number("0.75"): "0.75",
		12:                  "12",
	}
	for in, want := range cases {
		got, err := parseAmount(in)
		require.NoError(t, err, "%v", in)
		assert.True(t, got.Equal(decimal.RequireFromString(want)), "%v → %s", in, got)
	}
	_, err := parseAmount("12.3.4")
	assert.Error(t, err)
}

func TestFoldKey(t *testing.T) {
	assert.Equal(t, "easypaynumber", foldKey("Easypay Number"))
	assert.Equal(t, "easypaynumber", foldKey("EASYPAY_NUMBER"))
	assert.Equal(t, "paymentreference", foldKey("payment-reference"))
}
