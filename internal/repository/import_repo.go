package repository

import (
	"context"

	"sdkadmin/internal/model"

	"gorm.io/gorm"
)

const insertChunkSize = 500

// ImportRepository owns the import history and the transaction bulk insert.
type ImportRepository interface {
	FindBatch(ctx context.Context, batchID string) (*model.ImportBatch, error)
	FindBatchByHash(ctx context.Context, contentHash string) (*model.ImportBatch, error)
	// CreateBatch writes the transactions and the batch record in one DB transaction.
	CreateBatch(ctx context.Context, batch *model.ImportBatch, txs []model.Transaction) error
	ListBatches(ctx context.Context, page, limit int) ([]model.ImportBatch, int64, error)
}

type importRepo struct{ db *gorm.DB }

func NewImportRepository(db *gorm.DB) ImportRepository { return &importRepo{db: db} }

func (r *importRepo) FindBatch(ctx context.Context, batchID string) (*model.ImportBatch, error) {
	var b model.ImportBatch
	err := r.db.WithContext(ctx).Where("batch_id = ?", batchID).First(&b).Error
	return &b, err
}

func (r *importRepo) FindBatchByHash(ctx context.Context, contentHash string) (*model.ImportBatch, error) {
	var b model.ImportBatch
	err := r.db.WithContext(ctx).Where("content_hash = ?", contentHash).First(&b).Error
	return &b, err
}

func (r *importRepo) CreateBatch(ctx context.Context, batch *model.ImportBatch, txs []model.Transaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(txs) > 0 {
			if err := tx.CreateInBatches(&txs, insertChunkSize).Error; err != nil {
				return err
			}
		}
		return tx.Create(batch).Error
	})
}

func (r *importRepo) ListBatches(ctx context.Context, page, limit int) ([]model.ImportBatch, int64, error) {
	var batches []model.ImportBatch
	var total int64

	q := r.db.WithContext(ctx).Model(&model.ImportBatch{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("imported_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&batches).Error
	return batches, total, err
}
