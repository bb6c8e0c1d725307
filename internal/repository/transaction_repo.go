package repository

import (
	"context"
	"time"

	"sdkadmin/internal/dto"
	"sdkadmin/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransactionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	List(ctx context.Context, filter dto.TransactionFilter) ([]model.Transaction, int64, error)
	// ListUnresolvedReferences returns the distinct Easypay numbers that still
	// have at least one transaction without a policy number.
	ListUnresolvedReferences(ctx context.Context) ([]string, error)
	// SetPolicyNumber only touches rows whose policy number is still NULL.
	SetPolicyNumber(ctx context.Context, easypayNumber, policyNumber string, at time.Time) (int64, error)
	OverridePolicyNumber(ctx context.Context, id uuid.UUID, policyNumber, actor string) error
}

type transactionRepo struct{ db *gorm.DB }

func NewTransactionRepository(db *gorm.DB) TransactionRepository { return &transactionRepo{db: db} }

func (r *transactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var t model.Transaction
	err := r.db.WithContext(ctx).First(&t, id).Error
	return &t, err
}

func (r *transactionRepo) List(ctx context.Context, filter dto.TransactionFilter) ([]model.Transaction, int64, error) {
	var txs []model.Transaction
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Transaction{})
	if filter.Unresolved {
		q = q.Where("policy_number IS NULL")
	}
	if filter.BatchID != "" {
		q = q.Where("batch_id = ?", filter.BatchID)
	}
	if filter.EasypayNumber != "" {
		q = q.Where("easypay_number = ?", filter.EasypayNumber)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("transaction_date DESC NULLS LAST, created_at DESC").
		Offset((filter.Page - 1) * filter.Limit).Limit(filter.Limit).
		Find(&txs).Error
	return txs, total, err
}

func (r *transactionRepo) ListUnresolvedReferences(ctx context.Context) ([]string, error) {
	var refs []string
	err := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("policy_number IS NULL").
		Distinct("easypay_number").
		Order("easypay_number").
		Pluck("easypay_number", &refs).Error
	return refs, err
}

func (r *transactionRepo) SetPolicyNumber(ctx context.Context, easypayNumber, policyNumber string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("easypay_number = ? AND policy_number IS NULL", easypayNumber).
		Updates(map[string]any{"policy_number": policyNumber, "resolved_at": at})
	return res.RowsAffected, res.Error
}

func (r *transactionRepo) OverridePolicyNumber(ctx context.Context, id uuid.UUID, policyNumber, actor string) error {
	res := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"policy_number":        policyNumber,
			"policy_overridden_by": actor,
			"resolved_at":          time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
