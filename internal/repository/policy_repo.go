package repository

import (
	"context"

	"sdkadmin/internal/model"

	"gorm.io/gorm"
)

// PolicyLinkageRepository reads the mapping tables owned by policy administration.
// Both lookups return gorm.ErrRecordNotFound when there is no row.
type PolicyLinkageRepository interface {
	FindPolicyNumber(ctx context.Context, easypayNumber string) (string, error)
	FindLinkedPolicyNumber(ctx context.Context, policyNumber string) (string, error)
}

type policyLinkageRepo struct{ db *gorm.DB }

func NewPolicyLinkageRepository(db *gorm.DB) PolicyLinkageRepository {
	return &policyLinkageRepo{db: db}
}

func (r *policyLinkageRepo) FindPolicyNumber(ctx context.Context, easypayNumber string) (string, error) {
	var p model.EasypayPolicy
	err := r.db.WithContext(ctx).Where("easypay_number = ?", easypayNumber).First(&p).Error
	return p.PolicyNumber, err
}

func (r *policyLinkageRepo) FindLinkedPolicyNumber(ctx context.Context, policyNumber string) (string, error) {
	var l model.LinkedPolicy
	err := r.db.WithContext(ctx).Where("policy_number = ?", policyNumber).First(&l).Error
	return l.LinkedPolicyNumber, err
}
