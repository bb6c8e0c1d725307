package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sdkadmin/internal/dto"
	"sdkadmin/internal/infra"
	"sdkadmin/internal/model"
	"sdkadmin/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	resolverLockKey = "policy-resolver"
	resolverLockTTL = 10 * time.Minute
)

// Locker is satisfied by infra.Locker.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

type ResolverService interface {
	// ResolveUnlinked links every transaction that still lacks a policy number.
	ResolveUnlinked(ctx context.Context) (*dto.ResolveResult, error)
	OverridePolicyNumber(ctx context.Context, id uuid.UUID, policyNumber, actor string) (*dto.TransactionResponse, error)
	ListTransactions(ctx context.Context, filter dto.TransactionFilter) (*dto.TransactionListResponse, error)
}

type resolverService struct {
	txRepo     repository.TransactionRepository
	policyRepo repository.PolicyLinkageRepository
	locker     Locker // nil runs without cross-process exclusion
	now        func() time.Time
}

func NewResolverService(txRepo repository.TransactionRepository, policyRepo repository.PolicyLinkageRepository, locker Locker) ResolverService {
	return &resolverService{txRepo: txRepo, policyRepo: policyRepo, locker: locker, now: time.Now}
}

// ── ResolveUnlinked ───────────────────────────────────────────────────────────
// Per distinct Easypay number: direct lookup, then at most one hop through the
// linked-policy table. Writes are guarded by policy_number IS NULL, so
// overlapping runs and re-runs never overwrite an existing link.

func (s *resolverService) ResolveUnlinked(ctx context.Context) (*dto.ResolveResult, error) {
	if s.locker != nil {
		release, err := s.locker.TryLock(ctx, resolverLockKey, resolverLockTTL)
		if errors.Is(err, infra.ErrLockHeld) {
			return nil, ErrResolverBusy
		}
		if err != nil {
			return nil, fmt.Errorf("resolver lock: %w", err)
		}
		defer func() {
			if err := release(context.Background()); err != nil {
				log.Warn().Err(err).Msg("resolver: release lock")
			}
		}()
	}

	refs, err := s.txRepo.ListUnresolvedReferences(ctx)
	if err != nil {
		return nil, fmt.Errorf("list unresolved references: %w", err)
	}

	res := &dto.ResolveResult{Groups: len(refs), Unresolved: []string{}}
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		policy, err := s.lookup(ctx, ref)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			res.Unresolved = append(res.Unresolved, ref)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("lookup %s: %w", ref, err)
		}

		n, err := s.txRepo.SetPolicyNumber(ctx, ref, policy, s.now())
		if err != nil {
			return nil, fmt.Errorf("link %s: %w", ref, err)
		}
		res.Resolved += int(n)
	}

	log.Info().
		Int("groups", res.Groups).
		Int("resolved", res.Resolved).
		Int("unresolved", len(res.Unresolved)).
		Msg("resolver: run complete")
	return res, nil
}

// lookup returns the direct target, or the linked policy when the direct
// target is aliased. The link is followed exactly once.
func (s *resolverService) lookup(ctx context.Context, easypayNumber string) (string, error) {
	policy, err := s.policyRepo.FindPolicyNumber(ctx, easypayNumber)
	if err != nil {
		return "", err
	}
	linked, err := s.policyRepo.FindLinkedPolicyNumber(ctx, policy)
	switch {
	case err == nil && linked != "":
		return linked, nil
	case err == nil, errors.Is(err, gorm.ErrRecordNotFound):
		return policy, nil
	default:
		return "", err
	}
}

// ── OverridePolicyNumber ──────────────────────────────────────────────────────
// The only path that may replace a policy number once it is set.

func (s *resolverService) OverridePolicyNumber(ctx context.Context, id uuid.UUID, policyNumber, actor string) (*dto.TransactionResponse, error) {
	if err := s.txRepo.OverridePolicyNumber(ctx, id, policyNumber, actor); err != nil {
		return nil, notFound(err)
	}
	t, err := s.txRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	log.Info().Str("transaction_id", id.String()).Str("policy_number", policyNumber).Str("by", actor).
		Msg("resolver: policy number overridden")
	resp := toTransactionResponse(t)
	return &resp, nil
}

// ── ListTransactions ──────────────────────────────────────────────────────────

func (s *resolverService) ListTransactions(ctx context.Context, filter dto.TransactionFilter) (*dto.TransactionListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 500 {
		filter.Limit = 50
	}
	txs, total, err := s.txRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.TransactionResponse, len(txs))
	for i := range txs {
		data[i] = toTransactionResponse(&txs[i])
	}
	return &dto.TransactionListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func toTransactionResponse(t *model.Transaction) dto.TransactionResponse {
	resp := dto.TransactionResponse{
		ID:                 t.ID.String(),
		BatchID:            t.BatchID,
		Amount:             t.Amount,
		EasypayNumber:      t.EasypayNumber,
		Description:        t.Description,
		PolicyNumber:       t.PolicyNumber,
		PolicyOverriddenBy: t.PolicyOverriddenBy,
	}
	if t.TransactionDate != nil {
		d := t.TransactionDate.Format(dto.DateLayout)
		resp.TransactionDate = &d
	}
	if t.ResolvedAt != nil {
		r := t.ResolvedAt.Format(time.RFC3339)
		resp.ResolvedAt = &r
	}
	return resp
}
