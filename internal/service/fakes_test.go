package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"sdkadmin/internal/config"
	"sdkadmin/internal/dto"
	"sdkadmin/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// ── In-memory ImportRepository ───────────────────────────────────────────────

type memImportRepo struct {
	batches map[string]model.ImportBatch
	txs     []model.Transaction
	failErr error
}

func newMemImportRepo() *memImportRepo {
	return &memImportRepo{batches: make(map[string]model.ImportBatch)}
}

func (r *memImportRepo) FindBatch(_ context.Context, batchID string) (*model.ImportBatch, error) {
	b, ok := r.batches[batchID]
	if !ok {
		return &model.ImportBatch{}, gorm.ErrRecordNotFound
	}
	return &b, nil
}

func (r *memImportRepo) FindBatchByHash(_ context.Context, hash string) (*model.ImportBatch, error) {
	for _, b := range r.batches {
		if b.ContentHash == hash {
			b := b
			return &b, nil
		}
	}
	return &model.ImportBatch{}, gorm.ErrRecordNotFound
}

func (r *memImportRepo) CreateBatch(_ context.Context, batch *model.ImportBatch, txs []model.Transaction) error {
	if r.failErr != nil {
		return r.failErr
	}
	if _, ok := r.batches[batch.BatchID]; ok {
		return gorm.ErrDuplicatedKey
	}
	for _, t := range txs {
		t.ID = uuid.New()
		r.txs = append(r.txs, t)
	}
	r.batches[batch.BatchID] = *batch
	return nil
}

func (r *memImportRepo) ListBatches(_ context.Context, page, limit int) ([]model.ImportBatch, int64, error) {
	all := make([]model.ImportBatch, 0, len(r.batches))
	for _, b := range r.batches {
		all = append(all, b)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ImportedAt.After(all[j].ImportedAt) })
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

// ── In-memory TransactionRepository ──────────────────────────────────────────

type memTxRepo struct {
	txs []*model.Transaction
}

func (r *memTxRepo) add(easypay string, amount string) *model.Transaction {
	t := &model.Transaction{ID: uuid.New(), EasypayNumber: easypay, Amount: decimal.RequireFromString(amount)}
	r.txs = append(r.txs, t)
	return t
}

func (r *memTxRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Transaction, error) {
	for _, t := range r.txs {
		if t.ID == id {
			c := *t
			return &c, nil
		}
	}
	return &model.Transaction{}, gorm.ErrRecordNotFound
}

func (r *memTxRepo) List(_ context.Context, f dto.TransactionFilter) ([]model.Transaction, int64, error) {
	var out []model.Transaction
	for _, t := range r.txs {
		if f.Unresolved && t.PolicyNumber != nil {
			continue
		}
		if f.EasypayNumber != "" && t.EasypayNumber != f.EasypayNumber {
			continue
		}
		out = append(out, *t)
	}
	return out, int64(len(out)), nil
}

func (r *memTxRepo) ListUnresolvedReferences(_ context.Context) ([]string, error) {
	seen := map[string]bool{}
	var refs []string
	for _, t := range r.txs {
		if t.PolicyNumber == nil && !seen[t.EasypayNumber] {
			seen[t.EasypayNumber] = true
			refs = append(refs, t.EasypayNumber)
		}
	}
	sort.Strings(refs)
	return refs, nil
}

func (r *memTxRepo) SetPolicyNumber(_ context.Context, easypay, policy string, at time.Time) (int64, error) {
	var n int64
	for _, t := range r.txs {
		if t.EasypayNumber == easypay && t.PolicyNumber == nil {
			p, ts := policy, at
			t.PolicyNumber, t.ResolvedAt = &p, &ts
			n++
		}
	}
	return n, nil
}

func (r *memTxRepo) OverridePolicyNumber(_ context.Context, id uuid.UUID, policy, actor string) error {
	for _, t := range r.txs {
		if t.ID == id {
			p, a := policy, actor
			t.PolicyNumber, t.PolicyOverriddenBy = &p, &a
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// ── In-memory PolicyLinkageRepository ────────────────────────────────────────

type memPolicyRepo struct {
	direct map[string]string
	linked map[string]string
}

func (r *memPolicyRepo) FindPolicyNumber(_ context.Context, easypay string) (string, error) {
	p, ok := r.direct[easypay]
	if !ok {
		return "", gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *memPolicyRepo) FindLinkedPolicyNumber(_ context.Context, policy string) (string, error) {
	p, ok := r.linked[policy]
	if !ok {
		return "", gorm.ErrRecordNotFound
	}
	return p, nil
}

// ── In-memory EmployeeRepository ─────────────────────────────────────────────

type memEmployeeRepo struct {
	employees map[uuid.UUID]*model.Employee
}

func newMemEmployeeRepo(emps ...model.Employee) *memEmployeeRepo {
	r := &memEmployeeRepo{employees: make(map[uuid.UUID]*model.Employee)}
	for i := range emps {
		e := emps[i]
		r.employees[e.ID] = &e
	}
	return r
}

func (r *memEmployeeRepo) Create(_ context.Context, e *model.Employee) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	c := *e
	r.employees[e.ID] = &c
	return nil
}

func (r *memEmployeeRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Employee, error) {
	e, ok := r.employees[id]
	if !ok {
		return &model.Employee{}, gorm.ErrRecordNotFound
	}
	c := *e
	return &c, nil
}

func (r *memEmployeeRepo) List(_ context.Context) ([]model.Employee, error) {
	var out []model.Employee
	for _, e := range r.employees {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memEmployeeRepo) ListCashUpRoster(ctx context.Context) ([]model.Employee, error) {
	all, _ := r.List(ctx)
	var out []model.Employee
	for _, e := range all {
		if e.Active && e.RequiresCashUp {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memEmployeeRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	e, ok := r.employees[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	e.Active = false
	return nil
}

// ── In-memory CashUpRepository ───────────────────────────────────────────────

type memCashUpRepo struct {
	mu    sync.Mutex
	subs  map[uuid.UUID]*model.CashUpSubmission
	notes []model.CashUpNote
	atts  []model.CashUpAttachment
}

func newMemCashUpRepo() *memCashUpRepo {
	return &memCashUpRepo{subs: make(map[uuid.UUID]*model.CashUpSubmission)}
}

func (r *memCashUpRepo) Create(_ context.Context, s *model.CashUpSubmission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.subs {
		if existing.EmployeeID == s.EmployeeID && existing.Date.Equal(s.Date) {
			return gorm.ErrDuplicatedKey
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	for _, a := range s.Attachments {
		a.ID = uuid.New()
		a.SubmissionID = s.ID
		r.atts = append(r.atts, a)
	}
	c := *s
	c.Attachments = nil
	r.subs[s.ID] = &c
	return nil
}

func (r *memCashUpRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CashUpSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[id]
	if !ok {
		return &model.CashUpSubmission{}, gorm.ErrRecordNotFound
	}
	c := *s
	c.ReviewNotes, c.Attachments = nil, nil
	for _, n := range r.notes {
		if n.SubmissionID == id {
			c.ReviewNotes = append(c.ReviewNotes, n)
		}
	}
	for _, a := range r.atts {
		if a.SubmissionID == id {
			c.Attachments = append(c.Attachments, a)
		}
	}
	return &c, nil
}

func (r *memCashUpRepo) FindByEmployeeDate(_ context.Context, employeeID uuid.UUID, date time.Time) (*model.CashUpSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subs {
		if s.EmployeeID == employeeID && s.Date.Equal(date) {
			c := *s
			return &c, nil
		}
	}
	return &model.CashUpSubmission{}, gorm.ErrRecordNotFound
}

func (r *memCashUpRepo) UpdateEvaluation(_ context.Context, s *model.CashUpSubmission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.subs[s.ID]
	if !ok {
		return nil
	}
	stored.SystemBalance = s.SystemBalance
	stored.Discrepancy = s.Discrepancy
	stored.Status = s.Status
	stored.RiskLevel = s.RiskLevel
	stored.SubmissionStatus = s.SubmissionStatus
	return nil
}

func (r *memCashUpRepo) MarkResolved(_ context.Context, id uuid.UUID, notes *string, reviewer string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[id]
	if !ok || s.IsResolved {
		return false, nil
	}
	rv := reviewer
	s.IsResolved, s.ResolutionNotes, s.ResolvedBy, s.ResolvedAt = true, notes, &rv, &at
	return true, nil
}

func (r *memCashUpRepo) AddNote(_ context.Context, n *model.CashUpNote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	r.notes = append(r.notes, *n)
	return nil
}

func (r *memCashUpRepo) AddAttachment(_ context.Context, a *model.CashUpAttachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = uuid.New()
	r.atts = append(r.atts, *a)
	return nil
}

func (r *memCashUpRepo) ListByDateRange(_ context.Context, from, to time.Time) ([]model.CashUpSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.CashUpSubmission
	for _, s := range r.subs {
		if !s.Date.Before(from) && s.Date.Before(to) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *memCashUpRepo) CountIssues(_ context.Context, employeeID uuid.UUID, from, to time.Time, excludeID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, s := range r.subs {
		if s.EmployeeID != employeeID || s.ID == excludeID || s.Date.Before(from) || !s.Date.Before(to) {
			continue
		}
		if s.IsDiscrepant() || s.IsLate() {
			n++
		}
	}
	return n, nil
}

// put stores a submission directly, bypassing the service.
func (r *memCashUpRepo) put(s model.CashUpSubmission) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.subs[s.ID] = &s
}

// ── testify mocks ────────────────────────────────────────────────────────────

type mockLocker struct{ mock.Mock }

func (m *mockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	args := m.Called(ctx, key, ttl)
	release, _ := args.Get(0).(func(context.Context) error)
	return release, args.Error(1)
}

type mockCache struct{ mock.Mock }

func (m *mockCache) Version(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, bool) {
	args := m.Called(ctx, key)
	b, _ := args.Get(0).([]byte)
	return b, args.Bool(1)
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *mockCache) Bump(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// ── helpers ──────────────────────────────────────────────────────────────────

func testPolicy() config.CashUpPolicy {
	p := config.DefaultCashUpPolicy()
	p.Location = time.FixedZone("SAST", 2*60*60)
	return p
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func civil(s string) time.Time {
	t, err := time.Parse(dto.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

// at returns the wall-clock time hh:mm on date in the test policy zone.
func at(date string, hh, mm, ss int) time.Time {
	d := civil(date)
	return time.Date(d.Year(), d.Month(), d.Day(), hh, mm, ss, 0, testPolicy().Location)
}
