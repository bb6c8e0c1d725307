package repository

import (
	"context"
	"time"

	"sdkadmin/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CashUpRepository interface {
	Create(ctx context.Context, s *model.CashUpSubmission) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CashUpSubmission, error)
	FindByEmployeeDate(ctx context.Context, employeeID uuid.UUID, date time.Time) (*model.CashUpSubmission, error)
	// UpdateEvaluation writes the system balance and the columns derived from
	// it. Resolution columns belong to MarkResolved and are never written here.
	UpdateEvaluation(ctx context.Context, s *model.CashUpSubmission) error
	// MarkResolved flips is_resolved only when it is still false and reports
	// whether this call did the flip.
	MarkResolved(ctx context.Context, id uuid.UUID, notes *string, reviewer string, at time.Time) (bool, error)
	AddNote(ctx context.Context, n *model.CashUpNote) error
	AddAttachment(ctx context.Context, a *model.CashUpAttachment) error
	// ListByDateRange returns submissions with from <= date < to.
	ListByDateRange(ctx context.Context, from, to time.Time) ([]model.CashUpSubmission, error)
	// CountIssues counts discrepant or late submissions of one employee with
	// from <= date < to, ignoring excludeID.
	CountIssues(ctx context.Context, employeeID uuid.UUID, from, to time.Time, excludeID uuid.UUID) (int64, error)
}

type cashUpRepo struct{ db *gorm.DB }

func NewCashUpRepository(db *gorm.DB) CashUpRepository { return &cashUpRepo{db: db} }

func (r *cashUpRepo) Create(ctx context.Context, s *model.CashUpSubmission) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *cashUpRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CashUpSubmission, error) {
	var s model.CashUpSubmission
	err := r.db.WithContext(ctx).
		Preload("ReviewNotes", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Attachments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&s, id).Error
	return &s, err
}

func (r *cashUpRepo) FindByEmployeeDate(ctx context.Context, employeeID uuid.UUID, date time.Time) (*model.CashUpSubmission, error) {
	var s model.CashUpSubmission
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND date = ?", employeeID, date).
		First(&s).Error
	return &s, err
}

var evaluationColumns = []string{
	"system_balance", "discrepancy", "status", "risk_level", "submission_status", "updated_at",
}

func (r *cashUpRepo) UpdateEvaluation(ctx context.Context, s *model.CashUpSubmission) error {
	return r.db.WithContext(ctx).Model(s).
		Omit(clause.Associations).
		Select(evaluationColumns).
		Updates(s).Error
}

func (r *cashUpRepo) MarkResolved(ctx context.Context, id uuid.UUID, notes *string, reviewer string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.CashUpSubmission{}).
		Where("id = ? AND is_resolved = false", id).
		Updates(map[string]any{
			"is_resolved":      true,
			"resolution_notes": notes,
			"resolved_by":      reviewer,
			"resolved_at":      at,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *cashUpRepo) AddNote(ctx context.Context, n *model.CashUpNote) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *cashUpRepo) AddAttachment(ctx context.Context, a *model.CashUpAttachment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *cashUpRepo) ListByDateRange(ctx context.Context, from, to time.Time) ([]model.CashUpSubmission, error) {
	var subs []model.CashUpSubmission
	err := r.db.WithContext(ctx).
		Where("date >= ? AND date < ?", from, to).
		Order("date ASC, employee_name ASC").
		Find(&subs).Error
	return subs, err
}

func (r *cashUpRepo) CountIssues(ctx context.Context, employeeID uuid.UUID, from, to time.Time, excludeID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.CashUpSubmission{}).
		Where("employee_id = ? AND date >= ? AND date < ? AND id <> ?", employeeID, from, to, excludeID).
		Where("(status IN ? OR submission_status IN ?)",
			[]string{model.StatusShort, model.StatusOver},
			[]string{model.SubmissionLate, model.SubmissionLateGrace}).
		Count(&n).Error
	return n, err
}
