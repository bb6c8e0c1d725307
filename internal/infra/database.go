package infra

import (
	"fmt"

	"sdkadmin/internal/model"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens a GORM connection backed by pgx, migrates the schema and
// applies the idempotent patches AutoMigrate cannot express.
// TranslateError is on so unique violations surface as gorm.ErrDuplicatedKey.
func NewDatabase(dsn string, tracing bool) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if tracing {
		if err := db.Use(otelgorm.NewPlugin()); err != nil {
			log.Warn().Err(err).Msg("otelgorm plugin not installed")
		}
	}

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates / updates all tables and then applies schema patches.
// Also used by the integration tests against a fresh container.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.ImportBatch{},
		&model.Transaction{},
		&model.EasypayPolicy{},
		&model.LinkedPolicy{},
		&model.Employee{},
		&model.CashUpSubmission{},
		&model.CashUpNote{},
		&model.CashUpAttachment{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that GORM tags cannot describe
// (partial indexes, check constraints). Each statement is guarded so re-running
// on an already-patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// the resolver scans only unresolved rows
		{"partial index on unresolved transactions", `
CREATE INDEX IF NOT EXISTS idx_transactions_unresolved
    ON transactions (easypay_number)
 WHERE policy_number IS NULL`},
		// the aggregator filters a week at a time by date and status
		{"cash-up issue index", `
CREATE INDEX IF NOT EXISTS idx_cash_up_issues
    ON cash_up_submissions (employee_id, date)
 WHERE status IN ('Short', 'Over')
    OR submission_status IN ('Submitted Late', 'Submitted Late (Grace Period)')`},
		{"declared total must not be negative", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_cash_up_batch_total') THEN
    ALTER TABLE cash_up_submissions
      ADD CONSTRAINT chk_cash_up_batch_total
      CHECK (batch_receipt_total IS NULL OR batch_receipt_total >= 0);
  END IF;
END $$`},
		// discrepancy is either fully known or absent
		{"discrepancy requires both amounts", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_cash_up_discrepancy') THEN
    ALTER TABLE cash_up_submissions
      ADD CONSTRAINT chk_cash_up_discrepancy
      CHECK (discrepancy IS NULL OR (batch_receipt_total IS NOT NULL AND system_balance IS NOT NULL));
  END IF;
END $$`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
