package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_document_records",
		SQL: `CREATE TABLE IF NOT EXISTS document_records (
  id            UUID        PRIMARY KEY,
  document_name TEXT        NOT NULL,
  document_type TEXT        NOT NULL CHECK (document_type IN ('PDF', 'EXCEL')),
  template_type TEXT        NOT NULL CHECK (template_type IN ('INVOICE', 'REPORT', 'ORDER_REPORT', 'USER_REPORT')),
  generated_by  TEXT        NOT NULL,
  metadata      JSONB       NOT NULL DEFAULT '{}'::jsonb,
  storage_path  TEXT,
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_document_records_template_type",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_document_records_template_type ON document_records (template_type);`,
	},
	{
		Name: "create_index_document_records_document_type",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_document_records_document_type ON document_records (document_type);`,
	},
	{
		Name: "create_index_document_records_generated_by",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_document_records_generated_by ON document_records (generated_by);`,
	},
	{
		Name: "create_index_document_records_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_document_records_created_at ON document_records (created_at);`,
	},
}

// EnsureMigrated checks if the 'document_records' table exists and runs migrations if it doesn't.
// All steps share one transaction so a failed step leaves no partial schema.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *zap.Logger, dbHost string) error {
	start := time.Now()
	log = log.With(zap.String("component", "database"), zap.String("db_host", dbHost))

	log.Info("db_migration_check", zap.String("status", "starting"))

	var exists bool
	const query = "SELECT to_regclass('public.document_records') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		log.Error("db_migration_failed",
			zap.String("status", "error"),
			zap.String("error_message", fmt.Sprintf("failed to check sentinel table: %v", err)),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info("db_migration_skip",
			zap.String("status", "success"),
			zap.String("detail", "schema already exists, skipping migration"),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil
	}

	log.Info("db_migration_start", zap.String("status", "in_progress"))

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("db_migration_failed",
			zap.String("status", "error"),
			zap.String("error_message", fmt.Sprintf("failed to begin transaction: %v", err)),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return fmt.Errorf("failed to begin migration transaction: %w", err)
	}

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := tx.ExecContext(ctx, step.SQL); err != nil {
			_ = tx.Rollback()
			log.Error("db_migration_failed",
				zap.String("status", "error"),
				zap.String("migration_step", step.Name),
				zap.String("error_message", err.Error()),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Info("db_migration_step",
			zap.String("status", "success"),
			zap.String("migration_step", step.Name),
			zap.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
		)
	}

	if err := tx.Commit(); err != nil {
		log.Error("db_migration_failed",
			zap.String("status", "error"),
			zap.String("error_message", fmt.Sprintf("failed to commit: %v", err)),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return fmt.Errorf("failed to commit migration: %w", err)
	}

	log.Info("db_migration_success",
		zap.String("status", "success"),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return nil
}
