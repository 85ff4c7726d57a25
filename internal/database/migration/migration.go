package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"docvault/internal/logging"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
  id    BIGSERIAL PRIMARY KEY,
  email TEXT      NOT NULL UNIQUE,
  name  TEXT      NOT NULL DEFAULT ''
);`,
	},
	{
		Name: "create_table_document_types",
		SQL: `CREATE TABLE IF NOT EXISTS document_types (
  id          BIGSERIAL PRIMARY KEY,
  description TEXT      NOT NULL UNIQUE
);`,
	},
	{
		Name: "seed_document_types",
		SQL: `INSERT INTO document_types (description) VALUES
  ('Contrato'), ('Factura'), ('Informe'), ('Acta'), ('Otro')
ON CONFLICT (description) DO NOTHING;`,
	},
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id                 UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  title              TEXT        NOT NULL,
  description        TEXT        NOT NULL DEFAULT '',
  content_location   TEXT        NOT NULL,
  created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
  modified_at        TIMESTAMPTZ,
  owner_user_id      BIGINT      NOT NULL REFERENCES users (id),
  type_id            BIGINT      NOT NULL REFERENCES document_types (id),
  download_count     BIGINT      NOT NULL DEFAULT 0 CHECK (download_count >= 0),
  last_downloaded_at TIMESTAMPTZ
);`,
	},
	{
		Name: "create_index_documents_content_location",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_content_location ON documents (content_location);`,
	},
	{
		Name: "create_index_documents_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents (created_at);`,
	},
	{
		Name: "create_table_document_versions",
		SQL: `CREATE TABLE IF NOT EXISTS document_versions (
  id            UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  document_id   UUID        NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
  blob_location TEXT        NOT NULL,
  created_at    TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp()
);`,
	},
	{
		Name: "create_index_document_versions_document_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_document_versions_document_id ON document_versions (document_id, created_at);`,
	},
	{
		Name: "create_table_document_shares",
		SQL: `CREATE TABLE IF NOT EXISTS document_shares (
  id                UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  document_id       UUID        NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
  sender_user_id    BIGINT      NOT NULL REFERENCES users (id),
  recipient_user_id BIGINT      NOT NULL REFERENCES users (id),
  permissions       TEXT        NOT NULL,
  sent_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_notifications",
		SQL: `CREATE TABLE IF NOT EXISTS notifications (
  id          UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  user_id     BIGINT      NOT NULL REFERENCES users (id),
  title       TEXT        NOT NULL,
  message     TEXT        NOT NULL,
  document_id UUID        NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp()
);`,
	},
	{
		Name: "create_index_notifications_user_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_notifications_user_id ON notifications (user_id, created_at DESC);`,
	},
	{
		// document_id carries no foreign key: audit rows outlive their document.
		Name: "create_table_audit_records",
		SQL: `CREATE TABLE IF NOT EXISTS audit_records (
  id          UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  user_id     BIGINT      NOT NULL,
  document_id UUID,
  action      TEXT        NOT NULL,
  details     TEXT        NOT NULL DEFAULT '',
  created_at  TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp()
);`,
	},
	{
		Name: "create_index_audit_records_document_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_audit_records_document_id ON audit_records (document_id, created_at DESC);`,
	},
}

// sentinelQuery reports whether the last table created by steps already exists.
const sentinelQuery = "SELECT to_regclass('public.audit_records') IS NOT NULL"

// EnsureMigrated runs the schema steps unless the sentinel table already exists.
func EnsureMigrated(ctx context.Context, db *sql.DB, logger logging.Logger, dbHost string) error {
	start := time.Now()
	logger = logger.With(zap.String("component", "database"), zap.String("db_host", dbHost))

	logger.Info("db_migration_check", zap.String("status", "starting"))

	var exists bool
	if err := db.QueryRowContext(ctx, sentinelQuery).Scan(&exists); err != nil {
		logger.Error("db_migration_failed",
			zap.String("status", "error"),
			zap.Error(err),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logger.Info("db_migration_skip",
			zap.String("status", "success"),
			zap.String("reason", "schema already exists"),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil
	}

	logger.Info("db_migration_start", zap.String("status", "in_progress"), zap.Int("steps", len(steps)))

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			logger.Error("db_migration_failed",
				zap.String("status", "error"),
				zap.String("migration_step", step.Name),
				zap.Error(err),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logger.Debug("db_migration_step",
			zap.String("status", "success"),
			zap.String("migration_step", step.Name),
			zap.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
		)
	}

	logger.Info("db_migration_success",
		zap.String("status", "success"),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return nil
}

// StepNames lists the migration steps in execution order.
func StepNames() []string {
	names := make([]string, 0, len(steps))
	for _, s := range steps {
		names = append(names, s.Name)
	}
	return names
}
