package rolegate

import (
	"github.com/fernandezvara/dbkit"
)

// Migrations returns all database migrations required for rolegate.
// Use db.Migrate(ctx, service.Migrations()) to run migrations.
func (s *Service) Migrations() []dbkit.Migration {
	return []dbkit.Migration{
		{
			ID:          "rolegate-001",
			Description: "Create roles table",
			SQL: `
                CREATE TABLE IF NOT EXISTS roles (
                    id TEXT PRIMARY KEY,
                    name TEXT NOT NULL,
                    level INTEGER NOT NULL CHECK (level >= 0)
                )`,
		},
		{
			ID:          "rolegate-002",
			Description: "Create user_roles table with one-role-per-user constraint",
			SQL: `
                CREATE TABLE IF NOT EXISTS user_roles (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    user_id TEXT NOT NULL UNIQUE,
                    role_id TEXT NOT NULL REFERENCES roles(id),
                    assigned_by TEXT NOT NULL,
                    reason TEXT,
                    assigned_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    metadata JSONB
                )`,
		},
		{
			ID:          "rolegate-003",
			Description: "Create audit_log table",
			SQL: `
                CREATE TABLE IF NOT EXISTS audit_log (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    timestamp TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    user_id TEXT NOT NULL,
                    role_before TEXT,
                    role_after TEXT NOT NULL,
                    performed_by TEXT NOT NULL,
                    reason TEXT,
                    ip_address TEXT,
                    user_agent TEXT,
                    metadata JSONB
                )`,
		},
		{
			ID:          "rolegate-004",
			Description: "Index audit_log for timestamp-ordered reads and user scoping",
			SQL: `
                CREATE INDEX IF NOT EXISTS idx_audit_log_timestamp ON audit_log (timestamp DESC);
                CREATE INDEX IF NOT EXISTS idx_audit_log_user_id ON audit_log (user_id)`,
		},
	}
}
