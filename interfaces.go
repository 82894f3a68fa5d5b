package rolegate

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// Database defines the database operations interface for dependency injection
type Database interface {
	dbkit.IDB
}

// IdentityProvider resolves authenticated actors from opaque credentials.
// The core never parses raw tokens itself; the transport layer owns the
// credential format.
type IdentityProvider interface {
	ResolveActor(ctx context.Context, credential string) (Actor, error)
}

// PermissionGate answers coarse resource/action checks before engine
// operations run (e.g. resource "roles", action "manage").
type PermissionGate interface {
	HasPermission(ctx context.Context, actorID, resource, action string) bool
}

// TransactionManager defines the transaction management interface
type TransactionManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context, tx dbkit.IDB) error) error
	ReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context, tx dbkit.IDB) error) error
}

// AssignmentEngine defines the role assignment operations
type AssignmentEngine interface {
	AssignRole(ctx context.Context, actor Actor, targetUserID, roleID, reason string) (*RoleAssignment, error)
	ReassignRole(ctx context.Context, actor Actor, targetUserID, roleID, reason string) (*RoleAssignment, error)
	UnassignRole(ctx context.Context, actor Actor, targetUserID, reason string) error
	AssignRolesBatch(ctx context.Context, actor Actor, items []BatchItem) (*BatchResult, error)
}

// AuditReader defines the audit log query surface
type AuditReader interface {
	GetAuditLog(ctx context.Context, filter AuditFilter) ([]AuditRecord, int, error)
	SearchAuditLog(ctx context.Context, term string, filter AuditFilter) ([]AuditRecord, error)
	AuditStatistics(ctx context.Context, scope AuditScope) (*AuditStatistics, error)
	ExportAuditLog(ctx context.Context, filter AuditFilter, format ExportFormat) ([]byte, error)
}

// HealthMonitor defines the health monitoring interface
type HealthMonitor interface {
	Health(ctx context.Context) dbkit.HealthStatus
	IsHealthy(ctx context.Context) bool
	GetPoolStats() dbkit.PoolStats
}

// TransactionMonitor defines the transaction monitoring interface
type TransactionMonitor interface {
	GetTransactionMetrics() TransactionMetrics
	ResetTransactionMetrics()
	IsTransactionHealthy() bool
}
