package rolegate

import (
	"time"

	"github.com/uptrace/bun"
)

// Role is a named privilege tier. Level induces a strict total order over
// roles; the highest defined level is the unrestricted "super" tier.
// Roles are immutable reference data.
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:r"`

	ID    string `bun:"id,pk" json:"id"`
	Name  string `bun:"name,notnull" json:"name"`
	Level int    `bun:"level,notnull" json:"level"`
}

// RoleAssignment binds exactly one role to one user. The user_id column
// carries a uniqueness constraint, so at most one assignment exists per
// user. Rows are never updated in place: a role change is a delete+insert
// committed atomically with its audit record.
type RoleAssignment struct {
	bun.BaseModel `bun:"table:user_roles,alias:ur"`

	ID         string    `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	UserID     string    `bun:"user_id,notnull,unique" json:"user_id"`
	RoleID     string    `bun:"role_id,notnull" json:"role_id"`
	AssignedBy string    `bun:"assigned_by,notnull" json:"assigned_by"`
	Reason     string    `bun:"reason" json:"reason"`
	AssignedAt time.Time `bun:"assigned_at,notnull,default:current_timestamp" json:"assigned_at"`

	// Additional context (JSON)
	Metadata map[string]any `bun:"metadata,type:jsonb" json:"metadata,omitempty"`
}

// AuditRecord is an immutable record of a state-changing or denied
// security-relevant action. Records are append-only and write-once;
// all reads order by timestamp descending.
type AuditRecord struct {
	bun.BaseModel `bun:"table:audit_log,alias:al"`

	ID        string    `bun:"id,pk,type:uuid" json:"id"`
	Timestamp time.Time `bun:"timestamp,notnull,default:current_timestamp" json:"timestamp"`

	// Target of the action
	UserID string `bun:"user_id,notnull" json:"user_id"`

	// Role state transition. RoleBefore is empty when no prior assignment
	// existed. RoleAfter holds the new role name on success, or a failure
	// sentinel (RoleAfterAttemptFailed, RoleAfterBlocked, RoleAfterUnassigned).
	RoleBefore string `bun:"role_before" json:"role_before"`
	RoleAfter  string `bun:"role_after,notnull" json:"role_after"`

	// Who performed (or attempted) the action
	PerformedBy string `bun:"performed_by,notnull" json:"performed_by"`
	Reason      string `bun:"reason" json:"reason"`

	// Request metadata for forensics
	IPAddress string `bun:"ip_address" json:"ip_address"`
	UserAgent string `bun:"user_agent" json:"user_agent"`

	// Additional context (JSON). Denied attempts embed the ValidationResult here.
	Metadata map[string]any `bun:"metadata,type:jsonb" json:"metadata,omitempty"`
}

// Failure sentinels for AuditRecord.RoleAfter.
const (
	// RoleAfterAttemptFailed marks a denied single assignment attempt.
	RoleAfterAttemptFailed = "attempt_failed"

	// RoleAfterBlocked marks a batch rejected wholesale before execution.
	RoleAfterBlocked = "blocked"

	// RoleAfterUnassigned marks an explicit role removal.
	RoleAfterUnassigned = "unassigned"
)

// Actor is the authenticated entity performing an assignment or audit
// operation, as resolved by the external identity provider.
type Actor struct {
	ID     string
	RoleID string
}

// RiskLevel classifies the severity of a validated operation.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// ValidationReason identifies which named check rejected an operation.
type ValidationReason string

const (
	ReasonRoleNotFound        ValidationReason = "role_not_found"
	ReasonSelfAssignment      ValidationReason = "self_assignment"
	ReasonLevelTooHighOrEqual ValidationReason = "level_too_high_or_equal"
	ReasonAlreadyAssigned     ValidationReason = "already_assigned"
	ReasonDuplicateTarget     ValidationReason = "duplicate_target"
	ReasonBatchTooLarge       ValidationReason = "batch_too_large"
	ReasonMalformedItem       ValidationReason = "malformed_item"
)

// ValidationResult is the outcome of a privilege or bulk validation.
// It is transient and never persisted directly, but is embedded into
// audit metadata when an attempt is denied.
type ValidationResult struct {
	Valid            bool             `json:"valid"`
	Reason           ValidationReason `json:"reason,omitempty"`
	RiskLevel        RiskLevel        `json:"risk_level"`
	RequiresApproval bool             `json:"requires_approval"`
}

// Metadata returns the result as audit metadata for denial records.
func (v ValidationResult) Metadata() map[string]any {
	return map[string]any{
		"valid":             v.Valid,
		"reason":            string(v.Reason),
		"risk_level":        string(v.RiskLevel),
		"requires_approval": v.RequiresApproval,
	}
}

// AuditEntry is used to create new audit log records.
type AuditEntry struct {
	UserID      string
	RoleBefore  string
	RoleAfter   string
	PerformedBy string
	Reason      string
	IPAddress   string
	UserAgent   string
	Metadata    map[string]any
}

// ToModel converts an AuditEntry to an AuditRecord with the given ID.
func (e *AuditEntry) ToModel(id string) *AuditRecord {
	return &AuditRecord{
		ID:          id,
		UserID:      e.UserID,
		RoleBefore:  e.RoleBefore,
		RoleAfter:   e.RoleAfter,
		PerformedBy: e.PerformedBy,
		Reason:      e.Reason,
		IPAddress:   e.IPAddress,
		UserAgent:   e.UserAgent,
		Metadata:    e.Metadata,
		Timestamp:   time.Now(),
	}
}

// BatchItem is one requested assignment inside a batch.
type BatchItem struct {
	TargetUserID string `json:"target_user_id"`
	TargetRoleID string `json:"target_role_id"`
	Reason       string `json:"reason"`
}

// MaxBatchSize bounds a single batch request.
const MaxBatchSize = 50

// ApprovalThreshold is the batch size above which execution requires approval.
const ApprovalThreshold = 20
