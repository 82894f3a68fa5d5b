package rolegate

import (
	"errors"
	"fmt"
)

// Sentinel errors for rolegate operations.
var (
	// ErrValidation is returned when a request is malformed and is rejected
	// before any lookup runs.
	ErrValidation = errors.New("rolegate: invalid request")

	// ErrUnauthenticated is returned when the identity provider cannot
	// resolve an actor from the supplied credential.
	ErrUnauthenticated = errors.New("rolegate: unauthenticated")

	// ErrPermissionDenied is returned when the permission gate rejects an
	// actor for a resource/action pair.
	ErrPermissionDenied = errors.New("rolegate: permission denied")

	// ErrSelfAssignment is returned when an actor targets itself.
	// Always produces a denial audit record.
	ErrSelfAssignment = errors.New("rolegate: self assignment")

	// ErrHierarchyViolation is returned when an actor attempts to grant a
	// role at or above its own level. Always produces a denial audit record.
	ErrHierarchyViolation = errors.New("rolegate: hierarchy violation")

	// ErrRoleNotFound is returned when a role ID does not resolve.
	ErrRoleNotFound = errors.New("rolegate: role not found")

	// ErrAssignmentNotFound is returned when a user has no assignment to
	// reassign or remove.
	ErrAssignmentNotFound = errors.New("rolegate: assignment not found")

	// ErrAlreadyAssigned is returned when the target user already holds a
	// role. A benign read-only rejection, never audited.
	ErrAlreadyAssigned = errors.New("rolegate: role already assigned")

	// ErrBatchTooLarge is returned when a batch exceeds MaxBatchSize.
	ErrBatchTooLarge = errors.New("rolegate: batch too large")

	// ErrApprovalRequired is returned when a bulk operation is rejected
	// pending approval.
	ErrApprovalRequired = errors.New("rolegate: approval required")

	// ErrTransactionFailure is returned when a storage write fails
	// mid-operation and the operation's writes were rolled back.
	ErrTransactionFailure = errors.New("rolegate: transaction failure")

	// ErrDatabaseError is returned when a database operation fails.
	ErrDatabaseError = errors.New("rolegate: database error")
)

// Error wraps a sentinel error with machine-readable context.
type Error struct {
	Err              error     // Underlying sentinel error
	Message          string    // Additional context
	UserID           string    // Target user involved (if applicable)
	RoleID           string    // Role involved (if applicable)
	ActorID          string    // Actor who triggered the error (if applicable)
	RiskLevel        RiskLevel // Computed risk level (if applicable)
	RequiresApproval bool      // Whether the operation would need approval
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is checks if the error matches a target error.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a new Error with context.
func NewError(err error, message string) *Error {
	return &Error{
		Err:     err,
		Message: message,
	}
}

// WithUser adds target user information to the error.
func (e *Error) WithUser(userID string) *Error {
	e.UserID = userID
	return e
}

// WithRole adds role information to the error.
func (e *Error) WithRole(roleID string) *Error {
	e.RoleID = roleID
	return e
}

// WithActor adds actor information to the error.
func (e *Error) WithActor(actorID string) *Error {
	e.ActorID = actorID
	return e
}

// WithRisk attaches the computed risk level and approval flag.
func (e *Error) WithRisk(level RiskLevel, requiresApproval bool) *Error {
	e.RiskLevel = level
	e.RequiresApproval = requiresApproval
	return e
}

// IsHierarchyViolation checks if an error is a hierarchy or self-assignment denial.
func IsHierarchyViolation(err error) bool {
	return errors.Is(err, ErrHierarchyViolation) || errors.Is(err, ErrSelfAssignment)
}

// IsConflict checks if an error is an already-assigned conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyAssigned)
}

// IsNotFound checks if an error is a role or assignment lookup failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRoleNotFound) || errors.Is(err, ErrAssignmentNotFound)
}

// IsPermissionDenied checks if an error is a gate rejection.
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// RiskOf extracts the risk level from an error, or empty when absent.
func RiskOf(err error) RiskLevel {
	var e *Error
	if errors.As(err, &e) {
		return e.RiskLevel
	}
	return ""
}
