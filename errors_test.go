package rolegate

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorWrapping(t *testing.T) {
	t.Run("Error message includes context", func(t *testing.T) {
		err := NewError(ErrAlreadyAssigned, "user already holds a role")
		assert.Equal(t, "rolegate: role already assigned: user already holds a role", err.Error())
	})

	t.Run("Error without message uses sentinel text", func(t *testing.T) {
		err := NewError(ErrRoleNotFound, "")
		assert.Equal(t, "rolegate: role not found", err.Error())
	})

	t.Run("errors.Is matches the sentinel", func(t *testing.T) {
		err := NewError(ErrHierarchyViolation, "level_too_high_or_equal")
		assert.ErrorIs(t, err, ErrHierarchyViolation)
		assert.NotErrorIs(t, err, ErrSelfAssignment)
	})

	t.Run("errors.As recovers the wrapper", func(t *testing.T) {
		var wrapped error = fmt.Errorf("handler: %w",
			NewError(ErrSelfAssignment, "self_assignment").WithRisk(RiskHigh, false))

		var re *Error
		require.ErrorAs(t, wrapped, &re)
		assert.Equal(t, RiskHigh, re.RiskLevel)
	})

	t.Run("Fluent context setters", func(t *testing.T) {
		err := NewError(ErrHierarchyViolation, "level_too_high_or_equal").
			WithActor("actor-1").
			WithUser("user-1").
			WithRole("super_admin").
			WithRisk(RiskCritical, true)

		assert.Equal(t, "actor-1", err.ActorID)
		assert.Equal(t, "user-1", err.UserID)
		assert.Equal(t, "super_admin", err.RoleID)
		assert.Equal(t, RiskCritical, err.RiskLevel)
		assert.True(t, err.RequiresApproval)
	})
}

func TestErrorClassifiers(t *testing.T) {
	t.Run("IsHierarchyViolation covers both denial sentinels", func(t *testing.T) {
		assert.True(t, IsHierarchyViolation(NewError(ErrHierarchyViolation, "")))
		assert.True(t, IsHierarchyViolation(NewError(ErrSelfAssignment, "")))
		assert.False(t, IsHierarchyViolation(NewError(ErrAlreadyAssigned, "")))
		assert.False(t, IsHierarchyViolation(nil))
	})

	t.Run("IsConflict", func(t *testing.T) {
		assert.True(t, IsConflict(NewError(ErrAlreadyAssigned, "")))
		assert.False(t, IsConflict(errors.New("something else")))
	})

	t.Run("IsNotFound covers role and assignment lookups", func(t *testing.T) {
		assert.True(t, IsNotFound(NewError(ErrRoleNotFound, "")))
		assert.True(t, IsNotFound(NewError(ErrAssignmentNotFound, "")))
		assert.False(t, IsNotFound(NewError(ErrPermissionDenied, "")))
	})

	t.Run("IsPermissionDenied", func(t *testing.T) {
		assert.True(t, IsPermissionDenied(NewError(ErrPermissionDenied, "")))
		assert.False(t, IsPermissionDenied(NewError(ErrUnauthenticated, "")))
	})

	t.Run("RiskOf extracts the computed level", func(t *testing.T) {
		err := NewError(ErrHierarchyViolation, "").WithRisk(RiskCritical, true)
		assert.Equal(t, RiskCritical, RiskOf(err))
		assert.Equal(t, RiskLevel(""), RiskOf(errors.New("plain")))
		assert.Equal(t, RiskLevel(""), RiskOf(nil))
	})
}
