package rolegate

import (
	"context"

	"github.com/fernandezvara/dbkit"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ============================================================================
// ROLE ASSIGNMENT OPERATIONS
// ============================================================================

// AssignRole grants a role to a user on behalf of an actor.
//
// The escalation check runs first; a hierarchy or self-assignment denial is
// persisted to the audit log before the error surfaces. If the target user
// already holds a role the call returns ErrAlreadyAssigned with no mutation
// and no audit write. On success the assignment row and its audit record
// commit in one transaction.
//
// Example:
//
//	assignment, err := service.AssignRole(ctx, actor, targetUserID, "editor", "onboarding")
func (s *Service) AssignRole(ctx context.Context, actor Actor, targetUserID, roleID, reason string) (*RoleAssignment, error) {
	if actor.ID == "" || targetUserID == "" || roleID == "" {
		return nil, NewError(ErrValidation, "actor, target user and role are required")
	}

	result := s.validator.ValidateEscalation(actor, targetUserID, roleID)
	if !result.Valid {
		return nil, s.denyAssignment(ctx, actor, targetUserID, roleID, reason, result)
	}

	role, err := s.catalog.Get(roleID)
	if err != nil {
		return nil, err
	}

	// Benign duplicate check: a read-only rejection, not a security denial
	exists, err := s.HasAssignment(ctx, targetUserID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, NewError(ErrAlreadyAssigned, "user already holds a role").
			WithUser(targetUserID).
			WithRole(roleID)
	}

	assignment := &RoleAssignment{
		ID:         uuid.NewString(),
		UserID:     targetUserID,
		RoleID:     roleID,
		AssignedBy: actor.ID,
		Reason:     reason,
	}

	audit := GetAuditContext(ctx)
	err = s.Transaction(ctx, func(ctx context.Context, tx dbkit.IDB) error {
		res, err := tx.NewInsert().Model(assignment).Exec(ctx)
		if err := dbkit.WithErr(res, err, "CreateRoleAssignment").Err(); err != nil {
			return err
		}

		_, err = s.appendAudit(ctx, tx, &AuditEntry{
			UserID:      targetUserID,
			RoleBefore:  "",
			RoleAfter:   role.Name,
			PerformedBy: actor.ID,
			Reason:      reason,
			IPAddress:   audit.IPAddress,
			UserAgent:   audit.UserAgent,
			Metadata: map[string]any{
				"role_id":    roleID,
				"risk_level": string(result.RiskLevel),
				"request_id": audit.RequestID,
			},
		})
		return err
	})
	if err != nil {
		// Concurrent assigns race at the storage layer; the loser gets Conflict
		if dbkit.IsDuplicate(err) {
			return nil, NewError(ErrAlreadyAssigned, "user already holds a role").
				WithUser(targetUserID).
				WithRole(roleID)
		}
		return nil, NewError(ErrTransactionFailure, "role assignment rolled back").
			WithUser(targetUserID).
			WithRole(roleID)
	}

	s.logger.Info("role assigned",
		zap.String("actor_id", actor.ID),
		zap.String("user_id", targetUserID),
		zap.String("role_id", roleID),
		zap.String("risk_level", string(result.RiskLevel)))

	return assignment, nil
}

// ReassignRole replaces a user's current role with a new one. The role
// change is a delete+insert committed atomically with its audit record,
// which carries the prior role name in role_before.
//
// Example:
//
//	assignment, err := service.ReassignRole(ctx, actor, targetUserID, "moderator", "promotion")
func (s *Service) ReassignRole(ctx context.Context, actor Actor, targetUserID, roleID, reason string) (*RoleAssignment, error) {
	if actor.ID == "" || targetUserID == "" || roleID == "" {
		return nil, NewError(ErrValidation, "actor, target user and role are required")
	}

	result := s.validator.ValidateEscalation(actor, targetUserID, roleID)
	if !result.Valid {
		return nil, s.denyAssignment(ctx, actor, targetUserID, roleID, reason, result)
	}

	role, err := s.catalog.Get(roleID)
	if err != nil {
		return nil, err
	}

	current, err := s.GetAssignment(ctx, targetUserID)
	if err != nil {
		return nil, err
	}
	roleBefore := s.roleName(current.RoleID)

	assignment := &RoleAssignment{
		ID:         uuid.NewString(),
		UserID:     targetUserID,
		RoleID:     roleID,
		AssignedBy: actor.ID,
		Reason:     reason,
	}

	audit := GetAuditContext(ctx)
	err = s.Transaction(ctx, func(ctx context.Context, tx dbkit.IDB) error {
		res, err := tx.NewDelete().Table("user_roles").Where("user_id = ?", targetUserID).Exec(ctx)
		if err := dbkit.WithErr(res, err, "DeletePriorAssignment").Err(); err != nil {
			return err
		}

		res, err = tx.NewInsert().Model(assignment).Exec(ctx)
		if err := dbkit.WithErr(res, err, "CreateRoleAssignment").Err(); err != nil {
			return err
		}

		_, err = s.appendAudit(ctx, tx, &AuditEntry{
			UserID:      targetUserID,
			RoleBefore:  roleBefore,
			RoleAfter:   role.Name,
			PerformedBy: actor.ID,
			Reason:      reason,
			IPAddress:   audit.IPAddress,
			UserAgent:   audit.UserAgent,
			Metadata: map[string]any{
				"role_id":    roleID,
				"risk_level": string(result.RiskLevel),
				"request_id": audit.RequestID,
			},
		})
		return err
	})
	if err != nil {
		return nil, NewError(ErrTransactionFailure, "role change rolled back").
			WithUser(targetUserID).
			WithRole(roleID)
	}

	s.logger.Info("role reassigned",
		zap.String("actor_id", actor.ID),
		zap.String("user_id", targetUserID),
		zap.String("role_before", roleBefore),
		zap.String("role_id", roleID))

	return assignment, nil
}

// UnassignRole removes a user's role. Self-removal and removals above the
// actor's level are denied with an audit record, the same as grants. The
// delete and its audit record commit in one transaction, preserving the
// one-assignment-per-user invariant.
//
// Example:
//
//	err := service.UnassignRole(ctx, actor, targetUserID, "offboarding")
func (s *Service) UnassignRole(ctx context.Context, actor Actor, targetUserID, reason string) error {
	if actor.ID == "" || targetUserID == "" {
		return NewError(ErrValidation, "actor and target user are required")
	}

	current, err := s.GetAssignment(ctx, targetUserID)
	if err != nil {
		return err
	}

	// Removing a role requires the same standing as granting it
	result := s.validator.ValidateEscalation(actor, targetUserID, current.RoleID)
	if !result.Valid {
		return s.denyAssignment(ctx, actor, targetUserID, current.RoleID, reason, result)
	}
	roleBefore := s.roleName(current.RoleID)

	audit := GetAuditContext(ctx)
	err = s.Transaction(ctx, func(ctx context.Context, tx dbkit.IDB) error {
		res, err := tx.NewDelete().Table("user_roles").Where("user_id = ?", targetUserID).Exec(ctx)
		if err := dbkit.WithErr(res, err, "DeleteRoleAssignment").Err(); err != nil {
			return err
		}

		_, err = s.appendAudit(ctx, tx, &AuditEntry{
			UserID:      targetUserID,
			RoleBefore:  roleBefore,
			RoleAfter:   RoleAfterUnassigned,
			PerformedBy: actor.ID,
			Reason:      reason,
			IPAddress:   audit.IPAddress,
			UserAgent:   audit.UserAgent,
			Metadata: map[string]any{
				"role_id":    current.RoleID,
				"request_id": audit.RequestID,
			},
		})
		return err
	})
	if err != nil {
		return NewError(ErrTransactionFailure, "role removal rolled back").
			WithUser(targetUserID)
	}

	s.logger.Info("role unassigned",
		zap.String("actor_id", actor.ID),
		zap.String("user_id", targetUserID),
		zap.String("role_before", roleBefore))

	return nil
}

// ============================================================================
// INTERNAL HELPERS
// ============================================================================

// appendAudit inserts one audit record through the given handle and
// returns its id. Records are write-once; nothing ever updates them.
func (s *Service) appendAudit(ctx context.Context, db dbkit.IDB, entry *AuditEntry) (string, error) {
	id := uuid.NewString()
	res, err := db.NewInsert().Model(entry.ToModel(id)).Exec(ctx)
	if err := dbkit.WithErr(res, err, "AppendAudit").Err(); err != nil {
		return "", err
	}
	return id, nil
}

// denyAssignment persists the denial audit record and builds the error
// returned to the caller. Role-not-found is recovered with no side
// effects; hierarchy and self-assignment denials are never silent.
func (s *Service) denyAssignment(ctx context.Context, actor Actor, targetUserID, roleID, reason string, result ValidationResult) error {
	denial := DenialError(result, actor.ID, targetUserID, roleID)
	if result.Reason == ReasonRoleNotFound {
		return denial
	}

	audit := GetAuditContext(ctx)
	metadata := result.Metadata()
	metadata["role_id"] = roleID
	metadata["request_id"] = audit.RequestID

	_, err := s.appendAudit(ctx, s.db, &AuditEntry{
		UserID:      targetUserID,
		RoleBefore:  "",
		RoleAfter:   RoleAfterAttemptFailed,
		PerformedBy: actor.ID,
		Reason:      reason,
		IPAddress:   audit.IPAddress,
		UserAgent:   audit.UserAgent,
		Metadata:    metadata,
	})
	if err != nil {
		// The denial must be investigable; without its record the caller
		// gets a storage failure, not a silent denial
		s.logger.Error("denial audit write failed",
			zap.String("actor_id", actor.ID),
			zap.String("user_id", targetUserID),
			zap.Error(err))
		return NewError(ErrTransactionFailure, "denial audit write failed").
			WithActor(actor.ID).
			WithUser(targetUserID)
	}

	s.logger.Warn("role assignment denied",
		zap.String("actor_id", actor.ID),
		zap.String("user_id", targetUserID),
		zap.String("role_id", roleID),
		zap.String("reason", string(result.Reason)),
		zap.String("risk_level", string(result.RiskLevel)))

	return denial
}

// roleName resolves a role id to its display name, falling back to the id
// for roles no longer in the catalog.
func (s *Service) roleName(roleID string) string {
	if role, err := s.catalog.Get(roleID); err == nil {
		return role.Name
	}
	return roleID
}
