package rolegate

import (
	"context"

	"github.com/fernandezvara/dbkit"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ============================================================================
// BATCH ASSIGNMENT
// ============================================================================

// BatchItemStatus is the outcome of one item in a batch.
type BatchItemStatus string

const (
	// BatchItemSucceeded means the assignment and its audit record committed.
	BatchItemSucceeded BatchItemStatus = "succeeded"

	// BatchItemInvalid means pre-validation rejected the item; it was never executed.
	BatchItemInvalid BatchItemStatus = "invalid"

	// BatchItemFailed means execution failed at write time (e.g. a
	// conflicting assignment appeared between the phases, or the batch
	// transaction rolled back).
	BatchItemFailed BatchItemStatus = "failed"
)

// BatchItemResult carries the outcome for one input item, keyed by its
// original position in the request.
type BatchItemResult struct {
	Index        int              `json:"index"`
	TargetUserID string           `json:"target_user_id"`
	TargetRoleID string           `json:"target_role_id"`
	Status       BatchItemStatus  `json:"status"`
	Reason       ValidationReason `json:"reason,omitempty"`
	RiskLevel    RiskLevel        `json:"risk_level,omitempty"`
	AuditID      string           `json:"audit_id,omitempty"`
}

// BatchResult summarizes a batch execution with partial-failure accounting.
type BatchResult struct {
	TotalAttempted int               `json:"total_attempted"`
	ValidCount     int               `json:"valid_count"`
	InvalidCount   int               `json:"invalid_count"`
	ExecutedCount  int               `json:"executed_count"`
	SucceededCount int               `json:"succeeded_count"`
	FailedCount    int               `json:"failed_count"`
	Items          []BatchItemResult `json:"items"`
	Errors         []string          `json:"errors,omitempty"`
}

// AssignRolesBatch processes up to MaxBatchSize assignment requests as one
// logical unit using a two-phase protocol.
//
// Phase 1 pre-validates every item in input order with no side effects:
// self-assignment, existing-assignment conflict, then the hierarchy check.
// Phase 2 executes the valid items inside one transaction; assignment rows,
// success audit records and denial audit records for rejected items all
// commit together or not at all. A conflicting assignment that appeared
// between the phases downgrades that single item to a per-item failure
// without aborting the batch; any other storage error rolls back every
// write of the batch and surfaces ErrTransactionFailure alongside the full
// per-item breakdown.
//
// Oversized batches (> MaxBatchSize) are rejected before pre-validation
// runs. Batches above ApprovalThreshold are rejected up front with a
// single blocked audit record.
func (s *Service) AssignRolesBatch(ctx context.Context, actor Actor, items []BatchItem) (*BatchResult, error) {
	if actor.ID == "" {
		return nil, NewError(ErrValidation, "actor is required")
	}
	if len(items) == 0 {
		return nil, NewError(ErrValidation, "batch is empty")
	}

	bulk := s.validator.ValidateBulk(actor, "assign_roles", len(items))
	if !bulk.Valid {
		return nil, NewError(ErrBatchTooLarge, "batch exceeds the maximum size").
			WithActor(actor.ID).
			WithRisk(bulk.RiskLevel, bulk.RequiresApproval)
	}
	if bulk.RequiresApproval {
		return nil, s.blockBatch(ctx, actor, len(items), bulk)
	}

	result := &BatchResult{
		TotalAttempted: len(items),
		Items:          make([]BatchItemResult, len(items)),
	}

	// Phase 1: read-only pre-validation in input order
	seen := make(map[string]bool, len(items))
	var valid []int
	for i, item := range items {
		detail := BatchItemResult{
			Index:        i,
			TargetUserID: item.TargetUserID,
			TargetRoleID: item.TargetRoleID,
		}

		switch {
		case item.TargetUserID == "" || item.TargetRoleID == "":
			detail.Status = BatchItemInvalid
			detail.Reason = ReasonMalformedItem

		case item.TargetUserID == actor.ID:
			detail.Status = BatchItemInvalid
			detail.Reason = ReasonSelfAssignment
			detail.RiskLevel = RiskHigh

		case seen[item.TargetUserID]:
			// A later item for the same user can never satisfy uniqueness
			detail.Status = BatchItemInvalid
			detail.Reason = ReasonDuplicateTarget

		default:
			exists, err := s.HasAssignment(ctx, item.TargetUserID)
			if err != nil {
				return nil, err
			}
			if exists {
				detail.Status = BatchItemInvalid
				detail.Reason = ReasonAlreadyAssigned
				break
			}

			check := s.validator.ValidateEscalation(actor, item.TargetUserID, item.TargetRoleID)
			detail.RiskLevel = check.RiskLevel
			if !check.Valid {
				detail.Status = BatchItemInvalid
				detail.Reason = check.Reason
				break
			}

			detail.Status = BatchItemSucceeded // provisional, settled in phase 2
			valid = append(valid, i)
			seen[item.TargetUserID] = true
		}

		result.Items[i] = detail
	}
	result.ValidCount = len(valid)
	result.InvalidCount = len(items) - len(valid)

	// Phase 2: atomic execution of the valid items
	audit := GetAuditContext(ctx)
	err := s.Transaction(ctx, func(ctx context.Context, tx dbkit.IDB) error {
		// Denials discovered in phase 1 are part of the security trail
		for i := range result.Items {
			detail := &result.Items[i]
			if detail.Status != BatchItemInvalid {
				continue
			}
			if detail.Reason != ReasonSelfAssignment && detail.Reason != ReasonLevelTooHighOrEqual {
				continue
			}
			check := ValidationResult{
				Valid:            false,
				Reason:           detail.Reason,
				RiskLevel:        detail.RiskLevel,
				RequiresApproval: detail.RiskLevel == RiskCritical,
			}
			metadata := check.Metadata()
			metadata["role_id"] = detail.TargetRoleID
			metadata["batch_index"] = detail.Index
			metadata["request_id"] = audit.RequestID

			id, err := s.appendAudit(ctx, tx, &AuditEntry{
				UserID:      detail.TargetUserID,
				RoleAfter:   RoleAfterAttemptFailed,
				PerformedBy: actor.ID,
				Reason:      items[detail.Index].Reason,
				IPAddress:   audit.IPAddress,
				UserAgent:   audit.UserAgent,
				Metadata:    metadata,
			})
			if err != nil {
				return err
			}
			detail.AuditID = id
		}

		for _, i := range valid {
			item := items[i]
			detail := &result.Items[i]
			result.ExecutedCount++

			role, err := s.catalog.Get(item.TargetRoleID)
			if err != nil {
				return err
			}

			assignment := &RoleAssignment{
				ID:         uuid.NewString(),
				UserID:     item.TargetUserID,
				RoleID:     item.TargetRoleID,
				AssignedBy: actor.ID,
				Reason:     item.Reason,
				Metadata:   map[string]any{"batch_index": i},
			}

			// Re-check uniqueness at write time: a conflicting assignment
			// acquired between the phases fails this item only
			res, err := tx.NewInsert().Model(assignment).
				On("CONFLICT (user_id) DO NOTHING").
				Exec(ctx)
			if err := dbkit.WithErr(res, err, "BatchCreateRoleAssignment").Err(); err != nil {
				return err
			}
			rows, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if rows == 0 {
				detail.Status = BatchItemFailed
				detail.Reason = ReasonAlreadyAssigned
				result.FailedCount++
				continue
			}

			id, err := s.appendAudit(ctx, tx, &AuditEntry{
				UserID:      item.TargetUserID,
				RoleAfter:   role.Name,
				PerformedBy: actor.ID,
				Reason:      item.Reason,
				IPAddress:   audit.IPAddress,
				UserAgent:   audit.UserAgent,
				Metadata: map[string]any{
					"role_id":     item.TargetRoleID,
					"batch_index": i,
					"risk_level":  string(detail.RiskLevel),
					"request_id":  audit.RequestID,
				},
			})
			if err != nil {
				return err
			}
			detail.Status = BatchItemSucceeded
			detail.AuditID = id
			result.SucceededCount++
		}
		return nil
	})
	if err != nil {
		// Every write of the batch was rolled back; the breakdown still
		// tells the caller which items need resubmission
		for _, i := range valid {
			result.Items[i].Status = BatchItemFailed
		}
		// Denial audits written for invalid items were rolled back too
		for i := range result.Items {
			result.Items[i].AuditID = ""
		}
		result.SucceededCount = 0
		result.FailedCount = len(valid)
		result.Errors = append(result.Errors, err.Error())

		s.logger.Error("batch assignment rolled back",
			zap.String("actor_id", actor.ID),
			zap.Int("total", len(items)),
			zap.Error(err))

		return result, NewError(ErrTransactionFailure, "batch writes rolled back").
			WithActor(actor.ID)
	}

	s.logger.Info("batch assignment executed",
		zap.String("actor_id", actor.ID),
		zap.Int("total", result.TotalAttempted),
		zap.Int("valid", result.ValidCount),
		zap.Int("succeeded", result.SucceededCount),
		zap.Int("failed", result.FailedCount))

	return result, nil
}

// blockBatch records the single blocked-attempt audit record for a batch
// rejected pending approval.
func (s *Service) blockBatch(ctx context.Context, actor Actor, itemCount int, bulk ValidationResult) error {
	audit := GetAuditContext(ctx)
	metadata := bulk.Metadata()
	metadata["item_count"] = itemCount
	metadata["request_id"] = audit.RequestID

	_, err := s.appendAudit(ctx, s.db, &AuditEntry{
		UserID:      actor.ID,
		RoleAfter:   RoleAfterBlocked,
		PerformedBy: actor.ID,
		Reason:      "bulk assignment requires approval",
		IPAddress:   audit.IPAddress,
		UserAgent:   audit.UserAgent,
		Metadata:    metadata,
	})
	if err != nil {
		s.logger.Error("blocked batch audit write failed",
			zap.String("actor_id", actor.ID),
			zap.Error(err))
		return NewError(ErrTransactionFailure, "denial audit write failed").
			WithActor(actor.ID)
	}

	s.logger.Warn("batch assignment blocked pending approval",
		zap.String("actor_id", actor.ID),
		zap.Int("item_count", itemCount))

	return NewError(ErrApprovalRequired, "bulk assignment requires approval").
		WithActor(actor.ID).
		WithRisk(bulk.RiskLevel, true)
}
