package rolegate

// Validator holds the pure privilege-escalation decision logic: may actor
// X grant role R to user Y? Decisions depend only on the catalog and the
// inputs; storage state (existing assignments) is checked by the Service.
type Validator struct {
	catalog *Catalog
}

// NewValidator creates a Validator over a catalog.
func NewValidator(catalog *Catalog) *Validator {
	return &Validator{catalog: catalog}
}

// escalationCheck is one named step of the validation pipeline. A nil
// result means the check passed and evaluation continues; the first
// non-nil result wins.
type escalationCheck struct {
	name string
	run  func(in escalationInput) *ValidationResult
}

type escalationInput struct {
	actor        Actor
	targetUserID string
	targetRole   *Role
	actorRole    *Role
	maxLevel     int
}

// escalationChecks is the ordered, short-circuiting decision sequence.
var escalationChecks = []escalationCheck{
	{
		name: "target_role_resolves",
		run: func(in escalationInput) *ValidationResult {
			if in.targetRole == nil {
				return &ValidationResult{Valid: false, Reason: ReasonRoleNotFound, RiskLevel: RiskLow}
			}
			return nil
		},
	},
	{
		// Self-assignment is rejected unconditionally, before any level
		// comparison.
		name: "no_self_assignment",
		run: func(in escalationInput) *ValidationResult {
			if in.actor.ID == in.targetUserID {
				return &ValidationResult{Valid: false, Reason: ReasonSelfAssignment, RiskLevel: RiskHigh}
			}
			return nil
		},
	},
	{
		name: "actor_role_resolves",
		run: func(in escalationInput) *ValidationResult {
			if in.actorRole == nil {
				return &ValidationResult{Valid: false, Reason: ReasonRoleNotFound, RiskLevel: RiskLow}
			}
			return nil
		},
	},
	{
		// An actor below the maximum level can only grant strictly below
		// its own level. Granting the maximum tier is critical.
		name: "hierarchy_order",
		run: func(in escalationInput) *ValidationResult {
			if in.actorRole.Level == in.maxLevel {
				return nil
			}
			if in.targetRole.Level >= in.actorRole.Level {
				risk := RiskHigh
				if in.targetRole.Level == in.maxLevel {
					risk = RiskCritical
				}
				return &ValidationResult{
					Valid:            false,
					Reason:           ReasonLevelTooHighOrEqual,
					RiskLevel:        risk,
					RequiresApproval: risk == RiskCritical,
				}
			}
			return nil
		},
	},
}

// ValidateEscalation decides whether the actor may grant targetRoleID to
// targetUserID. The decision sequence is an ordered list of named checks;
// the first failing check determines the result.
func (v *Validator) ValidateEscalation(actor Actor, targetUserID, targetRoleID string) ValidationResult {
	in := escalationInput{
		actor:        actor,
		targetUserID: targetUserID,
		maxLevel:     v.catalog.MaxLevel(),
	}
	if role, err := v.catalog.Get(targetRoleID); err == nil {
		in.targetRole = role
	}
	if role, err := v.catalog.Get(actor.RoleID); err == nil {
		in.actorRole = role
	}

	for _, check := range escalationChecks {
		if result := check.run(in); result != nil {
			return *result
		}
	}

	// Valid: granting the tier directly beneath the actor is moderate risk.
	risk := RiskLow
	if in.targetRole.Level == in.actorRole.Level-1 {
		risk = RiskModerate
	}
	return ValidationResult{Valid: true, RiskLevel: risk}
}

// ValidateBulk decides whether a bulk operation of itemCount items may
// proceed. Oversized batches are invalid; large batches are valid but
// require approval.
func (v *Validator) ValidateBulk(actor Actor, operationType string, itemCount int) ValidationResult {
	if itemCount > MaxBatchSize {
		return ValidationResult{Valid: false, Reason: ReasonBatchTooLarge, RiskLevel: RiskHigh}
	}
	if itemCount > ApprovalThreshold {
		return ValidationResult{Valid: true, RiskLevel: RiskHigh, RequiresApproval: true}
	}
	return ValidationResult{Valid: true, RiskLevel: RiskLow}
}

// DenialError maps a failed ValidationResult to the error returned to the
// caller, carrying the machine-readable reason and risk level.
func DenialError(result ValidationResult, actorID, targetUserID, targetRoleID string) *Error {
	var sentinel error
	switch result.Reason {
	case ReasonRoleNotFound:
		sentinel = ErrRoleNotFound
	case ReasonSelfAssignment:
		sentinel = ErrSelfAssignment
	case ReasonBatchTooLarge:
		sentinel = ErrBatchTooLarge
	default:
		sentinel = ErrHierarchyViolation
	}

	return NewError(sentinel, string(result.Reason)).
		WithActor(actorID).
		WithUser(targetUserID).
		WithRole(targetRoleID).
		WithRisk(result.RiskLevel, result.RequiresApproval)
}
