package rolegate

import (
	"context"

	"github.com/fernandezvara/dbkit"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Service orchestrates role assignment and the audit trail. It uses the
// Validator for authorization decisions, the Catalog for role lookups, and
// always records security-relevant outcomes in the audit log before
// returning, denials included.
//
// Error Handling:
// All database operations use dbkit's chainable error wrapping; operation
// names travel with the error so failures can be classified with
// dbkit.IsDuplicate / dbkit.IsNotFound. Domain failures are sentinel
// errors wrapped in *Error with the machine-readable reason and risk level.
//
// Example error handling:
//
//	_, err := service.AssignRole(ctx, actor, targetID, roleID, "onboarding")
//	if err != nil {
//	    if rolegate.IsConflict(err) {
//	        // target already holds a role; safe to retry as a no-op
//	    }
//	    if rolegate.IsHierarchyViolation(err) {
//	        // denied and audited; surface risk level to the caller
//	        risk := rolegate.RiskOf(err)
//	        _ = risk
//	    }
//	}
type Service struct {
	db        dbkit.IDB
	catalog   *Catalog
	validator *Validator
	logger    *zap.Logger
	txMonitor *transactionMonitor
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets a structured logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a new rolegate service.
//
// Example:
//
//	catalog := rolegate.NewCatalog().
//	    Define("super_admin", "super_admin", 4).
//	    Define("admin", "admin", 3)
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	service := rolegate.NewService(catalog, db, rolegate.WithLogger(logger))
func NewService(catalog *Catalog, db dbkit.IDB, opts ...Option) *Service {
	s := &Service{
		db:        db,
		catalog:   catalog,
		validator: NewValidator(catalog),
		logger:    zap.NewNop(),
		txMonitor: newTransactionMonitor(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the role catalog.
func (s *Service) Catalog() *Catalog {
	return s.catalog
}

// Validator returns the privilege validator.
func (s *Service) Validator() *Validator {
	return s.validator
}

// AssignableRoles returns the roles the actor may offer for assignment.
// Presentation only; AssignRole re-validates at execution time.
func (s *Service) AssignableRoles(ctx context.Context, actor Actor) ([]Role, error) {
	return s.catalog.AssignableRoles(actor.RoleID)
}

// GetAssignment returns the current assignment for a user, or
// ErrAssignmentNotFound.
func (s *Service) GetAssignment(ctx context.Context, userID string) (*RoleAssignment, error) {
	var assignment RoleAssignment
	err := dbkit.WithErr1(s.db.NewSelect().Model(&assignment).Where("user_id = ?", userID).Limit(1).Scan(ctx), "GetAssignment").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, NewError(ErrAssignmentNotFound, "user has no role assignment").WithUser(userID)
		}
		return nil, err
	}
	return &assignment, nil
}

// HasAssignment checks whether a user currently holds a role.
func (s *Service) HasAssignment(ctx context.Context, userID string) (bool, error) {
	return dbkit.Exists[RoleAssignment](ctx, s.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("user_id = ?", userID)
	})
}

// CountAssignments returns the total number of role assignments.
// Useful for monitoring and analytics.
func (s *Service) CountAssignments(ctx context.Context) (int, error) {
	return dbkit.Count[RoleAssignment](ctx, s.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q
	})
}
