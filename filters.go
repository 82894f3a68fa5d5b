package rolegate

import "time"

// DefaultAuditPageSize is used when a filter carries no explicit limit.
const DefaultAuditPageSize = 100

// AuditFilter provides options for filtering audit log queries.
type AuditFilter struct {
	// Filter by target user of the action
	UserID string

	// Filter by actor who performed the action
	PerformedBy string

	// Filter by role state before/after the action
	RoleBefore string
	RoleAfter  string

	// Free-text substring match over the reason field
	ReasonContains string

	// Filter by time range
	Since time.Time
	Until time.Time

	// Pagination. Page is 1-based; offset is (Page-1)*Limit.
	Page  int
	Limit int
}

// NewAuditFilter creates a new AuditFilter with default pagination.
func NewAuditFilter() AuditFilter {
	return AuditFilter{
		Page:  1,
		Limit: DefaultAuditPageSize,
	}
}

// WithUser sets the target user filter.
func (f AuditFilter) WithUser(userID string) AuditFilter {
	f.UserID = userID
	return f
}

// WithPerformedBy sets the actor filter.
func (f AuditFilter) WithPerformedBy(actorID string) AuditFilter {
	f.PerformedBy = actorID
	return f
}

// WithRoleBefore sets the role-before filter.
func (f AuditFilter) WithRoleBefore(role string) AuditFilter {
	f.RoleBefore = role
	return f
}

// WithRoleAfter sets the role-after filter.
func (f AuditFilter) WithRoleAfter(role string) AuditFilter {
	f.RoleAfter = role
	return f
}

// WithReason sets the free-text reason filter.
func (f AuditFilter) WithReason(substring string) AuditFilter {
	f.ReasonContains = substring
	return f
}

// WithTimeRange sets the time range filter.
func (f AuditFilter) WithTimeRange(since, until time.Time) AuditFilter {
	f.Since = since
	f.Until = until
	return f
}

// WithSince sets the start time filter.
func (f AuditFilter) WithSince(since time.Time) AuditFilter {
	f.Since = since
	return f
}

// WithUntil sets the end time filter.
func (f AuditFilter) WithUntil(until time.Time) AuditFilter {
	f.Until = until
	return f
}

// WithPage sets the 1-based page number.
func (f AuditFilter) WithPage(page int) AuditFilter {
	f.Page = page
	return f
}

// WithLimit sets the page size.
func (f AuditFilter) WithLimit(limit int) AuditFilter {
	f.Limit = limit
	return f
}

// WithPagination sets both page and limit.
func (f AuditFilter) WithPagination(page, limit int) AuditFilter {
	f.Page = page
	f.Limit = limit
	return f
}

// limitAndOffset normalizes pagination to concrete query values.
func (f AuditFilter) limitAndOffset() (int, int) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultAuditPageSize
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	return limit, (page - 1) * limit
}
