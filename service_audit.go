package rolegate

import (
	"context"
	"strings"
	"time"

	"github.com/fernandezvara/dbkit"
	"github.com/uptrace/bun"
)

// ============================================================================
// AUDIT LOG
// ============================================================================

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern wraps a user-supplied term for substring matching, escaping
// LIKE metacharacters so they match literally.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

// applyAuditFilter translates an AuditFilter into query predicates.
func applyAuditFilter(q *bun.SelectQuery, filter AuditFilter) *bun.SelectQuery {
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.PerformedBy != "" {
		q = q.Where("performed_by = ?", filter.PerformedBy)
	}
	if filter.RoleBefore != "" {
		q = q.Where("role_before = ?", filter.RoleBefore)
	}
	if filter.RoleAfter != "" {
		q = q.Where("role_after = ?", filter.RoleAfter)
	}
	if filter.ReasonContains != "" {
		q = q.Where("reason ILIKE ?", likePattern(filter.ReasonContains))
	}
	if !filter.Since.IsZero() {
		q = q.Where("timestamp >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		q = q.Where("timestamp <= ?", filter.Until)
	}
	return q
}

// GetAuditLog retrieves audit records matching the filter, newest first,
// along with the total count of matching records across all pages.
func (s *Service) GetAuditLog(ctx context.Context, filter AuditFilter) ([]AuditRecord, int, error) {
	total, err := dbkit.Count[AuditRecord](ctx, s.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return applyAuditFilter(q, filter)
	})
	if err != nil {
		return nil, 0, err
	}

	var records []AuditRecord
	q := applyAuditFilter(s.db.NewSelect().Model(&records), filter)

	limit, offset := filter.limitAndOffset()
	q = q.Limit(limit)
	if offset > 0 {
		q = q.Offset(offset)
	}
	q = q.Order("timestamp DESC")

	if err := dbkit.WithErr1(q.Scan(ctx), "GetAuditLog").Err(); err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// SearchAuditLog retrieves audit records whose reason or identity fields
// contain the term, case-insensitively, newest first. Additional filter
// predicates narrow the search.
func (s *Service) SearchAuditLog(ctx context.Context, term string, filter AuditFilter) ([]AuditRecord, error) {
	var records []AuditRecord
	q := applyAuditFilter(s.db.NewSelect().Model(&records), filter)

	if term != "" {
		pattern := likePattern(term)
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("reason ILIKE ?", pattern).
				WhereOr("user_id ILIKE ?", pattern).
				WhereOr("performed_by ILIKE ?", pattern)
		})
	}

	limit, offset := filter.limitAndOffset()
	q = q.Limit(limit)
	if offset > 0 {
		q = q.Offset(offset)
	}
	q = q.Order("timestamp DESC")

	if err := dbkit.WithErr1(q.Scan(ctx), "SearchAuditLog").Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// AuditScope optionally narrows statistics to a user and/or time range.
// The zero value aggregates over the full log.
type AuditScope struct {
	UserID string
	Since  time.Time
	Until  time.Time
}

// ActivityBucket is one day of audit activity.
type ActivityBucket struct {
	Date  string `bun:"date" json:"date"`
	Count int    `bun:"count" json:"count"`
}

// AuditStatistics aggregates the audit log.
type AuditStatistics struct {
	TotalChanges   int              `json:"total_changes"`
	ChangesByRole  map[string]int   `json:"changes_by_role"`
	ChangesByUser  map[string]int   `json:"changes_by_user"`
	RecentActivity []ActivityBucket `json:"recent_activity"`
}

// recentActivityDays bounds the per-day activity buckets.
const recentActivityDays = 7

func (sc AuditScope) apply(q *bun.SelectQuery) *bun.SelectQuery {
	if sc.UserID != "" {
		q = q.Where("user_id = ?", sc.UserID)
	}
	if !sc.Since.IsZero() {
		q = q.Where("timestamp >= ?", sc.Since)
	}
	if !sc.Until.IsZero() {
		q = q.Where("timestamp <= ?", sc.Until)
	}
	return q
}

// AuditStatistics computes aggregates over the (optionally scoped) log:
// total changes, changes grouped by resulting role and by user, and
// per-day activity for the last seven days.
func (s *Service) AuditStatistics(ctx context.Context, scope AuditScope) (*AuditStatistics, error) {
	stats := &AuditStatistics{
		ChangesByRole: make(map[string]int),
		ChangesByUser: make(map[string]int),
	}

	total, err := dbkit.Count[AuditRecord](ctx, s.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return scope.apply(q)
	})
	if err != nil {
		return nil, err
	}
	stats.TotalChanges = total

	type groupCount struct {
		Key   string `bun:"key"`
		Count int    `bun:"count"`
	}

	var byRole []groupCount
	q := scope.apply(s.db.NewSelect().Model((*AuditRecord)(nil))).
		ColumnExpr("role_after AS key").
		ColumnExpr("count(*) AS count").
		GroupExpr("role_after")
	if err := dbkit.WithErr1(q.Scan(ctx, &byRole), "AuditStatisticsByRole").Err(); err != nil {
		return nil, err
	}
	for _, row := range byRole {
		stats.ChangesByRole[row.Key] = row.Count
	}

	var byUser []groupCount
	q = scope.apply(s.db.NewSelect().Model((*AuditRecord)(nil))).
		ColumnExpr("user_id AS key").
		ColumnExpr("count(*) AS count").
		GroupExpr("user_id")
	if err := dbkit.WithErr1(q.Scan(ctx, &byUser), "AuditStatisticsByUser").Err(); err != nil {
		return nil, err
	}
	for _, row := range byUser {
		stats.ChangesByUser[row.Key] = row.Count
	}

	cutoff := time.Now().AddDate(0, 0, -recentActivityDays)
	q = scope.apply(s.db.NewSelect().Model((*AuditRecord)(nil))).
		ColumnExpr("to_char(timestamp, 'YYYY-MM-DD') AS date").
		ColumnExpr("count(*) AS count").
		Where("timestamp >= ?", cutoff).
		GroupExpr("to_char(timestamp, 'YYYY-MM-DD')").
		OrderExpr("date DESC")
	if err := dbkit.WithErr1(q.Scan(ctx, &stats.RecentActivity), "AuditStatisticsActivity").Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
