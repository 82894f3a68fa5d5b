package rolegate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAuditFilterFluent(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		f := NewAuditFilter()
		assert.Equal(t, 1, f.Page)
		assert.Equal(t, DefaultAuditPageSize, f.Limit)
	})

	t.Run("Builders compose", func(t *testing.T) {
		since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		until := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

		f := NewAuditFilter().
			WithUser("user-1").
			WithPerformedBy("actor-1").
			WithRoleBefore("member").
			WithRoleAfter("editor").
			WithReason("promotion").
			WithTimeRange(since, until).
			WithPagination(3, 25)

		assert.Equal(t, "user-1", f.UserID)
		assert.Equal(t, "actor-1", f.PerformedBy)
		assert.Equal(t, "member", f.RoleBefore)
		assert.Equal(t, "editor", f.RoleAfter)
		assert.Equal(t, "promotion", f.ReasonContains)
		assert.Equal(t, since, f.Since)
		assert.Equal(t, until, f.Until)
		assert.Equal(t, 3, f.Page)
		assert.Equal(t, 25, f.Limit)
	})

	t.Run("Builders do not mutate the receiver", func(t *testing.T) {
		base := NewAuditFilter()
		_ = base.WithUser("user-1")
		assert.Empty(t, base.UserID)
	})
}

func TestLimitAndOffset(t *testing.T) {
	t.Run("Offset is (page-1)*limit", func(t *testing.T) {
		limit, offset := NewAuditFilter().WithPagination(3, 25).limitAndOffset()
		assert.Equal(t, 25, limit)
		assert.Equal(t, 50, offset)
	})

	t.Run("First page has no offset", func(t *testing.T) {
		limit, offset := NewAuditFilter().WithPagination(1, 10).limitAndOffset()
		assert.Equal(t, 10, limit)
		assert.Equal(t, 0, offset)
	})

	t.Run("Zero values normalize to defaults", func(t *testing.T) {
		limit, offset := AuditFilter{}.limitAndOffset()
		assert.Equal(t, DefaultAuditPageSize, limit)
		assert.Equal(t, 0, offset)
	})

	t.Run("Negative page normalizes to first", func(t *testing.T) {
		_, offset := AuditFilter{Page: -2, Limit: 10}.limitAndOffset()
		assert.Equal(t, 0, offset)
	})
}

func TestLikePattern(t *testing.T) {
	tests := []struct {
		name string
		term string
		want string
	}{
		{"plain term", "promotion", "%promotion%"},
		{"percent escaped", "100%", `%100\%%`},
		{"underscore escaped", "bulk_sync", `%bulk\_sync%`},
		{"backslash escaped", `a\b`, `%a\\b%`},
		{"mixed metacharacters", `50%_\`, `%50\%\_\\%`},
		{"empty term", "", "%%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, likePattern(tt.term))
		})
	}
}
