package rolegate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogDefine(t *testing.T) {
	t.Run("Get returns defined roles", func(t *testing.T) {
		catalog := NewCatalog().Define("admin", "Administrator", 3)

		role, err := catalog.Get("admin")
		require.NoError(t, err)
		assert.Equal(t, "admin", role.ID)
		assert.Equal(t, "Administrator", role.Name)
		assert.Equal(t, 3, role.Level)
	})

	t.Run("Get rejects unknown roles", func(t *testing.T) {
		catalog := NewTestCatalog()

		_, err := catalog.Get("no_such_role")
		assert.ErrorIs(t, err, ErrRoleNotFound)
	})

	t.Run("GetByName resolves display names", func(t *testing.T) {
		catalog := NewTestCatalog()

		role, err := catalog.GetByName("moderator")
		require.NoError(t, err)
		assert.Equal(t, testRoleModerator, role.ID)

		_, err = catalog.GetByName("nobody")
		assert.ErrorIs(t, err, ErrRoleNotFound)
	})

	t.Run("Redefining a role replaces it", func(t *testing.T) {
		catalog := NewCatalog().
			Define("admin", "admin", 3).
			Define("admin", "admin", 2)

		role, err := catalog.Get("admin")
		require.NoError(t, err)
		assert.Equal(t, 2, role.Level)
	})
}

func TestCatalogMaxLevel(t *testing.T) {
	t.Run("Max level of test hierarchy", func(t *testing.T) {
		assert.Equal(t, 4, NewTestCatalog().MaxLevel())
	})

	t.Run("Empty catalog has no max level", func(t *testing.T) {
		assert.Equal(t, -1, NewCatalog().MaxLevel())
	})
}

func TestCatalogRoles(t *testing.T) {
	t.Run("Ordered by level descending", func(t *testing.T) {
		roles := NewTestCatalog().Roles()

		require.Len(t, roles, 5)
		for i := 1; i < len(roles); i++ {
			assert.GreaterOrEqual(t, roles[i-1].Level, roles[i].Level)
		}
		assert.Equal(t, testRoleSuperAdmin, roles[0].ID)
		assert.Equal(t, testRoleMember, roles[len(roles)-1].ID)
	})
}

func TestAssignableRoles(t *testing.T) {
	catalog := NewTestCatalog()

	t.Run("Mid-tier actor sees only roles beneath", func(t *testing.T) {
		assignable, err := catalog.AssignableRoles(testRoleAdmin)
		require.NoError(t, err)

		require.Len(t, assignable, 3)
		for _, role := range assignable {
			assert.Less(t, role.Level, 3)
		}
	})

	t.Run("Bottom tier can assign nothing", func(t *testing.T) {
		assignable, err := catalog.AssignableRoles(testRoleMember)
		require.NoError(t, err)
		assert.Empty(t, assignable)
	})

	t.Run("Maximum tier sees everything except its own role", func(t *testing.T) {
		assignable, err := catalog.AssignableRoles(testRoleSuperAdmin)
		require.NoError(t, err)

		require.Len(t, assignable, 4)
		for _, role := range assignable {
			assert.NotEqual(t, testRoleSuperAdmin, role.ID)
		}
	})

	t.Run("Unknown actor role fails", func(t *testing.T) {
		_, err := catalog.AssignableRoles("no_such_role")
		assert.ErrorIs(t, err, ErrRoleNotFound)
	})
}

func TestCatalogGrants(t *testing.T) {
	t.Run("Grants accumulate per role", func(t *testing.T) {
		catalog := NewCatalog().Define("admin", "admin", 3)
		catalog.Grant("admin", "roles.*")
		catalog.Grant("admin", "audit.read")

		perms := catalog.Permissions("admin")
		assert.Equal(t, []string{"roles.*", "audit.read"}, perms)
	})

	t.Run("Ungranted role has no permissions", func(t *testing.T) {
		catalog := NewTestCatalog()
		assert.Empty(t, catalog.Permissions(testRoleMember))
	})
}
