package rolegate

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/fernandezvara/dbkit"
)

// Catalog holds all role definitions and their hierarchy levels.
// It is created at startup and should be treated as immutable after
// initialization. The catalog is read-only reference data: the
// authoritative privilege check is always re-run by the Validator at
// assignment time, never against a cached assignable list.
type Catalog struct {
	mu    sync.RWMutex
	roles map[string]*Role
	perms map[string][]string // role id -> permission patterns
}

// NewCatalog creates an empty role catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		roles: make(map[string]*Role),
		perms: make(map[string][]string),
	}
}

// Define adds a role with the given hierarchy level.
// Returns the catalog for fluent chaining.
//
// Example:
//
//	catalog := rolegate.NewCatalog().
//	    Define("super_admin", "super_admin", 4).
//	    Define("admin", "admin", 3).
//	    Define("moderator", "moderator", 2).
//	    Define("editor", "editor", 1).
//	    Define("member", "member", 0)
func (c *Catalog) Define(id, name string, level int) *Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.roles[id] = &Role{ID: id, Name: name, Level: level}
	return c
}

// Grant attaches permission patterns to a role for gate checks.
// Patterns support wildcards: "*", "roles.*", "*.read".
func (c *Catalog) Grant(roleID string, patterns ...string) *Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.perms[roleID] = append(c.perms[roleID], patterns...)
	return c
}

// Get returns the role for an ID, or ErrRoleNotFound.
func (c *Catalog) Get(roleID string) (*Role, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	role, exists := c.roles[roleID]
	if !exists {
		return nil, NewError(ErrRoleNotFound, fmt.Sprintf("role %q not defined", roleID)).
			WithRole(roleID)
	}
	return role, nil
}

// GetByName returns the role for a name, or ErrRoleNotFound.
func (c *Catalog) GetByName(name string) (*Role, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, role := range c.roles {
		if role.Name == name {
			return role, nil
		}
	}
	return nil, NewError(ErrRoleNotFound, fmt.Sprintf("role named %q not defined", name))
}

// Roles returns all defined roles ordered by level descending.
func (c *Catalog) Roles() []Role {
	c.mu.RLock()
	defer c.mu.RUnlock()

	roles := make([]Role, 0, len(c.roles))
	for _, r := range c.roles {
		roles = append(roles, *r)
	}
	sort.Slice(roles, func(i, j int) bool {
		if roles[i].Level != roles[j].Level {
			return roles[i].Level > roles[j].Level
		}
		return roles[i].ID < roles[j].ID
	})
	return roles
}

// MaxLevel returns the highest defined level, the unrestricted tier.
// Returns -1 for an empty catalog.
func (c *Catalog) MaxLevel() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	max := -1
	for _, r := range c.roles {
		if r.Level > max {
			max = r.Level
		}
	}
	return max
}

// Permissions returns the permission patterns granted to a role.
func (c *Catalog) Permissions(roleID string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.perms[roleID]
}

// AssignableRoles returns the roles an actor may offer for assignment:
// every role below the actor's level, or every role except the actor's
// own when the actor holds the maximum level. Presentation only; the
// Validator re-checks at assignment time.
func (c *Catalog) AssignableRoles(actorRoleID string) ([]Role, error) {
	actorRole, err := c.Get(actorRoleID)
	if err != nil {
		return nil, err
	}

	maxLevel := c.MaxLevel()
	var assignable []Role
	for _, role := range c.Roles() {
		if actorRole.Level == maxLevel {
			if role.ID != actorRole.ID {
				assignable = append(assignable, role)
			}
			continue
		}
		if role.Level < actorRole.Level {
			assignable = append(assignable, role)
		}
	}
	return assignable, nil
}

// LoadCatalog builds a catalog from the roles table.
//
// Example:
//
//	catalog, err := rolegate.LoadCatalog(ctx, db)
func LoadCatalog(ctx context.Context, db dbkit.IDB) (*Catalog, error) {
	var roles []Role
	err := dbkit.WithErr1(db.NewSelect().Model(&roles).Order("level ASC").Scan(ctx), "LoadCatalog").Err()
	if err != nil {
		return nil, err
	}

	catalog := NewCatalog()
	for _, r := range roles {
		catalog.Define(r.ID, r.Name, r.Level)
	}
	return catalog, nil
}

// SeedRoles inserts the catalog's roles into the roles table, skipping
// roles that already exist. Intended for bootstrap and tests.
func (c *Catalog) SeedRoles(ctx context.Context, db dbkit.IDB) error {
	for _, role := range c.Roles() {
		r := role
		result, err := db.NewInsert().Model(&r).On("CONFLICT (id) DO NOTHING").Exec(ctx)
		if err := dbkit.WithErr(result, err, "SeedRoles").Err(); err != nil {
			if dbkit.IsDuplicate(err) {
				continue
			}
			return err
		}
	}
	return nil
}
