package rolegate

import (
	"context"
	"strings"
)

// Well-known gate resources and actions used by the transport layer.
const (
	ResourceRoles = "roles"
	ResourceAudit = "audit"

	ActionManage = "manage"
	ActionRead   = "read"
)

// PermissionMatcher handles permission matching with wildcard support.
//
// Supported patterns:
//   - "*" matches all permissions
//   - "roles.*" matches all actions on a resource
//   - "*.read" matches an action on all resources
//   - "roles.manage" matches exactly
type PermissionMatcher struct{}

// NewPermissionMatcher creates a new PermissionMatcher.
func NewPermissionMatcher() *PermissionMatcher {
	return &PermissionMatcher{}
}

// Match checks if a permission pattern matches a required permission.
//
// Examples:
//
//	Match("*", "roles.manage")          // true - wildcard matches all
//	Match("roles.*", "roles.manage")    // true - resource wildcard
//	Match("*.read", "audit.read")       // true - action wildcard
//	Match("audit.read", "audit.read")   // true - exact match
//	Match("audit.read", "roles.manage") // false - no match
func (pm *PermissionMatcher) Match(pattern, permission string) bool {
	// Exact match
	if pattern == permission {
		return true
	}

	// Universal wildcard
	if pattern == "*" {
		return true
	}

	patternParts := strings.Split(pattern, ".")
	permParts := strings.Split(permission, ".")

	if len(patternParts) != len(permParts) {
		return false
	}

	for i, pp := range patternParts {
		if pp == "*" {
			continue
		}
		if pp != permParts[i] {
			return false
		}
	}

	return true
}

// MatchAny checks if any of the patterns match the required permission.
func (pm *PermissionMatcher) MatchAny(patterns []string, permission string) bool {
	for _, pattern := range patterns {
		if pm.Match(pattern, permission) {
			return true
		}
	}
	return false
}

// DefaultMatcher is the default permission matcher instance.
var DefaultMatcher = NewPermissionMatcher()

// MatchPermission is a convenience function using the default matcher.
func MatchPermission(pattern, permission string) bool {
	return DefaultMatcher.Match(pattern, permission)
}

// MatchAnyPermission is a convenience function using the default matcher.
func MatchAnyPermission(patterns []string, permission string) bool {
	return DefaultMatcher.MatchAny(patterns, permission)
}

// CatalogGate is a PermissionGate backed by the catalog's per-role
// permission grants and the user's stored assignment. Deployments with an
// external policy service supply their own PermissionGate instead.
type CatalogGate struct {
	service *Service
	matcher *PermissionMatcher
}

// NewCatalogGate creates a gate over a service's catalog and assignments.
//
// Example:
//
//	catalog.Grant("admin", "roles.*", "audit.read")
//	gate := rolegate.NewCatalogGate(service)
func NewCatalogGate(service *Service) *CatalogGate {
	return &CatalogGate{
		service: service,
		matcher: NewPermissionMatcher(),
	}
}

// HasPermission reports whether the actor's role grants resource.action.
// Unknown actors and actors with no assignment have no permissions.
func (g *CatalogGate) HasPermission(ctx context.Context, actorID, resource, action string) bool {
	assignment, err := g.service.GetAssignment(ctx, actorID)
	if err != nil {
		return false
	}
	patterns := g.service.catalog.Permissions(assignment.RoleID)
	return g.matcher.MatchAny(patterns, resource+"."+action)
}

// PermissionGateFunc adapts a function to the PermissionGate interface.
type PermissionGateFunc func(ctx context.Context, actorID, resource, action string) bool

// HasPermission implements PermissionGate.
func (f PermissionGateFunc) HasPermission(ctx context.Context, actorID, resource, action string) bool {
	return f(ctx, actorID, resource, action)
}

// IdentityProviderFunc adapts a function to the IdentityProvider interface.
type IdentityProviderFunc func(ctx context.Context, credential string) (Actor, error)

// ResolveActor implements IdentityProvider.
func (f IdentityProviderFunc) ResolveActor(ctx context.Context, credential string) (Actor, error) {
	return f(ctx, credential)
}
