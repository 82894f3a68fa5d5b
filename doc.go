// Package rolegate provides role-based access-control administration for
// an institutional portal: single-role assignment under a strict privilege
// hierarchy, bulk assignment with partial-failure accounting, and an
// immutable audit trail with search, aggregation and export.
//
// # Core Concepts
//
// Role: a named privilege tier with an integer level. Levels induce a
// total order; the highest defined level is the unrestricted "super" tier.
//
// Assignment: the binding of exactly one role to one user, unique per
// user and enforced by a storage constraint. A role change is a
// delete+insert committed atomically with its audit record.
//
// Privilege escalation: an attempt to grant a role at or above the
// actor's own level. The Validator rejects it with a risk classification,
// and the denial is persisted to the audit log before the error surfaces.
//
// Audit record: an immutable, write-once record of every state-changing
// or denied security-relevant action, always read newest first.
//
// # Basic Usage
//
//	// 1. Define the role hierarchy (at application startup)
//	catalog := rolegate.NewCatalog().
//	    Define("super_admin", "super_admin", 4).
//	    Define("admin", "admin", 3).
//	    Define("moderator", "moderator", 2).
//	    Define("editor", "editor", 1).
//	    Define("member", "member", 0)
//
//	catalog.Grant("super_admin", "*")
//	catalog.Grant("admin", "roles.*", "audit.read")
//
//	// 2. Create the service
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	service := rolegate.NewService(catalog, db, rolegate.WithLogger(logger))
//
//	// 3. Run migrations
//	db.Migrate(ctx, service.Migrations())
//
//	// 4. Assign roles
//	actor := rolegate.Actor{ID: "admin-1", RoleID: "admin"}
//	assignment, err := service.AssignRole(ctx, actor, "user-42", "editor", "onboarding")
//
//	// 5. Batch assignment (two-phase, atomic execution)
//	result, err := service.AssignRolesBatch(ctx, actor, items)
//
//	// 6. Query the audit trail
//	records, total, err := service.GetAuditLog(ctx,
//	    rolegate.NewAuditFilter().WithUser("user-42"))
//	payload, err := service.ExportAuditLog(ctx, rolegate.NewAuditFilter(), rolegate.ExportCSV)
//
// # Middleware Usage
//
//	mw := rolegate.NewMiddleware(
//	    rolegate.WithIdentityProvider(provider),
//	    rolegate.WithPermissionGate(rolegate.NewCatalogGate(service)),
//	)
//
//	router.Use(mw.Authenticate())
//	router.Use(mw.InjectAuditContext())
//	router.With(mw.RequirePermission(rolegate.ResourceRoles, rolegate.ActionManage)).
//	    Post("/roles/assign", assignHandler)
//
// The HTTP transport, request parsing and session verification live
// outside this package; it consumes only the IdentityProvider and
// PermissionGate interfaces and a dbkit database handle.
package rolegate
