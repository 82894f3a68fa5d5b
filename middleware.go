package rolegate

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Middleware provides HTTP middleware for authentication, permission
// gating and audit-context injection. The transport layer mounts these in
// front of its handlers; the engine itself never reads HTTP requests.
type Middleware struct {
	identity IdentityProvider
	gate     PermissionGate
}

// MiddlewareOption configures the Middleware.
type MiddlewareOption func(*Middleware)

// NewMiddleware creates a new Middleware instance.
//
// Example:
//
//	mw := rolegate.NewMiddleware(
//	    rolegate.WithIdentityProvider(provider),
//	    rolegate.WithPermissionGate(rolegate.NewCatalogGate(service)),
//	)
func NewMiddleware(opts ...MiddlewareOption) *Middleware {
	m := &Middleware{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithIdentityProvider sets the identity provider used by Authenticate.
func WithIdentityProvider(provider IdentityProvider) MiddlewareOption {
	return func(m *Middleware) {
		m.identity = provider
	}
}

// WithPermissionGate sets the gate used by RequirePermission.
func WithPermissionGate(gate PermissionGate) MiddlewareOption {
	return func(m *Middleware) {
		m.gate = gate
	}
}

// Authenticate resolves the actor from the request credential and stores
// it in context. Requests the provider cannot resolve get 401.
//
// Example:
//
//	router.Use(mw.Authenticate())
func (m *Middleware) Authenticate() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credential := bearerToken(r)
			if credential == "" || m.identity == nil {
				WriteError(w, NewError(ErrUnauthenticated, "missing credential"))
				return
			}

			actor, err := m.identity.ResolveActor(r.Context(), credential)
			if err != nil {
				WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// RequirePermission gates a route on a resource/action pair. The actor
// must already be in context (see Authenticate).
//
// Example:
//
//	router.With(mw.RequirePermission(rolegate.ResourceRoles, rolegate.ActionManage)).
//	    Post("/roles/assign", assignHandler)
func (m *Middleware) RequirePermission(resource, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := GetActor(r.Context())
			if !ok {
				WriteError(w, NewError(ErrUnauthenticated, "no actor in context"))
				return
			}

			if m.gate == nil || !m.gate.HasPermission(r.Context(), actor.ID, resource, action) {
				WriteError(w, NewError(ErrPermissionDenied, resource+"."+action).
					WithActor(actor.ID))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// InjectAuditContext extracts forensic information from the request and
// adds it to the context for use by assignment operations. A request ID
// is generated when the client did not send one.
//
// Example:
//
//	router.Use(mw.InjectAuditContext())
func (m *Middleware) InjectAuditContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			ip := r.Header.Get("X-Forwarded-For")
			if ip == "" {
				ip = r.Header.Get("X-Real-IP")
			}
			if ip == "" {
				ip = r.RemoteAddr
			}
			ctx = WithIPAddress(ctx, ip)
			ctx = WithUserAgent(ctx, r.UserAgent())

			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.NewString()
			}
			ctx = WithRequestID(ctx, requestID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return token
	}
	return header
}

// errorBody is the JSON error payload written by WriteError.
type errorBody struct {
	Success          bool   `json:"success"`
	Error            string `json:"error"`
	Reason           string `json:"reason,omitempty"`
	RiskLevel        string `json:"risk_level,omitempty"`
	RequiresApproval bool   `json:"requires_approval,omitempty"`
}

// WriteError maps a rolegate error to its HTTP status and writes a JSON
// body carrying the machine-readable reason and, where computed, the risk
// level and approval flag.
func WriteError(w http.ResponseWriter, err error) {
	body := errorBody{Error: err.Error()}

	var re *Error
	if errors.As(err, &re) {
		body.Reason = re.Message
		body.RiskLevel = string(re.RiskLevel)
		body.RequiresApproval = re.RequiresApproval
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(StatusOf(err))
	_ = json.NewEncoder(w).Encode(body)
}

// StatusOf returns the HTTP status for a rolegate error.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrBatchTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrPermissionDenied),
		errors.Is(err, ErrHierarchyViolation),
		errors.Is(err, ErrSelfAssignment),
		errors.Is(err, ErrApprovalRequired):
		return http.StatusForbidden
	case errors.Is(err, ErrRoleNotFound), errors.Is(err, ErrAssignmentNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyAssigned):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
