package rolegate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticIdentity(token string, actor Actor) IdentityProvider {
	return IdentityProviderFunc(func(ctx context.Context, credential string) (Actor, error) {
		if credential == token {
			return actor, nil
		}
		return Actor{}, NewError(ErrUnauthenticated, "unknown credential")
	})
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAuthenticate(t *testing.T) {
	admin := Actor{ID: "admin-1", RoleID: testRoleAdmin}
	mw := NewMiddleware(WithIdentityProvider(staticIdentity("good-token", admin)))

	var seen Actor
	handler := mw.Authenticate()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetActor(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("Valid bearer token resolves the actor", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/roles/assign", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, admin, seen)
	})

	t.Run("Missing credential gets 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/roles/assign", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		body := decodeErrorBody(t, rec)
		assert.False(t, body.Success)
		assert.Contains(t, body.Error, "unauthenticated")
	})

	t.Run("Unresolvable credential gets 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/roles/assign", nil)
		req.Header.Set("Authorization", "Bearer wrong-token")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("No identity provider configured gets 401", func(t *testing.T) {
		bare := NewMiddleware()
		h := bare.Authenticate()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not run")
		}))

		req := httptest.NewRequest(http.MethodGet, "/audit", nil)
		req.Header.Set("Authorization", "Bearer anything")
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequirePermission(t *testing.T) {
	gate := PermissionGateFunc(func(ctx context.Context, actorID, resource, action string) bool {
		return actorID == "admin-1" && resource == ResourceRoles && action == ActionManage
	})
	mw := NewMiddleware(WithPermissionGate(gate))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := mw.RequirePermission(ResourceRoles, ActionManage)(next)

	t.Run("Permitted actor passes through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/roles/assign", nil)
		req = req.WithContext(WithActor(req.Context(), Actor{ID: "admin-1", RoleID: testRoleAdmin}))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("Denied actor gets 403 with reason", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/roles/assign", nil)
		req = req.WithContext(WithActor(req.Context(), Actor{ID: "user-1", RoleID: testRoleMember}))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		body := decodeErrorBody(t, rec)
		assert.Equal(t, "roles.manage", body.Reason)
	})

	t.Run("No actor in context gets 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/roles/assign", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestInjectAuditContext(t *testing.T) {
	mw := NewMiddleware()

	var captured AuditContext
	handler := mw.InjectAuditContext()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetAuditContext(r.Context())
	}))

	t.Run("Headers take precedence", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/roles/assign", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7")
		req.Header.Set("User-Agent", "curl/8.5")
		req.Header.Set("X-Request-ID", "req-42")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, "203.0.113.7", captured.IPAddress)
		assert.Equal(t, "curl/8.5", captured.UserAgent)
		assert.Equal(t, "req-42", captured.RequestID)
	})

	t.Run("X-Real-IP is the fallback", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/roles/assign", nil)
		req.Header.Set("X-Real-IP", "198.51.100.9")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, "198.51.100.9", captured.IPAddress)
	})

	t.Run("RemoteAddr is the last resort", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/roles/assign", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, req.RemoteAddr, captured.IPAddress)
	})

	t.Run("Request ID is generated when absent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/roles/assign", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.NotEmpty(t, captured.RequestID)
	})
}

func TestWriteError(t *testing.T) {
	t.Run("Structured error carries risk fields", func(t *testing.T) {
		rec := httptest.NewRecorder()
		err := NewError(ErrHierarchyViolation, "target role outranks actor").
			WithUser("user-1").
			WithRisk(RiskCritical, true)

		WriteError(rec, err)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		body := decodeErrorBody(t, rec)
		assert.Equal(t, string(RiskCritical), body.RiskLevel)
		assert.True(t, body.RequiresApproval)
		assert.Equal(t, "target role outranks actor", body.Reason)
	})

	t.Run("Plain error falls back to 500", func(t *testing.T) {
		rec := httptest.NewRecorder()

		WriteError(rec, errors.New("boom"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeErrorBody(t, rec)
		assert.Equal(t, "boom", body.Error)
		assert.Empty(t, body.RiskLevel)
	})
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrValidation, http.StatusBadRequest},
		{ErrBatchTooLarge, http.StatusBadRequest},
		{ErrUnauthenticated, http.StatusUnauthorized},
		{ErrPermissionDenied, http.StatusForbidden},
		{ErrHierarchyViolation, http.StatusForbidden},
		{ErrSelfAssignment, http.StatusForbidden},
		{ErrApprovalRequired, http.StatusForbidden},
		{ErrRoleNotFound, http.StatusNotFound},
		{ErrAssignmentNotFound, http.StatusNotFound},
		{ErrAlreadyAssigned, http.StatusConflict},
		{ErrTransactionFailure, http.StatusInternalServerError},
		{errors.New("anything else"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusOf(tt.err), "StatusOf(%v)", tt.err)
		assert.Equal(t, tt.want, StatusOf(NewError(tt.err, "wrapped")), "wrapped StatusOf(%v)", tt.err)
	}
}
