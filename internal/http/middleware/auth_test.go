package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/pawclinic-backend/internal/domain"
	"github.com/yungbote/pawclinic-backend/internal/http/response"
	"github.com/yungbote/pawclinic-backend/internal/platform/apierr"
	"github.com/yungbote/pawclinic-backend/internal/platform/ctxutil"
	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
	"github.com/yungbote/pawclinic-backend/internal/services"
)

// stubAuth accepts tokens of the form "<role>" and rejects everything else.
type stubAuth struct {
	services.AuthService
	userID uuid.UUID
}

func (s *stubAuth) SetContextFromToken(ctx context.Context, token string) (context.Context, error) {
	switch types.Role(token) {
	case types.RoleCustomer, types.RoleStaff, types.RoleAdmin:
		rd := ctxutil.GetRequestData(ctx).WithCaller(token, s.userID, token)
		return ctxutil.WithRequestData(ctx, rd), nil
	}
	return ctx, apierr.Unauthorized()
}

func (s *stubAuth) AccessTTL() time.Duration { return time.Hour }

func newAuthEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	am := NewAuthMiddleware(logger.NewNop(), &stubAuth{userID: uuid.New()})

	r := gin.New()
	r.Use(RequestContext())
	authed := r.Group("/api", am.RequireAuth())
	authed.GET("/me", func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		c.String(http.StatusOK, rd.Role+"|"+rd.ClientIP)
	})
	authed.GET("/admin", RequireRole(types.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	authed.GET("/staff", RequireRole(types.RoleStaff, types.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/page", am.OptionalAuth(), func(c *gin.Context) {
		if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil && rd.UserID != uuid.Nil {
			c.String(http.StatusOK, "signed-in")
			return
		}
		c.String(http.StatusOK, "anonymous")
	})
	return r
}

func do(r *gin.Engine, path string, prep func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "203.0.113.7:5555"
	if prep != nil {
		prep(req)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func TestRequireAuthAcceptsBearerAndCookie(t *testing.T) {
	r := newAuthEngine(t)

	rec := do(r, "/api/me", bearer("customer"))
	if rec.Code != http.StatusOK || rec.Body.String() != "customer|203.0.113.7" {
		t.Fatalf("bearer: status=%d body=%q", rec.Code, rec.Body.String())
	}

	rec = do(r, "/api/me", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "staff"})
	})
	if rec.Code != http.StatusOK || rec.Body.String() != "staff|203.0.113.7" {
		t.Fatalf("cookie: status=%d body=%q", rec.Code, rec.Body.String())
	}

	if rec := do(r, "/api/me", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: got=%d", rec.Code)
	}
	if rec := do(r, "/api/me", bearer("forged")); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: got=%d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	r := newAuthEngine(t)
	cases := []struct {
		path  string
		token string
		want  int
	}{
		{"/api/admin", "admin", http.StatusNoContent},
		{"/api/admin", "staff", http.StatusForbidden},
		{"/api/admin", "customer", http.StatusForbidden},
		{"/api/staff", "staff", http.StatusNoContent},
		{"/api/staff", "admin", http.StatusNoContent},
		{"/api/staff", "customer", http.StatusForbidden},
	}
	for _, tc := range cases {
		if rec := do(r, tc.path, bearer(tc.token)); rec.Code != tc.want {
			t.Fatalf("%s as %s: got=%d want=%d", tc.path, tc.token, rec.Code, tc.want)
		}
	}
}

func TestOptionalAuthNeverAborts(t *testing.T) {
	r := newAuthEngine(t)
	if rec := do(r, "/page", bearer("forged")); rec.Body.String() != "anonymous" {
		t.Fatalf("forged token: %q", rec.Body.String())
	}
	if rec := do(r, "/page", bearer("admin")); rec.Body.String() != "signed-in" {
		t.Fatalf("valid token: %q", rec.Body.String())
	}
}

func TestAuthRejectionsUseErrorEnvelope(t *testing.T) {
	r := newAuthEngine(t)
	rec := do(r, "/api/admin", func(req *http.Request) {
		req.Header.Set("Authorization", "bearer staff")
		req.Header.Set(HeaderRequestID, "req-auth-1")
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status=%d", rec.Code)
	}
	var env response.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error.Code != "forbidden" || env.Error.RequestID != "req-auth-1" {
		t.Fatalf("envelope=%+v", env.Error)
	}
}
