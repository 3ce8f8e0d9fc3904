package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/pawclinic-backend/internal/data/repos/testutil"
	types "github.com/yungbote/pawclinic-backend/internal/domain"
	"github.com/yungbote/pawclinic-backend/internal/platform/dbctx"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		AppEnv:          "test",
		JWTSecretKey:    "test-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
		Login:           LoginConfig{MaxAttempts: 3, Window: time.Minute},
		Clinic:          ClinicConfig{TimeZone: "UTC", OpenHour: 9, CloseHour: 17, SlotMinutes: 30},
		Storage:         StorageConfig{Mode: "local", LocalDir: t.TempDir(), PublicBaseURL: "/media"},
		Otel:            OtelConfig{ServiceName: "pawclinic-test"},
		MetricsEnabled:  true,
	}
}

type testApp struct {
	t   *testing.T
	app *App
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	a, err := build(context.Background(), testutil.Logger(t), testConfig(t), testutil.DB(t))
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return &testApp{t: t, app: a}
}

func (ta *testApp) do(method, path, token string, body any) *httptest.ResponseRecorder {
	ta.t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(ta.t, err)
		rdr = bytes.NewReader(raw)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.RemoteAddr = "198.51.100.20:40000"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ta.app.Server.Engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (ta *testApp) register(email, password string) uuid.UUID {
	ta.t.Helper()
	w := ta.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": email, "password": password, "first_name": "Ana", "last_name": "Silva",
	})
	require.Equal(ta.t, http.StatusCreated, w.Code, w.Body.String())
	out := decode[struct {
		User types.User `json:"user"`
	}](ta.t, w)
	return out.User.ID
}

func (ta *testApp) login(email, password string) string {
	ta.t.Helper()
	w := ta.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(ta.t, http.StatusOK, w.Code, w.Body.String())
	out := decode[struct {
		AccessToken string `json:"access_token"`
	}](ta.t, w)
	require.NotEmpty(ta.t, out.AccessToken)
	return out.AccessToken
}

func (ta *testApp) setRole(id uuid.UUID, role types.Role) {
	ta.t.Helper()
	require.NoError(ta.t, ta.app.DB.Model(&types.User{}).Where("id = ?", id).Update("role", role).Error)
}

func (ta *testApp) stock(id uuid.UUID) int {
	ta.t.Helper()
	p, err := ta.app.Repos.Products.GetByID(dbctx.Context{Ctx: context.Background()}, id)
	require.NoError(ta.t, err)
	require.NotNil(ta.t, p)
	return p.Stock
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	ta := newTestApp(t)

	w := ta.do(http.MethodGet, "/healthcheck", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())

	w = ta.do(http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ta.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pawclinic_http_requests_total")
}

func TestCheckoutAndAdminStatusReconcileStock(t *testing.T) {
	ta := newTestApp(t)
	ctx := context.Background()
	product := testutil.SeedProduct(t, ctx, ta.app.DB, "salmon-kibble", 1250, 10)

	ta.register("owner@example.com", "correct-horse")
	owner := ta.login("owner@example.com", "correct-horse")
	adminID := ta.register("admin@example.com", "correct-horse")
	ta.setRole(adminID, types.RoleAdmin)
	admin := ta.login("admin@example.com", "correct-horse")

	w := ta.do(http.MethodPost, "/api/orders", owner, map[string]any{
		"items":            []map[string]any{{"product_id": product.ID, "quantity": 3}},
		"shipping_name":    "Ana Silva",
		"shipping_address": map[string]string{"line1": "1 Bark St"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	placed := decode[struct {
		Order struct {
			ID         uuid.UUID `json:"id"`
			Status     string    `json:"status"`
			TotalCents int64     `json:"total_cents"`
		} `json:"order"`
	}](t, w).Order
	assert.Equal(t, "pending", placed.Status)
	assert.EqualValues(t, 3750, placed.TotalCents)
	assert.Equal(t, 7, ta.stock(product.ID))

	w = ta.do(http.MethodPost, "/api/orders", owner, map[string]any{
		"items": []map[string]any{{"product_id": product.ID, "quantity": 8}},
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "insufficient_stock")
	assert.Equal(t, 7, ta.stock(product.ID))

	// A customer cannot reach the admin surface.
	w = ta.do(http.MethodPut, "/api/admin/orders/"+placed.ID.String(), owner, map[string]string{"status": "cancelled"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	orderPath := "/api/admin/orders/" + placed.ID.String()
	steps := []struct {
		status string
		stock  int
	}{
		{"cancelled", 10},
		{"cancelled", 10},
		{"paid", 7},
		{"shipped", 7},
		{"cancelled", 10},
	}
	for _, s := range steps {
		w = ta.do(http.MethodPut, orderPath, admin, map[string]string{"status": s.status})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, s.stock, ta.stock(product.ID), "after %s", s.status)
	}

	w = ta.do(http.MethodGet, "/api/orders/"+placed.ID.String(), owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"cancelled"`)

	w = ta.do(http.MethodGet, "/api/admin/dashboard", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestLoginIsRateLimited(t *testing.T) {
	ta := newTestApp(t)
	ta.register("owner@example.com", "correct-horse")

	for i := 0; i < 3; i++ {
		w := ta.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "owner@example.com", "password": "wrong-pass"})
		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "invalid_credentials")
	}

	w := ta.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "owner@example.com", "password": "correct-horse"})
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "too_many_attempts")
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// Other addresses keep their own budget.
	w = ta.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "other@example.com", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshAfterAccessTokenExpires(t *testing.T) {
	cfg := testConfig(t)
	cfg.AccessTokenTTL = time.Second
	a, err := build(context.Background(), testutil.Logger(t), cfg, testutil.DB(t))
	require.NoError(t, err)
	t.Cleanup(a.Close)
	ta := &testApp{t: t, app: a}
	ta.register("owner@example.com", "correct-horse")

	w := ta.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "owner@example.com", "password": "correct-horse"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	pair := decode[struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}](t, w)

	// exp has second precision.
	time.Sleep(2100 * time.Millisecond)
	w = ta.do(http.MethodGet, "/api/me", pair.AccessToken, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code, "access token should have expired")

	// With the stale bearer attached and without any bearer.
	for _, bearer := range []string{pair.AccessToken, ""} {
		w = ta.do(http.MethodPost, "/api/auth/refresh", bearer, map[string]string{"refresh_token": pair.RefreshToken})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		next := decode[struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
		}](t, w)
		require.NotEmpty(t, next.AccessToken)
		assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)
		pair.RefreshToken = next.RefreshToken
	}
}

func TestRoleGuards(t *testing.T) {
	ta := newTestApp(t)
	ta.register("owner@example.com", "correct-horse")
	owner := ta.login("owner@example.com", "correct-horse")
	staffID := ta.register("vet@example.com", "correct-horse")
	ta.setRole(staffID, types.RoleStaff)
	staff := ta.login("vet@example.com", "correct-horse")

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"anonymous me", http.MethodGet, "/api/me", "", http.StatusUnauthorized},
		{"customer me", http.MethodGet, "/api/me", owner, http.StatusOK},
		{"customer staff list", http.MethodGet, "/api/staff/appointments", owner, http.StatusForbidden},
		{"staff list", http.MethodGet, "/api/staff/appointments", staff, http.StatusOK},
		{"staff dashboard", http.MethodGet, "/api/admin/dashboard", staff, http.StatusForbidden},
		{"public products", http.MethodGet, "/api/products", "", http.StatusOK},
		{"public vets", http.MethodGet, "/api/vets", "", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := ta.do(tc.method, tc.path, tc.token, nil)
			assert.Equal(t, tc.want, w.Code, w.Body.String())
		})
	}
}

func TestWebLoginSetsSessionCookie(t *testing.T) {
	ta := newTestApp(t)
	ta.register("owner@example.com", "correct-horse")

	w := ta.do(http.MethodGet, "/account", "", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	post := func(password string) *httptest.ResponseRecorder {
		form := url.Values{"email": {"owner@example.com"}, "password": {password}}
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.RemoteAddr = "198.51.100.30:40000"
		rec := httptest.NewRecorder()
		ta.app.Server.Engine.ServeHTTP(rec, req)
		return rec
	}

	w = post("wrong-pass")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid email or password.")

	w = post("correct-horse")
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	assert.Equal(t, "/account", w.Header().Get("Location"))
	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "pc_session" {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/account", nil)
	req.AddCookie(session)
	rec := httptest.NewRecorder()
	ta.app.Server.Engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Hello, Ana")
}

func TestRunStopsOnContextCancel(t *testing.T) {
	ta := newTestApp(t)
	ta.app.Cfg.Port = "0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ta.app.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestSweepSessionsRemovesExpiredTokens(t *testing.T) {
	ta := newTestApp(t)
	dbc := dbctx.Context{Ctx: context.Background()}
	u := testutil.SeedUser(t, context.Background(), ta.app.DB, "sleepy@example.com")
	require.NoError(t, ta.app.Repos.UserTokens.Create(dbc, &types.UserToken{
		UserID: u.ID, AccessToken: "old-access", RefreshToken: "old-refresh", ExpiresAt: time.Now().Add(-time.Minute),
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ta.app.sweepSessions(ctx, 10*time.Millisecond)
		close(done)
	}()
	require.Eventually(t, func() bool {
		tok, err := ta.app.Repos.UserTokens.FindByAccessToken(dbc, "old-access")
		return err == nil && tok == nil
	}, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done
}
