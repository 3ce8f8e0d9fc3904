package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestCORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name       string
		configured []string
		origin     string
		allowed    bool
	}{
		{"vite dev server", nil, "http://localhost:5173", true},
		{"loopback ip", nil, "http://127.0.0.1:3000", true},
		{"unknown origin", nil, "https://evil.example", false},
		{"configured origin", []string{"https://pawclinic.example"}, "https://pawclinic.example", true},
		{"configured list drops dev origins", []string{"https://pawclinic.example"}, "http://localhost:5173", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(CORS(tc.configured))
			r.POST("/api/auth/login", func(c *gin.Context) { c.Status(http.StatusNoContent) })

			req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
			req.Header.Set("Origin", tc.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			got := rec.Header().Get("Access-Control-Allow-Origin")
			if tc.allowed {
				if rec.Code != http.StatusNoContent || got != tc.origin {
					t.Fatalf("want %q admitted, got status=%d allow-origin=%q", tc.origin, rec.Code, got)
				}
				if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
					t.Fatalf("credentials not allowed")
				}
				return
			}
			if rec.Code != http.StatusForbidden || got != "" {
				t.Fatalf("want %q rejected, got status=%d allow-origin=%q", tc.origin, rec.Code, got)
			}
		})
	}
}
