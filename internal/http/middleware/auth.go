package middleware

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/pawclinic-backend/internal/domain"
	"github.com/yungbote/pawclinic-backend/internal/http/response"
	"github.com/yungbote/pawclinic-backend/internal/platform/ctxutil"
	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
	"github.com/yungbote/pawclinic-backend/internal/services"
)

// SessionCookie holds the access token for server-rendered pages.
const SessionCookie = "pc_session"

var (
	errUnauthenticated = errors.New("missing or invalid token")
	errForbidden       = errors.New("forbidden")
)

type AuthMiddleware struct {
	log  *logger.Logger
	auth services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, auth services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "auth"), auth: auth}
}

// RequireAuth rejects the request unless it carries a live session.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", errUnauthenticated)
			return
		}
		if err := am.attach(c, token); err != nil {
			am.log.Debug("session rejected", "route", c.FullPath(), "error", err)
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", errUnauthenticated)
			return
		}
		if caller(c) == nil {
			response.RespondError(c, http.StatusForbidden, "forbidden", errForbidden)
			return
		}
		c.Next()
	}
}

// OptionalAuth attaches the caller when a valid token is present and never aborts.
func (am *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := sessionToken(c); token != "" {
			_ = am.attach(c, token)
		}
		c.Next()
	}
}

func (am *AuthMiddleware) attach(c *gin.Context, token string) error {
	ctx, err := am.auth.SetContextFromToken(c.Request.Context(), token)
	if err != nil {
		return err
	}
	c.Request = c.Request.WithContext(ctx)
	return nil
}

// RequireRole must run after RequireAuth.
func RequireRole(roles ...types.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := caller(c)
		if rd == nil {
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", errUnauthenticated)
			return
		}
		if !slices.Contains(roles, types.Role(rd.Role)) {
			response.RespondError(c, http.StatusForbidden, "forbidden", errForbidden)
			return
		}
		c.Next()
	}
}

// caller returns the signed-in request data, or nil for anonymous requests.
func caller(c *gin.Context) *ctxutil.RequestData {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		return nil
	}
	return rd
}

// sessionToken prefers the Authorization header over the page cookie.
func sessionToken(c *gin.Context) string {
	if scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}
	return ""
}
