package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/pawclinic-backend/internal/http/response"
	"github.com/yungbote/pawclinic-backend/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// POST /api/auth/register
func (ah *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Phone     string `json:"phone"`
	}
	if !bindJSON(c, &req) {
		return
	}
	user, err := ah.authService.Register(c.Request.Context(), services.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		response.RespondServiceError(c, "registration_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"user": user})
}

// POST /api/auth/login
func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &req) {
		return
	}
	tokens, err := ah.authService.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if err != nil {
		response.RespondServiceError(c, "login_failed", err)
		return
	}
	response.RespondOK(c, tokens)
}

// POST /api/auth/refresh
func (ah *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !bindJSON(c, &req) {
		return
	}
	tokens, err := ah.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.RespondServiceError(c, "refresh_failed", err)
		return
	}
	response.RespondOK(c, tokens)
}

// POST /api/auth/logout
func (ah *AuthHandler) Logout(c *gin.Context) {
	if err := ah.authService.Logout(c.Request.Context()); err != nil {
		response.RespondServiceError(c, "logout_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /api/auth/logout-all
func (ah *AuthHandler) LogoutEverywhere(c *gin.Context) {
	n, err := ah.authService.LogoutEverywhere(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, "logout_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "sessions_ended": n})
}
