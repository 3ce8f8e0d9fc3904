package handlers

import (
	"github.com/gin-gonic/gin"

	types "github.com/yungbote/pawclinic-backend/internal/domain"
	"github.com/yungbote/pawclinic-backend/internal/http/response"
	"github.com/yungbote/pawclinic-backend/internal/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GET /api/me
func (uh *UserHandler) GetMe(c *gin.Context) {
	me, err := uh.userService.GetMe(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, "get_me_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"me": me})
}

// PATCH /api/me
// body: { "first_name": "...", "last_name": "...", "phone": "..." }
func (uh *UserHandler) UpdateMe(c *gin.Context) {
	var req struct {
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
		Phone     *string `json:"phone"`
	}
	if !bindJSON(c, &req) {
		return
	}
	me, err := uh.userService.UpdateProfile(c.Request.Context(), services.UpdateProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		response.RespondServiceError(c, "update_profile_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"me": me})
}

// GET /api/vets
func (uh *UserHandler) ListVets(c *gin.Context) {
	vets, err := uh.userService.ListVets(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, "list_vets_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"vets": vets})
}

// GET /api/admin/users?role=staff&page=1
func (uh *UserHandler) ListUsers(c *gin.Context) {
	page, err := uh.userService.ListUsers(c.Request.Context(), types.Role(c.Query("role")), pageFromQuery(c))
	if err != nil {
		response.RespondServiceError(c, "list_users_failed", err)
		return
	}
	response.RespondOK(c, page)
}

// PUT /api/admin/users/:id/role
// body: { "role": "customer" | "staff" | "admin" }
func (uh *UserHandler) SetRole(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_user_id")
	if !ok {
		return
	}
	var req struct {
		Role types.Role `json:"role"`
	}
	if !bindJSON(c, &req) {
		return
	}
	user, err := uh.userService.SetRole(c.Request.Context(), id, req.Role)
	if err != nil {
		response.RespondServiceError(c, "set_role_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"user": user})
}
