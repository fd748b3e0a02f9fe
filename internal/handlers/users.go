package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/stackapp/internal/middleware"
	"github.com/charlesng35/stackapp/internal/models"
	"github.com/charlesng35/stackapp/internal/services"
	"github.com/charlesng35/stackapp/pkg/errors"
	"github.com/charlesng35/stackapp/pkg/response"
)

// UserHandler exposes account administration to admins.
type UserHandler struct {
	service *services.UserService
}

func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

type userResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	IsActive    bool      `json:"is_active"`
	IsSuperuser bool      `json:"is_superuser"`
	Roles       []string  `json:"roles"`
	CreatedAt   time.Time `json:"created_at"`
}

type setRolesRequest struct {
	Roles []string `json:"roles" validate:"dive,required,max=64"`
}

type updateUserRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

func newUserResponse(user *models.User) userResponse {
	return userResponse{
		ID:          user.ID,
		Email:       user.Email,
		IsActive:    user.IsActive,
		IsSuperuser: user.IsSuperuser,
		Roles:       user.RoleNames(),
		CreatedAt:   user.CreatedAt,
	}
}

// GET /api/admin/users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.service.List(requestContext(c))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]userResponse, len(users))
	for i := range users {
		out[i] = newUserResponse(&users[i])
	}
	response.SuccessWithMeta(c, http.StatusOK, out, &response.Meta{Total: len(out)})
}

// PUT /api/admin/users/:id/roles
func (h *UserHandler) SetRoles(c *gin.Context) {
	var body setRolesRequest
	if !bindAndValidate(c, &body) {
		return
	}

	user, err := h.service.SetRoles(requestContext(c), c.Param("id"), body.Roles)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, newUserResponse(user))
}

// PATCH /api/admin/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	var body updateUserRequest
	if !bindAndValidate(c, &body) {
		return
	}

	actor := middleware.CurrentUser(c)
	user, err := h.service.SetActive(requestContext(c), actor.ID, c.Param("id"), *body.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, newUserResponse(user))
}

// DELETE /api/admin/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	if actor == nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(requestContext(c), actor.ID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
