package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unitrack/attendance-api/internal/middleware"
	"github.com/unitrack/attendance-api/internal/models"
	"github.com/unitrack/attendance-api/internal/service"
	appErrors "github.com/unitrack/attendance-api/pkg/errors"
	"github.com/unitrack/attendance-api/pkg/response"
)

// UserHandler exposes admin account management endpoints.
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler constructs UserHandler.
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// List returns accounts, optionally filtered by role.
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(c.Request.Context(), c.Query("role"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"users": users})
}

// CreateTeacher provisions a teacher account.
func (h *UserHandler) CreateTeacher(c *gin.Context) {
	var req models.CreateTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}

	createdBy := ""
	if claims := middleware.CurrentUser(c); claims != nil {
		createdBy = claims.UserID
	}

	teacher, err := h.users.CreateTeacher(c.Request.Context(), req, createdBy)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, gin.H{"user": teacher})
}

// Delete removes an account and its enrollments.
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "User deleted successfully"})
}
