package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aleciaid/crm-bj/pkg/models"
	"github.com/aleciaid/crm-bj/pkg/security"
	"github.com/aleciaid/crm-bj/pkg/validation"
)

type UsersHandler struct {
	service *UserService
	logger  *zap.Logger
}

func NewHandler(service *UserService, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{service: service, logger: logger}
}

// RegisterRoutes expects router to be restricted to admins already.
func (h *UsersHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/users", h.GetUserList)
	router.POST("/users", h.RegisterUser)
	router.PUT("/users/:id", h.UpdateUser)
	router.PATCH("/users/:id/status", h.ToggleUserStatus)
	router.DELETE("/users/:id", h.DeleteUser)
}

func (h *UsersHandler) GetUserList(c *gin.Context) {
	accounts, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to get users")
		return
	}

	c.JSON(http.StatusOK, accounts)
}

func (h *UsersHandler) RegisterUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	account, err := h.service.CreateUser(c.Request.Context(), security.ActorFromContext(c), req)
	if err != nil {
		h.respondError(c, err, "Failed to create user")
		return
	}

	c.JSON(http.StatusCreated, account)
}

func (h *UsersHandler) UpdateUser(c *gin.Context) {
	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	account, err := h.service.UpdateUser(c.Request.Context(), security.ActorFromContext(c), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err, "Failed to update user")
		return
	}

	c.JSON(http.StatusOK, account)
}

func (h *UsersHandler) ToggleUserStatus(c *gin.Context) {
	account, err := h.service.ToggleStatus(c.Request.Context(), security.ActorFromContext(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to change user status")
		return
	}

	c.JSON(http.StatusOK, account)
}

func (h *UsersHandler) DeleteUser(c *gin.Context) {
	if err := h.service.DeleteUser(c.Request.Context(), security.ActorFromContext(c), c.Param("id")); err != nil {
		h.respondError(c, err, "Failed to delete user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

func (h *UsersHandler) respondError(c *gin.Context, err error, message string) {
	var validationErr *validation.Error

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": validationErr.Fields})
	case errors.Is(err, ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, ErrDuplicateUsername):
		c.JSON(http.StatusConflict, gin.H{"error": "Username already exists", "details": err.Error()})
	case errors.Is(err, ErrSelfModification):
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden", "details": err.Error()})
	default:
		h.logger.Error(message, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}
