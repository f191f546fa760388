package category

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aleciaid/crm-bj/pkg/models"
	"github.com/aleciaid/crm-bj/pkg/security"
	"github.com/aleciaid/crm-bj/pkg/validation"
)

type CategoryHandler struct {
	service *CategoryService
	logger  *zap.Logger
}

func NewCategoryHandler(service *CategoryService, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{service: service, logger: logger}
}

func (h *CategoryHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/categories", h.GetCategories)
	router.POST("/categories", h.CreateCategory)
	router.PUT("/categories/:id", h.UpdateCategory)
	router.DELETE("/categories/:id", h.RemoveCategory)
}

func (h *CategoryHandler) GetCategories(c *gin.Context) {
	categories, err := h.service.ListCategories(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Unable to list categories")
		return
	}

	c.JSON(http.StatusOK, categories)
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req models.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	category, err := h.service.CreateCategory(c.Request.Context(), security.ActorFromContext(c), req)
	if err != nil {
		h.respondError(c, err, "Failed to create category")
		return
	}

	c.JSON(http.StatusCreated, category)
}

func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	var req models.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	category, err := h.service.UpdateCategory(c.Request.Context(), security.ActorFromContext(c), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err, "Failed to update category")
		return
	}

	c.JSON(http.StatusOK, category)
}

func (h *CategoryHandler) RemoveCategory(c *gin.Context) {
	if err := h.service.DeleteCategory(c.Request.Context(), security.ActorFromContext(c), c.Param("id")); err != nil {
		h.respondError(c, err, "Failed to delete category")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}

func (h *CategoryHandler) respondError(c *gin.Context, err error, message string) {
	var validationErr *validation.Error
	var inUse *InUseError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": validationErr.Fields})
	case errors.Is(err, ErrCategoryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
	case errors.Is(err, ErrDuplicateName):
		c.JSON(http.StatusConflict, gin.H{"error": "Category name already exists", "details": err.Error()})
	case errors.As(err, &inUse):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Category is still in use",
			"details": gin.H{"category": inUse.Name, "count": inUse.Count},
		})
	default:
		h.logger.Error(message, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}
