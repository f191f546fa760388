package assets

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aleciaid/crm-bj/internal/storage"
	"github.com/aleciaid/crm-bj/pkg/barcode"
	"github.com/aleciaid/crm-bj/pkg/metadata"
	"github.com/aleciaid/crm-bj/pkg/models"
	"github.com/aleciaid/crm-bj/pkg/security"
	"github.com/aleciaid/crm-bj/pkg/validation"
)

type AssetHandler struct {
	service *AssetService
	logger  *zap.Logger
}

func NewAssetHandler(service *AssetService, logger *zap.Logger) *AssetHandler {
	return &AssetHandler{service: service, logger: logger}
}

func (h *AssetHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/assets", h.GetAssets)
	router.POST("/assets", h.CreateAsset)
	router.POST("/assets/sku", h.GenerateSKU)
	router.POST("/assets/barcode", h.ValidateBarcode)
	router.GET("/assets/:id", h.GetAsset)
	router.PUT("/assets/:id", h.UpdateAsset)
	router.DELETE("/assets/:id", h.RemoveAsset)
}

func (h *AssetHandler) GetAssets(c *gin.Context) {
	filter := storage.AssetFilter{
		Status:   metadata.AssetStatus(c.Query("status")),
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter", "details": string(filter.Status)})
		return
	}

	assets, err := h.service.ListAssets(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err, "Unable to list assets")
		return
	}

	c.JSON(http.StatusOK, assets)
}

func (h *AssetHandler) GetAsset(c *gin.Context) {
	asset, err := h.service.GetAsset(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Unable to get asset")
		return
	}

	c.JSON(http.StatusOK, asset)
}

func (h *AssetHandler) CreateAsset(c *gin.Context) {
	req := models.AssetRequest{Qty: 1}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	asset, err := h.service.CreateAsset(c.Request.Context(), security.ActorFromContext(c), req)
	if err != nil {
		h.respondError(c, err, "Failed to create asset")
		return
	}

	c.JSON(http.StatusCreated, asset)
}

func (h *AssetHandler) UpdateAsset(c *gin.Context) {
	var req models.AssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	asset, err := h.service.UpdateAsset(c.Request.Context(), security.ActorFromContext(c), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err, "Failed to update asset")
		return
	}

	c.JSON(http.StatusOK, asset)
}

func (h *AssetHandler) RemoveAsset(c *gin.Context) {
	if err := h.service.DeleteAsset(c.Request.Context(), security.ActorFromContext(c), c.Param("id")); err != nil {
		h.respondError(c, err, "Failed to delete asset")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Asset deleted successfully"})
}

func (h *AssetHandler) GenerateSKU(c *gin.Context) {
	sku, err := h.service.GenerateSKU(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Unable to generate SKU")
		return
	}

	c.JSON(http.StatusOK, gin.H{"sku": sku})
}

type barcodeRequest struct {
	Code string `json:"code" binding:"required"`
}

func (h *AssetHandler) ValidateBarcode(c *gin.Context) {
	var req barcodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	symbology, err := barcode.Validate(req.Code)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"valid": true, "symbology": symbology})
}

func (h *AssetHandler) respondError(c *gin.Context, err error, message string) {
	var validationErr *validation.Error

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": validationErr.Fields})
	case errors.Is(err, ErrAssetNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Asset not found"})
	case errors.Is(err, ErrUnknownCategory):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown category", "details": err.Error()})
	case errors.Is(err, ErrDuplicateSKU):
		c.JSON(http.StatusConflict, gin.H{"error": "SKU already registered", "details": err.Error()})
	case errors.Is(err, ErrAssetOnLoan):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Asset cannot be removed",
			"details": "Asset is currently borrowed",
		})
	default:
		h.logger.Error(message, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}
