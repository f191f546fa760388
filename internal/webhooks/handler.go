package webhooks

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aleciaid/crm-bj/internal/storage"
	"github.com/aleciaid/crm-bj/pkg/metadata"
	"github.com/aleciaid/crm-bj/pkg/models"
	"github.com/aleciaid/crm-bj/pkg/security"
	"github.com/aleciaid/crm-bj/pkg/validation"
)

type WebhookHandler struct {
	config     *ConfigService
	dispatcher *Dispatcher
	logger     *zap.Logger
}

func NewWebhookHandler(config *ConfigService, dispatcher *Dispatcher, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{config: config, dispatcher: dispatcher, logger: logger}
}

func (h *WebhookHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/webhooks", h.GetConfig)
	router.PUT("/webhooks", h.SaveConfig)
	router.POST("/webhooks/test", h.TestWebhook)
	router.GET("/webhooks/deliveries", h.GetDeliveries)
}

func (h *WebhookHandler) GetConfig(c *gin.Context) {
	config, err := h.config.Get(c.Request.Context())
	if err != nil {
		h.logger.Error("Unable to load webhook config", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to load webhook config"})
		return
	}

	c.JSON(http.StatusOK, config)
}

func (h *WebhookHandler) SaveConfig(c *gin.Context) {
	var req models.WebhookConfig
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	config, err := h.config.Save(c.Request.Context(), security.ActorFromContext(c), req)
	var validationErr *validation.Error
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook URL", "details": validationErr.Fields})
		return
	case err != nil:
		h.logger.Error("Unable to save webhook config", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to save webhook config"})
		return
	}

	c.JSON(http.StatusOK, config)
}

type testRequest struct {
	Type models.WebhookEvent `json:"type" binding:"required"`
	URL  string              `json:"url" binding:"required"`
}

func (h *WebhookHandler) TestWebhook(c *gin.Context) {
	var req testRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	err := h.config.Test(c.Request.Context(), security.ActorFromContext(c), req.Type, req.URL)
	var validationErr *validation.Error
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook test", "details": validationErr.Fields})
		return
	case errors.Is(err, ErrDelivery):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Webhook test failed", "details": err.Error()})
		return
	case err != nil:
		h.logger.Error("Unable to test webhook", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to test webhook"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Webhook tested successfully"})
}

func (h *WebhookHandler) GetDeliveries(c *gin.Context) {
	filter := storage.DeliveryFilter{Status: metadata.DeliveryStatus(c.Query("status"))}
	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit", "details": limit})
			return
		}
		filter.Limit = n
	}

	deliveries, err := h.dispatcher.ListDeliveries(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Unable to list webhook deliveries", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to list webhook deliveries"})
		return
	}

	c.JSON(http.StatusOK, deliveries)
}
