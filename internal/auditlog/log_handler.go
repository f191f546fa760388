package auditlog

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aleciaid/crm-bj/internal/storage"
	"github.com/aleciaid/crm-bj/pkg/models"
	"github.com/aleciaid/crm-bj/pkg/validation"
)

type LogHandler struct {
	service *LogService
	logger  *zap.Logger
}

func NewLogHandler(service *LogService, logger *zap.Logger) *LogHandler {
	return &LogHandler{service: service, logger: logger}
}

func (h *LogHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/logs", h.GetLogs)
	router.GET("/logs/export", h.ExportLogs)
}

func (h *LogHandler) RegisterAdminRoutes(router gin.IRoutes) {
	router.PATCH("/logs/:id", h.UpdateLog)
	router.DELETE("/logs/:id", h.DeleteLog)
	router.DELETE("/logs", h.ClearLogs)
}

func filterFromQuery(c *gin.Context) storage.LogFilter {
	return storage.LogFilter{
		Search: c.Query("search"),
		Action: c.Query("action"),
		User:   c.Query("user"),
		Date:   c.Query("date"),
	}
}

func (h *LogHandler) GetLogs(c *gin.Context) {
	entries, err := h.service.ListLogs(c.Request.Context(), filterFromQuery(c))
	if err != nil {
		h.respondError(c, err, "Unable to list logs")
		return
	}

	c.JSON(http.StatusOK, entries)
}

func (h *LogHandler) ExportLogs(c *gin.Context) {
	entries, err := h.service.ListLogs(c.Request.Context(), filterFromQuery(c))
	if err != nil {
		h.respondError(c, err, "Unable to export logs")
		return
	}

	filename := "cimbj-logs-" + time.Now().Format(models.DateLayout) + ".csv"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)
	if err := WriteCSV(c.Writer, entries); err != nil {
		h.logger.Error("Unable to write log export", zap.Error(err))
	}
}

func (h *LogHandler) UpdateLog(c *gin.Context) {
	var changes models.LogChanges
	if err := c.ShouldBindJSON(&changes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	entry, err := h.service.UpdateLog(c.Request.Context(), c.Param("id"), changes)
	if err != nil {
		h.respondError(c, err, "Unable to update log")
		return
	}

	c.JSON(http.StatusOK, entry)
}

func (h *LogHandler) DeleteLog(c *gin.Context) {
	if err := h.service.DeleteLog(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err, "Unable to delete log")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Log deleted successfully"})
}

func (h *LogHandler) ClearLogs(c *gin.Context) {
	removed, err := h.service.ClearLogs(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Unable to clear logs")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logs cleared", "removed": removed})
}

func (h *LogHandler) respondError(c *gin.Context, err error, message string) {
	var validationErr *validation.Error

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": validationErr.Fields})
	case errors.Is(err, ErrLogNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Log entry not found"})
	default:
		h.logger.Error(message, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}
