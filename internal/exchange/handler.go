package exchange

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aleciaid/crm-bj/pkg/security"
)

// maxImportSize bounds the body of an import request.
const maxImportSize = 32 << 20

type ExchangeHandler struct {
	service *Service
	logger  *zap.Logger
}

func NewExchangeHandler(service *Service, logger *zap.Logger) *ExchangeHandler {
	return &ExchangeHandler{service: service, logger: logger}
}

func (h *ExchangeHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/exports/:format", h.Export)
	router.POST("/exports/archive", h.Archive)
	router.POST("/imports", h.Import)
}

func (h *ExchangeHandler) Export(c *gin.Context) {
	format, err := ParseFormat(c.Param("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported export format", "details": err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := h.service.Export(c.Request.Context(), security.ActorFromContext(c), format, &buf); err != nil {
		h.respondError(c, err, "Unable to export data")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+format.Filename(time.Now())+`"`)
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

func (h *ExchangeHandler) Archive(c *gin.Context) {
	object, err := h.service.Archive(c.Request.Context(), security.ActorFromContext(c))
	if err != nil {
		h.respondError(c, err, "Unable to archive data")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Data archived", "object": object})
}

// Import accepts either a multipart upload in the "file" field or a raw JSON
// body.
func (h *ExchangeHandler) Import(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportSize)

	source := "request body"
	var body io.Reader = c.Request.Body

	if header, err := c.FormFile("file"); err == nil {
		file, err := header.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unable to read uploaded file", "details": err.Error()})
			return
		}
		defer file.Close()
		source = filepath.Base(header.Filename)
		body = file
	}

	result, err := h.service.Import(c.Request.Context(), security.ActorFromContext(c), source, body)
	if err != nil {
		h.respondError(c, err, "Unable to import data")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Data imported successfully", "imported": result})
}

func (h *ExchangeHandler) respondError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, ErrInvalidImport):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid import file", "details": err.Error()})
	case errors.Is(err, ErrArchiveDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Archive storage is not configured"})
	default:
		h.logger.Error(message, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}
