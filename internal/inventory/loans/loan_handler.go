package loans

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aleciaid/crm-bj/internal/storage"
	"github.com/aleciaid/crm-bj/pkg/metadata"
	"github.com/aleciaid/crm-bj/pkg/models"
	"github.com/aleciaid/crm-bj/pkg/security"
	"github.com/aleciaid/crm-bj/pkg/validation"
)

type LoanHandler struct {
	service *LoanService
	logger  *zap.Logger
}

func NewLoanHandler(service *LoanService, logger *zap.Logger) *LoanHandler {
	return &LoanHandler{service: service, logger: logger}
}

func (h *LoanHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/loans", h.GetLoans)
	router.GET("/loans/overdue", h.GetOverdueLoans)
	router.GET("/loans/:id", h.GetLoan)
	router.POST("/loans", h.CreateLoan)
	router.POST("/loans/:id/return", h.ReturnLoan)
	router.GET("/stats", h.GetSummary)
}

func (h *LoanHandler) GetLoans(c *gin.Context) {
	filter := storage.LoanFilter{
		Status:     metadata.LoanStatus(c.Query("status")),
		EmployeeID: c.Query("employeeId"),
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter", "details": string(filter.Status)})
		return
	}

	loans, err := h.service.ListLoans(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err, "Unable to list borrow records")
		return
	}

	c.JSON(http.StatusOK, loans)
}

func (h *LoanHandler) GetOverdueLoans(c *gin.Context) {
	loans, err := h.service.ListOverdue(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Unable to list overdue borrow records")
		return
	}

	c.JSON(http.StatusOK, loans)
}

func (h *LoanHandler) GetLoan(c *gin.Context) {
	loan, err := h.service.GetLoan(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Unable to get borrow record")
		return
	}

	c.JSON(http.StatusOK, loan)
}

func (h *LoanHandler) CreateLoan(c *gin.Context) {
	var req models.BorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	record, err := h.service.CreateLoan(c.Request.Context(), security.ActorFromContext(c), req)
	if err != nil {
		h.respondError(c, err, "Unable to create borrow record")
		return
	}

	c.JSON(http.StatusCreated, record)
}

func (h *LoanHandler) ReturnLoan(c *gin.Context) {
	record, err := h.service.ReturnLoan(c.Request.Context(), security.ActorFromContext(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Unable to process return")
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *LoanHandler) GetSummary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Unable to build summary")
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *LoanHandler) respondError(c *gin.Context, err error, message string) {
	respondError(c, h.logger, err, message)
}

func respondError(c *gin.Context, logger *zap.Logger, err error, message string) {
	var validationErr *validation.Error
	var assetErr *AssetError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": validationErr.Fields})
	case errors.As(err, &assetErr) && errors.Is(err, ErrAssetNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Asset not found", "details": assetErr.AssetIDs})
	case errors.As(err, &assetErr) && errors.Is(err, ErrAssetUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": "Asset is not available", "details": assetErr.AssetIDs})
	case errors.Is(err, ErrLoanNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Borrow record not found", "details": err.Error()})
	default:
		logger.Error(message, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}
