package loans

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aleciaid/crm-bj/internal/storage"
	"github.com/aleciaid/crm-bj/pkg/metadata"
	"github.com/aleciaid/crm-bj/pkg/models"
)

// GuestHandler serves the public self-service borrow and return pages.
// Every change is logged under the Guest user.
type GuestHandler struct {
	service *LoanService
	store   storage.AssetQueries
	logger  *zap.Logger
}

func NewGuestHandler(service *LoanService, store storage.AssetQueries, logger *zap.Logger) *GuestHandler {
	return &GuestHandler{service: service, store: store, logger: logger}
}

func (h *GuestHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/guest/assets", h.GetAvailableAssets)
	router.POST("/guest/loans", h.Borrow)
	router.POST("/guest/returns", h.Return)
}

func (h *GuestHandler) GetAvailableAssets(c *gin.Context) {
	assets, err := h.store.ListAssets(c.Request.Context(), storage.AssetFilter{
		Status: metadata.AssetInStock,
		Search: c.Query("search"),
	})
	if err != nil {
		h.logger.Error("Unable to list available assets", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to list available assets"})
		return
	}

	available := make([]models.Asset, 0, len(assets))
	for _, a := range assets {
		if a.IsAvailable() {
			available = append(available, a)
		}
	}
	c.JSON(http.StatusOK, available)
}

func (h *GuestHandler) Borrow(c *gin.Context) {
	var req models.BorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	record, err := h.service.CreateLoan(c.Request.Context(), models.GuestActor(), req)
	if err != nil {
		respondError(c, h.logger, err, "Unable to create borrow record")
		return
	}

	c.JSON(http.StatusCreated, record)
}

func (h *GuestHandler) Return(c *gin.Context) {
	var req models.ReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	record, err := h.service.ReturnLoan(c.Request.Context(), models.GuestActor(), req.BorrowID)
	if err != nil {
		respondError(c, h.logger, err, "Unable to process return")
		return
	}

	view := NewLoanView(*record, h.service.now())
	c.JSON(http.StatusOK, gin.H{
		"record":         view,
		"actualDuration": ActualDuration(record.BorrowDate, *record.ReturnDate),
	})
}
