package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/SscSPs/receipt_budget_app/internal/core/ports/services"
	"github.com/SscSPs/receipt_budget_app/internal/dto"
	"github.com/SscSPs/receipt_budget_app/internal/middleware"
)

// receiptHandler handles HTTP requests related to receipts.
type receiptHandler struct {
	receiptService portssvc.ReceiptSvcFacade
}

// RegisterReceiptRoutes registers routes related to receipts.
func RegisterReceiptRoutes(rg *gin.RouterGroup, receiptService portssvc.ReceiptSvcFacade) {
	h := &receiptHandler{receiptService: receiptService}

	receipts := rg.Group("/receipts")
	{
		receipts.GET("", h.listReceipts)
		receipts.POST("", h.createReceipt)
		receipts.DELETE("", h.deleteReceipts)
		receipts.GET("/:receiptID", h.getReceipt)
		receipts.PUT("/:receiptID", h.updateReceipt)
	}
}

func (h *receiptHandler) createReceipt(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ownerID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.CreateReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateReceipt", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	receipt, err := h.receiptService.CreateReceipt(c.Request.Context(), ownerID, req)
	if err != nil {
		respondError(c, logger, err, "Failed to create receipt")
		return
	}

	logger.Info("Receipt created", slog.String("receipt_id", receipt.ReceiptID))
	c.JSON(http.StatusCreated, dto.ToReceiptResponse(receipt))
}

func (h *receiptHandler) getReceipt(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ownerID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	receiptID := c.Param("receiptID")

	resp, err := h.receiptService.GetReceipt(c.Request.Context(), ownerID, receiptID)
	if err != nil {
		respondError(c, logger.With(slog.String("receipt_id", receiptID)), err, "Failed to retrieve receipt")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *receiptHandler) listReceipts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ownerID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var params dto.ListReceiptsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListReceipts", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.receiptService.ListReceipts(c.Request.Context(), ownerID, params)
	if err != nil {
		respondError(c, logger, err, "Failed to list receipts")
		return
	}

	logger.Info("Receipts listed", slog.Int("count", len(resp.Receipts)))
	c.JSON(http.StatusOK, resp)
}

func (h *receiptHandler) updateReceipt(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ownerID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	receiptID := c.Param("receiptID")
	logger = logger.With(slog.String("receipt_id", receiptID))

	var req dto.UpdateReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateReceipt", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	receipt, err := h.receiptService.UpdateReceipt(c.Request.Context(), ownerID, receiptID, req)
	if err != nil {
		respondError(c, logger, err, "Failed to update receipt")
		return
	}

	logger.Info("Receipt updated")
	c.JSON(http.StatusOK, dto.ToReceiptResponse(receipt))
}

func (h *receiptHandler) deleteReceipts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ownerID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.DeleteByIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for DeleteReceipts", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	if err := h.receiptService.DeleteReceipts(c.Request.Context(), ownerID, req.IDs); err != nil {
		respondError(c, logger, err, "Failed to delete receipts")
		return
	}

	logger.Info("Receipts deleted", slog.Int("count", len(req.IDs)))
	c.Status(http.StatusNoContent)
}
