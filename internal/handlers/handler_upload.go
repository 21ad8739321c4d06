package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/SscSPs/receipt_budget_app/internal/core/ports/services"
	"github.com/SscSPs/receipt_budget_app/internal/dto"
	"github.com/SscSPs/receipt_budget_app/internal/middleware"
)

type uploadHandler struct {
	ingestionService portssvc.IngestionSvcFacade
}

// RegisterUploadRoutes registers the upload endpoint behind the given middleware (typically a rate limit).
func RegisterUploadRoutes(rg *gin.RouterGroup, ingestionService portssvc.IngestionSvcFacade, mw ...gin.HandlerFunc) {
	h := &uploadHandler{ingestionService: ingestionService}
	rg.POST("/receipts/upload", append(mw, h.uploadReceipts)...)
}

// uploadReceipts creates placeholders for already stored files and answers with the job to poll.
func (h *uploadHandler) uploadReceipts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ownerID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.UploadReceiptsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UploadReceipts", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	jobID, err := h.ingestionService.SubmitUpload(c.Request.Context(), ownerID, dto.ToUploadFiles(req.Files))
	if err != nil {
		respondError(c, logger, err, "Failed to submit upload")
		return
	}

	logger.Info("Upload submitted", slog.String("job_id", jobID), slog.Int("files", len(req.Files)))
	c.JSON(http.StatusAccepted, dto.UploadReceiptsResponse{JobID: jobID})
}
