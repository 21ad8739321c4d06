package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/SscSPs/receipt_budget_app/internal/core/ports/services"
	"github.com/SscSPs/receipt_budget_app/internal/dto"
	"github.com/SscSPs/receipt_budget_app/internal/middleware"
)

type jobHandler struct {
	jobService portssvc.JobSvcFacade
}

// RegisterJobRoutes registers the job polling routes.
func RegisterJobRoutes(rg *gin.RouterGroup, jobService portssvc.JobSvcFacade) {
	h := &jobHandler{jobService: jobService}

	jobs := rg.Group("/jobs")
	{
		jobs.GET("/:jobID", h.getJobResult)
		jobs.GET("/:jobID/status", h.getJobStatus)
	}
}

func (h *jobHandler) getJobStatus(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	requesterID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	jobID := c.Param("jobID")

	status, err := h.jobService.GetJobStatus(c.Request.Context(), jobID, requesterID)
	if err != nil {
		respondError(c, logger.With(slog.String("job_id", jobID)), err, "Failed to retrieve job status")
		return
	}
	c.JSON(http.StatusOK, dto.JobStatusResponse{JobID: jobID, Status: status})
}

func (h *jobHandler) getJobResult(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	requesterID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	jobID := c.Param("jobID")

	result, err := h.jobService.GetJobResult(c.Request.Context(), jobID, requesterID)
	if err != nil {
		respondError(c, logger.With(slog.String("job_id", jobID)), err, "Failed to retrieve job")
		return
	}
	c.JSON(http.StatusOK, dto.ToJobResultResponse(result))
}
