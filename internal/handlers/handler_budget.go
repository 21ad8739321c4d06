package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/SscSPs/receipt_budget_app/internal/core/ports/services"
	"github.com/SscSPs/receipt_budget_app/internal/dto"
	"github.com/SscSPs/receipt_budget_app/internal/middleware"
)

// budgetHandler handles HTTP requests related to monthly budgets.
type budgetHandler struct {
	budgetService portssvc.BudgetSvcFacade
}

// RegisterBudgetRoutes registers routes related to budgets.
func RegisterBudgetRoutes(rg *gin.RouterGroup, budgetService portssvc.BudgetSvcFacade) {
	h := &budgetHandler{budgetService: budgetService}

	budgets := rg.Group("/budgets")
	{
		budgets.GET("", h.listBudgets)
		budgets.POST("", h.createBudget)
		budgets.DELETE("", h.deleteBudgets)
		budgets.GET("/current", h.getCurrentBudget)
		budgets.GET("/overview", h.getOverview)
		budgets.GET("/:budgetID", h.getBudget)
		budgets.PUT("/:budgetID", h.updateBudget)
	}
}

func (h *budgetHandler) createBudget(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ownerID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateBudget", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	budget, err := h.budgetService.CreateBudget(c.Request.Context(), ownerID, req)
	if err != nil {
		respondError(c, logger, err, "Failed to create budget")
		return
	}

	logger.Info("Budget created", slog.String("budget_id", budget.BudgetID), slog.String("month", budget.Month.String()))
	c.JSON(http.StatusCreated, dto.ToBudgetResponse(budget))
}

func (h *budgetHandler) getBudget(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ownerID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	budgetID := c.Param("budgetID")

	budget, err := h.budgetService.GetBudget(c.Request.Context(), ownerID, budgetID)
	if err != nil {
		respondError(c, logger.With(slog.String("budget_id", budgetID)), err, "Failed to retrieve budget")
		return
	}
	c.JSON(http.StatusOK, dto.ToBudgetResponse(budget))
}

// getCurrentBudget answers with JSON null while the current month has no budget.
func (h *budgetHandler) getCurrentBudget(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ownerID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	budget, err := h.budgetService.GetCurrentBudget(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve current budget")
		return
	}
	if budget == nil {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, dto.ToBudgetResponse(budget))
}

func (h *budgetHandler) listBudgets(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ownerID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var params dto.ListBudgetsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListBudgets", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	budgets, err := h.budgetService.ListBudgets(c.Request.Context(), ownerID, params)
	if err != nil {
		respondError(c, logger, err, "Failed to list budgets")
		return
	}
	c.JSON(http.StatusOK, dto.ToListBudgetsResponse(budgets))
}

func (h *budgetHandler) getOverview(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ownerID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	year, rows, err := h.budgetService.GetBudgetsOverview(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, logger, err, "Failed to build budget overview")
		return
	}
	c.JSON(http.StatusOK, dto.ToBudgetOverviewResponse(year, rows))
}

func (h *budgetHandler) updateBudget(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ownerID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	budgetID := c.Param("budgetID")
	logger = logger.With(slog.String("budget_id", budgetID))

	var req dto.UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateBudget", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	budget, err := h.budgetService.UpdateBudget(c.Request.Context(), ownerID, budgetID, req)
	if err != nil {
		respondError(c, logger, err, "Failed to update budget")
		return
	}
	c.JSON(http.StatusOK, dto.ToBudgetResponse(budget))
}

func (h *budgetHandler) deleteBudgets(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ownerID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.DeleteByIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for DeleteBudgets", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	if err := h.budgetService.DeleteBudgets(c.Request.Context(), ownerID, req.IDs); err != nil {
		respondError(c, logger, err, "Failed to delete budgets")
		return
	}

	logger.Info("Budgets deleted", slog.Int("count", len(req.IDs)))
	c.Status(http.StatusNoContent)
}
