package handlers

import (
	"github.com/gin-gonic/gin"

	portssvc "github.com/SscSPs/receipt_budget_app/internal/core/ports/services"
	"github.com/SscSPs/receipt_budget_app/internal/middleware"
	"github.com/SscSPs/receipt_budget_app/internal/platform/config"
)

// RegisterRoutes sets up all application routes. uploadMiddleware runs in front of the
// upload endpoint only.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	db Pinger,
	uploadMiddleware ...gin.HandlerFunc,
) {
	registerHealthRoutes(r, db)
	setupAPIV1Routes(r, cfg, services, uploadMiddleware)
}

// setupAPIV1Routes configures the authenticated /api/v1 group.
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	uploadMiddleware []gin.HandlerFunc,
) {
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer))

	RegisterUploadRoutes(v1, services.Ingestion, uploadMiddleware...)
	RegisterReceiptRoutes(v1, services.Receipt)
	RegisterJobRoutes(v1, services.Job)
	RegisterBudgetRoutes(v1, services.Budget)
}
