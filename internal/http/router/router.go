package router

import (
	"github.com/gin-gonic/gin"

	"pathwise.app/audit/internal/http/handler"
	"pathwise.app/audit/internal/http/middleware"
	"pathwise.app/audit/internal/service"
)

type RouterConfig struct {
	DashboardURL string
	IsProduction bool
	AdminAPIKey  string
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	authHandler := handler.NewAuthHandler(services.Auth(), cfg.DashboardURL, cfg.IsProduction)
	AuthRouter(router.Group("/auth"), authHandler)

	// Operation discovery stays outside the session gate so clients can
	// read the contract before logging in.
	operationsHandler := handler.NewOperationsHandler()
	router.GET("/api/v1/operations", operationsHandler.List)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.RequireAuth(services.Auth()))
	{
		userHandler := handler.NewUserHandler(services.Users(), cfg.IsProduction)
		UserRouter(v1.Group("/users"), userHandler)

		planHandler := handler.NewPlanHandler(services.Plans())
		auditHandler := handler.NewAuditHandler(services.Audits())
		PlanRouter(v1.Group("/plans"), planHandler, auditHandler)

		AuditRouter(v1.Group("/audit"), auditHandler)

		marketHandler := handler.NewMarketHandler(services.Markets())
		MarketRouter(v1.Group("/market-research"), marketHandler)

		catalogHandler := handler.NewCatalogHandler(services.Catalog(), cfg.AdminAPIKey)
		CatalogRouter(v1.Group("/catalog"), catalogHandler)
	}
}
