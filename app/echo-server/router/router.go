package router

import (
	"github.com/labstack/echo/v4"

	"adOptimizer/internal/middleware"
	"adOptimizer/internal/rest"
)

func SetOptimizerRoutes(api *echo.Group, handler *rest.OptimizerHandler, apiKeyRequired echo.MiddlewareFunc) {
	ads := api.Group("/ads", apiKeyRequired)
	ads.POST("", handler.Optimize)
	ads.POST("/csv", handler.OptimizeCSV)
	ads.POST("/compare", handler.Compare)
	ads.POST("/status", handler.ApplyStatuses)
}

func SetSimulationRoutes(api *echo.Group, handler *rest.SimulationHandler, apiKeyRequired echo.MiddlewareFunc) {
	api.POST("/simulations", handler.Simulate, apiKeyRequired)
}

func SetAdminRoutes(api *echo.Group, handler *rest.AdminHandler) {
	admin := api.Group("/admin", middleware.AuthMiddleware(), middleware.AdminOnly())

	admin.GET("/optimizer/config", handler.GetConfig)
	admin.PUT("/optimizer/config", handler.UpdateConfig)
	admin.GET("/optimizer/runs", handler.ListRuns)
	admin.POST("/api-keys", handler.IssueKey)
}
