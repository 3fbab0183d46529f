package router

import (
	"github.com/gin-gonic/gin"

	"pathwise.app/audit/internal/http/handler"
)

// CatalogRouter sets up catalog routes
// - read routes need only a session
// - write routes (ingest, deactivate, GE definitions, sync) require the admin API key
func CatalogRouter(rg *gin.RouterGroup, h *handler.CatalogHandler) {
	rg.GET("/courses", h.ListCourses)
	rg.GET("/courses/search", h.Search)
	rg.GET("/courses/:code", h.GetCourse)
	rg.GET("/courses/:code/prerequisites", h.PrerequisiteChain)
	rg.GET("/ge-categories", h.ListGECategories)

	admin := rg.Group("")
	admin.Use(h.RequireAdminAPIKey())
	{
		admin.POST("/courses", h.UpsertCourse)
		admin.DELETE("/courses/:code", h.DeactivateCourse)
		admin.POST("/ge-categories", h.UpsertGECategory)
		admin.DELETE("/ge-categories/:code", h.DeleteGECategory)
		admin.PUT("/ge-categories/:code/courses", h.ReplaceGEAssignments)
		admin.POST("/sync", h.TriggerSync)
	}
}
