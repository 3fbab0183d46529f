package router

import (
	"github.com/gin-gonic/gin"

	"pathwise.app/audit/internal/http/handler"
)

// PlanRouter wires plan CRUD plus the plan-scoped audit routes. The audit
// handler owns validation, progress, sequencing and report reads because
// those operate on the stored plan rather than its editable fields.
func PlanRouter(rg *gin.RouterGroup, h *handler.PlanHandler, audits *handler.AuditHandler) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PATCH("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/archive", h.Archive)
	rg.PUT("/:id/areas", h.ReplaceAreas)
	rg.PUT("/:id/electives", h.ReplaceElectives)
	rg.PUT("/:id/plo-mappings", h.ReplacePLOMappings)
	rg.POST("/:id/submit", h.Submit)

	rg.POST("/:id/validate", audits.Validate)
	rg.GET("/:id/progress", audits.Progress)
	rg.POST("/:id/sequence", audits.Sequence)
	rg.GET("/:id/report", audits.LatestReport)
	rg.GET("/:id/reports", audits.ListReports)
}
