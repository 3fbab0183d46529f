package router

import (
	"github.com/gin-gonic/gin"

	"pathwise.app/audit/internal/http/handler"
)

// AuditRouter exposes the stateless audit operations. Each takes the full
// course data in the request body; only the catalog is consulted server-side.
func AuditRouter(rg *gin.RouterGroup, h *handler.AuditHandler) {
	rg.POST("/credits", h.Credits)
	rg.POST("/prerequisites", h.Prerequisites)
	rg.POST("/concentrations", h.Concentrations)
	rg.POST("/general-education", h.GeneralEducation)
}
