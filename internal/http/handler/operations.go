package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pathwise.app/audit/internal/http/dto"
)

// OperationsHandler serves the machine-readable catalog of audit
// operations, one JSON Schema per request payload. The schemas are
// reflected from the same structs the handlers bind, so the published
// contract cannot drift from the enforced one.
type OperationsHandler struct{}

func NewOperationsHandler() *OperationsHandler {
	return &OperationsHandler{}
}

func (h *OperationsHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, dto.Operations())
}
