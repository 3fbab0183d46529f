package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"pathwise.app/audit/internal/http/dto"
	"pathwise.app/audit/internal/service"
)

type MarketHandler struct {
	marketService service.MarketService
}

func NewMarketHandler(marketService service.MarketService) *MarketHandler {
	return &MarketHandler{marketService: marketService}
}

func (h *MarketHandler) Conduct(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.MarketResearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.marketService.Conduct(ctx, req.ToParams())
	if err != nil {
		if status, ok := clientErrorStatus(err); ok {
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		slog.ErrorContext(ctx, "failed to conduct market research", "error", err, "emphasis", req.Emphasis)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to conduct market research"})
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *MarketHandler) Latest(c *gin.Context) {
	ctx := c.Request.Context()

	emphasis := c.Param("emphasis")
	result, err := h.marketService.Latest(ctx, emphasis)
	if err != nil {
		if errors.Is(err, service.ErrResearchNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no market research for emphasis"})
			return
		}
		slog.ErrorContext(ctx, "failed to get market research", "error", err, "emphasis", emphasis)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get market research"})
		return
	}

	c.JSON(http.StatusOK, result)
}
