package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pathwise.app/audit/internal/http/dto"
	"pathwise.app/audit/internal/http/middleware"
	"pathwise.app/audit/internal/model"
	"pathwise.app/audit/internal/service"
)

type PlanHandler struct {
	planService service.PlanService
}

func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

func (h *PlanHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan, err := h.planService.Create(ctx, user.ID, service.PlanParams{
		Title:            req.Title,
		EmphasisTitle:    req.EmphasisTitle,
		MissionStatement: req.MissionStatement,
		Slug:             req.Slug,
	})
	if err != nil {
		if status, ok := clientErrorStatus(err); ok {
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		slog.ErrorContext(ctx, "failed to create plan", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create plan"})
		return
	}

	c.JSON(http.StatusCreated, dto.ToPlanResponse(plan))
}

func (h *PlanHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	user, ok := currentUser(c)
	if !ok {
		return
	}

	plans, err := h.planService.List(ctx, user.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list plans", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list plans"})
		return
	}

	c.JSON(http.StatusOK, dto.ToPlanListResponse(plans))
}

// Get resolves the :id segment as a numeric id first and falls back to a
// slug lookup, so both /plans/42 and /plans/software-development work.
func (h *PlanHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	user, ok := currentUser(c)
	if !ok {
		return
	}

	var plan *model.Plan
	var err error
	if planID, parseErr := strconv.ParseInt(c.Param("id"), 10, 64); parseErr == nil {
		plan, err = h.planService.Get(ctx, user.ID, planID)
	} else {
		plan, err = h.planService.GetBySlug(ctx, user.ID, c.Param("id"))
	}
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "plan not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to get plan", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get plan"})
		return
	}

	c.JSON(http.StatusOK, dto.ToPlanResponse(plan))
}

func (h *PlanHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	user, ok := currentUser(c)
	if !ok {
		return
	}
	planID, ok := planIDParam(c)
	if !ok {
		return
	}

	var req dto.UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan, err := h.planService.Update(ctx, user.ID, planID, service.PlanParams{
		Title:            req.Title,
		EmphasisTitle:    req.EmphasisTitle,
		MissionStatement: req.MissionStatement,
	})
	if err != nil {
		h.respondPlanError(c, err, "failed to update plan")
		return
	}

	c.JSON(http.StatusOK, dto.ToPlanResponse(plan))
}

func (h *PlanHandler) ReplaceAreas(c *gin.Context) {
	ctx := c.Request.Context()

	user, ok := currentUser(c)
	if !ok {
		return
	}
	planID, ok := planIDParam(c)
	if !ok {
		return
	}

	var req dto.ReplaceAreasRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan, err := h.planService.ReplaceAreas(ctx, user.ID, planID, dto.ToPlanAreas(req.Areas))
	if err != nil {
		h.respondPlanError(c, err, "failed to replace areas")
		return
	}

	c.JSON(http.StatusOK, dto.ToPlanResponse(plan))
}

func (h *PlanHandler) ReplaceElectives(c *gin.Context) {
	ctx := c.Request.Context()

	user, ok := currentUser(c)
	if !ok {
		return
	}
	planID, ok := planIDParam(c)
	if !ok {
		return
	}

	var req dto.ReplaceElectivesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan, err := h.planService.ReplaceElectives(ctx, user.ID, planID, dto.ToPlanCourses(req.Electives))
	if err != nil {
		h.respondPlanError(c, err, "failed to replace electives")
		return
	}

	c.JSON(http.StatusOK, dto.ToPlanResponse(plan))
}

func (h *PlanHandler) ReplacePLOMappings(c *gin.Context) {
	ctx := c.Request.Context()

	user, ok := currentUser(c)
	if !ok {
		return
	}
	planID, ok := planIDParam(c)
	if !ok {
		return
	}

	var req dto.ReplacePLOMappingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan, err := h.planService.ReplacePLOMappings(ctx, user.ID, planID, req.Mappings)
	if err != nil {
		h.respondPlanError(c, err, "failed to replace PLO mappings")
		return
	}

	c.JSON(http.StatusOK, dto.ToPlanResponse(plan))
}

func (h *PlanHandler) Submit(c *gin.Context) {
	ctx := c.Request.Context()

	user, ok := currentUser(c)
	if !ok {
		return
	}
	planID, ok := planIDParam(c)
	if !ok {
		return
	}

	var req dto.SubmitPlanRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			slog.WarnContext(ctx, "invalid request body", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	projected := req.Projected == nil || *req.Projected

	report, err := h.planService.Submit(ctx, user.ID, planID, projected)
	if err != nil {
		h.respondPlanError(c, err, "failed to submit plan")
		return
	}

	c.JSON(http.StatusAccepted, dto.ToReportResponse(report))
}

func (h *PlanHandler) Archive(c *gin.Context) {
	ctx := c.Request.Context()

	user, ok := currentUser(c)
	if !ok {
		return
	}
	planID, ok := planIDParam(c)
	if !ok {
		return
	}

	if err := h.planService.Archive(ctx, user.ID, planID); err != nil {
		h.respondPlanError(c, err, "failed to archive plan")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "archived"})
}

func (h *PlanHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	user, ok := currentUser(c)
	if !ok {
		return
	}
	planID, ok := planIDParam(c)
	if !ok {
		return
	}

	if err := h.planService.Delete(ctx, user.ID, planID); err != nil {
		h.respondPlanError(c, err, "failed to delete plan")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *PlanHandler) respondPlanError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrPlanNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "plan not found"})
	case errors.Is(err, service.ErrPlanArchived):
		c.JSON(http.StatusConflict, gin.H{"error": "plan is archived"})
	default:
		if status, ok := clientErrorStatus(err); ok {
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		slog.ErrorContext(c.Request.Context(), fallback, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func currentUser(c *gin.Context) (*model.User, bool) {
	user := middleware.GetUser(c.Request.Context())
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return nil, false
	}
	return user, true
}

func planIDParam(c *gin.Context) (int64, bool) {
	planID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan id"})
		return 0, false
	}
	return planID, true
}
