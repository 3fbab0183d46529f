package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pathwise.app/audit/internal/audit"
	"pathwise.app/audit/internal/http/dto"
	"pathwise.app/audit/internal/service"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) Credits(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreditCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.auditService.CalculateCredits(ctx, req.Courses, req.Projected)
	if err != nil {
		if status, ok := clientErrorStatus(err); ok {
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		slog.ErrorContext(ctx, "failed to calculate credits", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to calculate credits"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *AuditHandler) Prerequisites(c *gin.Context) {
	ctx := c.Request.Context()

	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.PrerequisiteCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.auditService.CheckPrerequisites(ctx, user.ID, req.Target, req.Completed, req.PlanID)
	if err != nil {
		if status, ok := clientErrorStatus(err); ok {
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		slog.ErrorContext(ctx, "failed to check prerequisites", "error", err, "target", req.Target)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check prerequisites"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *AuditHandler) Concentrations(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ConcentrationCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.auditService.ValidateConcentrations(ctx, req.Areas, req.PLOMappings, req.Overrides)
	if err != nil {
		if status, ok := clientErrorStatus(err); ok {
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		slog.ErrorContext(ctx, "failed to validate concentrations", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to validate concentrations"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *AuditHandler) GeneralEducation(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.GeneralEducationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.auditService.TrackGeneralEducation(ctx, req.Courses)
	if err != nil {
		if status, ok := clientErrorStatus(err); ok {
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		slog.ErrorContext(ctx, "failed to track general education", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to track general education"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *AuditHandler) Validate(c *gin.Context) {
	ctx := c.Request.Context()

	user, ok := currentUser(c)
	if !ok {
		return
	}
	planID, ok := planIDParam(c)
	if !ok {
		return
	}

	var req dto.ValidatePlanRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			slog.WarnContext(ctx, "invalid request body", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	projected := req.Projected == nil || *req.Projected

	report, err := h.auditService.ValidateNow(ctx, user.ID, planID, projected)
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "plan not found"})
			return
		}
		if status, ok := clientErrorStatus(err); ok {
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		slog.ErrorContext(ctx, "failed to validate plan", "error", err, "plan_id", planID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to validate plan"})
		return
	}

	c.JSON(http.StatusOK, dto.ToReportResponse(report))
}

func (h *AuditHandler) Progress(c *gin.Context) {
	ctx := c.Request.Context()

	user, ok := currentUser(c)
	if !ok {
		return
	}
	planID, ok := planIDParam(c)
	if !ok {
		return
	}

	progress, err := h.auditService.Progress(ctx, user.ID, planID)
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "plan not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to compute progress", "error", err, "plan_id", planID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute progress"})
		return
	}

	c.JSON(http.StatusOK, progress)
}

func (h *AuditHandler) Sequence(c *gin.Context) {
	ctx := c.Request.Context()

	user, ok := currentUser(c)
	if !ok {
		return
	}
	planID, ok := planIDParam(c)
	if !ok {
		return
	}

	sequence, err := h.auditService.Sequence(ctx, user.ID, planID)
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "plan not found"})
			return
		}
		if status, ok := clientErrorStatus(err); ok {
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		slog.ErrorContext(ctx, "failed to sequence plan", "error", err, "plan_id", planID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sequence plan"})
		return
	}

	c.JSON(http.StatusOK, sequence)
}

func (h *AuditHandler) LatestReport(c *gin.Context) {
	ctx := c.Request.Context()

	user, ok := currentUser(c)
	if !ok {
		return
	}
	planID, ok := planIDParam(c)
	if !ok {
		return
	}

	report, err := h.auditService.LatestReport(ctx, user.ID, planID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlanNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "plan not found"})
		case errors.Is(err, service.ErrReportNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "no validation report for plan"})
		default:
			slog.ErrorContext(ctx, "failed to get report", "error", err, "plan_id", planID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get report"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToReportResponse(report))
}

func (h *AuditHandler) ListReports(c *gin.Context) {
	ctx := c.Request.Context()

	user, ok := currentUser(c)
	if !ok {
		return
	}
	planID, ok := planIDParam(c)
	if !ok {
		return
	}

	limit := int64(20)
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 32)
		if err != nil || parsed < 1 || parsed > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
			return
		}
		limit = parsed
	}

	reports, err := h.auditService.ListReports(ctx, user.ID, planID, int32(limit))
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "plan not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to list reports", "error", err, "plan_id", planID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list reports"})
		return
	}

	c.JSON(http.StatusOK, dto.ToReportListResponse(reports))
}

// clientErrorStatus classifies errors any audit-backed endpoint can produce:
// malformed payloads map to 400, references to courses the catalog does not
// know map to 422. Everything else stays a 500 with a generic message.
func clientErrorStatus(err error) (int, bool) {
	var integrity *audit.DataIntegrityError
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.As(err, &integrity):
		return http.StatusBadRequest, true
	case errors.Is(err, service.ErrUnknownCourses):
		return http.StatusUnprocessableEntity, true
	}
	return 0, false
}
