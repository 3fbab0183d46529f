package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pathwise.app/audit/internal/audit"
	"pathwise.app/audit/internal/http/dto"
	"pathwise.app/audit/internal/model"
	"pathwise.app/audit/internal/service"
	"pathwise.app/audit/internal/store"
)

type CatalogHandler struct {
	catalogService service.CatalogService
	adminAPIKey    string
}

func NewCatalogHandler(catalogService service.CatalogService, adminAPIKey string) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		adminAPIKey:    adminAPIKey,
	}
}

// UpsertCourse ingests or updates one catalog course with its requirement
// edges and GE assignments (admin only).
func (h *CatalogHandler) UpsertCourse(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.UpsertCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	course, err := h.catalogService.UpsertCourse(ctx, req.ToParams())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCategoryNotDefined):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			if status, ok := clientErrorStatus(err); ok {
				c.JSON(status, gin.H{"error": err.Error()})
				return
			}
			slog.ErrorContext(ctx, "failed to upsert course", "error", err, "code", req.Code)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upsert course"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToCourseResponse(course))
}

func (h *CatalogHandler) GetCourse(c *gin.Context) {
	ctx := c.Request.Context()

	course, err := h.catalogService.GetCourse(ctx, c.Param("code"))
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to get course", "error", err, "code", c.Param("code"))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get course"})
		return
	}

	c.JSON(http.StatusOK, dto.ToCourseResponse(course))
}

func (h *CatalogHandler) ListCourses(c *gin.Context) {
	ctx := c.Request.Context()

	activeOnly := c.Query("include_inactive") != "true"
	courses, err := h.catalogService.ListCourses(ctx, activeOnly)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list courses", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list courses"})
		return
	}

	c.JSON(http.StatusOK, dto.ToCourseListResponse(courses))
}

// DeactivateCourse retires a course from planning (admin only). The course
// stays resolvable for plans that already reference it.
func (h *CatalogHandler) DeactivateCourse(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.catalogService.DeactivateCourse(ctx, c.Param("code")); err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to deactivate course", "error", err, "code", c.Param("code"))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to deactivate course"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deactivated"})
}

func (h *CatalogHandler) PrerequisiteChain(c *gin.Context) {
	ctx := c.Request.Context()

	edges, err := h.catalogService.PrerequisiteChain(ctx, c.Param("code"))
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to traverse prerequisites", "error", err, "code", c.Param("code"))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to traverse prerequisites"})
		return
	}

	c.JSON(http.StatusOK, dto.PrerequisiteChainResponse{
		Course: audit.NormalizeCode(c.Param("code")),
		Edges:  edges,
	})
}

func (h *CatalogHandler) ListGECategories(c *gin.Context) {
	ctx := c.Request.Context()

	categories, err := h.catalogService.ListGECategories(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list GE categories", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list GE categories"})
		return
	}

	c.JSON(http.StatusOK, dto.GECategoryListResponse{Categories: categories})
}

func (h *CatalogHandler) UpsertGECategory(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.GECategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := h.catalogService.UpsertGECategory(ctx, model.GECategory{
		Code:       req.Code,
		Name:       req.Name,
		MinCredits: req.MinCredits,
	})
	if err != nil {
		if status, ok := clientErrorStatus(err); ok {
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		slog.ErrorContext(ctx, "failed to upsert GE category", "error", err, "code", req.Code)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upsert GE category"})
		return
	}

	c.JSON(http.StatusOK, category)
}

func (h *CatalogHandler) DeleteGECategory(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.catalogService.DeleteGECategory(ctx, c.Param("code")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to delete GE category", "error", err, "code", c.Param("code"))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete GE category"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *CatalogHandler) ReplaceGEAssignments(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ReplaceGEAssignmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.catalogService.ReplaceGEAssignments(ctx, c.Param("code"), req.Courses); err != nil {
		switch {
		case errors.Is(err, service.ErrCategoryNotDefined):
			c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
		default:
			if status, ok := clientErrorStatus(err); ok {
				c.JSON(status, gin.H{"error": err.Error()})
				return
			}
			slog.ErrorContext(ctx, "failed to replace GE assignments", "error", err, "category", c.Param("code"))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to replace GE assignments"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (h *CatalogHandler) Search(c *gin.Context) {
	ctx := c.Request.Context()

	params := service.SearchParams{
		Query:      c.Query("q"),
		Discipline: c.Query("discipline"),
	}
	if v := c.Query("max_level"); v != "" {
		maxLevel, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max_level must be numeric"})
			return
		}
		params.MaxLevel = int32(maxLevel)
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 || limit > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
			return
		}
		params.Limit = limit
	}

	results, err := h.catalogService.Search(ctx, params)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSearchUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "course search is not configured"})
		default:
			if status, ok := clientErrorStatus(err); ok {
				c.JSON(status, gin.H{"error": err.Error()})
				return
			}
			slog.ErrorContext(ctx, "course search failed", "error", err, "query", params.Query)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "course search failed"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.SearchResponse{Results: results})
}

// TriggerSync queues a full catalog reindex into the graph and search
// backends (admin only).
func (h *CatalogHandler) TriggerSync(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.catalogService.TriggerSync(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to queue catalog sync", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to queue catalog sync"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

// RequireAdminAPIKey middleware checks for valid admin API key
func (h *CatalogHandler) RequireAdminAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.adminAPIKey == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "admin API not configured"})
			c.Abort()
			return
		}

		apiKey := c.GetHeader("X-Admin-API-Key")
		if apiKey == "" {
			apiKey = c.GetHeader("Authorization")
			if len(apiKey) > 7 && apiKey[:7] == "Bearer " {
				apiKey = apiKey[7:]
			}
		}

		if apiKey != h.adminAPIKey {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing API key"})
			c.Abort()
			return
		}

		c.Next()
	}
}
