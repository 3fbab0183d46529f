package dto

import (
	"time"

	"pathwise.app/audit/common/typesense"
	"pathwise.app/audit/internal/audit"
	"pathwise.app/audit/internal/model"
	"pathwise.app/audit/internal/service"
)

type PrerequisitePayload struct {
	Code     string  `json:"code" binding:"required,max=16"`
	Kind     string  `json:"kind,omitempty" binding:"omitempty,oneof=prerequisite corequisite recommended"`
	MinGrade *string `json:"min_grade,omitempty" binding:"omitempty,max=4"`
}

type UpsertCourseRequest struct {
	Code          string                `json:"code" binding:"required,max=16"`
	Title         string                `json:"title" binding:"required,min=1,max=255"`
	Credits       float64               `json:"credits" binding:"gte=0"`
	Description   string                `json:"description,omitempty" binding:"max=4000"`
	Prerequisites []PrerequisitePayload `json:"prerequisites,omitempty" binding:"dive"`
	GECategories  []string              `json:"ge_categories,omitempty"`
}

func (r UpsertCourseRequest) ToParams() service.CourseParams {
	params := service.CourseParams{
		Code:         r.Code,
		Title:        r.Title,
		Credits:      r.Credits,
		Description:  r.Description,
		GECategories: r.GECategories,
	}
	for _, p := range r.Prerequisites {
		params.Prerequisites = append(params.Prerequisites, service.PrerequisiteParams{
			Code:     p.Code,
			Kind:     p.Kind,
			MinGrade: p.MinGrade,
		})
	}
	return params
}

type CourseResponse struct {
	Code        string    `json:"code"`
	Title       string    `json:"title"`
	Credits     float64   `json:"credits"`
	Level       int32     `json:"level"`
	Discipline  string    `json:"discipline"`
	Description string    `json:"description,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func ToCourseResponse(course *model.Course) *CourseResponse {
	return &CourseResponse{
		Code:        course.Code,
		Title:       course.Title,
		Credits:     course.Credits,
		Level:       course.Level,
		Discipline:  course.Discipline,
		Description: course.Description,
		Active:      course.Active,
		CreatedAt:   course.CreatedAt,
		UpdatedAt:   course.UpdatedAt,
	}
}

type CourseListResponse struct {
	Courses []CourseResponse `json:"courses"`
}

func ToCourseListResponse(courses []model.Course) CourseListResponse {
	resp := CourseListResponse{Courses: make([]CourseResponse, len(courses))}
	for i := range courses {
		resp.Courses[i] = *ToCourseResponse(&courses[i])
	}
	return resp
}

type PrerequisiteChainResponse struct {
	Course string       `json:"course"`
	Edges  []audit.Edge `json:"edges"`
}

type GECategoryRequest struct {
	Code       string  `json:"code" binding:"required,min=1,max=16"`
	Name       string  `json:"name" binding:"required,min=1,max=255"`
	MinCredits float64 `json:"min_credits" binding:"required,gt=0"`
}

type GECategoryListResponse struct {
	Categories []model.GECategory `json:"categories"`
}

type ReplaceGEAssignmentsRequest struct {
	Courses []string `json:"courses" binding:"required"`
}

type SearchResponse struct {
	Results []typesense.CourseDocument `json:"results"`
}
