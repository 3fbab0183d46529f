package dto

import (
	"encoding/json"
	"time"

	"pathwise.app/audit/internal/model"
)

type CreatePlanRequest struct {
	Title            string  `json:"title" binding:"required,min=1,max=255"`
	EmphasisTitle    string  `json:"emphasis_title" binding:"required,min=1,max=255"`
	MissionStatement string  `json:"mission_statement,omitempty" binding:"max=4000"`
	Slug             *string `json:"slug,omitempty" binding:"omitempty,min=1,max=255"`
}

type UpdatePlanRequest struct {
	Title            string `json:"title" binding:"required,min=1,max=255"`
	EmphasisTitle    string `json:"emphasis_title" binding:"required,min=1,max=255"`
	MissionStatement string `json:"mission_statement,omitempty" binding:"max=4000"`
}

type PlanCoursePayload struct {
	Code    string  `json:"code" binding:"required,max=16"`
	Title   string  `json:"title,omitempty" binding:"max=255"`
	Credits float64 `json:"credits" binding:"gte=0"`
	Status  string  `json:"status,omitempty" binding:"omitempty,oneof=completed in_progress planned withdrawn"`
	Grade   *string `json:"grade,omitempty" binding:"omitempty,max=4"`
	Term    *string `json:"term,omitempty" binding:"omitempty,max=32"`
}

type PlanAreaPayload struct {
	Name    string              `json:"name" binding:"required,min=1,max=255"`
	Courses []PlanCoursePayload `json:"courses" binding:"dive"`
}

type ReplaceAreasRequest struct {
	Areas []PlanAreaPayload `json:"areas" binding:"required,dive"`
}

type ReplaceElectivesRequest struct {
	Electives []PlanCoursePayload `json:"electives" binding:"required,dive"`
}

type ReplacePLOMappingsRequest struct {
	Mappings map[string][]string `json:"mappings" binding:"required"`
}

type SubmitPlanRequest struct {
	Projected *bool `json:"projected,omitempty" jsonschema:"description=Count planned courses toward totals; defaults to true"`
}

func ToPlanCourses(payloads []PlanCoursePayload) []model.PlanCourse {
	courses := make([]model.PlanCourse, len(payloads))
	for i, p := range payloads {
		courses[i] = model.PlanCourse{
			Code:    p.Code,
			Title:   p.Title,
			Credits: p.Credits,
			Status:  p.Status,
			Grade:   p.Grade,
			Term:    p.Term,
		}
	}
	return courses
}

func ToPlanAreas(payloads []PlanAreaPayload) []model.PlanArea {
	areas := make([]model.PlanArea, len(payloads))
	for i, p := range payloads {
		areas[i] = model.PlanArea{
			Name:    p.Name,
			Courses: ToPlanCourses(p.Courses),
		}
	}
	return areas
}

type PlanCourseResponse struct {
	ID       int64   `json:"id,string"`
	Code     string  `json:"code"`
	Title    string  `json:"title,omitempty"`
	Credits  float64 `json:"credits"`
	Status   string  `json:"status"`
	Grade    *string `json:"grade,omitempty"`
	Term     *string `json:"term,omitempty"`
	Position int32   `json:"position"`
}

type PlanAreaResponse struct {
	ID       int64                `json:"id,string"`
	Name     string               `json:"name"`
	Position int32                `json:"position"`
	Courses  []PlanCourseResponse `json:"courses"`
}

type PlanResponse struct {
	ID               int64                 `json:"id,string"`
	Slug             string                `json:"slug"`
	Title            string                `json:"title"`
	EmphasisTitle    string                `json:"emphasis_title"`
	MissionStatement string                `json:"mission_statement,omitempty"`
	Status           string                `json:"status"`
	Areas            []PlanAreaResponse    `json:"areas,omitempty"`
	Electives        []PlanCourseResponse  `json:"electives,omitempty"`
	PLOMappings      map[string][]string   `json:"plo_mappings,omitempty"`
	Market           *model.MarketSnapshot `json:"market,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

func toPlanCourseResponses(courses []model.PlanCourse) []PlanCourseResponse {
	if len(courses) == 0 {
		return nil
	}
	out := make([]PlanCourseResponse, len(courses))
	for i, c := range courses {
		out[i] = PlanCourseResponse{
			ID:       c.ID,
			Code:     c.Code,
			Title:    c.Title,
			Credits:  c.Credits,
			Status:   c.Status,
			Grade:    c.Grade,
			Term:     c.Term,
			Position: c.Position,
		}
	}
	return out
}

func ToPlanResponse(p *model.Plan) *PlanResponse {
	resp := &PlanResponse{
		ID:               p.ID,
		Slug:             p.Slug,
		Title:            p.Title,
		EmphasisTitle:    p.EmphasisTitle,
		MissionStatement: p.MissionStatement,
		Status:           string(p.Status),
		Electives:        toPlanCourseResponses(p.Electives),
		PLOMappings:      p.PLOMappings,
		Market:           p.Market,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	for _, area := range p.Areas {
		resp.Areas = append(resp.Areas, PlanAreaResponse{
			ID:       area.ID,
			Name:     area.Name,
			Position: area.Position,
			Courses:  toPlanCourseResponses(area.Courses),
		})
	}
	return resp
}

type PlanListResponse struct {
	Plans []PlanResponse `json:"plans"`
}

func ToPlanListResponse(plans []model.Plan) PlanListResponse {
	resp := PlanListResponse{Plans: make([]PlanResponse, len(plans))}
	for i := range plans {
		resp.Plans[i] = *ToPlanResponse(&plans[i])
	}
	return resp
}

type ReportResponse struct {
	ID         int64           `json:"id,string"`
	PlanID     int64           `json:"plan_id,string"`
	Status     string          `json:"status"`
	Projected  bool            `json:"projected"`
	Passed     *bool           `json:"passed,omitempty"`
	Report     json.RawMessage `json:"report,omitempty"`
	Error      *string         `json:"error,omitempty"`
	Attempt    int32           `json:"attempt"`
	CreatedAt  time.Time       `json:"created_at"`
	StartedAt  *time.Time      `json:"started_at,omitempty"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
}

func ToReportResponse(r *model.ValidationReport) *ReportResponse {
	return &ReportResponse{
		ID:         r.ID,
		PlanID:     r.PlanID,
		Status:     string(r.Status),
		Projected:  r.Projected,
		Passed:     r.Passed,
		Report:     r.Report,
		Error:      r.Error,
		Attempt:    r.Attempt,
		CreatedAt:  r.CreatedAt,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
}

type ReportListResponse struct {
	Reports []ReportResponse `json:"reports"`
}

func ToReportListResponse(reports []model.ValidationReport) ReportListResponse {
	resp := ReportListResponse{Reports: make([]ReportResponse, len(reports))}
	for i := range reports {
		resp.Reports[i] = *ToReportResponse(&reports[i])
	}
	return resp
}
