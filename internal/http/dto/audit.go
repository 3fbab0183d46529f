package dto

import (
	"pathwise.app/audit/internal/service"
)

// The stateless audit requests bind the service's own entry types, so the
// reflected operation schemas always match what the handlers accept.

type CreditCheckRequest struct {
	Courses   []service.CourseEntry `json:"courses" binding:"required,min=1" jsonschema:"required,description=Courses to aggregate; codes must exist in the catalog"`
	Projected bool                  `json:"projected" jsonschema:"description=Count planned courses toward projected totals"`
}

type PrerequisiteCheckRequest struct {
	Target    string                `json:"target" binding:"required,max=16" jsonschema:"required,description=Course code whose requirement chain to check"`
	Completed []service.CourseEntry `json:"completed,omitempty" jsonschema:"description=Courses already taken or in progress"`
	PlanID    *int64                `json:"plan_id,omitempty,string" jsonschema:"description=Check against a stored plan's courses instead of an inline completed list"`
}

type ConcentrationCheckRequest struct {
	Areas       map[string][]service.CourseEntry `json:"areas" binding:"required" jsonschema:"required,description=Concentration area name to its course list"`
	PLOMappings map[string][]string              `json:"plo_mappings,omitempty" jsonschema:"description=Program learning outcome to supporting course codes"`
	Overrides   *service.ThresholdOverrides      `json:"overrides,omitempty" jsonschema:"description=Per-request threshold overrides; omitted fields keep the configured minimums"`
}

type GeneralEducationRequest struct {
	Courses []service.CourseEntry `json:"courses" binding:"required,min=1" jsonschema:"required,description=Courses to apply against general education categories"`
}

type ValidatePlanRequest struct {
	Projected *bool `json:"projected,omitempty" jsonschema:"description=Count planned courses toward totals; defaults to true"`
}
