package model

import "time"

// Course is a catalog course, the institutional record plans reference by
// code.
type Course struct {
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

type RequirementKind string

const (
	RequirementKindPrerequisite RequirementKind = "prerequisite"
	RequirementKindCorequisite  RequirementKind = "corequisite"
	RequirementKindRecommended  RequirementKind = "recommended"
)

type CoursePrerequisite struct {
	ID              int64           `json:"id"`
	CourseCode      string          `json:"course_code"`
	RequirementCode string          `json:"requirement_code"`
	Kind            RequirementKind `json:"kind"`
	MinGrade        *string         `json:"min_grade,omitempty"`
}

type GECategory struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	MinCredits float64 `json:"min_credits"`
}

type GEAssignment struct {
	CourseCode   string `json:"course_code"`
	CategoryCode string `json:"category_code"`
}
