package store

import (
	"context"
	"errors"
	"time"

	"pathwise.app/audit/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// UserStore defines the contract for user data access
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	UpsertByWorkOSID(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id int64) error
}

// SessionStore defines the contract for session data access
type SessionStore interface {
	GetByID(ctx context.Context, id int64) (*model.Session, error)
	GetValid(ctx context.Context, id int64) (*model.Session, error) // checks expiry
	Create(ctx context.Context, session *model.Session) error
	Extend(ctx context.Context, id int64, expiresAt time.Time) error
	Delete(ctx context.Context, id int64) error
	DeleteByUser(ctx context.Context, userID int64) error
	DeleteExpired(ctx context.Context) error
	ListByUser(ctx context.Context, userID int64) ([]model.Session, error)
}

// PlanStore defines the contract for degree plan data access. Get methods
// return the plan shell only; LoadFull attaches areas, courses, PLO mappings
// and the market snapshot.
type PlanStore interface {
	GetByID(ctx context.Context, id int64) (*model.Plan, error)
	GetBySlug(ctx context.Context, slug string) (*model.Plan, error)
	LoadFull(ctx context.Context, plan *model.Plan) error
	Create(ctx context.Context, plan *model.Plan) error
	Update(ctx context.Context, plan *model.Plan) error
	UpdateStatus(ctx context.Context, id int64, status model.PlanStatus) error
	Delete(ctx context.Context, id int64) error
	ListByUser(ctx context.Context, userID int64) ([]model.Plan, error)

	ReplaceAreas(ctx context.Context, planID int64, areas []model.PlanArea) error
	ReplaceElectives(ctx context.Context, planID int64, electives []model.PlanCourse) error
	ReplacePLOMappings(ctx context.Context, planID int64, mappings map[string][]string) error
}

// MarketStore defines the contract for market research snapshot access.
// Snapshots are append-only per emphasis; there is no update or delete.
type MarketStore interface {
	Create(ctx context.Context, snapshot *model.MarketSnapshot) error
	LatestByEmphasis(ctx context.Context, emphasis string) (*model.MarketSnapshot, error)
}

// ReportStore defines the contract for validation report data access.
// ClaimQueued is the worker's entry point: it atomically transitions a
// queued or failed report to running and reports whether the claim won.
type ReportStore interface {
	GetByID(ctx context.Context, id int64) (*model.ValidationReport, error)
	GetLatestByPlan(ctx context.Context, planID int64) (*model.ValidationReport, error)
	Create(ctx context.Context, report *model.ValidationReport) error
	ClaimQueued(ctx context.Context, id int64) (bool, *model.ValidationReport, error)
	MarkComplete(ctx context.Context, id int64, passed bool, report []byte) error
	MarkFailed(ctx context.Context, id int64, errMsg *string) error
	ListByPlan(ctx context.Context, planID int64, limit int32) ([]model.ValidationReport, error)
}

// CourseStore defines the contract for catalog data access
type CourseStore interface {
	GetByCode(ctx context.Context, code string) (*model.Course, error)
	Upsert(ctx context.Context, course *model.Course) error
	Deactivate(ctx context.Context, code string) error
	List(ctx context.Context, activeOnly bool) ([]model.Course, error)
	ListByDiscipline(ctx context.Context, discipline string) ([]model.Course, error)

	ReplacePrerequisites(ctx context.Context, courseCode string, prereqs []model.CoursePrerequisite) error
	ListPrerequisites(ctx context.Context, courseCodes []string) ([]model.CoursePrerequisite, error)
	ListAllPrerequisites(ctx context.Context) ([]model.CoursePrerequisite, error)
}

// GECategoryStore defines the contract for general education rule data access
type GECategoryStore interface {
	List(ctx context.Context) ([]model.GECategory, error)
	Upsert(ctx context.Context, category *model.GECategory) error
	Delete(ctx context.Context, code string) error

	ListAssignments(ctx context.Context) ([]model.GEAssignment, error)
	ReplaceAssignments(ctx context.Context, categoryCode string, courseCodes []string) error
	ReplaceCourseAssignments(ctx context.Context, courseCode string, categoryCodes []string) error
}
