package model

import "time"

type PlanStatus string

const (
	PlanStatusDraft     PlanStatus = "draft"
	PlanStatusSubmitted PlanStatus = "submitted"
	PlanStatusArchived  PlanStatus = "archived"
)

// Plan is a student-built degree plan: three concentration areas plus
// electives, with optional learning-outcome mappings and a market snapshot
// for the emphasis. MissionStatement is student-authored text stored
// verbatim; the slug derives from the emphasis title.
type Plan struct {
	ID               int64      `json:"id"`
	UserID           int64      `json:"user_id"`
	Slug             string     `json:"slug"`
	Title            string     `json:"title"`
	EmphasisTitle    string     `json:"emphasis_title"`
	MissionStatement string     `json:"mission_statement,omitempty"`
	Status           PlanStatus `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	Areas       []PlanArea          `json:"areas,omitempty"`
	Electives   []PlanCourse        `json:"electives,omitempty"`
	PLOMappings map[string][]string `json:"plo_mappings,omitempty"`
	Market      *MarketSnapshot     `json:"market,omitempty"`
}

type PlanArea struct {
	ID       int64        `json:"id"`
	PlanID   int64        `json:"plan_id"`
	Name     string       `json:"name"`
	Position int32        `json:"position"`
	Courses  []PlanCourse `json:"courses"`
}

type PlanCourse struct {
	ID       int64   `json:"id"`
	PlanID   int64   `json:"plan_id"`
	AreaID   *int64  `json:"area_id,omitempty"`
	Code     string  `json:"code"`
	Title    string  `json:"title,omitempty"`
	Credits  float64 `json:"credits"`
	Status   string  `json:"status"`
	Grade    *string `json:"grade,omitempty"`
	Term     *string `json:"term,omitempty"`
	Position int32   `json:"position"`
}

// MarketSnapshot is one market research capture for an emphasis. Snapshots
// are append-only; the latest one per emphasis is what plans and lookups see.
type MarketSnapshot struct {
	ID         int64     `json:"id"`
	Emphasis   string    `json:"emphasis"`
	SalaryLow  float64   `json:"salary_low"`
	SalaryHigh float64   `json:"salary_high"`
	GrowthPct  float64   `json:"growth_pct"`
	KeySkills  []string  `json:"key_skills"`
	CapturedAt time.Time `json:"captured_at"`
}
