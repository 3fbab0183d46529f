package audit

import "strconv"

type RemediationKind string

const (
	RemediationCreditShortfall      RemediationKind = "credit-shortfall"
	RemediationDisciplineShortfall  RemediationKind = "discipline-shortfall"
	RemediationMissingPrerequisite  RemediationKind = "missing-prerequisite"
	RemediationGEGap                RemediationKind = "ge-gap"
	RemediationConcentrationOverlap RemediationKind = "concentration-overlap"
	RemediationDataError            RemediationKind = "data-error"
)

// RemediationItem is one actionable finding: a machine-checkable kind plus
// human-readable detail for the advising surface.
type RemediationItem struct {
	Kind    RemediationKind `json:"kind"`
	Detail  string          `json:"detail"`
	Courses []string        `json:"courses,omitempty"`
}

// Plan is a full submission: the declared concentration areas, courses
// outside any area, learning outcome mappings, and optionally the market
// signals researched for the emphasis. Projected switches aggregation to
// count planned courses.
type Plan struct {
	Areas       []Area              `json:"areas"`
	Electives   []Course            `json:"electives,omitempty"`
	PLOMappings map[string][]string `json:"plo_mappings,omitempty"`
	Market      *MarketSignals      `json:"market,omitempty"`
	Projected   bool                `json:"projected,omitempty"`
}

// AllCourses returns every course the plan references, areas first then
// electives. Duplicates are left in; aggregation dedupes by code.
func (p Plan) AllCourses() []Course {
	var all []Course
	for _, area := range p.Areas {
		all = append(all, area.Courses...)
	}
	all = append(all, p.Electives...)
	return all
}

// Facts is the read-only catalog view a validation runs against.
type Facts struct {
	Edges         []Edge              `json:"edges"`
	GECategories  []GECategory        `json:"ge_categories"`
	GEAssignments map[string][]string `json:"ge_assignments"`
}

// CoursePrereqCheck is the prerequisite verdict for one plan course.
type CoursePrereqCheck struct {
	Course      string     `json:"course"`
	UnmetChains [][]string `json:"unmet_chains"`
}

// PrereqSection summarizes prerequisite checks across the whole plan:
// every planned or in-progress course is a target.
type PrereqSection struct {
	CoursesChecked int                 `json:"courses_checked"`
	Unsatisfied    []CoursePrereqCheck `json:"unsatisfied"`
	CyclesDetected [][]string          `json:"cycles_detected"`
}

// Report is the composite validation outcome. Sections are always present
// (zero-valued when their checker hit a data error); Issues collects every
// remediation item in a fixed section order so identical input produces an
// identical report.
type Report struct {
	Passed           bool                `json:"passed"`
	Credits          CreditSummary       `json:"credits"`
	Concentrations   ConcentrationResult `json:"concentrations"`
	Disciplines      DisciplineResult    `json:"disciplines"`
	GeneralEducation GEResult            `json:"general_education"`
	Prerequisites    PrereqSection       `json:"prerequisites"`
	Market           *MarketAssessment   `json:"market,omitempty"`
	Issues           []RemediationItem   `json:"issues"`
}

// formatCredits renders a credit value without trailing zeros: 5 not 5.0,
// 4.5 kept as 4.5.
func formatCredits(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
