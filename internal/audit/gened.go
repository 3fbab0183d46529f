package audit

import "sort"

type GEStatus string

const (
	GEComplete   GEStatus = "complete"
	GEInProgress GEStatus = "in_progress"
	GENeeded     GEStatus = "needed"
)

// GECategory is one institution-wide general education requirement.
type GECategory struct {
	Code            string  `json:"code"`
	Name            string  `json:"name"`
	CreditsRequired float64 `json:"credits_required"`
}

// GECategoryResult reports one category's completion state. Courses lists
// the qualifying course codes that were counted or are underway, sorted.
type GECategoryResult struct {
	Code            string   `json:"code"`
	Name            string   `json:"name"`
	CreditsRequired float64  `json:"credits_required"`
	CreditsEarned   float64  `json:"credits_earned"`
	Status          GEStatus `json:"status"`
	Courses         []string `json:"courses"`
}

// GEResult is the whole general education picture: one entry per category,
// sorted by category code, and an overall completion flag.
type GEResult struct {
	Categories []GECategoryResult `json:"categories"`
	Complete   bool               `json:"complete"`
}

// TrackGeneralEducation matches plan courses against the category list using
// the catalog-supplied assignment map (course code to category codes). The
// engine never guesses which category a course satisfies; that mapping is
// catalog data. A category is complete when earned credits reach the
// requirement, in progress when a qualifying course is underway and the sum
// is still short, and needed otherwise.
func TrackGeneralEducation(courses []Course, categories []GECategory, assignments map[string][]string) (GEResult, error) {
	byCode, err := validateCategories(categories)
	if err != nil {
		return GEResult{}, err
	}

	type tally struct {
		earned     float64
		inProgress bool
		courses    []string
	}
	tallies := make(map[string]*tally, len(categories))
	for code := range byCode {
		tallies[code] = &tally{}
	}

	counted := make(map[string]bool)
	for _, c := range courses {
		if c.Credits < 0 {
			return GEResult{}, newDataIntegrityError("negative credit value", c.Code)
		}
		code := NormalizeCode(c.Code)
		catCodes, ok := assignments[code]
		if !ok || counted[code] {
			continue
		}
		counted[code] = true
		for _, catCode := range catCodes {
			t, known := tallies[catCode]
			if !known {
				return GEResult{}, newDataIntegrityError("course assigned to unknown general education category "+catCode, code)
			}
			switch {
			case c.Status == StatusCompleted && passingGrade(c.Grade):
				t.earned += c.Credits
				t.courses = append(t.courses, code)
			case c.Status == StatusInProgress:
				t.inProgress = true
				t.courses = append(t.courses, code)
			}
		}
	}

	result := GEResult{Categories: make([]GECategoryResult, 0, len(categories)), Complete: true}
	codes := make([]string, 0, len(byCode))
	for code := range byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		cat := byCode[code]
		t := tallies[code]
		sort.Strings(t.courses)

		cr := GECategoryResult{
			Code:            cat.Code,
			Name:            cat.Name,
			CreditsRequired: cat.CreditsRequired,
			CreditsEarned:   t.earned,
			Courses:         t.courses,
		}
		if cr.Courses == nil {
			cr.Courses = []string{}
		}
		switch {
		case t.earned >= cat.CreditsRequired:
			cr.Status = GEComplete
		case t.inProgress:
			cr.Status = GEInProgress
		default:
			cr.Status = GENeeded
		}
		if cr.Status != GEComplete {
			result.Complete = false
		}
		result.Categories = append(result.Categories, cr)
	}

	return result, nil
}

// validateCategories rejects an unusable category list. Called both by the
// tracker and by the orchestrator up front, so a broken rule set fails the
// whole validation instead of one section.
func validateCategories(categories []GECategory) (map[string]GECategory, error) {
	if len(categories) == 0 {
		return nil, newConfigurationError("no general education categories defined")
	}
	byCode := make(map[string]GECategory, len(categories))
	for _, cat := range categories {
		if cat.Code == "" {
			return nil, newConfigurationError("general education category with empty code")
		}
		if cat.CreditsRequired <= 0 {
			return nil, newConfigurationError("category %q requires %g credits; must be positive", cat.Code, cat.CreditsRequired)
		}
		if _, dup := byCode[cat.Code]; dup {
			return nil, newConfigurationError("duplicate general education category %q", cat.Code)
		}
		byCode[cat.Code] = cat
	}
	return byCode, nil
}
