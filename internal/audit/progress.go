package audit

import "math"

// Progress summarizes how far a plan has advanced against the configured
// graduation requirements, counting completed coursework only.
type Progress struct {
	CreditsEarned        float64 `json:"credits_earned"`
	CreditsRequired      float64 `json:"credits_required"`
	UpperCreditsEarned   float64 `json:"upper_credits_earned"`
	UpperCreditsRequired float64 `json:"upper_credits_required"`
	CreditsInProgress    float64 `json:"credits_in_progress"`
	DisciplineCount      int     `json:"discipline_count"`
	DisciplinesRequired  int     `json:"disciplines_required"`
	CompletionPct        float64 `json:"completion_pct"`
}

// AnalyzeProgress computes earned and in-flight credit totals for a plan.
// Unlike Validate it never projects planned work; in-progress courses are
// reported separately so callers can show both figures.
func AnalyzeProgress(plan Plan, cfg Config) (*Progress, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	courses := plan.AllCourses()
	completed := make([]Course, 0, len(courses))
	var inProgress float64
	for _, c := range courses {
		switch c.Status {
		case StatusCompleted:
			completed = append(completed, c)
		case StatusInProgress:
			if c.Credits < 0 {
				return nil, newDataIntegrityError("negative credit value", c.Code)
			}
			inProgress += c.Credits
		}
	}

	earned, err := AggregateCredits(completed, cfg, AggregateOptions{})
	if err != nil {
		return nil, err
	}

	diversity, err := CheckDisciplineDiversity(plan.Areas, cfg)
	if err != nil {
		return nil, err
	}

	p := &Progress{
		CreditsEarned:        earned.TotalCredits,
		CreditsRequired:      cfg.TotalCredits,
		UpperCreditsEarned:   earned.UpperDivisionCredits,
		UpperCreditsRequired: cfg.UpperDivisionCredits,
		CreditsInProgress:    inProgress,
		DisciplineCount:      diversity.DisciplineCount,
		DisciplinesRequired:  cfg.MinDisciplines,
	}
	pct := earned.TotalCredits / cfg.TotalCredits * 100
	p.CompletionPct = math.Min(100, math.Round(pct*10)/10)
	return p, nil
}
