package audit

import "sort"

// DisciplineResult reports how many distinct disciplines the concentration
// areas draw on. Disciplines are sorted for stable output.
type DisciplineResult struct {
	DisciplineCount int      `json:"discipline_count"`
	Disciplines     []string `json:"disciplines"`
	MeetsMinimum    bool     `json:"meets_minimum"`
}

// CheckDisciplineDiversity counts distinct discipline prefixes across every
// course tagged to a concentration area. General electives are not
// considered; breadth is a property of the declared concentrations.
func CheckDisciplineDiversity(areas []Area, cfg Config) (DisciplineResult, error) {
	distinct := make(map[string]bool)
	for _, area := range areas {
		for _, c := range area.Courses {
			if c.Status == StatusWithdrawn {
				continue
			}
			prefix, _, err := SplitCode(c.Code)
			if err != nil {
				return DisciplineResult{}, err
			}
			distinct[prefix] = true
		}
	}

	disciplines := make([]string, 0, len(distinct))
	for d := range distinct {
		disciplines = append(disciplines, d)
	}
	sort.Strings(disciplines)

	return DisciplineResult{
		DisciplineCount: len(disciplines),
		Disciplines:     disciplines,
		MeetsMinimum:    len(disciplines) >= cfg.MinDisciplines,
	}, nil
}
