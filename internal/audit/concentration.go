package audit

import "sort"

// Area is one declared concentration area of an individualized plan.
type Area struct {
	Name    string   `json:"name"`
	Courses []Course `json:"courses"`
}

// AreaResult reports one area against the per-area minimums.
type AreaResult struct {
	Name                 string  `json:"name"`
	TotalCredits         float64 `json:"total_credits"`
	UpperDivisionCredits float64 `json:"upper_division_credits"`
	UnderCredited        bool    `json:"under_credited"`
	UnderUpperDivision   bool    `json:"under_upper_division"`
	MeetsMinimum         bool    `json:"meets_minimum"`
}

// ConcentrationResult is the full concentration check: per-area results
// (sorted by area name), the combined totals, and the membership-cap
// violations. OverlapViolations lists courses tagged to too many areas,
// PLOViolations courses mapped to too many learning outcomes; each offending
// course appears exactly once.
type ConcentrationResult struct {
	Areas                []AreaResult `json:"areas"`
	CombinedCredits      float64      `json:"combined_credits"`
	CombinedUpperCredits float64      `json:"combined_upper_credits"`
	MeetsCombinedMinimum bool         `json:"meets_combined_minimum"`
	OverlapViolations    []string     `json:"overlap_violations"`
	PLOViolations        []string     `json:"plo_violations"`
}

// ValidateConcentrations checks every declared area against the configured
// per-area and combined minimums and enforces the membership caps.
// ploMappings maps course code to the learning outcomes it claims to cover;
// pass nil when the plan carries no mappings.
func ValidateConcentrations(areas []Area, ploMappings map[string][]string, cfg Config, opts AggregateOptions) (ConcentrationResult, error) {
	result := ConcentrationResult{
		Areas:             make([]AreaResult, 0, len(areas)),
		OverlapViolations: []string{},
		PLOViolations:     []string{},
	}

	areaCount := make(map[string]int)
	var combined []Course
	for _, area := range areas {
		sum, err := AggregateCredits(area.Courses, cfg, opts)
		if err != nil {
			return ConcentrationResult{}, err
		}

		ar := AreaResult{
			Name:                 area.Name,
			TotalCredits:         sum.TotalCredits,
			UpperDivisionCredits: sum.UpperDivisionCredits,
		}
		if cfg.AreaMinCredits > 0 && sum.TotalCredits < cfg.AreaMinCredits {
			ar.UnderCredited = true
		}
		if cfg.AreaMinUpperCredits > 0 && sum.UpperDivisionCredits < cfg.AreaMinUpperCredits {
			ar.UnderUpperDivision = true
		}
		ar.MeetsMinimum = !ar.UnderCredited && !ar.UnderUpperDivision
		result.Areas = append(result.Areas, ar)

		seen := make(map[string]bool)
		for _, c := range area.Courses {
			code := NormalizeCode(c.Code)
			if seen[code] {
				continue
			}
			seen[code] = true
			areaCount[code]++
		}
		combined = append(combined, area.Courses...)
	}

	sort.Slice(result.Areas, func(i, j int) bool { return result.Areas[i].Name < result.Areas[j].Name })

	combinedSum, err := AggregateCredits(combined, cfg, opts)
	if err != nil {
		return ConcentrationResult{}, err
	}
	result.CombinedCredits = combinedSum.TotalCredits
	result.CombinedUpperCredits = combinedSum.UpperDivisionCredits
	result.MeetsCombinedMinimum = true
	if cfg.CombinedMinCredits > 0 && combinedSum.TotalCredits < cfg.CombinedMinCredits {
		result.MeetsCombinedMinimum = false
	}
	if cfg.CombinedMinUpperCredits > 0 && combinedSum.UpperDivisionCredits < cfg.CombinedMinUpperCredits {
		result.MeetsCombinedMinimum = false
	}

	for code, n := range areaCount {
		if n > cfg.MaxAreaMemberships {
			result.OverlapViolations = append(result.OverlapViolations, code)
		}
	}
	sort.Strings(result.OverlapViolations)

	for code, plos := range ploMappings {
		distinct := make(map[string]bool)
		for _, p := range plos {
			distinct[p] = true
		}
		if len(distinct) > cfg.MaxPLOMappings {
			result.PLOViolations = append(result.PLOViolations, NormalizeCode(code))
		}
	}
	sort.Strings(result.PLOViolations)

	return result, nil
}
