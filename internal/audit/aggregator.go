package audit

import "sort"

// CreditSummary is the division breakdown for a course list. TotalCredits is
// always exactly UpperDivisionCredits + LowerDivisionCredits.
type CreditSummary struct {
	TotalCredits         float64 `json:"total_credits"`
	UpperDivisionCredits float64 `json:"upper_division_credits"`
	LowerDivisionCredits float64 `json:"lower_division_credits"`
}

// AggregateOptions selects the aggregation mode. Projected counts planned
// courses; the default counts only completed (passing) and in-progress work.
type AggregateOptions struct {
	Projected bool
}

// AggregateCredits sums credits by division. Duplicate codes are retakes:
// only the highest-credit occurrence counts, so a repeated course is never
// double-counted. Withdrawn courses never contribute. Negative credits are
// malformed catalog data.
func AggregateCredits(courses []Course, cfg Config, opts AggregateOptions) (CreditSummary, error) {
	best := make(map[string]Course, len(courses))
	order := make([]string, 0, len(courses))
	for _, c := range courses {
		if c.Credits < 0 {
			return CreditSummary{}, newDataIntegrityError("negative credit value", c.Code)
		}
		if !countsToward(c, opts.Projected) {
			continue
		}
		code := NormalizeCode(c.Code)
		prev, ok := best[code]
		if !ok {
			best[code] = c
			order = append(order, code)
			continue
		}
		if c.Credits > prev.Credits {
			best[code] = c
		}
	}

	sort.Strings(order)

	var sum CreditSummary
	for _, code := range order {
		c := best[code]
		level, err := LevelOf(code, cfg.UpperDivisionLevel)
		if err != nil {
			return CreditSummary{}, err
		}
		sum.TotalCredits += c.Credits
		if level == LevelUpper {
			sum.UpperDivisionCredits += c.Credits
		} else {
			sum.LowerDivisionCredits += c.Credits
		}
	}
	return sum, nil
}
