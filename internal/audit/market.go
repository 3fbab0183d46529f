package audit

import (
	"fmt"
	"math"
	"strings"
)

// MarketSignals is externally researched labor-market data for a degree
// emphasis. The engine never gathers this; a collaborator supplies it.
type MarketSignals struct {
	SalaryMin     float64  `json:"salary_min"`
	SalaryMax     float64  `json:"salary_max"`
	GrowthRatePct float64  `json:"growth_rate_pct"`
	KeySkills     []string `json:"key_skills,omitempty"`
}

// MarketAssessment is the deterministic viability read of those signals.
type MarketAssessment struct {
	ViabilityScore int    `json:"viability_score"`
	SalaryScore    int    `json:"salary_score"`
	GrowthScore    int    `json:"growth_score"`
	Outlook        string `json:"outlook"`
	Summary        string `json:"summary"`
}

// Normalization bounds and weights for the viability score. Salary is read
// at the range midpoint against a floor-to-ceiling band; growth against a
// projected-decline-to-boom band. The two sub-scores weigh equally.
const (
	salaryFloor   = 30000.0
	salaryCeiling = 120000.0
	growthFloor   = -10.0
	growthCeiling = 20.0

	outlookExcellent = 85
	outlookGood      = 70
	outlookFair      = 55
)

// ScoreMarketViability maps market signals to a 0-100 score and a templated
// summary. Pure: the same signals always produce the same assessment.
func ScoreMarketViability(sig MarketSignals) (MarketAssessment, error) {
	if sig.SalaryMin < 0 || sig.SalaryMax < 0 {
		return MarketAssessment{}, newDataIntegrityError("negative salary signal")
	}
	if sig.SalaryMax < sig.SalaryMin {
		return MarketAssessment{}, newDataIntegrityError(
			fmt.Sprintf("salary range inverted: %g > %g", sig.SalaryMin, sig.SalaryMax))
	}

	midpoint := (sig.SalaryMin + sig.SalaryMax) / 2
	salaryScore := normalize(midpoint, salaryFloor, salaryCeiling)
	growthScore := normalize(sig.GrowthRatePct, growthFloor, growthCeiling)
	viability := int(math.Round(0.5*float64(salaryScore) + 0.5*float64(growthScore)))

	outlook := outlookFor(viability)

	var b strings.Builder
	fmt.Fprintf(&b, "Outlook %s: viability %d/100.", outlook, viability)
	fmt.Fprintf(&b, " Salary signal %d/100 (range midpoint $%.0f);", salaryScore, midpoint)
	fmt.Fprintf(&b, " growth signal %d/100 (%+.1f%% projected).", growthScore, sig.GrowthRatePct)
	if len(sig.KeySkills) > 0 {
		fmt.Fprintf(&b, " Key skills: %s.", strings.Join(sig.KeySkills, ", "))
	}

	return MarketAssessment{
		ViabilityScore: viability,
		SalaryScore:    salaryScore,
		GrowthScore:    growthScore,
		Outlook:        outlook,
		Summary:        b.String(),
	}, nil
}

func normalize(value, floor, ceiling float64) int {
	scaled := (value - floor) / (ceiling - floor) * 100
	if scaled < 0 {
		scaled = 0
	}
	if scaled > 100 {
		scaled = 100
	}
	return int(math.Round(scaled))
}

func outlookFor(score int) string {
	switch {
	case score >= outlookExcellent:
		return "excellent"
	case score >= outlookGood:
		return "good"
	case score >= outlookFair:
		return "fair"
	default:
		return "challenging"
	}
}
