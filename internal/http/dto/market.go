package dto

import (
	"pathwise.app/audit/internal/service"
)

type MarketResearchRequest struct {
	Emphasis   string   `json:"emphasis" binding:"required,min=1,max=255" jsonschema:"required,description=Emphasis title the signals describe"`
	SalaryLow  float64  `json:"salary_low" binding:"gte=0" jsonschema:"required,description=Low end of the observed salary band in USD"`
	SalaryHigh float64  `json:"salary_high" binding:"gtefield=SalaryLow" jsonschema:"required,description=High end of the observed salary band in USD"`
	GrowthPct  float64  `json:"growth_pct" binding:"gte=-100,lte=100" jsonschema:"required,description=Projected employment growth percentage"`
	KeySkills  []string `json:"key_skills,omitempty" binding:"max=32,dive,min=1,max=64" jsonschema:"description=Skills recurring across postings"`
}

func (r MarketResearchRequest) ToParams() service.MarketResearchParams {
	return service.MarketResearchParams{
		Emphasis:   r.Emphasis,
		SalaryLow:  r.SalaryLow,
		SalaryHigh: r.SalaryHigh,
		GrowthPct:  r.GrowthPct,
		KeySkills:  r.KeySkills,
	}
}
