package worker

import (
	"context"
	"fmt"

	"pathwise.app/audit/internal/audit"
	"pathwise.app/audit/internal/mapper"
	"pathwise.app/audit/internal/model"
)

// Processor runs the validation engine over one loaded plan. It assembles
// the catalog facts, maps the plan into engine form and returns the raw
// report; persistence stays with the worker's transaction.
type Processor struct {
	facts FactsSource
	rules audit.Config
}

func NewProcessor(facts FactsSource, rules audit.Config) *Processor {
	return &Processor{
		facts: facts,
		rules: rules,
	}
}

func (p *Processor) Process(ctx context.Context, plan *model.Plan, projected bool) (*audit.Report, error) {
	enginePlan := mapper.EnginePlan(plan, projected)

	courses := enginePlan.AllCourses()
	codes := make([]string, 0, len(courses))
	for _, course := range courses {
		codes = append(codes, course.Code)
	}

	facts, err := p.facts.FactsFor(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("assembling catalog facts: %w", err)
	}

	return audit.Validate(ctx, enginePlan, facts, p.rules)
}
