package audit

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Validate fans the plan out to every checker and folds their results into
// one report. The checkers are pure and read disjoint views of immutable
// input, so they run concurrently with nothing shared but the join.
//
// Failure isolation: a checker's DataIntegrityError becomes a data-error
// remediation item and the remaining checkers still report, so the caller
// always receives a complete report. A ConfigurationError is fatal: the rule
// set itself cannot be evaluated.
func Validate(ctx context.Context, plan Plan, facts Facts, cfg Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := validateCategories(facts.GECategories); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	all := plan.AllCourses()
	opts := AggregateOptions{Projected: plan.Projected}

	var (
		wg sync.WaitGroup

		credits    CreditSummary
		creditsErr error

		conc    ConcentrationResult
		concErr error

		disc    DisciplineResult
		discErr error

		ge    GEResult
		geErr error

		prereq    PrereqSection
		prereqErr error

		market    *MarketAssessment
		marketErr error
	)

	wg.Add(5)
	go func() {
		defer wg.Done()
		credits, creditsErr = AggregateCredits(all, cfg, opts)
	}()
	go func() {
		defer wg.Done()
		conc, concErr = ValidateConcentrations(plan.Areas, plan.PLOMappings, cfg, opts)
	}()
	go func() {
		defer wg.Done()
		disc, discErr = CheckDisciplineDiversity(plan.Areas, cfg)
	}()
	go func() {
		defer wg.Done()
		ge, geErr = TrackGeneralEducation(all, facts.GECategories, facts.GEAssignments)
	}()
	go func() {
		defer wg.Done()
		prereq, prereqErr = resolvePlanPrerequisites(plan, facts.Edges)
	}()
	if plan.Market != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var m MarketAssessment
			m, marketErr = ScoreMarketViability(*plan.Market)
			if marketErr == nil {
				market = &m
			}
		}()
	}
	wg.Wait()

	for _, err := range []error{creditsErr, concErr, discErr, geErr, prereqErr, marketErr} {
		var confErr *ConfigurationError
		if errors.As(err, &confErr) {
			return nil, err
		}
	}

	report := &Report{
		Credits:          credits,
		Concentrations:   conc,
		Disciplines:      disc,
		GeneralEducation: ge,
		Prerequisites:    prereq,
		Market:           market,
		Issues:           []RemediationItem{},
	}

	if creditsErr == nil {
		appendCreditIssues(report, credits, cfg)
	} else {
		appendDataError(report, "credit aggregation", creditsErr)
	}

	if concErr == nil {
		appendConcentrationIssues(report, conc, cfg)
	} else {
		appendDataError(report, "concentration validation", concErr)
	}

	if discErr == nil {
		if !disc.MeetsMinimum {
			report.Issues = append(report.Issues, RemediationItem{
				Kind: RemediationDisciplineShortfall,
				Detail: fmt.Sprintf("concentration areas draw on %d discipline(s); %d required",
					disc.DisciplineCount, cfg.MinDisciplines),
			})
		}
	} else {
		appendDataError(report, "discipline diversity", discErr)
	}

	if geErr == nil {
		appendGEIssues(report, ge)
	} else {
		appendDataError(report, "general education tracking", geErr)
	}

	switch {
	case prereqErr == nil:
		appendPrereqIssues(report, prereq)
	case len(prereq.CyclesDetected) > 0:
		// Cycles leave a usable partial result; report both.
		appendPrereqIssues(report, prereq)
		appendDataError(report, "prerequisite resolution", prereqErr)
	default:
		appendDataError(report, "prerequisite resolution", prereqErr)
	}

	if marketErr != nil {
		appendDataError(report, "market viability scoring", marketErr)
	}

	report.Passed = len(report.Issues) == 0
	return report, nil
}

func appendCreditIssues(report *Report, credits CreditSummary, cfg Config) {
	if credits.TotalCredits < cfg.TotalCredits {
		deficit := cfg.TotalCredits - credits.TotalCredits
		report.Issues = append(report.Issues, RemediationItem{
			Kind: RemediationCreditShortfall,
			Detail: fmt.Sprintf("total credits %s of %s required; %s more needed",
				formatCredits(credits.TotalCredits), formatCredits(cfg.TotalCredits), formatCredits(deficit)),
		})
	}
	if credits.UpperDivisionCredits < cfg.UpperDivisionCredits {
		deficit := cfg.UpperDivisionCredits - credits.UpperDivisionCredits
		report.Issues = append(report.Issues, RemediationItem{
			Kind: RemediationCreditShortfall,
			Detail: fmt.Sprintf("upper-division credits %s of %s required; %s more needed",
				formatCredits(credits.UpperDivisionCredits), formatCredits(cfg.UpperDivisionCredits), formatCredits(deficit)),
		})
	}
}

func appendConcentrationIssues(report *Report, conc ConcentrationResult, cfg Config) {
	for _, area := range conc.Areas {
		if area.UnderCredited {
			report.Issues = append(report.Issues, RemediationItem{
				Kind: RemediationCreditShortfall,
				Detail: fmt.Sprintf("area %q has %s credits of %s required",
					area.Name, formatCredits(area.TotalCredits), formatCredits(cfg.AreaMinCredits)),
			})
		}
		if area.UnderUpperDivision {
			report.Issues = append(report.Issues, RemediationItem{
				Kind: RemediationCreditShortfall,
				Detail: fmt.Sprintf("area %q has %s upper-division credits of %s required",
					area.Name, formatCredits(area.UpperDivisionCredits), formatCredits(cfg.AreaMinUpperCredits)),
			})
		}
	}
	if !conc.MeetsCombinedMinimum {
		report.Issues = append(report.Issues, RemediationItem{
			Kind: RemediationCreditShortfall,
			Detail: fmt.Sprintf("concentration areas combine for %s credits (%s upper-division); %s total and %s upper-division required",
				formatCredits(conc.CombinedCredits), formatCredits(conc.CombinedUpperCredits),
				formatCredits(cfg.CombinedMinCredits), formatCredits(cfg.CombinedMinUpperCredits)),
		})
	}
	for _, code := range conc.OverlapViolations {
		report.Issues = append(report.Issues, RemediationItem{
			Kind:    RemediationConcentrationOverlap,
			Detail:  fmt.Sprintf("course %s is counted in too many concentration areas (limit %d)", code, cfg.MaxAreaMemberships),
			Courses: []string{code},
		})
	}
	for _, code := range conc.PLOViolations {
		report.Issues = append(report.Issues, RemediationItem{
			Kind:    RemediationConcentrationOverlap,
			Detail:  fmt.Sprintf("course %s is mapped to too many learning outcomes (limit %d)", code, cfg.MaxPLOMappings),
			Courses: []string{code},
		})
	}
}

func appendGEIssues(report *Report, ge GEResult) {
	for _, cat := range ge.Categories {
		if cat.Status == GEComplete {
			continue
		}
		detail := fmt.Sprintf("general education category %q has %s of %s required credits",
			cat.Name, formatCredits(cat.CreditsEarned), formatCredits(cat.CreditsRequired))
		if cat.Status == GEInProgress {
			detail += " (coursework in progress)"
		}
		report.Issues = append(report.Issues, RemediationItem{
			Kind:    RemediationGEGap,
			Detail:  detail,
			Courses: cat.Courses,
		})
	}
}

func appendPrereqIssues(report *Report, prereq PrereqSection) {
	for _, check := range prereq.Unsatisfied {
		chains := make([]string, 0, len(check.UnmetChains))
		for _, chain := range check.UnmetChains {
			chains = append(chains, strings.Join(chain, " -> "))
		}
		report.Issues = append(report.Issues, RemediationItem{
			Kind:    RemediationMissingPrerequisite,
			Detail:  fmt.Sprintf("course %s has unmet prerequisite chains: %s", check.Course, strings.Join(chains, "; ")),
			Courses: []string{check.Course},
		})
	}
}

func appendDataError(report *Report, checker string, err error) {
	var integrity *DataIntegrityError
	detail := fmt.Sprintf("%s could not complete", checker)
	item := RemediationItem{Kind: RemediationDataError}
	if errors.As(err, &integrity) {
		item.Detail = fmt.Sprintf("%s: %s", detail, integrity.Reason)
		item.Courses = integrity.Courses
	} else {
		item.Detail = fmt.Sprintf("%s: %v", detail, err)
	}
	report.Issues = append(report.Issues, item)
}

// resolvePlanPrerequisites runs the resolver for every planned or
// in-progress course in the plan. Cycles from different targets are merged
// and reported once.
func resolvePlanPrerequisites(plan Plan, edges []Edge) (PrereqSection, error) {
	all := plan.AllCourses()

	targets := make([]string, 0)
	seen := make(map[string]bool)
	for _, c := range all {
		if c.Status != StatusPlanned && c.Status != StatusInProgress {
			continue
		}
		code := NormalizeCode(c.Code)
		if seen[code] {
			continue
		}
		seen[code] = true
		targets = append(targets, code)
	}
	sort.Strings(targets)

	section := PrereqSection{Unsatisfied: []CoursePrereqCheck{}, CyclesDetected: [][]string{}}
	cycleSeen := make(map[string]bool)
	var firstErr error

	for _, target := range targets {
		result, err := ResolvePrerequisites(target, edges, all)
		if err != nil {
			var integrity *DataIntegrityError
			if errors.As(err, &integrity) && len(result.CyclesDetected) > 0 {
				// Cycle: keep the partial result, remember the error once.
				if firstErr == nil {
					firstErr = err
				}
			} else {
				return PrereqSection{}, err
			}
		}
		section.CoursesChecked++
		if len(result.UnmetChains) > 0 {
			section.Unsatisfied = append(section.Unsatisfied, CoursePrereqCheck{
				Course:      target,
				UnmetChains: result.UnmetChains,
			})
		}
		for _, cycle := range result.CyclesDetected {
			key := strings.Join(cycle, "\x00")
			if !cycleSeen[key] {
				cycleSeen[key] = true
				section.CyclesDetected = append(section.CyclesDetected, cycle)
			}
		}
	}

	sortChains(section.CyclesDetected)
	return section, firstErr
}
