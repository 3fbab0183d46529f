package audit

import (
	"math"
	"sort"
)

const (
	defaultSemesterCreditCap = 15.0
	defaultMaxSemesters      = 8
)

// SequenceOptions tunes semester packing. Zero values fall back to the
// defaults above.
type SequenceOptions struct {
	SemesterCreditCap float64 `json:"semester_credit_cap"`
	MaxSemesters      int     `json:"max_semesters"`
}

func (o SequenceOptions) creditCap() float64 {
	if o.SemesterCreditCap > 0 {
		return o.SemesterCreditCap
	}
	return defaultSemesterCreditCap
}

func (o SequenceOptions) semesterLimit() int {
	if o.MaxSemesters > 0 {
		return o.MaxSemesters
	}
	return defaultMaxSemesters
}

// Semester is one packed term of the suggested ordering.
type Semester struct {
	Index   int      `json:"index"`
	Courses []string `json:"courses"`
	Credits float64  `json:"credits"`
}

// SequenceResult is a prerequisite-respecting ordering of the remaining
// coursework.
type SequenceResult struct {
	Semesters []Semester `json:"semesters"`
	// Overflow holds courses that did not fit within MaxSemesters.
	Overflow []string `json:"overflow,omitempty"`
}

// SequencePlan orders the not-yet-completed courses of a plan into semesters.
// Courses are released in topological order of their prerequisite edges and
// packed greedily under the per-semester credit cap; a course never lands in
// the same semester as one of its unmet prerequisites. Completed courses
// satisfy their outgoing edges and are not scheduled.
func SequencePlan(plan Plan, edges []Edge, opts SequenceOptions) (*SequenceResult, error) {
	courses := plan.AllCourses()

	credits := make(map[string]float64, len(courses))
	done := make(map[string]bool, len(courses))
	for _, c := range courses {
		if c.Credits < 0 {
			return nil, newDataIntegrityError("negative credit value", c.Code)
		}
		code := NormalizeCode(c.Code)
		if c.Status == StatusCompleted && passingGrade(c.Grade) {
			done[code] = true
			continue
		}
		if c.Status == StatusWithdrawn {
			continue
		}
		if _, ok := credits[code]; !ok || c.Credits > credits[code] {
			credits[code] = c.Credits
		}
	}

	pending := make([]string, 0, len(credits))
	for code := range credits {
		pending = append(pending, code)
	}
	sort.Strings(pending)

	// Dependency edges restricted to courses still being scheduled.
	deps := make(map[string][]string, len(pending))
	indegree := make(map[string]int, len(pending))
	for _, code := range pending {
		indegree[code] = 0
	}
	for _, e := range edges {
		if e.Kind == EdgeCorequisite || e.Kind == EdgeRecommended {
			continue
		}
		course := NormalizeCode(e.Course)
		requires := NormalizeCode(e.Requires)
		if _, ok := indegree[course]; !ok {
			continue
		}
		if done[requires] {
			continue
		}
		if _, ok := indegree[requires]; !ok {
			// Requirement is neither completed nor planned, so it cannot
			// constrain the packing of the courses that are.
			continue
		}
		deps[requires] = append(deps[requires], course)
		indegree[course]++
	}

	// Kahn layering: each round releases every course whose prerequisites
	// have all been placed in earlier semesters. At least one course is
	// placed per round, so the loop runs at most len(pending) times.
	ready := make([]string, 0, len(pending))
	for _, code := range pending {
		if indegree[code] == 0 {
			ready = append(ready, code)
		}
	}
	sort.Strings(ready)

	result := &SequenceResult{}
	creditCap := opts.creditCap()
	placed := 0
	for len(ready) > 0 && len(result.Semesters) < opts.semesterLimit() {
		var next []string
		var carry []string
		sem := Semester{Index: len(result.Semesters) + 1}
		for _, code := range ready {
			if sem.Credits+credits[code] > creditCap && len(sem.Courses) > 0 {
				carry = append(carry, code)
				continue
			}
			sem.Courses = append(sem.Courses, code)
			sem.Credits += credits[code]
			placed++
			for _, dependent := range deps[code] {
				indegree[dependent]--
				if indegree[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}
		result.Semesters = append(result.Semesters, sem)
		// Courses squeezed out by the credit cap compete with the newly
		// released ones in the next round.
		ready = append(carry, next...)
		sort.Strings(ready)
	}

	if placed < len(pending) {
		seen := make(map[string]bool, placed)
		for _, sem := range result.Semesters {
			for _, code := range sem.Courses {
				seen[code] = true
			}
		}
		leftover := make([]string, 0, len(pending)-placed)
		for _, code := range pending {
			if !seen[code] {
				leftover = append(leftover, code)
			}
		}
		if len(result.Semesters) < opts.semesterLimit() {
			// Nothing became ready even though courses remain: the
			// restricted edge set contains a cycle.
			return nil, newDataIntegrityError("prerequisite cycle prevents sequencing", leftover...)
		}
		result.Overflow = leftover
	}

	return result, nil
}

// EstimateSemesters converts a chain depth into a rough terms-to-complete
// figure, assuming two courses of the chain can be absorbed per term.
func EstimateSemesters(chainDepth int) int {
	if chainDepth <= 0 {
		return 1
	}
	return int(math.Ceil(float64(chainDepth+1) / 2))
}
