package audit

import (
	"sort"
	"strings"
)

type EdgeKind string

const (
	EdgePrerequisite EdgeKind = "prerequisite"
	EdgeCorequisite  EdgeKind = "corequisite"
	EdgeRecommended  EdgeKind = "recommended"
)

// Edge is one directed requirement: Course requires Requires. The edge set
// comes from the catalog and may contain cycles through data-entry error;
// the resolver must detect them, never follow them.
type Edge struct {
	Course   string   `json:"course"`
	Requires string   `json:"requires"`
	Kind     EdgeKind `json:"kind"`
}

// PrereqResult reports prerequisite satisfaction for one target course.
// Each unmet chain lists the courses still to be taken in prerequisite
// order, ending at the target. CyclesDetected lists each malformed cycle
// once, smallest course code first.
type PrereqResult struct {
	Satisfied      bool       `json:"satisfied"`
	UnmetChains    [][]string `json:"unmet_chains"`
	CyclesDetected [][]string `json:"cycles_detected"`
}

// ResolvePrerequisites walks prerequisite edges depth-first from the target
// and reports every chain not covered by the student's completed or
// in-progress work. Traversal prunes at satisfied courses: a passed course
// vouches for its own prerequisites. Recommended edges are advisory and
// ignored. Corequisites of the target are satisfied by completed,
// in-progress, or same-term planned courses. A detected cycle is malformed
// catalog data: it is reported in the result and returned as a
// DataIntegrityError alongside it.
func ResolvePrerequisites(target string, edges []Edge, plan []Course) (PrereqResult, error) {
	target = NormalizeCode(target)
	if target == "" {
		return PrereqResult{}, newDataIntegrityError("empty target course code")
	}

	satisfied := make(map[string]bool)
	plannedTerm := make(map[string]string)
	for _, c := range plan {
		code := NormalizeCode(c.Code)
		if satisfiesRequirement(c) {
			satisfied[code] = true
		}
		if c.Status == StatusPlanned {
			plannedTerm[code] = c.Term
		}
	}

	prereqs := make(map[string][]string)
	coreqs := make(map[string][]string)
	for _, e := range edges {
		from := NormalizeCode(e.Course)
		to := NormalizeCode(e.Requires)
		if from == "" || to == "" {
			return PrereqResult{}, newDataIntegrityError("prerequisite edge with empty course code", e.Course, e.Requires)
		}
		switch e.Kind {
		case EdgePrerequisite:
			prereqs[from] = append(prereqs[from], to)
		case EdgeCorequisite:
			coreqs[from] = append(coreqs[from], to)
		case EdgeRecommended:
			// Advisory only, never blocks.
		default:
			return PrereqResult{}, newDataIntegrityError("unknown edge kind "+string(e.Kind), from)
		}
	}
	for code := range prereqs {
		prereqs[code] = sortedDistinct(prereqs[code])
	}
	for code := range coreqs {
		coreqs[code] = sortedDistinct(coreqs[code])
	}

	w := &prereqWalker{
		prereqs:   prereqs,
		satisfied: satisfied,
		state:     make(map[string]walkState),
		memo:      make(map[string][][]string),
		seen:      make(map[string]bool),
	}

	result := PrereqResult{UnmetChains: [][]string{}, CyclesDetected: [][]string{}}

	w.state[target] = walking
	for _, req := range prereqs[target] {
		if satisfied[req] {
			continue
		}
		if w.state[req] == walking {
			w.recordCycle([]string{target}, req)
			continue
		}
		for _, sub := range w.chainsFor(req, []string{target}) {
			chain := make([]string, 0, len(sub)+1)
			chain = append(chain, sub...)
			chain = append(chain, target)
			result.UnmetChains = append(result.UnmetChains, chain)
		}
	}
	w.state[target] = walked

	for _, co := range coreqs[target] {
		if satisfied[co] {
			continue
		}
		if term, planned := plannedTerm[co]; planned && term != "" && term == plannedTerm[target] {
			continue
		}
		result.UnmetChains = append(result.UnmetChains, []string{co, target})
	}

	sortChains(result.UnmetChains)
	result.CyclesDetected = w.cycles
	sortChains(result.CyclesDetected)
	result.Satisfied = len(result.UnmetChains) == 0 && len(result.CyclesDetected) == 0

	if len(result.CyclesDetected) > 0 {
		flat := make([]string, 0)
		for _, cyc := range result.CyclesDetected {
			flat = append(flat, cyc...)
		}
		return result, newDataIntegrityError("prerequisite cycle detected", sortedDistinct(flat)...)
	}
	return result, nil
}

type walkState int

const (
	unwalked walkState = iota
	walking
	walked
)

type prereqWalker struct {
	prereqs   map[string][]string
	satisfied map[string]bool
	state     map[string]walkState
	memo      map[string][][]string
	cycles    [][]string
	seen      map[string]bool
}

// chainsFor returns every unmet chain ending at node. The node itself is
// known to be unsatisfied when called. stack is the walk path used for cycle
// extraction.
func (w *prereqWalker) chainsFor(node string, stack []string) [][]string {
	if cached, ok := w.memo[node]; ok {
		return cached
	}
	w.state[node] = walking
	stack = append(stack, node)

	var out [][]string
	for _, req := range w.prereqs[node] {
		if w.satisfied[req] {
			continue
		}
		if w.state[req] == walking {
			w.recordCycle(stack, req)
			continue
		}
		for _, sub := range w.chainsFor(req, stack) {
			chain := make([]string, 0, len(sub)+1)
			chain = append(chain, sub...)
			chain = append(chain, node)
			out = append(out, chain)
		}
	}
	if len(out) == 0 {
		out = [][]string{{node}}
	}

	w.state[node] = walked
	w.memo[node] = out
	return out
}

// recordCycle extracts the cycle from the walk stack, canonicalizes it so
// the smallest code comes first, and stores it once.
func (w *prereqWalker) recordCycle(stack []string, reentry string) {
	start := -1
	for i, code := range stack {
		if code == reentry {
			start = i
			break
		}
	}
	var cycle []string
	if start >= 0 {
		cycle = append(cycle, stack[start:]...)
	} else {
		// Re-entry through the walk root; the stack itself is the cycle.
		cycle = append(cycle, stack...)
	}

	min := 0
	for i := range cycle {
		if cycle[i] < cycle[min] {
			min = i
		}
	}
	rotated := make([]string, 0, len(cycle))
	rotated = append(rotated, cycle[min:]...)
	rotated = append(rotated, cycle[:min]...)

	key := strings.Join(rotated, "\x00")
	if w.seen[key] {
		return
	}
	w.seen[key] = true
	w.cycles = append(w.cycles, rotated)
}

func sortedDistinct(values []string) []string {
	distinct := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !distinct[v] {
			distinct[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func sortChains(chains [][]string) {
	sort.Slice(chains, func(i, j int) bool {
		a, b := chains[i], chains[j]
		for k := 0; k < len(a) && k < len(b); k++ {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return len(a) < len(b)
	})
}
