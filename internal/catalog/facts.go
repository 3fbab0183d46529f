// Package catalog assembles course-catalog facts for the validation engine
// and keeps the derived graph and search projections in sync with Postgres.
package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"pathwise.app/audit/common/arangodb"
	"pathwise.app/audit/internal/audit"
	"pathwise.app/audit/internal/store"
)

// maxRequirementDepth caps how far requirement chains are followed when
// assembling facts. Real catalogs bottom out around six levels; anything
// deeper is almost certainly a data-entry loop that the validator will
// flag anyway.
const maxRequirementDepth = 10

// FactsProvider builds the audit.Facts input for a plan: the requirement
// edges reachable from its courses plus the general education rule set.
// Edges come from the ArangoDB graph when one is configured, with the
// Postgres catalog tables as fallback and source of truth.
type FactsProvider struct {
	courses    store.CourseStore
	categories store.GECategoryStore
	graph      arangodb.Client // nil when no graph store is configured
}

func NewFactsProvider(courses store.CourseStore, categories store.GECategoryStore, graph arangodb.Client) *FactsProvider {
	return &FactsProvider{
		courses:    courses,
		categories: categories,
		graph:      graph,
	}
}

// FactsFor assembles the catalog facts needed to validate a plan covering
// the given course codes.
func (p *FactsProvider) FactsFor(ctx context.Context, codes []string) (audit.Facts, error) {
	edges, err := p.EdgesFor(ctx, codes)
	if err != nil {
		return audit.Facts{}, err
	}

	categories, assignments, err := p.generalEducation(ctx)
	if err != nil {
		return audit.Facts{}, err
	}

	return audit.Facts{
		Edges:         edges,
		GECategories:  categories,
		GEAssignments: assignments,
	}, nil
}

// EdgesFor returns every requirement edge reachable from the given courses,
// in requirement order out to maxRequirementDepth.
func (p *FactsProvider) EdgesFor(ctx context.Context, codes []string) ([]audit.Edge, error) {
	if p.graph != nil {
		edges, err := p.edgesFromGraph(ctx, codes)
		if err == nil {
			return edges, nil
		}
		// The graph is a projection; a traversal failure should not fail
		// the audit while the catalog tables can still answer.
		slog.WarnContext(ctx, "requirement graph traversal failed, falling back to catalog tables", "error", err)
	}
	return p.edgesFromCatalog(ctx, codes)
}

func (p *FactsProvider) edgesFromGraph(ctx context.Context, codes []string) ([]audit.Edge, error) {
	_, links, err := p.graph.TraverseFrom(ctx, codes, arangodb.TraversalOptions{
		Direction: arangodb.DirectionOutbound,
		MaxDepth:  maxRequirementDepth,
	})
	if err != nil {
		return nil, fmt.Errorf("traverse requirement graph: %w", err)
	}

	edges := make([]audit.Edge, 0, len(links))
	for _, link := range links {
		edges = append(edges, audit.Edge{
			Course:   link.Course,
			Requires: link.Requirement,
			Kind:     audit.EdgeKind(link.Kind),
		})
	}

	slog.DebugContext(ctx, "requirement edges loaded from graph",
		"start_courses", len(codes),
		"edges", len(edges))

	return edges, nil
}

// edgesFromCatalog walks the course_prerequisites table breadth-first from
// the plan courses. The visited set makes catalog cycles terminate here;
// the validator reports them.
func (p *FactsProvider) edgesFromCatalog(ctx context.Context, codes []string) ([]audit.Edge, error) {
	visited := make(map[string]bool, len(codes))
	frontier := make([]string, 0, len(codes))
	for _, code := range codes {
		normalized := audit.NormalizeCode(code)
		if normalized == "" || visited[normalized] {
			continue
		}
		visited[normalized] = true
		frontier = append(frontier, normalized)
	}

	var edges []audit.Edge
	for depth := 0; len(frontier) > 0 && depth < maxRequirementDepth; depth++ {
		rows, err := p.courses.ListPrerequisites(ctx, frontier)
		if err != nil {
			return nil, fmt.Errorf("list prerequisites: %w", err)
		}

		var next []string
		for _, row := range rows {
			edges = append(edges, audit.Edge{
				Course:   row.CourseCode,
				Requires: row.RequirementCode,
				Kind:     audit.EdgeKind(row.Kind),
			})
			if !visited[row.RequirementCode] {
				visited[row.RequirementCode] = true
				next = append(next, row.RequirementCode)
			}
		}
		frontier = next
	}

	slog.DebugContext(ctx, "requirement edges loaded from catalog tables",
		"start_courses", len(codes),
		"edges", len(edges))

	return edges, nil
}

func (p *FactsProvider) generalEducation(ctx context.Context) ([]audit.GECategory, map[string][]string, error) {
	cats, err := p.categories.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list ge categories: %w", err)
	}

	categories := make([]audit.GECategory, 0, len(cats))
	for _, cat := range cats {
		categories = append(categories, audit.GECategory{
			Code:            cat.Code,
			Name:            cat.Name,
			CreditsRequired: cat.MinCredits,
		})
	}

	rows, err := p.categories.ListAssignments(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list ge assignments: %w", err)
	}

	assignments := make(map[string][]string, len(rows))
	for _, row := range rows {
		assignments[row.CourseCode] = append(assignments[row.CourseCode], row.CategoryCode)
	}

	return categories, assignments, nil
}
