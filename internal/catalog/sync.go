package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pathwise.app/audit/common/arangodb"
	"pathwise.app/audit/common/logger"
	"pathwise.app/audit/common/typesense"
	"pathwise.app/audit/internal/model"
	"pathwise.app/audit/internal/store"
)

// Syncer rebuilds the requirement graph and the search index from the
// catalog tables. Postgres stays the source of truth; ArangoDB and
// Typesense are projections this job repopulates wholesale, so a failed
// sync can always be retried from scratch.
type Syncer struct {
	courses store.CourseStore
	arango  arangodb.Client  // nil when no graph store is configured
	search  typesense.Client // nil when no search store is configured
}

func NewSyncer(courses store.CourseStore, arango arangodb.Client, search typesense.Client) *Syncer {
	return &Syncer{
		courses: courses,
		arango:  arango,
		search:  search,
	}
}

// Sync loads the full catalog and pushes it into whichever projections are
// configured. With neither configured it is a no-op.
func (s *Syncer) Sync(ctx context.Context) error {
	sc := logger.StartSpan(ctx, "catalog.sync")
	defer sc.End()
	ctx = sc.Context()

	start := time.Now()

	courses, err := s.courses.List(ctx, false)
	if err != nil {
		return fmt.Errorf("list courses: %w", err)
	}
	prereqs, err := s.courses.ListAllPrerequisites(ctx)
	if err != nil {
		return fmt.Errorf("list prerequisites: %w", err)
	}

	if s.arango != nil {
		if err := s.syncGraph(ctx, courses, prereqs); err != nil {
			return fmt.Errorf("graph sync: %w", err)
		}
	}

	if s.search != nil {
		if err := s.syncSearch(ctx, courses); err != nil {
			return fmt.Errorf("search sync: %w", err)
		}
	}

	slog.InfoContext(ctx, "catalog sync completed",
		"courses", len(courses),
		"requirements", len(prereqs),
		"duration_ms", time.Since(start).Milliseconds())

	return nil
}

// syncGraph rebuilds the whole requirement graph. Retired courses stay in
// the graph: archived plans still reference them and their requirement
// chains must keep resolving.
func (s *Syncer) syncGraph(ctx context.Context, courses []model.Course, prereqs []model.CoursePrerequisite) error {
	slog.InfoContext(ctx, "setting up graph schema")
	if err := s.arango.EnsureDatabase(ctx); err != nil {
		return fmt.Errorf("ensure database: %w", err)
	}
	if err := s.arango.EnsureCollections(ctx); err != nil {
		return fmt.Errorf("ensure collections: %w", err)
	}
	if err := s.arango.EnsureGraph(ctx); err != nil {
		return fmt.Errorf("ensure graph: %w", err)
	}

	// Full rebuild: drop stale vertices and edges before re-ingesting.
	if err := s.arango.TruncateCollections(ctx); err != nil {
		return fmt.Errorf("truncate collections: %w", err)
	}

	nodes := make([]arangodb.CourseNode, 0, len(courses))
	for _, course := range courses {
		nodes = append(nodes, arangodb.CourseNode{
			Code:       course.Code,
			Title:      course.Title,
			Credits:    course.Credits,
			Level:      int(course.Level),
			Discipline: course.Discipline,
		})
	}
	if err := s.arango.IngestCourses(ctx, nodes); err != nil {
		return fmt.Errorf("ingest courses: %w", err)
	}

	edges := make([]arangodb.RequirementEdge, 0, len(prereqs))
	for _, prereq := range prereqs {
		edge := arangodb.RequirementEdge{
			Course:      prereq.CourseCode,
			Requirement: prereq.RequirementCode,
			Kind:        string(prereq.Kind),
		}
		if prereq.MinGrade != nil {
			edge.MinGrade = *prereq.MinGrade
		}
		edges = append(edges, edge)
	}
	if err := s.arango.IngestRequirements(ctx, edges); err != nil {
		return fmt.Errorf("ingest requirements: %w", err)
	}

	slog.InfoContext(ctx, "requirement graph rebuilt",
		"nodes", len(nodes),
		"edges", len(edges))

	return nil
}

// syncSearch indexes the active catalog. Retired courses drop out of
// search so advisors stop planning around them.
func (s *Syncer) syncSearch(ctx context.Context, courses []model.Course) error {
	slog.InfoContext(ctx, "setting up search collection")
	if err := s.search.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}

	docs := make([]typesense.CourseDocument, 0, len(courses))
	for _, course := range courses {
		if !course.Active {
			continue
		}
		docs = append(docs, typesense.CourseDocument{
			ID:          course.Code,
			Code:        course.Code,
			Title:       course.Title,
			Description: course.Description,
			Discipline:  course.Discipline,
			Credits:     course.Credits,
			Level:       course.Level,
		})
	}
	if err := s.search.UpsertCourses(ctx, docs); err != nil {
		return fmt.Errorf("upsert courses: %w", err)
	}

	slog.InfoContext(ctx, "search index updated", "documents", len(docs))
	return nil
}
