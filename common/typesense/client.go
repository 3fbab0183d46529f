package typesense

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/typesense/typesense-go/v4/typesense"
	"github.com/typesense/typesense-go/v4/typesense/api"
	"github.com/typesense/typesense-go/v4/typesense/api/pointer"
)

const collectionName = "courses"

type Client interface {
	// Setup operations
	EnsureCollection(ctx context.Context) error
	DropCollection(ctx context.Context) error

	// Write operations (for catalog sync)
	UpsertCourses(ctx context.Context, docs []CourseDocument) error

	// Read operations (for catalog search)
	Search(ctx context.Context, query string, opts SearchOptions) ([]CourseDocument, error)
}

type Config struct {
	URL    string
	APIKey string
}

func (c Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("typesense URL is required")
	}
	if c.APIKey == "" {
		return fmt.Errorf("typesense API key is required")
	}
	return nil
}

// CourseDocument is the search-index projection of a catalog course.
// ID mirrors Code so re-syncs upsert in place.
type CourseDocument struct {
	ID          string  `json:"id"`
	Code        string  `json:"code"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Discipline  string  `json:"discipline"`
	Credits     float64 `json:"credits"`
	Level       int32   `json:"level"`
}

type SearchOptions struct {
	Discipline string
	MaxLevel   int32
	Limit      int
}

type client struct {
	ts *typesense.Client
}

func New(cfg Config) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("typesense config: %w", err)
	}

	ts := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	return &client{ts: ts}, nil
}

func (c *client) EnsureCollection(ctx context.Context) error {
	schema := &api.CollectionSchema{
		Name: collectionName,
		Fields: []api.Field{
			{Name: "code", Type: "string"},
			{Name: "title", Type: "string"},
			{Name: "description", Type: "string", Optional: pointer.True()},
			{Name: "discipline", Type: "string", Facet: pointer.True()},
			{Name: "credits", Type: "float"},
			{Name: "level", Type: "int32"},
		},
	}

	_, err := c.ts.Collections().Create(ctx, schema)
	if err != nil {
		// Re-syncs hit an existing collection; that's fine.
		if strings.Contains(err.Error(), "already exists") {
			return nil
		}
		return fmt.Errorf("create collection: %w", err)
	}

	slog.InfoContext(ctx, "typesense collection created", "collection", collectionName)
	return nil
}

func (c *client) DropCollection(ctx context.Context) error {
	_, err := c.ts.Collection(collectionName).Delete(ctx)
	if err != nil {
		return fmt.Errorf("drop collection: %w", err)
	}
	return nil
}

func (c *client) UpsertCourses(ctx context.Context, docs []CourseDocument) error {
	if len(docs) == 0 {
		return nil
	}

	start := time.Now()

	for _, doc := range docs {
		if _, err := c.ts.Collection(collectionName).Documents().Upsert(ctx, doc); err != nil {
			return fmt.Errorf("upsert course %s: %w", doc.Code, err)
		}
	}

	slog.DebugContext(ctx, "typesense courses upserted",
		"count", len(docs),
		"duration_ms", time.Since(start).Milliseconds())

	return nil
}

func (c *client) Search(ctx context.Context, query string, opts SearchOptions) ([]CourseDocument, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	params := &api.SearchCollectionParams{
		Q:       pointer.String(query),
		QueryBy: pointer.String("code,title,description"),
		PerPage: pointer.Int(limit),
	}

	var filters []string
	if opts.Discipline != "" {
		filters = append(filters, fmt.Sprintf("discipline:=%s", opts.Discipline))
	}
	if opts.MaxLevel > 0 {
		filters = append(filters, fmt.Sprintf("level:<=%d", opts.MaxLevel))
	}
	if len(filters) > 0 {
		params.FilterBy = pointer.String(strings.Join(filters, " && "))
	}

	start := time.Now()

	result, err := c.ts.Collection(collectionName).Documents().Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("search courses: %w", err)
	}

	var docs []CourseDocument
	if result.Hits != nil {
		for _, hit := range *result.Hits {
			if hit.Document == nil {
				continue
			}
			docs = append(docs, documentFromHit(*hit.Document))
		}
	}

	slog.DebugContext(ctx, "typesense search completed",
		"query", query,
		"results", len(docs),
		"duration_ms", time.Since(start).Milliseconds())

	return docs, nil
}

func documentFromHit(doc map[string]any) CourseDocument {
	out := CourseDocument{
		ID:          asString(doc["id"]),
		Code:        asString(doc["code"]),
		Title:       asString(doc["title"]),
		Description: asString(doc["description"]),
		Discipline:  asString(doc["discipline"]),
	}
	if credits, ok := doc["credits"].(float64); ok {
		out.Credits = credits
	}
	if level, ok := doc["level"].(float64); ok {
		out.Level = int32(level)
	}
	return out
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
