package arangodb

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"
	"github.com/arangodb/go-driver/v2/connection"
)

var ErrNotFound = errors.New("document not found")

const graphName = "prereqgraph"

type Client interface {
	// Setup operations
	EnsureDatabase(ctx context.Context) error
	EnsureCollections(ctx context.Context) error
	EnsureGraph(ctx context.Context) error

	// Write operations (for catalog sync)
	IngestCourses(ctx context.Context, courses []CourseNode) error
	IngestRequirements(ctx context.Context, edges []RequirementEdge) error
	TruncateCollections(ctx context.Context) error

	// Read operations (for the audit pipeline)
	GetRequirements(ctx context.Context, code string, depth int) ([]GraphCourse, error)
	GetDependents(ctx context.Context, code string, depth int) ([]GraphCourse, error)
	GetCorequisites(ctx context.Context, code string) ([]GraphCourse, error)
	GetRecommended(ctx context.Context, code string) ([]GraphCourse, error)
	TraverseFrom(ctx context.Context, codes []string, opts TraversalOptions) ([]GraphCourse, []GraphLink, error)

	// Utility
	Close() error
}

type Config struct {
	URL      string
	Username string
	Password string
	Database string
}

func (c Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("arangodb URL is required")
	}
	if c.Username == "" {
		return fmt.Errorf("arangodb username is required")
	}
	if c.Database == "" {
		return fmt.Errorf("arangodb database name is required")
	}
	return nil
}

type client struct {
	conn         connection.Connection
	arangoClient arangodb.Client
	db           arangodb.Database
	cfg          Config
}

func New(ctx context.Context, cfg Config) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("arangodb config: %w", err)
	}

	endpoint := connection.NewRoundRobinEndpoints([]string{cfg.URL}) // round robins from the urls. we just have one for now
	conn := connection.NewHttp2Connection(connection.DefaultHTTP2ConfigurationWrapper(endpoint, true))

	auth := connection.NewBasicAuth(cfg.Username, cfg.Password)
	if err := conn.SetAuthentication(auth); err != nil {
		return nil, fmt.Errorf("arangodb auth: %w", err)
	}

	arangoClient := arangodb.NewClient(conn)

	c := &client{
		conn:         conn,
		arangoClient: arangoClient,
		cfg:          cfg,
	}

	return c, nil
}

func (c *client) Close() error {
	return nil
}

func (c *client) EnsureDatabase(ctx context.Context) error {
	start := time.Now()

	exists, err := c.arangoClient.DatabaseExists(ctx, c.cfg.Database)
	if err != nil {
		return fmt.Errorf("check database exists: %w", err)
	}

	if !exists {
		_, err = c.arangoClient.CreateDatabase(ctx, c.cfg.Database, nil)
		if err != nil {
			return fmt.Errorf("create database: %w", err)
		}
		slog.InfoContext(ctx, "arangodb database created",
			"database", c.cfg.Database,
			"duration_ms", time.Since(start).Milliseconds())
	}

	db, err := c.arangoClient.GetDatabase(ctx, c.cfg.Database, nil)
	if err != nil {
		return fmt.Errorf("get database: %w", err)
	}
	c.db = db

	return nil
}

func (c *client) EnsureCollections(ctx context.Context) error {
	if c.db == nil {
		return fmt.Errorf("database not initialized, call EnsureDatabase first")
	}

	nodeCollections := []string{"courses"}
	edgeCollections := []string{"requires", "corequires", "recommends"}

	for _, name := range nodeCollections {
		if err := c.ensureCollection(ctx, name, false); err != nil {
			return err
		}
	}

	for _, name := range edgeCollections {
		if err := c.ensureCollection(ctx, name, true); err != nil {
			return err
		}
	}

	return nil
}

func (c *client) ensureCollection(ctx context.Context, name string, isEdge bool) error {
	exists, err := c.db.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check collection %s exists: %w", name, err)
	}

	if !exists {
		props := &arangodb.CreateCollectionPropertiesV2{}
		if isEdge {
			colType := arangodb.CollectionTypeEdge
			props.Type = &colType
		} else {
			colType := arangodb.CollectionTypeDocument
			props.Type = &colType
		}

		_, err = c.db.CreateCollectionV2(ctx, name, props)
		if err != nil {
			return fmt.Errorf("create collection %s: %w", name, err)
		}
		slog.InfoContext(ctx, "arangodb collection created",
			"collection", name,
			"is_edge", isEdge)
	}

	return nil
}

func (c *client) EnsureGraph(ctx context.Context) error {
	if c.db == nil {
		return fmt.Errorf("database not initialized, call EnsureDatabase first")
	}

	exists, err := c.db.GraphExists(ctx, graphName)
	if err != nil {
		return fmt.Errorf("check graph exists: %w", err)
	}

	if exists {
		return nil
	}

	graphDef := &arangodb.GraphDefinition{
		Name: graphName,
		EdgeDefinitions: []arangodb.EdgeDefinition{
			{Collection: "requires", From: []string{"courses"}, To: []string{"courses"}},
			{Collection: "corequires", From: []string{"courses"}, To: []string{"courses"}},
			{Collection: "recommends", From: []string{"courses"}, To: []string{"courses"}},
		},
	}

	_, err = c.db.CreateGraph(ctx, graphName, graphDef, nil)
	if err != nil {
		return fmt.Errorf("create graph: %w", err)
	}

	slog.InfoContext(ctx, "arangodb graph created", "graph", graphName)
	return nil
}

func (c *client) TruncateCollections(ctx context.Context) error {
	if c.db == nil {
		return fmt.Errorf("database not initialized")
	}

	start := time.Now()

	allCollections := []string{"courses", "requires", "corequires", "recommends"}

	for _, name := range allCollections {
		col, err := c.db.GetCollection(ctx, name, nil)
		if err != nil {
			return fmt.Errorf("get collection %s: %w", name, err)
		}

		if err := col.Truncate(ctx); err != nil {
			return fmt.Errorf("truncate collection %s: %w", name, err)
		}
	}

	slog.InfoContext(ctx, "arangodb collections truncated",
		"collections", len(allCollections),
		"duration_ms", time.Since(start).Milliseconds())

	return nil
}

// IngestCourses inserts course documents into the courses collection.
// Duplicates (same _key) are silently ignored - existing documents are NOT updated.
// Catalog sync runs TruncateCollections first to get a clean rebuild.
func (c *client) IngestCourses(ctx context.Context, courses []CourseNode) error {
	if c.db == nil {
		return fmt.Errorf("database not initialized")
	}

	if len(courses) == 0 {
		return nil
	}

	start := time.Now()
	col, err := c.db.GetCollection(ctx, "courses", nil)
	if err != nil {
		return fmt.Errorf("get collection courses: %w", err)
	}

	docs := make([]map[string]any, len(courses))
	for i, course := range courses {
		doc := map[string]any{
			"_key":       makeKey(course.Code),
			"code":       course.Code,
			"title":      course.Title,
			"credits":    course.Credits,
			"level":      course.Level,
			"discipline": course.Discipline,
		}
		docs[i] = doc
	}

	reader, err := col.CreateDocuments(ctx, docs)
	if err != nil {
		return fmt.Errorf("create documents: %w", err)
	}

	// Consume all responses (ignoring errors for duplicate keys)
	for {
		_, readErr := reader.Read()
		if readErr != nil {
			break
		}
	}

	slog.DebugContext(ctx, "arangodb courses ingested",
		"count", len(courses),
		"duration_ms", time.Since(start).Milliseconds())

	return nil
}

// IngestRequirements inserts requirement edges, routed to the edge collection
// matching each edge's Kind. Duplicates (same _key) are silently ignored.
func (c *client) IngestRequirements(ctx context.Context, edges []RequirementEdge) error {
	if c.db == nil {
		return fmt.Errorf("database not initialized")
	}

	if len(edges) == 0 {
		return nil
	}

	start := time.Now()

	byCollection := make(map[string][]map[string]any)
	for _, edge := range edges {
		doc := map[string]any{
			"_key":        makeEdgeKey(edge.Course, edge.Requirement),
			"_from":       fmt.Sprintf("courses/%s", makeKey(edge.Course)),
			"_to":         fmt.Sprintf("courses/%s", makeKey(edge.Requirement)),
			"course":      edge.Course,
			"requirement": edge.Requirement,
			"kind":        edge.Kind,
		}
		if edge.MinGrade != "" {
			doc["min_grade"] = edge.MinGrade
		}

		name := edgeCollectionForKind(edge.Kind)
		byCollection[name] = append(byCollection[name], doc)
	}

	for name, docs := range byCollection {
		col, err := c.db.GetCollection(ctx, name, nil)
		if err != nil {
			return fmt.Errorf("get collection %s: %w", name, err)
		}

		reader, err := col.CreateDocuments(ctx, docs)
		if err != nil {
			return fmt.Errorf("create edge documents: %w", err)
		}

		// Consume all responses (ignoring errors for duplicate keys)
		for {
			_, readErr := reader.Read()
			if readErr != nil {
				break
			}
		}
	}

	slog.DebugContext(ctx, "arangodb requirement edges ingested",
		"count", len(edges),
		"duration_ms", time.Since(start).Milliseconds())

	return nil
}

// GetRequirements walks prerequisite edges outward from a course: everything
// that must be taken before it, up to the given depth.
func (c *client) GetRequirements(ctx context.Context, code string, depth int) ([]GraphCourse, error) {
	if depth <= 0 {
		depth = 1
	}

	query := `
		FOR v IN 1..@depth OUTBOUND @start GRAPH "prereqgraph"
			OPTIONS { edgeCollections: ["requires"] }
			RETURN { code: v.code, title: v.title, credits: v.credits, level: v.level, discipline: v.discipline }
	`

	return c.executeTraversal(ctx, query, code, depth)
}

// GetDependents walks prerequisite edges inward: the courses a course unlocks.
func (c *client) GetDependents(ctx context.Context, code string, depth int) ([]GraphCourse, error) {
	if depth <= 0 {
		depth = 1
	}

	query := `
		FOR v IN 1..@depth INBOUND @start GRAPH "prereqgraph"
			OPTIONS { edgeCollections: ["requires"] }
			RETURN { code: v.code, title: v.title, credits: v.credits, level: v.level, discipline: v.discipline }
	`

	return c.executeTraversal(ctx, query, code, depth)
}

func (c *client) GetCorequisites(ctx context.Context, code string) ([]GraphCourse, error) {
	query := `
		FOR v IN 1..1 OUTBOUND @start GRAPH "prereqgraph"
			OPTIONS { edgeCollections: ["corequires"] }
			RETURN { code: v.code, title: v.title, credits: v.credits, level: v.level, discipline: v.discipline }
	`

	return c.executeTraversal(ctx, query, code, 1)
}

func (c *client) GetRecommended(ctx context.Context, code string) ([]GraphCourse, error) {
	query := `
		FOR v IN 1..1 OUTBOUND @start GRAPH "prereqgraph"
			OPTIONS { edgeCollections: ["recommends"] }
			RETURN { code: v.code, title: v.title, credits: v.credits, level: v.level, discipline: v.discipline }
	`

	return c.executeTraversal(ctx, query, code, 1)
}

func (c *client) executeTraversal(ctx context.Context, query string, code string, depth int) ([]GraphCourse, error) {
	if c.db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	start := time.Now()

	startVertex := fmt.Sprintf("courses/%s", makeKey(code))

	bindVars := map[string]any{
		"start": startVertex,
	}
	// Only add depth if the query uses it
	if strings.Contains(query, "@depth") {
		bindVars["depth"] = depth
	}

	cursor, err := c.db.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: bindVars,
	})
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer cursor.Close()

	var results []GraphCourse
	for cursor.HasMore() {
		var doc struct {
			Code       string  `json:"code"`
			Title      string  `json:"title"`
			Credits    float64 `json:"credits"`
			Level      int     `json:"level"`
			Discipline string  `json:"discipline"`
		}
		_, err := cursor.ReadDocument(ctx, &doc)
		if err != nil {
			return nil, fmt.Errorf("read document: %w", err)
		}
		// Skip requirements that point at courses missing from the catalog
		if doc.Code == "" {
			continue
		}
		results = append(results, GraphCourse{
			Code:       doc.Code,
			Title:      doc.Title,
			Credits:    doc.Credits,
			Level:      doc.Level,
			Discipline: doc.Discipline,
		})
	}

	slog.DebugContext(ctx, "arangodb traversal completed",
		"code", code,
		"depth", depth,
		"results", len(results),
		"duration_ms", time.Since(start).Milliseconds())

	return results, nil
}

// TraverseFrom walks the requirement graph from several courses at once and
// returns both the reachable courses and the edges between them. The audit
// pipeline uses it to fetch the full requirement closure of a plan in one
// query.
func (c *client) TraverseFrom(ctx context.Context, codes []string, opts TraversalOptions) ([]GraphCourse, []GraphLink, error) {
	if c.db == nil {
		return nil, nil, fmt.Errorf("database not initialized")
	}

	if len(codes) == 0 {
		return nil, nil, nil
	}

	start := time.Now()

	direction := "OUTBOUND"
	switch opts.Direction {
	case DirectionInbound:
		direction = "INBOUND"
	case DirectionAny:
		direction = "ANY"
	}

	depth := opts.MaxDepth
	if depth <= 0 {
		depth = 10
	}

	edgeFilter := ""
	if len(opts.Kinds) > 0 {
		collections := make([]string, len(opts.Kinds))
		for i, kind := range opts.Kinds {
			collections[i] = edgeCollectionForKind(kind)
		}
		edgeFilter = fmt.Sprintf("OPTIONS { edgeCollections: %v }", quoteList(collections))
	}

	startVertices := make([]string, len(codes))
	for i, code := range codes {
		startVertices[i] = fmt.Sprintf("courses/%s", makeKey(code))
	}

	query := fmt.Sprintf(`
		FOR startV IN @starts
			FOR v, e IN 1..@depth %s startV GRAPH "prereqgraph" %s
				RETURN { vertex: { code: v.code, title: v.title, credits: v.credits, level: v.level, discipline: v.discipline }, edge: { course: e.course, requirement: e.requirement, kind: e.kind } }
	`, direction, edgeFilter)

	cursor, err := c.db.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]any{
			"starts": startVertices,
			"depth":  depth,
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("execute traversal: %w", err)
	}
	defer cursor.Close()

	nodeMap := make(map[string]GraphCourse)
	linkSeen := make(map[string]bool)
	var links []GraphLink

	for cursor.HasMore() {
		var doc struct {
			Vertex struct {
				Code       string  `json:"code"`
				Title      string  `json:"title"`
				Credits    float64 `json:"credits"`
				Level      int     `json:"level"`
				Discipline string  `json:"discipline"`
			} `json:"vertex"`
			Edge struct {
				Course      string `json:"course"`
				Requirement string `json:"requirement"`
				Kind        string `json:"kind"`
			} `json:"edge"`
		}
		_, err := cursor.ReadDocument(ctx, &doc)
		if err != nil {
			return nil, nil, fmt.Errorf("read document: %w", err)
		}

		if doc.Vertex.Code != "" {
			nodeMap[doc.Vertex.Code] = GraphCourse{
				Code:       doc.Vertex.Code,
				Title:      doc.Vertex.Title,
				Credits:    doc.Vertex.Credits,
				Level:      doc.Vertex.Level,
				Discipline: doc.Vertex.Discipline,
			}
		}

		if doc.Edge.Course != "" {
			key := doc.Edge.Course + "->" + doc.Edge.Requirement + ":" + doc.Edge.Kind
			if !linkSeen[key] {
				linkSeen[key] = true
				links = append(links, GraphLink{
					Course:      doc.Edge.Course,
					Requirement: doc.Edge.Requirement,
					Kind:        doc.Edge.Kind,
				})
			}
		}
	}

	nodes := make([]GraphCourse, 0, len(nodeMap))
	for _, node := range nodeMap {
		nodes = append(nodes, node)
	}

	slog.DebugContext(ctx, "arangodb multi-traversal completed",
		"start_count", len(codes),
		"depth", depth,
		"nodes", len(nodes),
		"edges", len(links),
		"duration_ms", time.Since(start).Milliseconds())

	return nodes, links, nil
}

func makeKey(code string) string {
	hash := md5.Sum([]byte(code))
	return hex.EncodeToString(hash[:])[:16]
}

func makeEdgeKey(course, requirement string) string {
	combined := course + "->" + requirement
	hash := md5.Sum([]byte(combined))
	return hex.EncodeToString(hash[:])[:16]
}

func edgeCollectionForKind(kind string) string {
	switch kind {
	case "corequisite":
		return "corequires"
	case "recommended":
		return "recommends"
	default:
		return "requires"
	}
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = fmt.Sprintf("%q", item)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
