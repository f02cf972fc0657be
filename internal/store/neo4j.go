package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/ajitpratap0/marquee/internal/timeline"
)

var schemaStatements = []string{
	"CREATE CONSTRAINT person_id IF NOT EXISTS FOR (p:Person) REQUIRE p.id IS UNIQUE",
	"CREATE CONSTRAINT production_id IF NOT EXISTS FOR (p:Production) REQUIRE p.id IS UNIQUE",
}

const (
	upsertProductions = `UNWIND $rows AS row
MERGE (p:Production {id: row.id})
SET p.title = row.title, p.kind = row.kind, p.opening = row.opening,
    p.closing = row.closing, p.ongoing = row.ongoing, p.lane = row.lane,
    p.generation = $generation`

	upsertAppearances = `UNWIND $rows AS row
MERGE (person:Person {id: row.person_id})
SET person.name = row.name, person.generation = $generation
WITH person, row
MATCH (prod:Production {id: row.production_id})
MERGE (person)-[r:APPEARED_IN {position: row.position}]->(prod)
SET r.generation = $generation`

	upsertEdges = `UNWIND $rows AS row
MERGE (a:Person {id: row.from})
MERGE (b:Person {id: row.to})
SET a.generation = $generation, b.generation = $generation
MERGE (a)-[r:WORKS_WITH]->(b)
SET r.weight = row.weight, r.generation = $generation`

	pruneRelationships = `MATCH ()-[r:APPEARED_IN|WORKS_WITH]->() WHERE r.generation IS NULL OR r.generation <> $generation DELETE r`

	pruneProductions = `MATCH (p:Production) WHERE p.generation IS NULL OR p.generation <> $generation DETACH DELETE p`

	prunePeople = `MATCH (p:Person) WHERE p.generation IS NULL OR p.generation <> $generation DETACH DELETE p`
)

// Neo4jStore implements Store on a Neo4j database.
type Neo4jStore struct {
	mu       sync.RWMutex
	driver   neo4j.DriverWithContext
	database string
	logger   *slog.Logger
}

// NewNeo4jStore connects to uri and verifies connectivity.
func NewNeo4jStore(ctx context.Context, uri, username, password, database string, logger *slog.Logger) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j: creating driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j: connecting to %s: %w", uri, err)
	}
	logger.Info("connected to neo4j", "uri", uri, "database", database)
	return &Neo4jStore{driver: driver, database: database, logger: logger}, nil
}

func (s *Neo4jStore) exec(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	s.mu.RLock()
	driver := s.driver
	s.mu.RUnlock()
	if driver == nil {
		return nil, ErrNotConnected
	}
	return neo4j.ExecuteQuery(ctx, driver, query, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database),
	)
}

// EnsureSchema creates the uniqueness constraints.
func (s *Neo4jStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.exec(ctx, stmt, nil); err != nil {
			return fmt.Errorf("neo4j: ensure schema: %w", err)
		}
	}
	return nil
}

// PushGraph writes the model, stamping every node and relationship with its
// generation, then deletes whatever an earlier generation left behind.
func (s *Neo4jStore) PushGraph(ctx context.Context, m *timeline.Model) (*PushStats, error) {
	prods, apps, edges := flatten(m)

	prodParams := make([]any, 0, len(prods))
	for _, p := range prods {
		var closing any
		if p.Closing != "" {
			closing = p.Closing
		}
		prodParams = append(prodParams, map[string]any{
			"id":      p.ID,
			"title":   p.Title,
			"kind":    p.Kind,
			"opening": p.Opening,
			"closing": closing,
			"ongoing": p.Ongoing,
			"lane":    int64(p.Lane),
		})
	}
	appParams := make([]any, 0, len(apps))
	for _, a := range apps {
		appParams = append(appParams, map[string]any{
			"person_id":     a.PersonID,
			"name":          a.Name,
			"production_id": a.ProductionID,
			"position":      a.Position,
		})
	}
	edgeParams := make([]any, 0, len(edges))
	for _, e := range edges {
		edgeParams = append(edgeParams, map[string]any{
			"from":   e.From,
			"to":     e.To,
			"weight": int64(e.Weight),
		})
	}

	steps := []struct {
		name   string
		query  string
		params map[string]any
	}{
		{"productions", upsertProductions, map[string]any{"rows": prodParams, "generation": m.Generation}},
		{"appearances", upsertAppearances, map[string]any{"rows": appParams, "generation": m.Generation}},
		{"edges", upsertEdges, map[string]any{"rows": edgeParams, "generation": m.Generation}},
		{"prune relationships", pruneRelationships, map[string]any{"generation": m.Generation}},
		{"prune productions", pruneProductions, map[string]any{"generation": m.Generation}},
		{"prune people", prunePeople, map[string]any{"generation": m.Generation}},
	}
	for _, step := range steps {
		res, err := s.exec(ctx, step.query, step.params)
		if err != nil {
			return nil, fmt.Errorf("neo4j: push %s: %w", step.name, err)
		}
		c := res.Summary.Counters()
		s.logger.Debug("neo4j: pushed", "step", step.name,
			"nodes_created", c.NodesCreated(),
			"relationships_created", c.RelationshipsCreated(),
			"nodes_deleted", c.NodesDeleted(),
		)
	}

	return &PushStats{
		Generation:  m.Generation,
		Productions: len(prods),
		Appearances: len(apps),
		Edges:       len(edges),
	}, nil
}

// Ping verifies connectivity.
func (s *Neo4jStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	driver := s.driver
	s.mu.RUnlock()
	if driver == nil {
		return ErrNotConnected
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("neo4j: ping: %w", err)
	}
	return nil
}

// Close closes the driver. Further calls return ErrNotConnected.
func (s *Neo4jStore) Close(ctx context.Context) error {
	s.mu.Lock()
	driver := s.driver
	s.driver = nil
	s.mu.Unlock()
	if driver == nil {
		return nil
	}
	return driver.Close(ctx)
}
