package store

import (
	"context"
	"errors"
	"time"

	"github.com/ajitpratap0/marquee/internal/recall"
	"github.com/ajitpratap0/marquee/internal/timeline"
)

// ErrNotConnected is returned when a store is used after Close or before
// a connection was established.
var ErrNotConnected = errors.New("graph store not connected")

// Store persists the people/production graph of a timeline.
type Store interface {
	// EnsureSchema creates uniqueness constraints if they don't exist.
	EnsureSchema(ctx context.Context) error

	// PushGraph writes every production, person, appearance and "works
	// with" edge of m, replacing productions from earlier generations.
	PushGraph(ctx context.Context, m *timeline.Model) (*PushStats, error)

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the connection.
	Close(ctx context.Context) error
}

// PushStats reports what one PushGraph call wrote.
type PushStats struct {
	Generation  string `json:"generation"`
	Productions int    `json:"productions"`
	Appearances int    `json:"appearances"`
	Edges       int    `json:"edges"`
}

// productionRow, appearanceRow and edgeRow are the flattened records sent
// to the store.
type productionRow struct {
	ID      string
	Title   string
	Kind    string
	Opening string
	Closing string // "" unless known
	Ongoing bool
	Lane    int
}

type appearanceRow struct {
	PersonID     string
	Name         string
	ProductionID string
	Position     string
}

type edgeRow struct {
	From   string
	To     string
	Weight int
}

// flatten converts a model into store rows. Person ids are case-folded
// names, matching the graph node ids of the model.
func flatten(m *timeline.Model) ([]productionRow, []appearanceRow, []edgeRow) {
	prods := m.Productions()
	pr := make([]productionRow, 0, len(prods))
	var ar []appearanceRow

	for _, p := range prods {
		row := productionRow{
			ID:      p.ID,
			Title:   p.Title,
			Kind:    string(p.Kind),
			Opening: p.Opening.Time.Format(time.DateOnly),
			Ongoing: p.Closing.IsOngoing(),
			Lane:    p.Lane,
		}
		if p.Closing.IsKnown() {
			row.Closing = p.Closing.Time.Format(time.DateOnly)
		}
		pr = append(pr, row)

		for _, pa := range p.People {
			id := recall.Fold(pa.Name)
			if id == "" {
				continue
			}
			ar = append(ar, appearanceRow{PersonID: id, Name: pa.Name, ProductionID: p.ID, Position: pa.Position})
		}
	}

	g := m.Graph()
	er := make([]edgeRow, 0, len(g.Edges))
	for _, e := range g.Edges {
		er = append(er, edgeRow{From: e.From, To: e.To, Weight: e.Weight})
	}
	return pr, ar, er
}
