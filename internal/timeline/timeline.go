// Package timeline assembles lane-assigned productions into the immutable
// model served to renderers, search and the graph store.
package timeline

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ajitpratap0/marquee/internal/grouper"
	"github.com/ajitpratap0/marquee/internal/lanes"
	"github.com/ajitpratap0/marquee/internal/models"
	"github.com/ajitpratap0/marquee/internal/recall"
)

// ErrNotFound is returned when a production id is not in the model.
var ErrNotFound = errors.New("production not found")

// Options carries the run-level facts the assembler cannot derive from the
// productions themselves.
type Options struct {
	Now         time.Time
	Diagnostics []models.Diagnostic
	RowsRead    int
	RowsDropped int
}

// Person is one entry of the people index.
type Person struct {
	Name        string   `json:"name" yaml:"name"`
	FirstName   string   `json:"first_name" yaml:"first_name"`
	LastName    string   `json:"last_name" yaml:"last_name"`
	Productions []string `json:"productions" yaml:"productions"`
}

// SearchResult is one ranked title match.
type SearchResult struct {
	ID      string                `json:"id" yaml:"id"`
	Title   string                `json:"title" yaml:"title"`
	Display string                `json:"display" yaml:"display"`
	Opening models.NormalizedDate `json:"opening" yaml:"opening"`
	Kind    models.ProductionKind `json:"kind" yaml:"kind"`
	Match   string                `json:"match" yaml:"match"`
}

// Model is an assembled timeline. It is never modified after Assemble
// returns; a reload builds a new one.
type Model struct {
	Generation string    `json:"generation"`
	BuiltAt    time.Time `json:"built_at"`

	productions []models.Production
	items       []models.TimelineItem
	byID        map[string]int
	byPerson    map[string][]int
	people      []Person
	titleCount  map[string]int
	graph       models.Graph
	diagnostics []models.Diagnostic
	stats       models.Stats
	recaller    *recall.Recaller
}

// Assemble builds a model from productions whose lanes are already set.
func Assemble(prods []models.Production, opts Options, logger *slog.Logger) *Model {
	if opts.Now.IsZero() {
		opts.Now = time.Now().UTC()
	}

	m := &Model{
		Generation:  uuid.New().String(),
		BuiltAt:     opts.Now,
		productions: make([]models.Production, len(prods)),
		items:       make([]models.TimelineItem, 0, len(prods)),
		byID:        make(map[string]int, len(prods)),
		byPerson:    make(map[string][]int),
		titleCount:  make(map[string]int),
		diagnostics: append([]models.Diagnostic(nil), opts.Diagnostics...),
		recaller:    recall.NewRecaller(logger),
	}
	copy(m.productions, prods)

	ranges := make([]models.Range, len(prods))
	assigned := make([]int, len(prods))
	associations := 0
	peopleAt := make(map[string]int)

	for i, p := range m.productions {
		m.byID[p.ID] = i
		m.titleCount[grouper.TitleKey(p.Title)]++
		m.items = append(m.items, item(p))
		ranges[i] = p.Range(opts.Now)
		assigned[i] = p.Lane
		associations += len(p.People)

		for _, pa := range p.People {
			key := recall.Fold(pa.Name)
			if key == "" {
				continue
			}
			idx := m.byPerson[key]
			if len(idx) == 0 || idx[len(idx)-1] != i {
				m.byPerson[key] = append(idx, i)
			}

			at, seen := peopleAt[key]
			if !seen {
				at = len(m.people)
				peopleAt[key] = at
				m.people = append(m.people, Person{Name: pa.Name, FirstName: pa.FirstName, LastName: pa.LastName})
			}
			if ids := m.people[at].Productions; len(ids) == 0 || ids[len(ids)-1] != p.ID {
				m.people[at].Productions = append(ids, p.ID)
			}
		}
	}

	sort.SliceStable(m.people, func(i, j int) bool {
		a, b := m.people[i], m.people[j]
		if sa, sb := recall.Fold(surname(a)), recall.Fold(surname(b)); sa != sb {
			return sa < sb
		}
		return recall.Fold(a.FirstName) < recall.Fold(b.FirstName)
	})

	m.graph = buildGraph(m.productions)
	m.stats = models.Stats{
		Productions:    len(m.productions),
		People:         len(m.people),
		Associations:   associations,
		Lanes:          lanes.Count(assigned),
		MaxConcurrency: lanes.MaxConcurrency(ranges),
		RowsRead:       opts.RowsRead,
		RowsDropped:    opts.RowsDropped,
	}

	logger.Debug("assembled timeline", "generation", m.Generation, "productions", m.stats.Productions, "people", m.stats.People, "lanes", m.stats.Lanes)
	return m
}

// Empty returns a model with no productions.
func Empty(logger *slog.Logger) *Model {
	return Assemble(nil, Options{}, logger)
}

func item(p models.Production) models.TimelineItem {
	it := models.TimelineItem{
		ID:      p.ID,
		Start:   p.Opening.Time,
		Group:   p.Lane,
		Content: p.Title,
		Label:   p.Label,
		Kind:    p.Kind,
		People:  p.People,
	}
	if p.Closing.IsKnown() {
		end := p.Closing.Time
		if end.Before(it.Start) {
			end = it.Start
		}
		it.End = &end
	}
	return it
}

func surname(p Person) string {
	if p.LastName != "" {
		return p.LastName
	}
	return p.Name
}

// Items returns the renderable items in production order.
func (m *Model) Items() []models.TimelineItem {
	out := make([]models.TimelineItem, len(m.items))
	copy(out, m.items)
	return out
}

// Productions returns all productions in model order.
func (m *Model) Productions() []models.Production {
	out := make([]models.Production, len(m.productions))
	copy(out, m.productions)
	return out
}

// Production looks up a production by id.
func (m *Model) Production(id string) (models.Production, error) {
	i, ok := m.byID[id]
	if !ok {
		return models.Production{}, fmt.Errorf("get production %q: %w", id, ErrNotFound)
	}
	return m.productions[i], nil
}

// ProductionsForPerson returns the productions naming person, matched
// case-insensitively on the full name, in model order.
func (m *Model) ProductionsForPerson(name string) []models.Production {
	idx := m.byPerson[recall.Fold(name)]
	out := make([]models.Production, 0, len(idx))
	for _, i := range idx {
		out = append(out, m.productions[i])
	}
	return out
}

// SearchTitles returns productions whose title contains query, exact
// matches first, then prefix, then substring; ties by opening date.
func (m *Model) SearchTitles(query string) []SearchResult {
	candidates := make([]recall.Candidate, len(m.productions))
	for i, p := range m.productions {
		candidates[i] = recall.Candidate{ID: p.ID, Title: p.Title, Opening: p.Opening.Time}
	}

	matches := m.recaller.Rank(candidates, query)
	out := make([]SearchResult, 0, len(matches))
	for _, match := range matches {
		p := m.productions[m.byID[match.ID]]
		out = append(out, SearchResult{
			ID:      p.ID,
			Title:   p.Title,
			Display: m.DisplayTitle(p),
			Opening: p.Opening,
			Kind:    p.Kind,
			Match:   match.Tier.String(),
		})
	}
	return out
}

// DisplayTitle returns the title, disambiguated as
// "Title (1996 revival)" or "Title (1975 original production)" when other
// productions share it.
func (m *Model) DisplayTitle(p models.Production) string {
	if m.titleCount[grouper.TitleKey(p.Title)] < 2 {
		return p.Title
	}
	kind := "original production"
	if p.Kind.IsRevival() {
		kind = "revival"
	}
	return fmt.Sprintf("%s (%d %s)", p.Title, p.Opening.Year(), kind)
}

// People returns the people index sorted by surname, then first name.
func (m *Model) People() []Person {
	out := make([]Person, len(m.people))
	copy(out, m.people)
	return out
}

// Graph returns a copy of the "works with" relationship network.
func (m *Model) Graph() models.Graph {
	g := models.Graph{
		Nodes: make([]models.GraphNode, len(m.graph.Nodes)),
		Edges: make([]models.GraphEdge, len(m.graph.Edges)),
	}
	for i, n := range m.graph.Nodes {
		n.Productions = append([]string{}, n.Productions...)
		g.Nodes[i] = n
	}
	copy(g.Edges, m.graph.Edges)
	return g
}

// Diagnostics returns every problem recorded while building the model.
func (m *Model) Diagnostics() []models.Diagnostic {
	out := make([]models.Diagnostic, len(m.diagnostics))
	copy(out, m.diagnostics)
	return out
}

// Stats returns summary counts.
func (m *Model) Stats() models.Stats {
	return m.stats
}
