// Package grouper folds raw sheet rows into one group per production.
package grouper

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/ajitpratap0/marquee/internal/dates"
	"github.com/ajitpratap0/marquee/internal/models"
)

// Identity selects what makes two rows the same production.
type Identity string

const (
	// IdentityTitle merges every row with the same normalized title and
	// widens the stored run to cover all of them.
	IdentityTitle Identity = "title"
	// IdentityTitleOpening keys by title plus opening date so identically
	// titled revivals stay distinct. No widening happens.
	IdentityTitleOpening Identity = "title_opening"
)

// ValidIdentities is the set of all valid identity policies.
var ValidIdentities = []Identity{IdentityTitle, IdentityTitleOpening}

// IsValid returns true if the identity policy is recognized.
func (i Identity) IsValid() bool {
	for _, v := range ValidIdentities {
		if i == v {
			return true
		}
	}
	return false
}

// GroupedData accumulates everything known about one production.
type GroupedData struct {
	Key          string
	Title        string
	Opening      models.NormalizedDate
	Closing      models.NormalizedDate
	Revival      string
	Performances string
	People       []models.PersonAssociation
	FirstLine    int
	Rows         int
}

// Groups is an insertion-ordered mapping from production key to group.
type Groups struct {
	order []string
	byKey map[string]*GroupedData
}

func newGroups() *Groups {
	return &Groups{byKey: make(map[string]*GroupedData)}
}

// Len returns the number of groups.
func (g *Groups) Len() int { return len(g.order) }

// Keys returns the keys in first-seen order.
func (g *Groups) Keys() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Get returns the group for key.
func (g *Groups) Get(key string) (*GroupedData, bool) {
	gd, ok := g.byKey[key]
	return gd, ok
}

// All returns the groups in first-seen order.
func (g *Groups) All() []*GroupedData {
	out := make([]*GroupedData, 0, len(g.order))
	for _, k := range g.order {
		out = append(out, g.byKey[k])
	}
	return out
}

func (g *Groups) add(gd *GroupedData) {
	g.order = append(g.order, gd.Key)
	g.byKey[gd.Key] = gd
}

// Options configures grouping.
type Options struct {
	Identity Identity
}

// Grouper groups raw rows into productions. It holds no state between
// calls; every Group call owns its own mapping.
type Grouper struct {
	opts   Options
	logger *slog.Logger
}

// NewGrouper creates a grouper. An empty identity defaults to IdentityTitle.
func NewGrouper(opts Options, logger *slog.Logger) *Grouper {
	if opts.Identity == "" {
		opts.Identity = IdentityTitle
	}
	return &Grouper{opts: opts, logger: logger}
}

// TitleKey normalizes a title for identity comparison.
func TitleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(title)))
}

// Key computes the production key of a title and its parsed opening date.
func (g *Grouper) Key(title string, opening models.NormalizedDate) string {
	key := TitleKey(title)
	if g.opts.Identity == IdentityTitleOpening {
		key += "|" + strconv.FormatInt(opening.Time.Unix(), 10)
	}
	return key
}

// Group folds rows, in source order, into groups. Rows lacking a title or a
// concrete opening date are skipped and reported; nothing else is fatal.
func (g *Grouper) Group(rows []models.RawRow) (*Groups, []models.Diagnostic) {
	groups := newGroups()
	var diags []models.Diagnostic

	skip := func(row models.RawRow, msg string) {
		g.logger.Warn("skipping row", "line", row.Line, "title", row.Title, "reason", msg)
		diags = append(diags, models.Diagnostic{
			Kind:    models.DiagMissingRequiredField,
			Line:    row.Line,
			Title:   row.Title,
			Message: msg,
		})
	}

	for _, row := range rows {
		title := strings.TrimSpace(row.Title)
		if title == "" {
			skip(row, "missing production title")
			continue
		}
		if strings.TrimSpace(row.Opening) == "" {
			skip(row, "missing opening date")
			continue
		}

		opening := dates.Normalize(row.Opening)
		if !opening.IsKnown() {
			skip(row, fmt.Sprintf("opening date %q is not a calendar date", row.Opening))
			continue
		}

		closing := models.Ongoing(row.Closing)
		if strings.TrimSpace(row.Closing) != "" {
			closing = dates.Normalize(row.Closing)
			if closing.Kind == models.DateUnknown {
				g.logger.Warn("unparseable closing date", "line", row.Line, "title", title, "closing", row.Closing)
				diags = append(diags, models.Diagnostic{
					Kind:    models.DiagUnparseableDate,
					Line:    row.Line,
					Title:   title,
					Message: fmt.Sprintf("closing date %q treated as unknown", row.Closing),
				})
			}
		}

		key := g.Key(title, opening)
		gd, exists := groups.Get(key)
		if !exists {
			gd = &GroupedData{
				Key:          key,
				Title:        title,
				Opening:      opening,
				Closing:      closing,
				Revival:      strings.TrimSpace(row.Revival),
				Performances: strings.TrimSpace(row.Performances),
				FirstLine:    row.Line,
			}
			groups.add(gd)
		} else {
			if g.opts.Identity == IdentityTitle {
				gd.Opening = models.EarlierOf(gd.Opening, opening)
				gd.Closing = models.LaterOf(gd.Closing, closing)
			}
			if gd.Revival == "" {
				gd.Revival = strings.TrimSpace(row.Revival)
			}
			if gd.Performances == "" {
				gd.Performances = strings.TrimSpace(row.Performances)
			}
		}
		gd.Rows++

		if row.HasPerson() {
			gd.People = append(gd.People, association(row, gd.Closing))
		}
	}

	g.logger.Debug("grouped rows", "identity", g.opts.Identity, "rows", len(rows), "groups", groups.Len(), "diagnostics", len(diags))
	return groups, diags
}

// association builds a person association from a row. An end-of-run role
// end takes the group's closing as known at append time; the builder
// re-resolves it once the group's range is final.
func association(row models.RawRow, closing models.NormalizedDate) models.PersonAssociation {
	first := strings.TrimSpace(row.FirstName)
	last := strings.TrimSpace(row.LastName)

	pa := models.PersonAssociation{
		Name:       PersonName(first, last),
		FirstName:  first,
		LastName:   last,
		Position:   strings.TrimSpace(row.Position),
		ProfileURL: strings.TrimSpace(row.ProfileURL),
		Notes:      strings.TrimSpace(row.Notes),
		WorksWith:  splitNames(row.WorksWith),
	}

	if strings.TrimSpace(row.PositionStart) != "" {
		start := dates.Normalize(row.PositionStart)
		pa.Start = &start
	}

	switch {
	case dates.IsEndOfRun(row.PositionEnd):
		end := closing
		end.Raw = row.PositionEnd
		pa.End = &end
		pa.EndOfRun = true
	case strings.TrimSpace(row.PositionEnd) != "":
		end := dates.Normalize(row.PositionEnd)
		pa.End = &end
	}

	return pa
}

// PersonName joins first and last name with a single space.
func PersonName(first, last string) string {
	return strings.Join(strings.Fields(first+" "+last), " ")
}

func splitNames(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if name := strings.Join(strings.Fields(part), " "); name != "" {
			out = append(out, name)
		}
	}
	return out
}
