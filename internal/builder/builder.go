// Package builder converts grouped rows into Production entities.
package builder

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/ajitpratap0/marquee/internal/classifier"
	"github.com/ajitpratap0/marquee/internal/grouper"
	"github.com/ajitpratap0/marquee/internal/models"
)

// SortOrder selects the order of built productions.
type SortOrder string

const (
	SortInsertion SortOrder = "insertion"
	SortOpening   SortOrder = "opening"
	SortTitle     SortOrder = "title"
)

// ValidSortOrders is the set of all valid sort orders.
var ValidSortOrders = []SortOrder{SortInsertion, SortOpening, SortTitle}

// IsValid returns true if the sort order is recognized.
func (s SortOrder) IsValid() bool {
	for _, v := range ValidSortOrders {
		if s == v {
			return true
		}
	}
	return false
}

// Builder turns groups into productions.
type Builder struct {
	classifier classifier.Classifier
	logger     *slog.Logger
}

// NewBuilder creates a builder that classifies revival labels with c.
func NewBuilder(c classifier.Classifier, logger *slog.Logger) *Builder {
	return &Builder{classifier: c, logger: logger}
}

// Build produces one Production per group. Groups are read, never
// modified.
func (b *Builder) Build(groups *grouper.Groups, order SortOrder) []models.Production {
	all := groups.All()
	out := make([]models.Production, 0, len(all))

	for _, gd := range all {
		kind := b.classifier.Classify(gd.Revival)
		people := resolvePeople(gd.People, gd.Closing)

		p := models.Production{
			ID:           gd.Key,
			Title:        gd.Title,
			Opening:      gd.Opening,
			Closing:      gd.Closing,
			Revival:      gd.Revival,
			Kind:         kind,
			Performances: gd.Performances,
			People:       people,
			RecordCount:  len(people),
		}
		p.Label = Label(p)
		out = append(out, p)
	}

	Sort(out, order)
	b.logger.Debug("built productions", "count", len(out), "order", order)
	return out
}

// Sort orders productions in place. Insertion order is left untouched;
// the other orders are stable.
func Sort(prods []models.Production, order SortOrder) {
	switch order {
	case SortOpening:
		sort.SliceStable(prods, func(i, j int) bool {
			return prods[i].Opening.Time.Before(prods[j].Opening.Time)
		})
	case SortTitle:
		sort.SliceStable(prods, func(i, j int) bool {
			ki, kj := grouper.TitleKey(prods[i].Title), grouper.TitleKey(prods[j].Title)
			if ki != kj {
				return ki < kj
			}
			return prods[i].Opening.Time.Before(prods[j].Opening.Time)
		})
	}
}

// Label renders the multi-line summary shown on hover:
// title, "opening to closing", revival-or-original.
func Label(p models.Production) string {
	return fmt.Sprintf("%s\n%s to %s\n%s", p.Title, p.Opening.Format(), p.Closing.Format(), RevivalLabel(p))
}

// RevivalLabel returns the revival text for revivals and "Original
// Production" otherwise.
func RevivalLabel(p models.Production) string {
	if !p.Kind.IsRevival() {
		return "Original Production"
	}
	if p.Revival == "" {
		return "Revival"
	}
	return p.Revival
}

// resolvePeople copies associations and points end-of-run role ends at the
// final closing date.
func resolvePeople(in []models.PersonAssociation, closing models.NormalizedDate) []models.PersonAssociation {
	out := make([]models.PersonAssociation, len(in))
	copy(out, in)
	for i := range out {
		if !out[i].EndOfRun {
			continue
		}
		end := closing
		if out[i].End != nil {
			end.Raw = out[i].End.Raw
		}
		out[i].End = &end
	}
	return out
}
