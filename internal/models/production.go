package models

import (
	"time"
)

// ProductionKind classifies a production by its revival label.
type ProductionKind string

const (
	KindOriginal         ProductionKind = "original"
	KindRevival          ProductionKind = "revival"
	KindReturnEngagement ProductionKind = "return_engagement"
)

// ValidProductionKinds is the set of all valid production kinds.
var ValidProductionKinds = []ProductionKind{
	KindOriginal,
	KindRevival,
	KindReturnEngagement,
}

// IsValid returns true if the production kind is recognized.
func (pk ProductionKind) IsValid() bool {
	for _, v := range ValidProductionKinds {
		if pk == v {
			return true
		}
	}
	return false
}

// IsRevival reports whether the kind marks a remounted production.
func (pk ProductionKind) IsRevival() bool {
	return pk == KindRevival || pk == KindReturnEngagement
}

// PersonAssociation is one person's role within a production.
type PersonAssociation struct {
	Name       string          `json:"name" yaml:"name"`
	FirstName  string          `json:"first_name" yaml:"first_name"`
	LastName   string          `json:"last_name" yaml:"last_name"`
	Position   string          `json:"position,omitempty" yaml:"position,omitempty"`
	Start      *NormalizedDate `json:"start,omitempty" yaml:"start,omitempty"`
	End        *NormalizedDate `json:"end,omitempty" yaml:"end,omitempty"`
	EndOfRun   bool            `json:"end_of_run,omitempty" yaml:"end_of_run,omitempty"` // End tracks the production closing
	ProfileURL string          `json:"profile_url,omitempty" yaml:"profile_url,omitempty"`
	Notes      string          `json:"notes,omitempty" yaml:"notes,omitempty"`
	WorksWith  []string        `json:"works_with,omitempty" yaml:"works_with,omitempty"`
}

// Production is a single theatrical run with its associated people.
type Production struct {
	ID           string              `json:"id" yaml:"id"`
	Title        string              `json:"title" yaml:"title"`
	Opening      NormalizedDate      `json:"opening" yaml:"opening"`
	Closing      NormalizedDate      `json:"closing" yaml:"closing"`
	Revival      string              `json:"revival,omitempty" yaml:"revival,omitempty"`
	Kind         ProductionKind      `json:"kind" yaml:"kind"`
	Performances string              `json:"performances,omitempty" yaml:"performances,omitempty"`
	People       []PersonAssociation `json:"people" yaml:"people"`
	Lane         int                 `json:"lane" yaml:"lane"`
	RecordCount  int                 `json:"record_count" yaml:"record_count"`
	Label        string              `json:"label" yaml:"label"`
}

// Range returns the effective date range [opening, closing ?? now]. A
// closing date earlier than the opening is clamped to the opening.
func (p Production) Range(now time.Time) Range {
	start := p.Opening.Time
	end := now
	if p.Closing.IsKnown() {
		end = p.Closing.Time
	}
	if end.Before(start) {
		end = start
	}
	return Range{Start: start, End: end}
}

// Range is a closed time interval.
type Range struct {
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
}

// Duration returns End - Start.
func (r Range) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// TimelineItem is the renderable form of a production handed to the
// rendering collaborator.
type TimelineItem struct {
	ID      string              `json:"id" yaml:"id"`
	Start   time.Time           `json:"start" yaml:"start"`
	End     *time.Time          `json:"end,omitempty" yaml:"end,omitempty"`
	Group   int                 `json:"group" yaml:"group"`
	Content string              `json:"content" yaml:"content"`
	Label   string              `json:"title" yaml:"title"`
	Kind    ProductionKind      `json:"kind" yaml:"kind"`
	People  []PersonAssociation `json:"people" yaml:"people"`
}
