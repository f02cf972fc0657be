package models

import (
	"time"
)

// DateKind classifies a normalized date.
type DateKind string

const (
	DateKnown   DateKind = "known"
	DateOngoing DateKind = "ongoing"
	DateUnknown DateKind = "unknown"
)

// ValidDateKinds is the set of all valid date kinds.
var ValidDateKinds = []DateKind{
	DateKnown,
	DateOngoing,
	DateUnknown,
}

// IsValid returns true if the date kind is recognized.
func (dk DateKind) IsValid() bool {
	for _, v := range ValidDateKinds {
		if dk == v {
			return true
		}
	}
	return false
}

// displayLayout is the calendar format used in labels.
const displayLayout = "Jan 2, 2006"

// NormalizedDate is a date field after normalization. Time is only
// meaningful when Kind is DateKnown; Raw always keeps the source text.
type NormalizedDate struct {
	Kind DateKind  `json:"kind" yaml:"kind"`
	Time time.Time `json:"time,omitzero" yaml:"time,omitempty"`
	Raw  string    `json:"raw" yaml:"raw"`
}

// Known returns a known date at UTC midnight.
func Known(year int, month time.Month, day int, raw string) NormalizedDate {
	return NormalizedDate{
		Kind: DateKnown,
		Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC),
		Raw:  raw,
	}
}

// Ongoing returns the "still running" sentinel.
func Ongoing(raw string) NormalizedDate {
	return NormalizedDate{Kind: DateOngoing, Raw: raw}
}

// Unknown returns the "unparseable or explicitly unknown" sentinel.
func Unknown(raw string) NormalizedDate {
	return NormalizedDate{Kind: DateUnknown, Raw: raw}
}

// IsKnown reports whether d carries a calendar date.
func (d NormalizedDate) IsKnown() bool { return d.Kind == DateKnown }

// IsOngoing reports whether d is the ongoing sentinel.
func (d NormalizedDate) IsOngoing() bool { return d.Kind == DateOngoing }

// Before reports whether d is a known date earlier than o. Sentinels are
// never before anything.
func (d NormalizedDate) Before(o NormalizedDate) bool {
	return d.IsKnown() && o.IsKnown() && d.Time.Before(o.Time)
}

// Year returns the calendar year, or 0 when d is not known.
func (d NormalizedDate) Year() int {
	if !d.IsKnown() {
		return 0
	}
	return d.Time.Year()
}

// Format renders d for display.
func (d NormalizedDate) Format() string {
	switch d.Kind {
	case DateKnown:
		return d.Time.Format(displayLayout)
	case DateOngoing:
		return "present"
	default:
		return "unknown"
	}
}

// Equal reports whether two dates carry the same kind and instant.
// Raw text is ignored.
func (d NormalizedDate) Equal(o NormalizedDate) bool {
	if d.Kind != o.Kind {
		return false
	}
	if d.Kind != DateKnown {
		return true
	}
	return d.Time.Equal(o.Time)
}

// EarlierOf returns whichever of a and b starts first. Known dates beat
// sentinels; on a tie a is returned.
func EarlierOf(a, b NormalizedDate) NormalizedDate {
	switch {
	case a.IsKnown() && b.IsKnown():
		if b.Time.Before(a.Time) {
			return b
		}
		return a
	case a.IsKnown():
		return a
	case b.IsKnown():
		return b
	default:
		return a
	}
}

// LaterOf returns whichever of a and b ends last. Ongoing ranks above any
// known date and known dates rank above unknown; on a tie a is returned.
func LaterOf(a, b NormalizedDate) NormalizedDate {
	rank := func(d NormalizedDate) int {
		switch d.Kind {
		case DateOngoing:
			return 2
		case DateKnown:
			return 1
		default:
			return 0
		}
	}
	ra, rb := rank(a), rank(b)
	switch {
	case ra > rb:
		return a
	case rb > ra:
		return b
	case a.IsKnown() && b.Time.After(a.Time):
		return b
	default:
		return a
	}
}
