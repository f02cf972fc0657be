// Package lanes assigns time-ranged productions to integer lanes so that
// overlapping runs are not drawn on top of each other.
package lanes

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/ajitpratap0/marquee/internal/models"
)

// Policy selects the lane allocation strategy.
type Policy string

const (
	// PolicyFirstFit places runs, earliest start first, into the first lane
	// whose last run has ended.
	PolicyFirstFit Policy = "first_fit"
	// PolicyLongestFirst places the longest runs first and keeps a buffer
	// between neighbours in the same lane.
	PolicyLongestFirst Policy = "longest_first"
	// PolicyRoundRobin deals runs chronologically over a fixed number of
	// lanes. It does not guarantee non-overlap.
	PolicyRoundRobin Policy = "round_robin"
	// PolicyCapacity sizes the lane count from the maximum concurrency and
	// fills it first-fit.
	PolicyCapacity Policy = "capacity"
)

// ValidPolicies is the set of all valid lane policies.
var ValidPolicies = []Policy{PolicyFirstFit, PolicyLongestFirst, PolicyRoundRobin, PolicyCapacity}

// IsValid returns true if the policy is recognized.
func (p Policy) IsValid() bool {
	for _, v := range ValidPolicies {
		if p == v {
			return true
		}
	}
	return false
}

// DefaultBufferYears is the longest-first buffer added to both range ends.
const DefaultBufferYears = 1

// Options configures an Assigner.
type Options struct {
	Policy      Policy
	LaneCount   int // round_robin only
	BufferYears int // longest_first only
	Now         time.Time
}

// Assigner sets the Lane of each production.
type Assigner struct {
	opts   Options
	logger *slog.Logger
}

// NewAssigner creates an assigner. Zero values fall back to first-fit, one
// year of buffer, four round-robin lanes and the current time.
func NewAssigner(opts Options, logger *slog.Logger) *Assigner {
	if opts.Policy == "" {
		opts.Policy = PolicyFirstFit
	}
	if opts.LaneCount <= 0 {
		opts.LaneCount = 4
	}
	if opts.BufferYears <= 0 {
		opts.BufferYears = DefaultBufferYears
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now().UTC()
	}
	return &Assigner{opts: opts, logger: logger}
}

// Assign returns a copy of prods, in input order, with Lane set.
func (a *Assigner) Assign(prods []models.Production) ([]models.Production, []models.Diagnostic) {
	ranges := make([]models.Range, len(prods))
	for i := range prods {
		ranges[i] = prods[i].Range(a.opts.Now)
	}

	var (
		assigned []int
		diags    []models.Diagnostic
	)
	switch a.opts.Policy {
	case PolicyLongestFirst:
		assigned = LongestFirst(ranges, a.opts.BufferYears)
	case PolicyRoundRobin:
		assigned = RoundRobin(ranges, a.opts.LaneCount)
	case PolicyCapacity:
		var impossible []int
		assigned, impossible = CapacityFit(ranges)
		for _, i := range impossible {
			a.logger.Error("no free lane within computed capacity; falling back to lane 0", "id", prods[i].ID, "title", prods[i].Title)
			diags = append(diags, models.Diagnostic{
				Kind:    models.DiagLaneAssignmentImpossible,
				Title:   prods[i].Title,
				Message: fmt.Sprintf("no free lane for %q within capacity; placed in lane 0", prods[i].ID),
			})
		}
	default:
		assigned = FirstFit(ranges)
	}

	out := make([]models.Production, len(prods))
	copy(out, prods)
	for i := range out {
		out[i].Lane = assigned[i]
	}

	a.logger.Debug("assigned lanes", "policy", a.opts.Policy, "productions", len(out), "lanes", Count(assigned))
	return out, diags
}

// Overlaps reports whether two ranges overlap once each end is extended
// by bufferYears calendar years. Touching ranges do not overlap.
func Overlaps(a, b models.Range, bufferYears int) bool {
	aEnd, bEnd := a.End, b.End
	if bufferYears != 0 {
		aEnd = aEnd.AddDate(bufferYears, 0, 0)
		bEnd = bEnd.AddDate(bufferYears, 0, 0)
	}
	return a.Start.Before(bEnd) && b.Start.Before(aEnd)
}

// Count returns the number of lanes used by an assignment.
func Count(assigned []int) int {
	n := 0
	for _, l := range assigned {
		if l+1 > n {
			n = l + 1
		}
	}
	return n
}

// byStart returns indexes of ranges ordered by start, ties in input order.
func byStart(ranges []models.Range) []int {
	idx := make([]int, len(ranges))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return ranges[idx[i]].Start.Before(ranges[idx[j]].Start)
	})
	return idx
}

// byStartPointsFirst is byStart with zero-length ranges ahead of longer
// ones that start at the same instant, matching the MaxConcurrency sweep.
func byStartPointsFirst(ranges []models.Range) []int {
	idx := make([]int, len(ranges))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		a, b := ranges[idx[i]], ranges[idx[j]]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		return a.Duration() == 0 && b.Duration() != 0
	})
	return idx
}

// FirstFit assigns lanes greedily by start, zero-length runs first on a
// tie. A run fits a lane when the lane's last run ends no later than the
// run starts.
func FirstFit(ranges []models.Range) []int {
	assigned := make([]int, len(ranges))
	var lastEnd []time.Time

	for _, i := range byStartPointsFirst(ranges) {
		r := ranges[i]
		lane := -1
		for l, end := range lastEnd {
			if !end.After(r.Start) {
				lane = l
				break
			}
		}
		if lane < 0 {
			lane = len(lastEnd)
			lastEnd = append(lastEnd, time.Time{})
		}
		lastEnd[lane] = r.End
		assigned[i] = lane
	}
	return assigned
}

// LongestFirst assigns lanes in order of decreasing duration, each to the
// lowest lane none of whose occupants overlap it under the buffered rule.
func LongestFirst(ranges []models.Range, bufferYears int) []int {
	idx := make([]int, len(ranges))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return ranges[idx[i]].Duration() > ranges[idx[j]].Duration()
	})

	assigned := make([]int, len(ranges))
	var occupants [][]int

	for _, i := range idx {
		lane := -1
		for l, members := range occupants {
			free := true
			for _, m := range members {
				if Overlaps(ranges[i], ranges[m], bufferYears) {
					free = false
					break
				}
			}
			if free {
				lane = l
				break
			}
		}
		if lane < 0 {
			lane = len(occupants)
			occupants = append(occupants, nil)
		}
		occupants[lane] = append(occupants[lane], i)
		assigned[i] = lane
	}
	return assigned
}

// RoundRobin assigns lane = position-by-start mod laneCount.
func RoundRobin(ranges []models.Range, laneCount int) []int {
	if laneCount < 1 {
		laneCount = 1
	}
	assigned := make([]int, len(ranges))
	for pos, i := range byStart(ranges) {
		assigned[i] = pos % laneCount
	}
	return assigned
}

// CapacityFit sizes the lane count with MaxConcurrency and assigns
// first-fit within it. Placing zero-length runs before longer runs with the
// same start keeps every placement within capacity; a run that still finds
// no free lane is placed in lane 0 and its index returned.
func CapacityFit(ranges []models.Range) (assigned []int, impossible []int) {
	capacity := MaxConcurrency(ranges)
	assigned = make([]int, len(ranges))
	lastEnd := make([]time.Time, capacity)
	used := make([]bool, capacity)

	for _, i := range byStartPointsFirst(ranges) {
		r := ranges[i]
		lane := -1
		for l := range capacity {
			if !used[l] || !lastEnd[l].After(r.Start) {
				lane = l
				break
			}
		}
		if lane < 0 {
			impossible = append(impossible, i)
			assigned[i] = 0
			continue
		}
		used[lane] = true
		lastEnd[lane] = r.End
		assigned[i] = lane
	}
	return assigned, impossible
}

type eventKind int

const (
	eventEnd eventKind = iota
	eventPoint
	eventStart
)

type event struct {
	at   time.Time
	kind eventKind
}

// MaxConcurrency returns the largest number of ranges overlapping at any
// instant. Ranges that merely touch are not concurrent; a zero-length
// range counts only against ranges strictly containing it.
func MaxConcurrency(ranges []models.Range) int {
	events := make([]event, 0, 2*len(ranges))
	for _, r := range ranges {
		if r.End.Equal(r.Start) {
			events = append(events, event{at: r.Start, kind: eventPoint})
			continue
		}
		events = append(events, event{at: r.Start, kind: eventStart}, event{at: r.End, kind: eventEnd})
	}
	sort.Slice(events, func(i, j int) bool {
		if !events[i].at.Equal(events[j].at) {
			return events[i].at.Before(events[j].at)
		}
		return events[i].kind < events[j].kind
	})

	running, peak := 0, 0
	for _, e := range events {
		switch e.kind {
		case eventEnd:
			running--
		case eventPoint:
			if running+1 > peak {
				peak = running + 1
			}
		case eventStart:
			running++
			if running > peak {
				peak = running
			}
		}
	}
	return peak
}
