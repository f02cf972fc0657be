package lanes

import (
	"log/slog"
	"math/rand/v2"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/marquee/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func years(from, to int) models.Range {
	return models.Range{
		Start: time.Date(from, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(to, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

// randomRanges returns n ranges between 1900 and 1990. About one in four
// is zero-length, and starts fall on month boundaries so ties are common.
func randomRanges(r *rand.Rand, n int) []models.Range {
	base := time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Range, n)
	for i := range out {
		start := base.AddDate(r.IntN(90), r.IntN(12), 0)
		end := start
		if r.IntN(4) != 0 {
			end = start.AddDate(0, 1+r.IntN(60), 0)
		}
		out[i] = models.Range{Start: start, End: end}
	}
	return out
}

// bruteConcurrency probes every start. A longer run counts the longer
// runs covering its start; a zero-length run counts itself plus the longer
// runs strictly containing it.
func bruteConcurrency(ranges []models.Range) int {
	best := 0
	for _, probe := range ranges {
		point := probe.Duration() == 0
		n := 0
		if point {
			n = 1
		}
		for _, r := range ranges {
			if r.Duration() == 0 || !r.End.After(probe.Start) {
				continue
			}
			if r.Start.Before(probe.Start) || (!point && r.Start.Equal(probe.Start)) {
				n++
			}
		}
		if n > best {
			best = n
		}
	}
	return best
}

func assertNoSharedLaneOverlap(t *testing.T, ranges []models.Range, assigned []int, buffer int) {
	t.Helper()
	for i := range ranges {
		for j := i + 1; j < len(ranges); j++ {
			if assigned[i] != assigned[j] {
				continue
			}
			assert.False(t, Overlaps(ranges[i], ranges[j], buffer),
				"ranges %d and %d share lane %d but overlap: %v / %v", i, j, assigned[i], ranges[i], ranges[j])
		}
	}
}

func TestFirstFit_TouchingShareLane(t *testing.T) {
	assigned := FirstFit([]models.Range{years(1990, 1992), years(1992, 1994)})
	assert.Equal(t, []int{0, 0}, assigned)
}

func TestFirstFit_OverlappingSplit(t *testing.T) {
	assigned := FirstFit([]models.Range{years(1990, 1995), years(1992, 1994), years(1994, 1996), years(1995, 1999)})
	assert.Equal(t, []int{0, 1, 1, 0}, assigned)
}

func TestFirstFit_StableTies(t *testing.T) {
	assigned := FirstFit([]models.Range{years(1990, 1991), years(1990, 1995), years(1990, 1992)})
	assert.Equal(t, []int{0, 1, 2}, assigned)
}

func TestFirstFit_NoOverlapProperty(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for range 50 {
		ranges := randomRanges(r, 1+r.IntN(60))
		assigned := FirstFit(ranges)
		assertNoSharedLaneOverlap(t, ranges, assigned, 0)
		assert.Equal(t, bruteConcurrency(ranges), Count(assigned))
	}
}

func TestLongestFirst_BufferSeparatesNeighbours(t *testing.T) {
	// Touching runs would share a lane without a buffer.
	assigned := LongestFirst([]models.Range{years(1990, 1995), years(1995, 1997)}, 1)
	assert.Equal(t, []int{0, 1}, assigned)

	// Two years apart clears the one-year buffer.
	assigned = LongestFirst([]models.Range{years(1990, 1995), years(1997, 1998)}, 1)
	assert.Equal(t, []int{0, 0}, assigned)
}

func TestLongestFirst_ChecksEveryOccupant(t *testing.T) {
	ranges := []models.Range{
		years(1950, 1960), // longest, lane 0
		years(1980, 1985), // lane 0
		years(1955, 1958), // overlaps the first occupant only
	}
	assigned := LongestFirst(ranges, 1)
	assert.Equal(t, 0, assigned[0])
	assert.Equal(t, 0, assigned[1])
	assert.Equal(t, 1, assigned[2])
}

func TestLongestFirst_NoOverlapProperty(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 5))
	for range 30 {
		ranges := randomRanges(r, 1+r.IntN(40))
		assertNoSharedLaneOverlap(t, ranges, LongestFirst(ranges, 1), 1)
	}
}

func TestRoundRobin_IndexModN(t *testing.T) {
	ranges := []models.Range{years(2000, 2010), years(1990, 2020), years(1995, 2005), years(1980, 2030), years(2001, 2002)}
	assigned := RoundRobin(ranges, 2)
	// Chronological order: 3, 1, 2, 0, 4.
	assert.Equal(t, []int{1, 1, 0, 0, 0}, assigned)
}

func TestRoundRobin_IgnoresOverlap(t *testing.T) {
	ranges := []models.Range{years(1990, 2000), years(1991, 2000), years(1992, 2000), years(1993, 2000), years(1994, 2000)}
	assigned := RoundRobin(ranges, 4)
	assert.Equal(t, []int{0, 1, 2, 3, 0}, assigned)
	assert.True(t, Overlaps(ranges[0], ranges[4], 0))
}

func TestRoundRobin_InvalidLaneCount(t *testing.T) {
	assert.Equal(t, []int{0, 0}, RoundRobin([]models.Range{years(1990, 1991), years(1990, 1991)}, 0))
}

func TestMaxConcurrency(t *testing.T) {
	assert.Equal(t, 0, MaxConcurrency(nil))
	assert.Equal(t, 1, MaxConcurrency([]models.Range{years(1990, 1992), years(1992, 1994)}))
	assert.Equal(t, 3, MaxConcurrency([]models.Range{years(1990, 2000), years(1991, 1993), years(1992, 1995), years(1996, 1997)}))

	point := models.Range{Start: years(1995, 1995).Start, End: years(1995, 1995).Start}
	assert.Equal(t, 2, MaxConcurrency([]models.Range{years(1990, 2000), point}))
	assert.Equal(t, 1, MaxConcurrency([]models.Range{years(1990, 1995), point}))
}

func TestCapacityFit_MatchesSweep(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 99))
	for range 50 {
		ranges := randomRanges(r, 1+r.IntN(60))
		assigned, impossible := CapacityFit(ranges)
		require.Empty(t, impossible)
		assert.Equal(t, bruteConcurrency(ranges), MaxConcurrency(ranges))
		assert.Equal(t, MaxConcurrency(ranges), Count(assigned))
		assertNoSharedLaneOverlap(t, ranges, assigned, 0)
	}
}

func TestCapacityFit_ZeroLengthRunAfterLongerTie(t *testing.T) {
	long := years(1990, 2000)
	mid := years(1995, 1996)
	oneNight := years(1995, 1995)
	ranges := []models.Range{long, mid, oneNight}

	assigned, impossible := CapacityFit(ranges)
	require.Empty(t, impossible)
	assert.Equal(t, 2, MaxConcurrency(ranges))
	assert.Equal(t, 2, Count(assigned))
	assertNoSharedLaneOverlap(t, ranges, assigned, 0)
	assert.NotEqual(t, assigned[0], assigned[2])
	assert.Equal(t, assigned[1], assigned[2])
}

func TestAssigner_CapacityZeroLengthHasNoDiagnostics(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	prods := []models.Production{
		{ID: "long", Opening: models.Known(1990, time.January, 1, ""), Closing: models.Known(2000, time.January, 1, "")},
		{ID: "mid", Opening: models.Known(1995, time.January, 1, ""), Closing: models.Known(1996, time.January, 1, "")},
		{ID: "flop", Opening: models.Known(1995, time.January, 1, ""), Closing: models.Known(1995, time.January, 1, "")},
	}
	out, diags := NewAssigner(Options{Policy: PolicyCapacity, Now: now}, testLogger()).Assign(prods)
	assert.Empty(t, diags)
	assert.NotEqual(t, out[0].Lane, out[2].Lane)
}

func TestFirstFit_ZeroLengthFirstOnTie(t *testing.T) {
	ranges := []models.Range{years(1990, 2000), years(1995, 1996), years(1995, 1995)}
	assigned := FirstFit(ranges)
	assert.Equal(t, []int{0, 1, 1}, assigned)
}

func TestOverlaps(t *testing.T) {
	assert.False(t, Overlaps(years(1990, 1992), years(1992, 1994), 0))
	assert.True(t, Overlaps(years(1990, 1993), years(1992, 1994), 0))
	assert.True(t, Overlaps(years(1990, 1992), years(1992, 1994), 1))
	assert.True(t, Overlaps(years(1992, 1994), years(1990, 1992), 1))
	assert.False(t, Overlaps(years(1990, 1992), years(1994, 1996), 1))
}

func TestAssigner_Assign(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	prods := []models.Production{
		{ID: "a", Opening: models.Known(1990, time.January, 1, ""), Closing: models.Known(1992, time.January, 1, "")},
		{ID: "b", Opening: models.Known(1992, time.January, 1, ""), Closing: models.Known(1994, time.January, 1, "")},
		{ID: "c", Opening: models.Known(1991, time.January, 1, ""), Closing: models.Ongoing("present")},
	}

	out, diags := NewAssigner(Options{Policy: PolicyFirstFit, Now: now}, testLogger()).Assign(prods)
	require.Empty(t, diags)
	require.Len(t, out, 3)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, 0, out[0].Lane)
	assert.Equal(t, 1, out[2].Lane)
	assert.Equal(t, 0, out[1].Lane)
	// Input slice untouched.
	assert.Equal(t, 0, prods[2].Lane)

	for _, policy := range ValidPolicies {
		out, _ := NewAssigner(Options{Policy: policy, Now: now}, testLogger()).Assign(prods)
		assert.Len(t, out, 3, "policy %s", policy)
	}
}

func TestPolicy_IsValid(t *testing.T) {
	assert.True(t, PolicyCapacity.IsValid())
	assert.False(t, Policy("best_fit").IsValid())
}
