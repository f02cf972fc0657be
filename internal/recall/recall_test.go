package recall

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func year(y int) time.Time {
	return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
}

func TestFold(t *testing.T) {
	assert.Equal(t, Fold("Café"), Fold("  CAFÉ "))
	assert.Equal(t, "the phantom of the opera", Fold("The  Phantom of\tthe Opera"))
}

func TestMatchTier(t *testing.T) {
	tests := []struct {
		title, query string
		want         Tier
	}{
		{"Cats", "cats", TierExact},
		{"Cats", "ca", TierPrefix},
		{"Cats", "ats", TierSubstring},
		{"Cats", "dogs", TierNone},
		{"Cats", "  ", TierNone},
	}
	for _, tt := range tests {
		t.Run(tt.title+"/"+tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchTier(tt.title, tt.query))
		})
	}
}

func TestRank(t *testing.T) {
	r := NewRecaller(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	matches := r.Rank([]Candidate{
		{ID: "1", Title: "Annie Get Your Gun", Opening: year(1946)},
		{ID: "2", Title: "Little Annie", Opening: year(1930)},
		{ID: "3", Title: "Annie", Opening: year(1997)},
		{ID: "4", Title: "Annie", Opening: year(1977)},
		{ID: "5", Title: "Cats", Opening: year(1982)},
		{ID: "6", Title: "Annie Warbucks", Opening: year(1993)},
	}, "annie")

	require.Len(t, matches, 5)
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	assert.Equal(t, []string{"4", "3", "1", "6", "2"}, ids)
	assert.Equal(t, TierExact, matches[0].Tier)
	assert.Equal(t, "substring", matches[4].Tier.String())

	assert.Nil(t, r.Rank([]Candidate{{ID: "1", Title: "Cats"}}, ""))
}
