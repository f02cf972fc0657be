package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/marquee/internal/lanes"
	"github.com/ajitpratap0/marquee/internal/models"
	"github.com/ajitpratap0/marquee/internal/source"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

const header = "Last,First,Show,Revival,Opening,Closing,Performances,Position,Unused,Start,End,IBDB,Notes\n"

func testOptions() Options {
	opts := DefaultOptions()
	opts.Layout = source.LayoutFixed
	opts.Now = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	return opts
}

func TestRun_HamiltonMergesPeople(t *testing.T) {
	sheet := header +
		"Smith,Jane,Hamilton,,1/1/2015,12/31/2016,500,Conductor,,,,,\n" +
		"Doe,John,Hamilton,,1/1/2015,12/31/2016,500,Orchestrator,,,,,\n"

	m, err := Run(context.Background(), source.StaticFetcher{Data: []byte(sheet)}, testOptions(), testLogger())
	require.NoError(t, err)

	prods := m.Productions()
	require.Len(t, prods, 1)
	assert.Equal(t, "Hamilton", prods[0].Title)
	require.Len(t, prods[0].People, 2)
	assert.Equal(t, "Jane Smith", prods[0].People[0].Name)
	assert.Equal(t, "John Doe", prods[0].People[1].Name)
	assert.Equal(t, time.Date(2015, time.January, 1, 0, 0, 0, 0, time.UTC), prods[0].Opening.Time)
	assert.Empty(t, m.Diagnostics())
}

func TestRun_PresentOpeningDropped(t *testing.T) {
	sheet := header + "Smith,Jane,Wicked,,present,,,Conductor,,,,,\n"

	m, err := Run(context.Background(), source.StaticFetcher{Data: []byte(sheet)}, testOptions(), testLogger())
	require.NoError(t, err)
	assert.Empty(t, m.Productions())

	diags := m.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, models.DiagMissingRequiredField, diags[0].Kind)
	assert.Equal(t, 1, m.Stats().RowsDropped)
	assert.Equal(t, 1, m.Stats().RowsRead)
}

func TestRun_TouchingRunsShareLane(t *testing.T) {
	sheet := header +
		"A,B,First,,1/1/1990,1/1/1992,,,,,,,\n" +
		"C,D,Second,,1/1/1992,1/1/1994,,,,,,,\n"

	opts := testOptions()
	opts.LanePolicy = lanes.PolicyFirstFit
	m, err := Run(context.Background(), source.StaticFetcher{Data: []byte(sheet)}, opts, testLogger())
	require.NoError(t, err)

	items := m.Items()
	require.Len(t, items, 2)
	assert.Equal(t, items[0].Group, items[1].Group)
	assert.Equal(t, 1, m.Stats().Lanes)
}

func TestRun_FetchFailure(t *testing.T) {
	boom := errors.New("connection refused")
	_, err := Run(context.Background(), source.StaticFetcher{Err: boom}, testOptions(), testLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestRun_ParseFailure(t *testing.T) {
	opts := testOptions()
	opts.Layout = source.LayoutHeader
	_, err := Run(context.Background(), source.StaticFetcher{Data: []byte("Opening\n1/1/2000\n")}, opts, testLogger())
	require.Error(t, err)
}

func TestLoader_KeepsPreviousOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sheet.csv")
	require.NoError(t, os.WriteFile(path, []byte(header+"A,B,Cats,,10/7/1982,9/10/2000,,,,,,,\n"), 0o600))

	l := NewLoader(source.NewFileFetcher(path, testLogger()), testOptions(), testLogger())
	require.NotNil(t, l.Current())
	assert.Empty(t, l.Current().Items())

	first, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, first.Items(), 1)
	assert.Same(t, first, l.Current())
	assert.NoError(t, l.LastError())

	require.NoError(t, os.Remove(path))
	kept, err := l.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, source.ErrFetch)
	assert.Same(t, first, kept)
	assert.Same(t, first, l.Current())
	assert.Error(t, l.LastError())

	diags := l.Diagnostics()
	require.NotEmpty(t, diags)
	last := diags[len(diags)-1]
	assert.Equal(t, models.DiagFetchFailure, last.Kind)
	assert.Contains(t, last.Message, path)

	require.NoError(t, os.WriteFile(path, []byte(header+"A,B,Cats,,10/7/1982,9/10/2000,,,,,,,\n"), 0o600))
	_, err = l.Load(context.Background())
	require.NoError(t, err)
	for _, d := range l.Diagnostics() {
		assert.NotEqual(t, models.DiagFetchFailure, d.Kind)
	}
}

func TestLoader_WatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sheet.csv")
	require.NoError(t, os.WriteFile(path, []byte(header+"A,B,Cats,,10/7/1982,9/10/2000,,,,,,,\n"), 0o600))

	l := NewLoader(source.NewFileFetcher(path, testLogger()), testOptions(), testLogger())
	_, err := l.Load(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Watch(ctx, path, 20*time.Millisecond) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	sheet := header +
		"A,B,Cats,,10/7/1982,9/10/2000,,,,,,,\n" +
		"C,D,Rent,,4/29/1996,9/7/2008,,,,,,,\n"
	require.NoError(t, os.WriteFile(path, []byte(sheet), 0o600))

	require.Eventually(t, func() bool {
		return len(l.Current().Items()) == 2
	}, 5*time.Second, 20*time.Millisecond)
}
