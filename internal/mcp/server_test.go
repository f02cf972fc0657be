package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/marquee/internal/models"
	"github.com/ajitpratap0/marquee/internal/pipeline"
	"github.com/ajitpratap0/marquee/internal/timeline"
)

type staticSource struct{ m *timeline.Model }

func (s staticSource) Current() *timeline.Model { return s.m }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	opts := pipeline.DefaultOptions()
	opts.Identity = "title_opening"
	opts.Now = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

	m := pipeline.Build([]models.RawRow{
		{Line: 2, LastName: "Smith", FirstName: "Jane", Title: "Annie", Opening: "4/21/1977", Closing: "1/2/1983", Performances: "2377", Position: "Conductor", Notes: "Led the <pit> & chorus"},
		{Line: 3, LastName: "Doe", FirstName: "John", Title: "Annie", Revival: "Revival", Opening: "3/26/1997", Closing: "10/19/1997", Position: "Orchestrator"},
		{Line: 4, LastName: "Smith", FirstName: "Jane", Title: "Annie Get Your Gun", Revival: "Revival", Opening: "3/4/1999", Closing: "9/1/2001"},
	}, opts, logger)
	return NewServer(staticSource{m: m}, "test", logger)
}

// makeReq builds a CallToolRequest with the given arguments.
func makeReq(toolName string, args map[string]any) mcpgo.CallToolRequest {
	req := mcpgo.CallToolRequest{}
	req.Params.Name = toolName
	req.Params.Arguments = args
	return req
}

// textContent extracts the first TextContent string from a CallToolResult.
func textContent(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content, "expected at least one content item")
	tc, ok := result.Content[0].(mcpgo.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return tc.Text
}

func decode(t *testing.T, result *mcpgo.CallToolResult) map[string]any {
	t.Helper()
	require.False(t, result.IsError, "tool returned error: %s", textContent(t, result))
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &out))
	return out
}

func TestSearchTitles(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	result, err := srv.HandleSearchTitles(ctx, makeReq("search_titles", map[string]any{"query": "annie"}))
	require.NoError(t, err)
	out := decode(t, result)
	results, ok := out["results"].([]any)
	require.True(t, ok)
	require.Len(t, results, 3)
	first := results[0].(map[string]any)
	assert.Equal(t, "Annie (1977 original production)", first["display"])

	result, err = srv.HandleSearchTitles(ctx, makeReq("search_titles", map[string]any{"query": "annie", "limit": 1}))
	require.NoError(t, err)
	assert.Len(t, decode(t, result)["results"], 1)

	result, err = srv.HandleSearchTitles(ctx, makeReq("search_titles", map[string]any{"query": "  "}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestPersonProductions(t *testing.T) {
	srv := newTestServer(t)
	result, err := srv.HandlePersonProductions(context.Background(), makeReq("person_productions", map[string]any{"name": "JANE SMITH"}))
	require.NoError(t, err)
	prods := decode(t, result)["productions"].([]any)
	require.Len(t, prods, 2)
	assert.Equal(t, "Annie (1977 original production)", prods[0].(map[string]any)["display"])
	assert.Equal(t, "Annie Get Your Gun", prods[1].(map[string]any)["display"])
}

func TestGetProduction(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	id := srv.src.Current().Productions()[1].ID

	result, err := srv.HandleGetProduction(ctx, makeReq("get_production", map[string]any{"id": id}))
	require.NoError(t, err)
	out := decode(t, result)
	assert.Equal(t, "Annie", out["title"])
	assert.Equal(t, "revival", out["kind"])

	result, err = srv.HandleGetProduction(ctx, makeReq("get_production", map[string]any{"id": "missing"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, textContent(t, result), "missing")
}

func TestStats(t *testing.T) {
	srv := newTestServer(t)
	result, err := srv.HandleStats(context.Background(), makeReq("timeline_stats", nil))
	require.NoError(t, err)
	stats := decode(t, result)["stats"].(map[string]any)
	assert.InDelta(t, 3, stats["productions"], 0)
	assert.InDelta(t, 2, stats["people"], 0)
}

func TestContext(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	result, err := srv.HandleContext(ctx, makeReq("timeline_context", map[string]any{"query": "annie"}))
	require.NoError(t, err)
	out := decode(t, result)
	text := out["context"].(string)
	assert.Contains(t, text, "Annie (1977 original production)")
	assert.Contains(t, text, "Jane Smith (Conductor): Led the &lt;pit&gt; &amp; chorus")
	assert.NotContains(t, text, "<pit>")
	assert.InDelta(t, 3, out["production_count"], 0)

	result, err = srv.HandleContext(ctx, makeReq("timeline_context", map[string]any{"query": "annie", "budget": 30}))
	require.NoError(t, err)
	out = decode(t, result)
	assert.Less(t, out["production_count"].(float64), float64(3))

	result, err = srv.HandleContext(ctx, makeReq("timeline_context", map[string]any{"person": "John Doe"}))
	require.NoError(t, err)
	assert.InDelta(t, 1, decode(t, result)["production_count"], 0)

	result, err = srv.HandleContext(ctx, makeReq("timeline_context", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestNilSource(t *testing.T) {
	srv := NewServer(nil, "test", slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	result, err := srv.HandleStats(context.Background(), makeReq("timeline_stats", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
