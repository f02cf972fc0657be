// Package mcp implements the Model Context Protocol server for marquee.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ajitpratap0/marquee/internal/models"
	"github.com/ajitpratap0/marquee/internal/timeline"
	"github.com/ajitpratap0/marquee/pkg/tokenizer"
	"github.com/ajitpratap0/marquee/pkg/xmlutil"
)

const (
	// defaultContextBudget is the default token budget for timeline_context.
	defaultContextBudget = 2000

	// defaultSearchLimit is the default number of results for search_titles.
	defaultSearchLimit = 10

	// maxNotesTokens bounds the notes quoted per person in timeline_context.
	maxNotesTokens = 40
)

// ModelSource provides the current timeline.
type ModelSource interface {
	Current() *timeline.Model
}

// Server wraps an MCPServer with marquee dependencies.
type Server struct {
	mcp    *mcpserver.MCPServer
	src    ModelSource
	logger *slog.Logger
}

// NewServer creates a new MCP server. If src is nil, tool calls return an
// error response instead of panicking.
func NewServer(src ModelSource, version string, logger *slog.Logger) *Server {
	s := &Server{
		src:    src,
		logger: logger,
	}

	mcpSrv := mcpserver.NewMCPServer(
		"marquee",
		version,
		mcpserver.WithToolCapabilities(true),
	)

	mcpSrv.AddTool(buildSearchTitlesTool(), s.handleSearchTitles)
	mcpSrv.AddTool(buildPersonProductionsTool(), s.handlePersonProductions)
	mcpSrv.AddTool(buildGetProductionTool(), s.handleGetProduction)
	mcpSrv.AddTool(buildStatsTool(), s.handleStats)
	mcpSrv.AddTool(buildContextTool(), s.handleContext)

	s.mcp = mcpSrv
	return s
}

// MCPServer returns the underlying mcp-go MCPServer for use with ServeStdio.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcp
}

// HandleSearchTitles is the exported handler for the "search_titles" tool.
// It is exposed for direct testing without the mcp-go transport layer.
func (s *Server) HandleSearchTitles(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleSearchTitles(ctx, req)
}

// HandlePersonProductions is the exported handler for the "person_productions" tool.
func (s *Server) HandlePersonProductions(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handlePersonProductions(ctx, req)
}

// HandleGetProduction is the exported handler for the "get_production" tool.
func (s *Server) HandleGetProduction(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleGetProduction(ctx, req)
}

// HandleStats is the exported handler for the "timeline_stats" tool.
func (s *Server) HandleStats(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleStats(ctx, req)
}

// HandleContext is the exported handler for the "timeline_context" tool.
func (s *Server) HandleContext(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleContext(ctx, req)
}

// --- helpers ---

// toolResultJSON marshals v to JSON and returns it as a tool text result.
func toolResultJSON(v any) (*mcpgo.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("mcp: marshaling result: %w", err)
	}
	return mcpgo.NewToolResultText(string(b)), nil
}

// model returns the current model or nil when no source is wired.
func (s *Server) model() *timeline.Model {
	if s.src == nil {
		return nil
	}
	return s.src.Current()
}

// summarize renders a production as an XML-delimited block. All sheet text
// is escaped.
func summarize(m *timeline.Model, p models.Production) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<production id=\"%s\" lane=\"%d\">\n", xmlutil.Escape(p.ID), p.Lane)
	fmt.Fprintf(&b, "%s\n", xmlutil.Escape(m.DisplayTitle(p)))
	fmt.Fprintf(&b, "%s to %s", p.Opening.Format(), p.Closing.Format())
	if p.Performances != "" {
		fmt.Fprintf(&b, ", %s performances", xmlutil.Escape(p.Performances))
	}
	b.WriteString("\n")
	for _, pa := range p.People {
		fmt.Fprintf(&b, "- %s", xmlutil.Escape(pa.Name))
		if pa.Position != "" {
			fmt.Fprintf(&b, " (%s)", xmlutil.Escape(pa.Position))
		}
		if pa.Notes != "" {
			fmt.Fprintf(&b, ": %s", xmlutil.Escape(tokenizer.TruncateToTokenBudget(pa.Notes, maxNotesTokens)))
		}
		b.WriteString("\n")
	}
	b.WriteString("</production>")
	return b.String()
}

// --- tool definitions ---

func buildSearchTitlesTool() mcpgo.Tool {
	return mcpgo.NewTool("search_titles",
		mcpgo.WithDescription("Find productions by title. Exact matches rank first, then prefix, then substring; ties by opening date."),
		mcpgo.WithString("query",
			mcpgo.Required(),
			mcpgo.Description("Title or part of a title, case-insensitive"),
		),
		mcpgo.WithNumber("limit",
			mcpgo.Description("Maximum number of results (default: 10)"),
		),
	)
}

func buildPersonProductionsTool() mcpgo.Tool {
	return mcpgo.NewTool("person_productions",
		mcpgo.WithDescription("List the productions a person is credited on, in timeline order."),
		mcpgo.WithString("name",
			mcpgo.Required(),
			mcpgo.Description("Full name, first then last, case-insensitive"),
		),
	)
}

func buildGetProductionTool() mcpgo.Tool {
	return mcpgo.NewTool("get_production",
		mcpgo.WithDescription("Get one production with its dates, lane and people."),
		mcpgo.WithString("id",
			mcpgo.Required(),
			mcpgo.Description("Production id as returned by search_titles"),
		),
	)
}

func buildStatsTool() mcpgo.Tool {
	return mcpgo.NewTool("timeline_stats",
		mcpgo.WithDescription("Get timeline statistics: productions, people, lanes, maximum concurrency and dropped rows."),
	)
}

func buildContextTool() mcpgo.Tool {
	return mcpgo.NewTool("timeline_context",
		mcpgo.WithDescription("Summarize the productions matching a title query, or crediting a person, within a token budget."),
		mcpgo.WithString("query",
			mcpgo.Description("Title query"),
		),
		mcpgo.WithString("person",
			mcpgo.Description("Person name; used when query is empty"),
		),
		mcpgo.WithNumber("budget",
			mcpgo.Description("Token budget for returned context (default: 2000)"),
		),
	)
}

// --- tool handlers ---

func (s *Server) handleSearchTitles(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	m := s.model()
	if m == nil {
		return mcpgo.NewToolResultError("timeline is unavailable"), nil
	}

	query := req.GetString("query", "")
	if strings.TrimSpace(query) == "" {
		return mcpgo.NewToolResultError("query is required and must not be empty"), nil
	}
	limit := req.GetInt("limit", defaultSearchLimit)
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	results := m.SearchTitles(query)
	if len(results) > limit {
		results = results[:limit]
	}
	return toolResultJSON(map[string]any{"results": results})
}

func (s *Server) handlePersonProductions(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	m := s.model()
	if m == nil {
		return mcpgo.NewToolResultError("timeline is unavailable"), nil
	}

	name := req.GetString("name", "")
	if strings.TrimSpace(name) == "" {
		return mcpgo.NewToolResultError("name is required and must not be empty"), nil
	}

	prods := m.ProductionsForPerson(name)
	type entry struct {
		ID      string `json:"id"`
		Display string `json:"display"`
		Opening string `json:"opening"`
		Closing string `json:"closing"`
	}
	out := make([]entry, 0, len(prods))
	for _, p := range prods {
		out = append(out, entry{ID: p.ID, Display: m.DisplayTitle(p), Opening: p.Opening.Format(), Closing: p.Closing.Format()})
	}
	return toolResultJSON(map[string]any{"name": name, "productions": out})
}

func (s *Server) handleGetProduction(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	m := s.model()
	if m == nil {
		return mcpgo.NewToolResultError("timeline is unavailable"), nil
	}

	id := req.GetString("id", "")
	if strings.TrimSpace(id) == "" {
		return mcpgo.NewToolResultError("id is required and must not be empty"), nil
	}

	p, err := m.Production(id)
	if errors.Is(err, timeline.ErrNotFound) {
		return mcpgo.NewToolResultErrorf("no production with id %q", id), nil
	}
	if err != nil {
		return mcpgo.NewToolResultErrorf("get production failed: %s", err.Error()), nil
	}
	return toolResultJSON(p)
}

func (s *Server) handleStats(_ context.Context, _ mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	m := s.model()
	if m == nil {
		return mcpgo.NewToolResultError("timeline is unavailable"), nil
	}
	return toolResultJSON(map[string]any{
		"generation": m.Generation,
		"built_at":   m.BuiltAt,
		"stats":      m.Stats(),
	})
}

// handleContext formats matching productions within the token budget.
func (s *Server) handleContext(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	m := s.model()
	if m == nil {
		return mcpgo.NewToolResultError("timeline is unavailable"), nil
	}

	query := strings.TrimSpace(req.GetString("query", ""))
	person := strings.TrimSpace(req.GetString("person", ""))
	if query == "" && person == "" {
		return mcpgo.NewToolResultError("query or person is required"), nil
	}
	budget := req.GetInt("budget", defaultContextBudget)
	if budget <= 0 {
		budget = defaultContextBudget
	}

	var prods []models.Production
	if query != "" {
		for _, r := range m.SearchTitles(query) {
			p, err := m.Production(r.ID)
			if err != nil {
				continue
			}
			prods = append(prods, p)
		}
	} else {
		prods = m.ProductionsForPerson(person)
	}

	blocks := make([]string, 0, len(prods))
	for _, p := range prods {
		blocks = append(blocks, summarize(m, p))
	}
	output, count := tokenizer.FormatWithBudget(blocks, budget)

	s.logger.Debug("mcp: timeline_context", "query", query, "person", person, "matched", len(prods), "returned", count)
	return toolResultJSON(map[string]any{
		"context":          output,
		"production_count": count,
		"matched":          len(prods),
	})
}
