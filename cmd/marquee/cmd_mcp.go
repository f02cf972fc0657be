package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	marqueemcp "github.com/ajitpratap0/marquee/internal/mcp"
)

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP (Model Context Protocol) server over stdio",
		Long: `Starts an MCP JSON-RPC 2.0 server that reads from stdin and writes to stdout.
All diagnostic logs go to stderr so that stdout remains exclusively MCP protocol traffic.

Tools exposed:
  search_titles       find productions by title
  person_productions  productions crediting a person
  get_production      one production with its people
  timeline_stats      counts for the loaded timeline
  timeline_context    budgeted text summary of matching productions

If the source cannot be loaded at startup the server still starts with an
empty timeline; local source files are reloaded when they change.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			loader := newLoader(logger)
			if _, err := loader.Load(ctx); err != nil {
				logger.Error("mcp: initial load failed; serving empty timeline", "error", err)
			}
			if isLocal(cfg.Source.Location) {
				go func() {
					if watchErr := loader.Watch(ctx, cfg.Source.Location, 0); watchErr != nil {
						logger.Error("mcp: source watcher stopped", "error", watchErr)
					}
				}()
			}

			srv := marqueemcp.NewServer(loader, version, logger)

			// Use a standard log.Logger pointing at stderr for the mcp-go error logger.
			errLogger := log.New(os.Stderr, "mcp: ", log.LstdFlags)

			logger.Info("mcp: marquee MCP server starting", "transport", "stdio")

			return mcpserver.ServeStdio(
				srv.MCPServer(),
				mcpserver.WithErrorLogger(errLogger),
			)
		},
	}

	return cmd
}
