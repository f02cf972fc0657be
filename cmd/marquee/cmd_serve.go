package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/marquee/internal/api"
)

func serveCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP/JSON API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			loader := newLoader(logger)
			if _, err := loader.Load(ctx); err != nil {
				// Serve the empty timeline; POST /v1/reload or a file change retries.
				logger.Error("initial load failed; serving empty timeline", "source", loader.Location(), "error", err)
			}

			if watch && isLocal(cfg.Source.Location) {
				go func() {
					if watchErr := loader.Watch(ctx, cfg.Source.Location, 0); watchErr != nil {
						logger.Error("source watcher stopped", "error", watchErr)
					}
				}()
			}

			srv := api.NewServer(loader, api.Options{
				AuthToken:      cfg.API.AuthToken,
				AllowedOrigins: cfg.API.AllowedOrigins,
				View:           cfg.View,
			}, logger)

			if cfg.API.AuthToken == "" {
				logger.Warn("HTTP API: auth is DISABLED; set MARQUEE_API_AUTH_TOKEN or cfg.api.auth_token for production use")
			}

			httpSrv := &http.Server{
				Addr:              cfg.API.ListenAddr,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      60 * time.Second,
				IdleTimeout:       120 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("HTTP API server starting", "addr", cfg.API.ListenAddr)
				if listenErr := httpSrv.ListenAndServe(); listenErr != nil && !errors.Is(listenErr, http.ErrServerClosed) {
					errCh <- fmt.Errorf("serve: HTTP server: %w", listenErr)
				}
				close(errCh)
			}()

			select {
			case <-ctx.Done():
				logger.Info("shutting down")
			case startErr := <-errCh:
				if startErr != nil {
					return startErr
				}
				return nil
			}

			const shutdownTimeout = 10 * time.Second
			if shutdownErr := api.Shutdown(httpSrv, shutdownTimeout); shutdownErr != nil {
				return fmt.Errorf("serve: graceful shutdown: %w", shutdownErr)
			}

			// Drain the errCh in case ListenAndServe returned after Shutdown.
			if startErr := <-errCh; startErr != nil {
				return startErr
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", true, "reload when a local source file changes")
	return cmd
}

func isLocal(location string) bool {
	return !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://")
}
