package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/hal9000y/gmail-reader/internal/instrumentation"
	"github.com/hal9000y/gmail-reader/internal/logging"
	"github.com/hal9000y/gmail-reader/internal/tool"
)

const (
	transportStdio = "stdio"
	transportHTTP  = "http"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		transport   string
		httpAddr    string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only Gmail tools over MCP",
		Long: `serve exposes gmail_list, gmail_search, gmail_read, gmail_labels,
gmail_thread and gmail_export to MCP clients, over stdio (default) or
streamable HTTP. With stdio nothing but protocol messages is written to
stdout; use --log-file to keep logs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if transport != transportStdio && transport != transportHTTP {
				return fmt.Errorf("--transport must be %q or %q, got %q", transportStdio, transportHTTP, transport)
			}
			ctx := cmd.Context()

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			logger, closeLog, err := opts.newLogger(transport == transportStdio)
			if err != nil {
				return err
			}
			defer closeLog()

			provider, err := instrumentation.NewProvider(ctx, instrumentation.Config{
				Enabled:        metricsAddr != "",
				ServiceName:    "gmail-reader",
				ServiceVersion: version,
			})
			if err != nil {
				return fmt.Errorf("instrumentation.NewProvider failed: %w", err)
			}
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := provider.Shutdown(sctx); err != nil {
					logger.Warn("provider.Shutdown failed", logging.Err(err))
				}
			}()

			a, err := newApp(ctx, cfg, logger, provider.Metrics())
			if err != nil {
				return err
			}
			if _, err := a.token.OAuthToken(); err != nil {
				return err
			}

			server := tool.NewServer(a.reader, tool.Options{
				Version:     version,
				ExportLimit: cfg.MCPExportLimit,
				Logger:      logger,
			})

			errCh := make(chan error, 3)

			if metricsAddr != "" {
				stop, err := listenAndServe(metricsAddr, provider.Handler(), "/metrics", logger, errCh)
				if err != nil {
					return err
				}
				defer stop()
			}

			if transport == transportHTTP {
				mcpHTTP := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)
				stop, err := listenAndServe(httpAddr, mcpHTTP, "/mcp", logger, errCh)
				if err != nil {
					return err
				}
				defer stop()
			} else {
				go func() {
					logger.Info("starting stdio transport")
					if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
						errCh <- fmt.Errorf("server.Run failed: %w", err)
						return
					}
					errCh <- nil
				}()
			}

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				logger.Info("shutdown signal received")
				return nil
			}
		},
	}

	cmd.Flags().StringVar(&transport, "transport", transportStdio, "MCP transport: stdio or http")
	cmd.Flags().StringVar(&httpAddr, "http-addr", "localhost:8080", "Listen address for the http transport")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, empty to disable")

	return cmd
}

// listenAndServe mounts h at path on addr. Serve errors are sent to errCh.
func listenAndServe(addr string, h http.Handler, path string, logger *slog.Logger, errCh chan<- error) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("net.Listen failed: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle(path, h)

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	stop, srvErr := serveHTTP(srv, ln, logger)

	go func() {
		if err, ok := <-srvErr; ok && err != nil {
			errCh <- err
		}
	}()

	return stop, nil
}
