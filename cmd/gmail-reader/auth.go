package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/hal9000y/gmail-reader/internal/auth"
	"github.com/hal9000y/gmail-reader/internal/logging"
)

func newAuthCmd(opts *rootOptions) *cobra.Command {
	var (
		httpAddr  string
		oauthURL  string
		noBrowser bool
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize read-only Gmail access in the browser and store the token",
		Long: `auth starts a local HTTP server, opens the Google consent page and stores the
resulting token in GMAIL_TOKEN_FILE. Only the gmail.readonly scope is requested.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireClient(); err != nil {
				return err
			}

			logger, closeLog, err := opts.newLogger(false)
			if err != nil {
				return err
			}
			defer closeLog()

			ln, err := net.Listen("tcp", httpAddr)
			if err != nil {
				return fmt.Errorf("net.Listen failed: %w", err)
			}

			redirectURL := oauthURL
			if redirectURL == "" {
				redirectURL = fmt.Sprintf("http://%s/oauth", ln.Addr().String())
			}

			tok, err := auth.NewToken(auth.NewConfig(cfg.ClientID, cfg.ClientSecret, redirectURL), cfg.TokenFile, auth.WithLogger(logger))
			if err != nil {
				_ = ln.Close()
				return fmt.Errorf("auth.NewToken failed: %w", err)
			}

			handler := auth.NewHTTPHandler(tok, logger)
			mux := http.NewServeMux()
			mux.Handle("/oauth", handler)

			srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
			stopHTTP, errHTTPCh := serveHTTP(srv, ln, logger)
			defer stopHTTP()

			startURL := redirectURL + "?redirect=1"
			_, _ = fmt.Fprintf(opts.stderr, "Open this link to authorize gmail-reader:\n\n  %s\n\n", startURL)
			if !noBrowser {
				openBrowser(startURL, logger)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			select {
			case <-handler.Authorized():
			case err := <-errHTTPCh:
				return err
			case <-ctx.Done():
				return fmt.Errorf("authorization not completed: %w", ctx.Err())
			}

			if err := tok.Persist(); err != nil {
				return fmt.Errorf("tok.Persist failed: %w", err)
			}
			_, _ = fmt.Fprintf(opts.stdout, "Token saved to %s\n", cfg.TokenFile)

			return nil
		},
	}

	cmd.Flags().StringVar(&httpAddr, "http-addr", "localhost:0", "Listen address of the local OAuth callback server")
	cmd.Flags().StringVar(&oauthURL, "oauth-url", "", "Redirect URL registered for the OAuth client (default derived from --http-addr)")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Print the authorization link without opening a browser")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "How long to wait for the authorization")

	return cmd
}

func serveHTTP(srv *http.Server, ln net.Listener, logger *slog.Logger) (func(), <-chan error) {
	errHTTPCh := make(chan error, 1)
	go func() {
		defer close(errHTTPCh)

		logger.Info("starting http server", slog.String("addr", ln.Addr().String()))

		err := srv.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			err = fmt.Errorf("srv.Serve failed: %w", err)
			logger.Error("http server failed", logging.Err(err))
			errHTTPCh <- err
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("srv.Shutdown failed", logging.Err(err))
		}

		<-errHTTPCh
		logger.Info("http server stopped", slog.String("addr", ln.Addr().String()))
	}, errHTTPCh
}

func openBrowser(url string, logger *slog.Logger) {
	var err error
	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start()
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	default:
		err = fmt.Errorf("unsupported platform")
	}

	if err != nil {
		logger.Warn("could not open browser automatically, open the link manually", logging.Err(err))
	}
}
