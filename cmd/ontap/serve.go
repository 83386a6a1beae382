package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/ontap-client/internal/api"
	"github.com/Sternrassler/ontap-client/internal/config"
	"github.com/spf13/cobra"
)

func newServeCmd(c *cli) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the beer queries over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if port != "" {
				c.cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return c.run(ctx, func(a *app) error {
				srv, err := newHTTPServer(a)
				if err != nil {
					return err
				}
				return serve(ctx, a, srv, c.cfg.Server.ShutdownTimeout)
			})
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	return cmd
}

// newHTTPServer wires the API router over the app's service.
func newHTTPServer(a *app) (*http.Server, error) {
	svc, err := a.withService()
	if err != nil {
		return nil, err
	}

	router := api.NewRouter(api.NewHandlers(svc), routerOptions(a.cfg, a.checks))

	return &http.Server{
		Addr:              ":" + a.cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}, nil
}

func routerOptions(cfg config.Config, checks map[string]api.PingFunc) api.RouterOptions {
	return api.RouterOptions{
		RateLimit:      cfg.Server.RateLimit,
		RequestTimeout: cfg.Server.RequestTimeout,
		Checks:         checks,
	}
}

// serve runs srv until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, a *app, srv *http.Server, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", srv.Addr).Msg("Starting ontap API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listening: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		a.logger.Info().Msg("Shutdown signal received")
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	a.logger.Info().Msg("Server shut down cleanly")
	return nil
}
