package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"reportcard-analyzer/internal/bootstrap"
	"reportcard-analyzer/internal/shared/server"
	"reportcard-analyzer/internal/shared/telemetry"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *options) *cobra.Command {
	var port string
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Host the analysis view and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if port != "" {
				cfg.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := bootstrap.Build(ctx, cfg)
			if err != nil {
				return err
			}
			return serve(ctx, app.Router, server.Addr(cfg.Port))
		},
	}
	serveCmd.Flags().StringVar(&port, "port", "", "Listen port (default from PORT)")
	return serveCmd
}

// serve runs the HTTP server until ctx is cancelled, then drains it.
func serve(ctx context.Context, handler http.Handler, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		telemetry.Info("server.listening", map[string]any{"addr": addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		telemetry.Info("server.shutdown", map[string]any{"addr": addr})
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
