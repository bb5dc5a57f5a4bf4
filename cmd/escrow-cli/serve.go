package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"escrowswap/services/escrowindex"
)

func newServeCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the escrow index API and /metrics until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.ledger(); err != nil {
				return err
			}
			if listen == "" {
				listen = a.cfg.API.ListenAddress
			}
			ln, err := net.Listen("tcp", listen)
			if err != nil {
				return fmt.Errorf("api listener: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serveAPI(ctx, ln)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Override the configured API listen address")
	return cmd
}

// serveAPI serves the index API on ln until ctx is cancelled.
func (a *app) serveAPI(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", escrowindex.NewHandler(a.index, escrowindex.APIOptions{
		RateLimit: escrowindex.RateLimit{
			RequestsPerMinute: a.cfg.API.RequestsPerMinute,
			Burst:             a.cfg.API.Burst,
		},
		Logger: a.logger,
	}))
	srv := &http.Server{
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	a.logger.Info("escrow index API listening", slog.String("address", ln.Addr().String()))
	fmt.Fprintf(a.stdout, "Listening on %s\n", ln.Addr())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
