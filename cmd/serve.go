package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/factcheck/internal/api"
	"github.com/sells-group/factcheck/internal/store"
)

const (
	sweepInterval   = time.Hour
	shutdownTimeout = 15 * time.Second
	drainTimeout    = 5 * time.Minute
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the fact-check HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initServices(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		if sw, ok := env.Store.(store.Sweeper); ok {
			go sweepExpired(ctx, sw, sweepInterval)
		}

		handler := api.NewRouter(env.Pipeline, api.Options{
			UploadDir:      cfg.Server.UploadDir,
			MaxUploadBytes: int64(cfg.Server.MaxUploadMB) << 20,
			CORSOrigins:    cfg.Server.CORSOrigins,
			Health:         env.Store,
			Circuits:       env.Breakers,
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		listenErr := make(chan error, 1)
		go func() {
			zap.L().Info("starting server", zap.Int("port", port))
			listenErr <- srv.ListenAndServe()
		}()

		select {
		case err := <-listenErr:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return eris.Wrap(err, "server listen")
			}
			return nil
		case <-ctx.Done():
		}

		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.L().Warn("server shutdown", zap.Error(err))
		}

		return drainAnalyses(env, drainTimeout)
	},
}

// drainAnalyses waits for submitted analyses to finish so none is left in
// the processing state when the store closes.
func drainAnalyses(env *serviceEnv, timeout time.Duration) error {
	zap.L().Info("waiting for running analyses")
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := env.Pipeline.Wait(ctx); err != nil {
		return eris.Wrap(err, "drain analyses")
	}
	return nil
}

// sweepExpired deletes expired records every interval until ctx is done.
func sweepExpired(ctx context.Context, sw store.Sweeper, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sw.DeleteExpired(ctx)
			if err != nil {
				zap.L().Warn("sweep expired analyses", zap.Error(err))
				continue
			}
			if n > 0 {
				zap.L().Info("swept expired analyses", zap.Int("deleted", n))
			}
		}
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
