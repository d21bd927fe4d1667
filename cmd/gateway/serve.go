package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nolus-protocol/agg-gateway/internal/cache"
	"github.com/nolus-protocol/agg-gateway/internal/config"
)

const (
	essentialAttempts  = 5
	essentialBaseDelay = 250 * time.Millisecond
	essentialMaxDelay  = 5 * time.Second
)

func serveCmd() *cobra.Command {
	var dotenvPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "warm the cache and serve the HTTP/WebSocket read API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(dotenvPath)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&dotenvPath, "env-file", ".env", "path to a .env file to load before reading the environment")
	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logrus.WithField("component", "gateway")

	a := wireApp(cfg)

	warmupCtx, cancelWarmup := context.WithTimeout(ctx, 30*time.Second)
	err := a.fleet.RunEssentialWarmup(warmupCtx, cache.EssentialNames(), essentialAttempts, essentialBaseDelay, essentialMaxDelay)
	cancelWarmup()
	if err != nil {
		log.WithError(err).Warn("essential warm-up did not fully succeed; serving with cells cold where upstreams failed")
	}

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	go a.fleet.Run(runCtx)
	go a.events.Run(runCtx)
	go a.push.ReapStale(a.stop)
	evictStop := make(chan struct{})
	go a.limiter.Run(evictStop, time.Minute)
	go a.writeLimiter.Run(evictStop, time.Minute)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      a.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.ListenAddr).Info("listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	sigCtx, stopSig := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stopSig()

	select {
	case err := <-serveErr:
		return err
	case <-sigCtx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	// Shutdown order: stop accepting new HTTP/WS connections first, then
	// tear down live push sessions and rate-limit evictors, then signal
	// refresh tasks and the chain-event client to stop, in that order.
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http server shutdown did not complete cleanly")
	}
	close(a.stop)
	close(evictStop)
	cancelRun()

	return nil
}
