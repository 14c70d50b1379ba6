package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/pactkeeper/internal/config"
	httpapi "github.com/tbourn/pactkeeper/internal/http"
	"github.com/tbourn/pactkeeper/internal/observability"
	"github.com/tbourn/pactkeeper/internal/scheduler"
)

var shutdownGrace time.Duration

// serveCmd runs the HTTP API and, unless disabled, the settlement scheduler.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the settlement scheduler",
	Long: `Starts the HTTP API on $PORT. With SCHEDULER_ENABLED (the default) the
weekly rollover, auto-keep and briefing jobs run on their cron schedules in
$TIMEZONE. SIGINT or SIGTERM drains requests and running jobs, then exits.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().DurationVar(&shutdownGrace, "shutdown-grace", 10*time.Second, "Time allowed for in-flight requests and jobs on shutdown")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched, err = scheduler.New(cfg.Scheduler, cfg.Location(), a.settlement)
		if err != nil {
			return err
		}
		sched.Start(ctx)
		log.Info().Strs("jobs", sched.Names()).Str("tz", cfg.Timezone).Msg("scheduler started")
	}

	srv := newServer(cfg, a)
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	// Live streams never finish on their own; closing the hub ends them so
	// Shutdown does not wait out the grace period.
	a.hub.Close()
	if err := srv.Shutdown(sctx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	if sched != nil {
		if err := sched.Stop(sctx); err != nil {
			log.Warn().Err(err).Msg("scheduler stop")
		}
	}
	log.Info().Msg("bye")
	return nil
}

// newServer builds the gin engine and the http.Server around it.
func newServer(cfg config.Config, a *app) *http.Server {
	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, a.db, a.handlers(), cfg)

	return &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
}
