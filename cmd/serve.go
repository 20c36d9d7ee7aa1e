package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/htl-registration/appointment-intake/internal/handler"
	"github.com/htl-registration/appointment-intake/internal/importer"
	"github.com/htl-registration/appointment-intake/internal/logger"
	"github.com/htl-registration/appointment-intake/internal/messaging"
	"github.com/htl-registration/appointment-intake/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var seedPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the registration HTTP API",
	Long: `Run the registration HTTP API.

With --seed the given configuration file is imported before the server
starts listening, which is mostly useful together with STORE_DRIVER=memory.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&seedPath, "seed", "", "configuration file to import on startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Stores ───────────────────────────────────────────────────────────
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	// ── Events ───────────────────────────────────────────────────────────
	var publisher service.EventPublisher = messaging.NoopPublisher{}
	if cfg.RabbitURL != "" {
		p, err := messaging.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("rabbitmq unavailable, registration events disabled")
		} else {
			defer p.Close()
			publisher = p
			logger.Log.Info().Str("exchange", cfg.RabbitExchange).Msg("publishing registration events")
		}
	}

	// ── Services ─────────────────────────────────────────────────────────
	appointments := service.NewAppointmentService(st.configs, appointmentOptions(cfg)...)
	registrations := service.NewRegistrationService(appointments, st.ledger,
		service.WithPublisher(publisher),
		service.WithLedgerTimeout(cfg.StoreTimeout),
	)

	if seedPath != "" {
		doc, err := importer.ParseFile(seedPath)
		if err != nil {
			return err
		}
		if _, err := appointments.ReplaceConfiguration(ctx, doc); err != nil {
			return fmt.Errorf("seed configuration: %w", err)
		}
	}

	// ── Router ───────────────────────────────────────────────────────────
	deps := handler.RouterDeps{Handler: handler.NewRegistrationHandler(appointments, registrations)}
	if cfg.RLEnabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, rate limiter will fail open")
		}
		cancel()

		deps.Limiter = handler.NewRedisLimiter(rdb, cfg.RLLimit, cfg.RLWindow)
	}

	// ── HTTP server with graceful shutdown ───────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler.NewRouter(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info().Int("port", cfg.Port).Str("env", cfg.AppEnv).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Log.Info().Msg("server stopped")
	return nil
}
