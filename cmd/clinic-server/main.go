package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinova/clinova/internal/config"
	"github.com/clinova/clinova/internal/domain/examination"
	"github.com/clinova/clinova/internal/domain/identity"
	"github.com/clinova/clinova/internal/domain/schedulechange"
	"github.com/clinova/clinova/internal/domain/scheduling"
	"github.com/clinova/clinova/internal/platform/auth"
	"github.com/clinova/clinova/internal/platform/chat"
	"github.com/clinova/clinova/internal/platform/db"
	"github.com/clinova/clinova/internal/platform/middleware"
	"github.com/clinova/clinova/internal/platform/notification"
	"github.com/clinova/clinova/internal/platform/redislock"
)

func main() {
	root := &cobra.Command{
		Use:   "clinic-server",
		Short: "Clinic operations backend",
	}
	root.AddCommand(serveCmd(), migrateCmd(), seedCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

func runServer(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	logger := newLogger(cfg)

	pool, err := db.NewPool(ctx, db.PoolConfig{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	var locker redislock.Locker
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		defer client.Close()
		locker = redislock.NewRedisLocker(client, 5*time.Second)
		logger.Info().Msg("booking lock: redis")
	} else {
		locker = redislock.NewLocalLocker()
		logger.Info().Msg("booking lock: process-local")
	}

	notifier := notification.NewManager(&notification.LogSender{Logger: logger}, notification.NewTemplateEngine(), 3)
	hub := chat.NewHub()

	patientRepo := identity.NewPatientRepoPG(pool)
	doctorRepo := identity.NewDoctorRepoPG(pool)
	examRepo := examination.NewRepoPG(pool)
	scheduleRepo := scheduling.NewScheduleRepoPG(pool)
	appointmentRepo := scheduling.NewAppointmentRepoPG(pool)
	changeRepo := schedulechange.NewRepoPG(pool)

	identitySvc := identity.NewService(patientRepo, doctorRepo)
	examSvc := examination.NewService(examRepo)

	checker := scheduling.NewConflictChecker(scheduleRepo, appointmentRepo, schedulechange.NewPendingSource(changeRepo))
	bookingSvc := scheduling.NewService(appointmentRepo, scheduleRepo, checker, identitySvc, identitySvc, examSvc, notifier, hub, locker, logger)
	applier := schedulechange.NewApplier(scheduleRepo, logger)
	changeSvc := schedulechange.NewService(changeRepo, scheduleRepo, checker, identitySvc, applier, notifier, logger)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
	}))
	rlCfg := middleware.DefaultRateLimitConfig()
	rlCfg.RequestsPerSecond = cfg.RateLimitRPS
	rlCfg.BurstSize = cfg.RateLimitBurst
	e.Use(middleware.RateLimit(rlCfg))

	e.GET("/health", db.HealthHandler(pool))

	api := e.Group("/api/v1")
	if cfg.IsDev() && cfg.AuthSecret == "" {
		logger.Warn().Msg("AUTH_SECRET unset; using dev auth bypass")
		api.Use(auth.DevAuthMiddleware())
	} else {
		api.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.AuthSecret),
		}))
	}

	identity.NewHandler(identitySvc).RegisterRoutes(api)
	examination.NewHandler(examSvc).RegisterRoutes(api)
	scheduling.NewHandler(bookingSvc).RegisterRoutes(api)
	schedulechange.NewHandler(changeSvc).RegisterRoutes(api)
	chat.NewHandler(hub, logger).RegisterRoutes(api)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func migrateCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:       "migrate [up|status]",
		Short:     "Apply or inspect SQL migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			pool, err := db.NewPool(cmd.Context(), db.PoolConfig{URL: cfg.DatabaseURL, MaxConns: 2, MinConns: 1})
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			switch args[0] {
			case "up":
				n, err := migrator.Up(cmd.Context())
				if err != nil {
					return err
				}
				logger.Info().Int("applied", n).Msg("migrations complete")
			case "status":
				statuses, err := migrator.Status(cmd.Context())
				if err != nil {
					return err
				}
				for _, s := range statuses {
					state := "pending"
					if s.Applied {
						state = "applied"
					}
					fmt.Printf("%4d  %-40s %s\n", s.Version, s.Name, state)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "migrations", "migrations directory")
	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Populate demo data",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			pool, err := db.NewPool(cmd.Context(), db.PoolConfig{URL: cfg.DatabaseURL, MaxConns: 5, MinConns: 1})
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer pool.Close()

			if err := runSeed(cmd.Context(), pool, logger); err != nil {
				return err
			}
			logger.Info().Msg("seed complete")
			return nil
		},
	}
}
