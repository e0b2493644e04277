package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fleetops/fleetops/internal/app"
	"github.com/fleetops/fleetops/internal/auth"
	"github.com/fleetops/fleetops/internal/observability"
	"github.com/fleetops/fleetops/internal/platform/cache"
	"github.com/fleetops/fleetops/internal/platform/db"
	"github.com/fleetops/fleetops/internal/rbac"
	"github.com/fleetops/fleetops/internal/screens"
	"github.com/fleetops/fleetops/internal/view"
	"github.com/fleetops/fleetops/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping server startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	// The pool is only needed when the policy lives in postgres.
	var pool *pgxpool.Pool
	if cfg.PolicySource == app.PolicySourcePostgres {
		pool, err = db.New(ctx, cfg.PGDSN)
		if err != nil {
			// The chain falls back to the compiled-in matrix, so keep serving.
			logger.Warn("connect postgres, policy falls back to defaults", slog.Any("error", err))
		} else {
			defer pool.Close()
		}
	}

	metrics := observability.NewMetrics()

	var source rbac.Source = rbac.NewStaticSource(nil)
	if cfg.PolicySource != app.PolicySourcePostgres || pool != nil {
		source, err = app.NewPolicySource(cfg, app.PolicyDeps{Pool: pool, Redis: redisClient})
		if err != nil {
			logger.Error("policy source", slog.Any("error", err))
			os.Exit(1)
		}
	}
	store := rbac.NewStore(source,
		rbac.WithLogger(logger),
		rbac.WithLoadTimeout(cfg.PolicyLoadTimeout),
		rbac.WithRecorder(metrics),
	)
	// Guards hold navigations pending until this first load settles.
	go func() {
		if err := store.Load(ctx); err != nil {
			logger.Error("initial policy load failed, denying all access", slog.Any("error", err))
		}
	}()
	if err := rbac.ListenForReload(ctx, redisClient, store, logger); err != nil {
		logger.Warn("policy reload listener", slog.Any("error", err))
	}

	tokens, err := auth.NewTokenService([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTExpiry)
	if err != nil {
		logger.Error("init token service", slog.Any("error", err))
		os.Exit(1)
	}
	sessions := auth.NewSessionStore(redisClient, "fleetops_session", cfg.SessionTTL, cfg.IsProduction())

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	evaluator := rbac.NewEvaluator(store, nil)
	menu := rbac.NewMenuFilter(rbac.DefaultMenu(), evaluator)
	guard := rbac.NewGuard(evaluator, cfg.PolicyWaitTimeout, logger)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	inspector := asynq.NewInspector(redisOpts)
	defer func() { _ = inspector.Close() }()

	router := app.NewRouter(app.RouterParams{
		Logger:        logger,
		Config:        cfg,
		Templates:     templates,
		Authenticator: auth.NewAuthenticator(tokens, sessions, logger),
		AuthHandler:   auth.NewHandler(logger, sessions),
		Store:         store,
		Evaluator:     evaluator,
		Menu:          menu,
		RolesHandler:  rbac.NewHandler(logger, evaluator, menu),
		ScreenHandler: screens.NewHandler(logger, templates, evaluator, guard, menu, nil),
		JobHandler:    jobs.NewHandler(inspector, logger),
		Metrics:       metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("policy_source", source.Name()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
