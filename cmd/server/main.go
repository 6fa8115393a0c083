package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/app"
	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/fees"
	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/masterdata/academicyears"
	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/masterdata/feecategories"
	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/masterdata/grades"
	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/observability"
	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/platform/cache"
	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/platform/db"
	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/shared"
	"github.com/hisham-mhammed-afifi/school-management-system-sub001/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable", slog.Any("error", err))
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	feesRepo := fees.NewRepository(pool)
	feesService := fees.NewService(feesRepo, auditLogger, metrics)
	feesHandler := fees.NewHandler(logger, feesService, idempotencyStore)

	yearsHandler := academicyears.NewHandler(logger, academicyears.NewService(academicyears.NewRepository(pool)))
	gradesHandler := grades.NewHandler(logger, grades.NewService(grades.NewRepository(pool)))
	categoriesHandler := feecategories.NewHandler(logger, feecategories.NewService(feecategories.NewRepository(pool)))

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		FeesHandler:          feesHandler,
		AcademicYearsHandler: yearsHandler,
		GradesHandler:        gradesHandler,
		FeeCategoriesHandler: categoriesHandler,
		JobsHandler:          jobsHandler,
		Metrics:              metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
