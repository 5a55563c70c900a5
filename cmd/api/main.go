package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"documind/docs"
	"documind/internal/config"
	"documind/internal/database"
	"documind/internal/database/migration"
	handlers "documind/internal/http/handler"
	"documind/internal/http/middleware"
	"documind/internal/logging"
	"documind/internal/otel"
	"documind/internal/repository/postgres"
	"documind/internal/service"
	"documind/internal/storage"
)

const serviceName = "documind-api"

// @title       DocuMind Bridge API
// @version     1.0
// @description Remote source of truth for offline-first DocuMind clients.
// @BasePath    /
func main() {
	cfg := config.Load()
	loc := cfg.Log.Location()

	logger, closer := logging.New(logging.Options{
		Level:    cfg.Log.Level,
		File:     cfg.Log.File,
		Location: loc,
	})
	defer closer.Close()
	logger = logger.With().Str("service", serviceName).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, serviceName, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize tracing")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Error().Err(err).Msg("tracer shutdown failed")
		}
	}()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Str("db_host", cfg.Database.Host).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, logger.With().Str("db_host", cfg.Database.Host).Logger()); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	objStore, err := storage.NewMinIO(ctx, cfg.MinIO)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize object storage")
	}

	docRepo := postgres.NewDocumentPostgres(db)
	docSvc := service.NewDocumentService(objStore, docRepo)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to register metrics")
	}

	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		ErrorHandler:          handlers.ErrorHandler(),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		BodyLimit:             64 << 20,
		DisableStartupMessage: true,
	})

	app.Use(otelfiber.Middleware(otelfiber.WithServerName(serviceName)))
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(logger))
	app.Use(prom.Handler())

	handlers.RegisterRoutes(app, handlers.Deps{
		DB:       db,
		Objects:  objStore,
		Docs:     docSvc,
		Gatherer: reg,
		Spec:     docs.SwaggerInfo,
	})

	go func() {
		<-ctx.Done()
		logger.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	addr := ":" + cfg.Port
	logger.Info().Str("addr", addr).Msg("bridge API listening")
	if err := app.Listen(addr); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("failed to start server")
	}
}
