package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"docgen/docs"
	"docgen/internal/config"
	"docgen/internal/database"
	"docgen/internal/database/migration"
	handlers "docgen/internal/http/handler"
	"docgen/internal/http/middleware"
	"docgen/internal/logger"
	"docgen/internal/otel"
	"docgen/internal/render"
	"docgen/internal/repository/postgres"
	"docgen/internal/service"
	"docgen/internal/storage"
)

// @title Document Generation API
// @version 1.0
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel, cfg.Location())
	if err != nil {
		log = zap.NewExample()
		log.Fatal("invalid log level", zap.String("level", cfg.LogLevel), zap.Error(err))
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		log.Fatal("failed to initialize tracing", zap.Error(err))
	}

	// PostgreSQL connection with pooling via database/sql
	db, err := database.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	// Archiving is optional; without MinIO settings documents are only recorded.
	var archive storage.Storage
	if cfg.MinIO.Enabled() {
		archive, err = storage.NewMinIO(ctx, cfg.MinIO)
		if err != nil {
			log.Fatal("failed to initialize object storage", zap.Error(err))
		}
	} else {
		log.Info("document archive disabled")
	}

	auth, err := middleware.NewAuthenticator(cfg.Auth)
	if err != nil {
		log.Fatal("failed to initialize authentication", zap.Error(err))
	}

	genMetrics, err := service.NewGenerationMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatal("failed to register generation metrics", zap.Error(err))
	}
	httpMetrics, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatal("failed to register http metrics", zap.Error(err))
	}

	clock := render.SystemClock{}
	docRepo := postgres.NewDocumentPostgres(db)
	docSvc := service.NewDocumentService(
		render.NewEngine(clock, cfg.Location()),
		docRepo,
		archive,
		service.WithClock(clock),
		service.WithRecordRequired(cfg.Document.RecordRequired),
		service.WithMetrics(genMetrics),
	)

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		DisableStartupMessage: true,
	})

	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		return c.Path() == "/metrics"
	})))
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(httpMetrics.Handler())

	handlers.RegisterRoutes(app, handlers.Deps{
		DB:       db,
		Service:  docSvc,
		Auth:     auth,
		Clock:    clock,
		Gatherer: prometheus.DefaultGatherer,
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = cfg.SwaggerHost(c.Get("Host"))
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("server shutdown failed", zap.Error(err))
		}
	}()

	addr := ":" + cfg.Port
	log.Info("server starting", zap.String("addr", addr), zap.Bool("archive", archive != nil))
	if err := app.Listen(addr); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		log.Error("tracing shutdown failed", zap.Error(err))
	}
}
