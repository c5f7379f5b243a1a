package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/gofiber/template/html/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/tcplisten"

	"github.com/pkthom/japanese-conjugation-search/docs"
	"github.com/pkthom/japanese-conjugation-search/internal/config"
	"github.com/pkthom/japanese-conjugation-search/internal/database"
	"github.com/pkthom/japanese-conjugation-search/internal/database/migration"
	"github.com/pkthom/japanese-conjugation-search/internal/dataset"
	"github.com/pkthom/japanese-conjugation-search/internal/dataset/csvfile"
	"github.com/pkthom/japanese-conjugation-search/internal/dataset/object"
	datasetpg "github.com/pkthom/japanese-conjugation-search/internal/dataset/postgres"
	handlers "github.com/pkthom/japanese-conjugation-search/internal/http/handler"
	"github.com/pkthom/japanese-conjugation-search/internal/http/middleware"
	"github.com/pkthom/japanese-conjugation-search/internal/otel"
	"github.com/pkthom/japanese-conjugation-search/internal/service"
	"github.com/pkthom/japanese-conjugation-search/internal/storage"
)

var errNoObjectStore = errors.New("minio backend selected but MINIO_ENDPOINT is not configured")

func errUnknownBackend(name string) error {
	return fmt.Errorf("unknown dataset backend %q (want csv, minio or postgres)", name)
}

// @title Japanese Conjugation Search API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := time.UTC

	ctx := context.Background()

	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	// Object storage is needed by the minio dataset backend and by the admin
	// dataset endpoints; skip it entirely when unconfigured.
	var store storage.Storage
	if cfg.MinIO.Endpoint != "" {
		store, err = storage.NewMinIO(cfg.MinIO)
		if err != nil {
			log.Fatalf("failed to initialize object storage: %v", err)
		}
	}

	sources, err := buildSources(ctx, cfg, store, loc)
	if err != nil {
		log.Fatalf("failed to configure dataset sources: %v", err)
	}

	catalog := service.NewCatalog(sources, service.Options{
		SectionRows: cfg.Dataset.SectionRows,
		TTL:         cfg.Dataset.CacheTTL(),
		Location:    loc,
	})

	// Preload the dataset cache; failure is not fatal, the catalog
	// initializes lazily on the first request.
	go func() {
		warmCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := catalog.Warm(warmCtx); err != nil {
			log.Printf("cache preload failed (will initialize on first request): %v", err)
		}
	}()

	engine := html.New("./templates", ".html")

	app := fiber.New(fiber.Config{
		Views:        engine,
		ErrorHandler: handlers.ErrorHandler(),
		Concurrency:  cfg.Server.Concurrency,
		IdleTimeout:  cfg.Server.KeepAlive(),
		Prefork:      cfg.Server.Prefork,
	})

	// Timing runs first so HEAD probes short-circuit before any other work.
	app.Use(middleware.Timing())
	app.Use(middleware.RequestID())
	if cfg.Server.AccessLog {
		app.Use(middleware.Logger())
	}
	app.Use(otelfiber.Middleware())

	reg := prometheus.NewRegistry()
	promMW, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to register prometheus metrics: %v", err)
	}
	app.Use(promMW.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	handlers.RegisterRoutes(app, catalog, store, cfg)

	addr := ":" + cfg.Server.Port

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Printf("shutting down (grace period %s)", cfg.Server.ShutdownTimeout())
		if err := app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout()); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}()

	if cfg.Server.Prefork {
		// Prefork manages its own sockets; the backlog setting only applies
		// to the single-process listener below.
		if err := app.Listen(addr); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
		return
	}

	ln, err := newListener(addr, cfg.Server.Backlog)
	if err != nil {
		log.Fatalf("failed to create listener: %v", err)
	}
	if err := app.Listener(ln); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

// newListener builds a TCP listener with the configured accept backlog,
// matching the production launch flags.
func newListener(addr string, backlog int) (net.Listener, error) {
	lnCfg := tcplisten.Config{
		DeferAccept: true,
		FastOpen:    true,
		Backlog:     backlog,
	}
	return lnCfg.NewListener("tcp4", addr)
}

// buildSources assembles the dataset sources for the configured backend.
// The verb dataset is required; the adjective dataset is optional everywhere
// and skipped with a warning when missing.
func buildSources(ctx context.Context, cfg *config.AppConfig, store storage.Storage, loc *time.Location) ([]dataset.Source, error) {
	switch cfg.Dataset.Backend {
	case "csv":
		if _, err := os.Stat(cfg.Dataset.VerbCSVPath); err != nil {
			return nil, err
		}
		if _, err := os.Stat(cfg.Dataset.AdjectiveCSVPath); err != nil {
			log.Printf("adjective dataset not found at %s, skipping", cfg.Dataset.AdjectiveCSVPath)
			return []dataset.Source{
				csvfile.New("verb", cfg.Dataset.VerbCSVPath),
			}, nil
		}
		return []dataset.Source{
			csvfile.New("verb", cfg.Dataset.VerbCSVPath),
			csvfile.New("adjective", cfg.Dataset.AdjectiveCSVPath),
		}, nil

	case "minio":
		if store == nil {
			return nil, errNoObjectStore
		}
		return []dataset.Source{
			object.New("verb", cfg.Dataset.VerbObjectKey, store),
			object.New("adjective", cfg.Dataset.AdjectiveObjectKey, store),
		}, nil

	case "postgres":
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
			return nil, err
		}
		return []dataset.Source{
			datasetpg.New("verb", db),
			datasetpg.New("adjective", db),
		}, nil

	default:
		return nil, errUnknownBackend(cfg.Dataset.Backend)
	}
}
