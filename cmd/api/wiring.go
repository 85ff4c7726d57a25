package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docvault/docs"
	"docvault/internal/audit"
	"docvault/internal/auth"
	"docvault/internal/config"
	"docvault/internal/database"
	"docvault/internal/database/migration"
	handlers "docvault/internal/http/handler"
	"docvault/internal/http/middleware"
	"docvault/internal/logging"
	"docvault/internal/model"
	"docvault/internal/notify"
	"docvault/internal/repository"
	"docvault/internal/repository/memory"
	"docvault/internal/repository/postgres"
	"docvault/internal/service"
	"docvault/internal/storage"
)

const bodyLimit = 64 << 20

// seedUsers are loaded into the in-memory store so owners resolve.
var seedUsers = []model.User{
	{ID: 1, Email: "operador@docvault.local", Name: "Operador"},
	{ID: 2, Email: "gestor@docvault.local", Name: "Gestor"},
	{ID: 3, Email: "visualizador@docvault.local", Name: "Visualizador"},
}

// store is an opened metadata store.
type store struct {
	repo   repository.Repository
	pinger handlers.Pinger
	close  func() error
}

func openStore(ctx context.Context, cfg *config.AppConfig, logger logging.Logger) (*store, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		db, err := memory.New()
		if err != nil {
			return nil, err
		}
		for _, u := range seedUsers {
			if err := db.PutUser(u); err != nil {
				return nil, err
			}
		}
		return &store{repo: db, pinger: db, close: func() error { return nil }}, nil
	default:
		db, err := database.NewPostgres(cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := migration.EnsureMigrated(ctx, db, logger, cfg.Database.Host); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		return &store{repo: postgres.NewDocumentPostgres(db), pinger: db, close: db.Close}, nil
	}
}

func openBlobs(ctx context.Context, cfg *config.AppConfig) (storage.Blobs, error) {
	var (
		backend storage.Storage
		base    = cfg.Blob.PublicBaseURL
		err     error
	)
	switch cfg.Blob.Driver {
	case config.BlobDriverS3:
		backend, err = storage.NewS3(ctx, cfg.S3)
		if base == "" {
			base = storage.S3BaseURL(cfg.S3)
		}
	case config.BlobDriverMemory:
		backend = storage.NewMemory()
		if base == "" {
			base = "http://" + cfg.AppHost + "/blobs"
		}
	default:
		backend, err = storage.NewMinIO(cfg.MinIO)
		if base == "" {
			base = storage.MinIOBaseURL(cfg.MinIO)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("init %s storage: %w", cfg.Blob.Driver, err)
	}

	locator, err := storage.NewLocator(base)
	if err != nil {
		return nil, err
	}
	return storage.NewBlobStore(backend, locator), nil
}

func newVerifier(ctx context.Context, cfg config.AuthConfig) (auth.Verifier, error) {
	if cfg.JWKSURL != "" {
		return auth.NewJWKSVerifier(ctx, cfg.JWKSURL, cfg.Algorithms...)
	}
	return auth.NewHMACVerifier([]byte(cfg.JWTSecret), cfg.Algorithms...)
}

// server holds the assembled HTTP application and what must be released
// when it stops.
type server struct {
	app *fiber.App
	hub *notify.Hub
}

type serverDeps struct {
	cfg      *config.AppConfig
	logger   logging.Logger
	registry *prometheus.Registry
	store    *store
	blobs    storage.Blobs
	verifier auth.Verifier
	// runner overrides how notification delivery is scheduled.
	runner func(func())
}

func newServer(d serverDeps) (*server, error) {
	reg := d.registry
	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	auditMetrics, err := audit.NewMetrics(reg)
	if err != nil {
		return nil, err
	}
	notifyMetrics, err := notify.NewMetrics(reg)
	if err != nil {
		return nil, err
	}
	httpMetrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return nil, err
	}

	hub := notify.NewHub(d.cfg.Notification.BufferSize, notifyMetrics)
	opts := []service.Option{
		service.WithKeyPrefix(d.cfg.Blob.KeyPrefix),
		service.WithPresignExpiry(d.cfg.Blob.PresignExpiry),
	}
	if d.runner != nil {
		opts = append(opts, service.WithRunner(d.runner))
	}
	docSvc := service.NewDocumentService(
		d.store.repo,
		d.blobs,
		audit.NewRecorder(d.store.repo, auditMetrics),
		hub,
		opts...,
	)

	app := fiber.New(fiber.Config{
		AppName:      "docvault",
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    bodyLimit,
	})

	app.Use(recover.New())
	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		return c.Path() == "/metrics"
	})))
	app.Use(cors.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(d.logger))
	app.Use(httpMetrics.Handler())

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

	handlers.RegisterRoutes(app, handlers.Deps{
		DB:        d.store.pinger,
		Documents: docSvc,
		Verifier:  d.verifier,
		Stream:    hub,
		KeepAlive: d.cfg.Notification.KeepAlive(),
		Location:  d.cfg.Location(),
	})

	return &server{app: app, hub: hub}, nil
}

// shutdown ends live streams first so the listener can drain.
func (s *server) shutdown(timeout time.Duration) error {
	s.hub.Close()
	return s.app.ShutdownWithTimeout(timeout)
}
