package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	invoiceapp "github.com/invoicing/backend/internal/application/invoice"
	personapp "github.com/invoicing/backend/internal/application/person"
	printingapp "github.com/invoicing/backend/internal/application/printing"
	"github.com/invoicing/backend/internal/infrastructure/cache"
	"github.com/invoicing/backend/internal/infrastructure/config"
	"github.com/invoicing/backend/internal/infrastructure/logger"
	"github.com/invoicing/backend/internal/infrastructure/persistence"
	"github.com/invoicing/backend/internal/infrastructure/printing"
	"github.com/invoicing/backend/internal/infrastructure/storage"
	"github.com/invoicing/backend/internal/infrastructure/telemetry"
	"github.com/invoicing/backend/internal/interfaces/http/handler"
	"github.com/invoicing/backend/internal/interfaces/http/middleware"
	"github.com/invoicing/backend/internal/interfaces/http/router"
	"go.uber.org/zap"

	_ "github.com/invoicing/backend/docs"
)

//	@title			Invoicing API
//	@version		1.0
//	@description	Persons and invoices with versioned edits, summaries, statistics and printable documents.

//	@host		localhost:8080
//	@BasePath	/api/v1

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := setupTelemetry(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	if tel.logs.IsEnabled() {
		// rebuild the logger so every entry is also exported over OTLP
		teed, err := logger.New(logCfg, logger.WithTee(tel.logs.Core(logger.ParseLevel(cfg.Log.Level))))
		if err != nil {
			log.Fatal("Failed to attach OTLP log bridge", zap.Error(err))
		}
		log = teed
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting invoicing backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := instrumentDatabase(ctx, db, cfg, tel, log); err != nil {
		log.Fatal("Failed to instrument database", zap.Error(err))
	}

	// Statistics cache
	cacheFactory := cache.NewStatisticsCacheFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	)
	statsCache, err := cacheFactory.CreateCache()
	if err != nil {
		log.Fatal("Failed to create statistics cache", zap.Error(err))
	}
	var redisCache *cache.RedisStatisticsCache
	if rc, ok := statsCache.(*cache.RedisStatisticsCache); ok {
		redisCache = rc
		defer func() {
			if err := rc.Close(); err != nil {
				log.Error("Error closing Redis", zap.Error(err))
			}
		}()
	}

	// Domain metrics
	var invoicingMetrics *telemetry.InvoicingMetrics
	if tel.meters.IsEnabled() {
		invoicingMetrics, err = telemetry.NewInvoicingMetrics(telemetry.InvoicingMetricsConfig{
			Meter:    tel.meters.Meter("invoicing"),
			Logger:   log,
			Provider: telemetry.NewGormRecordCountProvider(db.DB),
		})
		if err != nil {
			log.Fatal("Failed to create invoicing metrics", zap.Error(err))
		}
		invoicingMetrics.StartPeriodicCollection(ctx, cfg.Telemetry.MetricsExportInterval)
		defer invoicingMetrics.Stop()
	}

	// Repositories and services
	personRepo := persistence.NewGormPersonRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)

	personService := personapp.NewPersonService(personRepo, invoiceRepo)
	personService.SetStatisticsInvalidator(statsCache)
	personService.SetStatisticsPageSize(cfg.Statistics.DefaultPageSize)
	personService.SetMetrics(invoicingMetrics)

	invoiceService := invoiceapp.NewInvoiceService(invoiceRepo, personRepo)
	invoiceService.SetStatisticsCache(statsCache)
	invoiceService.SetLocation(cfg.Statistics.Location())
	invoiceService.SetMetrics(invoicingMetrics)

	documentService, closeDocuments, err := setupDocuments(ctx, cfg, invoiceService, log)
	if err != nil {
		log.Fatal("Failed to initialize document rendering", zap.Error(err))
	}
	defer closeDocuments()

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to register validators", zap.Error(err))
	}

	systemHandler := handler.NewSystemHandler(cfg.App.Name, version)
	systemHandler.AddCheck("database", db)
	if redisCache != nil {
		systemHandler.AddCheck("redis", redisCache)
	}

	var rateLimiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		rateLimiter.StartCleanup(ctx)
	}

	engine := router.NewEngine(router.EngineConfig{
		HTTP:          cfg.HTTP,
		Swagger:       cfg.Swagger,
		Telemetry:     cfg.Telemetry,
		Profiling:     cfg.Profiling,
		Logger:        log,
		MeterProvider: tel.meters,
		RateLimiter:   rateLimiter,
	}, router.Handlers{
		Person:   handler.NewPersonHandler(personService),
		Invoice:  handler.NewInvoiceHandler(invoiceService),
		Document: handler.NewDocumentHandler(documentService),
		System:   systemHandler,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	tel.shutdown(shutdownCtx)

	log.Info("Server exited gracefully")
}

// setupDocuments builds the document service. PDF rendering and archiving
// are attached only when enabled; the returned func releases the browser.
func setupDocuments(ctx context.Context, cfg *config.Config, invoices printingapp.InvoiceLoader, log *zap.Logger) (*printingapp.DocumentService, func(), error) {
	engine, err := printing.NewTemplateEngine(
		printing.WithLocale(cfg.Printing.Locale),
		printing.WithCurrency(cfg.Printing.Currency),
	)
	if err != nil {
		return nil, nil, err
	}
	svc := printingapp.NewDocumentService(invoices, engine, log)
	closeFn := func() {}

	if cfg.Printing.Enabled {
		renderer, err := printing.NewChromedpRenderer(&cfg.Printing, log)
		if err != nil {
			return nil, nil, err
		}
		svc.SetPDFRenderer(renderer)
		closeFn = func() {
			if err := renderer.Close(); err != nil {
				log.Error("Error closing PDF renderer", zap.Error(err))
			}
		}
		log.Info("PDF rendering enabled", zap.Bool("remote", cfg.Printing.RemoteURL != ""))
	}

	if cfg.Storage.Enabled {
		objects, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			return nil, nil, err
		}
		if err := objects.EnsureBucket(ctx); err != nil {
			return nil, nil, err
		}
		svc.SetStorage(objects)
		log.Info("Invoice archive enabled", zap.String("bucket", objects.Bucket()))
	}

	return svc, closeFn, nil
}
