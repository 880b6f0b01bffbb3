// Package main runs the library catalog web server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/readstack/catalog/internal/app"
	"github.com/readstack/catalog/internal/bookinfo"
	"github.com/readstack/catalog/internal/config"
	"github.com/readstack/catalog/internal/httpserver"
	"github.com/readstack/catalog/internal/metrics"
	"github.com/readstack/catalog/internal/middleware"
	"github.com/readstack/catalog/internal/platform/database"
	"github.com/readstack/catalog/internal/storage/sqlstore"
	"github.com/readstack/catalog/internal/web"
	"github.com/readstack/catalog/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewDefault("catalogd").WithError(err).Fatal("load configuration")
	}

	log := logger.New(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		FilePrefix: cfg.Logging.FilePrefix,
	}).WithField("module", "catalogd")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stores app.Stores
	if cfg.Database.Driver != "" {
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			log.WithError(err).Fatal("open database")
		}
		defer db.Close()

		if err := database.Migrate(db, cfg.Database.Driver); err != nil {
			log.WithError(err).Fatal("apply migrations")
		}

		store := sqlstore.New(db, cfg.Database.Driver)
		stores = app.Stores{
			Authors:   store,
			Books:     store,
			Genres:    store,
			Languages: store,
			Copies:    store,
			Users:     store,
			Sessions:  store,
		}
		log.WithField("driver", cfg.Database.Driver).Info("database connected")
	} else {
		log.Warn("DATABASE_DRIVER not set; using in-memory store")
	}

	application, err := app.New(stores, app.Options{
		JWTSecret:       cfg.Auth.JWTSecret,
		SessionTTL:      cfg.Auth.SessionTTL,
		OverdueSchedule: cfg.Catalog.OverdueSchedule,
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		StatsCacheTTL:   cfg.Cache.StatsTTL,
	}, log)
	if err != nil {
		log.WithError(err).Fatal("build application")
	}

	opts := web.Options{AuditLogPath: cfg.Catalog.AuditLogPath}

	if cfg.Catalog.OpenLibraryURL != "" {
		info, err := bookinfo.New(nil, cfg.Catalog.OpenLibraryURL, log)
		if err != nil {
			log.WithError(err).Fatal("configure book lookup")
		}
		opts.BookInfo = info
	} else {
		log.Warn("OPENLIBRARY_URL not set; ISBN lookup disabled")
	}

	if cfg.Auth.LoginRatePerMinute > 0 {
		limiter := middleware.NewRateLimiter(cfg.Auth.LoginRatePerMinute, 0, log)
		stopCleanup := limiter.StartCleanup(10 * time.Minute)
		defer stopCleanup()
		opts.LoginLimiter = limiter
	}

	handler, err := web.NewHandler(application.Catalog, application.Loans, application.Accounts, opts, log)
	if err != nil {
		log.WithError(err).Fatal("build web handler")
	}

	chain := metrics.InstrumentHandler(middleware.Logging(log)(handler.Router()))
	server := httpserver.New(cfg.Server, chain, log)
	if err := application.Attach(server); err != nil {
		log.WithError(err).Fatal("attach http server")
	}

	if err := application.Start(ctx); err != nil {
		log.WithError(err).Fatal("start application")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := application.Stop(shutdownCtx); err != nil {
		log.WithError(err).Error("application stop")
	}

	log.Info("catalog server stopped")
}
