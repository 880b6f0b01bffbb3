package app

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/readstack/catalog/internal/app/system"
	accountssvc "github.com/readstack/catalog/internal/services/accounts"
	catalogsvc "github.com/readstack/catalog/internal/services/catalog"
	loanssvc "github.com/readstack/catalog/internal/services/loans"
	"github.com/readstack/catalog/internal/storage"
	"github.com/readstack/catalog/internal/storage/memory"
	"github.com/readstack/catalog/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Authors   storage.AuthorStore
	Books     storage.BookStore
	Genres    storage.GenreStore
	Languages storage.LanguageStore
	Copies    storage.CopyStore
	Users     storage.UserStore
	Sessions  storage.SessionStore
}

// Options carries the optional application features.
type Options struct {
	// JWTSecret signs session tokens; empty falls back to an ephemeral key.
	JWTSecret string
	// SessionTTL bounds how long a login stays valid.
	SessionTTL time.Duration
	// OverdueSchedule is a cron expression for the overdue loan scan.
	// Empty disables the monitor.
	OverdueSchedule string
	// RedisAddr enables the index stats cache when set.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	StatsCacheTTL time.Duration
}

// Application ties the domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Catalog  *catalogsvc.Service
	Loans    *loanssvc.Service
	Accounts *accountssvc.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, opts Options, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Authors == nil {
		stores.Authors = mem
	}
	if stores.Books == nil {
		stores.Books = mem
	}
	if stores.Genres == nil {
		stores.Genres = mem
	}
	if stores.Languages == nil {
		stores.Languages = mem
	}
	if stores.Copies == nil {
		stores.Copies = mem
	}
	if stores.Users == nil {
		stores.Users = mem
	}
	if stores.Sessions == nil {
		stores.Sessions = mem
	}

	manager := system.NewManager()

	catalogService := catalogsvc.New(stores.Authors, stores.Books, stores.Genres, stores.Languages, stores.Copies, log)
	loansService := loanssvc.New(stores.Copies, stores.Books, stores.Users, log)
	accountsService := accountssvc.New(stores.Users, stores.Sessions, []byte(opts.JWTSecret), opts.SessionTTL, log)

	if opts.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		catalogService.AttachStatsCache(catalogsvc.NewRedisStatsCache(client, opts.StatsCacheTTL, log))
	} else {
		log.Warn("REDIS_ADDR not set; stats cache disabled")
	}

	for _, name := range []string{"catalog", "loans", "accounts"} {
		if err := manager.Register(system.NoopService{ServiceName: name}); err != nil {
			return nil, fmt.Errorf("register %s service: %w", name, err)
		}
	}

	janitor := accountssvc.NewJanitor(accountsService, time.Hour, log)
	if err := manager.Register(janitor); err != nil {
		return nil, fmt.Errorf("register %s: %w", janitor.Name(), err)
	}

	if opts.OverdueSchedule != "" {
		monitor, err := loanssvc.NewOverdueMonitor(loansService, opts.OverdueSchedule, log)
		if err != nil {
			return nil, fmt.Errorf("configure overdue monitor: %w", err)
		}
		if err := manager.Register(monitor); err != nil {
			return nil, fmt.Errorf("register %s: %w", monitor.Name(), err)
		}
	} else {
		log.Warn("overdue schedule not set; overdue monitor disabled")
	}

	return &Application{
		manager:  manager,
		log:      log,
		Catalog:  catalogService,
		Loans:    loansService,
		Accounts: accountsService,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
