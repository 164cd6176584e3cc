// Package server wires configuration, storage, services and the HTTP API
// into a runnable application and owns its lifecycle.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/eventhub/internal/logging"
	"github.com/dmitrijs2005/eventhub/internal/server/auth"
	"github.com/dmitrijs2005/eventhub/internal/server/config"
	"github.com/dmitrijs2005/eventhub/internal/server/httpapi"
	"github.com/dmitrijs2005/eventhub/internal/server/notify"
	"github.com/dmitrijs2005/eventhub/internal/server/objectstore"
	"github.com/dmitrijs2005/eventhub/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/eventhub/internal/server/services"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	repos    repomanager.RepositoryManager
	services httpapi.Services
}

// OpenRepositories connects to the configured storage backend and applies
// migrations. The caller owns the returned manager.
func OpenRepositories(ctx context.Context, c *config.Config) (repomanager.RepositoryManager, error) {
	var (
		rm  repomanager.RepositoryManager
		err error
	)

	switch c.StorageBackend {
	case config.BackendPostgres:
		rm, err = repomanager.NewPostgresRepositoryManager(c.DatabaseDSN)
	case config.BackendMongo:
		rm, err = repomanager.NewMongoRepositoryManager(ctx, c.MongoURI, c.MongoDatabase)
	case config.BackendMemory:
		rm = repomanager.NewInMemoryRepositoryManager()
	default:
		err = fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close(ctx)
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	return rm, nil
}

func newNotifier(c *config.Config, logger logging.Logger) notify.Notifier {
	if c.SMTPHost == "" {
		return notify.NewLogNotifier(logger)
	}
	return notify.NewSMTPNotifier(c.SMTPHost, c.SMTPPort, c.SMTPUsername, c.SMTPPassword, c.SMTPFrom)
}

func newObjectStore(ctx context.Context, c *config.Config) (objectstore.Store, error) {
	if c.S3BaseEndpoint == "" {
		return nil, nil
	}
	return objectstore.NewS3Store(ctx, objectstore.S3Config{
		Region:       c.S3Region,
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		Bucket:       c.S3Bucket,
		BaseEndpoint: c.S3BaseEndpoint,
	})
}

// NewApp builds every dependency the server needs. Storage is connected and
// migrated before it returns.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	logger := logging.New(c.LogFormat, os.Stdout)

	rm, err := OpenRepositories(ctx, c)
	if err != nil {
		return nil, err
	}

	store, err := newObjectStore(ctx, c)
	if err != nil {
		_ = rm.Close(ctx)
		return nil, fmt.Errorf("object store init error: %w", err)
	}

	tokens := auth.NewTokenService([]byte(c.SecretKey), c.TokenValidityDuration)
	hasher := auth.NewPasswordHasher()
	guard := services.NewGuard(tokens, rm)

	svc := httpapi.Services{
		Users: services.NewUserService(rm, tokens, hasher, logger),
		Reset: services.NewPasswordResetService(rm, newNotifier(c, logger), tokens, hasher, services.ResetConfig{
			ClientURL:          c.ClientURL,
			TTL:                c.ResetTokenValidityDuration,
			RevealUnknownEmail: c.RevealUnknownResetEmail,
		}, logger),
		Guard:         guard,
		Events:        services.NewEventService(rm, guard, store, logger),
		Registrations: services.NewRegistrationService(rm, store, logger),
	}

	return &App{config: c, logger: logger, repos: rm, services: svc}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config.HTTPAddress, app.logger, app.services, app.config.ClientURL)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// runCleanup purges events past their registration deadline every interval
// until ctx is done.
func (app *App) runCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := app.services.Events.CleanupExpired(ctx)
			if err != nil {
				app.logger.Error(ctx, "expired events cleanup", "error", err)
			}
			if n > 0 {
				app.logger.Info(ctx, "expired events removed", "count", n)
			}
		}
	}
}

// Run serves until a termination signal arrives or the server fails, then
// releases storage.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "backend", app.config.StorageBackend)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.runCleanup(ctx, app.config.CleanupInterval)
	}()

	wg.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.repos.Close(closeCtx); err != nil {
		app.logger.Error(closeCtx, "closing storage", "error", err)
	}
	app.logger.Info(closeCtx, "App stopped")
}
