// Package server initializes and runs the MediaVault server: storage
// backends, migrations, service wiring, the HTTP endpoint, and graceful
// shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrijs2005/mediavault/internal/logging"
	"github.com/dmitrijs2005/mediavault/internal/server/blob"
	"github.com/dmitrijs2005/mediavault/internal/server/config"
	"github.com/dmitrijs2005/mediavault/internal/server/httpserver"
	"github.com/dmitrijs2005/mediavault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/mediavault/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	srv    *httpserver.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, rm, err := initStorage(cfg)
	if err != nil {
		return nil, err
	}

	store, err := initBlobStore(cfg)
	if err != nil {
		return nil, err
	}

	srv := httpserver.New(cfg, logger,
		services.NewUserService(db, rm, cfg),
		services.NewIdentityService(db, rm),
		services.NewMediaService(db, rm, store),
		services.NewAccessService(db, rm),
	)

	return &App{config: cfg, logger: logger, db: db, srv: srv}, nil
}

// initStorage selects the repository backend. An empty DSN runs fully
// in-memory, useful for development and tests.
func initStorage(cfg *config.Config) (*sql.DB, repomanager.RepositoryManager, error) {
	if cfg.DatabaseDSN == "" {
		return nil, repomanager.NewMemoryRepositoryManager(), nil
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, nil, fmt.Errorf("migration error: %w", err)
	}
	return db, rm, nil
}

func initBlobStore(cfg *config.Config) (blob.Store, error) {
	if cfg.UseS3() {
		return blob.NewS3Store(context.Background(), blob.S3Config{
			RootUser:     cfg.S3RootUser,
			RootPassword: cfg.S3RootPassword,
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})
	}
	return blob.NewFileStore(cfg.BlobDir)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app", "addr", app.config.EndpointAddrHTTP)

	app.initSignalHandler(cancelFunc)

	app.srv.RunInBackground()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	app.srv.Shutdown(shutdownCtx)

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(shutdownCtx, "db close error", "err", err)
		}
	}
}
