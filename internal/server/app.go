// Package server initializes and runs the maildepot server: it opens the
// metadata database, applies migrations, prepares the flat-file message
// area, and serves the internal HTTP API until shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/maildepot/maildepot/internal/filex"
	"github.com/maildepot/maildepot/internal/logging"
	"github.com/maildepot/maildepot/internal/server/blob"
	"github.com/maildepot/maildepot/internal/server/config"
	"github.com/maildepot/maildepot/internal/server/repositories/repomanager"
	"github.com/maildepot/maildepot/internal/server/services"
	transport "github.com/maildepot/maildepot/internal/server/transport/http"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	authService *services.AuthService
	mailService *services.MailService
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	root, err := filex.EnsureDir(cfg.StorageRoot)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage init error: %w", err)
	}
	blobs := blob.NewStore(blob.NewPathNamer(root))

	as := services.NewAuthService(db, repos, logger)
	ms := services.NewMailService(db, repos, blobs, cfg.ServerName, logger)

	return &App{config: cfg, logger: logger, db: db, authService: as, mailService: ms}, nil
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

	router := transport.NewRouter(app.authService, app.mailService, app.logger)
	s := transport.NewServer(app.config.EndpointAddrHTTP, router, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
