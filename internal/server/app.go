// Package server wires the reference identity service: PostgreSQL storage,
// the user service and the gRPC endpoint.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophwalk/internal/logging"
	"github.com/dmitrijs2005/gophwalk/internal/server/config"
	"github.com/dmitrijs2005/gophwalk/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophwalk/internal/server/services"

	gs "github.com/dmitrijs2005/gophwalk/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	userService *services.UserService
}

// NewApp connects to PostgreSQL and applies pending migrations.
func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	db, err := repomanager.OpenPostgres(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &App{
		config:      cfg,
		logger:      logger,
		db:          db,
		userService: services.NewUserService(db, rm, cfg),
	}, nil
}

// Run serves gRPC until ctx is cancelled, then closes the database.
func (app *App) Run(ctx context.Context) error {
	defer app.db.Close()

	app.logger.Info(ctx, "Starting app...")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg     sync.WaitGroup
		runErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.userService)
		if err := s.Run(ctx); err != nil {
			app.logger.Error(ctx, "grpc server stopped", "err", err)
			runErr = err
			cancel()
		}
	}()

	wg.Wait()
	return runErr
}
