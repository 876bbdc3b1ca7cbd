// Package server wires the HydroSync store: it opens Postgres, applies
// migrations and serves the gRPC API until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sourcegraph/conc"

	"github.com/dmitrijs2005/hydrotrack/internal/logging"
	"github.com/dmitrijs2005/hydrotrack/internal/server/config"
	"github.com/dmitrijs2005/hydrotrack/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/hydrotrack/internal/server/services"

	gs "github.com/dmitrijs2005/hydrotrack/internal/server/grpc"
)

type runner interface {
	Run(ctx context.Context) error
}

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server runner
}

// openPostgres is a test seam.
var openPostgres = repomanager.OpenPostgres

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {

	db, err := openPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	rs := services.NewRecordService(db, m)

	s, err := gs.NewGRPCServer(c.EndpointAddrGRPC, logger, rs, c.SecretKey, c.ShutdownTimeout)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &App{config: c, logger: logger, db: db, server: s}, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case s := <-sigs:
			app.logger.Info(ctx, "Received signal", "signal", s.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// Run serves until ctx is cancelled, a signal arrives or the server fails.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	var runErr error
	var wg conc.WaitGroup
	wg.Go(func() {
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, "gRPC server failed", "error", err)
			runErr = err
			cancelFunc()
		}
	})
	wg.Wait()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(context.Background(), "closing database", "error", err)
		}
	}

	app.logger.Info(context.Background(), "App stopped")
	return runErr
}
