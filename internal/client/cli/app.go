package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/gophwalk/internal/client/cache"
	"github.com/dmitrijs2005/gophwalk/internal/client/client"
	"github.com/dmitrijs2005/gophwalk/internal/client/config"
	"github.com/dmitrijs2005/gophwalk/internal/client/identity"
	"github.com/dmitrijs2005/gophwalk/internal/client/models"
	"github.com/dmitrijs2005/gophwalk/internal/client/repositories/identities"
	"github.com/dmitrijs2005/gophwalk/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophwalk/internal/client/repositories/repomanager"
	"github.com/dmitrijs2005/gophwalk/internal/client/repositories/userdata"
	"github.com/dmitrijs2005/gophwalk/internal/client/services"
	"github.com/dmitrijs2005/gophwalk/internal/client/sessionstore"
	"github.com/dmitrijs2005/gophwalk/internal/logging"

	_ "modernc.org/sqlite"
)

type App struct {
	session services.SessionService
	reader  *bufio.Reader
	out     io.Writer
	logger  logging.Logger
	closers []io.Closer
}

// NewApp opens the local database, dials the identity service and builds the
// session service on top of them.
func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	db, err := client.InitDatabase(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	remote, err := client.NewGRPCClient(cfg.ServerEndpointAddr,
		client.WithTimeouts(cfg.DataCallTimeout, cfg.PayloadCallTimeout))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("identity client: %w", err)
	}

	a := &App{
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		logger:  logger,
		closers: []io.Closer{remote, db},
	}
	a.session = newSessionService(db, remote, logger, a.onSessionChanged)
	return a, nil
}

func newSessionService(db *sql.DB, remote client.IdentityClient, logger logging.Logger, listener func(models.SessionState)) services.SessionService {
	return services.NewSessionService(
		db,
		repomanager.NewSQLiteRepositoryManager(),
		remote,
		identity.NewStore(identities.NewSQLiteRepository(db), logger),
		sessionstore.New(metadata.NewSQLiteRepository(db), logger),
		cache.New(userdata.NewSQLiteRepository(db), logger),
		services.WithLogger(logger),
		services.WithListener(listener),
	)
}

func (a *App) onSessionChanged(state models.SessionState) {
	fmt.Fprintf(a.out, "* session is now %s\n", state)
}

// Run restores the previous session and serves the REPL until exit or EOF.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	fmt.Fprintln(a.out, "Welcome to gophwalk (type 'help' for commands)")
	if _, err := a.session.Restore(ctx); err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	return runREPL(ctx, a, a.reader, a.out)
}

func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}
