package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/client/catalog"
	"github.com/dmitrijs2005/gophdrive/internal/client/client"
	"github.com/dmitrijs2005/gophdrive/internal/client/config"
	"github.com/dmitrijs2005/gophdrive/internal/client/credentials"
	"github.com/dmitrijs2005/gophdrive/internal/client/models"
	"github.com/dmitrijs2005/gophdrive/internal/client/repositories"
	"github.com/dmitrijs2005/gophdrive/internal/client/session"
	"github.com/dmitrijs2005/gophdrive/internal/client/upload"
	"github.com/dmitrijs2005/gophdrive/internal/filex"
	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/dmitrijs2005/gophdrive/internal/metrics"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

var (
	// ErrNotLoggedIn is returned by commands that need a session.
	ErrNotLoggedIn = errors.New("not logged in (use 'login')")
	// ErrAlreadyLoggedIn is returned by login while a session is active.
	ErrAlreadyLoggedIn = errors.New("already logged in (use 'logout' first)")
)

// sessionManager is the part of *session.Manager the commands use.
type sessionManager interface {
	Login(ctx context.Context, creds models.Credentials) (models.User, error)
	Logout(ctx context.Context)
	State() session.State
	TokenExpiry() (time.Time, bool)
}

// gateway is the part of the storage API used directly by the commands.
type gateway interface {
	Register(ctx context.Context, reg models.Registration) (string, error)
	Ping(ctx context.Context) error
}

type fileCatalog interface {
	Refresh(ctx context.Context) error
	Records() []models.FileRecord
	Find(ctx context.Context, ref string) (models.FileRecord, error)
	RequestDelete(ctx context.Context, ref string) (*catalog.DeleteRequest, error)
	Download(ctx context.Context, rec models.FileRecord, dir string) (string, string, error)
}

type uploadQueue interface {
	Add(t upload.Task) bool
	Remove(id string) bool
	Tasks() []upload.Task
	Run(ctx context.Context) (upload.Result, error)
}

type App struct {
	config   *config.Config
	db       *sql.DB
	session  sessionManager
	api      gateway
	catalog  fileCatalog
	uploads  uploadQueue
	metrics  *metrics.Metrics
	log      logging.Logger
	reader   *bufio.Reader
	out      io.Writer
	progress *progressPrinter

	modeMu sync.RWMutex
	Mode   Mode
}

type AppOption func(*App)

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) AppOption {
	return func(a *App) {
		a.reader = bufio.NewReader(in)
		a.out = out
	}
}

// NewApp opens the local database and wires the components. The caller
// must Close the App.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger, opts ...AppOption) (*App, error) {
	if _, err := filex.EnsureDir(c.DataDir); err != nil {
		return nil, err
	}

	db, err := repositories.InitDatabase(ctx, c.DBPath())
	if err != nil {
		log.Error(ctx, "error initializing database", "path", c.DBPath(), "error", err)
		return nil, err
	}

	a := &App{
		config:  c,
		db:      db,
		metrics: metrics.New(),
		log:     log,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.progress = newProgressPrinter(a.out)

	var sm *session.Manager
	api := client.NewHTTPClient(c.ServerURL, c.RequestTimeout, func(ctx context.Context) (string, error) {
		return sm.Token(ctx)
	}, log)
	sm = session.NewManager(credentials.NewStore(db), api, log)

	cat := catalog.New(api, log, catalog.WithTTL(c.CatalogTTL), catalog.WithMetrics(a.metrics))
	a.session = sm
	a.api = api
	a.catalog = cat
	a.uploads = upload.NewOrchestrator(api, cat, log,
		upload.WithConcurrency(c.UploadConcurrency),
		upload.WithMetrics(a.metrics),
		upload.WithObserver(a.progress.observe),
	)

	sm.Initialize(ctx)
	return a, nil
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) isLoggedIn() bool {
	return a.session.State().IsAuthenticated
}

func (a *App) requireLogin() error {
	if !a.isLoggedIn() {
		return ErrNotLoggedIn
	}
	return nil
}

func (a *App) mode() Mode {
	a.modeMu.RLock()
	defer a.modeMu.RUnlock()
	return a.Mode
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	a.modeMu.Lock()
	changed := a.Mode != mode
	a.Mode = mode
	a.modeMu.Unlock()

	if changed {
		a.log.Info(ctx, "connectivity changed", "mode", string(mode))
	}
}

// checkOnline probes the service once and updates Mode.
func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	defer cancel()

	if err := a.api.Ping(ctx); err != nil {
		a.setMode(ctx, ModeOffline)
		return
	}
	a.setMode(ctx, ModeOnline)
}

// StartOnlineStatusWatcher probes the service every interval until ctx is
// done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// userMessage is the text shown for a failed command.
func userMessage(err error) string {
	msg := client.Describe(err, err.Error())
	if errors.Is(err, client.ErrUnavailable) && !strings.Contains(msg, "unavailable") {
		return "server unavailable: " + msg
	}
	return msg
}
