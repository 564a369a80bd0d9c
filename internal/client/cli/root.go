package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/client/config"
	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/spf13/cobra"
)

// newAppFn is a test seam for NewApp.
var newAppFn = NewApp

type runFunc func(ctx context.Context, a *App, args []string) error

// withApp loads the configuration, opens the App for the duration of fn and
// turns fn's error into a user-facing one.
func withApp(fn runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(config.OptionsFromFlags(cmd.Flags()))
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		log := logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())

		app, err := newAppFn(ctx, cfg, log, WithIO(cmd.InOrStdin(), cmd.OutOrStdout()))
		if err != nil {
			return err
		}
		defer app.Close()

		if err := fn(ctx, app, args); err != nil {
			return errors.New(userMessage(err))
		}
		return nil
	}
}

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gophdrive",
		Short: "Command-line client for the gophdrive file storage service",
		Long: `gophdrive lists, uploads, downloads and deletes files kept on a
gophdrive storage service. The session is stored locally and restored on
the next run.

Without a subcommand an interactive shell is started.`,
		SilenceUsage: true,
		RunE: withApp(func(ctx context.Context, a *App, _ []string) error {
			return a.Shell(ctx)
		}),
	}

	config.BindFlags(cmd)

	cmd.AddCommand(
		newRegisterCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newWhoAmICmd(),
		newListCmd(),
		newUploadCmd(),
		newDownloadCmd(),
		newDeleteCmd(),
		newShellCmd(),
	)
	return cmd
}

func newRegisterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *App, _ []string) error {
			return a.Register(ctx)
		}),
	}
}

func newLoginCmd() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:     "login",
		Short:   "Log in and remember the session (log out first to switch users)",
		Args:    cobra.NoArgs,
		Example: `  gophdrive login --username ann`,
		RunE: withApp(func(ctx context.Context, a *App, _ []string) error {
			return a.Login(ctx, username)
		}),
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account name (prompted when empty)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *App, _ []string) error {
			return a.Logout(ctx)
		}),
	}
}

func newWhoAmICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *App, _ []string) error {
			return a.WhoAmI(ctx)
		}),
	}
}

func newListCmd() *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:     "ls [filter]",
		Aliases: []string{"list"},
		Short:   "List stored files",
		Args:    cobra.MaximumNArgs(1),
		Example: `  # Largest files first
  gophdrive ls --sort size --desc

  # Files whose name contains "report", as YAML
  gophdrive ls report -o yaml`,
		RunE: withApp(func(ctx context.Context, a *App, args []string) error {
			if len(args) == 1 {
				opts.Filter = args[0]
			}
			return a.List(ctx, opts)
		}),
	}
	cmd.Flags().StringVar(&opts.Sort, "sort", "name", "sort key: name, size or date")
	cmd.Flags().BoolVarP(&opts.Desc, "desc", "r", false, "sort in descending order")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", OutputTable, "output format: table, json or yaml")
	return cmd
}

func newUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "upload <path>...",
		Short:   "Upload local files",
		Args:    cobra.MinimumNArgs(1),
		Example: `  gophdrive upload --concurrency 3 ./photos/*.jpg`,
		RunE: withApp(func(ctx context.Context, a *App, args []string) error {
			return a.Upload(ctx, args)
		}),
	}
}

func newDownloadCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:     "download <id|stored-name>",
		Aliases: []string{"get"},
		Short:   "Download a file under its original name",
		Args:    cobra.ExactArgs(1),
		Example: `  gophdrive download 12 -d ~/Downloads`,
		RunE: withApp(func(ctx context.Context, a *App, args []string) error {
			return a.Download(ctx, args[0], dir)
		}),
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "target directory (default <data-dir>/downloads)")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <id|stored-name>",
		Aliases: []string{"delete"},
		Short:   "Delete a stored file",
		Args:    cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *App, args []string) error {
			return a.Delete(ctx, args[0], yes)
		}),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive shell",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *App, _ []string) error {
			return a.Shell(ctx)
		}),
	}
}

func (a *App) getStatus() string {
	s := ""
	if st := a.session.State(); st.IsAuthenticated && st.User != nil {
		s = st.User.Username + " "
	}
	if m := a.mode(); m != "" {
		s += string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Shell runs the interactive loop with the online status watcher and, when
// configured, the metrics endpoint.
func (a *App) Shell(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.println("Welcome to gophdrive (type 'help' for commands)")

	a.checkOnline(ctx)
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	if a.config.MetricsAddr != "" {
		stop := a.serveMetrics(ctx, a.config.MetricsAddr)
		defer stop()
	}

	if !a.isLoggedIn() {
		a.println("Not logged in. Use 'login' or 'register'.")
	}

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(lineSource{a.reader}))
	return nil
}

// lineSource returns at most one line per Read, so the REPL scanner never
// buffers input that a command prompt is about to read.
type lineSource struct {
	r *bufio.Reader
}

func (l lineSource) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		b, err := l.r.ReadByte()
		if err != nil {
			if n > 0 {
				return n, nil
			}
			return 0, err
		}
		p[n] = b
		n++
		if b == '\n' {
			break
		}
	}
	return n, nil
}

// serveMetrics exposes the metrics registry until the returned function is
// called.
func (a *App) serveMetrics(ctx context.Context, addr string) func() {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.log.Info(ctx, "serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error(ctx, "metrics server failed", "error", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}
