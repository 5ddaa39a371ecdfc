// Package cli wires the grandline terminal client: account commands, the
// interactive browser and one-shot lookups.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/isdelr/grandline-guide/internal/client/api"
	"github.com/isdelr/grandline-guide/internal/client/session"
	"github.com/isdelr/grandline-guide/internal/countries"
	"github.com/isdelr/grandline-guide/internal/logger"
)

const (
	defaultServer = "http://localhost:5000"
	sessionFile   = "session.db"
	logFile       = "grandline.log"
)

// Options are the persistent flags shared by every command.
type Options struct {
	Server       string
	Home         string
	CountriesURL string
	LogLevel     string
}

// App holds the clients used by the commands.
type App struct {
	out       io.Writer
	prompter  Prompter
	api       *api.Client
	directory *countries.Client
	sessions  *session.Manager

	store   *session.BoltStore
	logFile *os.File
}

// NewRootCommand builds the grandline command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	opts := &Options{}

	root := &cobra.Command{
		Use:           "grandline",
		Short:         "Browse countries and read AI travel guides",
		Long:          "grandline is the terminal client of Grand Line Guide. Log in, browse countries and open a guide for any of them.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.open(opts)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runBrowse(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.Server, "server", getEnv("GRANDLINE_SERVER", defaultServer), "backend URL")
	flags.StringVar(&opts.Home, "home", getEnv("GRANDLINE_HOME", defaultHome()), "directory for the session and log files")
	flags.StringVar(&opts.CountriesURL, "countries-url", getEnv("COUNTRIES_BASE_URL", countries.DefaultBaseURL), "country directory base URL")
	flags.StringVar(&opts.LogLevel, "log-level", getEnv("GRANDLINE_LOG_LEVEL", "info"), "log level (debug, info, warn, error)")

	root.AddCommand(
		newSignupCommand(app),
		newLoginCommand(app),
		newLogoutCommand(app),
		newWhoamiCommand(app),
		newBrowseCommand(app),
		newCountriesCommand(app),
		newGuideCommand(app),
		newEventsCommand(app),
	)
	return root
}

// NewApp creates an App that prints to out and asks prompter for input.
func NewApp(out io.Writer, prompter Prompter) *App {
	return &App{out: out, prompter: prompter}
}

// Execute runs the command tree with args and releases the session store
// afterwards, whether or not the command succeeded.
func Execute(ctx context.Context, out io.Writer, prompter Prompter, args []string) error {
	app := NewApp(out, prompter)
	root := NewRootCommand(app)
	root.SetArgs(args)
	root.SetOut(out)

	err := root.ExecuteContext(ctx)
	if closeErr := app.close(); err == nil {
		err = closeErr
	}
	return err
}

func (a *App) open(opts *Options) error {
	if err := os.MkdirAll(opts.Home, 0700); err != nil {
		return fmt.Errorf("failed to create %s: %w", opts.Home, err)
	}

	f, err := os.OpenFile(filepath.Join(opts.Home, logFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	a.logFile = f
	logger.Init(f, opts.LogLevel)

	store, err := session.OpenBoltStore(filepath.Join(opts.Home, sessionFile))
	if err != nil {
		return err
	}
	a.store = store

	a.api = api.NewClient(opts.Server)
	a.directory = countries.NewClient(opts.CountriesURL)
	a.sessions = session.NewManager(store, a.api)
	return nil
}

func (a *App) close() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
		a.store = nil
	}
	if a.logFile != nil {
		errs = append(errs, a.logFile.Close())
		a.logFile = nil
	}
	return errors.Join(errs...)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func defaultHome() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return ".grandline"
	}
	return filepath.Join(dir, ".grandline")
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
