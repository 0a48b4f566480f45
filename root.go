package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tonimelisma/motolog/internal/config"
	"github.com/tonimelisma/motolog/internal/credential"
	"github.com/tonimelisma/motolog/internal/github"
	"github.com/tonimelisma/motolog/internal/localstore"
	"github.com/tonimelisma/motolog/internal/metrics"
	"github.com/tonimelisma/motolog/internal/store"
	"github.com/tonimelisma/motolog/internal/sync"
)

// version is set at build time via ldflags.
var version = "dev"

// skipStoreAnnotation marks commands that only need configuration and never
// open the device database.
const skipStoreAnnotation = "motolog.skip-store"

// Log rotation size for --log-file output.
const logFileMaxSizeMB = 10

// timeNow is the clock handed to every CLIContext. Tests pin it.
var timeNow = time.Now

// errNotSetUp is returned by data commands before "motolog setup" has run.
var errNotSetUp = errors.New("not set up: run 'motolog setup' (or 'motolog setup --demo')")

// CLIFlags holds the persistent flags.
type CLIFlags struct {
	ConfigPath string
	DataDir    string
	JSON       bool
	Verbose    bool
	Quiet      bool
}

// CLIContext carries everything a command needs. PersistentPreRunE builds it
// and stores it in the command context.
type CLIContext struct {
	Flags   CLIFlags
	Cfg     *config.Resolved
	Logger  *slog.Logger
	Metrics *metrics.Recorder
	DB      *localstore.DB
	Creds   *credential.Store
	Out     io.Writer

	nowFunc   func() time.Time
	logCloser io.Closer
}

type cliContextKey struct{}

// mustCLIContext returns the CLIContext stored by PersistentPreRunE.
func mustCLIContext(ctx context.Context) *CLIContext {
	cc, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok {
		panic("motolog: command context has no CLIContext")
	}

	return cc
}

// closeCLIContext releases the CLIContext of an executed command, if one was
// built. main calls it whether or not the command failed.
func closeCLIContext(cmd *cobra.Command) error {
	if cmd == nil || cmd.Context() == nil {
		return nil
	}

	cc, ok := cmd.Context().Value(cliContextKey{}).(*CLIContext)
	if !ok {
		return nil
	}

	return cc.Close()
}

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	flags := &CLIFlags{}

	cmd := &cobra.Command{
		Use:     "motolog",
		Short:   "Motorcycle riding log",
		Long:    "Track rider profile, injuries, riding sessions, and suspension presets, stored in a GitHub repository or on this device.",
		Version: version,
		// Errors are printed once by main.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := newCLIContext(cmd, *flags)
			if err != nil {
				return err
			}

			cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, cc))

			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.ConfigPath, "config", "", "config file path")
	pf.StringVar(&flags.DataDir, "data-dir", "", "directory of the device database")
	pf.BoolVar(&flags.JSON, "json", false, "output in JSON format")
	pf.BoolVarP(&flags.Verbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVarP(&flags.Quiet, "quiet", "q", false, "suppress informational output")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(newSetupCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newProfileCmd())
	cmd.AddCommand(newInjuryCmd())
	cmd.AddCommand(newSessionCmd())
	cmd.AddCommand(newHoursCmd())
	cmd.AddCommand(newPresetCmd())
	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newAdviseCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// newCLIContext resolves configuration and, unless the command is marked
// with skipStoreAnnotation, opens the device database and restores the
// saved credentials.
func newCLIContext(cmd *cobra.Command, flags CLIFlags) (*CLIContext, error) {
	if err := config.LoadDotEnv(config.DotEnvPaths()...); err != nil {
		return nil, err
	}

	cli := config.CLIOverrides{ConfigPath: flags.ConfigPath}
	if cmd.Flags().Changed("data-dir") {
		cli.DataDir = &flags.DataDir
	}

	if level, ok := flagLogLevel(flags); ok {
		cli.LogLevel = &level
	}

	resolved, err := config.Resolve(config.ReadEnvOverrides(), cli)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger, closer := buildLogger(&resolved.Logging, os.Stderr)

	cc := &CLIContext{
		Flags:     flags,
		Cfg:       resolved,
		Logger:    logger,
		Metrics:   metrics.New(),
		Out:       cmd.OutOrStdout(),
		nowFunc:   timeNow,
		logCloser: closer,
	}

	if cmd.Annotations[skipStoreAnnotation] == "true" {
		return cc, nil
	}

	db, err := localstore.Open(cmd.Context(), resolved.DBPath(), logger)
	if err != nil {
		cc.Close()
		return nil, err
	}

	cc.DB = db
	cc.Creds = credential.NewStore(db)

	if _, err := cc.Creds.LoadConfig(cmd.Context()); err != nil {
		// A damaged setting behaves like no setting; setup overwrites it.
		logger.Warn("ignoring saved connection settings", slog.String("error", err.Error()))
	}

	return cc, nil
}

// flagLogLevel maps --verbose and --quiet to a log level. CLI flags always
// win over the config file and environment.
func flagLogLevel(flags CLIFlags) (string, bool) {
	switch {
	case flags.Verbose:
		return "debug", true
	case flags.Quiet:
		return "error", true
	default:
		return "", false
	}
}

// buildLogger creates the process logger from the logging config. With a
// log_file, output goes to a rotating file kept for log_retention_days.
// Format "auto" picks text on a terminal and JSON otherwise.
func buildLogger(lc *config.LoggingConfig, stderr *os.File) (*slog.Logger, io.Closer) {
	var (
		w      io.Writer = stderr
		closer io.Closer
		tty    = isatty.IsTerminal(stderr.Fd()) || isatty.IsCygwinTerminal(stderr.Fd())
	)

	if lc.LogFile != "" {
		lj := &lumberjack.Logger{
			Filename: lc.LogFile,
			MaxSize:  logFileMaxSizeMB,
			MaxAge:   lc.LogRetentionDays,
		}
		w, closer, tty = lj, lj, false
	}

	opts := &slog.HandlerOptions{Level: parseLevel(lc.LogLevel)}

	if lc.LogFormat == "json" || (lc.LogFormat == "auto" && !tty) {
		return slog.New(slog.NewJSONHandler(w, opts)), closer
	}

	return slog.New(slog.NewTextHandler(w, opts)), closer
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Close writes the metrics textfile and releases the database and log file.
func (cc *CLIContext) Close() error {
	var errs []error

	if err := cc.Metrics.WriteTextfile(cc.Cfg.Metrics.Textfile); err != nil {
		errs = append(errs, err)
	}

	if cc.DB != nil {
		if err := cc.DB.Close(); err != nil {
			errs = append(errs, err)
		}

		cc.DB = nil
	}

	if cc.logCloser != nil {
		if err := cc.logCloser.Close(); err != nil {
			errs = append(errs, err)
		}

		cc.logCloser = nil
	}

	return errors.Join(errs...)
}

// httpClient returns the client shared by GitHub requests.
func (cc *CLIContext) httpClient() *http.Client {
	return &http.Client{Timeout: cc.Cfg.Network.TimeoutDuration()}
}

// contentStore returns a ContentStore for the saved credentials. Request
// metrics are recorded on cc.Metrics.
func (cc *CLIContext) contentStore() *github.ContentStore {
	creds := cc.Creds.Credentials()

	client := github.NewClient(cc.Cfg.GitHub.APIURL, cc.httpClient(), cc.Creds.TokenSource(),
		cc.Logger, userAgent(cc.Cfg.Network.UserAgent))
	client.SetMaxRetries(cc.Cfg.Network.MaxRetries)
	client.SetObserver(cc.Metrics)

	return github.NewContentStore(client, github.ContentStoreConfig{
		Owner:        creds.Account,
		Repo:         creds.Repository,
		Branch:       cc.Cfg.GitHub.Branch,
		CommitPrefix: cc.Cfg.GitHub.CommitPrefix,
		Logger:       cc.Logger,
	})
}

func userAgent(configured string) string {
	if configured != "" {
		return configured
	}

	return "motolog/" + version
}

// orchestrator returns the persistence entry point for the configured mode.
func (cc *CLIContext) orchestrator() (*sync.Orchestrator, error) {
	if cc.Creds == nil || !cc.Creds.IsConfigured() {
		return nil, errNotSetUp
	}

	ocfg := sync.OrchestratorConfig{
		Demo:    cc.Creds.IsDemoMode(),
		Local:   store.NewLocalStore(cc.DB, cc.Logger),
		Logger:  cc.Logger,
		Metrics: cc.Metrics,
	}

	if !ocfg.Demo {
		ocfg.Remote = cc.contentStore()
	}

	return sync.NewOrchestrator(ocfg)
}

// now returns the current time through the injectable clock.
func (cc *CLIContext) now() time.Time {
	return cc.nowFunc()
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
