package cli

import (
	stdcontext "context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Paintersrp/kill-code/internal/config"
	"github.com/Paintersrp/kill-code/internal/forks"
	"github.com/Paintersrp/kill-code/internal/killer"
	"github.com/Paintersrp/kill-code/internal/metrics"
	"github.com/Paintersrp/kill-code/internal/proctable"
	"github.com/Paintersrp/kill-code/internal/tui"
)

const commandName = "kill-code"

// UsageError reports conflicting or malformed flags. Nothing has been
// touched when it is returned.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string {
	return e.Err.Error()
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

func usageErrorf(format string, args ...any) error {
	return &UsageError{Err: fmt.Errorf(format, args...)}
}

// errKillFailed marks a batch in which at least one target could not be
// terminated. The individual failures have already been reported.
var errKillFailed = errors.New("one or more forks could not be terminated")

type forkKiller interface {
	Kill(ctx stdcontext.Context, target killer.Target) killer.Result
	KillAll(ctx stdcontext.Context, targets []killer.Target) []killer.Result
}

type dependencies struct {
	snapshot   func(ctx stdcontext.Context) ([]*forks.Process, error)
	newKiller  func(opts killer.Options, logger logrus.FieldLogger) forkKiller
	runMenu    func(ctx stdcontext.Context, items []forks.Fork, opts ...tui.Option) (tui.Choice, error)
	isTerminal func() bool
	selfPID    int
	selfArgs   []string
	searchPath string
}

func defaultDependencies() dependencies {
	return dependencies{
		snapshot: proctable.Snapshot,
		newKiller: func(opts killer.Options, logger logrus.FieldLogger) forkKiller {
			return killer.New(opts, killer.WithLogger(logger))
		},
		runMenu: func(ctx stdcontext.Context, items []forks.Fork, opts ...tui.Option) (tui.Choice, error) {
			return tui.New(items, opts...).Run(ctx)
		},
		isTerminal: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
		},
		selfPID:    os.Getpid(),
		selfArgs:   os.Args,
		searchPath: os.Getenv("PATH"),
	}
}

type options struct {
	viewAll         bool
	noTTY           bool
	kill            pidList
	all             bool
	debug           bool
	json            bool
	redact          bool
	configPath      string
	metricsTextfile string
}

func NewRootCmd() *cobra.Command {
	root, _ := newRootCommand(defaultDependencies())
	return root
}

func newRootCommand(deps dependencies) (*cobra.Command, *options) {
	opts := &options{}

	root := &cobra.Command{
		Use:   commandName + " [fork-id...]",
		Short: "Find and terminate orphaned VS Code server forks",
		Long: "Lists the extension host and worker processes a remote VS Code server started\n" +
			"through bootstrap-fork, and terminates the selected subtree with SIGINT,\n" +
			"escalating to SIGKILL when it does not exit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, deps, opts, args)
		},
	}

	flags := root.Flags()
	flags.BoolVarP(&opts.viewAll, "view-all", "v", false, "View all forks, even empty ones")
	flags.BoolVarP(&opts.noTTY, "no-tty", "T", false, "Disable TTY; list forks or kill from flags only")
	flags.VarP(&opts.kill, "kill", "k", "Fork IDs to kill; ids may also follow as arguments")
	flags.Lookup("kill").NoOptDefVal = bareKill
	flags.BoolVarP(&opts.all, "all", "a", false, "Select all forks (use -v -a to include all empty forks)")
	flags.BoolVarP(&opts.debug, "debug", "d", false, "Output debug info regarding killing process tree")
	flags.BoolVar(&opts.json, "json", false, "Print the --no-tty listing as JSON lines")
	flags.BoolVar(&opts.redact, "redact", false, "Mask secrets in displayed command lines")
	flags.StringVar(&opts.configPath, "config", "", "Path to config file (default $XDG_CONFIG_HOME/kill-code/config.yaml, env "+config.EnvConfigPath+")")
	flags.StringVar(&opts.metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file after the run")

	root.SilenceUsage = true
	root.SilenceErrors = true

	return root, opts
}

// Execute runs the CLI entrypoint.
func Execute() {
	ctx, stop := signal.NotifyContext(stdcontext.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	root.SetContext(ctx)

	err := root.ExecuteContext(ctx)
	code := exitCode(err)
	if err != nil && !errors.Is(err, errKillFailed) {
		fmt.Fprintln(os.Stderr, err)
	}
	stop()
	os.Exit(code)
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

func newLogger(out io.Writer, debug bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logger.SetLevel(logrus.WarnLevel)
	if debug {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

func run(cmd *cobra.Command, deps dependencies, opts *options, args []string) error {
	mode, err := opts.mode(args)
	if err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr(), opts.debug)

	cfg, err := config.Resolve(opts.configPath)
	if err != nil {
		return err
	}
	if cfg.Source != "" {
		logger.WithField("path", cfg.Source).Debug("loaded config")
	}
	signature, err := cfg.Signature()
	if err != nil {
		return err
	}
	killOpts, err := cfg.KillOptions()
	if err != nil {
		return err
	}
	killOpts.Debug = opts.debug

	if opts.metricsTextfile != "" {
		defer func() {
			if writeErr := metrics.WriteTextfile(opts.metricsTextfile); writeErr != nil {
				logger.WithError(writeErr).Warn("metrics not written")
			}
		}()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = stdcontext.Background()
	}

	procs, err := deps.snapshot(ctx)
	if err != nil {
		return fmt.Errorf("read process table: %w", err)
	}
	simplifier := forks.NewSimplifier(proctable.SearchPath(deps.searchPath))
	all := forks.Discover(procs, forks.WalkOptions{
		Signature:  signature,
		Simplifier: simplifier,
		SelfPID:    deps.selfPID,
	})
	selected := forks.Select(all, mode)
	metrics.SetForks(len(all), len(selected))
	logger.WithField("processes", len(procs)).WithField("forks", len(all)).WithField("shown", len(selected)).Debug("process table classified")

	s := &session{
		cmd:      cmd,
		deps:     deps,
		opts:     opts,
		mode:     mode,
		forks:    selected,
		logger:   logger,
		killOpts: killOpts,
		selfSig:  simplifier.Simplify(strings.Join(deps.selfArgs, " ")),
	}

	switch {
	case !opts.noTTY && !mode.Kill:
		return s.interactive(ctx)
	case mode.Kill:
		return s.killFromFlags(ctx)
	default:
		return s.list()
	}
}

func (o *options) mode(args []string) (forks.Mode, error) {
	if len(args) > 0 && !o.kill.set {
		return forks.Mode{}, usageErrorf("unexpected arguments %s; pass fork ids with --kill", strings.Join(args, " "))
	}
	ids, err := o.kill.withArgs(args)
	if err != nil {
		return forks.Mode{}, err
	}
	mode := forks.Mode{
		ViewAll:   o.viewAll,
		Kill:      o.kill.set,
		KillIDs:   ids,
		SelectAll: o.all,
	}
	if len(mode.KillIDs) > 0 && mode.SelectAll {
		return forks.Mode{}, &UsageError{Err: forks.ErrConflictingTargets}
	}
	return mode, nil
}
