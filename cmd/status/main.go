// status prints a one-line system status on every tick of the wall clock,
// for consumption by a status bar.
//
// Usage:
//
//	status [flags] [<specifier>...]
//
// A specifier has the form <main>[:<sub>[,<sub>...]]. Run status --list for
// the recognized specifiers. Without specifiers the configured defaults are
// used.
//
// Flags:
//
//	-c, --config string    Path to configuration file (default: ~/.config/pulse-status/config.{yaml,toml})
//	    --env-file string  Load environment overrides from a dotenv file
//	-i, --interval dur     Tick interval (overrides config)
//	-w, --width int        Line width in bytes (overrides config)
//	-v, --verbose          Enable debug logging
//	    --list             Print the specifier table and exit
//	    --man              Print the man page and exit
//	    --version          Print version and exit
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/pflag"

	"gitlab.com/tinyland/lab/pulse-status/config"
	"gitlab.com/tinyland/lab/pulse-status/docs/manpage"
	"gitlab.com/tinyland/lab/pulse-status/entry"
	"gitlab.com/tinyland/lab/pulse-status/ring"
	"gitlab.com/tinyland/lab/pulse-status/schedule"
	"gitlab.com/tinyland/lab/pulse-status/status"
)

func main() {
	// A closed stdout must surface as EPIPE from write instead of killing
	// the process.
	signal.Ignore(syscall.SIGPIPE)
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	var (
		configPath string
		envFile    string
		interval   = config.DefaultConfig().Interval.Duration
		width      int
		verbose    bool
		list       bool
		man        bool
		version    bool
	)

	flags := pflag.NewFlagSet("status", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVarP(&configPath, "config", "c", "", "path to configuration file (default: ~/.config/pulse-status/config.{yaml,toml})")
	flags.StringVar(&envFile, "env-file", "", "load environment overrides from a dotenv file")
	flags.DurationVarP(&interval, "interval", "i", interval, "tick interval (overrides config)")
	flags.IntVarP(&width, "width", "w", 0, "line width in bytes (overrides config)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVar(&list, "list", false, "print the specifier table and exit")
	flags.BoolVar(&man, "man", false, "print the man page and exit")
	flags.BoolVar(&version, "version", false, "print version and exit")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: status [flags] [<specifier>...]\n\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	if version {
		fmt.Fprintf(stdout, "status %s (%s) built %s\n", buildVersion, commit, date)
		return 0
	}
	if man {
		fmt.Fprint(stdout, manpage.Generate(buildVersion, commit, date))
		return 0
	}
	if list {
		printList(stdout, isTerminal(stdout))
		return 0
	}

	if envFile != "" {
		if err := config.LoadEnvFile(envFile); err != nil {
			return fail(stderr, err)
		}
	}

	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fail(stderr, err)
	}

	if flags.Changed("interval") {
		cfg.Interval = config.Duration{Duration: interval}
	}
	if flags.Changed("width") {
		cfg.LineWidth = width
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fail(stderr, fmt.Errorf("config: %w", err))
	}

	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	specs := flags.Args()
	if len(specs) == 0 {
		specs = cfg.Specifiers
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, specs, stdout, logger); err != nil {
		return fail(stderr, err)
	}
	return 0
}

// serve builds the engine and runs it until the output closes or ctx is
// done.
func serve(ctx context.Context, cfg *config.Config, specs []string, stdout io.Writer, logger *slog.Logger) error {
	reg, err := entry.Build(specs, cfg.EntryOptions(logger))
	if err != nil {
		return err
	}
	defer reg.Close()

	depth := cfg.QueueDepth
	if depth == 0 {
		depth = len(reg.Sources)
	}
	pool := ring.New(depth)
	defer pool.Close()

	timer, err := schedule.NewFDTimer()
	if err != nil {
		return err
	}
	sched := schedule.New(timer, schedule.Config{Interval: cfg.Interval.Duration, Logger: logger})
	defer sched.Close()

	composer := status.NewComposer(lineWidth(cfg.LineWidth, stdout))
	logger.Debug("starting",
		"specifiers", specs,
		"entries", len(reg.Entries),
		"interval", cfg.Interval.Duration,
		"width", composer.Width(),
		"queue_depth", pool.Depth(),
	)

	engine := status.NewEngine(status.Config{
		Ticker:   sched,
		Round:    status.NewRound(reg, pool, logger),
		Composer: composer,
		Registry: reg,
		Out:      stdout,
		Logger:   logger,
	})
	return engine.Run(ctx)
}

func fail(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "status: %v\n", err)
	return 1
}

// lineWidth resolves the configured width. Zero means the terminal width
// when out is a terminal and config.DefaultLineWidth otherwise.
func lineWidth(configured int, out io.Writer) int {
	if configured > 0 {
		return configured
	}
	if f, ok := out.(*os.File); ok && term.IsTerminal(f.Fd()) {
		if w, _, err := term.GetSize(f.Fd()); err == nil && w > 0 {
			return w
		}
	}
	return config.DefaultLineWidth
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}
