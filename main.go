package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ansel1/prettyspec/config"
	"github.com/ansel1/prettyspec/engine"
	"github.com/ansel1/prettyspec/output"
	"github.com/ansel1/prettyspec/tui"
)

// Exit codes.
const (
	exitOK       = 0
	exitFailures = 1 // failures were reported, or the run was interrupted
	exitUsage    = 2 // bad flags, config or IO
)

// exitError carries a process exit code out of the command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func usageError(err error) error {
	return &exitError{code: exitUsage, err: err}
}

type options struct {
	file       string
	format     string
	ui         string
	replay     bool
	rate       float64
	outfile    string
	jsonfile   string
	configPath string
	noColor    bool
	logLevel   string
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// execute runs the command and maps its outcome to an exit code.
func execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdin, stdout, stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", ee.err)
		}
		return ee.code
	}
	// cobra flag parsing errors
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return exitUsage
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := options{}

	cmd := &cobra.Command{
		Use:   "prettyspec",
		Short: "Pretty progress and summary reports for test runs",
		Long: `prettyspec reads test lifecycle notifications (NDJSON) or go test -json
output from stdin or a file, shows live progress, and prints a styled
summary: counts, failures, the slowest tests and a final status banner.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts, stdin, stdout, stderr)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "Read from file instead of stdin")
	f.StringVar(&opts.format, "format", config.FormatNative, "Input format: native|gotest")
	f.StringVar(&opts.ui, "ui", config.UIInline, "Output mode: auto|inline|tui")
	f.BoolVar(&opts.replay, "replay", false, "Replay events with timing from the recorded run (requires --file)")
	f.Float64Var(&opts.rate, "rate", 1.0, "Replay rate multiplier (0=instant, 1=original speed, 0.5=2x speed)")
	f.StringVar(&opts.outfile, "outfile", "", "Save all input to the specified file")
	f.StringVar(&opts.jsonfile, "jsonfile", "", "Save JSON events to the specified file")
	f.StringVar(&opts.configPath, "config", "", "Config file (default "+config.DefaultFile+" if present)")
	f.BoolVar(&opts.noColor, "no-color", false, "Disable colors")
	f.StringVar(&opts.logLevel, "log-level", "warn", "Diagnostics level: debug|info|warn|error")

	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd
}

func run(cmd *cobra.Command, opts options, stdin io.Reader, stdout, stderr io.Writer) error {
	// Validate flag combinations
	if opts.replay && opts.file == "" {
		return usageError(errors.New("--replay requires --file <filename>"))
	}
	if opts.rate < 0 {
		return usageError(errors.New("--rate must be >= 0"))
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(opts.logLevel)); err != nil {
		return usageError(errors.Wrapf(err, "invalid --log-level %q", opts.logLevel))
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return usageError(err)
	}

	// Setup input source (file or stdin)
	input := stdin
	if opts.file != "" {
		f, err := os.Open(opts.file)
		if err != nil {
			return usageError(errors.Wrap(err, "opening input file"))
		}
		defer f.Close()
		input = f

		if opts.replay {
			rr, err := engine.NewReplayReader(f, opts.rate)
			if err != nil {
				return usageError(errors.Wrap(err, "creating replay reader"))
			}
			input = rr
		}
	}

	engineOpts := []engine.Option{
		engine.WithFormat(engine.Format(cfg.Format)),
		engine.WithLogger(logger),
	}
	if opts.outfile != "" {
		f, err := os.Create(opts.outfile)
		if err != nil {
			return usageError(errors.Wrap(err, "creating output file"))
		}
		defer f.Close()
		engineOpts = append(engineOpts, engine.WithRawOutput(f))
	}
	if opts.jsonfile != "" {
		f, err := os.Create(opts.jsonfile)
		if err != nil {
			return usageError(errors.Wrap(err, "creating JSON file"))
		}
		defer f.Close()
		engineOpts = append(engineOpts, engine.WithJSONOutput(f))
	}

	decision := resolveUIMode(cfg.UI, stdout)
	if decision.warning != "" {
		logger.Warn(decision.warning)
	}

	cfg.ProgressWidth = fitProgressWidth(cfg.ProgressWidth, stdout)
	reporterOpts := []output.Option{
		output.WithConfig(cfg),
		output.WithLogger(logger),
		output.WithLiveOutput(!decision.useTUI),
	}
	if !colorEnabled(stdout, cfg.NoColor) {
		reporterOpts = append(reporterOpts, output.WithColorProfile(termenv.Ascii))
	}
	reporter := output.NewReporter(stdout, reporterOpts...)

	start := time.Now()
	stream := engine.NewEngine(engineOpts...).Stream(input)

	interrupted := false
	if decision.useTUI {
		interrupted, err = runTUI(reporter, stream, stdout, logger)
	} else {
		err = reporter.ProcessEvents(stream)
	}
	if err != nil {
		return usageError(err)
	}

	reporter.Finish(time.Since(start).Seconds())
	if err := reporter.Err(); err != nil {
		return usageError(err)
	}

	if interrupted || reporter.HasFailures() {
		return &exitError{code: exitFailures}
	}
	return nil
}

// loadConfig reads the config file and applies explicitly set flags on top.
func loadConfig(cmd *cobra.Command, opts options) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Format = strings.ToLower(opts.format)
	}
	if flags.Changed("ui") {
		cfg.UI = strings.ToLower(opts.ui)
	}
	if flags.Changed("no-color") {
		cfg.NoColor = opts.noColor
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// runTUI shows the live view until the run completes, then prints the final
// report through the same reporter. It reports whether the user quit early.
func runTUI(reporter *output.Reporter, stream <-chan engine.Event, stdout io.Writer, logger *slog.Logger) (bool, error) {
	m := tui.NewModel(reporter)
	p := tea.NewProgram(m, tea.WithOutput(stdout))

	go tui.Forward(p, stream, logger)

	finalModel, err := p.Run()
	if err != nil {
		return false, errors.Wrap(err, "running tui")
	}

	model, ok := finalModel.(*tui.Model)
	if !ok {
		return false, nil
	}
	if s, ok := model.Summary(); ok {
		reporter.OnSummaryReady(s)
	}
	return model.Interrupted, nil
}
