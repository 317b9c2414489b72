// Package cli provides the command-line interface for spoold.
//
// The cli package wires the spooler together behind a Cobra root command
// and runs the interactive shell. It uses dependency injection via the
// [App] struct to assemble all required services, enabling comprehensive
// testing without a terminal or real child processes.
//
// Key types:
//   - [App] - Main application container with injected dependencies
//   - [Shell] - The interactive command loop
//   - [ExecuteResult] - Result type returned by testable entry points
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"spoold/internal/config"
	"spoold/internal/logging"
	"spoold/internal/output"
	"spoold/internal/pipeline"
	"spoold/internal/printer"
	"spoold/internal/registry"
	"spoold/internal/spool"
)

// App is the main application container with dependency injection.
//
// The production constructor [NewApp] wires up real implementations;
// tests can construct App directly with substituted pieces (an input
// buffer instead of stdin, a recording event sink, a tiny retention).
type App struct {
	// Config holds the loaded application configuration.
	Config *config.Config

	// Log is the shared structured logger.
	Log *zap.Logger

	// Spooler owns jobs, printers and scheduling.
	Spooler *spool.Spooler

	// Events carries child-state notifications from the pipeline engine
	// into the shell loop.
	Events <-chan pipeline.Event

	// Sink receives command acknowledgement events (cmd_ok, cmd_error).
	Sink spool.Sink

	// Out renders terminal output.
	Out *output.Printer

	// In is the command input stream, stdin in production.
	In io.Reader

	// Interactive enables the prompt; set when stdin is a TTY.
	Interactive bool
}

// NewApp creates an [App] with all production dependencies wired up.
func NewApp(cfg *config.Config) (*App, error) {
	log, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	types := registry.New(log)
	printers := printer.NewRegistry(log, cfg.Spool.MaxPrinters)
	engine := pipeline.NewEngine(log)
	connector := printer.NewSpoolDirConnector(log, cfg.Spool.Dir)
	sink := spool.MultiSink{spool.ZapSink{Log: log.Named("events")}}

	spooler := spool.New(spool.Options{
		Log:         log,
		Sink:        sink,
		Types:       types,
		Printers:    printers,
		Connector:   connector,
		Launcher:    engine,
		Passthrough: cfg.Spool.Passthrough,
		Retention:   cfg.Spool.Retention,
		MaxJobs:     cfg.Spool.MaxJobs,
	})

	return &App{
		Config:      cfg,
		Log:         log,
		Spooler:     spooler,
		Events:      engine.Events(),
		Sink:        sink,
		Out:         output.NewPrinter(cfg.Output.TruncateLength),
		In:          os.Stdin,
		Interactive: output.IsTTY(os.Stdin),
	}, nil
}

// ApplySpoolfile declares the spoolfile's types, conversions and printers
// on the app's spooler, in file order.
func ApplySpoolfile(app *App, sf *config.Spoolfile) error {
	for _, name := range sf.Types {
		if err := app.Spooler.DefineType(name); err != nil {
			return fmt.Errorf("spoolfile type %q: %w", name, err)
		}
	}
	for _, c := range sf.Conversions {
		if err := app.Spooler.DefineConversion(c.From, c.To, c.Command); err != nil {
			return fmt.Errorf("spoolfile conversion %s->%s: %w", c.From, c.To, err)
		}
	}
	for _, p := range sf.Printers {
		if err := app.Spooler.AddPrinter(p.Name, p.Type); err != nil {
			return fmt.Errorf("spoolfile printer %q: %w", p.Name, err)
		}
		if p.Enabled {
			if err := app.Spooler.EnablePrinter(p.Name); err != nil {
				return fmt.Errorf("spoolfile printer %q: %w", p.Name, err)
			}
		}
	}
	return nil
}

// NewRootCommand creates the root Cobra command. Running it starts the
// interactive shell; the version subcommand prints build information.
func NewRootCommand(app *App) *cobra.Command {
	var spoolfilePath string

	rootCmd := &cobra.Command{
		Use:   "spoold",
		Short: "Interactive print spooler",
		Long: `spoold - an interactive print spooler.

Declare file types, conversion programs and printers, then submit files
for printing. Conversion pipelines run as supervised process groups that
can be paused, resumed and cancelled with OS job control.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if spoolfilePath != "" {
				sf, err := config.ReadSpoolfile(spoolfilePath)
				if err != nil {
					return err
				}
				if err := ApplySpoolfile(app, sf); err != nil {
					return err
				}
			}
			if code := NewShell(app).Run(cmd.Context()); code != 0 {
				return NewExitError(code)
			}
			return nil
		},
	}

	rootCmd.Flags().StringVar(&spoolfilePath, "spoolfile", "",
		"YAML file of types, conversions and printers to declare at startup")

	rootCmd.AddCommand(newVersionCommand())
	return rootCmd
}

// ExecuteResult holds the result of running the CLI.
//
// This type enables testable CLI execution by returning exit codes and
// errors instead of calling os.Exit() directly.
type ExecuteResult struct {
	// ExitCode is the exit code to return to the shell (0 = success).
	ExitCode int

	// Err is the error that caused a non-zero exit code, if any.
	Err error
}

// RunWithConfig creates the app and executes the root command with a
// pre-loaded config. This is the testable core of [Execute].
func RunWithConfig(cfg *config.Config) ExecuteResult {
	app, err := NewApp(cfg)
	if err != nil {
		return ExecuteResult{ExitCode: 1, Err: err}
	}
	rootCmd := NewRootCommand(app)

	if err := rootCmd.Execute(); err != nil {
		if code, ok := IsExitError(err); ok {
			return ExecuteResult{ExitCode: code, Err: err}
		}
		return ExecuteResult{ExitCode: 1, Err: err}
	}
	return ExecuteResult{ExitCode: 0, Err: nil}
}

// Run loads configuration and executes the CLI, returning the result.
func Run() ExecuteResult {
	cfg, err := config.NewLoader().Load()
	if err != nil {
		return ExecuteResult{
			ExitCode: 1,
			Err:      fmt.Errorf("error loading config: %w", err),
		}
	}
	return RunWithConfig(cfg)
}

// Execute runs the CLI application and exits the process. Because it
// exits, it is not testable; use [Run] or [RunWithConfig] in tests.
func Execute() {
	result := Run()
	if result.ExitCode != 0 {
		if result.Err != nil {
			fmt.Fprintln(os.Stderr, result.Err)
		}
		os.Exit(result.ExitCode)
	}
}
