// Command underwrite runs real-estate deal underwriting from a YAML
// configuration: the base case, stress scenarios, Monte Carlo simulation and
// break-even solves.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/javaxhaskell/Real-Estate-Modelling/internal/config"
	"github.com/javaxhaskell/Real-Estate-Modelling/internal/forecast"
	"github.com/javaxhaskell/Real-Estate-Modelling/internal/recorder"
	"github.com/javaxhaskell/Real-Estate-Modelling/internal/server"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/constants"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/output"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/validation"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	// A missing .env file is fine; real environment variables still apply.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	// Determine log level (CLI override takes precedence)
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info"
	}

	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	format := loggingConfig.Format
	if format == "" {
		format = "json"
	}
	if err := validation.ValidateLogFormat(format); err != nil {
		return nil, err
	}

	var cfg zap.Config
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	if loggingConfig.OutputFile != "" {
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}

		// Test if we can create/write to the file
		file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %v", loggingConfig.OutputFile, err)
		}
		_ = file.Close()

		cfg.OutputPaths = []string{loggingConfig.OutputFile}
		cfg.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return cfg.Build()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "underwrite",
		Short: "Real-estate deal underwriting and scenario engine",
		Long: `underwrite projects a deal's monthly cash flows and debt schedule,
computes levered returns (IRR, NPV, equity multiple, cash-on-cash, DSCR, LTV),
and stress-tests them with deterministic scenarios and Monte Carlo simulation.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", constants.DefaultConfigFile, "path to configuration file")
	root.PersistentFlags().String("output-format", "", "type of output override: pretty, csv, json")
	root.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(
		newRunCmd("run", "Underwrite the base case", forecast.Options{}),
		newRunCmd("scenarios", "Underwrite the base case and every stress scenario", forecast.Options{Scenarios: true}),
		newRunCmd("montecarlo", "Underwrite the base case and run the Monte Carlo simulation", forecast.Options{MonteCarlo: true}),
		newRunCmd("solve", "Solve for the break-even value of deal inputs at the hurdle IRR", forecast.Options{Solve: true}),
		newRunCmd("all", "Run the base case, scenarios, Monte Carlo simulation and break-even solves",
			forecast.Options{Scenarios: true, MonteCarlo: true, Solve: true}),
		newServeCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "underwrite %s (commit %s)\n", version, commit)
		},
	}
}

func newRunCmd(use, short string, stages forecast.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUnderwriting(cmd, stages)
		},
	}
	if stages.MonteCarlo {
		cmd.Flags().Int("draws", 0, "number of Monte Carlo draws (overrides config)")
		cmd.Flags().Uint64("seed", 0, "Monte Carlo seed (overrides config)")
	}
	if stages.Solve {
		cmd.Flags().StringSlice("field", nil, "solve these fields with default bounds instead of the configured solver section")
	}
	cmd.Flags().Int("workers", 0, "concurrent workers (default: GOMAXPROCS)")
	return cmd
}

func runUnderwriting(cmd *cobra.Command, opts forecast.Options) error {
	configLocation, _ := cmd.Flags().GetString("config")
	outputFormatFlag, _ := cmd.Flags().GetString("output-format")
	logLevel, _ := cmd.Flags().GetString("log-level")

	conf, err := config.LoadConfiguration(configLocation)
	if err != nil {
		return fmt.Errorf("failed to load configuration at %s: %w", configLocation, err)
	}

	logger, err := initializeLogger(conf.Logging, logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if outputFormatFlag != "" {
		outputFormat = outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return err
	}

	if cmd.Flags().Changed("draws") {
		opts.Draws, _ = cmd.Flags().GetInt("draws")
	}
	if cmd.Flags().Changed("seed") {
		seed, _ := cmd.Flags().GetUint64("seed")
		opts.Seed = &seed
	}
	if cmd.Flags().Changed("field") {
		opts.SolveFields, _ = cmd.Flags().GetStringSlice("field")
	}
	opts.Workers, _ = cmd.Flags().GetInt("workers")

	rec := recorder.New(conf.Recorder.Driver, conf.Recorder.Path, logger)
	defer func() {
		if err := rec.Close(); err != nil {
			logger.Warn("failed to close recorder", zap.String("op", "main"), zap.Error(err))
		}
	}()
	opts.Recorder = rec

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, runErr := forecast.GetForecast(ctx, logger, *conf, opts)
	if report.Base == nil {
		return fmt.Errorf("failed to underwrite deal: %w", runErr)
	}
	if runErr != nil {
		// Cancelled simulations still print what completed.
		logger.Warn("run interrupted, reporting partial results",
			zap.String("op", "main"),
			zap.Error(runErr),
		)
	}

	if err := output.Write(cmd.OutOrStdout(), outputFormat, report); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return runErr
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the underwriting JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			serverConfig, _ := cmd.Flags().GetString("server-config")
			logLevel, _ := cmd.Flags().GetString("log-level")

			cfg, err := server.LoadConfig(serverConfig)
			if err != nil {
				return err
			}
			if address, _ := cmd.Flags().GetString("address"); address != "" {
				cfg.Address = address
			}
			if validation.ValidateRecorderDriver(cfg.Recorder.Driver) != nil {
				return fmt.Errorf("invalid recorder driver %q", cfg.Recorder.Driver)
			}

			logger, err := initializeLogger(cfg.Logging, logLevel)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer func() {
				_ = logger.Sync()
			}()

			rec := recorder.New(cfg.Recorder.Driver, cfg.Recorder.Path, logger)
			defer rec.Close()

			srv := &http.Server{
				Addr: cfg.Address,
				Handler: server.NewHandler(logger, cfg.UploadSizeBytes(), version,
					server.WithRecorder(rec),
					server.WithTimeout(cfg.Timeout()),
					server.WithDrawLimit(cfg.MaxDraws),
					server.WithWorkers(cfg.Workers),
				),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("listening", zap.String("op", "main.serve"), zap.String("address", cfg.Address))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			logger.Info("shutting down", zap.String("op", "main.serve"))
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().String("server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	cmd.Flags().String("address", "", "listen address override")
	return cmd
}
