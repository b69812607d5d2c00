// Package main provides the prodtrap binary entry point.
// Prodtrap runs a turn-based instructional simulation: the learner writes
// code against a deceptively simple task, watches the deployment fail under
// production load, and iterates fixes until the validator accepts them.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	// Register LLM providers via init()
	_ "github.com/c360studio/prodtrap/llm/providers"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/c360studio/prodtrap/config"
	"github.com/c360studio/prodtrap/llm"
	"github.com/c360studio/prodtrap/model"
	"github.com/c360studio/prodtrap/sessionlog"
	"github.com/c360studio/prodtrap/sim"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "prodtrap"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		learnerID string
		dbPath    string
		logLevel  string
	)

	cmd := &cobra.Command{
		Use:   "prodtrap",
		Short: "Production trap simulator",
		Long: `Prodtrap is a pedagogical simulator for production incidents.

A session walks the learner through three stages:
- development: a team lead presents a task and approves working code
- production crash: the deployment fails under simulated production load
- debugging: the learner iterates fixes until a validator accepts them

Scenarios are personalized per learner so submissions are not
copy-pasteable between learners while the underlying failure stays
identical.`,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run an interactive simulation session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(learnerID, dbPath, logLevel)
		},
	}
	runCmd.Flags().StringVar(&learnerID, "learner", "", "Learner ID (required; seeds scenario personalization)")
	runCmd.Flags().StringVar(&dbPath, "db", "", "Transcript database path (overrides config)")
	runCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	_ = runCmd.MarkFlagRequired("learner")
	cmd.AddCommand(runCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

func run(learnerID, dbPath, logLevel string) error {
	// API keys come from the environment; .env is a convenience.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: could not load .env: %v\n", err)
	}

	loader := config.NewLoader(slog.Default())
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if dbPath != "" {
		cfg.Transcript.Path = dbPath
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	logger := newLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	registry := registryFromConfig(cfg)
	client := llm.NewClient(registry,
		llm.WithLogger(logger),
		llm.WithHTTPClient(&http.Client{Timeout: cfg.Model.Timeout}),
	)
	oracle := sim.NewLLMOracle(client)
	engine := sim.NewEngine(oracle, sim.WithEngineLogger(logger))

	var store *sessionlog.Store
	if cfg.Transcript.Path != "" {
		store, err = sessionlog.Open(cfg.Transcript.Path)
		if err != nil {
			return fmt.Errorf("open transcript store: %w", err)
		}
		defer store.Close()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	console := newConsole(os.Stdin, os.Stdout)
	return console.runSession(ctx, engine, store, learnerID)
}

// registryFromConfig builds the model registry, overriding the default
// model with the configured endpoint.
func registryFromConfig(cfg *config.Config) *model.Registry {
	registry := model.NewDefaultRegistry()
	registry.SetEndpoint("configured", &model.EndpointConfig{
		Provider: cfg.Model.Provider,
		URL:      cfg.Model.Endpoint,
		Model:    cfg.Model.Default,
	})
	registry.SetDefaultModel("configured")
	return registry
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
