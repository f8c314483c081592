// Package main provides the checkup binary entry point.
// Checkup is a standards compliance engine: it evaluates source files
// against a catalog of code-quality rules, scores the results, and honors
// per-project override files for documented exceptions.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	// Register the rule catalog via init()
	_ "github.com/c360studio/checkup/checker/rules"

	"github.com/c360studio/checkup/checker"
	"github.com/c360studio/checkup/config"
	"github.com/c360studio/checkup/engine"
	"github.com/c360studio/checkup/metrics"
	"github.com/c360studio/checkup/override"
	"github.com/c360studio/checkup/registry"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "checkup"
)

// exit codes: 0 compliant, 1 below threshold, 2 usage or configuration
// error.
const (
	exitFail  = 1
	exitUsage = 2
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(exitUsage)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitUsage)
	}
}

// appContext bundles the wired-up engine components commands share.
type appContext struct {
	config    *config.Config
	registry  *registry.Registry
	overrides *override.Resolver
	engine    *engine.Engine
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func rootCmd() *cobra.Command {
	var (
		registryPath string
		logLevel     string
	)

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Standards compliance engine",
		Long: `Checkup evaluates source files against a catalog of code-quality rules
and produces a weighted compliance score.

Each file is matched to its owning project via the project registry
(longest root path wins). Intentional exceptions live in each project's
.checkup/overrides.yaml, which is scaffolded automatically on first use.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&registryPath, "registry", "", "Project registry path (overrides config)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	newApp := func() (*appContext, error) {
		return buildApp(registryPath, logLevel)
	}

	cmd.AddCommand(
		checkCmd(newApp),
		auditCmd(newApp),
		watchCmd(newApp),
		lintOverridesCmd(newApp),
		versionCmd(),
	)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	}
}

// buildApp wires registry, overrides, catalog, and engine from config.
func buildApp(registryPath, logLevel string) (*appContext, error) {
	logger := newLogger(logLevel)

	cfg, err := config.NewLoader(logger).Load()
	if err != nil {
		return nil, err
	}
	if registryPath != "" {
		cfg.Registry.Path = registryPath
	}
	if cfg.Registry.Path == "" {
		return nil, fmt.Errorf("no project registry configured (set registry.path or pass --registry)")
	}

	reg, err := registry.Load(cfg.Registry.Path)
	if err != nil {
		return nil, err
	}

	overrides := override.NewResolver(logger)
	m := metrics.New()
	eng := engine.New(reg, overrides, checker.DefaultRegistry.All(),
		engine.WithLogger(logger),
		engine.WithMetrics(m),
		engine.WithWorkers(cfg.Audit.Workers),
		engine.WithSettings(checker.Settings{
			RequiredHeaderFields: cfg.Checks.RequiredHeaderFields,
			MaxFileLines:         cfg.Checks.MaxFileLines,
			MaxFunctionLines:     cfg.Checks.MaxFunctionLines,
		}),
	)

	return &appContext{
		config:    cfg,
		registry:  reg,
		overrides: overrides,
		engine:    eng,
		metrics:   m,
		logger:    logger,
	}, nil
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
