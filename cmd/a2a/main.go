package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"a2aclient/cmd/a2a/dashboard"
	"a2aclient/internal/app"
	"a2aclient/internal/config"
	"a2aclient/internal/logging"
)

// Version is stamped by the build.
var Version = "0.1.0"

var (
	verbose   bool
	workspace string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "a2a",
	Short: "A2A Client Dashboard - AI Family mission control",
	Long: `A2A Client is a terminal dashboard for the AI Family agent ecosystem.

Chat with simulated agents, delegate tasks between the Gemini and OpenAI
providers, replay the GenerateMarketingVideo demo workflow, and browse or
edit files in a connected GitHub repository.

Run without arguments to start the interactive dashboard.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The dashboard has its own UI; skip the CLI logger for it.
		if cmd.Use == "a2a" && cmd.CalledAs() == "a2a" {
			return nil
		}
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDashboard()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("a2a %s\n", Version)
	},
}

func runDashboard() error {
	ws := workspace
	if ws == "" {
		var err error
		ws, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to resolve workspace: %w", err)
		}
	}

	if err := logging.Initialize(ws); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}
	defer logging.CloseAll()

	cfg, err := config.Load(ws)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}
	defer a.Close()

	return dashboard.Run(a)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current directory)")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
