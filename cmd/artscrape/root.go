package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"artscrape/pkg/config"
	"artscrape/pkg/logger"
	"artscrape/pkg/ui"

	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
	timeout    time.Duration
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "artscrape",
	Short: "Build labelled painting datasets from image search results",
	Long: `artscrape builds labelled painting datasets.

It ranks painting styles by popularity, drives a headless browser through
image search results to harvest image URLs, downloads them into an image
directory and packs labelled pixel arrays into a compressed archive.

Configuration is read from (highest priority first):
  - Command line flags
  - Environment variables (ARTSCRAPE_*)
  - Configuration file (.artscrape.yaml, ~/.config/artscrape/config.yaml)
  - Default values`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			ui.SetQuietMode(true)
		}
		if noColor {
			ui.SetColor(false)
		}

		// Don't show logo for certain commands
		if cmd.Name() != "version" && cmd.Name() != "help" && !isConfigCommand(cmd) {
			ui.PrintLogo()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .artscrape.yaml or ~/.config/artscrape/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "abort the command after this long (0 means no limit)")

	rootCmd.SetVersionTemplate(`artscrape {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

func isConfigCommand(cmd *cobra.Command) bool {
	return cmd.Name() == "config" || (cmd.HasParent() && cmd.Parent().Name() == "config")
}

// loadConfig loads the layered configuration and initializes the global logger
func loadConfig(flags map[string]interface{}) (*config.Config, error) {
	if flags == nil {
		flags = make(map[string]interface{})
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		return nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		return nil, err
	}
	logger.WithField("version", version).Debug("artscrape starting")

	return cfg, nil
}

// commandContext is cancelled on SIGINT/SIGTERM and after --timeout
func commandContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

// fail reports err on the terminal and in the log, and returns it for cobra
func fail(msg string, err error) error {
	logger.WithError(err).Error(msg)
	ui.PrintError(msg, err.Error())
	return fmt.Errorf("%s: %w", msg, err)
}
