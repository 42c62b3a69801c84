package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"browser-dispatch/internal/di"
	"browser-dispatch/internal/infrastructure/env"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "browserctl",
	Short: "Validated dispatch of browser automation tools",
	Long: `browserctl exposes a registry of browser tools (navigation, element interaction, waits)
behind a single validated dispatcher, and serves them over MCP, HTTP or the command line.

Configuration is read from the environment and .env files (BROWSER_BACKEND, BROWSER_HEADLESS,
DISPATCH_TIMEOUT, LOG_LEVEL, ...). Flags override the environment.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// The command context is cancelled on SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("backend", "", "Browser backend: rod or memory (overrides BROWSER_BACKEND)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().Bool("headful", false, "Show the browser window (rod backend)")
}

func newContainer(cmd *cobra.Command) (*di.Container, error) {
	cfg := di.ConfigFromEnv(env.NewEnvService())

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend, _ = flags.GetString("backend")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if headful, _ := flags.GetBool("headful"); headful {
		cfg.BrowserHeadless = false
	}

	container, err := di.NewContainer(cfg)
	if err != nil {
		return nil, fmt.Errorf("initialization failed: %w", err)
	}
	return container, nil
}
