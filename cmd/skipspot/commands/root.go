package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ayusman/skipspot/internal/config"
	"github.com/ayusman/skipspot/internal/log"
)

var (
	// Global flags
	configPath string
	verbose    bool

	// Global configuration (loaded at init time)
	globalConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "skipspot",
	Short: "Control music playback with hand gestures and voice commands",
	Long: `skipspot - hands-free music control.

Run without a subcommand for the interactive menu:
  1  gesture mode    thumb, index, ring, pinky and peace sign drive playback
  2  voice mode      spoken commands such as "próxima" or "aumentar volume"
  3  references      inspect captured reference poses
  q  quit

Configuration is read from ~/.skipspot/config.yaml unless --config is given.

Examples:
  # Authorize the Spotify account once
  skipspot auth

  # Gesture control with a preview window (q or Esc stops it)
  skipspot gesture --preview

  # Serve the status page and switch modes from the tray
  skipspot tray --serve`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		return runMenu(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.skipspot/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// configLoadErr stores the error from config.Load() for deferred reporting.
var configLoadErr error

func initConfig() {
	globalConfig, configLoadErr = config.Load(configPath)

	level := "info"
	if globalConfig != nil {
		level = globalConfig.Log.Level
	}
	if verbose {
		level = "debug"
	}
	log.Init(level)
}

// GetConfig returns the global configuration.
func GetConfig() (*config.Config, error) {
	if configLoadErr != nil {
		return nil, fmt.Errorf("failed to load config: %w", configLoadErr)
	}
	if globalConfig == nil {
		return nil, fmt.Errorf("config not loaded")
	}
	return globalConfig, nil
}
