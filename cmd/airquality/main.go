// Command airquality loads the WHO PM10/PM2.5 city dataset into a relational
// store and serves filtered lookups over it.
//
// Logging:
//   - Base logger is created here from LOG_LEVEL and LOG_FORMAT
//   - Logger is passed to all components via dependency injection
package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/couchcryptid/air-quality-etl/internal/config"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	// A .env file is optional; real environment variables take precedence.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to read .env", "error", err)
		os.Exit(1)
	}

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries what every subcommand needs, filled in by the root pre-run.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "airquality",
		Short:         "Air quality loader and lookup service",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				slog.Error("failed to load config", "error", err)
				return err
			}
			if input, _ := cmd.Flags().GetString("input"); input != "" {
				cfg.InputPath = input
			}
			a.cfg = cfg
			a.logger = sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
			return nil
		},
	}

	rootCmd.PersistentFlags().String("input", "", "input file (overrides INPUT_PATH)")

	rootCmd.AddCommand(
		newServeCmd(a),
		newLoadCmd(a),
		newQueryCmd(a),
		newValidateCmd(a),
	)
	return rootCmd
}
