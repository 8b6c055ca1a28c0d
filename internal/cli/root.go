// Package cli is the flightlog command line.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"infinite-experiment/flightlog/internal/config"
	"infinite-experiment/flightlog/internal/logging"
)

// Version is set at build time.
var Version = "dev"

type appKey struct{}

// NewRootCmd builds the command tree. Commands that touch the log get an
// app in their context from PersistentPreRunE; run closes it.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:     "flightlog",
		Short:   "Personal flight log built from boarding passes and flight data providers",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := logging.Init(cfg.AppEnv); err != nil {
				return err
			}
			if cfg.File != "" {
				logging.Debug("Using config file", "file", cfg.File)
			}

			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, a))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./"+config.DefaultFile+" when present)")
	flags.String("store", "", "flight log database: SQLite path or postgres:// DSN")
	flags.String("env", "", "environment name (development|production)")
	flags.String("aeroapi-key", "", "AeroAPI key")
	flags.Int("concurrency", 0, "maximum concurrent provider lookups")
	flags.String("redis-addr", "", "Redis address for the shared response cache")
	flags.Bool("create-missing", false, "create unknown airlines and airports from provider data")

	rootCmd.AddCommand(
		newAddCmd(),
		newImportRecentCmd(),
		newRoutesCmd(),
		newSeedCmd(),
		newServeCmd(),
	)
	return rootCmd
}

func appFrom(cmd *cobra.Command) *app {
	ctx := cmd.Context()
	if ctx == nil {
		return nil
	}
	a, _ := ctx.Value(appKey{}).(*app)
	return a
}

// run executes rootCmd and closes the app the command opened, also when
// the command failed.
func run(ctx context.Context, rootCmd *cobra.Command) error {
	cmd, err := rootCmd.ExecuteContextC(ctx)
	if cmd != nil {
		if a := appFrom(cmd); a != nil {
			if closeErr := a.Close(); closeErr != nil && err == nil {
				err = closeErr
			}
		}
	}
	return err
}

// Execute runs the command line.
func Execute(ctx context.Context) error {
	defer logging.Close()

	if err := run(ctx, NewRootCmd()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
