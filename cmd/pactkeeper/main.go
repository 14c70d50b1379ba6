// Command pactkeeper runs the contract API, the settlement scheduler and the
// operator commands that share its store.
//
// @title        Pactkeeper API
// @version      1.0
// @description  Behavior contracts with streaks, daily check-ins, violations and scheduled settlement.
// @BasePath     /api/v1
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	_ "github.com/tbourn/pactkeeper/docs"
	"github.com/tbourn/pactkeeper/internal/config"
	"github.com/tbourn/pactkeeper/internal/sysutil"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	// Global flags
	envFile string
	verbose bool

	// Loaded by the persistent pre-run; every subcommand reads it.
	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "pactkeeper",
	Short: "Behavior contracts with streaks and scheduled settlement",
	Long: `pactkeeper keeps behavior contracts: daily check-ins grow a streak,
violations reset it, and scheduled jobs settle weekly quotas, auto-keep
silent days and deliver morning and evening briefings.

Configuration comes from the environment, optionally seeded from a .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEnv(envFile, cmd.Flags().Changed("env-file")); err != nil {
			return err
		}
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if verbose {
			c.LogLevel = "debug"
		}
		cfg = c

		sysutil.InstallLogger(sysutil.NewLogger(os.Stderr, cfg.LogPretty, cfg.OTEL.ServiceName))
		sysutil.SetLogLevel(cfg.LogLevel)
		return nil
	},
}

// loadEnv seeds the environment from path. A missing default file is fine;
// a missing file named on the command line is not. Variables already set in
// the environment win.
func loadEnv(path string, explicit bool) error {
	err := godotenv.Load(path)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		return nil
	default:
		return fmt.Errorf("load %s: %w", path, err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Force debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(settleCmd)
	rootCmd.AddCommand(migrateUserCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
