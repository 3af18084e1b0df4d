// Command kinobot runs the catalog bot.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/m3rciful/kinobot/core/bootstrap"
	"github.com/m3rciful/kinobot/core/buildinfo"
	corecmd "github.com/m3rciful/kinobot/core/cmd"
	"github.com/m3rciful/kinobot/core/logger"
	"github.com/m3rciful/kinobot/internal/app"
	"github.com/m3rciful/kinobot/migrations"
)

const defaultConfigPath = "config.yaml"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "kinobot",
	Short:         "Telegram media catalog bot",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runBot,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bot until interrupted (default)",
	RunE:  runBot,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := corecmd.ResolveConfigPath(runnerOptions())
		if err != nil {
			return err
		}
		cfg, err := app.LoadConfig(path)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Shutdown() }()

		res, err := bootstrap.Run(cmd.Context(), bootstrap.Options{
			Config:     cfg.CoreConfig(),
			Database:   cfg.Database,
			Migrations: migrations.FS,
		})
		if err != nil {
			return err
		}
		return res.DB.Close()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "kinobot "+buildinfo.String())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to the YAML config (default $CONFIG_PATH or "+defaultConfigPath+")")
	rootCmd.AddCommand(runCmd, migrateCmd, versionCmd)
}

func runnerOptions() corecmd.Options {
	return corecmd.Options{
		ConfigPath:        configPath,
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: defaultConfigPath,
		LoadConfig:        app.Load,
		Bootstrap:         app.Bootstrap,
	}
}

func runBot(cmd *cobra.Command, _ []string) error {
	return corecmd.Run(cmd.Context(), runnerOptions())
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "kinobot:", err)
		os.Exit(1)
	}
}
