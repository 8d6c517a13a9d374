package cmd

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kontorlabs/kontor/client"
	"github.com/kontorlabs/kontor/config"
)

func Execute() {
	cfg := loadConfig()
	client.SetGlobalTransferRateLimit(cfg.RateLimit)

	app, cleanup, err := newApp(cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open the credential store")
		os.Exit(1)
	}
	defer cleanup()

	rootCmd := createRootCmd(app)
	rootCmd.PersistentFlags().BoolP("help", "h", false, "Show help for a command")

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command execution failed.")
		os.Exit(1)
	}
}

func createRootCmd(app *appEnv) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "kontor",
		Short: "A command-line client for the Kontor platform",
	}

	rootCmd.AddCommand(
		loginCmd(app),
		logoutCmd(app),
		whoamiCmd(app),
		callCmd(app),
		fetchCmd(app),
		exportCmd(app),
		versionCmd(),
	)

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.SetHelpCommand(&cobra.Command{
		Use:    "no-help",
		Hidden: true,
	})

	return rootCmd
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}
	return cfg
}
