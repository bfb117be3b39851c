package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/sportea/modtune/cmd/report"
	"github.com/sportea/modtune/cmd/seed"
	"github.com/sportea/modtune/cmd/serve"
	"github.com/sportea/modtune/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "modtune",
		Short: "Adaptive moderation threshold tuner",
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, settings); err != nil {
		cobra.CheckErr(err)
	}

	subcommands := []*cobra.Command{
		serve.Command(settings),
		seed.Command(settings),
		report.Command(settings),
	}
	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := cmd.Flags().Parse(args); err != nil {
			return err
		}
		// Sync the settings struct with viper so command-line arguments
		// take precedence over the config file.
		settings.Debug = viper.GetBool("debug")
		settings.Learning.Debug = viper.GetBool("learning.debug")
		if port := viper.GetString("webserver.port"); port != "" {
			settings.WebServer.Port = port
		}
		return conf.ValidateSettings(settings)
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().BoolVar(&settings.Learning.Debug, "learning-debug", viper.GetBool("learning.debug"), "Enable learning engine debug logging")
	rootCmd.PersistentFlags().StringVarP(&settings.WebServer.Port, "port", "p", viper.GetString("webserver.port"), "Port for the HTTP server")

	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		return fmt.Errorf("error binding debug flag: %w", err)
	}
	if err := viper.BindPFlag("learning.debug", rootCmd.PersistentFlags().Lookup("learning-debug")); err != nil {
		return fmt.Errorf("error binding learning-debug flag: %w", err)
	}
	if err := viper.BindPFlag("webserver.port", rootCmd.PersistentFlags().Lookup("port")); err != nil {
		return fmt.Errorf("error binding port flag: %w", err)
	}

	return nil
}
