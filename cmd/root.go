package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/wildwatch/wildwatch-go/cmd/file"
	"github.com/wildwatch/wildwatch-go/cmd/serve"
	"github.com/wildwatch/wildwatch-go/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wildwatch",
		Short: "WildWatch-Go wildlife detection and alert backend",
	}

	setupFlags(rootCmd, settings)

	rootCmd.AddCommand(
		serve.Command(settings),
		file.Command(settings),
	)

	return rootCmd
}

// setupFlags configures global flags and binds them to viper so command-line
// arguments take precedence over the config file.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.Camera.Location, "location", viper.GetString("camera.location"), "Monitored camera location code (6 digits)")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		cobra.CheckErr(err)
	}
}
