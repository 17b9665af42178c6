package main

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	daemon     bool
	initConfig bool
}

func newRootCommand(a *app) *cobra.Command {
	var opts rootOptions

	rootCmd := &cobra.Command{
		Use:   "mqtt2notif",
		Short: "Show MQTT notification events as desktop notifications",
		Long: "mqtt2notif subscribes to an MQTT topic (or a WebSocket feed) carrying JSON\n" +
			"notification events and shows each one as a desktop notification, with the\n" +
			"app icon overlaid on the preview image when both are present.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.initConfig {
				return writeDefaultConfig(cmd.OutOrStdout(), opts.configPath, false)
			}
			return runRelay(cmd.Context(), a, cmd.OutOrStdout(), opts)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Configuration file path")
	rootCmd.Flags().BoolVar(&opts.daemon, "daemon", false, "Run without console output")
	rootCmd.Flags().BoolVar(&opts.initConfig, "init-config", false, "Create a default configuration file and exit")

	rootCmd.AddCommand(newInitConfigCommand(&opts))
	rootCmd.AddCommand(newServiceCommand(&opts))
	rootCmd.AddCommand(newTestNotifyCommand(a, &opts))

	return rootCmd
}
