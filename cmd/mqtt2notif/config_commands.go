package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mqtt2notif/internal/config"
)

func newInitConfigCommand(opts *rootOptions) *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "Create a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeDefaultConfig(cmd.OutOrStdout(), opts.configPath, overwrite)
		},
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func configPath(flag string) string {
	if p := strings.TrimSpace(flag); p != "" {
		return p
	}
	return config.DefaultPath()
}

func writeDefaultConfig(out io.Writer, flag string, overwrite bool) error {
	target := configPath(flag)

	if !overwrite {
		if _, err := os.Stat(target); err == nil {
			return fmt.Errorf("config file already exists at %s (use init-config --overwrite to replace it)", target)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("check config path: %w", err)
		}
	}

	if err := config.Default().Save(target); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}

	fmt.Fprintf(out, "Created default config at %s\n", target)
	fmt.Fprintln(out, "Edit the [mqtt] section to point at your broker, then run mqtt2notif.")
	return nil
}
