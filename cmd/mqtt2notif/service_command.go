package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mqtt2notif/internal/autostart"
)

func newServiceCommand(opts *rootOptions) *cobra.Command {
	serviceCmd := &cobra.Command{
		Use:   "service",
		Short: "Manage the login auto-start service",
	}

	serviceOptions := func() (autostart.Options, error) {
		o := autostart.Options{}
		if p := strings.TrimSpace(opts.configPath); p != "" {
			abs, err := filepath.Abs(p)
			if err != nil {
				return o, fmt.Errorf("resolve config path: %w", err)
			}
			o.ConfigPath = abs
		}
		return o, nil
	}

	serviceCmd.AddCommand(&cobra.Command{
		Use:   "install",
		Short: "Install and start the user service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := serviceOptions()
			if err != nil {
				return err
			}
			if err := autostart.Install(o); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Installed and started %s\n", autostart.ServiceName)
			return nil
		},
	})

	serviceCmd.AddCommand(&cobra.Command{
		Use:   "uninstall",
		Short: "Stop and remove the user service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := autostart.Uninstall(autostart.Options{}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", autostart.ServiceName)
			return nil
		},
	})

	serviceCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show whether the user service is installed and running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printServiceStatus(cmd, autostart.Query(autostart.Options{}))
			return nil
		},
	})

	return serviceCmd
}

func printServiceStatus(cmd *cobra.Command, st autostart.Status) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Installed: %s\n", yesNo(st.Installed))
	fmt.Fprintf(out, "Running:   %s\n", yesNo(st.Active))
	if st.UnitPath != "" {
		fmt.Fprintf(out, "Unit:      %s\n", st.UnitPath)
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
