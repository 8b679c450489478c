// Package cli wires up the atksmoke command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Wajeed-msft/m365-atk-test/cmd/atksmoke/cli/config"
	"github.com/Wajeed-msft/m365-atk-test/cmd/atksmoke/cli/versioninfo"
)

// NewRootCmd builds the root command and its subcommands.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "atksmoke",
		Short: "Set up and smoke-test the M365 Agents Toolkit CLI in a dev container",
		Long: `atksmoke installs the Microsoft 365 Agents Toolkit CLI, scaffolds a
sample agent project, starts the auth login flow, extracts the login URL
and port from the tool's log output, and prints port-forwarding links.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       versioninfo.String(),
	}
	root.SetVersionTemplate("{{.Version}}\n")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newSetupCmd())
	root.AddCommand(newInstallCmd())
	root.AddCommand(newScaffoldCmd())
	root.AddCommand(newAuthCmd())
	root.AddCommand(newDoctorCmd())

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), versioninfo.String())
		},
	}
}

// loadConfig resolves the effective configuration for a command run.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}
