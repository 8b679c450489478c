package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Wajeed-msft/m365-atk-test/cmd/atksmoke/cli/atk"
	"github.com/Wajeed-msft/m365-atk-test/cmd/atksmoke/cli/execx"
	"github.com/Wajeed-msft/m365-atk-test/cmd/atksmoke/cli/ui"
)

func newInstallCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install or update the ATK CLI globally via npm",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := ui.New()
			return runInstall(cmd.Context(), p, yes)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

// runInstall installs/updates the ATK CLI and verifies the minimum version.
// A failed install is fatal: nothing downstream works without the tool.
func runInstall(ctx context.Context, p *ui.Printer, yes bool) error {
	p.Step("Installing %s", atk.NPMPackage)

	if _, ok := execx.LookPath("npm"); !ok {
		return fmt.Errorf("npm not found on PATH; install Node.js first")
	}

	if !yes && term.IsTerminal(int(os.Stdin.Fd())) {
		ok, err := confirmInstall()
		if err != nil {
			return fmt.Errorf("confirmation prompt: %w", err)
		}
		if !ok {
			p.Warn("install cancelled")
			return nil
		}
	}

	if err := atk.Install(ctx); err != nil {
		return fmt.Errorf("install ATK CLI: %w", err)
	}

	version, err := atk.Version(ctx)
	if err != nil {
		p.Warn("installed, but version query failed: %v", err)
		return nil
	}
	if err := atk.CheckMinVersion(version); err != nil {
		return err
	}
	p.Success("%s %s installed", atk.Binary, version)

	return nil
}

func confirmInstall() (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(fmt.Sprintf("Install %s globally via npm?", atk.NPMPackage)).
		Affirmative("Install").
		Negative("Cancel").
		Value(&ok).
		Run()
	return ok, err
}
