package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Wajeed-msft/m365-atk-test/cmd/atksmoke/cli/atk"
	"github.com/Wajeed-msft/m365-atk-test/cmd/atksmoke/cli/config"
	"github.com/Wajeed-msft/m365-atk-test/cmd/atksmoke/cli/project"
	"github.com/Wajeed-msft/m365-atk-test/cmd/atksmoke/cli/ui"
)

func newScaffoldCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scaffold",
		Short: "Create the sample agent project if it doesn't exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			p := ui.New()
			return runScaffold(cmd.Context(), cfg, p)
		},
	}
}

// runScaffold creates the sample project when it's missing, then displays
// its manifest. A manifest read failure after scaffolding is only a
// warning: the project exists, which is all later steps need.
func runScaffold(ctx context.Context, cfg config.Config, p *ui.Printer) error {
	p.Step("Checking sample agent project at %s", cfg.AgentDir)

	if !project.Exists(cfg.AgentDir) {
		p.Detail("project not found, scaffolding from template %q", cfg.Template)

		parent := filepath.Dir(cfg.AgentDir)
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return fmt.Errorf("create workspace dir: %w", err)
		}

		res := atk.New(ctx, parent, filepath.Base(cfg.AgentDir), cfg.Template)
		if !res.Success {
			return fmt.Errorf("scaffold project (exit %d): %w", res.ExitCode, res.Err)
		}
		p.Success("project scaffolded")
	}

	m, err := project.ReadManifest(cfg.AgentDir)
	if err != nil {
		p.Warn("could not read project manifest: %v", err)
		return nil
	}

	p.Success("project %s@%s", m.Name, m.Version)
	if scripts := m.ScriptNames(); len(scripts) > 0 {
		p.Detail("scripts: %v", scripts)
	}
	return nil
}
