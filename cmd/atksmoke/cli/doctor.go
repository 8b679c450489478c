package cli

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Wajeed-msft/m365-atk-test/cmd/atksmoke/cli/atk"
	"github.com/Wajeed-msft/m365-atk-test/cmd/atksmoke/cli/config"
	"github.com/Wajeed-msft/m365-atk-test/cmd/atksmoke/cli/execx"
	"github.com/Wajeed-msft/m365-atk-test/cmd/atksmoke/cli/project"
	"github.com/Wajeed-msft/m365-atk-test/cmd/atksmoke/cli/ui"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose the dev-container environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			runDoctor(cmd.Context(), cfg, ui.New())
			return nil
		},
	}
}

// runDoctor prints environment diagnostics. Nothing here fails the command;
// doctor exists to show state, not to judge it.
func runDoctor(ctx context.Context, cfg config.Config, p *ui.Printer) {
	p.Step("Binaries")
	for _, bin := range []string{"node", "npm", atk.Binary} {
		path, ok := execx.LookPath(bin)
		if !ok {
			p.Warn("%s: not found on PATH", bin)
			continue
		}
		p.Success("%s: %s%s", bin, path, binaryVersion(ctx, bin))
	}

	p.Step("Configuration")
	p.Detail("workspace root: %s", cfg.WorkspaceRoot)
	p.Detail("agent dir:      %s", cfg.AgentDir)
	p.Detail("log dir:        %s", cfg.LogDir)
	p.Detail("template:       %s", cfg.Template)
	if cfg.CodespaceName != "" {
		p.Detail("codespace:      %s", cfg.CodespaceName)
	} else if cfg.PreviewDomain != "" {
		p.Detail("preview domain: %s", cfg.PreviewDomain)
	} else {
		p.Detail("not in a codespace; forwarding URLs fall back to localhost")
	}

	p.Step("Sample project")
	if m, err := project.ReadManifest(cfg.AgentDir); err == nil {
		p.Success("%s@%s (scripts: %v)", m.Name, m.Version, m.ScriptNames())
	} else {
		p.Warn("no readable manifest in %s: %v", cfg.AgentDir, err)
	}

	p.Step("Processes")
	reportToolProcesses(ctx, p)
}

// binaryVersion returns " (vX.Y.Z)" for display, or empty when the query
// fails; doctor output stays readable either way.
func binaryVersion(ctx context.Context, bin string) string {
	res := execx.Run(ctx, execx.Invocation{
		Name:    bin,
		Args:    []string{"--version"},
		Timeout: 15 * time.Second,
	})
	if !res.Success {
		return ""
	}
	v := strings.TrimSpace(res.Stdout)
	if i := strings.IndexByte(v, '\n'); i >= 0 {
		v = v[:i]
	}
	if v == "" {
		return ""
	}
	return " (" + v + ")"
}
