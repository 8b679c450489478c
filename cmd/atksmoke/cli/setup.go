package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/Wajeed-msft/m365-atk-test/cmd/atksmoke/cli/atk"
	"github.com/Wajeed-msft/m365-atk-test/cmd/atksmoke/cli/config"
	"github.com/Wajeed-msft/m365-atk-test/cmd/atksmoke/cli/telemetry"
	"github.com/Wajeed-msft/m365-atk-test/cmd/atksmoke/cli/ui"
)

func newSetupCmd() *cobra.Command {
	var (
		yes         bool
		skipInstall bool
	)

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Run the full setup and smoke-test sequence",
		Long: `Runs the whole sequence: install/update the ATK CLI, scaffold the
sample agent project, start the auth login flow, extract the login URL and
port from the log, and print port-forwarding links.

Steps that fail print a warning and the sequence continues as far as it
can; only a failed ATK install aborts the run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runSetup(cmd.Context(), cfg, yes, skipInstall)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompts")
	cmd.Flags().BoolVar(&skipInstall, "skip-install", false, "assume the ATK CLI is already installed")

	return cmd
}

func runSetup(ctx context.Context, cfg config.Config, yes, skipInstall bool) error {
	p := ui.New()

	tel := telemetry.New(cfg.PosthogKey)
	defer tel.Close()
	tel.Capture("setup_started", map[string]any{
		"codespace": cfg.CodespaceName != "",
	})

	unlock := acquireRunLock(cfg, p)
	defer unlock()

	if skipInstall && !atk.Installed() {
		p.Warn("--skip-install set but %s is not on PATH; installing anyway", atk.Binary)
		skipInstall = false
	}
	if !skipInstall {
		if err := runInstall(ctx, p, yes); err != nil {
			tel.Capture("setup_failed", map[string]any{"step": "install"})
			return err
		}
	}

	if err := runScaffold(ctx, cfg, p); err != nil {
		// A missing project degrades the auth smoke test but doesn't
		// invalidate it; the login flow runs from any directory.
		p.Warn("scaffold step failed: %v", err)
	}

	runAuthFlow(ctx, cfg, p)

	tel.Capture("setup_completed", nil)
	p.Step("Done")
	return nil
}

// acquireRunLock takes a best-effort file lock so two setup runs don't
// interleave writes to the same auth log. A held or failing lock is only
// reported; the sequence still proceeds.
func acquireRunLock(cfg config.Config, p *ui.Printer) func() {
	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		p.Warn("create log dir for lock: %v", err)
		return func() {}
	}

	fl := flock.New(filepath.Join(cfg.LogDir, "setup.lock"))
	locked, err := fl.TryLock()
	if err != nil {
		p.Warn("run lock: %v", err)
		return func() {}
	}
	if !locked {
		p.Warn("another setup run appears to be in progress (lock held at %s)", fl.Path())
		return func() {}
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			fmt.Fprintf(os.Stderr, "release run lock: %v\n", err)
		}
	}
}
