package cli

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Wajeed-msft/m365-atk-test/cmd/atksmoke/cli/atk"
	"github.com/Wajeed-msft/m365-atk-test/cmd/atksmoke/cli/authlog"
	"github.com/Wajeed-msft/m365-atk-test/cmd/atksmoke/cli/config"
	"github.com/Wajeed-msft/m365-atk-test/cmd/atksmoke/cli/execx"
	"github.com/Wajeed-msft/m365-atk-test/cmd/atksmoke/cli/logscan"
	"github.com/Wajeed-msft/m365-atk-test/cmd/atksmoke/cli/ui"
)

func newAuthCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Start the ATK login flow and extract the login URL from its log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if timeout > 0 {
				cfg.LoginTimeout = timeout
			}
			p := ui.New()
			runAuthFlow(cmd.Context(), cfg, p)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "override the login URL polling timeout")

	return cmd
}

// runAuthFlow starts the auth command detached, scans its log for the login
// URL and port, prints the results, and archives the log. Every failure
// along the way degrades to a warning: the flow reports whatever partial
// results it has rather than halting the sequence.
func runAuthFlow(ctx context.Context, cfg config.Config, p *ui.Printer) {
	p.Step("Starting ATK auth login")

	logPath, err := authlog.Path(cfg.LogDir)
	if err != nil {
		p.Error("prepare log dir: %v", err)
		return
	}

	pid, err := execx.StartDetached(atk.LoginInvocation(cfg.AgentDir), logPath)
	if err != nil {
		p.Error("start auth command: %v", err)
		reportToolProcesses(ctx, p)
		return
	}
	p.Detail("auth process started (pid %d), log: %s", pid, logPath)

	// Give the tool a head start before the first read; it takes a few
	// seconds to bring up its local server and print anything useful.
	select {
	case <-time.After(cfg.InitialDelay):
	case <-ctx.Done():
		return
	}

	scanCtx, cancel := context.WithTimeout(ctx, cfg.LoginTimeout)
	defer cancel()

	res, err := logscan.WaitForLogin(scanCtx, cfg.ScanEnv(), logPath, cfg.PollInterval)
	switch {
	case err == nil:
		p.Success("login URL found")
		p.Detail("open: %s", res.LoginURL)
	case errors.Is(err, context.DeadlineExceeded):
		if res.Found() {
			p.Detail("open: %s", res.LoginURL)
		} else {
			p.Warn("no login URL in the log after %s; the tool may still be starting", cfg.LoginTimeout)
			reportToolProcesses(ctx, p)
		}
	default:
		p.Warn("log scan aborted: %v", err)
		return
	}

	p.Detail("auth server port: %d", res.Port)
	p.Detail("forwarded: %s", res.ForwardingURL)

	archiveLog(p, logPath)
}

// archiveLog copies the auth log to its timestamped archive and warns when
// the archived text trips the secret scanner.
func archiveLog(p *ui.Printer, logPath string) {
	dst, err := authlog.Archive(logPath, time.Now())
	if err != nil {
		p.Warn("archive auth log: %v", err)
		return
	}
	p.Detail("log archived to %s", dst)

	rules, err := authlog.ScanForSecrets(dst)
	if err != nil {
		p.Warn("secret scan failed: %v", err)
		return
	}
	if len(rules) > 0 {
		p.Warn("archived log matches secret patterns (%s); handle with care", strings.Join(rules, ", "))
	}
}

// reportToolProcesses lists OS processes matching the tool name as a
// secondary diagnostic when the log gives nothing to work with.
func reportToolProcesses(ctx context.Context, p *ui.Printer) {
	res := execx.Run(ctx, execx.Invocation{
		Name:    "ps",
		Args:    []string{"-eo", "pid,etime,command"},
		Timeout: 10 * time.Second,
	})
	if !res.Success {
		p.Detail("ps failed: %v", res.Err)
		return
	}

	var matches []string
	for _, line := range strings.Split(res.Stdout, "\n") {
		if strings.Contains(line, atk.Binary) && !strings.Contains(line, "ps -eo") {
			matches = append(matches, strings.TrimSpace(line))
		}
	}
	if len(matches) == 0 {
		p.Detail("no %s processes running", atk.Binary)
		return
	}
	p.Detail("%s processes:", atk.Binary)
	for _, m := range matches {
		p.Detail("  %s", m)
	}
}
