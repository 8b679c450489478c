// Package execx runs external commands for the smoke-test sequence. Three
// modes cover everything the sequence needs: capture (collect output and
// exit status), stream (mirror child output to the console in real time),
// and detach (fire-and-forget with output redirected to a log file).
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/creack/pty"
	"golang.org/x/term"
)

// DefaultTimeout bounds capture and stream invocations that don't specify
// their own.
const DefaultTimeout = 10 * time.Minute

// Invocation describes one command run: argv, working directory, timeout,
// and whether output should be streamed to the console.
type Invocation struct {
	Name    string
	Args    []string
	Dir     string
	Env     []string // extra KEY=VALUE entries appended to os.Environ()
	Timeout time.Duration
	Stream  bool
}

// Result carries the outcome of a capture or stream invocation. A spawn
// error or non-zero exit yields Success=false with the message preserved;
// callers decide whether that is fatal.
type Result struct {
	Command  string
	Stdout   string
	Stderr   string
	ExitCode int
	Success  bool
	Err      error
	Duration time.Duration
}

// Run executes inv and collects its output. Non-zero exits are reported in
// the Result, never returned as a Go error; the caller escalates where the
// sequence demands it.
func Run(ctx context.Context, inv Invocation) Result {
	start := time.Now()

	timeout := inv.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := newCommand(runCtx, inv)

	res := Result{Command: displayCommand(inv)}
	if inv.Stream {
		res.Stdout, res.Stderr, res.Err = runStreaming(cmd)
	} else {
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		res.Err = cmd.Run()
		res.Stdout = stdout.String()
		res.Stderr = stderr.String()
	}
	res.Duration = time.Since(start)

	if res.Err == nil {
		res.Success = true
		return res
	}

	// A timed-out child is killed and surfaces as an ExitError, so check
	// the deadline before inspecting the exit status.
	var exitErr *exec.ExitError
	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		res.Err = fmt.Errorf("command timed out after %v", timeout)
		res.ExitCode = -1
	case errors.As(res.Err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		res.ExitCode = -1
	}
	return res
}

// StartDetached launches inv as a background process with stdout and stderr
// redirected to logPath, then returns without waiting. The child gets its
// own process group so it outlives this CLI. The returned PID is for
// diagnostics only; nobody waits on it.
func StartDetached(inv Invocation, logPath string) (int, error) {
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec // Path comes from our own config.
	if err != nil {
		return 0, fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	cmd := exec.Command(inv.Name, inv.Args...) //nolint:gosec // Argv is assembled from our own config.
	cmd.Dir = inv.Dir
	cmd.Env = append(os.Environ(), inv.Env...)
	cmd.Stdin = nil
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start %s: %w", inv.Name, err)
	}
	pid := cmd.Process.Pid

	// Reap the child when it eventually exits so it doesn't linger as a
	// zombie while this CLI is still alive.
	go func() { _ = cmd.Wait() }()

	return pid, nil
}

// LookPath reports whether a binary is available, mirroring exec.LookPath.
func LookPath(name string) (string, bool) {
	path, err := exec.LookPath(name)
	return path, err == nil
}

func newCommand(ctx context.Context, inv Invocation) *exec.Cmd {
	cmd := exec.CommandContext(ctx, inv.Name, inv.Args...) //nolint:gosec // Argv is assembled from our own config.
	cmd.Dir = inv.Dir
	cmd.Env = append(os.Environ(), inv.Env...)
	cmd.Stdin = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = 5 * time.Second
	return cmd
}

// runStreaming mirrors child output to the console while accumulating it.
// On a terminal the child runs under a PTY so tools like npm keep their
// progress rendering; otherwise plain pipes are used.
func runStreaming(cmd *exec.Cmd) (stdout, stderr string, err error) {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return runStreamingPTY(cmd)
	}

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = io.MultiWriter(os.Stdout, &outBuf)
	cmd.Stderr = io.MultiWriter(os.Stderr, &errBuf)
	err = cmd.Run()
	return outBuf.String(), errBuf.String(), err
}

func runStreamingPTY(cmd *exec.Cmd) (stdout, stderr string, err error) {
	// pty.Start adds Setsid to the SysProcAttr, and a session leader can't
	// also setpgid — the combination makes the fork fail with EPERM. Drop
	// the process-group attr here: the new session isolates the child just
	// the same, and its pgid equals its pid, so Cancel's group kill from
	// newCommand keeps working.
	cmd.SysProcAttr = nil

	// A PTY has no separate stderr stream; everything arrives interleaved.
	f, err := pty.Start(cmd)
	if err != nil {
		return "", "", fmt.Errorf("start pty: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	// EIO on PTY close is the normal end-of-output signal on Linux.
	_, _ = io.Copy(io.MultiWriter(os.Stdout, &buf), f)

	err = cmd.Wait()
	return buf.String(), "", err
}

func displayCommand(inv Invocation) string {
	if len(inv.Args) == 0 {
		return inv.Name
	}
	return inv.Name + " " + strings.Join(inv.Args, " ")
}
