package execx

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_CapturesOutput(t *testing.T) {
	t.Parallel()

	res := Run(context.Background(), Invocation{
		Name: "sh",
		Args: []string{"-c", "echo out; echo err >&2"},
	})

	assert.True(t, res.Success)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
	assert.Equal(t, "sh -c echo out; echo err >&2", res.Command)
}

func TestRun_NonZeroExitIsNotEscalated(t *testing.T) {
	t.Parallel()

	res := Run(context.Background(), Invocation{
		Name: "sh",
		Args: []string{"-c", "echo boom >&2; exit 3"},
	})

	assert.False(t, res.Success)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "boom\n", res.Stderr)
	require.Error(t, res.Err)
}

func TestRun_SpawnErrorIsNotEscalated(t *testing.T) {
	t.Parallel()

	res := Run(context.Background(), Invocation{Name: "definitely-not-a-binary-xyz"})

	assert.False(t, res.Success)
	assert.Equal(t, -1, res.ExitCode)
	require.Error(t, res.Err)
}

func TestRun_Timeout(t *testing.T) {
	t.Parallel()

	start := time.Now()
	res := Run(context.Background(), Invocation{
		Name:    "sleep",
		Args:    []string{"30"},
		Timeout: 200 * time.Millisecond,
	})

	assert.False(t, res.Success)
	assert.Less(t, time.Since(start), 10*time.Second)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "timed out")
}

func TestRun_WorkingDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	res := Run(context.Background(), Invocation{Name: "pwd", Dir: dir})

	require.True(t, res.Success)
	// Resolve symlinks: on macOS t.TempDir lives under /var -> /private/var.
	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(strings.TrimSpace(res.Stdout))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRun_ExtraEnv(t *testing.T) {
	t.Parallel()

	res := Run(context.Background(), Invocation{
		Name: "sh",
		Args: []string{"-c", "echo $SMOKE_TEST_VAR"},
		Env:  []string{"SMOKE_TEST_VAR=hello"},
	})

	require.True(t, res.Success)
	assert.Equal(t, "hello\n", res.Stdout)
}

func TestStartDetached_RedirectsOutputToLog(t *testing.T) {
	t.Parallel()

	logPath := filepath.Join(t.TempDir(), "auth.log")
	pid, err := StartDetached(Invocation{
		Name: "sh",
		Args: []string{"-c", "echo started; echo from-stderr >&2"},
	}, logPath)
	require.NoError(t, err)
	assert.Positive(t, pid)

	// The child writes asynchronously; poll briefly for the content.
	deadline := time.Now().Add(5 * time.Second)
	var data []byte
	for time.Now().Before(deadline) {
		data, _ = os.ReadFile(logPath)
		if strings.Contains(string(data), "from-stderr") {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	assert.Contains(t, string(data), "started")
	assert.Contains(t, string(data), "from-stderr")
}

func TestStartDetached_BadLogPath(t *testing.T) {
	t.Parallel()

	_, err := StartDetached(Invocation{Name: "true"}, filepath.Join(t.TempDir(), "missing", "auth.log"))
	require.Error(t, err)
}

// TestRun_StreamMirrorsAndAccumulates swaps os.Stdout for a pipe, so the
// stream path takes the non-TTY branch and the mirrored bytes can be read
// back. Not parallel: os.Stdout is process-global.
func TestRun_StreamMirrorsAndAccumulates(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	res := Run(context.Background(), Invocation{
		Name:   "sh",
		Args:   []string{"-c", "echo streamed-out; echo streamed-err >&2"},
		Stream: true,
	})

	require.NoError(t, w.Close())
	os.Stdout = orig
	mirrored, err := io.ReadAll(r)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "streamed-out\n", res.Stdout)
	assert.Equal(t, "streamed-err\n", res.Stderr)
	assert.Contains(t, string(mirrored), "streamed-out")
}

// TestRunStreamingPTY_SpawnsChild drives the exact chain the TTY branch of
// Run uses. Allocating a PTY doesn't require the parent to own a terminal,
// so this covers the path the capture-mode tests never reach — a child that
// pty.Start puts in its own session must still spawn and run.
func TestRunStreamingPTY_SpawnsChild(t *testing.T) {
	cmd := newCommand(context.Background(), Invocation{
		Name: "sh",
		Args: []string{"-c", "echo pty-hello"},
	})

	out, _, err := runStreamingPTY(cmd)
	require.NoError(t, err)
	assert.Contains(t, out, "pty-hello")
}

func TestLookPath(t *testing.T) {
	t.Parallel()

	path, ok := LookPath("sh")
	assert.True(t, ok)
	assert.NotEmpty(t, path)

	_, ok = LookPath("definitely-not-a-binary-xyz")
	assert.False(t, ok)
}
