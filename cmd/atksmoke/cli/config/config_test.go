package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearSmokeEnv unsets every variable Load reads so tests control the
// environment completely. t.Setenv restores the originals afterwards.
func clearSmokeEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"WORKSPACE_ROOT",
		"AGENT_PATH",
		"ATKSMOKE_LOG_DIR",
		"CODESPACE_NAME",
		"GITHUB_CODESPACES_PORT_FORWARDING_DOMAIN",
		"ATKSMOKE_POSTHOG_KEY",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearSmokeEnv(t)
	// Point the workspace somewhere empty so no atksmoke.yaml is found.
	t.Setenv("WORKSPACE_ROOT", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(cfg.WorkspaceRoot, "sample-agent"), cfg.AgentDir)
	assert.Equal(t, filepath.Join(cfg.WorkspaceRoot, "logs"), cfg.LogDir)
	assert.Equal(t, "basic-custom-engine-agent", cfg.Template)
	assert.Equal(t, 8*time.Second, cfg.InitialDelay)
	assert.Equal(t, 60*time.Second, cfg.LoginTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Empty(t, cfg.CodespaceName)
	assert.Empty(t, cfg.PreviewDomain)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearSmokeEnv(t)
	root := t.TempDir()
	t.Setenv("WORKSPACE_ROOT", root)
	t.Setenv("AGENT_PATH", "/opt/my-agent")
	t.Setenv("ATKSMOKE_LOG_DIR", "/var/log/atksmoke")
	t.Setenv("CODESPACE_NAME", "fuzzy-space")
	t.Setenv("GITHUB_CODESPACES_PORT_FORWARDING_DOMAIN", "preview-domain")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, root, cfg.WorkspaceRoot)
	assert.Equal(t, "/opt/my-agent", cfg.AgentDir)
	assert.Equal(t, "/var/log/atksmoke", cfg.LogDir)
	assert.Equal(t, "fuzzy-space", cfg.ScanEnv().CodespaceName)
}

func TestLoad_YamlFile(t *testing.T) {
	clearSmokeEnv(t)
	root := t.TempDir()
	t.Setenv("WORKSPACE_ROOT", root)

	content := `
agent_dir: /srv/agent
template: weather-agent
initial_delay_seconds: 2
login_timeout_seconds: 30
poll_interval_ms: 100
`
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte(content), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/agent", cfg.AgentDir)
	assert.Equal(t, "weather-agent", cfg.Template)
	assert.Equal(t, 2*time.Second, cfg.InitialDelay)
	assert.Equal(t, 30*time.Second, cfg.LoginTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.PollInterval)
}

func TestLoad_EnvWinsOverFile(t *testing.T) {
	clearSmokeEnv(t)
	root := t.TempDir()
	t.Setenv("WORKSPACE_ROOT", root)
	t.Setenv("AGENT_PATH", "/from/env")

	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte("agent_dir: /from/file\n"), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.AgentDir)
}

func TestLoad_RejectsUnknownYamlKeys(t *testing.T) {
	clearSmokeEnv(t)
	root := t.TempDir()
	t.Setenv("WORKSPACE_ROOT", root)

	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte("agent_dirr: /typo\n"), 0o644))

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_MalformedYamlIsAnError(t *testing.T) {
	clearSmokeEnv(t)
	root := t.TempDir()
	t.Setenv("WORKSPACE_ROOT", root)

	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte(":\t["), 0o644))

	_, err := Load()
	require.Error(t, err)
}
