// Package config assembles the explicit configuration object the setup
// sequence runs against. Precedence, lowest to highest: built-in defaults,
// an optional atksmoke.yaml in the workspace root, a .env file, then real
// environment variables.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Wajeed-msft/m365-atk-test/cmd/atksmoke/cli/logscan"
)

const (
	// ConfigFileName is the optional per-workspace override file.
	ConfigFileName = "atksmoke.yaml"

	defaultWorkspaceRoot = "/workspaces"
	defaultAgentDirName  = "sample-agent"
	defaultLogDirName    = "logs"
	defaultTemplate      = "basic-custom-engine-agent"
	defaultInitialDelay  = 8 * time.Second
	defaultLoginTimeout  = 60 * time.Second
	defaultPollInterval  = 500 * time.Millisecond
)

// Config holds every knob the setup sequence and the log scanner need.
type Config struct {
	// WorkspaceRoot is the container workspace root ($WORKSPACE_ROOT).
	WorkspaceRoot string
	// AgentDir is where the sample agent project lives ($AGENT_PATH).
	AgentDir string
	// LogDir holds per-run auth logs and their archives ($ATKSMOKE_LOG_DIR).
	LogDir string
	// Template is the ATK project template used for scaffolding.
	Template string
	// CodespaceName and PreviewDomain drive forwarding URL construction.
	CodespaceName string
	PreviewDomain string
	// InitialDelay is how long to let the detached auth process run before
	// the first log read.
	InitialDelay time.Duration
	// LoginTimeout bounds polling for the login URL after the initial delay.
	LoginTimeout time.Duration
	// PollInterval is the delay between log re-reads while polling.
	PollInterval time.Duration
	// PosthogKey enables telemetry when non-empty ($ATKSMOKE_POSTHOG_KEY).
	PosthogKey string
}

// fileConfig is the atksmoke.yaml schema. Durations are plain integers so
// the file stays trivial to write by hand.
type fileConfig struct {
	AgentDir            string `yaml:"agent_dir"`
	LogDir              string `yaml:"log_dir"`
	Template            string `yaml:"template"`
	InitialDelaySeconds int    `yaml:"initial_delay_seconds"`
	LoginTimeoutSeconds int    `yaml:"login_timeout_seconds"`
	PollIntervalMillis  int    `yaml:"poll_interval_ms"`
}

// Default returns the built-in configuration with no file or environment
// input applied.
func Default() Config {
	return Config{
		WorkspaceRoot: defaultWorkspaceRoot,
		Template:      defaultTemplate,
		InitialDelay:  defaultInitialDelay,
		LoginTimeout:  defaultLoginTimeout,
		PollInterval:  defaultPollInterval,
	}
}

// Load builds the effective configuration. A missing atksmoke.yaml or .env
// is normal; a malformed atksmoke.yaml is an error because silently ignoring
// a file the user wrote would be worse.
func Load() (Config, error) {
	// .env first so the os.Getenv calls below see its values. Real
	// environment variables win: godotenv.Load never overwrites.
	_ = godotenv.Load()

	cfg := Default()

	if root := os.Getenv("WORKSPACE_ROOT"); root != "" {
		cfg.WorkspaceRoot = root
	}

	if err := applyFile(&cfg, filepath.Join(cfg.WorkspaceRoot, ConfigFileName)); err != nil {
		return Config{}, err
	}

	applyEnv(&cfg)
	cfg.applyDerivedDefaults()

	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // Path is derived from the workspace root.
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	var fc fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	if fc.AgentDir != "" {
		cfg.AgentDir = fc.AgentDir
	}
	if fc.LogDir != "" {
		cfg.LogDir = fc.LogDir
	}
	if fc.Template != "" {
		cfg.Template = fc.Template
	}
	if fc.InitialDelaySeconds > 0 {
		cfg.InitialDelay = time.Duration(fc.InitialDelaySeconds) * time.Second
	}
	if fc.LoginTimeoutSeconds > 0 {
		cfg.LoginTimeout = time.Duration(fc.LoginTimeoutSeconds) * time.Second
	}
	if fc.PollIntervalMillis > 0 {
		cfg.PollInterval = time.Duration(fc.PollIntervalMillis) * time.Millisecond
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("AGENT_PATH"); v != "" {
		cfg.AgentDir = v
	}
	if v := os.Getenv("ATKSMOKE_LOG_DIR"); v != "" {
		cfg.LogDir = v
	}
	if v := os.Getenv("CODESPACE_NAME"); v != "" {
		cfg.CodespaceName = v
	}
	if v := os.Getenv("GITHUB_CODESPACES_PORT_FORWARDING_DOMAIN"); v != "" {
		cfg.PreviewDomain = v
	}
	if v := os.Getenv("ATKSMOKE_POSTHOG_KEY"); v != "" {
		cfg.PosthogKey = v
	}
}

func (c *Config) applyDerivedDefaults() {
	if c.AgentDir == "" {
		c.AgentDir = filepath.Join(c.WorkspaceRoot, defaultAgentDirName)
	}
	if c.LogDir == "" {
		c.LogDir = filepath.Join(c.WorkspaceRoot, defaultLogDirName)
	}
}

// ScanEnv returns the naming variables the log scanner needs.
func (c Config) ScanEnv() logscan.Env {
	return logscan.Env{
		CodespaceName: c.CodespaceName,
		PreviewDomain: c.PreviewDomain,
	}
}
