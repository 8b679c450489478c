// Package atk wraps the Microsoft 365 Agents Toolkit CLI. Everything the
// smoke test does with the tool funnels through here: install/update via
// npm, version gating, project scaffolding, and the auth login invocation.
package atk

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"github.com/Wajeed-msft/m365-atk-test/cmd/atksmoke/cli/execx"
)

const (
	// Binary is the CLI command name on PATH.
	Binary = "atk"
	// NPMPackage is the npm package that provides Binary.
	NPMPackage = "@microsoft/m365agentstoolkit-cli"
	// MinVersion is the oldest CLI release the smoke test supports.
	MinVersion = "1.0.0"

	installTimeout  = 5 * time.Minute
	scaffoldTimeout = 5 * time.Minute
	versionTimeout  = 30 * time.Second
)

// versionRegex pulls the first dotted version out of `atk --version` output,
// which varies between a bare "1.2.3" and banner text around it.
var versionRegex = regexp.MustCompile(`\d+\.\d+\.\d+(?:-[0-9A-Za-z.-]+)?`)

// Installed reports whether the atk binary is on PATH.
func Installed() bool {
	_, ok := execx.LookPath(Binary)
	return ok
}

// Version runs `atk --version` and returns the bare version string.
func Version(ctx context.Context) (string, error) {
	res := execx.Run(ctx, execx.Invocation{
		Name:    Binary,
		Args:    []string{"--version"},
		Timeout: versionTimeout,
	})
	if !res.Success {
		return "", fmt.Errorf("%s --version failed: %w", Binary, res.Err)
	}
	return ParseVersion(res.Stdout + res.Stderr)
}

// ParseVersion extracts a version from raw CLI output.
func ParseVersion(output string) (string, error) {
	v := versionRegex.FindString(output)
	if v == "" {
		return "", fmt.Errorf("no version found in output %q", strings.TrimSpace(output))
	}
	return v, nil
}

// CheckMinVersion returns an error when version is older than MinVersion.
func CheckMinVersion(version string) error {
	v := "v" + strings.TrimPrefix(version, "v")
	if !semver.IsValid(v) {
		return fmt.Errorf("invalid version %q", version)
	}
	if semver.Compare(v, "v"+MinVersion) < 0 {
		return fmt.Errorf("%s %s is older than the minimum supported %s", Binary, version, MinVersion)
	}
	return nil
}

// Install installs or updates the CLI globally through npm, streaming npm's
// output to the console. Install failures are the one place the sequence
// escalates to a fatal error: nothing downstream works without the tool.
func Install(ctx context.Context) error {
	res := execx.Run(ctx, execx.Invocation{
		Name:    "npm",
		Args:    []string{"install", "-g", NPMPackage},
		Timeout: installTimeout,
		Stream:  true,
	})
	if !res.Success {
		return fmt.Errorf("npm install -g %s failed (exit %d): %w", NPMPackage, res.ExitCode, res.Err)
	}
	return nil
}

// New scaffolds a project from template into dir. The CLI creates the
// directory itself; parent must exist.
func New(ctx context.Context, parentDir, name, template string) execx.Result {
	return execx.Run(ctx, execx.Invocation{
		Name: Binary,
		Args: []string{
			"new",
			"--capability", template,
			"--app-name", name,
			"--folder", parentDir,
			"--interactive", "false",
		},
		Dir:     parentDir,
		Timeout: scaffoldTimeout,
		Stream:  true,
	})
}

// LoginInvocation is the auth command the sequence starts detached, with
// output redirected to the per-run log file.
func LoginInvocation(agentDir string) execx.Invocation {
	return execx.Invocation{
		Name: Binary,
		Args: []string{"auth", "login", "m365"},
		Dir:  agentDir,
	}
}
