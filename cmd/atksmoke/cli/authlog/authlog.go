// Package authlog manages the per-run auth log file: where it lives, the
// timestamped archival copy, and a leak check before the copy sticks around.
package authlog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zricethezav/gitleaks/v8/detect"
	"github.com/zricethezav/gitleaks/v8/report"
)

// FileName is the live log the detached auth process writes into.
const FileName = "atk-auth.log"

// Path returns the live log path inside logDir, creating logDir if needed.
func Path(logDir string) (string, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return "", fmt.Errorf("create log dir: %w", err)
	}
	return filepath.Join(logDir, FileName), nil
}

// ArchiveName derives the archival file name from a timestamp. Colons and
// periods in the ISO-8601 form are replaced with hyphens so the name is safe
// on every filesystem the container might mount.
func ArchiveName(ts time.Time) string {
	stamp := ts.UTC().Format("2006-01-02T15:04:05.000Z")
	stamp = strings.ReplaceAll(stamp, ":", "-")
	stamp = strings.ReplaceAll(stamp, ".", "-")
	return "atk-auth-" + stamp + ".log"
}

// Archive copies the live log to its timestamped archival path and returns
// that path. The live log is left in place for the next inspection.
func Archive(logPath string, ts time.Time) (string, error) {
	data, err := os.ReadFile(logPath) //nolint:gosec // Path comes from our own config.
	if err != nil {
		return "", fmt.Errorf("read auth log: %w", err)
	}

	dst := filepath.Join(filepath.Dir(logPath), ArchiveName(ts))
	if err := os.WriteFile(dst, data, 0o600); err != nil {
		return "", fmt.Errorf("write archive: %w", err)
	}
	return dst, nil
}

// ScanForSecrets runs gitleaks over the archived log and returns the rule
// IDs of any findings. Auth logs routinely carry tokens; the caller only
// warns, because deleting or redacting the log would destroy the very
// output the smoke test exists to inspect.
func ScanForSecrets(path string) ([]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path comes from our own config.
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}

	detector, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("init secret detector: %w", err)
	}

	findings := detector.Detect(detect.Fragment{Raw: string(data), FilePath: path})
	return ruleIDs(findings), nil
}

func ruleIDs(findings []report.Finding) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, f := range findings {
		if seen[f.RuleID] {
			continue
		}
		seen[f.RuleID] = true
		ids = append(ids, f.RuleID)
	}
	return ids
}
