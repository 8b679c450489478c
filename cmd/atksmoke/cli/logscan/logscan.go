// Package logscan extracts a login URL and a listening port from the
// unstructured log output of the ATK auth command. The tool gives no
// structured contract for its output, so everything here is best-effort
// pattern matching over opaque text.
package logscan

import (
	"context"
	"os"
	"regexp"
	"strconv"
	"time"
)

// DefaultPort is reported when no listening port can be found in the log.
const DefaultPort = 3978

// loginURLRegex matches the Microsoft Entra login endpoint up to the next
// whitespace. This is the URL the user must visit to complete device login.
var loginURLRegex = regexp.MustCompile(`https://login\.microsoftonline\.com/\S+`)

// fallbackLoginRegex matches any HTTPS URL mentioning "login" in case the
// tool switches auth providers or endpoint hosts.
var fallbackLoginRegex = regexp.MustCompile(`https://\S*login\S*`)

// portRegexes are tried in order; the first capture that parses to a port
// strictly between 1000 and 65535 wins.
var portRegexes = []*regexp.Regexp{
	regexp.MustCompile(`localhost:(\d{2,5})`),
	regexp.MustCompile(`127\.0\.0\.1:(\d{2,5})`),
	regexp.MustCompile(`(?i)port\s+(\d{2,5})`),
	regexp.MustCompile(`(?i)server.*?(\d{4,5})`),
}

// ExtractLoginURL returns the first login URL found in text. The primary
// match is the Microsoft Entra host; any other HTTPS URL containing "login"
// is accepted as a fallback. A missing URL is a normal outcome, reported via
// the bool, not an error.
func ExtractLoginURL(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	if m := loginURLRegex.FindString(text); m != "" {
		return m, true
	}
	if m := fallbackLoginRegex.FindString(text); m != "" {
		return m, true
	}
	return "", false
}

// ExtractPort returns the port the auth server is listening on, or
// DefaultPort when no pattern yields a plausible port. Matches outside
// (1000, 65535) are skipped so that years, PIDs, and truncated numbers in
// the log don't win.
func ExtractPort(text string) int {
	for _, re := range portRegexes {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			port, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			if port > 1000 && port < 65535 {
				return port
			}
		}
	}
	return DefaultPort
}

// Env carries the container naming variables used to build forwarding URLs.
type Env struct {
	// CodespaceName is the codespace identifier ($CODESPACE_NAME).
	CodespaceName string
	// PreviewDomain is the port-forwarding domain identifier
	// ($GITHUB_CODESPACES_PORT_FORWARDING_DOMAIN).
	PreviewDomain string
}

// ForwardingURL maps a port bound inside the container to its publicly
// reachable URL. Outside a codespace it falls back to loopback.
func ForwardingURL(env Env, port int) string {
	p := strconv.Itoa(port)
	switch {
	case env.CodespaceName != "":
		return "https://" + env.CodespaceName + "-" + p + ".app.github.dev"
	case env.PreviewDomain != "":
		return "https://" + env.PreviewDomain + "-" + p + ".githubpreview.dev"
	default:
		return "http://localhost:" + p
	}
}

// Result is what a scan of the auth log yields. LoginURL is empty when no
// URL was found; Port always holds a usable value.
type Result struct {
	LoginURL      string
	Port          int
	ForwardingURL string
}

// Found reports whether the scan located a login URL.
func (r Result) Found() bool { return r.LoginURL != "" }

// Scan runs all extractions over one snapshot of log text.
func Scan(env Env, text string) Result {
	url, _ := ExtractLoginURL(text)
	port := ExtractPort(text)
	return Result{
		LoginURL:      url,
		Port:          port,
		ForwardingURL: ForwardingURL(env, port),
	}
}

// WaitForLogin polls the log file at path until a login URL shows up or the
// context expires. The detached auth process writes the file asynchronously,
// so the file may not exist yet on early polls; that is not an error. On
// timeout the last snapshot is scanned anyway so callers can report partial
// results (e.g. a port without a URL).
func WaitForLogin(ctx context.Context, env Env, path string, interval time.Duration) (Result, error) {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last string
	for {
		data, err := os.ReadFile(path) //nolint:gosec // Path comes from our own config.
		if err == nil {
			last = string(data)
			if _, ok := ExtractLoginURL(last); ok {
				return Scan(env, last), nil
			}
		}

		select {
		case <-ctx.Done():
			return Scan(env, last), ctx.Err()
		case <-ticker.C:
		}
	}
}
