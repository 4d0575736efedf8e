// Package update checks GitHub for newer CLI releases and detects how this
// binary was installed so upgrades use the right package manager.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

const latestReleaseURL = "https://api.github.com/repos/srclight/cli/releases/latest"

// InstallMethod identifies the package manager that installed this binary.
type InstallMethod string

const (
	InstallMethodBrew    InstallMethod = "brew"
	InstallMethodNPM     InstallMethod = "npm"
	InstallMethodPNPM    InstallMethod = "pnpm"
	InstallMethodBun     InstallMethod = "bun"
	InstallMethodUnknown InstallMethod = "unknown"
)

// FetchLatest returns the tag and release-notes URL of the newest published
// release.
func FetchLatest(ctx context.Context) (tag string, releaseURL string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, latestReleaseURL, nil)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", "", fmt.Errorf("release lookup failed: %s", resp.Status)
	}

	var release struct {
		TagName string `json:"tag_name"`
		HTMLURL string `json:"html_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", "", fmt.Errorf("invalid release response: %w", err)
	}
	if release.TagName == "" {
		return "", "", fmt.Errorf("release response carried no tag")
	}
	return release.TagName, release.HTMLURL, nil
}

// IsNewerVersion reports whether latest is strictly newer than current.
// Both accept an optional "v" prefix.
func IsNewerVersion(current, latest string) (bool, error) {
	cur, err := semver.NewVersion(strings.TrimPrefix(current, "v"))
	if err != nil {
		return false, fmt.Errorf("invalid current version %q: %w", current, err)
	}
	lat, err := semver.NewVersion(strings.TrimPrefix(latest, "v"))
	if err != nil {
		return false, fmt.Errorf("invalid latest version %q: %w", latest, err)
	}
	return lat.GreaterThan(cur), nil
}

// DetectInstallMethod inspects the running binary's path to figure out which
// package manager owns it. The resolved path is returned either way so
// callers can include it in manual-upgrade instructions.
func DetectInstallMethod() (InstallMethod, string) {
	binaryPath, err := os.Executable()
	if err != nil {
		return InstallMethodUnknown, ""
	}
	if resolved, err := filepath.EvalSymlinks(binaryPath); err == nil {
		binaryPath = resolved
	}

	for _, r := range installMethodRules() {
		if r.check(binaryPath) {
			return r.method, binaryPath
		}
	}
	return InstallMethodUnknown, binaryPath
}

type installMethodRule struct {
	method InstallMethod
	check  func(path string) bool
}

// installMethodRules is ordered: bun and pnpm paths can look npm-ish, so they
// are checked first.
func installMethodRules() []installMethodRule {
	return []installMethodRule{
		{method: InstallMethodBun, check: pathMatchesBun},
		{method: InstallMethodPNPM, check: pathMatchesPNPM},
		{method: InstallMethodNPM, check: pathMatchesNPM},
		{method: InstallMethodBrew, check: pathMatchesHomebrew},
	}
}

func pathMatchesBun(path string) bool {
	return strings.Contains(path, "/.bun/")
}

func pathMatchesPNPM(path string) bool {
	return strings.Contains(path, "/pnpm/") || strings.Contains(path, "/.pnpm/")
}

func pathMatchesNPM(path string) bool {
	return strings.Contains(path, "/.npm-global/") ||
		strings.Contains(path, "/.npm/") ||
		strings.Contains(path, "/node_modules/") ||
		strings.Contains(path, "/npm/")
}

func pathMatchesHomebrew(path string) bool {
	return strings.Contains(path, "/homebrew/") ||
		strings.Contains(path, "/Cellar/") ||
		strings.Contains(path, "/.linuxbrew/")
}

func suggestUpgradeCommandForMethod(method InstallMethod) string {
	switch method {
	case InstallMethodNPM:
		return "npm i -g @srclight/cli@latest"
	case InstallMethodPNPM:
		return "pnpm add -g @srclight/cli@latest"
	case InstallMethodBun:
		return "bun add -g @srclight/cli@latest"
	default:
		return "brew upgrade srclight/tap/srclight"
	}
}

// SuggestUpgradeCommand returns the upgrade command for however this binary
// was installed.
func SuggestUpgradeCommand() string {
	method, _ := DetectInstallMethod()
	return suggestUpgradeCommandForMethod(method)
}
