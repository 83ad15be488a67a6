// Package browser provisions headless Chromium sessions: it resolves an
// executable across environments, launches a configured process, and
// wraps one page in a Session owned by a single crawl operation.
package browser

import (
	"errors"
	"os"
	"runtime"

	"github.com/go-rod/rod/lib/launcher"
)

// ErrUnavailable means no browser executable could be resolved or the
// launch itself failed. It is an expected outcome, not a bug: callers
// degrade to mock results on it.
var ErrUnavailable = errors.New("no usable browser executable found")

// Locator resolves a browser executable path for one class of
// environment. Locators are tried in order; the first hit wins.
type Locator interface {
	// Name identifies the locator in logs.
	Name() string

	// Resolve returns an executable path and whether one was found.
	Resolve() (string, bool)
}

// ExplicitPath resolves to a configured path, verified to exist.
type ExplicitPath struct {
	Path string
}

func (l ExplicitPath) Name() string { return "explicit-path" }

func (l ExplicitPath) Resolve() (string, bool) {
	if l.Path == "" {
		return "", false
	}
	if _, err := os.Stat(l.Path); err != nil {
		return "", false
	}
	return l.Path, true
}

// PackagedBinary resolves the platform-packaged Chromium that rod's
// launcher knows how to find (download cache, well-known system spots).
type PackagedBinary struct{}

func (l PackagedBinary) Name() string { return "packaged-binary" }

func (l PackagedBinary) Resolve() (string, bool) {
	return launcher.LookPath()
}

// LocalInstallProbe checks a small set of known desktop install paths
// keyed by operating system.
type LocalInstallProbe struct {
	// OS is a GOOS value; empty means runtime.GOOS.
	OS string
}

func (l LocalInstallProbe) Name() string { return "local-install" }

var installPaths = map[string][]string{
	"windows": {
		`C:\Program Files\Google\Chrome\Application\chrome.exe`,
		`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
		`C:\Program Files (x86)\Microsoft\Edge\Application\msedge.exe`,
		`C:\Program Files\Microsoft\Edge\Application\msedge.exe`,
	},
	"darwin": {
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	},
	"linux": {
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
	},
}

func (l LocalInstallProbe) Resolve() (string, bool) {
	goos := l.OS
	if goos == "" {
		goos = runtime.GOOS
	}
	for _, path := range installPaths[goos] {
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// ResolveExecutable walks the locator chain and returns the first
// resolved path along with the locator that produced it.
func ResolveExecutable(locators []Locator) (path, source string, err error) {
	for _, l := range locators {
		if p, ok := l.Resolve(); ok {
			return p, l.Name(), nil
		}
	}
	return "", "", ErrUnavailable
}

// DefaultLocators is the standard resolution order: an explicit
// override first, then the packaged binary, then local desktop installs.
func DefaultLocators(explicitPath string) []Locator {
	return []Locator{
		ExplicitPath{Path: explicitPath},
		PackagedBinary{},
		LocalInstallProbe{},
	}
}
