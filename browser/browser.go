package browser

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/serpcrawl/config"
	"github.com/use-agent/serpcrawl/models"
	"github.com/use-agent/serpcrawl/stealth"
)

// ScreenshotOptions control full-page capture.
type ScreenshotOptions struct {
	Format  string // "jpeg" (default) or "png"
	Quality int    // JPEG quality 1-100; ignored for PNG
}

// Provisioner launches one browser process per Provision call. Sessions
// are never pooled: each crawl operation gets its own process, cookies,
// and fingerprint state.
type Provisioner struct {
	cfg      config.BrowserConfig
	locators []Locator
}

// NewProvisioner creates a Provisioner with the default locator chain.
func NewProvisioner(cfg config.BrowserConfig) *Provisioner {
	return &Provisioner{
		cfg:      cfg,
		locators: DefaultLocators(cfg.BrowserBin),
	}
}

// Provision resolves an executable, launches a browser, opens a page
// with the fixed viewport, and applies stealth before any navigation.
//
// A BROWSER_UNAVAILABLE error is the expected failure here, covering
// both "no executable path resolves" and "the launch call itself failed".
func (p *Provisioner) Provision(ctx context.Context) (*Session, error) {
	bin, source, err := ResolveExecutable(p.locators)
	if err != nil {
		return nil, models.NewCrawlError(models.ErrCodeBrowserUnavailable,
			"no browser executable found", err)
	}
	slog.Debug("browser executable resolved", "bin", bin, "source", source)

	l := launcher.New().
		Bin(bin).
		Headless(p.cfg.Headless).
		NoSandbox(true)

	l.Set(flags.Flag("disable-setuid-sandbox"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-accelerated-2d-canvas"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("no-zygote"))
	l.Set(flags.Flag("disable-gpu"))
	l.Set(flags.Flag("hide-scrollbars"))
	l.Set(flags.Flag("mute-audio"))
	l.Set(flags.Flag("disable-background-networking"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-breakpad"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("disable-features"), "TranslateUI")
	l.Set(flags.Flag("disable-ipc-flooding-protection"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("window-size"), fmt.Sprintf("%d,%d", p.cfg.ViewportWidth, p.cfg.ViewportHeight))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewCrawlError(models.ErrCodeBrowserUnavailable,
			"failed to launch browser", err)
	}

	// The browser handle is deliberately not bound to ctx: Close must
	// still work after the operation's deadline has passed.
	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, models.NewCrawlError(models.ErrCodeBrowserUnavailable,
			"failed to connect to browser", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Close()
		l.Kill()
		return nil, models.NewCrawlError(models.ErrCodeBrowserUnavailable,
			"failed to open page", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             p.cfg.ViewportWidth,
		Height:            p.cfg.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		slog.Warn("failed to set viewport, using browser default", "error", err)
	}

	ua, err := stealth.Apply(page)
	if err != nil {
		_ = page.Close()
		_ = b.Close()
		l.Kill()
		return nil, models.NewCrawlError(models.ErrCodeBrowserUnavailable,
			"failed to apply stealth configuration", err)
	}

	return &Session{
		browser:   b,
		launcher:  l,
		page:      page,
		userAgent: ua,
	}, nil
}

// Session is one browser process plus one page, exclusively owned by a
// single crawl operation. Close must be called on every exit path.
type Session struct {
	browser   *rod.Browser
	launcher  *launcher.Launcher
	page      *rod.Page
	userAgent string
}

// UserAgent returns the user agent the stealth layer applied.
func (s *Session) UserAgent() string { return s.userAgent }

// Navigate loads the URL and waits for network activity to go almost
// idle, bounded by ctx. Context expiry maps to NAVIGATION_TIMEOUT.
func (s *Session) Navigate(ctx context.Context, url string) error {
	p := s.page.Context(ctx)

	// The waiter must be registered before Navigate or in-flight
	// lifecycle events would be missed and the wait would return early.
	wait := p.WaitNavigation(proto.PageLifecycleEventNameNetworkAlmostIdle)
	if err := p.Navigate(url); err != nil {
		return navError(ctx, err)
	}
	wait()
	if err := ctx.Err(); err != nil {
		return navError(ctx, err)
	}

	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("DOM did not stabilise, proceeding with current state", "error", err)
	}
	return nil
}

// WaitAny races the candidate selectors against each other with one
// shared deadline and reports whether any appeared. A miss is expected
// on layout variants and is tolerated by callers.
func (s *Session) WaitAny(ctx context.Context, selectors []string, timeout time.Duration) bool {
	if len(selectors) == 0 {
		return false
	}
	p := s.page.Context(ctx).Timeout(timeout)
	race := p.Race()
	for _, sel := range selectors {
		race = race.Element(sel)
	}
	_, err := race.Do()
	return err == nil
}

// TypeSearch drives the engine's own search box: it focuses the first
// input that exists, types the query character by character with
// randomized delays, pauses, submits, and waits for the results
// navigation to settle.
func (s *Session) TypeSearch(ctx context.Context, inputSelectors []string, query string) error {
	p := s.page.Context(ctx)

	var el *rod.Element
	for _, sel := range inputSelectors {
		found, e, err := p.Has(sel)
		if err == nil && found {
			el = e
			break
		}
	}
	if el == nil {
		return models.NewCrawlError(models.ErrCodeNavigation, "search input not found", nil)
	}

	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return navError(ctx, err)
	}
	for _, r := range query {
		if err := p.InsertText(string(r)); err != nil {
			return navError(ctx, err)
		}
		if err := randomPause(ctx, 30*time.Millisecond, 130*time.Millisecond); err != nil {
			return navError(ctx, err)
		}
	}
	if err := randomPause(ctx, 300*time.Millisecond, 800*time.Millisecond); err != nil {
		return navError(ctx, err)
	}

	wait := p.WaitNavigation(proto.PageLifecycleEventNameNetworkAlmostIdle)
	if err := p.Keyboard.Press(input.Enter); err != nil {
		return navError(ctx, err)
	}
	wait()
	return navError(ctx, ctx.Err())
}

// BodyText returns the page body's rendered text.
func (s *Session) BodyText() (string, error) {
	res, err := s.page.Eval(`() => document.body ? document.body.innerText : ''`)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

// Has reports whether an element matching the selector exists.
func (s *Session) Has(selector string) bool {
	found, _, err := s.page.Has(selector)
	return err == nil && found
}

// HTML returns the rendered page HTML.
func (s *Session) HTML() (string, error) {
	return s.page.HTML()
}

// ScrollThrough performs a bounded incremental scroll to the document
// bottom (forcing lazy content to render) and returns to the top.
func (s *Session) ScrollThrough(ctx context.Context) error {
	const (
		step     = 400.0
		maxSteps = 30
	)
	p := s.page.Context(ctx)

	for i := 0; i < maxSteps; i++ {
		res, err := p.Eval(`() => window.scrollY + window.innerHeight >= document.body.scrollHeight - 100`)
		if err != nil {
			return err
		}
		if res.Value.Bool() {
			break
		}
		if err := p.Mouse.Scroll(0, step, 1); err != nil {
			return err
		}
		if err := sleep(ctx, 100*time.Millisecond); err != nil {
			return err
		}
	}

	_, err := p.Eval(`() => window.scrollTo(0, 0)`)
	return err
}

// Screenshot captures the full scrollable page and returns it as a
// data-URI string with the matching MIME prefix.
func (s *Session) Screenshot(opts ScreenshotOptions) (string, error) {
	format := opts.Format
	if format == "" {
		format = "jpeg"
	}

	req := &proto.PageCaptureScreenshot{}
	switch format {
	case "png":
		req.Format = proto.PageCaptureScreenshotFormatPng
	default:
		format = "jpeg"
		req.Format = proto.PageCaptureScreenshotFormatJpeg
		quality := opts.Quality
		if quality <= 0 || quality > 100 {
			quality = 40
		}
		req.Quality = &quality
	}

	bin, err := s.page.Screenshot(true, req)
	if err != nil {
		return "", err
	}
	return "data:image/" + format + ";base64," + base64.StdEncoding.EncodeToString(bin), nil
}

// Close tears the session down: page, browser connection, and the
// underlying process. Best effort; it is safe on partially-failed
// sessions and must run on every crawl exit path.
func (s *Session) Close() error {
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			slog.Debug("page close failed", "error", err)
		}
	}
	err := s.browser.Close()
	s.launcher.Kill()
	return err
}

// navError classifies a navigation failure: context expiry becomes
// NAVIGATION_TIMEOUT, everything else NAVIGATION_FAILED.
func navError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return models.NewCrawlError(models.ErrCodeNavigationTimeout,
			"navigation timed out", err)
	}
	return models.NewCrawlError(models.ErrCodeNavigation,
		"navigation failed", err)
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func randomPause(ctx context.Context, min, max time.Duration) error {
	return sleep(ctx, min+time.Duration(rand.Int63n(int64(max-min))))
}
