package crawler

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/use-agent/serpcrawl/browser"
	"github.com/use-agent/serpcrawl/config"
	"github.com/use-agent/serpcrawl/models"
)

// Driver is the browser session surface the pipeline drives. One
// driver is exclusively owned by one crawl operation and closed on
// every exit path.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	WaitAny(ctx context.Context, selectors []string, timeout time.Duration) bool
	TypeSearch(ctx context.Context, inputSelectors []string, query string) error
	BodyText() (string, error)
	Has(selector string) bool
	HTML() (string, error)
	ScrollThrough(ctx context.Context) error
	Screenshot(opts browser.ScreenshotOptions) (string, error)
	UserAgent() string
	Close() error
}

var _ Driver = (*browser.Session)(nil)

// ProvisionFunc yields a fresh session for one crawl operation.
type ProvisionFunc func(ctx context.Context) (Driver, error)

// RodProvisioner adapts the rod-backed Provisioner to ProvisionFunc.
func RodProvisioner(p *browser.Provisioner) ProvisionFunc {
	return func(ctx context.Context) (Driver, error) {
		s, err := p.Provision(ctx)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// Options are per-operation knobs from the caller.
type Options struct {
	// Screenshot requests a full-page capture of the results.
	Screenshot bool

	// MaxResults caps the extracted item count. <= 0 means 10.
	MaxResults int
}

// Crawler runs the engine-parameterized crawl pipeline and decides,
// per environment and per failure point, whether to attempt a real
// crawl or degrade to synthetic results.
type Crawler struct {
	cfg       config.CrawlConfig
	provision ProvisionFunc
}

// New creates a Crawler. The execution mode inside cfg is fixed at
// construction; the crawler never consults the environment itself.
func New(cfg config.CrawlConfig, provision ProvisionFunc) *Crawler {
	return &Crawler{cfg: cfg, provision: provision}
}

// Mode reports the execution mode the crawler was built with.
func (c *Crawler) Mode() config.ExecutionMode { return c.cfg.Mode }

// Search crawls the named engine. Unknown engine names are a caller
// bug and yield an INTERNAL_ERROR outcome rather than mock data.
func (c *Crawler) Search(ctx context.Context, engine, query string, opts Options) *models.CrawlOutcome {
	profile, ok := Profiles[engine]
	if !ok {
		return &models.CrawlOutcome{
			Err: models.NewCrawlError(models.ErrCodeInternal, "unknown engine: "+engine, nil),
		}
	}
	return c.Crawl(ctx, profile, query, opts)
}

// Crawl is the degradation-controlling entry point for one engine.
// Every failure in the crawl taxonomy degrades to a mock outcome
// carrying the originating error; nothing propagates as a fault.
func (c *Crawler) Crawl(ctx context.Context, profile *EngineProfile, query string, opts Options) *models.CrawlOutcome {
	if opts.MaxResults <= 0 {
		opts.MaxResults = 10
	}

	if c.cfg.Mode == config.ModeRestricted {
		slog.Info("restricted environment, skipping browser launch",
			"engine", profile.Name, "query", query)
		return MockOutcome(query, models.NewCrawlError(models.ErrCodeEnvironmentRestricted,
			"Browser could not be launched in serverless environment. Using mock results instead.", nil))
	}

	slog.Info("crawling", "engine", profile.Name, "query", query)

	d, err := c.provision(ctx)
	if err != nil {
		slog.Warn("browser unavailable, degrading to mock results",
			"engine", profile.Name, "error", err)
		return MockOutcome(query, asCrawlError(err, models.ErrCodeBrowserUnavailable))
	}
	// Guaranteed release: the session closes on success, failure, and
	// panic alike. Close errors are logged and swallowed.
	defer func() {
		if cerr := d.Close(); cerr != nil {
			slog.Debug("session close failed", "engine", profile.Name, "error", cerr)
		}
	}()

	outcome, err := c.run(ctx, d, profile, query, opts)
	if err != nil {
		slog.Warn("crawl failed, degrading to mock results",
			"engine", profile.Name, "error", err)
		return MockOutcome(query, asCrawlError(err, models.ErrCodeNavigation))
	}

	slog.Info("crawl complete", "engine", profile.Name, "results", len(outcome.Results))
	return outcome
}

// run drives one provisioned session through navigation, challenge
// detection, screenshot, and extraction.
func (c *Crawler) run(ctx context.Context, d Driver, profile *EngineProfile, query string, opts Options) (*models.CrawlOutcome, error) {
	navCtx, cancel := context.WithTimeout(ctx, c.cfg.NavigationTimeout)
	defer cancel()

	if c.cfg.SimulateTyping && profile.SupportsTyping {
		if err := d.Navigate(navCtx, profile.HomeURL); err != nil {
			return nil, err
		}
		if err := d.TypeSearch(navCtx, profile.InputSelectors, query); err != nil {
			return nil, err
		}
	} else {
		if err := d.Navigate(navCtx, profile.SearchURL(query)); err != nil {
			return nil, err
		}
	}

	if !d.WaitAny(ctx, profile.ReadySelectors, c.cfg.SelectorTimeout) {
		// Expected on layout variants; extraction proceeds regardless.
		slog.Info("results selector timeout, continuing anyway", "engine", profile.Name)
	}

	if err := c.checkChallenge(ctx, d, profile); err != nil {
		return nil, err
	}

	outcome := &models.CrawlOutcome{}

	if opts.Screenshot {
		if err := d.ScrollThrough(ctx); err != nil {
			slog.Debug("auto-scroll failed", "engine", profile.Name, "error", err)
		} else if err := sleep(ctx, c.cfg.SettleDelay); err != nil {
			return nil, models.NewCrawlError(models.ErrCodeNavigationTimeout, "crawl timed out while settling", err)
		}

		shot, err := d.Screenshot(browser.ScreenshotOptions{Quality: c.cfg.ScreenshotQuality})
		if err != nil {
			// Best effort only: a failed capture never aborts the crawl.
			slog.Warn("screenshot capture failed", "engine", profile.Name, "error", err)
		} else {
			outcome.Screenshot = shot
		}
	}

	html, err := d.HTML()
	if err != nil {
		return nil, err
	}
	outcome.Results = Extract(html, profile, opts.MaxResults)
	return outcome, nil
}

// checkChallenge applies the profile's bot-challenge predicate. On
// detection it pauses for out-of-band resolution (a human solving the
// interstitial on a headed browser), re-checks once, and fails
// terminally if still blocked. Challenges are never retried.
func (c *Crawler) checkChallenge(ctx context.Context, d Driver, profile *EngineProfile) error {
	if !c.challenged(d, profile) {
		return nil
	}

	slog.Warn("bot challenge detected, waiting for resolution",
		"engine", profile.Name, "wait", c.cfg.ChallengeWait)
	if err := sleep(ctx, c.cfg.ChallengeWait); err != nil {
		return models.NewCrawlError(models.ErrCodeChallengeDetected,
			"bot challenge was not resolved within the wait window", err)
	}

	if c.challenged(d, profile) {
		return models.NewCrawlError(models.ErrCodeChallengeDetected,
			"bot challenge was not resolved within the wait window", nil)
	}
	return nil
}

func (c *Crawler) challenged(d Driver, profile *EngineProfile) bool {
	if profile.ChallengeSelector != "" && d.Has(profile.ChallengeSelector) {
		return true
	}
	if len(profile.ChallengeTexts) == 0 {
		return false
	}
	body, err := d.BodyText()
	if err != nil {
		return false
	}
	for _, fragment := range profile.ChallengeTexts {
		if fragment != "" && strings.Contains(body, fragment) {
			return true
		}
	}
	return false
}

// asCrawlError passes typed errors through and wraps anything else
// under the given fallback code.
func asCrawlError(err error, fallbackCode string) *models.CrawlError {
	var ce *models.CrawlError
	if errors.As(err, &ce) {
		return ce
	}
	return models.NewCrawlError(fallbackCode, err.Error(), err)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
