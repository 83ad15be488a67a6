// Package crawler implements the crawl pipeline: one shared control
// flow parameterized by per-engine profiles, with graceful degradation
// to mock results when a live browser is not available.
package crawler

import (
	"fmt"
	"net/url"

	"github.com/andybalholm/cascadia"
)

// EngineProfile is the immutable per-search-engine configuration.
// Engine-specific behavior lives here as data; the pipeline itself is
// engine-agnostic.
type EngineProfile struct {
	// Name is the engine identifier ("google", "baidu").
	Name string

	// searchURL is a format template taking the escaped query.
	searchURL string

	// HomeURL is the engine's landing page, used by the typing-
	// simulation navigation strategy.
	HomeURL string

	// InputSelectors are the search box candidates for typing
	// simulation, tried in order.
	InputSelectors []string

	// ReadySelectors are the "results loaded" candidates, raced with a
	// short shared timeout. A miss is tolerated: result markup varies
	// by region and experiment.
	ReadySelectors []string

	// ChallengeTexts are body-text fragments indicating a bot challenge.
	ChallengeTexts []string

	// ChallengeSelector matches a challenge widget element, if any.
	ChallengeSelector string

	// Strategies is the extraction chain, most structure-specific first.
	Strategies []ExtractStrategy

	// SupportsTyping marks profiles that can drive the engine's own
	// search box instead of navigating straight to the results URL.
	SupportsTyping bool
}

// SearchURL builds the direct results URL for a query.
func (p *EngineProfile) SearchURL(query string) string {
	return fmt.Sprintf(p.searchURL, url.QueryEscape(query))
}

// Validate compiles every selector in the profile. A failure here is a
// programming error in the profile data, not a runtime condition.
func (p *EngineProfile) Validate() error {
	groups := [][]string{p.InputSelectors, p.ReadySelectors}
	for _, group := range groups {
		for _, sel := range group {
			if _, err := cascadia.ParseGroup(sel); err != nil {
				return fmt.Errorf("profile %s: selector %q: %w", p.Name, sel, err)
			}
		}
	}
	if p.ChallengeSelector != "" {
		if _, err := cascadia.ParseGroup(p.ChallengeSelector); err != nil {
			return fmt.Errorf("profile %s: challenge selector %q: %w", p.Name, p.ChallengeSelector, err)
		}
	}
	return nil
}

// Profiles is the process-wide read-only engine registry, initialized
// once at startup and never mutated.
var Profiles = map[string]*EngineProfile{
	"google": {
		Name:           "google",
		searchURL:      "https://www.google.com/search?q=%s",
		HomeURL:        "https://www.google.com",
		InputSelectors: []string{`input[name="q"]`, `textarea[name="q"]`},
		ReadySelectors: []string{"div.g", "[data-sokoban-grid]", ".main", "h3", "a[ping]"},
		ChallengeTexts:    []string{"CAPTCHA", "unusual traffic"},
		ChallengeSelector: "#recaptcha",
		Strategies: []ExtractStrategy{
			{Name: "cite-walk", Fn: googleCiteStrategy},
			{Name: "result-container", Fn: googleContainerStrategy},
			{Name: "heading-fallback", Fn: headingFallbackStrategy},
		},
		SupportsTyping: true,
	},
	"baidu": {
		Name:           "baidu",
		searchURL:      "https://www.baidu.com/s?wd=%s",
		HomeURL:        "https://www.baidu.com",
		ReadySelectors: []string{".result", ".c-container", "h3"},
		ChallengeTexts: []string{"百度安全验证"},
		Strategies: []ExtractStrategy{
			{Name: "result-container", Fn: baiduContainerStrategy},
			{Name: "title-class", Fn: baiduTitleClassStrategy},
			{Name: "heading-fallback", Fn: headingFallbackStrategy},
		},
	},
}

// ValidateProfiles checks every registered profile; called at startup.
func ValidateProfiles() error {
	for _, p := range Profiles {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}
