package crawler

import (
	"net/url"

	"github.com/use-agent/serpcrawl/models"
)

// MockResults returns the fixed synthetic placeholder list used when a
// live crawl cannot proceed. It is a first-class contract, not a debug
// artifact: callers detect synthetic data via the outcome's error, and
// the items always reference the original query text.
func MockResults(query string) []models.SearchResultItem {
	return []models.SearchResultItem{
		{
			Title:       "Search Results for: " + query,
			URL:         "https://example.com/search?q=" + url.QueryEscape(query),
			Description: "This is a mock search result because the browser could not be launched in the serverless environment.",
		},
		{
			Title:       "Unable to crawl live results",
			URL:         "https://example.com/error",
			Description: "Serverless environment restrictions prevent launching Chrome. Consider using a hosted solution with proper dependencies.",
		},
	}
}

// MockOutcome wraps the placeholder results with the error that caused
// the degradation. No screenshot is ever attached to a mock outcome.
func MockOutcome(query string, cause *models.CrawlError) *models.CrawlOutcome {
	return &models.CrawlOutcome{
		Results: MockResults(query),
		Err:     cause,
	}
}
