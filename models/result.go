package models

// SearchResultItem is one structured result extracted from a rendered
// results page. An item is only emitted when both Title and URL are
// non-empty after trimming; Description may be empty.
type SearchResultItem struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// CrawlOutcome is the result envelope of one crawl operation.
//
// Err set means Results are synthetic placeholders (or best-effort
// partial); Err nil does not guarantee non-empty Results — a page may
// legitimately yield none.
type CrawlOutcome struct {
	Results    []SearchResultItem
	Screenshot string // data-URI encoded image, empty when not captured
	Err        *CrawlError
}
