package models

// ResultEntry is one result as it appears on the wire.
type ResultEntry struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Content string `json:"content"`
}

// EngineResult is the per-engine block of a search response.
//
// Error is the sole signal that Data holds synthetic placeholder
// results rather than live ones.
type EngineResult struct {
	Data      []ResultEntry `json:"data"`
	Image     string        `json:"image"`
	Highlight []string      `json:"highlight"`
	Error     string        `json:"error,omitempty"`
}

// SearchResponse is the response for GET/POST /api/search.
type SearchResponse struct {
	Query     string        `json:"query"`
	Timestamp string        `json:"timestamp"`
	Google    *EngineResult `json:"google,omitempty"`
	Baidu     *EngineResult `json:"baidu,omitempty"`

	// Error is set only for request-level failures (invalid input,
	// request timeout); per-engine crawl failures ride inside the
	// engine blocks.
	Error *ErrorDetail `json:"error,omitempty"`
}

// EngineResultFrom converts a crawl outcome into the wire format.
func EngineResultFrom(o *CrawlOutcome) *EngineResult {
	r := &EngineResult{
		Data:      make([]ResultEntry, 0, len(o.Results)),
		Image:     o.Screenshot,
		Highlight: []string{},
	}
	for _, item := range o.Results {
		r.Data = append(r.Data, ResultEntry{
			Title:   item.Title,
			Link:    item.URL,
			Content: item.Description,
		})
	}
	if o.Err != nil {
		r.Error = o.Err.Message
	}
	return r
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"` // "healthy" or "degraded"
	Uptime  string `json:"uptime"`
	Mode    string `json:"mode"` // execution mode: "unrestricted" or "restricted"
	Version string `json:"version"`
}
