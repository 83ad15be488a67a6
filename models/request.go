package models

// Engine selector values accepted by the search API.
const (
	EngineGoogle = "google"
	EngineBaidu  = "baidu"
	EngineAll    = "all"
)

// SearchRequest is the payload for GET/POST /api/search.
type SearchRequest struct {
	// Query is the search term. Required.
	Query string `json:"query" form:"query" binding:"required"`

	// Engine selects which search engine(s) to crawl.
	// Allowed: "google" (default), "baidu", "all".
	Engine string `json:"engine,omitempty" form:"engine" binding:"omitempty,oneof=google baidu all"`

	// Screenshot controls whether a full-page screenshot is captured.
	// Default: true.
	Screenshot *bool `json:"screenshot,omitempty" form:"screenshot"`

	// MaxResults caps the number of extracted items per engine.
	// Default: 10. Max: 20.
	MaxResults int `json:"max_results,omitempty" form:"max_results" binding:"omitempty,min=1,max=20"`
}

// Defaults applies default values to unset fields.
func (r *SearchRequest) Defaults() {
	if r.Engine == "" {
		r.Engine = EngineGoogle
	}
	if r.Screenshot == nil {
		t := true
		r.Screenshot = &t
	}
	if r.MaxResults == 0 {
		r.MaxResults = 10
	}
}
