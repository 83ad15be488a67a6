package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/use-agent/serpcrawl/cache"
	"github.com/use-agent/serpcrawl/config"
	"github.com/use-agent/serpcrawl/crawler"
	"github.com/use-agent/serpcrawl/models"
)

// stubSearcher returns a canned live outcome per engine and records the
// calls it receives.
type stubSearcher struct {
	mu    sync.Mutex
	calls []stubCall
	delay time.Duration
}

type stubCall struct {
	engine string
	query  string
	opts   crawler.Options
}

func (s *stubSearcher) Search(ctx context.Context, engine, query string, opts crawler.Options) *models.CrawlOutcome {
	s.mu.Lock()
	s.calls = append(s.calls, stubCall{engine: engine, query: query, opts: opts})
	s.mu.Unlock()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
		}
	}
	return &models.CrawlOutcome{
		Results: []models.SearchResultItem{
			{Title: engine + " result", URL: "https://" + engine + ".example.com/", Description: "snippet"},
		},
		Screenshot: "data:image/jpeg;base64,xxxx",
	}
}

func (s *stubSearcher) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Mode: "test"},
		Crawl: config.CrawlConfig{
			Mode:           config.ModeUnrestricted,
			RequestTimeout: 300 * time.Millisecond,
			ChallengeWait:  100 * time.Millisecond,
		},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
		Cache:     config.CacheConfig{MaxEntries: 10},
	}
}

func serve(t *testing.T, cfg *config.Config, s *stubSearcher, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	r := NewRouter(s, cfg, cache.New(cfg.Cache.MaxEntries), time.Now())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeSearch(t *testing.T, w *httptest.ResponseRecorder) *models.SearchResponse {
	t.Helper()
	var resp models.SearchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v\nbody: %s", err, w.Body.String())
	}
	return &resp
}

func TestSearchMissingQuery(t *testing.T) {
	w := serve(t, testConfig(), &stubSearcher{},
		httptest.NewRequest(http.MethodGet, "/api/search", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	resp := decodeSearch(t, w)
	if resp.Error == nil || resp.Error.Code != models.ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %+v", resp.Error)
	}
}

func TestSearchInvalidEngine(t *testing.T) {
	w := serve(t, testConfig(), &stubSearcher{},
		httptest.NewRequest(http.MethodGet, "/api/search?query=golang&engine=bing", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unsupported engine, got %d", w.Code)
	}
}

func TestSearchDefaultsToGoogle(t *testing.T) {
	s := &stubSearcher{}
	w := serve(t, testConfig(), s,
		httptest.NewRequest(http.MethodGet, "/api/search?query=golang", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeSearch(t, w)
	if resp.Query != "golang" {
		t.Errorf("query not echoed: %q", resp.Query)
	}
	if resp.Google == nil {
		t.Fatal("expected a google block")
	}
	if resp.Baidu != nil {
		t.Error("baidu block must be absent for the default engine")
	}
	if len(resp.Google.Data) != 1 || resp.Google.Data[0].Link != "https://google.example.com/" {
		t.Errorf("unexpected google data: %+v", resp.Google.Data)
	}
	if resp.Google.Image == "" {
		t.Error("screenshot defaults to on, image should be set")
	}

	if got := s.callCount(); got != 1 {
		t.Fatalf("expected 1 crawl, got %d", got)
	}
	if call := s.calls[0]; call.engine != "google" || !call.opts.Screenshot || call.opts.MaxResults != 10 {
		t.Errorf("unexpected crawl call: %+v", call)
	}
}

func TestSearchAllEngines(t *testing.T) {
	s := &stubSearcher{}
	w := serve(t, testConfig(), s,
		httptest.NewRequest(http.MethodGet, "/api/search?query=golang&engine=all&screenshot=false", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decodeSearch(t, w)
	if resp.Google == nil || resp.Baidu == nil {
		t.Fatalf("expected both engine blocks, got google=%v baidu=%v", resp.Google != nil, resp.Baidu != nil)
	}
	if got := s.callCount(); got != 2 {
		t.Errorf("expected 2 crawls, got %d", got)
	}
	for _, call := range s.calls {
		if call.opts.Screenshot {
			t.Errorf("%s: screenshot=false was not honored", call.engine)
		}
	}
}

func TestSearchPOSTBody(t *testing.T) {
	body := strings.NewReader(`{"query":"golang tutorial","engine":"baidu","max_results":5}`)
	req := httptest.NewRequest(http.MethodPost, "/api/search", body)
	req.Header.Set("Content-Type", "application/json")

	s := &stubSearcher{}
	w := serve(t, testConfig(), s, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeSearch(t, w)
	if resp.Baidu == nil || resp.Google != nil {
		t.Error("expected only a baidu block")
	}
	if call := s.calls[0]; call.query != "golang tutorial" || call.opts.MaxResults != 5 {
		t.Errorf("unexpected crawl call: %+v", call)
	}
}

func TestSearchTimeout(t *testing.T) {
	s := &stubSearcher{delay: 2 * time.Second}
	w := serve(t, testConfig(), s,
		httptest.NewRequest(http.MethodGet, "/api/search?query=golang", nil))

	if w.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d", w.Code)
	}
	resp := decodeSearch(t, w)
	if resp.Error == nil || resp.Error.Code != models.ErrCodeNavigationTimeout {
		t.Errorf("expected NAVIGATION_TIMEOUT, got %+v", resp.Error)
	}
}

func TestSearchCachesLiveResults(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.MaxAge = time.Minute

	s := &stubSearcher{}
	r := NewRouter(s, cfg, cache.New(cfg.Cache.MaxEntries), time.Now())

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/search?query=golang", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}

	if got := s.callCount(); got != 1 {
		t.Errorf("second identical request should hit the cache, crawls=%d", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	w := serve(t, testConfig(), &stubSearcher{},
		httptest.NewRequest(http.MethodOptions, "/api/search", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on preflight, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin: got %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "POST") {
		t.Errorf("Allow-Methods: got %q", got)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	w := serve(t, testConfig(), &stubSearcher{},
		httptest.NewRequest(http.MethodPut, "/api/search?query=golang", nil))

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	w := serve(t, testConfig(), &stubSearcher{},
		httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp models.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "healthy" || resp.Mode != "unrestricted" {
		t.Errorf("unexpected health payload: %+v", resp)
	}

	cfg := testConfig()
	cfg.Crawl.Mode = config.ModeRestricted
	w = serve(t, cfg, &stubSearcher{},
		httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "degraded" || resp.Mode != "restricted" {
		t.Errorf("restricted mode must report degraded, got %+v", resp)
	}
}

func TestAuth(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.AuthConfig{Enabled: true, APIKeys: []string{"secret-key"}}

	s := &stubSearcher{}
	r := NewRouter(s, cfg, cache.New(cfg.Cache.MaxEntries), time.Now())

	do := func(mutate func(*http.Request)) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/search?query=golang", nil)
		if mutate != nil {
			mutate(req)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	if w := do(nil); w.Code != http.StatusUnauthorized {
		t.Errorf("missing key: expected 401, got %d", w.Code)
	}
	if w := do(func(req *http.Request) { req.Header.Set("X-API-Key", "wrong") }); w.Code != http.StatusUnauthorized {
		t.Errorf("invalid key: expected 401, got %d", w.Code)
	}
	if w := do(func(req *http.Request) { req.Header.Set("X-API-Key", "secret-key") }); w.Code != http.StatusOK {
		t.Errorf("X-API-Key: expected 200, got %d", w.Code)
	}
	if w := do(func(req *http.Request) { req.Header.Set("Authorization", "Bearer secret-key") }); w.Code != http.StatusOK {
		t.Errorf("bearer token: expected 200, got %d", w.Code)
	}

	// Health stays open regardless of auth.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("health must not require auth, got %d", w.Code)
	}
}
