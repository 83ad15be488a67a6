package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/serpcrawl/cache"
	"github.com/use-agent/serpcrawl/config"
	"github.com/use-agent/serpcrawl/crawler"
	"github.com/use-agent/serpcrawl/models"
)

// Searcher is the crawl engine surface the handler depends on.
type Searcher interface {
	Search(ctx context.Context, engine, query string, opts crawler.Options) *models.CrawlOutcome
}

// Search returns a handler for GET/POST /api/search.
//
// Orchestration flow:
//  1. Parse & validate request (query from URL params or JSON body).
//  2. Fan out one crawl per requested engine, each on its own session.
//  3. Race the join against the request timeout; on timeout the crawls
//     keep running on a detached context so their sessions are still
//     torn down, the caller just stops waiting.
func Search(s Searcher, crawlCfg config.CrawlConfig, cacheCfg config.CacheConfig, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SearchRequest
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.SearchResponse{
				Timestamp: time.Now().UTC().Format(time.RFC3339),
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "invalid or missing query parameter: " + err.Error(),
				},
			})
			return
		}
		req.Defaults()

		var engines []string
		switch req.Engine {
		case models.EngineAll:
			engines = []string{models.EngineGoogle, models.EngineBaidu}
		default:
			engines = []string{req.Engine}
		}

		// Crawls run on a context detached from the HTTP request so a
		// caller-side timeout (or disconnect) cannot orphan a browser
		// process mid-teardown. The operation deadline leaves room for
		// the navigation timeout plus a full challenge wait.
		opCtx, opCancel := context.WithTimeout(context.Background(),
			crawlCfg.RequestTimeout+crawlCfg.ChallengeWait)

		crawlOne := func(engine string) *models.EngineResult {
			key := cache.Key(engine, req.Query, req.MaxResults)
			if cached, hit := cc.Get(key, cacheCfg.MaxAge); hit {
				return cached
			}

			outcome := s.Search(opCtx, engine, req.Query, crawler.Options{
				Screenshot: *req.Screenshot,
				MaxResults: req.MaxResults,
			})
			result := models.EngineResultFrom(outcome)
			cc.Set(key, result)
			return result
		}

		done := make(chan *models.SearchResponse, 1)
		go func() {
			defer opCancel()

			resp := &models.SearchResponse{
				Query:     req.Query,
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			}

			// Engine pipelines are independent: no shared session, no
			// shared state, so they run concurrently and just join.
			results := make([]*models.EngineResult, len(engines))
			var wg sync.WaitGroup
			for i, engine := range engines {
				wg.Add(1)
				go func(i int, engine string) {
					defer wg.Done()
					results[i] = crawlOne(engine)
				}(i, engine)
			}
			wg.Wait()

			for i, engine := range engines {
				switch engine {
				case models.EngineGoogle:
					resp.Google = results[i]
				case models.EngineBaidu:
					resp.Baidu = results[i]
				}
			}
			done <- resp
		}()

		select {
		case resp := <-done:
			c.JSON(http.StatusOK, resp)
		case <-time.After(crawlCfg.RequestTimeout):
			c.JSON(http.StatusGatewayTimeout, models.SearchResponse{
				Query:     req.Query,
				Timestamp: time.Now().UTC().Format(time.RFC3339),
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeNavigationTimeout,
					Message: "request timed out",
				},
			})
		}
	}
}
