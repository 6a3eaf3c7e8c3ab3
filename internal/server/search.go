// file: internal/server/search.go
// version: 1.1.0
// guid: 6a8b0c2d-4e5f-4a6b-9c7d-8e0f2a4b6c8d

package server

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/absmeta/metadata-server/internal/metadata"
	"github.com/absmeta/metadata-server/internal/metrics"
	"github.com/absmeta/metadata-server/internal/provider"
)

// handleSearch runs the search orchestration: cache lookup, provider
// invocation on a miss, cache population, response. The cache read honors
// the request's bypass flag through the request context; the write happens
// either way so a later non-bypassed read benefits.
func (s *Server) handleSearch(c *gin.Context) {
	p := c.MustGet(ctxKeyProvider).(provider.Provider)
	params := c.MustGet(ctxKeyParsedParams).(provider.ParsedParameters)

	title := c.Query("title")
	if title == "" {
		RespondWithBadRequest(c, "Missing required query parameter: title")
		return
	}

	var author *string
	if a := c.Query("author"); a != "" {
		author = &a
	}

	cfg := p.Config()
	paramsHash := metadata.ParamsHash(params)
	ctx := c.Request.Context()

	payload, hit, err := s.store.GetSearchCache(ctx, cfg.ID, title, author, paramsHash)
	if err != nil {
		log.Printf("[WARN] search cache read failed for %s: %v", cfg.ID, err)
	}
	if hit {
		var matches []metadata.BookMetadata
		if err := json.Unmarshal([]byte(payload), &matches); err != nil {
			// A payload we cannot decode is a miss, never a user-visible error.
			log.Printf("[WARN] corrupt search cache entry for %s, refetching: %v", cfg.ID, err)
		} else {
			metrics.IncCacheHit("search")
			c.JSON(http.StatusOK, metadata.SearchResult{Matches: matches})
			return
		}
	}
	metrics.IncCacheMiss("search")

	authorStr := ""
	if author != nil {
		authorStr = *author
	}

	metrics.IncSearchStarted(cfg.ID)
	start := time.Now()
	matches, err := p.Search(ctx, title, authorStr, params)
	if err != nil {
		// Upstream failures surface as this provider's failure, not as an
		// empty result.
		metrics.IncSearchFailed(cfg.ID)
		RespondWithInternalError(c, err.Error())
		return
	}
	metrics.ObserveSearchDuration(cfg.ID, time.Since(start))

	if matches == nil {
		matches = []metadata.BookMetadata{}
	}

	if encoded, err := json.Marshal(matches); err != nil {
		log.Printf("[WARN] failed to encode matches for caching: %v", err)
	} else if err := s.store.SetSearchCache(cfg.ID, title, author, paramsHash, string(encoded)); err != nil {
		log.Printf("[WARN] search cache write failed for %s: %v", cfg.ID, err)
	}

	c.JSON(http.StatusOK, metadata.SearchResult{Matches: matches})
}
