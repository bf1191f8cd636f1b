package api

import (
	"net/http"

	"github.com/talentdesk/talentchat/internal/cache"
	"github.com/talentdesk/talentchat/internal/log"
	"github.com/talentdesk/talentchat/internal/rag"
)

// health is a liveness probe. Always 200 while the process is up.
func health(logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, logger)
	}
}

// readiness reports which retrieval backend is serving. The service stays
// ready on the in-process fallback store; only a missing embedder makes
// retrieval unavailable, and even then chat still works without context.
func readiness(retrieval *rag.Selector, c *cache.Cache, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		backend := "unavailable"
		if retrieval.Available(r.Context()) {
			backend = "persistent"
			if retrieval.UsingMemoryFallback(r.Context()) {
				backend = "memory"
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":            "ready",
			"retrieval_backend": backend,
			"cache_entries":     c.Len(),
		}, logger)
	}
}
