// Package api is the JSON HTTP surface of the talent chat service. Routes
// use Go 1.22 method patterns on http.ServeMux; middleware covers panic
// recovery, request logging, and per-IP rate limiting.
package api

import (
	"errors"
	"net/http"

	"github.com/talentdesk/talentchat/internal/cache"
	"github.com/talentdesk/talentchat/internal/chatbot"
	"github.com/talentdesk/talentchat/internal/log"
	"github.com/talentdesk/talentchat/internal/rag"
)

// ServerConfig contains the dependencies for the API server.
type ServerConfig struct {
	Logger     log.Logger
	Chatbot    *chatbot.Service // Required
	Retrieval  *rag.Selector    // Required
	Cache      *cache.Cache     // Required: user session tracking
	TrustProxy bool             // Trust X-Real-IP/X-Forwarded-For (behind reverse proxy)
	RateBurst  int              // Rate limiter burst size per IP (0 = default 60)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates the API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Chatbot == nil {
		return nil, errors.New("chatbot service is required")
	}
	if cfg.Retrieval == nil {
		return nil, errors.New("retrieval selector is required")
	}
	if cfg.Cache == nil {
		return nil, errors.New("cache is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	th := &talentHandler{svc: cfg.Chatbot, sessions: cfg.Cache, logger: logger}
	dh := &documentHandler{retrieval: cfg.Retrieval, logger: logger}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/talents/{id}/chat", th.chat)
	mux.HandleFunc("GET /api/talents/{id}/conversations/{conversationId}", th.getConversation)
	mux.HandleFunc("DELETE /api/talents/{id}/conversations/{conversationId}", th.deleteConversation)
	mux.HandleFunc("POST /api/talents/{id}/analysis", th.analyze)
	mux.HandleFunc("POST /api/talents/{id}/starters", th.starters)

	mux.HandleFunc("POST /api/documents", dh.index)
	mux.HandleFunc("POST /api/documents/search", dh.search)
	mux.HandleFunc("DELETE /api/talents/{id}/documents", dh.deleteTalentDocuments)

	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newRateLimiter(1.0, burst)

	// Middleware stack, outermost first: Recovery -> Logging -> RateLimit.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Health probes bypass the middleware stack.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health(logger))
	topMux.HandleFunc("GET /ready", readiness(cfg.Retrieval, cfg.Cache, logger))
	topMux.Handle("/", handler)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
