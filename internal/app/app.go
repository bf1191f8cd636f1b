// Package app provides application initialization and dependency wiring.
//
// Setup builds the full component graph: Genkit with the Google AI plugin,
// the TTL cache, the retrieval selector, the chatbot service, and the HTTP
// API server. Components receive their dependencies through constructors.
package app

import (
	"net/http"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/talentdesk/talentchat/internal/cache"
	"github.com/talentdesk/talentchat/internal/chatbot"
	"github.com/talentdesk/talentchat/internal/config"
	"github.com/talentdesk/talentchat/internal/log"
	"github.com/talentdesk/talentchat/internal/rag"
)

// App is the application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit    *genkit.Genkit
	Embedder  ai.Embedder
	Cache     *cache.Cache
	Retrieval *rag.Selector
	Chatbot   *chatbot.Service
	Server    http.Handler
}

// Close releases held resources. Safe to call on a partially built App.
func (a *App) Close() error {
	if a.Logger != nil {
		a.Logger.Info("shutting down application")
	}
	if a.Retrieval != nil {
		a.Retrieval.Close()
	}
	return nil
}
