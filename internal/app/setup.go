package app

import (
	"context"
	"fmt"
	"os"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"golang.org/x/time/rate"

	"github.com/talentdesk/talentchat/internal/api"
	"github.com/talentdesk/talentchat/internal/cache"
	"github.com/talentdesk/talentchat/internal/chatbot"
	"github.com/talentdesk/talentchat/internal/config"
	"github.com/talentdesk/talentchat/internal/log"
	"github.com/talentdesk/talentchat/internal/rag"
)

// Setup creates and initializes the application. On any failure everything
// already initialized is released before returning.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	a := &App{Config: cfg, Logger: logger}

	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	g, embedder := provideGenkit(ctx, cfg, logger)
	a.Genkit = g
	a.Embedder = embedder

	a.Cache = cache.New(logger.With("component", "cache"))

	// A nil embedder leaves the selector unavailable; chat still works, it
	// just runs without retrieved context.
	a.Retrieval = rag.NewSelector(rag.SelectorConfig{
		Embedder:   embedder,
		ConnString: cfg.PostgresConnectionString(),
		MigrateURL: cfg.PostgresURL(),
		Logger:     logger.With("component", "rag"),
	})

	fallbackModel := ""
	if len(cfg.FallbackModels) > 0 {
		fallbackModel = cfg.FallbackModels[0]
	}

	svc, err := chatbot.New(chatbot.Config{
		Genkit:        g,
		Cache:         a.Cache,
		Retrieval:     a.Retrieval,
		ChatModel:     cfg.ChatModel,
		FallbackModel: fallbackModel,
		RetrievalTopK: cfg.RetrievalTopK,
		RateLimit:     rate.NewLimiter(10, 30),
		Logger:        logger.With("component", "chatbot"),
	})
	if err != nil {
		return nil, fmt.Errorf("creating chatbot service: %w", err)
	}
	a.Chatbot = svc

	srv, err := api.NewServer(api.ServerConfig{
		Logger:    logger.With("component", "api"),
		Chatbot:   svc,
		Retrieval: a.Retrieval,
		Cache:     a.Cache,
	})
	if err != nil {
		return nil, fmt.Errorf("creating API server: %w", err)
	}
	a.Server = srv.Handler()

	return a, nil
}

// provideGenkit initializes Genkit. The Google AI plugin is only loaded
// when an API key is present; without it no embedder is registered and the
// returned embedder is nil.
func provideGenkit(ctx context.Context, cfg *config.Config, logger log.Logger) (*genkit.Genkit, ai.Embedder) {
	if cfg.GeminiAPIKey == "" {
		logger.Warn("no Gemini API key configured, retrieval disabled")
		return genkit.Init(ctx), nil
	}

	// The plugin reads GEMINI_API_KEY from the environment. The key may have
	// arrived through the prefixed variable or a config file, so publish it.
	// SAFETY: os.Setenv is not concurrent-safe, but Setup runs exactly once
	// during startup before goroutines are spawned.
	_ = os.Setenv("GEMINI_API_KEY", cfg.GeminiAPIKey)

	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	embedder := googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	if embedder == nil {
		logger.Warn("embedder not found, retrieval disabled", "embedder", cfg.EmbedderModel)
	}

	logger.Info("initialized Genkit",
		"chat_model", cfg.ChatModel,
		"embedder", cfg.EmbedderModel,
	)
	return g, embedder
}
