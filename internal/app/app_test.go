package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentdesk/talentchat/internal/config"
	"github.com/talentdesk/talentchat/internal/log"
)

func testConfig() *config.Config {
	return &config.Config{
		ChatModel:      config.DefaultChatModel,
		FallbackModels: []string{config.DefaultFallbackModel},
		EmbedderModel:  config.DefaultEmbedderModel,
		RetrievalTopK:  config.DefaultRetrievalTopK,
		HTTPAddr:       config.DefaultHTTPAddr,
	}
}

func TestSetupWithoutAPIKey(t *testing.T) {
	ctx := context.Background()

	a, err := Setup(ctx, testConfig(), log.NewNop())
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	require.NotNil(t, a.Genkit)
	require.NotNil(t, a.Server)
	assert.Nil(t, a.Embedder, "no API key registers no embedder")
	assert.False(t, a.Retrieval.Available(ctx))

	// The server still answers; chat just runs without retrieval.
	rec := httptest.NewRecorder()
	a.Server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCloseIsSafeOnPartialApp(t *testing.T) {
	a := &App{}
	assert.NoError(t, a.Close())
}
