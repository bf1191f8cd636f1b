package chatbot

import (
	"context"
	"errors"
	"testing"

	"github.com/firebase/genkit/go/genkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentdesk/talentchat/internal/cache"
	"github.com/talentdesk/talentchat/internal/rag"
	"github.com/talentdesk/talentchat/internal/talent"
	"github.com/talentdesk/talentchat/internal/testutil"
)

const (
	primaryModelName  = "mock/primary"
	fallbackModelName = "mock/fallback"
)

// testHarness bundles a Service wired to mock models and a memory-backed
// retrieval layer. With no database configured the selector always falls
// back to the in-process store.
type testHarness struct {
	svc      *Service
	primary  *testutil.MockLLM
	fallback *testutil.MockLLM
	embedder *testutil.MockEmbedder
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()

	g := genkit.Init(context.Background())

	primary := testutil.NewMockLLM("primary reply")
	primary.RegisterModel(g, primaryModelName)
	fallback := testutil.NewMockLLM("fallback reply")
	fallback.RegisterModel(g, fallbackModelName)

	embedder := testutil.NewMockEmbedder(8)
	selector := rag.NewSelector(rag.SelectorConfig{
		Embedder: embedder.RegisterEmbedder(g),
	})

	c := cache.New(nil)
	svc, err := New(Config{
		Genkit:        g,
		Cache:         c,
		Retrieval:     selector,
		ChatModel:     primaryModelName,
		FallbackModel: fallbackModelName,
		RetrievalTopK: 4,
	})
	require.NoError(t, err)

	return &testHarness{
		svc:      svc,
		primary:  primary,
		fallback: fallback,
		embedder: embedder,
	}
}

func testProfile() *talent.Profile {
	return &talent.Profile{
		ID:          "t1",
		Name:        "Ada Lovelace",
		Position:    "Backend Engineer",
		Skills:      []string{"Python", "SQL"},
		Description: "Experienced systems engineer.",
	}
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestChatEndToEnd(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	reply, err := h.svc.Chat(ctx, ChatRequest{
		Message:  "What are this candidate's strengths?",
		TalentID: "t1",
		Profile:  testProfile(),
	})
	require.NoError(t, err)

	assert.Equal(t, RoleAssistant, reply.Role)
	assert.NotEmpty(t, reply.Content)
	require.NotNil(t, reply.Metadata)
	assert.Equal(t, "t1", reply.Metadata.TalentID)
	assert.Equal(t, primaryModelName, reply.Metadata.Model)

	// The cache now holds exactly the user turn and the reply, in order.
	history := h.svc.History("t1", "")
	require.Len(t, history, 2)
	assert.Equal(t, RoleUser, history[0].Role)
	assert.Equal(t, "What are this candidate's strengths?", history[0].Content)
	assert.Equal(t, RoleAssistant, history[1].Role)
	assert.Equal(t, reply.ID, history[1].ID)
}

func TestChatValidatesRequest(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.svc.Chat(ctx, ChatRequest{TalentID: "t1", Profile: testProfile()})
	assert.Error(t, err, "empty message")

	_, err = h.svc.Chat(ctx, ChatRequest{Message: "hi", Profile: testProfile()})
	assert.Error(t, err, "missing talent id")

	_, err = h.svc.Chat(ctx, ChatRequest{Message: "hi", TalentID: "t1"})
	assert.Error(t, err, "missing profile")
}

func TestChatFallsBackOnModelNotFound(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	h.primary.SetError(errors.New(`model "mock/primary" not found`))

	reply, err := h.svc.Chat(ctx, ChatRequest{
		Message:  "hello",
		TalentID: "t1",
		Profile:  testProfile(),
	})
	require.NoError(t, err)

	assert.Equal(t, "fallback reply", reply.Content)
	assert.Equal(t, fallbackModelName, reply.Metadata.Model)
	assert.Equal(t, 1, h.primary.CallCount())
	assert.Equal(t, 1, h.fallback.CallCount())
}

func TestChatFallbackIsNotSticky(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	h.primary.SetError(errors.New("model not found"))

	_, err := h.svc.Chat(ctx, ChatRequest{Message: "one", TalentID: "t1", Profile: testProfile()})
	require.NoError(t, err)

	// Primary recovers; the next call must try it again rather than
	// remembering the earlier failure.
	h.primary.SetError(nil)

	reply, err := h.svc.Chat(ctx, ChatRequest{Message: "two", TalentID: "t1", Profile: testProfile()})
	require.NoError(t, err)

	assert.Equal(t, primaryModelName, reply.Metadata.Model)
	assert.Equal(t, 2, h.primary.CallCount())
	assert.Equal(t, 1, h.fallback.CallCount())
}

func TestChatPropagatesOtherModelErrors(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	h.primary.SetError(errors.New("rate limit exceeded"))

	_, err := h.svc.Chat(ctx, ChatRequest{
		Message:  "hello",
		TalentID: "t1",
		Profile:  testProfile(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
	assert.Zero(t, h.fallback.CallCount(), "no fallback attempt for non-not-found errors")
}

func TestChatFallbackFailurePropagates(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	h.primary.SetError(errors.New("model not found"))
	h.fallback.SetError(errors.New("service unavailable"))

	_, err := h.svc.Chat(ctx, ChatRequest{
		Message:  "hello",
		TalentID: "t1",
		Profile:  testProfile(),
	})
	require.Error(t, err)
	assert.Equal(t, 1, h.primary.CallCount())
	assert.Equal(t, 1, h.fallback.CallCount(), "exactly one fallback attempt")
}

func TestChatPrefersLongerHistory(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	// Seed the cache with a two-turn conversation.
	_, err := h.svc.Chat(ctx, ChatRequest{
		Message:  "first question",
		TalentID: "t1",
		Profile:  testProfile(),
	})
	require.NoError(t, err)

	// A caller with a stale, shorter history loses to the cached copy.
	_, err = h.svc.Chat(ctx, ChatRequest{
		Message:  "second question",
		TalentID: "t1",
		Profile:  testProfile(),
		History:  nil,
	})
	require.NoError(t, err)

	history := h.svc.History("t1", "")
	require.Len(t, history, 4)
	assert.Equal(t, "first question", history[0].Content)
	assert.Equal(t, "second question", history[2].Content)
}

func TestChatCallerHistoryWinsWhenLonger(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	caller := []Message{
		newMessage(RoleUser, "from caller", nil),
		newMessage(RoleAssistant, "caller reply", nil),
	}

	_, err := h.svc.Chat(ctx, ChatRequest{
		Message:  "next",
		TalentID: "t1",
		Profile:  testProfile(),
		History:  caller,
	})
	require.NoError(t, err)

	history := h.svc.History("t1", "")
	require.Len(t, history, 4)
	assert.Equal(t, "from caller", history[0].Content)
}

func TestChatAttachesRAGSources(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	// First chat indexes the profile document; the second retrieves it.
	_, err := h.svc.Chat(ctx, ChatRequest{
		Message:  "warm up",
		TalentID: "t1",
		Profile:  testProfile(),
	})
	require.NoError(t, err)

	reply, err := h.svc.Chat(ctx, ChatRequest{
		Message:  "tell me about Ada",
		TalentID: "t1",
		Profile:  testProfile(),
	})
	require.NoError(t, err)

	require.NotNil(t, reply.Metadata)
	require.NotEmpty(t, reply.Metadata.RAGSources)
	assert.Equal(t, "t1", reply.Metadata.RAGSources[0].Metadata[rag.MetaTalentID])
}

func TestHistoryMissingConversation(t *testing.T) {
	h := newHarness(t)
	assert.Empty(t, h.svc.History("t1", "nope"))
}

func TestClearConversation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.svc.Chat(ctx, ChatRequest{
		Message:  "hello",
		TalentID: "t1",
		Profile:  testProfile(),
	})
	require.NoError(t, err)
	require.NotEmpty(t, h.svc.History("t1", ""))

	h.svc.ClearConversation("t1", "")
	assert.Empty(t, h.svc.History("t1", ""))
}
