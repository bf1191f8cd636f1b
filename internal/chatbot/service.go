package chatbot

import (
	"context"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"

	"github.com/talentdesk/talentchat/internal/cache"
	"github.com/talentdesk/talentchat/internal/log"
	"github.com/talentdesk/talentchat/internal/rag"
	"github.com/talentdesk/talentchat/internal/talent"
)

// DefaultConversationID names the conversation used when a caller does not
// supply one.
const DefaultConversationID = "default"

// Config carries the dependencies and model names for a Service.
type Config struct {
	Genkit    *genkit.Genkit
	Cache     *cache.Cache
	Retrieval *rag.Selector

	// ChatModel is tried first on every call. FallbackModel gets exactly
	// one attempt when ChatModel reports "model not found"; any other
	// failure propagates without a fallback.
	ChatModel     string
	FallbackModel string

	// RetrievalTopK bounds the chunks injected into the prompt. Zero means
	// the retrieval layer's default.
	RetrievalTopK int

	// RateLimit, when non-nil, paces outbound model calls. Requests wait
	// for a token rather than failing.
	RateLimit *rate.Limiter

	Logger log.Logger
}

func (c *Config) validate() error {
	if c.Genkit == nil {
		return fmt.Errorf("genkit instance is required")
	}
	if c.Cache == nil {
		return fmt.Errorf("cache is required")
	}
	if c.Retrieval == nil {
		return fmt.Errorf("retrieval selector is required")
	}
	if c.ChatModel == "" {
		return fmt.Errorf("chat model is required")
	}
	return nil
}

// Service is the chat orchestrator. All configuration is captured at
// construction and never mutated, so Service is safe for concurrent use.
type Service struct {
	g             *genkit.Genkit
	cache         *cache.Cache
	retrieval     *rag.Selector
	chatModel     string
	fallbackModel string
	topK          int
	limiter       *rate.Limiter
	logger        log.Logger
}

// New validates cfg and builds a Service.
func New(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid chatbot config: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	return &Service{
		g:             cfg.Genkit,
		cache:         cfg.Cache,
		retrieval:     cfg.Retrieval,
		chatModel:     cfg.ChatModel,
		fallbackModel: cfg.FallbackModel,
		topK:          cfg.RetrievalTopK,
		limiter:       cfg.RateLimit,
		logger:        logger,
	}, nil
}

// ChatRequest is one chat turn from a caller. History is the caller's local
// copy of the conversation; it is reconciled against the cached copy.
type ChatRequest struct {
	Message        string
	TalentID       string
	Profile        *talent.Profile
	History        []Message
	ConversationID string
}

func (r *ChatRequest) validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return fmt.Errorf("message is required")
	}
	if r.TalentID == "" {
		return fmt.Errorf("talent id is required")
	}
	if r.Profile == nil {
		return fmt.Errorf("profile is required")
	}
	return nil
}

// Chat runs one conversation turn and returns the assistant reply.
//
// The caller's history is merged with the cached history by preferring
// whichever list is longer. That heuristic can drop a concurrent request's
// latest turn; it matches the cache's best-effort consistency model.
//
// Retrieval failures never fail the request. Model failures do, except for
// a single "model not found" on the primary, which triggers one attempt
// against the fallback model using a prompt without the retrieved context.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (*Message, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = DefaultConversationID
	}

	history := s.reconcileHistory(req.TalentID, conversationID, req.History)

	var (
		ragContext string
		sources    []rag.Source
	)
	if s.retrieval.Available(ctx) {
		s.retrieval.IndexTalentProfile(ctx, req.Profile)
		ragContext, sources = s.retrieval.EnhancedRetrieve(ctx, req.Message, req.TalentID, s.topK)
	}

	primary := buildPrompt(req.Profile, ragContext, history, req.Message)
	profileOnly := primary
	if ragContext != "" {
		profileOnly = buildPrompt(req.Profile, "", history, req.Message)
	}

	text, model, err := s.generate(ctx, primary, profileOnly)
	if err != nil {
		return nil, err
	}

	userMsg := newMessage(RoleUser, req.Message, &Metadata{TalentID: req.TalentID})
	reply := newMessage(RoleAssistant, text, &Metadata{
		TalentID:   req.TalentID,
		Model:      model,
		RAGSources: sources,
	})

	updated := append(history, userMsg, reply)
	s.cache.Set(cache.ConversationKey(req.TalentID, conversationID), updated, cache.ConversationTTL)

	return &reply, nil
}

// generate invokes the primary model, falling back exactly once on a
// "model not found" failure. The fallback decision is made fresh on every
// call; a missing primary model is never remembered across calls.
func (s *Service) generate(ctx context.Context, primary, profileOnly []*ai.Message) (text, model string, err error) {
	if err := s.waitForModelSlot(ctx); err != nil {
		return "", "", err
	}

	resp, err := genkit.Generate(ctx, s.g,
		ai.WithModelName(s.chatModel),
		ai.WithMessages(primary...),
	)
	if err == nil {
		return resp.Text(), s.chatModel, nil
	}
	if !isModelNotFound(err) || s.fallbackModel == "" {
		return "", "", fmt.Errorf("chat model %s: %w", s.chatModel, err)
	}

	s.logger.Warn("chat model not found, trying fallback",
		"model", s.chatModel, "fallback", s.fallbackModel, "error", err)

	if err := s.waitForModelSlot(ctx); err != nil {
		return "", "", err
	}

	resp, err = genkit.Generate(ctx, s.g,
		ai.WithModelName(s.fallbackModel),
		ai.WithMessages(profileOnly...),
	)
	if err != nil {
		return "", "", fmt.Errorf("fallback model %s: %w", s.fallbackModel, err)
	}
	return resp.Text(), s.fallbackModel, nil
}

// waitForModelSlot blocks until the rate limiter grants a token. A nil
// limiter means unpaced.
func (s *Service) waitForModelSlot(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for model call slot: %w", err)
	}
	return nil
}

// reconcileHistory merges the caller's history with the cached one,
// preferring whichever is longer.
func (s *Service) reconcileHistory(talentID, conversationID string, callerHistory []Message) []Message {
	cached := s.History(talentID, conversationID)
	if len(cached) > len(callerHistory) {
		return cached
	}
	return callerHistory
}

// History returns the cached conversation, or an empty list when the entry
// is missing, expired, or holds an unexpected type.
func (s *Service) History(talentID, conversationID string) []Message {
	if conversationID == "" {
		conversationID = DefaultConversationID
	}
	val, ok := s.cache.Get(cache.ConversationKey(talentID, conversationID))
	if !ok {
		return nil
	}
	history, ok := val.([]Message)
	if !ok {
		s.logger.Warn("cached conversation has unexpected type", "talent_id", talentID)
		return nil
	}
	return history
}

// ClearConversation drops every cached entry for the conversation.
func (s *Service) ClearConversation(talentID, conversationID string) {
	if conversationID == "" {
		conversationID = DefaultConversationID
	}
	s.cache.Clear(cache.ConversationKey(talentID, conversationID) + "*")
}

// buildPrompt assembles the model message list: profile system instructions,
// an optional context system message, the conversation so far, and the new
// user turn.
func buildPrompt(profile *talent.Profile, ragContext string, history []Message, userMessage string) []*ai.Message {
	messages := make([]*ai.Message, 0, len(history)+3)
	messages = append(messages, ai.NewSystemMessage(ai.NewTextPart(systemPrompt(profile))))

	if ragContext != "" {
		messages = append(messages, ai.NewSystemMessage(ai.NewTextPart(
			"Relevant information retrieved about this candidate:\n\n"+ragContext)))
	}

	for _, msg := range history {
		switch msg.Role {
		case RoleAssistant:
			messages = append(messages, ai.NewModelMessage(ai.NewTextPart(msg.Content)))
		case RoleSystem:
			messages = append(messages, ai.NewSystemMessage(ai.NewTextPart(msg.Content)))
		default:
			messages = append(messages, ai.NewUserMessage(ai.NewTextPart(msg.Content)))
		}
	}

	messages = append(messages, ai.NewUserMessage(ai.NewTextPart(userMessage)))
	return messages
}

func systemPrompt(profile *talent.Profile) string {
	var b strings.Builder
	b.WriteString("You are a recruitment assistant answering questions about a specific candidate.\n\n")
	b.WriteString("Candidate profile:\n")
	b.WriteString(profile.Summary())
	b.WriteString("\n\nAnswer concisely and factually. ")
	b.WriteString("If the profile and provided context do not contain the answer, say so instead of guessing.")
	return b.String()
}
