// Package chatbot orchestrates talent chat: prompt assembly from profiles,
// retrieval-augmented context, model invocation with a one-shot fallback,
// and conversation persistence in the cache.
package chatbot

import (
	"time"

	"github.com/google/uuid"

	"github.com/talentdesk/talentchat/internal/rag"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Metadata carries per-message annotations. The model field records which
// model actually produced an assistant reply, fallback included.
type Metadata struct {
	TalentID     string       `json:"talentId,omitempty"`
	AnalysisType string       `json:"analysisType,omitempty"`
	Confidence   float64      `json:"confidence,omitempty"`
	Model        string       `json:"model,omitempty"`
	RAGSources   []rag.Source `json:"ragSources,omitempty"`
}

// Message is one conversation turn. Messages are immutable once created;
// each chat turn replaces the whole cached list rather than mutating
// entries.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  *Metadata `json:"metadata,omitempty"`
}

// newMessage constructs a turn with a fresh opaque ID.
func newMessage(role Role, content string, meta *Metadata) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
		Metadata:  meta,
	}
}

// Analysis is the structured result of a one-shot profile analysis. When the
// model's output is not parseable JSON, only Summary is populated, carrying
// the raw model text.
type Analysis struct {
	Summary       string   `json:"summary"`
	Strengths     []string `json:"strengths,omitempty"`
	Weaknesses    []string `json:"weaknesses,omitempty"`
	SuitableRoles []string `json:"suitableRoles,omitempty"`
	OverallRating float64  `json:"overallRating,omitempty"`
}
