package rag

import "context"

// VectorDimension is the embedding width every store is provisioned for.
// The talent_documents migration and the embedder request both use it; the
// int32 type matches the genai embed option it is passed to.
const VectorDimension int32 = 1536

// Metadata keys written by the indexing operations.
const (
	MetaTalentID  = "talentId"
	MetaType      = "type"
	MetaName      = "name"
	MetaPosition  = "position"
	MetaSkills    = "skills"
	MetaTimestamp = "timestamp"
)

// DocTypeProfile marks a document produced from a talent profile summary.
const DocTypeProfile = "profile"

// Document is one record to index: free text plus arbitrary JSON-shaped
// metadata.
type Document struct {
	Content  string
	Metadata map[string]any
}

// Source is one retrieved chunk. Score is cosine similarity in [0, 1],
// higher is closer.
type Source struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
	Score    float64        `json:"score"`
}

// vectorStore is the surface the selector needs from a backing store.
// Both PersistentStore and MemoryStore satisfy it.
type vectorStore interface {
	Add(ctx context.Context, doc Document) error
	Search(ctx context.Context, query string, k int, filter Filter) ([]Source, error)
}
