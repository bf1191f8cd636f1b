// Package rag provides vector-backed retrieval for talent chat.
//
// The package centers on Selector, which lazily picks a backing store on
// first use: a PostgreSQL + pgvector store when the database is reachable,
// an in-process store otherwise, or no store at all when no embedder is
// configured. The choice is made exactly once per process and is never
// revisited.
//
// All retrieval operations degrade to empty results instead of returning
// errors. Callers that need to distinguish "nothing relevant" from "store
// down" can consult Available and UsingMemoryFallback, but the data path
// itself never fails.
package rag
