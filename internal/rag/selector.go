package rag

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/talentdesk/talentchat/db"
	"github.com/talentdesk/talentchat/internal/log"
	"github.com/talentdesk/talentchat/internal/talent"
)

// State identifies which backing store a Selector resolved to.
type State int

const (
	// StateUnavailable means no embedder was configured; every retrieval
	// operation is a no-op.
	StateUnavailable State = iota
	// StatePersistent means the PostgreSQL store is active.
	StatePersistent
	// StateMemory means the in-process fallback store is active.
	StateMemory
)

func (s State) String() string {
	switch s {
	case StatePersistent:
		return "persistent"
	case StateMemory:
		return "memory"
	default:
		return "unavailable"
	}
}

// contextSeparator joins retrieved chunks into one prompt block.
const contextSeparator = "\n\n---\n\n"

// DefaultTopK is the chunk count used when a caller passes k <= 0.
const DefaultTopK = 4

// SelectorConfig carries everything a Selector needs to resolve a store.
type SelectorConfig struct {
	// Embedder may be nil, which pins the selector to StateUnavailable.
	Embedder ai.Embedder
	// ConnString is the keyword/value DSN handed to pgxpool.
	ConnString string
	// MigrateURL is the postgres:// URL used to apply schema migrations
	// during persistent-store setup.
	MigrateURL string
	Logger     log.Logger
}

// Selector resolves a vector store exactly once, on first use, and routes
// every retrieval operation through it for the rest of the process
// lifetime.
//
// Resolution order: no embedder means Unavailable; otherwise the PostgreSQL
// store is tried (connect, ping, migrate), and any failure falls back to the
// in-process store. The decision is sticky. A database that comes up after
// resolution is never retried, and a database that goes down later does not
// flip the selector to memory; individual searches just start returning
// empty.
//
// Selector is safe for concurrent use by multiple goroutines.
type Selector struct {
	cfg    SelectorConfig
	logger log.Logger

	initOnce   sync.Once
	state      State
	store      vectorStore
	persistent *PersistentStore

	// openPersistent is swapped out in tests.
	openPersistent func(ctx context.Context) (*PersistentStore, error)
}

// NewSelector builds an unresolved Selector. No I/O happens until the first
// operation.
func NewSelector(cfg SelectorConfig) *Selector {
	if cfg.Logger == nil {
		cfg.Logger = log.NewNop()
	}
	s := &Selector{
		cfg:    cfg,
		logger: cfg.Logger,
	}
	s.openPersistent = s.dialPersistent
	return s
}

// ensure resolves the backing store on first call. Subsequent calls are
// free.
func (s *Selector) ensure(ctx context.Context) {
	s.initOnce.Do(func() {
		if s.cfg.Embedder == nil {
			s.state = StateUnavailable
			s.logger.Warn("no embedder configured, retrieval disabled")
			return
		}

		store, err := s.openPersistent(ctx)
		if err == nil {
			s.state = StatePersistent
			s.store = store
			s.persistent = store
			s.logger.Info("vector store ready", "backend", s.state.String())
			return
		}

		s.logger.Warn("persistent vector store unavailable, using in-memory fallback", "error", err)
		s.state = StateMemory
		s.store = NewMemory(s.cfg.Embedder, s.logger)
	})
}

// dialPersistent connects, pings, and migrates. Any failure leaves no open
// pool behind.
func (s *Selector) dialPersistent(ctx context.Context) (*PersistentStore, error) {
	if s.cfg.ConnString == "" {
		return nil, fmt.Errorf("no database configured")
	}

	poolCfg, err := pgxpool.ParseConfig(s.cfg.ConnString)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := db.Migrate(s.cfg.MigrateURL, s.logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return NewPersistent(pool, s.cfg.Embedder, s.logger)
}

// Close releases the database pool if the selector resolved to the
// persistent store. Safe to call regardless of resolution state.
func (s *Selector) Close() {
	if s.persistent != nil {
		s.persistent.Close()
	}
}

// Available reports whether retrieval operations can do anything at all.
// It triggers store resolution.
func (s *Selector) Available(ctx context.Context) bool {
	s.ensure(ctx)
	return s.state != StateUnavailable
}

// UsingMemoryFallback reports whether the selector resolved to the volatile
// in-process store.
func (s *Selector) UsingMemoryFallback(ctx context.Context) bool {
	s.ensure(ctx)
	return s.state == StateMemory
}

// IndexDocument embeds and stores one document, stamping the indexing time
// into its metadata. Failures are logged and swallowed; indexing is
// best-effort by contract.
func (s *Selector) IndexDocument(ctx context.Context, content string, metadata map[string]any) {
	s.ensure(ctx)
	if s.state == StateUnavailable {
		return
	}

	tagged := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		tagged[k] = v
	}
	tagged[MetaTimestamp] = time.Now().UTC().Format(time.RFC3339)

	if err := s.store.Add(ctx, Document{Content: content, Metadata: tagged}); err != nil {
		s.logger.Warn("failed to index document", "error", err)
	}
}

// IndexTalentProfile flattens the profile into its text summary and indexes
// it tagged as a profile document. Repeated calls append new copies; there
// is no upsert by talent ID.
func (s *Selector) IndexTalentProfile(ctx context.Context, p *talent.Profile) {
	s.IndexDocument(ctx, p.Summary(), map[string]any{
		MetaTalentID: p.ID,
		MetaType:     DocTypeProfile,
		MetaName:     p.Name,
		MetaPosition: p.Position,
		MetaSkills:   p.Skills,
	})
}

// RetrieveContext returns the top-k chunks for a talent joined into one
// prompt-ready string. Empty string means nothing relevant, store down, or
// retrieval unavailable; callers cannot tell which, on purpose.
func (s *Selector) RetrieveContext(ctx context.Context, talentID, query string, k int) string {
	text, _ := s.EnhancedRetrieve(ctx, query, talentID, k)
	return text
}

// EnhancedRetrieve is RetrieveContext plus the raw matched chunks. talentID
// is optional; when empty the search is global.
func (s *Selector) EnhancedRetrieve(ctx context.Context, query, talentID string, k int) (string, []Source) {
	s.ensure(ctx)
	if s.state == StateUnavailable {
		return "", nil
	}
	if k <= 0 {
		k = DefaultTopK
	}

	var filter Filter
	if talentID != "" {
		filter = Filter{MetaTalentID: Eq(talentID)}
	}

	sources, err := s.store.Search(ctx, query, k, filter)
	if err != nil {
		s.logger.Warn("context retrieval failed", "error", err)
		return "", nil
	}
	if len(sources) == 0 {
		return "", nil
	}

	contents := make([]string, len(sources))
	for i, src := range sources {
		contents[i] = src.Content
	}
	return strings.Join(contents, contextSeparator), sources
}

// SearchDocuments runs a general-purpose filtered search. A nil filter
// searches everything. Errors degrade to an empty result set.
func (s *Selector) SearchDocuments(ctx context.Context, query string, k int, filter Filter) []Source {
	s.ensure(ctx)
	if s.state == StateUnavailable {
		return nil
	}
	if k <= 0 {
		k = 5
	}

	sources, err := s.store.Search(ctx, query, k, filter)
	if err != nil {
		s.logger.Warn("document search failed", "error", err)
		return nil
	}
	return sources
}

// DeleteTalentDocuments bulk-deletes a talent's documents from the
// persistent store. The memory store has no delete operation, so in memory
// or unavailable states this is a logged no-op.
func (s *Selector) DeleteTalentDocuments(ctx context.Context, talentID string) int64 {
	s.ensure(ctx)
	if s.persistent == nil {
		s.logger.Debug("delete skipped, no persistent store", "talent_id", talentID)
		return 0
	}

	n, err := s.persistent.DeleteByTalent(ctx, talentID)
	if err != nil {
		s.logger.Warn("failed to delete talent documents", "talent_id", talentID, "error", err)
		return 0
	}
	return n
}
