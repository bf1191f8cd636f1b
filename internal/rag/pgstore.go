package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/talentdesk/talentchat/internal/log"
)

// searchTimeout bounds a single vector search, embedding included.
const searchTimeout = 10 * time.Second

// PersistentStore is the PostgreSQL + pgvector backed vector store.
//
// Records are append-only: Add never upserts, so re-indexing the same
// content accumulates duplicate rows. The only deletion path is the bulk
// DeleteByTalent.
//
// PersistentStore is safe for concurrent use by multiple goroutines.
type PersistentStore struct {
	pool     *pgxpool.Pool
	embedder ai.Embedder
	logger   log.Logger
}

// NewPersistent wraps an existing pool. The pool must point at a database
// that already carries the talent_documents schema (see db.Migrate).
func NewPersistent(pool *pgxpool.Pool, embedder ai.Embedder, logger log.Logger) (*PersistentStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &PersistentStore{pool: pool, embedder: embedder, logger: logger}, nil
}

// Add embeds doc.Content and inserts one row. No dedup, no upsert.
func (s *PersistentStore) Add(ctx context.Context, doc Document) error {
	embedding, err := embedText(ctx, s.embedder, doc.Content)
	if err != nil {
		return fmt.Errorf("embed document: %w", err)
	}

	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO talent_documents (content, embedding, metadata)
		 VALUES ($1, $2, $3)`,
		doc.Content, pgvector.NewVector(embedding), metadataJSON,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	s.logger.Debug("indexed document", "content_length", len(doc.Content))
	return nil
}

// Search embeds the query and runs a top-k similarity search. The filter is
// translated to SQL when possible; if the filtered query fails, Search
// retries unfiltered with a widened limit of 3k rows, applies the filter in
// process, and truncates to k. Both paths return identically filtered
// results.
func (s *PersistentStore) Search(ctx context.Context, query string, k int, filter Filter) ([]Source, error) {
	if k <= 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	embedding, err := embedText(ctx, s.embedder, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	queryVec := pgvector.NewVector(embedding)

	results, err := s.searchNative(ctx, queryVec, k, filter)
	if err == nil {
		return results, nil
	}
	if len(filter) == 0 {
		return nil, err
	}

	s.logger.Warn("native filtered search failed, filtering in process", "error", err)
	wide, err := s.searchNative(ctx, queryVec, 3*k, nil)
	if err != nil {
		return nil, err
	}

	filtered := wide[:0]
	for _, src := range wide {
		if filter.Matches(src.Metadata) {
			filtered = append(filtered, src)
		}
	}
	if len(filtered) > k {
		filtered = filtered[:k]
	}
	return filtered, nil
}

// searchNative issues the SQL similarity query. A nil filter searches the
// whole table.
func (s *PersistentStore) searchNative(ctx context.Context, queryVec pgvector.Vector, limit int, filter Filter) ([]Source, error) {
	sql := `SELECT content, metadata, 1 - (embedding <=> $1) AS similarity
		FROM talent_documents`
	args := []any{queryVec}

	if len(filter) > 0 {
		where, filterArgs, err := filterToSQL(filter, len(args)+1)
		if err != nil {
			return nil, err
		}
		sql += "\n\t\tWHERE " + where
		args = append(args, filterArgs...)
	}

	sql += "\n\t\tORDER BY embedding <=> $1\n\t\tLIMIT " + strconv.Itoa(limit)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	var results []Source
	for rows.Next() {
		var (
			content      string
			metadataJSON []byte
			similarity   float64
		)
		if err := rows.Scan(&content, &metadataJSON, &similarity); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}

		var metadata map[string]any
		if err := json.Unmarshal(metadataJSON, &metadata); err != nil {
			s.logger.Warn("unparseable document metadata", "error", err)
			metadata = map[string]any{}
		}

		results = append(results, Source{
			Content:  content,
			Metadata: metadata,
			Score:    similarity,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	return results, nil
}

// DeleteByTalent removes every document tagged with the given talent ID and
// returns the number of rows deleted.
func (s *PersistentStore) DeleteByTalent(ctx context.Context, talentID string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM talent_documents WHERE metadata->>'talentId' = $1`,
		talentID,
	)
	if err != nil {
		return 0, fmt.Errorf("delete documents for talent %q: %w", talentID, err)
	}

	s.logger.Debug("deleted talent documents", "talent_id", talentID, "count", tag.RowsAffected())
	return tag.RowsAffected(), nil
}

// Ping verifies the database is reachable.
func (s *PersistentStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *PersistentStore) Close() {
	s.pool.Close()
}

// filterToSQL translates a filter into a parameterized WHERE fragment.
// Placeholder numbering starts at argOffset.
func filterToSQL(filter Filter, argOffset int) (string, []any, error) {
	var (
		clauses []string
		args    []any
	)

	next := func() string {
		n := argOffset + len(args)
		return "$" + strconv.Itoa(n)
	}

	fields := make([]string, 0, len(filter))
	for field := range filter {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		cond := filter[field]
		if !validMetadataField(field) {
			return "", nil, fmt.Errorf("invalid filter field %q", field)
		}

		switch cond.Op {
		case OpEq:
			operand, err := json.Marshal(map[string]any{field: cond.Value})
			if err != nil {
				return "", nil, fmt.Errorf("marshal filter operand: %w", err)
			}
			clauses = append(clauses, "metadata @> "+next()+"::jsonb")
			args = append(args, operand)
		case OpContains:
			operand, err := json.Marshal([]any{cond.Value})
			if err != nil {
				return "", nil, fmt.Errorf("marshal filter operand: %w", err)
			}
			clauses = append(clauses, "metadata->'"+field+"' @> "+next()+"::jsonb")
			args = append(args, operand)
		case OpGTE:
			n, ok := toFloat(cond.Value)
			if !ok {
				return "", nil, fmt.Errorf("non-numeric $gte operand for %q", field)
			}
			clauses = append(clauses, "(metadata->>'"+field+"')::numeric >= "+next())
			args = append(args, n)
		case OpLTE:
			n, ok := toFloat(cond.Value)
			if !ok {
				return "", nil, fmt.Errorf("non-numeric $lte operand for %q", field)
			}
			clauses = append(clauses, "(metadata->>'"+field+"')::numeric <= "+next())
			args = append(args, n)
		default:
			return "", nil, fmt.Errorf("unsupported filter operator %d", cond.Op)
		}
	}

	return strings.Join(clauses, " AND "), args, nil
}

// validMetadataField restricts filter fields to identifier-like names.
// Field names are interpolated into the JSONB path, so anything else is
// rejected outright.
func validMetadataField(field string) bool {
	if field == "" {
		return false
	}
	for _, r := range field {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}
	return true
}
