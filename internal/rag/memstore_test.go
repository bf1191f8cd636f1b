package rag

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/firebase/genkit/go/genkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentdesk/talentchat/internal/testutil"
)

const testDim = 8

func newTestEmbedder(t *testing.T) (*testutil.MockEmbedder, *MemoryStore) {
	t.Helper()
	g := genkit.Init(context.Background())
	mock := testutil.NewMockEmbedder(testDim)
	store := NewMemory(mock.RegisterEmbedder(g), nil)
	return mock, store
}

func TestMemoryStoreAddAndSearch(t *testing.T) {
	ctx := context.Background()
	mock, store := newTestEmbedder(t)

	// Near and far documents relative to the query vector.
	mock.SetVector("query", testutil.AngledVector(testDim, 0))
	mock.SetVector("close doc", testutil.AngledVector(testDim, 0.2))
	mock.SetVector("far doc", testutil.AngledVector(testDim, math.Pi/2))

	require.NoError(t, store.Add(ctx, Document{Content: "far doc"}))
	require.NoError(t, store.Add(ctx, Document{Content: "close doc"}))

	results, err := store.Search(ctx, "query", 2, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "close doc", results[0].Content)
	assert.Equal(t, "far doc", results[1].Content)
	assert.Greater(t, results[0].Score, results[1].Score)
	assert.InDelta(t, math.Cos(0.2), results[0].Score, 1e-5)
}

func TestMemoryStoreSearchRespectsK(t *testing.T) {
	ctx := context.Background()
	_, store := newTestEmbedder(t)

	for _, content := range []string{"a", "b", "c", "d"} {
		require.NoError(t, store.Add(ctx, Document{Content: content}))
	}

	results, err := store.Search(ctx, "query", 2, nil)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = store.Search(ctx, "query", 10, nil)
	require.NoError(t, err)
	assert.Len(t, results, 4, "k beyond corpus size returns everything")
}

func TestMemoryStoreFilterAppliedBeforeTruncation(t *testing.T) {
	ctx := context.Background()
	mock, store := newTestEmbedder(t)

	// The non-matching doc is closest to the query; the filter must still
	// exclude it rather than crowd out matching docs.
	mock.SetVector("query", testutil.AngledVector(testDim, 0))
	mock.SetVector("other talent", testutil.AngledVector(testDim, 0.1))
	mock.SetVector("target talent", testutil.AngledVector(testDim, 0.5))

	require.NoError(t, store.Add(ctx, Document{
		Content:  "other talent",
		Metadata: map[string]any{MetaTalentID: "t2"},
	}))
	require.NoError(t, store.Add(ctx, Document{
		Content:  "target talent",
		Metadata: map[string]any{MetaTalentID: "t1"},
	}))

	results, err := store.Search(ctx, "query", 1, Filter{MetaTalentID: Eq("t1")})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "target talent", results[0].Content)
}

func TestMemoryStoreDuplicatesAccumulate(t *testing.T) {
	ctx := context.Background()
	_, store := newTestEmbedder(t)

	doc := Document{Content: "same text", Metadata: map[string]any{MetaTalentID: "t1"}}
	require.NoError(t, store.Add(ctx, doc))
	require.NoError(t, store.Add(ctx, doc))

	assert.Equal(t, 2, store.Len())
}

func TestMemoryStoreEmbedderError(t *testing.T) {
	ctx := context.Background()
	mock, store := newTestEmbedder(t)

	mock.SetError(errors.New("quota exceeded"))

	err := store.Add(ctx, Document{Content: "doc"})
	assert.Error(t, err)

	_, err = store.Search(ctx, "query", 3, nil)
	assert.Error(t, err)
}

func TestMemoryStoreEmptySearch(t *testing.T) {
	ctx := context.Background()
	_, store := newTestEmbedder(t)

	results, err := store.Search(ctx, "query", 3, nil)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = store.Search(ctx, "query", 0, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}
