package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	appErr "github.com/tenclo/intradesk/internal/pkg/errors"
	"github.com/tenclo/intradesk/internal/repo"
)

func TestSearchFormatsResults(t *testing.T) {
	published := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	store := newFakeCircularStore()
	store.hits = []repo.SearchHit{
		{
			ID:          7,
			Headline:    "Fire Drill",
			FileURLs:    []string{"https://files.test/a_p1.png", "https://files.test/a_p2.png"},
			PublishedAt: published,
			Distance:    0.12345,
		},
		{
			ID:          3,
			Headline:    "Canteen Menu",
			FileURLs:    []string{"https://files.test/b.png"},
			PublishedAt: published.Add(-24 * time.Hour),
			Distance:    0.9,
		},
	}

	svc := NewSearchService(store, &fakeEmbedder{vec: []float32{0.5, 0.5}})
	results, err := svc.Search(context.Background(), "fire drill", 0)
	require.NoError(t, err)
	require.Equal(t, defaultTopK, store.lastK)
	require.Len(t, results, 2)

	require.Equal(t, int64(7), results[0].ID)
	require.Equal(t, "https://files.test/a_p1.png", results[0].FileURL)
	require.Equal(t, "2026-03-14T09:30:00Z", results[0].PublishedAt)
	require.Equal(t, 0.123, results[0].Score)
	require.Equal(t, 0.9, results[1].Score)
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	svc := NewSearchService(newFakeCircularStore(), &fakeEmbedder{vec: []float32{1}})
	_, err := svc.Search(context.Background(), "   ", 5)
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestSearchClampsK(t *testing.T) {
	store := newFakeCircularStore()
	svc := NewSearchService(store, &fakeEmbedder{vec: []float32{1}})

	_, err := svc.Search(context.Background(), "query", 500)
	require.NoError(t, err)
	require.Equal(t, maxTopK, store.lastK)
}

func TestSearchCachesQueryEmbedding(t *testing.T) {
	store := newFakeCircularStore()
	embedder := &fakeEmbedder{vec: []float32{1, 2}}
	svc := NewSearchService(store, embedder)

	_, err := svc.Search(context.Background(), "holiday schedule", 5)
	require.NoError(t, err)
	_, err = svc.Search(context.Background(), "holiday schedule", 5)
	require.NoError(t, err)
	require.Equal(t, 1, embedder.callCount())
}

func TestSearchPropagatesEmbedderFailure(t *testing.T) {
	svc := NewSearchService(newFakeCircularStore(), &fakeEmbedder{err: fmt.Errorf("down")})
	_, err := svc.Search(context.Background(), "query", 5)
	require.Error(t, err)
}
