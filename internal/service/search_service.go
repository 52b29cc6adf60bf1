package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/tenclo/intradesk/internal/ai"
	appErr "github.com/tenclo/intradesk/internal/pkg/errors"
	"github.com/tenclo/intradesk/internal/repo"
)

const (
	defaultTopK = 5
	maxTopK     = 50
)

// CircularSearcher is the repo slice the search service reads through.
type CircularSearcher interface {
	SearchByEmbedding(ctx context.Context, embedding []float32, k int) ([]repo.SearchHit, error)
}

type SearchResult struct {
	ID          int64   `json:"id"`
	Headline    string  `json:"headline"`
	FileURL     string  `json:"file_url"`
	PublishedAt string  `json:"published_at"`
	Score       float64 `json:"score"`
}

// SearchService answers top-k semantic queries over embedded circulars.
type SearchService struct {
	circulars CircularSearcher
	embedder  ai.IEmbedder
	cache     *expirable.LRU[string, []float32]
}

func NewSearchService(circulars CircularSearcher, embedder ai.IEmbedder) *SearchService {
	cache := expirable.NewLRU[string, []float32](2048, nil, 30*time.Minute)
	return &SearchService{
		circulars: circulars,
		embedder:  embedder,
		cache:     cache,
	}
}

func (s *SearchService) Search(ctx context.Context, query string, k int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", appErr.ErrInvalid)
	}
	if k <= 0 {
		k = defaultTopK
	}
	if k > maxTopK {
		k = maxTopK
	}

	vec, err := s.embedQuery(ctx, query)
	if err != nil {
		logutil.GetLogger(ctx).Error("failed to embed search query", zap.Error(err))
		return nil, err
	}
	hits, err := s.circulars.SearchByEmbedding(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		firstURL := ""
		if len(hit.FileURLs) > 0 {
			firstURL = hit.FileURLs[0]
		}
		results = append(results, SearchResult{
			ID:          hit.ID,
			Headline:    hit.Headline,
			FileURL:     firstURL,
			PublishedAt: hit.PublishedAt.UTC().Format(time.RFC3339),
			Score:       roundScore(hit.Distance),
		})
	}
	return results, nil
}

func (s *SearchService) embedQuery(ctx context.Context, query string) ([]float32, error) {
	key := s.cacheKey(query)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, vec)
	return vec, nil
}

func (s *SearchService) cacheKey(query string) string {
	sum := sha256.Sum256([]byte(s.embedder.ModelName() + "\x00" + query))
	return hex.EncodeToString(sum[:])
}

func roundScore(distance float64) float64 {
	return math.Round(distance*1000) / 1000
}
