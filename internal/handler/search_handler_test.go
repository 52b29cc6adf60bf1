package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tenclo/intradesk/internal/repo"
)

func TestSearchRequiresQuery(t *testing.T) {
	router := setupRouter(t, newMemCirculars())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search", nil)
	resp := doRequest(router, req)
	require.Equal(t, http.StatusBadRequest, resp.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/search?q=fire&k=abc", nil)
	resp = doRequest(router, req)
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestSearchReturnsRankedResults(t *testing.T) {
	circulars := newMemCirculars()
	circulars.hits = []repo.SearchHit{
		{
			ID:          4,
			Headline:    "Fire Drill Friday",
			FileURLs:    []string{"/api/v1/files/circular_1_aa_p1.png"},
			PublishedAt: time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC),
			Distance:    0.2041,
		},
	}
	router := setupRouter(t, circulars)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=fire+drill", nil)
	resp := doRequest(router, req)
	require.Equal(t, http.StatusOK, resp.Code)

	var payload struct {
		Data []struct {
			ID          int64   `json:"id"`
			Headline    string  `json:"headline"`
			FileURL     string  `json:"file_url"`
			PublishedAt string  `json:"published_at"`
			Score       float64 `json:"score"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	require.Len(t, payload.Data, 1)
	require.Equal(t, int64(4), payload.Data[0].ID)
	require.Equal(t, "/api/v1/files/circular_1_aa_p1.png", payload.Data[0].FileURL)
	require.Equal(t, "2026-05-02T08:00:00Z", payload.Data[0].PublishedAt)
	require.Equal(t, 0.204, payload.Data[0].Score)
}
