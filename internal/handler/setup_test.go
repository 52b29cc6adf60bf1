package handler_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/tenclo/intradesk/internal/config"
	"github.com/tenclo/intradesk/internal/filestore"
	"github.com/tenclo/intradesk/internal/handler"
	"github.com/tenclo/intradesk/internal/model"
	appErr "github.com/tenclo/intradesk/internal/pkg/errors"
	"github.com/tenclo/intradesk/internal/pkg/jwt"
	"github.com/tenclo/intradesk/internal/repo"
	"github.com/tenclo/intradesk/internal/service"
)

var testSecret = []byte("test-secret")

type memCirculars struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64]*model.Circular
	hits    []repo.SearchHit
}

func newMemCirculars() *memCirculars {
	return &memCirculars{records: map[int64]*model.Circular{}}
}

func (m *memCirculars) Create(ctx context.Context, c *model.Circular) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c.ID = m.nextID
	clone := *c
	m.records[c.ID] = &clone
	return nil
}

func (m *memCirculars) GetByID(ctx context.Context, id int64) (*model.Circular, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[id]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	clone := *record
	return &clone, nil
}

func (m *memCirculars) List(ctx context.Context, limit, offset int) ([]model.Circular, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Circular, 0, len(m.records))
	for _, record := range m.records {
		out = append(out, *record)
	}
	return out, nil
}

func (m *memCirculars) SearchByEmbedding(ctx context.Context, embedding []float32, k int) ([]repo.SearchHit, error) {
	return m.hits, nil
}

type stubRenderer struct {
	pages [][]byte
}

func (r *stubRenderer) RenderPages(data []byte, fn func(page int, img []byte) error) (int, error) {
	for i, img := range r.pages {
		if err := fn(i+1, img); err != nil {
			return i, err
		}
	}
	return len(r.pages), nil
}

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

func (stubEmbedder) ModelName() string { return "stub-embed" }

func (stubEmbedder) Dimension() int { return 2 }

type noopScheduler struct{}

func (noopScheduler) Schedule(task service.EmbedTask) {}

func setupRouter(t *testing.T, circulars *memCirculars) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{
			"dir": t.TempDir(),
		},
	})
	require.NoError(t, err)

	ingestService := service.NewIngestService(circulars, store, &stubRenderer{}, noopScheduler{})
	circularService := service.NewCircularService(circulars)
	searchService := service.NewSearchService(circulars, stubEmbedder{})

	engine := gin.New()
	api := engine.Group("/api/v1")
	handler.RegisterRoutes(api, handler.RouterDeps{
		Circulars: handler.NewCircularHandler(ingestService, circularService, 20),
		Search:    handler.NewSearchHandler(searchService),
		Files:     handler.NewFileHandler(store),
		JWTSecret: testSecret,
	})
	return engine
}

func publisherToken(t *testing.T) string {
	t.Helper()
	token, err := jwt.GenerateToken("u1", jwt.RolePublisher, testSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func readerToken(t *testing.T) string {
	t.Helper()
	token, err := jwt.GenerateToken("u2", "reader", testSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func encodeTestPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartUpload(t *testing.T, headline, filename string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if headline != "" {
		require.NoError(t, writer.WriteField("headline", headline))
	}
	if payload != nil {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(payload)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func doRequest(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}
