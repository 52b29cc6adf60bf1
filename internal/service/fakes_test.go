package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tenclo/intradesk/internal/filestore"
	"github.com/tenclo/intradesk/internal/model"
	"github.com/tenclo/intradesk/internal/repo"
)

type fakeCircularStore struct {
	mu         sync.Mutex
	nextID     int64
	records    map[int64]*model.Circular
	embeddings map[int64][]float32
	hits       []repo.SearchHit
	lastK      int
}

func newFakeCircularStore() *fakeCircularStore {
	return &fakeCircularStore{
		records:    map[int64]*model.Circular{},
		embeddings: map[int64][]float32{},
	}
}

func (f *fakeCircularStore) Create(ctx context.Context, c *model.Circular) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	c.ID = f.nextID
	clone := *c
	f.records[c.ID] = &clone
	return nil
}

func (f *fakeCircularStore) GetByID(ctx context.Context, id int64) (*model.Circular, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.records[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	clone := *c
	_, clone.HasEmbedding = f.embeddings[id]
	return &clone, nil
}

func (f *fakeCircularStore) List(ctx context.Context, limit, offset int) ([]model.Circular, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Circular
	for _, c := range f.records {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeCircularStore) SetContent(ctx context.Context, id int64, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.records[id]
	if !ok {
		return fmt.Errorf("not found")
	}
	c.Content = content
	return nil
}

func (f *fakeCircularStore) SetEmbedding(ctx context.Context, id int64, embedding []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[id]; !ok {
		return fmt.Errorf("not found")
	}
	f.embeddings[id] = embedding
	return nil
}

func (f *fakeCircularStore) ListMissingEmbeddings(ctx context.Context, limit int) ([]model.Circular, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Circular
	for _, c := range f.records {
		if _, ok := f.embeddings[c.ID]; !ok {
			out = append(out, *c)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeCircularStore) SearchByEmbedding(ctx context.Context, embedding []float32, k int) ([]repo.SearchHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastK = k
	return f.hits, nil
}

func (f *fakeCircularStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type fakeBlobStore struct {
	mu      sync.Mutex
	saved   []string
	objects map[string][]byte
	failAt  int // 1-based save index that fails; 0 disables
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: map[string][]byte{}}
}

func (f *fakeBlobStore) Type() string { return "fake" }

func (f *fakeBlobStore) Save(ctx context.Context, key string, r filestore.ReadSeekCloser, size int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAt > 0 && len(f.saved)+1 == f.failAt {
		return fmt.Errorf("object store down")
	}
	buf := make([]byte, size)
	if _, err := r.Read(buf); err != nil {
		return err
	}
	f.saved = append(f.saved, key)
	f.objects[key] = buf
	return nil
}

func (f *fakeBlobStore) Open(ctx context.Context, key string) (filestore.ReadSeekCloser, error) {
	return nil, fmt.Errorf("not supported")
}

func (f *fakeBlobStore) URL(key string) string {
	return "https://files.test/" + key
}

type fakeRenderer struct {
	pages [][]byte
	err   error
}

func (f *fakeRenderer) RenderPages(data []byte, fn func(page int, img []byte) error) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	for i, page := range f.pages {
		if err := fn(i+1, page); err != nil {
			return len(f.pages), err
		}
	}
	return len(f.pages), nil
}

type fakeEmbedder struct {
	mu     sync.Mutex
	vec    []float32
	err    error
	inputs []string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, text)
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

func (f *fakeEmbedder) ModelName() string { return "fake-embed" }

func (f *fakeEmbedder) Dimension() int { return len(f.vec) }

func (f *fakeEmbedder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

func circularFixture(headline string) *model.Circular {
	return &model.Circular{
		Headline:    headline,
		FileURLs:    []string{"https://files.test/fixture_p1.png"},
		PublishedAt: time.Now().UTC(),
	}
}

type capturedTask struct {
	mu    sync.Mutex
	tasks []EmbedTask
}

func (c *capturedTask) Schedule(task EmbedTask) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks = append(c.tasks, task)
}
