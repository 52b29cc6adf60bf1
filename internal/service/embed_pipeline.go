package service

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/tenclo/intradesk/internal/ai"
	"github.com/tenclo/intradesk/internal/filetype"
	"github.com/tenclo/intradesk/internal/model"
)

// EmbedTask carries everything needed to enrich one committed circular with
// a vector. Data holds the original upload bytes so text extraction can run
// after the HTTP response has gone out.
type EmbedTask struct {
	ID       int64
	Headline string
	Kind     filetype.Kind
	Data     []byte
}

// EmbeddingStore is the repo slice the pipeline writes through.
type EmbeddingStore interface {
	SetContent(ctx context.Context, id int64, content string) error
	SetEmbedding(ctx context.Context, id int64, embedding []float32) error
	ListMissingEmbeddings(ctx context.Context, limit int) ([]model.Circular, error)
}

// TextExtractor pulls the text layer out of a PDF buffer.
type TextExtractor func(data []byte) (string, error)

// EmbedPipeline runs the best-effort enrichment phase: extract text, embed
// headline+content, persist the vector. It is decoupled from the request
// lifecycle; every failure in here is logged and swallowed, and never
// touches the already-committed circular beyond its content/embedding
// columns.
type EmbedPipeline struct {
	store    EmbeddingStore
	embedder ai.IEmbedder
	extract  TextExtractor
	tasks    chan EmbedTask
	done     chan struct{}
}

func NewEmbedPipeline(store EmbeddingStore, embedder ai.IEmbedder, extract TextExtractor, queueSize int) *EmbedPipeline {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &EmbedPipeline{
		store:    store,
		embedder: embedder,
		extract:  extract,
		tasks:    make(chan EmbedTask, queueSize),
		done:     make(chan struct{}),
	}
}

// Start runs the single worker goroutine until ctx is cancelled.
func (p *EmbedPipeline) Start(ctx context.Context) {
	go func() {
		defer close(p.done)
		for {
			select {
			case <-ctx.Done():
				return
			case task := <-p.tasks:
				p.ProcessOne(ctx, task)
			}
		}
	}()
}

// Wait blocks until the worker has exited after Start's ctx is cancelled.
func (p *EmbedPipeline) Wait() {
	<-p.done
}

// Schedule never blocks the caller. When the queue is full the task is
// dropped; the backfill sweep picks the record up later.
func (p *EmbedPipeline) Schedule(task EmbedTask) {
	select {
	case p.tasks <- task:
	default:
		logutil.GetLogger(context.Background()).Warn("embedding queue full, task dropped",
			zap.Int64("id", task.ID))
	}
}

// ProcessOne enriches a single record. It never returns an error: the
// circular stays valid and visible whether or not any step here succeeds.
func (p *EmbedPipeline) ProcessOne(ctx context.Context, task EmbedTask) {
	logger := logutil.GetLogger(ctx).With(zap.Int64("id", task.ID))

	text := ""
	if task.Kind == filetype.KindPDF && p.extract != nil {
		extracted, err := p.extract(task.Data)
		if err != nil {
			logger.Error("text extraction failed", zap.Error(err))
			return
		}
		text = extracted
	}
	if err := p.store.SetContent(ctx, task.ID, text); err != nil {
		logger.Error("store extracted content failed", zap.Error(err))
	}

	vec, err := p.embedder.Embed(ctx, BuildPrompt(task.Headline, text))
	if err != nil {
		logger.Error("embedding generation failed", zap.Error(err))
		return
	}
	if err := p.store.SetEmbedding(ctx, task.ID, vec); err != nil {
		logger.Error("embedding persist failed", zap.Error(err))
		return
	}
	logger.Info("embedding stored", zap.Int("dim", len(vec)))
}

// Backfill re-embeds records that still have no vector, from the headline
// and the stored extracted content. This is the coarse retry path that runs
// on a schedule, outside the per-upload flow.
func (p *EmbedPipeline) Backfill(ctx context.Context, limit int) error {
	items, err := p.store.ListMissingEmbeddings(ctx, limit)
	if err != nil {
		return fmt.Errorf("list missing embeddings: %w", err)
	}
	for _, item := range items {
		logger := logutil.GetLogger(ctx).With(zap.Int64("id", item.ID))
		vec, err := p.embedder.Embed(ctx, BuildPrompt(item.Headline, item.Content))
		if err != nil {
			logger.Error("backfill embedding failed", zap.Error(err))
			continue
		}
		if err := p.store.SetEmbedding(ctx, item.ID, vec); err != nil {
			logger.Error("backfill persist failed", zap.Error(err))
			continue
		}
		logger.Info("backfill embedding stored")
	}
	return nil
}

// BuildPrompt mixes the headline into the embedded text to improve recall on
// short documents.
func BuildPrompt(headline, content string) string {
	return fmt.Sprintf("Headline: %s\n\nContent: %s", headline, content)
}
