package job

import (
	"context"

	"github.com/tenclo/intradesk/internal/service"
)

// EmbeddingBackfillJob periodically re-embeds circulars whose embedding
// is still missing, picking up records dropped by the async pipeline.
type EmbeddingBackfillJob struct {
	pipeline *service.EmbedPipeline
	batch    int
}

func NewEmbeddingBackfillJob(pipeline *service.EmbedPipeline, batch int) *EmbeddingBackfillJob {
	return &EmbeddingBackfillJob{pipeline: pipeline, batch: batch}
}

func (j *EmbeddingBackfillJob) Name() string {
	return "embedding_backfill"
}

func (j *EmbeddingBackfillJob) Run(ctx context.Context) error {
	if j.pipeline == nil {
		return nil
	}
	return j.pipeline.Backfill(ctx, j.batch)
}
