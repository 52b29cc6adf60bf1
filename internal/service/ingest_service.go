package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/tenclo/intradesk/internal/filestore"
	"github.com/tenclo/intradesk/internal/filetype"
	"github.com/tenclo/intradesk/internal/imaging"
	"github.com/tenclo/intradesk/internal/model"
	appErr "github.com/tenclo/intradesk/internal/pkg/errors"
)

// CircularCreator is the slice of the repo the orchestrator needs.
type CircularCreator interface {
	Create(ctx context.Context, c *model.Circular) error
}

// PageRenderer renders PDF pages to PNG buffers in page order.
type PageRenderer interface {
	RenderPages(data []byte, fn func(page int, img []byte) error) (int, error)
}

// EmbedScheduler accepts fire-and-forget embedding work after a record is
// committed.
type EmbedScheduler interface {
	Schedule(task EmbedTask)
}

// IngestService coordinates one upload: classify the bytes, rasterize or
// sanitize, upload every page, then persist the record. The operation is
// atomic with respect to the record: any failure before Create leaves no
// circular row behind (already-uploaded page objects may be orphaned, which
// is acceptable).
type IngestService struct {
	circulars CircularCreator
	blobs     filestore.Store
	renderer  PageRenderer
	pipeline  EmbedScheduler
}

func NewIngestService(circulars CircularCreator, blobs filestore.Store, renderer PageRenderer, pipeline EmbedScheduler) *IngestService {
	return &IngestService{
		circulars: circulars,
		blobs:     blobs,
		renderer:  renderer,
		pipeline:  pipeline,
	}
}

func (s *IngestService) Ingest(ctx context.Context, headline string, data []byte) (*model.Circular, error) {
	headline = strings.TrimSpace(headline)
	if headline == "" {
		return nil, fmt.Errorf("%w: headline is required", appErr.ErrInvalid)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: file is required", appErr.ErrInvalid)
	}

	kind := filetype.Detect(data)
	now := time.Now()
	// One timestamp keys all page objects of this ingestion.
	base := fmt.Sprintf("circular_%d_%s", now.UnixMilli(), randomHex(4))

	var urls []string
	switch {
	case kind == filetype.KindPDF:
		pageURLs, err := s.uploadPDFPages(ctx, base, data)
		if err != nil {
			return nil, err
		}
		urls = pageURLs
	case filetype.IsImage(kind):
		sanitized, err := imaging.Sanitize(data)
		if err != nil {
			return nil, err
		}
		key := base + ".png"
		if err := s.blobs.Save(ctx, key, filestore.NewBytesReader(sanitized), int64(len(sanitized))); err != nil {
			return nil, fmt.Errorf("%w: %v", appErr.ErrUploadFailed, err)
		}
		urls = []string{s.blobs.URL(key)}
	default:
		return nil, fmt.Errorf("%w: not a pdf, jpeg or png", appErr.ErrUnsupportedType)
	}

	circular := &model.Circular{
		Headline:    headline,
		FileURLs:    urls,
		PublishedAt: now.UTC(),
	}
	if err := s.circulars.Create(ctx, circular); err != nil {
		return nil, fmt.Errorf("create circular: %w", err)
	}
	logutil.GetLogger(ctx).Info("circular ingested",
		zap.Int64("id", circular.ID),
		zap.String("kind", string(kind)),
		zap.Int("pages", len(urls)),
	)

	if s.pipeline != nil {
		s.pipeline.Schedule(EmbedTask{
			ID:       circular.ID,
			Headline: headline,
			Kind:     kind,
			Data:     data,
		})
	}
	return circular, nil
}

// uploadPDFPages renders and uploads pages one at a time, in page order, so
// peak memory stays bounded and the stored URL order matches page order.
func (s *IngestService) uploadPDFPages(ctx context.Context, base string, data []byte) ([]string, error) {
	var urls []string
	_, err := s.renderer.RenderPages(data, func(page int, img []byte) error {
		key := fmt.Sprintf("%s_p%d.png", base, page)
		if err := s.blobs.Save(ctx, key, filestore.NewBytesReader(img), int64(len(img))); err != nil {
			return fmt.Errorf("%w: page %d: %v", appErr.ErrUploadFailed, page, err)
		}
		urls = append(urls, s.blobs.URL(key))
		return nil
	})
	if err != nil {
		if errors.Is(err, appErr.ErrInvalidFile) || errors.Is(err, appErr.ErrUploadFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("rasterize pdf: %w", err)
	}
	return urls, nil
}

func randomHex(size int) string {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "00000000"
	}
	return hex.EncodeToString(buf)
}
