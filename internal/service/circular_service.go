package service

import (
	"context"

	"github.com/tenclo/intradesk/internal/model"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// CircularReader is the repo slice read paths use.
type CircularReader interface {
	GetByID(ctx context.Context, id int64) (*model.Circular, error)
	List(ctx context.Context, limit, offset int) ([]model.Circular, error)
}

// CircularService serves the read side. Records are readable the moment
// ingestion commits them, embedded or not.
type CircularService struct {
	circulars CircularReader
}

func NewCircularService(circulars CircularReader) *CircularService {
	return &CircularService{circulars: circulars}
}

func (s *CircularService) GetByID(ctx context.Context, id int64) (*model.Circular, error) {
	return s.circulars.GetByID(ctx, id)
}

func (s *CircularService) List(ctx context.Context, limit, offset int) ([]model.Circular, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.circulars.List(ctx, limit, offset)
}
