package highlights

import (
	"context"

	"github.com/killallgit/highlight-api/internal/models"
)

// VectorResult is one vector-search row with its distance to the query
type VectorResult struct {
	Highlight models.Highlight
	Filename  string
	Distance  float64
}

// KeywordResult is one keyword-search row
type KeywordResult struct {
	Highlight models.Highlight
	Filename  string
}

// Repository defines the persistence interface for videos and highlights
type Repository interface {
	// Video operations
	CreateVideo(ctx context.Context, video *models.Video) error
	GetVideoByID(ctx context.Context, id uint) (*models.Video, error)
	DeleteVideo(ctx context.Context, id uint) error

	// Highlight operations
	AddHighlight(ctx context.Context, highlight *models.Highlight) error
	ListHighlights(ctx context.Context, videoID uint) ([]models.Highlight, error)

	// Search operations
	SearchByVector(ctx context.Context, query models.Vector, topK int, maxDistance float64) ([]VectorResult, error)
	SearchByKeyword(ctx context.Context, query string, topK int) ([]KeywordResult, error)
}
