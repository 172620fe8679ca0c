package highlights

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/killallgit/highlight-api/internal/models"
	"gorm.io/gorm"
)

// ErrVideoNotFound indicates the requested video does not exist
var ErrVideoNotFound = errors.New("video not found")

type GormRepository struct {
	db *gorm.DB
}

// Ensure GormRepository implements Repository interface
var _ Repository = (*GormRepository)(nil)

func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) CreateVideo(ctx context.Context, video *models.Video) error {
	if err := r.db.WithContext(ctx).Create(video).Error; err != nil {
		return fmt.Errorf("creating video: %w", err)
	}
	return nil
}

func (r *GormRepository) GetVideoByID(ctx context.Context, id uint) (*models.Video, error) {
	var video models.Video
	if err := r.db.WithContext(ctx).First(&video, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("getting video: %w", err)
	}
	return &video, nil
}

// DeleteVideo removes a video; the FK constraint cascades to its highlights
func (r *GormRepository) DeleteVideo(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Video{}, id)
	if result.Error != nil {
		return fmt.Errorf("deleting video: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrVideoNotFound
	}
	return nil
}

func (r *GormRepository) AddHighlight(ctx context.Context, highlight *models.Highlight) error {
	if highlight.StartSeconds >= highlight.EndSeconds {
		return fmt.Errorf("invalid highlight span: start %.3f >= end %.3f",
			highlight.StartSeconds, highlight.EndSeconds)
	}
	if len(highlight.Embedding) != 0 && len(highlight.Embedding) != models.EmbeddingDim {
		return fmt.Errorf("invalid embedding dimension: got %d, want %d",
			len(highlight.Embedding), models.EmbeddingDim)
	}
	if err := r.db.WithContext(ctx).Create(highlight).Error; err != nil {
		return fmt.Errorf("creating highlight: %w", err)
	}
	return nil
}

func (r *GormRepository) ListHighlights(ctx context.Context, videoID uint) ([]models.Highlight, error) {
	var highlights []models.Highlight
	if err := r.db.WithContext(ctx).
		Where("video_id = ?", videoID).
		Order("start_seconds ASC").
		Find(&highlights).Error; err != nil {
		return nil, fmt.Errorf("listing highlights: %w", err)
	}
	return highlights, nil
}

// SearchByVector ranks every stored embedding by Euclidean distance to the
// query. Brute force over all rows: the corpus is highlight-sized, not
// web-sized, so a scan beats maintaining an index.
func (r *GormRepository) SearchByVector(ctx context.Context, query models.Vector, topK int, maxDistance float64) ([]VectorResult, error) {
	if len(query) != models.EmbeddingDim {
		return nil, fmt.Errorf("query embedding dimension %d does not match stored dimension %d",
			len(query), models.EmbeddingDim)
	}

	var rows []models.Highlight
	if err := r.db.WithContext(ctx).
		Preload("Video").
		Where("embedding IS NOT NULL").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("loading highlight embeddings: %w", err)
	}

	results := make([]VectorResult, 0, len(rows))
	for _, h := range rows {
		distance := h.Embedding.Distance(query)
		if maxDistance > 0 && distance > maxDistance {
			continue
		}
		filename := ""
		if h.Video != nil {
			filename = h.Video.Filename
		}
		h.Video = nil
		results = append(results, VectorResult{Highlight: h, Filename: filename, Distance: distance})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// SearchByKeyword matches the query as a case-insensitive substring of the
// highlight title or summary, ordered by start time.
func (r *GormRepository) SearchByKeyword(ctx context.Context, query string, topK int) ([]KeywordResult, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"

	var rows []models.Highlight
	tx := r.db.WithContext(ctx).
		Preload("Video").
		Where("LOWER(title) LIKE ? OR LOWER(summary) LIKE ?", pattern, pattern).
		Order("start_seconds ASC")
	if topK > 0 {
		tx = tx.Limit(topK)
	}
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	results := make([]KeywordResult, 0, len(rows))
	for _, h := range rows {
		filename := ""
		if h.Video != nil {
			filename = h.Video.Filename
		}
		h.Video = nil
		results = append(results, KeywordResult{Highlight: h, Filename: filename})
	}
	return results, nil
}
