// Package segmenter splits a video into candidate scene intervals at
// content-change boundaries.
package segmenter

import (
	"context"
	"fmt"

	"github.com/killallgit/highlight-api/internal/models"
	"github.com/killallgit/highlight-api/pkg/ffmpeg"
)

// SceneDetector abstracts the ffmpeg scene-change probe for testing
type SceneDetector interface {
	DetectSceneChanges(ctx context.Context, inputFile string, threshold float64) ([]float64, error)
	GetMetadata(ctx context.Context, filePath string) (*ffmpeg.VideoMetadata, error)
}

// Segmenter produces ordered, non-overlapping scene intervals
type Segmenter struct {
	detector    SceneDetector
	sensitivity int
}

// New creates a segmenter. Sensitivity is an integer threshold: larger values
// report fewer cuts.
func New(detector SceneDetector, sensitivity int) *Segmenter {
	if sensitivity <= 0 {
		sensitivity = 5
	}
	return &Segmenter{detector: detector, sensitivity: sensitivity}
}

// Detect returns the scene intervals spanning the video. The video must be
// openable; a probe failure propagates. A video with no detectable cuts
// yields a single interval covering its whole duration, or zero intervals
// when the duration itself cannot be determined.
func (s *Segmenter) Detect(ctx context.Context, videoPath string) ([]models.SceneInterval, error) {
	metadata, err := s.detector.GetMetadata(ctx, videoPath)
	if err != nil {
		return nil, fmt.Errorf("probing %s: %w", videoPath, err)
	}
	if !metadata.HasVideo {
		return nil, fmt.Errorf("probing %s: %w", videoPath, ffmpeg.ErrInvalidVideoFile)
	}

	// Integer sensitivity maps onto the ffmpeg scene score scale [0,1]
	threshold := float64(s.sensitivity) / 100.0

	boundaries, err := s.detector.DetectSceneChanges(ctx, videoPath, threshold)
	if err != nil {
		return nil, fmt.Errorf("detecting scenes in %s: %w", videoPath, err)
	}

	return intervalsFromBoundaries(boundaries, metadata.Duration), nil
}

// intervalsFromBoundaries builds contiguous intervals from cut timestamps:
// 0 -> b1 -> ... -> bn -> duration. Boundaries outside (0, duration) and
// degenerate spans are dropped, which also guarantees strictly increasing,
// non-overlapping output.
func intervalsFromBoundaries(boundaries []float64, duration float64) []models.SceneInterval {
	var intervals []models.SceneInterval
	prev := 0.0
	for _, b := range boundaries {
		if b <= prev {
			continue
		}
		if duration > 0 && b >= duration {
			break
		}
		intervals = append(intervals, models.SceneInterval{StartSeconds: prev, EndSeconds: b})
		prev = b
	}
	if duration > prev {
		intervals = append(intervals, models.SceneInterval{StartSeconds: prev, EndSeconds: duration})
	}
	return intervals
}
