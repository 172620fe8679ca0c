// Package vision extracts per-scene visual features: ranked object labels
// from a representative keyframe and a scalar motion intensity estimate.
package vision

import (
	"context"
	"errors"
	"log"

	"github.com/killallgit/highlight-api/internal/models"
	"github.com/killallgit/highlight-api/pkg/ffmpeg"
)

const (
	// Motion sampling parameters: up to motionFrames consecutive frames,
	// starting motionLead seconds before the interval midpoint, at a reduced
	// resolution that is plenty for an intensity estimate.
	motionFrames = 10
	motionLead   = 0.2
	motionWidth  = 160
	motionHeight = 90
)

// FrameSource abstracts frame decoding for testing
type FrameSource interface {
	ExtractFrameRGB(ctx context.Context, inputFile string, atSeconds float64, width, height int) (*ffmpeg.Frame, error)
	ExtractGrayFrames(ctx context.Context, inputFile string, fromSeconds float64, count, width, height int) ([]ffmpeg.Frame, error)
}

// Extractor computes the visual signal for one scene interval
type Extractor struct {
	frames     FrameSource
	classifier ImageClassifier
}

// New creates a visual signal extractor
func New(frames FrameSource, classifier ImageClassifier) *Extractor {
	return &Extractor{frames: frames, classifier: classifier}
}

// Extract samples the interval midpoint keyframe for object labels and
// estimates motion from consecutive frame differences around it. An
// unreadable keyframe degrades to an empty signal; it never fails the scene.
func (e *Extractor) Extract(ctx context.Context, videoPath string, interval models.SceneInterval) models.VisualSignal {
	mid := interval.Midpoint()

	keyframe, err := e.frames.ExtractFrameRGB(ctx, videoPath, mid, InputSize, InputSize)
	if err != nil {
		if !errors.Is(err, ffmpeg.ErrFrameNotRead) {
			log.Printf("[WARN] Keyframe read failed at %.3fs in %s: %v", mid, videoPath, err)
		}
		return models.VisualSignal{}
	}

	labels, err := e.classifier.ClassifyFrame(keyframe.Pixels)
	if err != nil {
		log.Printf("[WARN] Frame classification failed at %.3fs in %s: %v", mid, videoPath, err)
		labels = nil
	}

	return models.VisualSignal{
		ObjectLabels: labels,
		MotionScore:  e.motionScore(ctx, videoPath, mid),
	}
}

// motionScore is the mean absolute pixel difference between consecutive
// grayscale frames around the midpoint. A local approximation of "something
// changed here", not optical flow. 0.0 when fewer than two frames decode.
func (e *Extractor) motionScore(ctx context.Context, videoPath string, mid float64) float64 {
	from := mid - motionLead
	if from < 0 {
		from = 0
	}

	frames, err := e.frames.ExtractGrayFrames(ctx, videoPath, from, motionFrames, motionWidth, motionHeight)
	if err != nil {
		log.Printf("[WARN] Motion sampling failed at %.3fs in %s: %v", mid, videoPath, err)
		return 0
	}
	return meanFrameDifference(frames)
}

// meanFrameDifference averages the per-pair mean absolute intensity delta
// over all valid consecutive pairs.
func meanFrameDifference(frames []ffmpeg.Frame) float64 {
	var total float64
	pairs := 0
	for i := 1; i < len(frames); i++ {
		prev, cur := frames[i-1].Pixels, frames[i].Pixels
		if len(prev) == 0 || len(prev) != len(cur) {
			continue
		}
		var sum float64
		for j := range cur {
			d := int(cur[j]) - int(prev[j])
			if d < 0 {
				d = -d
			}
			sum += float64(d)
		}
		total += sum / float64(len(cur))
		pairs++
	}
	if pairs == 0 {
		return 0
	}
	return total / float64(pairs)
}
