// Package pipeline orchestrates highlight extraction: it turns a video file
// into persisted, embedded highlight rows.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/killallgit/highlight-api/internal/models"
	"github.com/killallgit/highlight-api/internal/services/classifier"
	"github.com/killallgit/highlight-api/internal/services/embeddings"
	"github.com/killallgit/highlight-api/internal/services/highlights"
	"github.com/killallgit/highlight-api/pkg/ffmpeg"
)

// Extraction strategies
const (
	StrategyScene = "scene"
	StrategyVideo = "video"
)

// SceneSegmenter splits a video into candidate intervals
type SceneSegmenter interface {
	Detect(ctx context.Context, videoPath string) ([]models.SceneInterval, error)
}

// SpeechTranscriber produces the video's transcript, best effort
type SpeechTranscriber interface {
	Transcribe(ctx context.Context, videoPath string) []models.TranscriptSegment
}

// SignalExtractor computes the visual signal for one interval
type SignalExtractor interface {
	Extract(ctx context.Context, videoPath string, interval models.SceneInterval) models.VisualSignal
}

// Prober reads container metadata
type Prober interface {
	GetMetadata(ctx context.Context, filePath string) (*ffmpeg.VideoMetadata, error)
}

// Config holds pipeline settings
type Config struct {
	Strategy      string // scene or video
	Workers       int    // Concurrent scene evaluations. Default: 2
	MaxHighlights int    // Cap on highlights kept per video. Default: 10
	MaxBatchFiles int    // Cap on files per batch run. Default: 10
}

// Pipeline runs the full extraction flow for one or more videos
type Pipeline struct {
	prober      Prober
	segmenter   SceneSegmenter
	transcriber SpeechTranscriber
	vision      SignalExtractor
	scenes      classifier.SceneClassifier
	summarizer  classifier.VideoSummarizer
	embedder    embeddings.Embedder
	repo        highlights.Repository
	config      Config
}

// New creates a pipeline. The scene strategy needs segmenter, transcriber,
// vision and scenes; the video strategy needs only summarizer. Both need the
// prober, embedder and repository.
func New(
	prober Prober,
	segmenter SceneSegmenter,
	transcriber SpeechTranscriber,
	vision SignalExtractor,
	scenes classifier.SceneClassifier,
	summarizer classifier.VideoSummarizer,
	embedder embeddings.Embedder,
	repo highlights.Repository,
	cfg Config,
) *Pipeline {
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyVideo
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.MaxHighlights <= 0 {
		cfg.MaxHighlights = 10
	}
	if cfg.MaxBatchFiles <= 0 {
		cfg.MaxBatchFiles = 10
	}
	return &Pipeline{
		prober:      prober,
		segmenter:   segmenter,
		transcriber: transcriber,
		vision:      vision,
		scenes:      scenes,
		summarizer:  summarizer,
		embedder:    embedder,
		repo:        repo,
		config:      cfg,
	}
}

// videoExtensions are the container formats accepted for batch intake
var videoExtensions = map[string]bool{
	".mp4": true,
	".mov": true,
	".m4v": true,
	".mkv": true,
}

// ProcessFile runs extraction on one video and persists the results. The
// video row is created before classification so a file is recorded even when
// it yields no highlights.
func (p *Pipeline) ProcessFile(ctx context.Context, videoPath string) (*models.Video, error) {
	video := &models.Video{
		Filename:        filepath.Base(videoPath),
		DurationSeconds: p.probeDuration(ctx, videoPath),
	}
	if err := p.repo.CreateVideo(ctx, video); err != nil {
		return nil, fmt.Errorf("recording video %s: %w", video.Filename, err)
	}

	var candidates []classifier.Candidate
	switch p.config.Strategy {
	case StrategyScene:
		extracted, err := p.extractByScene(ctx, videoPath)
		if err != nil {
			return nil, fmt.Errorf("extracting highlights from %s: %w", video.Filename, err)
		}
		candidates = extracted
	default:
		// A failed or timed-out classifier call degrades to zero highlights;
		// the video row stays so the file is not reprocessed blindly.
		extracted, err := p.summarizer.Summarize(ctx, videoPath, p.config.MaxHighlights)
		if err != nil {
			log.Printf("[WARN] Summarizing %s yielded no highlights: %v", video.Filename, err)
		}
		candidates = extracted
	}

	kept := classifier.FilterCandidates(candidates, p.config.MaxHighlights)
	log.Printf("[INFO] %s: %d candidates, %d kept", video.Filename, len(candidates), len(kept))

	for _, c := range kept {
		if err := p.persistHighlight(ctx, video.ID, c); err != nil {
			log.Printf("[WARN] Dropping highlight %q in %s: %v", c.Title, video.Filename, err)
		}
	}
	return video, nil
}

// probeDuration reads the container duration. Unknowable duration is not an
// error; the video row carries NULL.
func (p *Pipeline) probeDuration(ctx context.Context, videoPath string) *float64 {
	metadata, err := p.prober.GetMetadata(ctx, videoPath)
	if err != nil || metadata.Duration <= 0 {
		log.Printf("[WARN] Could not determine duration of %s", filepath.Base(videoPath))
		return nil
	}
	duration := metadata.Duration
	return &duration
}

// extractByScene runs the per-scene strategy: segment, transcribe once, then
// evaluate scenes concurrently under the worker budget. A failed scene
// evaluation drops that scene, not the file. Results keep scene order.
func (p *Pipeline) extractByScene(ctx context.Context, videoPath string) ([]classifier.Candidate, error) {
	intervals, err := p.segmenter.Detect(ctx, videoPath)
	if err != nil {
		return nil, err
	}
	if len(intervals) == 0 {
		return nil, nil
	}

	transcript := p.transcriber.Transcribe(ctx, videoPath)
	filename := filepath.Base(videoPath)

	verdicts := make([]classifier.Verdict, len(intervals))
	var wg sync.WaitGroup
	sem := make(chan struct{}, p.config.Workers)

	for i, interval := range intervals {
		wg.Add(1)
		go func(i int, interval models.SceneInterval) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			signal := p.vision.Extract(ctx, videoPath, interval)
			payload := classifier.BuildScenePayload(filename, interval, transcript, signal)

			verdict, err := p.scenes.Classify(ctx, payload)
			if err != nil {
				log.Printf("[WARN] Scene %s-%s in %s not classified: %v",
					payload.StartTimestamp, payload.EndTimestamp, filename, err)
				return
			}
			verdicts[i] = verdict
		}(i, interval)
	}
	wg.Wait()

	var candidates []classifier.Candidate
	for i, v := range verdicts {
		if !v.IsHighlight {
			continue
		}
		candidates = append(candidates, classifier.Candidate{
			StartSeconds: intervals[i].StartSeconds,
			EndSeconds:   intervals[i].EndSeconds,
			Title:        v.Title,
			Summary:      v.Summary,
		})
	}
	return candidates, nil
}

// persistHighlight embeds the candidate's summary and stores the row. A
// highlight without an embedding is unsearchable, so an embedding failure
// drops the candidate.
func (p *Pipeline) persistHighlight(ctx context.Context, videoID uint, c classifier.Candidate) error {
	embedding, err := p.embedder.Embed(c.Summary)
	if err != nil {
		return fmt.Errorf("embedding summary: %w", err)
	}
	return p.repo.AddHighlight(ctx, &models.Highlight{
		VideoID:      videoID,
		StartSeconds: c.StartSeconds,
		EndSeconds:   c.EndSeconds,
		Title:        c.Title,
		Summary:      c.Summary,
		Embedding:    embedding,
	})
}

// BatchResult summarizes one batch run
type BatchResult struct {
	Processed []string
	Failed    map[string]error
	Skipped   int // Files beyond the batch cap
}

// ProcessBatch processes a single video file, or every video file directly
// inside a directory in name order, capped at MaxBatchFiles. One file's
// failure never stops the rest.
func (p *Pipeline) ProcessBatch(ctx context.Context, path string) (BatchResult, error) {
	result := BatchResult{Failed: make(map[string]error)}

	files, err := listVideoFiles(path)
	if err != nil {
		return result, err
	}
	if len(files) > p.config.MaxBatchFiles {
		result.Skipped = len(files) - p.config.MaxBatchFiles
		log.Printf("[WARN] Batch holds %d videos, processing the first %d", len(files), p.config.MaxBatchFiles)
		files = files[:p.config.MaxBatchFiles]
	}

	for _, path := range files {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if _, err := p.ProcessFile(ctx, path); err != nil {
			log.Printf("[ERROR] Processing %s failed: %v", filepath.Base(path), err)
			result.Failed[filepath.Base(path)] = err
			continue
		}
		result.Processed = append(result.Processed, filepath.Base(path))
	}
	return result, nil
}

// listVideoFiles resolves path to the video files it covers: the file itself,
// or the files directly inside the directory, sorted by name
func listVideoFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if !info.IsDir() {
		if !videoExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil, fmt.Errorf("%s is not a supported video file", path)
		}
		return []string{path}, nil
	}

	entries, err := filepath.Glob(filepath.Join(path, "*"))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", path, err)
	}

	var files []string
	for _, path := range entries {
		if videoExtensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
	}
	sort.Strings(files)
	return files, nil
}
