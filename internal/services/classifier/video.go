package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

var (
	// ErrFileProcessingFailed indicates the uploaded video never reached the
	// ACTIVE state before generation could run.
	ErrFileProcessingFailed = errors.New("uploaded file processing failed")

	// ErrFileProcessingTimeout indicates polling exceeded the configured wait
	ErrFileProcessingTimeout = errors.New("timed out waiting for uploaded file")
)

// FileGenerator handles video upload, readiness polling and schema-constrained
// generation against an uploaded asset
type FileGenerator interface {
	UploadFile(ctx context.Context, path string) (UploadedFile, error)
	GetFile(ctx context.Context, name string) (UploadedFile, error)
	GenerateFromFile(ctx context.Context, file UploadedFile, mimeType, prompt string, schema json.RawMessage) (string, error)
}

// Clock abstracts time so tests can drive the poll loop without waiting
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// VideoStrategy uploads the whole video and asks for all highlights at once
type VideoStrategy struct {
	generator    FileGenerator
	clock        Clock
	pollInterval time.Duration
	pollTimeout  time.Duration
}

var _ VideoSummarizer = (*VideoStrategy)(nil)

// NewVideoStrategy creates a whole-video summarizer. pollInterval and
// pollTimeout fall back to 500ms and 60s when zero.
func NewVideoStrategy(generator FileGenerator, pollInterval, pollTimeout time.Duration) *VideoStrategy {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	if pollTimeout <= 0 {
		pollTimeout = 60 * time.Second
	}
	return &VideoStrategy{
		generator:    generator,
		clock:        realClock{},
		pollInterval: pollInterval,
		pollTimeout:  pollTimeout,
	}
}

// WithClock overrides the clock. Test hook.
func (s *VideoStrategy) WithClock(c Clock) *VideoStrategy {
	s.clock = c
	return s
}

// candidateSchema constrains the model to the exact candidate array shape
var candidateSchema = json.RawMessage(`{
  "type": "ARRAY",
  "items": {
    "type": "OBJECT",
    "properties": {
      "start_s": {"type": "NUMBER"},
      "end_s": {"type": "NUMBER"},
      "title": {"type": "STRING"},
      "summary": {"type": "STRING"}
    },
    "required": ["start_s", "end_s", "title", "summary"]
  }
}`)

// Summarize uploads the video, waits for the asset to become ACTIVE and asks
// the model for up to maxCount highlight candidates.
func (s *VideoStrategy) Summarize(ctx context.Context, videoPath string, maxCount int) ([]Candidate, error) {
	uploaded, err := s.generator.UploadFile(ctx, videoPath)
	if err != nil {
		return nil, fmt.Errorf("uploading %s: %w", filepath.Base(videoPath), err)
	}

	ready, err := s.waitForActive(ctx, uploaded)
	if err != nil {
		return nil, err
	}

	raw, err := s.generator.GenerateFromFile(ctx, ready, MimeTypeFor(videoPath), buildVideoPrompt(maxCount), candidateSchema)
	if err != nil {
		return nil, fmt.Errorf("summarizing %s: %w", filepath.Base(videoPath), err)
	}
	return ParseCandidates(raw), nil
}

// waitForActive polls the file state until it settles or the deadline passes
func (s *VideoStrategy) waitForActive(ctx context.Context, file UploadedFile) (UploadedFile, error) {
	deadline := s.clock.Now().Add(s.pollTimeout)
	current := file

	for {
		switch current.State {
		case FileStateActive:
			return current, nil
		case FileStateFailed, FileStateDeleted:
			return UploadedFile{}, fmt.Errorf("%w: file %s is %s", ErrFileProcessingFailed, current.Name, current.State)
		}

		if !s.clock.Now().Before(deadline) {
			return UploadedFile{}, fmt.Errorf("%w: file %s still %s after %s", ErrFileProcessingTimeout, current.Name, current.State, s.pollTimeout)
		}
		if err := s.clock.Sleep(ctx, s.pollInterval); err != nil {
			return UploadedFile{}, err
		}

		refreshed, err := s.generator.GetFile(ctx, current.Name)
		if err != nil {
			return UploadedFile{}, fmt.Errorf("polling file %s: %w", current.Name, err)
		}
		current = refreshed
	}
}

func buildVideoPrompt(maxCount int) string {
	return fmt.Sprintf(
		"Watch this video and identify up to %d highlight moments worth clipping. "+
			"Respond with a JSON array where each element has start_s and end_s as "+
			"seconds from the beginning of the video, a short title and a one or two "+
			"sentence summary. Return an empty array if nothing stands out.",
		maxCount,
	)
}
