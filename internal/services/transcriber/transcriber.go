// Package transcriber produces timestamped speech segments from a video's
// audio track. Transcription is best-effort enrichment: every failure mode
// degrades to an empty transcript instead of failing the pipeline.
package transcriber

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/killallgit/highlight-api/internal/models"
	"github.com/killallgit/highlight-api/pkg/ffmpeg"
)

// AudioExtractor abstracts the ffmpeg audio decode step
type AudioExtractor interface {
	GetMetadata(ctx context.Context, filePath string) (*ffmpeg.VideoMetadata, error)
	ExtractAudioWAV(ctx context.Context, inputFile, outputFile string, sampleRate int) error
}

// SpeechRecognizer abstracts the transcription API call
type SpeechRecognizer interface {
	Transcribe(ctx context.Context, audioPath string) ([]models.TranscriptSegment, error)
}

// Transcriber decodes audio and runs speech recognition
type Transcriber struct {
	extractor  AudioExtractor
	recognizer SpeechRecognizer
	sampleRate int
	tempDir    string
}

// New creates a transcriber decoding to the given sample rate (16 kHz mono is
// what the recognizer expects).
func New(extractor AudioExtractor, recognizer SpeechRecognizer, sampleRate int, tempDir string) *Transcriber {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Transcriber{
		extractor:  extractor,
		recognizer: recognizer,
		sampleRate: sampleRate,
		tempDir:    tempDir,
	}
}

// Transcribe returns the video's transcript segments. A video without an
// audio stream, an undecodable track, or a recognizer failure all yield an
// empty transcript; segment order is whatever the recognizer emitted.
func (t *Transcriber) Transcribe(ctx context.Context, videoPath string) []models.TranscriptSegment {
	metadata, err := t.extractor.GetMetadata(ctx, videoPath)
	if err != nil {
		log.Printf("[WARN] Failed to probe %s for audio: %v", videoPath, err)
		return nil
	}
	if !metadata.HasAudio {
		log.Printf("[INFO] No audio track in %s, skipping transcription", videoPath)
		return nil
	}

	wavFile, err := os.CreateTemp(t.tempDir, "transcribe_*.wav")
	if err != nil {
		log.Printf("[WARN] Failed to create temp audio file for %s: %v", videoPath, err)
		return nil
	}
	wavPath := wavFile.Name()
	wavFile.Close()
	defer os.Remove(wavPath)

	if err := t.extractor.ExtractAudioWAV(ctx, videoPath, wavPath, t.sampleRate); err != nil {
		log.Printf("[WARN] Failed to decode audio in %s: %v", filepath.Base(videoPath), err)
		return nil
	}

	segments, err := t.recognizer.Transcribe(ctx, wavPath)
	if err != nil {
		log.Printf("[WARN] Transcription failed for %s: %v", filepath.Base(videoPath), err)
		return nil
	}
	return segments
}
