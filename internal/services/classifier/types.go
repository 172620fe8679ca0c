package classifier

import "context"

// Verdict is the per-scene classification result
type Verdict struct {
	IsHighlight bool   `json:"is_highlight"`
	Title       string `json:"title"`
	Summary     string `json:"summary"`
}

// Candidate is one highlight proposed by the generative model. Untrusted
// until it passes ValidateCandidate.
type Candidate struct {
	StartSeconds float64 `json:"start_s"`
	EndSeconds   float64 `json:"end_s"`
	Title        string  `json:"title"`
	Summary      string  `json:"summary"`
}

// ScenePayload is the fused per-scene description sent to the classifier.
// Transient: serialized into the prompt, never persisted.
type ScenePayload struct {
	Filename          string   `json:"filename"`
	StartSeconds      float64  `json:"start_s"`
	EndSeconds        float64  `json:"end_s"`
	StartTimestamp    string   `json:"start_ts"`
	EndTimestamp      string   `json:"end_ts"`
	ObjectLabels      []string `json:"objects"`
	MotionScore       float64  `json:"motion"`
	TranscriptExcerpt string   `json:"transcript_excerpt"`
	Hint              string   `json:"hint"`
}

// SceneClassifier judges one scene at a time
type SceneClassifier interface {
	Classify(ctx context.Context, payload ScenePayload) (Verdict, error)
}

// VideoSummarizer extracts highlights from the whole video in one call
type VideoSummarizer interface {
	Summarize(ctx context.Context, videoPath string, maxCount int) ([]Candidate, error)
}
