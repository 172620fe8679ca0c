package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// TextGenerator produces raw model text for a prompt
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// SceneStrategy classifies one scene at a time from fused signals
type SceneStrategy struct {
	generator TextGenerator
}

var _ SceneClassifier = (*SceneStrategy)(nil)

// NewSceneStrategy creates a per-scene classifier backed by a text generator
func NewSceneStrategy(generator TextGenerator) *SceneStrategy {
	return &SceneStrategy{generator: generator}
}

// Classify asks the model whether a scene is a highlight. Transport errors
// are returned to the caller; malformed model output degrades to the
// negative verdict so one bad response never sinks a batch.
func (s *SceneStrategy) Classify(ctx context.Context, payload ScenePayload) (Verdict, error) {
	raw, err := s.generator.GenerateText(ctx, buildScenePrompt(payload))
	if err != nil {
		return Verdict{}, fmt.Errorf("classifying scene %s: %w", payload.StartTimestamp, err)
	}
	return ParseVerdict(raw), nil
}

func buildScenePrompt(payload ScenePayload) string {
	var b strings.Builder
	b.WriteString("You are reviewing one scene from a longer video to decide whether it is a highlight.\n\n")

	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err == nil {
		b.WriteString("Scene data:\n")
		b.Write(encoded)
		b.WriteString("\n\n")
	}

	b.WriteString("Respond with a single JSON object and nothing else, shaped exactly as:\n")
	b.WriteString(`{"is_highlight": true or false, "title": "short title", "summary": "one or two sentences"}` + "\n")
	b.WriteString("If the scene is not a highlight, set is_highlight to false and leave title and summary empty.\n")
	return b.String()
}
