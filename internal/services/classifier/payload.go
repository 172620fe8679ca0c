package classifier

import (
	"math"
	"strings"

	"github.com/killallgit/highlight-api/internal/models"
	"github.com/killallgit/highlight-api/pkg/timefmt"
)

// maxExcerptLen bounds the transcript excerpt included in a scene payload
const maxExcerptLen = 500

// payloadHint steers the model toward the judgment we want
const payloadHint = "Decide if this scene is a highlight based on objects, speech, motion, and timestamps."

// BuildScenePayload fuses the segmenter, transcript, and visual signal for
// one interval into the structured description sent to the classifier.
func BuildScenePayload(filename string, interval models.SceneInterval, transcript []models.TranscriptSegment, signal models.VisualSignal) ScenePayload {
	return ScenePayload{
		Filename:          filename,
		StartSeconds:      roundSeconds(interval.StartSeconds),
		EndSeconds:        roundSeconds(interval.EndSeconds),
		StartTimestamp:    timefmt.Timestamp(interval.StartSeconds),
		EndTimestamp:      timefmt.Timestamp(interval.EndSeconds),
		ObjectLabels:      signal.ObjectLabels,
		MotionScore:       signal.MotionScore,
		TranscriptExcerpt: transcriptExcerpt(transcript, interval),
		Hint:              payloadHint,
	}
}

// transcriptExcerpt joins the text of all segments overlapping the interval,
// truncated to maxExcerptLen characters.
func transcriptExcerpt(transcript []models.TranscriptSegment, interval models.SceneInterval) string {
	var parts []string
	for _, seg := range transcript {
		if seg.Overlaps(interval) {
			if text := strings.TrimSpace(seg.Text); text != "" {
				parts = append(parts, text)
			}
		}
	}
	excerpt := strings.Join(parts, " ")
	if len(excerpt) > maxExcerptLen {
		excerpt = excerpt[:maxExcerptLen]
	}
	return excerpt
}

func roundSeconds(s float64) float64 {
	return math.Round(s*1000) / 1000
}
