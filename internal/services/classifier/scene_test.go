package classifier

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTextGenerator struct {
	response   string
	err        error
	lastPrompt string
}

func (f *fakeTextGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	return f.response, f.err
}

func TestSceneStrategyClassify(t *testing.T) {
	gen := &fakeTextGenerator{
		response: "```json\n{\"is_highlight\": true, \"title\": \"Winning goal\", \"summary\": \"The striker scores.\"}\n```",
	}
	strategy := NewSceneStrategy(gen)

	payload := ScenePayload{
		Filename:       "match.mp4",
		StartSeconds:   10,
		EndSeconds:     25,
		StartTimestamp: "00:10.000",
		EndTimestamp:   "00:25.000",
		ObjectLabels:   []string{"soccer ball"},
	}

	verdict, err := strategy.Classify(context.Background(), payload)
	require.NoError(t, err)
	assert.True(t, verdict.IsHighlight)
	assert.Equal(t, "Winning goal", verdict.Title)

	// The fused scene data goes into the prompt verbatim
	assert.True(t, strings.Contains(gen.lastPrompt, "match.mp4"))
	assert.True(t, strings.Contains(gen.lastPrompt, "soccer ball"))
}

func TestSceneStrategyGeneratorError(t *testing.T) {
	gen := &fakeTextGenerator{err: errors.New("quota exceeded")}
	strategy := NewSceneStrategy(gen)

	_, err := strategy.Classify(context.Background(), ScenePayload{StartTimestamp: "00:10.000"})
	assert.Error(t, err)
}

func TestSceneStrategyMalformedResponse(t *testing.T) {
	gen := &fakeTextGenerator{response: "this scene looks exciting!"}
	strategy := NewSceneStrategy(gen)

	verdict, err := strategy.Classify(context.Background(), ScenePayload{})
	require.NoError(t, err)
	assert.False(t, verdict.IsHighlight)
}
