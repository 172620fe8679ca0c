package vision

import (
	"context"
	"testing"

	"github.com/killallgit/highlight-api/internal/models"
	"github.com/killallgit/highlight-api/pkg/ffmpeg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFrameSource struct {
	mock.Mock
}

func (m *MockFrameSource) ExtractFrameRGB(ctx context.Context, inputFile string, atSeconds float64, width, height int) (*ffmpeg.Frame, error) {
	args := m.Called(ctx, inputFile, atSeconds, width, height)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ffmpeg.Frame), args.Error(1)
}

func (m *MockFrameSource) ExtractGrayFrames(ctx context.Context, inputFile string, fromSeconds float64, count, width, height int) ([]ffmpeg.Frame, error) {
	args := m.Called(ctx, inputFile, fromSeconds, count, width, height)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ffmpeg.Frame), args.Error(1)
}

type fakeClassifier struct {
	labels []string
	err    error
}

func (f *fakeClassifier) ClassifyFrame(pixels []byte) ([]string, error) {
	return f.labels, f.err
}

func grayFrame(fill byte, size int) ffmpeg.Frame {
	pixels := make([]byte, size)
	for i := range pixels {
		pixels[i] = fill
	}
	return ffmpeg.Frame{Width: motionWidth, Height: motionHeight, Pixels: pixels}
}

func TestExtractUnreadableKeyframeReturnsEmptySignal(t *testing.T) {
	frames := new(MockFrameSource)
	frames.On("ExtractFrameRGB", mock.Anything, "clip.mp4", 15.0, InputSize, InputSize).
		Return(nil, ffmpeg.ErrFrameNotRead)

	signal := New(frames, &fakeClassifier{labels: []string{"dog"}}).
		Extract(context.Background(), "clip.mp4", models.SceneInterval{StartSeconds: 10, EndSeconds: 20})

	assert.Empty(t, signal.ObjectLabels)
	assert.Zero(t, signal.MotionScore)
	frames.AssertNotCalled(t, "ExtractGrayFrames")
}

func TestExtractReturnsLabelsAndMotion(t *testing.T) {
	frames := new(MockFrameSource)
	keyframe := &ffmpeg.Frame{Width: InputSize, Height: InputSize, Pixels: make([]byte, InputSize*InputSize*3)}
	frames.On("ExtractFrameRGB", mock.Anything, "clip.mp4", 15.0, InputSize, InputSize).
		Return(keyframe, nil)

	size := motionWidth * motionHeight
	frames.On("ExtractGrayFrames", mock.Anything, "clip.mp4", mock.Anything, motionFrames, motionWidth, motionHeight).
		Return([]ffmpeg.Frame{grayFrame(10, size), grayFrame(20, size), grayFrame(20, size)}, nil)

	signal := New(frames, &fakeClassifier{labels: []string{"dog", "ball"}}).
		Extract(context.Background(), "clip.mp4", models.SceneInterval{StartSeconds: 10, EndSeconds: 20})

	assert.Equal(t, []string{"dog", "ball"}, signal.ObjectLabels)
	// Pairs differ by 10 and 0; mean over 2 pairs = 5
	assert.InDelta(t, 5.0, signal.MotionScore, 1e-9)
}

func TestMeanFrameDifference(t *testing.T) {
	size := 4

	tests := []struct {
		name   string
		frames []ffmpeg.Frame
		want   float64
	}{
		{"no frames", nil, 0},
		{"single frame", []ffmpeg.Frame{grayFrame(5, size)}, 0},
		{"identical frames", []ffmpeg.Frame{grayFrame(5, size), grayFrame(5, size)}, 0},
		{"constant delta", []ffmpeg.Frame{grayFrame(0, size), grayFrame(30, size)}, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, meanFrameDifference(tt.frames), 1e-9)
		})
	}
}

func TestSoftmaxSumsToOne(t *testing.T) {
	probs := softmax([]float32{1, 2, 3, 4})
	var sum float64
	for _, p := range probs {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Greater(t, probs[3], probs[0])
}

func TestTopIndicesDescending(t *testing.T) {
	idx := topIndices([]float64{0.1, 0.7, 0.05, 0.15}, 3)
	require.Equal(t, []int{1, 3, 0}, idx)
}

func TestLabelsForFallsBackToSyntheticNames(t *testing.T) {
	c := &OnnxClassifier{labels: []string{"tench", "goldfish"}}
	labels := c.labelsFor([]int{1, 7})
	assert.Equal(t, []string{"goldfish", "class_7"}, labels)
}

func TestPreprocessNormalizes(t *testing.T) {
	pixels := make([]byte, InputSize*InputSize*3)
	for i := range pixels {
		pixels[i] = 255
	}
	out := preprocess(pixels)
	require.Len(t, out, 3*InputSize*InputSize)

	area := InputSize * InputSize
	// Channel 0: (1.0 - 0.485) / 0.229
	assert.InDelta(t, (1.0-0.485)/0.229, float64(out[0]), 1e-4)
	// Channel 2: (1.0 - 0.406) / 0.225
	assert.InDelta(t, (1.0-0.406)/0.225, float64(out[2*area]), 1e-4)
}
