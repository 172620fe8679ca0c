package transcriber

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/killallgit/highlight-api/internal/models"
	"github.com/killallgit/highlight-api/pkg/ffmpeg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) GetMetadata(ctx context.Context, filePath string) (*ffmpeg.VideoMetadata, error) {
	args := m.Called(ctx, filePath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ffmpeg.VideoMetadata), args.Error(1)
}

func (m *MockExtractor) ExtractAudioWAV(ctx context.Context, inputFile, outputFile string, sampleRate int) error {
	args := m.Called(ctx, inputFile, outputFile, sampleRate)
	return args.Error(0)
}

type MockRecognizer struct {
	mock.Mock
}

func (m *MockRecognizer) Transcribe(ctx context.Context, audioPath string) ([]models.TranscriptSegment, error) {
	args := m.Called(ctx, audioPath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TranscriptSegment), args.Error(1)
}

func TestTranscribeNoAudioReturnsEmpty(t *testing.T) {
	extractor := new(MockExtractor)
	recognizer := new(MockRecognizer)
	extractor.On("GetMetadata", mock.Anything, "silent.mp4").
		Return(&ffmpeg.VideoMetadata{HasVideo: true, HasAudio: false}, nil)

	segments := New(extractor, recognizer, 16000, t.TempDir()).
		Transcribe(context.Background(), "silent.mp4")

	assert.Empty(t, segments)
	recognizer.AssertNotCalled(t, "Transcribe")
}

func TestTranscribeDecodeFailureDegrades(t *testing.T) {
	extractor := new(MockExtractor)
	recognizer := new(MockRecognizer)
	extractor.On("GetMetadata", mock.Anything, "clip.mp4").
		Return(&ffmpeg.VideoMetadata{HasVideo: true, HasAudio: true}, nil)
	extractor.On("ExtractAudioWAV", mock.Anything, "clip.mp4", mock.Anything, 16000).
		Return(errors.New("corrupt stream"))

	segments := New(extractor, recognizer, 16000, t.TempDir()).
		Transcribe(context.Background(), "clip.mp4")

	assert.Empty(t, segments)
	recognizer.AssertNotCalled(t, "Transcribe")
}

func TestTranscribeRecognizerFailureDegrades(t *testing.T) {
	extractor := new(MockExtractor)
	recognizer := new(MockRecognizer)
	extractor.On("GetMetadata", mock.Anything, "clip.mp4").
		Return(&ffmpeg.VideoMetadata{HasVideo: true, HasAudio: true}, nil)
	extractor.On("ExtractAudioWAV", mock.Anything, "clip.mp4", mock.Anything, 16000).
		Return(nil)
	recognizer.On("Transcribe", mock.Anything, mock.Anything).
		Return(nil, errors.New("api down"))

	segments := New(extractor, recognizer, 16000, t.TempDir()).
		Transcribe(context.Background(), "clip.mp4")

	assert.Empty(t, segments)
}

func TestTranscribeReturnsSegmentsInRecognizerOrder(t *testing.T) {
	extractor := new(MockExtractor)
	recognizer := new(MockRecognizer)
	extractor.On("GetMetadata", mock.Anything, "clip.mp4").
		Return(&ffmpeg.VideoMetadata{HasVideo: true, HasAudio: true}, nil)
	extractor.On("ExtractAudioWAV", mock.Anything, "clip.mp4", mock.Anything, 16000).
		Return(nil)

	want := []models.TranscriptSegment{
		{Start: 0, End: 2.5, Text: "hello"},
		{Start: 2.5, End: 5, Text: "world"},
	}
	recognizer.On("Transcribe", mock.Anything, mock.Anything).Return(want, nil)

	segments := New(extractor, recognizer, 16000, t.TempDir()).
		Transcribe(context.Background(), "clip.mp4")

	assert.Equal(t, want, segments)
}

func TestClientParsesVerboseJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "verbose_json", r.FormValue("response_format"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(map[string]any{
			"segments": []map[string]any{
				{"start": 0.0, "end": 1.5, "text": " hi"},
				{"start": 1.5, "end": 3.0, "text": " there"},
			},
		})
	}))
	defer server.Close()

	audio, err := os.CreateTemp(t.TempDir(), "a_*.wav")
	require.NoError(t, err)
	audio.WriteString("RIFF")
	audio.Close()

	client := NewClient(ClientConfig{APIKey: "test-key", APIURL: server.URL})
	segments, err := client.Transcribe(context.Background(), audio.Name())
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, 1.5, segments[1].Start)
	assert.Equal(t, " there", segments[1].Text)
}

func TestClientReportsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer server.Close()

	audio, err := os.CreateTemp(t.TempDir(), "a_*.wav")
	require.NoError(t, err)
	audio.Close()

	client := NewClient(ClientConfig{APIURL: server.URL})
	_, err = client.Transcribe(context.Background(), audio.Name())
	assert.ErrorIs(t, err, ErrTranscriptionFailed)
}
