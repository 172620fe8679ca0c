package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// FFmpeg wraps ffmpeg and ffprobe functionality
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	timeout     time.Duration
}

// New creates a new FFmpeg instance
func New(ffmpegPath, ffprobePath string, timeout time.Duration) *FFmpeg {
	return &FFmpeg{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		timeout:     timeout,
	}
}

// ValidateBinaries checks if ffmpeg and ffprobe are available
func (f *FFmpeg) ValidateBinaries() error {
	if _, err := exec.LookPath(f.ffmpegPath); err != nil {
		return fmt.Errorf("%w: %s", ErrFFmpegNotFound, f.ffmpegPath)
	}

	if _, err := exec.LookPath(f.ffprobePath); err != nil {
		return fmt.Errorf("%w: %s", ErrFFprobeNotFound, f.ffprobePath)
	}

	return nil
}

// ExtractAudioWAV decodes the audio track to a mono PCM WAV file at the given
// sample rate. Used to feed the speech recognizer, which expects 16 kHz mono.
func (f *FFmpeg) ExtractAudioWAV(ctx context.Context, inputFile, outputFile string, sampleRate int) error {
	args := []string{
		"-i", inputFile,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"-acodec", "pcm_s16le",
		"-y",
		outputFile,
	}

	if err := f.runFFmpeg(ctx, "audio_extraction", inputFile, args, nil); err != nil {
		return err
	}
	return nil
}

// ExtractFrameRGB decodes a single frame at the given timestamp, scaled to
// width x height packed RGB. Returns ErrFrameNotRead when the seek lands past
// the end of the stream or decoding produces no output.
func (f *FFmpeg) ExtractFrameRGB(ctx context.Context, inputFile string, atSeconds float64, width, height int) (*Frame, error) {
	args := []string{
		"-ss", formatSeconds(atSeconds),
		"-i", inputFile,
		"-frames:v", "1",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-",
	}

	var stdout bytes.Buffer
	if err := f.runFFmpeg(ctx, "frame_extraction", inputFile, args, &stdout); err != nil {
		return nil, err
	}

	want := width * height * 3
	if stdout.Len() < want {
		return nil, ErrFrameNotRead
	}

	return &Frame{Width: width, Height: height, Pixels: stdout.Bytes()[:want]}, nil
}

// ExtractGrayFrames decodes up to count consecutive grayscale frames starting
// at the given timestamp, scaled to width x height. Fewer frames than
// requested is not an error; the stream may simply end first.
func (f *FFmpeg) ExtractGrayFrames(ctx context.Context, inputFile string, fromSeconds float64, count, width, height int) ([]Frame, error) {
	args := []string{
		"-ss", formatSeconds(fromSeconds),
		"-i", inputFile,
		"-frames:v", strconv.Itoa(count),
		"-f", "rawvideo",
		"-pix_fmt", "gray",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-",
	}

	var stdout bytes.Buffer
	if err := f.runFFmpeg(ctx, "gray_frame_extraction", inputFile, args, &stdout); err != nil {
		return nil, err
	}

	frameSize := width * height
	data := stdout.Bytes()
	frames := make([]Frame, 0, count)
	for off := 0; off+frameSize <= len(data) && len(frames) < count; off += frameSize {
		frames = append(frames, Frame{Width: width, Height: height, Pixels: data[off : off+frameSize]})
	}
	return frames, nil
}

// runFFmpeg executes ffmpeg with the configured timeout, capturing stderr for
// error reporting and optionally stdout for raw output.
func (f *FFmpeg) runFFmpeg(ctx context.Context, operation, inputFile string, args []string, stdout *bytes.Buffer) error {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if stdout != nil {
		cmd.Stdout = stdout
	}

	if err := cmd.Run(); err != nil {
		// Raw frame extraction past EOF exits non-zero with empty output;
		// the callers treat short output as ErrFrameNotRead instead.
		if stdout != nil && stdout.Len() > 0 {
			return nil
		}
		return NewProcessingError(operation, inputFile, err, truncateStderr(stderr.String()))
	}
	return nil
}

// truncateStderr keeps error messages readable when ffmpeg is chatty
func truncateStderr(s string) string {
	const max = 512
	if len(s) > max {
		return s[len(s)-max:]
	}
	return s
}

func formatSeconds(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	return strconv.FormatFloat(seconds, 'f', 3, 64)
}
