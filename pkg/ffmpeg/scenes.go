package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// DetectSceneChanges runs ffmpeg scene-change detection and returns the
// boundary timestamps in seconds, in stream order. The threshold is the scene
// score in [0,1]; frames scoring above it are reported as cuts. Timestamps
// come from showinfo pts_time, i.e. the stream's own timebase, so results are
// stable under variable frame rate.
func (f *FFmpeg) DetectSceneChanges(ctx context.Context, inputFile string, threshold float64) ([]float64, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	args := []string{
		"-i", inputFile,
		"-vf", fmt.Sprintf("select='gt(scene,%f)',showinfo", threshold),
		"-f", "null",
		"-",
	}

	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, NewProcessingError("scene_detection", inputFile, err, truncateStderr(stderr.String()))
	}

	return parseSceneTimes(stderr.String()), nil
}

// parseSceneTimes extracts pts_time values from showinfo filter output
func parseSceneTimes(output string) []float64 {
	var times []float64
	for _, line := range strings.Split(output, "\n") {
		idx := strings.Index(line, "pts_time:")
		if idx < 0 {
			continue
		}
		rest := strings.TrimSpace(line[idx+len("pts_time:"):])
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			continue
		}
		if seconds, err := strconv.ParseFloat(fields[0], 64); err == nil {
			times = append(times, seconds)
		}
	}
	return times
}
