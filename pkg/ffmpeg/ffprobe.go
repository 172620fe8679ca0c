package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strconv"
	"strings"
)

// ffprobeOutput represents the JSON structure returned by ffprobe
type ffprobeOutput struct {
	Format struct {
		Duration   string `json:"duration"`
		Size       string `json:"size"`
		FormatName string `json:"format_name"`
	} `json:"format"`
	Streams []struct {
		CodecType    string `json:"codec_type"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
		Duration     string `json:"duration"`
	} `json:"streams"`
}

// GetMetadata extracts metadata from a video file using ffprobe
func (f *FFmpeg) GetMetadata(ctx context.Context, filePath string) (*VideoMetadata, error) {
	args := []string{
		"-v", "quiet",
		"-show_format",
		"-show_streams",
		"-of", "json",
		filePath,
	}

	cmd := exec.CommandContext(ctx, f.ffprobePath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, NewProcessingError("metadata_extraction", filePath, err, stderr.String())
	}

	var output ffprobeOutput
	if err := json.Unmarshal(stdout.Bytes(), &output); err != nil {
		return nil, NewProcessingError("metadata_parsing", filePath, err, "")
	}

	return parseMetadata(&output), nil
}

// parseMetadata converts ffprobe output to VideoMetadata
func parseMetadata(output *ffprobeOutput) *VideoMetadata {
	metadata := &VideoMetadata{
		Format: output.Format.FormatName,
	}

	if output.Format.Duration != "" {
		if duration, err := strconv.ParseFloat(output.Format.Duration, 64); err == nil {
			metadata.Duration = duration
		}
	}

	if output.Format.Size != "" {
		if size, err := strconv.ParseInt(output.Format.Size, 10, 64); err == nil {
			metadata.Size = size
		}
	}

	for _, stream := range output.Streams {
		switch stream.CodecType {
		case "video":
			if !metadata.HasVideo {
				metadata.HasVideo = true
				metadata.Width = stream.Width
				metadata.Height = stream.Height
				metadata.FrameRate = parseFrameRate(stream.AvgFrameRate)
				// Some containers only report duration per stream
				if metadata.Duration == 0 && stream.Duration != "" {
					if duration, err := strconv.ParseFloat(stream.Duration, 64); err == nil {
						metadata.Duration = duration
					}
				}
			}
		case "audio":
			metadata.HasAudio = true
		}
	}

	return metadata
}

// parseFrameRate parses ffprobe's fractional frame rate notation ("30000/1001")
func parseFrameRate(s string) float64 {
	if s == "" || s == "0/0" {
		return 0
	}
	parts := strings.SplitN(s, "/", 2)
	if len(parts) == 1 {
		rate, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return 0
		}
		return rate
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}

// ValidateVideoFile checks if a file has a decodable video stream
func (f *FFmpeg) ValidateVideoFile(ctx context.Context, filePath string) error {
	metadata, err := f.GetMetadata(ctx, filePath)
	if err != nil {
		return err
	}
	if !metadata.HasVideo {
		return ErrInvalidVideoFile
	}
	return nil
}
