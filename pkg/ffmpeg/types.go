package ffmpeg

// VideoMetadata represents metadata extracted from a video file
type VideoMetadata struct {
	Duration  float64 `json:"duration"`   // Duration in seconds, 0 when undeterminable
	Width     int     `json:"width"`      // Video frame width in pixels
	Height    int     `json:"height"`     // Video frame height in pixels
	FrameRate float64 `json:"frame_rate"` // Average frame rate, 0 when undeterminable
	HasVideo  bool    `json:"has_video"`  // Whether a video stream is present
	HasAudio  bool    `json:"has_audio"`  // Whether an audio stream is present
	Format    string  `json:"format"`     // Container format name
	Size      int64   `json:"size"`       // File size in bytes
}

// Frame holds raw pixel data for a single decoded frame
type Frame struct {
	Width  int
	Height int
	Pixels []byte // Packed samples: 3 bytes per pixel for RGB, 1 for gray
}
