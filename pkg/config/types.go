package config

import "time"

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Processing ProcessingConfig `mapstructure:"processing"`
	Gemini     GeminiConfig     `mapstructure:"gemini"`
	Whisper    WhisperConfig    `mapstructure:"whisper"`
	Models     ModelsConfig     `mapstructure:"models"`
	Search     SearchConfig     `mapstructure:"search"`
	Storage    StorageConfig    `mapstructure:"storage"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes"`
	RateLimitRPS    int           `mapstructure:"rate_limit_rps"`
	RateLimitBurst  int           `mapstructure:"rate_limit_burst"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path                  string        `mapstructure:"path"`
	MaxConnections        int           `mapstructure:"max_connections"`
	MaxIdleConnections    int           `mapstructure:"max_idle_connections"`
	ConnectionMaxLifetime time.Duration `mapstructure:"connection_max_lifetime"`
	EnableForeignKeys     bool          `mapstructure:"enable_foreign_keys"`
	Verbose               bool          `mapstructure:"verbose"`
}

// ProcessingConfig contains video processing settings
type ProcessingConfig struct {
	Workers        int           `mapstructure:"workers"`
	MaxHighlights  int           `mapstructure:"max_highlights"`
	MaxBatchFiles  int           `mapstructure:"max_batch_files"`
	SceneThreshold int           `mapstructure:"scene_threshold"`
	FFmpegPath     string        `mapstructure:"ffmpeg_path"`
	FFprobePath    string        `mapstructure:"ffprobe_path"`
	FFmpegTimeout  time.Duration `mapstructure:"ffmpeg_timeout"`
}

// GeminiConfig contains generative classifier endpoint settings
type GeminiConfig struct {
	APIKey             string        `mapstructure:"api_key"`
	BaseURL            string        `mapstructure:"base_url"`
	UploadURL          string        `mapstructure:"upload_url"`
	Model              string        `mapstructure:"model"`
	Strategy           string        `mapstructure:"strategy"` // scene or video
	Timeout            time.Duration `mapstructure:"timeout"`
	UploadPollInterval time.Duration `mapstructure:"upload_poll_interval"`
	UploadTimeout      time.Duration `mapstructure:"upload_timeout"`
	RequestsPerMinute  int           `mapstructure:"requests_per_minute"`
}

// WhisperConfig contains speech transcription API settings
type WhisperConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	APIURL     string        `mapstructure:"api_url"`
	Model      string        `mapstructure:"model"`
	Language   string        `mapstructure:"language"`
	Timeout    time.Duration `mapstructure:"timeout"`
	SampleRate int           `mapstructure:"sample_rate"`
}

// ModelsConfig contains local ONNX model settings
type ModelsConfig struct {
	OnnxLibraryPath    string `mapstructure:"onnx_library_path"`
	VisionModelPath    string `mapstructure:"vision_model_path"`
	VisionLabelsPath   string `mapstructure:"vision_labels_path"`
	EmbeddingModelPath string `mapstructure:"embedding_model_path"`
	TokenizerPath      string `mapstructure:"tokenizer_path"`
	EmbeddingDim       int    `mapstructure:"embedding_dim"`
}

// SearchConfig contains retrieval settings
type SearchConfig struct {
	Mode        string  `mapstructure:"mode"` // vector, keyword, or hybrid
	TopK        int     `mapstructure:"top_k"`
	MaxDistance float64 `mapstructure:"max_distance"`
}

// StorageConfig contains temp storage settings
type StorageConfig struct {
	TempDir string `mapstructure:"temp_dir"`
}
