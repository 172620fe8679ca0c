package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	once    sync.Once
	initErr error
)

// Init initializes the configuration system
// This should be called once at application startup
func Init() error {
	once.Do(func() {
		// Set default values
		setDefaults()

		// Set up environment variable reading for overrides
		viper.SetEnvPrefix("HIGHLIGHT")
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()

		// Load config from fixed location (cleaned for safety)
		configPath := filepath.Clean("./config/settings.yaml")
		viper.SetConfigFile(configPath)

		// Try to read the config file
		if err := viper.ReadInConfig(); err != nil {
			// If the config file doesn't exist, just use defaults and env vars
			if !os.IsNotExist(err) {
				initErr = fmt.Errorf("error reading config file %s: %w", configPath, err)
				return
			}
		}

		// Validate the configuration
		if err := validate(); err != nil {
			initErr = fmt.Errorf("invalid configuration: %w", err)
		}
	})

	return initErr
}

// GetConfig returns the current configuration as a struct
// Init() must be called before using this
func GetConfig() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// Get returns a config value by key using Viper directly
func Get(key string) any {
	return viper.Get(key)
}

// GetString returns a string config value
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a time.Duration config value
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// validate validates the configuration using Viper values
func validate() error {
	port := viper.GetInt("server.port")
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid server port: %d", port)
	}

	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		fmt.Println("Warning: No database path configured")
	}

	strategy := viper.GetString("gemini.strategy")
	if strategy != "scene" && strategy != "video" {
		return fmt.Errorf("invalid gemini strategy %q: must be scene or video", strategy)
	}

	mode := viper.GetString("search.mode")
	if mode != "vector" && mode != "keyword" && mode != "hybrid" {
		return fmt.Errorf("invalid search mode %q: must be vector, keyword or hybrid", mode)
	}

	// Validate API keys aren't using placeholder values
	if err := validateAPIKeys(); err != nil {
		return err
	}

	// Auto-correct invalid worker count
	if viper.GetInt("processing.workers") <= 0 {
		viper.Set("processing.workers", 2)
	}

	// Auto-correct invalid scene threshold
	if viper.GetInt("processing.scene_threshold") <= 0 {
		viper.Set("processing.scene_threshold", 5)
	}

	// Clamp the default result count into the allowed request range
	if topK := viper.GetInt("search.top_k"); topK < 1 || topK > 20 {
		viper.Set("search.top_k", 5)
	}

	return nil
}

// validateAPIKeys validates that API keys are not using placeholder values
func validateAPIKeys() error {
	env := viper.GetString("environment")
	isProduction := env == "production" || env == "prod"

	placeholders := []string{
		"YOUR_KEY_HERE",
		"YOUR_API_KEY",
		"changeme",
		"CHANGEME",
		"",
	}

	geminiKey := viper.GetString("gemini.api_key")
	for _, placeholder := range placeholders {
		if geminiKey == placeholder {
			if isProduction {
				return fmt.Errorf("invalid Gemini API key: cannot use placeholder values in production")
			}
			fmt.Println("Warning: Gemini API key is using a placeholder value")
			break
		}
	}

	whisperKey := viper.GetString("whisper.api_key")
	for _, placeholder := range placeholders {
		if whisperKey == placeholder {
			if isProduction {
				return fmt.Errorf("invalid Whisper API key: cannot use placeholder values in production")
			}
			fmt.Println("Warning: Whisper API key is using a placeholder value")
			break
		}
	}

	return nil
}

// Validate validates a Config struct (for testing)
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Processing.Workers <= 0 {
		c.Processing.Workers = 2
	}

	if c.Processing.SceneThreshold <= 0 {
		c.Processing.SceneThreshold = 5
	}

	if c.Search.TopK < 1 || c.Search.TopK > 20 {
		c.Search.TopK = 5
	}

	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Environment defaults
	viper.SetDefault("environment", "development")

	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)
	viper.SetDefault("server.shutdown_timeout", 10*time.Second)
	viper.SetDefault("server.max_header_bytes", 1048576)
	viper.SetDefault("server.rate_limit_rps", 10)
	viper.SetDefault("server.rate_limit_burst", 20)

	// Database defaults
	viper.SetDefault("database.path", "./data/highlights.db")
	viper.SetDefault("database.max_connections", 10)
	viper.SetDefault("database.max_idle_connections", 5)
	viper.SetDefault("database.connection_max_lifetime", 30*time.Minute)
	viper.SetDefault("database.enable_foreign_keys", true)
	viper.SetDefault("database.verbose", false)

	// Processing defaults
	viper.SetDefault("processing.workers", 2)
	viper.SetDefault("processing.max_highlights", 10)
	viper.SetDefault("processing.max_batch_files", 10)
	viper.SetDefault("processing.scene_threshold", 5)
	viper.SetDefault("processing.ffmpeg_path", "ffmpeg")
	viper.SetDefault("processing.ffprobe_path", "ffprobe")
	viper.SetDefault("processing.ffmpeg_timeout", 5*time.Minute)

	// Gemini defaults
	viper.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	viper.SetDefault("gemini.upload_url", "https://generativelanguage.googleapis.com/upload/v1beta/files")
	viper.SetDefault("gemini.model", "gemini-2.5-flash")
	viper.SetDefault("gemini.strategy", "video")
	viper.SetDefault("gemini.timeout", 2*time.Minute)
	viper.SetDefault("gemini.upload_poll_interval", 500*time.Millisecond)
	viper.SetDefault("gemini.upload_timeout", 60*time.Second)
	viper.SetDefault("gemini.requests_per_minute", 60)

	// Whisper defaults
	viper.SetDefault("whisper.api_url", "https://api.openai.com/v1/audio/transcriptions")
	viper.SetDefault("whisper.model", "whisper-1")
	viper.SetDefault("whisper.timeout", 5*time.Minute)
	viper.SetDefault("whisper.sample_rate", 16000)

	// Local model defaults
	viper.SetDefault("models.onnx_library_path", "/usr/local/lib/libonnxruntime.so")
	viper.SetDefault("models.vision_model_path", "./models/resnet50.onnx")
	viper.SetDefault("models.vision_labels_path", "./models/imagenet_labels.txt")
	viper.SetDefault("models.embedding_model_path", "./models/all-MiniLM-L6-v2.onnx")
	viper.SetDefault("models.tokenizer_path", "./models/tokenizer.json")
	viper.SetDefault("models.embedding_dim", 384)

	// Search defaults
	viper.SetDefault("search.mode", "hybrid")
	viper.SetDefault("search.top_k", 5)
	viper.SetDefault("search.max_distance", 1.2)

	// Storage defaults
	viper.SetDefault("storage.temp_dir", os.TempDir())
}
