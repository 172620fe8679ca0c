package cmd

import (
	"fmt"

	"github.com/killallgit/highlight-api/internal/database"
	"github.com/killallgit/highlight-api/internal/models"
	"github.com/killallgit/highlight-api/internal/services/classifier"
	"github.com/killallgit/highlight-api/internal/services/embeddings"
	"github.com/killallgit/highlight-api/internal/services/highlights"
	"github.com/killallgit/highlight-api/internal/services/pipeline"
	"github.com/killallgit/highlight-api/internal/services/retrieval"
	"github.com/killallgit/highlight-api/internal/services/segmenter"
	"github.com/killallgit/highlight-api/internal/services/transcriber"
	"github.com/killallgit/highlight-api/internal/services/vision"
	"github.com/killallgit/highlight-api/pkg/config"
	"github.com/killallgit/highlight-api/pkg/ffmpeg"
)

// openDatabase initializes the store and migrates the schema
func openDatabase(cfg *config.Config) (*database.DB, error) {
	db, err := database.Initialize(cfg.Database.Path, cfg.Database.Verbose)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}
	if err := db.AutoMigrate(&models.Video{}, &models.Highlight{}); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return db, nil
}

// newEmbedder builds the shared sentence embedder
func newEmbedder(cfg *config.Config) *embeddings.OnnxEmbedder {
	return embeddings.NewOnnxEmbedder(embeddings.EmbedderConfig{
		OnnxLibraryPath: cfg.Models.OnnxLibraryPath,
		ModelPath:       cfg.Models.EmbeddingModelPath,
		TokenizerPath:   cfg.Models.TokenizerPath,
		Dimension:       cfg.Models.EmbeddingDim,
	})
}

// newRetrievalEngine builds the question answering engine
func newRetrievalEngine(cfg *config.Config, db *database.DB) *retrieval.Engine {
	repo := highlights.NewRepository(db.DB)
	return retrieval.NewEngine(repo, newEmbedder(cfg), retrieval.Config{
		Mode:        cfg.Search.Mode,
		DefaultTopK: cfg.Search.TopK,
		MaxDistance: cfg.Search.MaxDistance,
	})
}

// newPipeline builds the full extraction pipeline from configuration
func newPipeline(cfg *config.Config, db *database.DB) (*pipeline.Pipeline, error) {
	ff := ffmpeg.New(cfg.Processing.FFmpegPath, cfg.Processing.FFprobePath, cfg.Processing.FFmpegTimeout)
	if err := ff.ValidateBinaries(); err != nil {
		return nil, err
	}

	gemini, err := classifier.NewGeminiClient(classifier.GeminiConfig{
		APIKey:            cfg.Gemini.APIKey,
		BaseURL:           cfg.Gemini.BaseURL,
		UploadURL:         cfg.Gemini.UploadURL,
		Model:             cfg.Gemini.Model,
		Timeout:           cfg.Gemini.Timeout,
		RequestsPerMinute: cfg.Gemini.RequestsPerMinute,
	})
	if err != nil {
		return nil, err
	}

	whisper := transcriber.NewClient(transcriber.ClientConfig{
		APIKey:   cfg.Whisper.APIKey,
		APIURL:   cfg.Whisper.APIURL,
		Model:    cfg.Whisper.Model,
		Language: cfg.Whisper.Language,
		Timeout:  cfg.Whisper.Timeout,
	})

	imageClassifier := vision.NewOnnxClassifier(vision.ClassifierConfig{
		OnnxLibraryPath: cfg.Models.OnnxLibraryPath,
		ModelPath:       cfg.Models.VisionModelPath,
		LabelsPath:      cfg.Models.VisionLabelsPath,
	})

	repo := highlights.NewRepository(db.DB)

	return pipeline.New(
		ff,
		segmenter.New(ff, cfg.Processing.SceneThreshold),
		transcriber.New(ff, whisper, cfg.Whisper.SampleRate, cfg.Storage.TempDir),
		vision.New(ff, imageClassifier),
		classifier.NewSceneStrategy(gemini),
		classifier.NewVideoStrategy(gemini, cfg.Gemini.UploadPollInterval, cfg.Gemini.UploadTimeout),
		newEmbedder(cfg),
		repo,
		pipeline.Config{
			Strategy:      cfg.Gemini.Strategy,
			Workers:       cfg.Processing.Workers,
			MaxHighlights: cfg.Processing.MaxHighlights,
			MaxBatchFiles: cfg.Processing.MaxBatchFiles,
		},
	), nil
}
