package highlights

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/killallgit/highlight-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.Video{}, &models.Highlight{}))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	})

	return db
}

func testEmbedding(fill float32) models.Vector {
	v := make(models.Vector, models.EmbeddingDim)
	for i := range v {
		v[i] = fill
	}
	return v
}

func createTestVideo(t *testing.T, repo *GormRepository, filename string) *models.Video {
	t.Helper()
	duration := 30.0
	video := &models.Video{Filename: filename, DurationSeconds: &duration}
	require.NoError(t, repo.CreateVideo(context.Background(), video))
	return video
}

func TestCreateVideoGeneratesUUID(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	video := createTestVideo(t, repo, "clip.mp4")
	assert.NotZero(t, video.ID)
	assert.NotEmpty(t, video.UUID)
}

func TestCreateVideoWithNilDuration(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	video := &models.Video{Filename: "broken.mkv"}
	require.NoError(t, repo.CreateVideo(context.Background(), video))

	loaded, err := repo.GetVideoByID(context.Background(), video.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded.DurationSeconds)
}

func TestAddHighlightRejectsBadSpan(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	video := createTestVideo(t, repo, "clip.mp4")

	err := repo.AddHighlight(context.Background(), &models.Highlight{
		VideoID:      video.ID,
		StartSeconds: 5,
		EndSeconds:   5,
		Title:        "t",
		Summary:      "s",
	})
	assert.Error(t, err)
}

func TestAddHighlightRejectsBadDimension(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	video := createTestVideo(t, repo, "clip.mp4")

	err := repo.AddHighlight(context.Background(), &models.Highlight{
		VideoID:      video.ID,
		StartSeconds: 1,
		EndSeconds:   2,
		Title:        "t",
		Summary:      "s",
		Embedding:    models.Vector{1, 2, 3},
	})
	assert.Error(t, err)
}

func TestListHighlightsOrderedByStart(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	video := createTestVideo(t, repo, "clip.mp4")
	ctx := context.Background()

	for _, start := range []float64{20, 5, 12} {
		require.NoError(t, repo.AddHighlight(ctx, &models.Highlight{
			VideoID:      video.ID,
			StartSeconds: start,
			EndSeconds:   start + 3,
			Title:        "t",
			Summary:      "s",
			Embedding:    testEmbedding(0.1),
		}))
	}

	listed, err := repo.ListHighlights(ctx, video.ID)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, 5.0, listed[0].StartSeconds)
	assert.Equal(t, 12.0, listed[1].StartSeconds)
	assert.Equal(t, 20.0, listed[2].StartSeconds)
}

func TestDeleteVideoCascadesToHighlights(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	video := createTestVideo(t, repo, "clip.mp4")
	ctx := context.Background()

	require.NoError(t, repo.AddHighlight(ctx, &models.Highlight{
		VideoID:      video.ID,
		StartSeconds: 1,
		EndSeconds:   2,
		Title:        "t",
		Summary:      "s",
		Embedding:    testEmbedding(0.1),
	}))

	require.NoError(t, repo.DeleteVideo(ctx, video.ID))

	listed, err := repo.ListHighlights(ctx, video.ID)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestSearchByVectorOrdersByDistance(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	video := createTestVideo(t, repo, "clip.mp4")
	ctx := context.Background()

	near := testEmbedding(0.5)
	far := testEmbedding(0.9)

	require.NoError(t, repo.AddHighlight(ctx, &models.Highlight{
		VideoID: video.ID, StartSeconds: 10, EndSeconds: 15,
		Title: "far", Summary: "far away", Embedding: far,
	}))
	require.NoError(t, repo.AddHighlight(ctx, &models.Highlight{
		VideoID: video.ID, StartSeconds: 1, EndSeconds: 5,
		Title: "near", Summary: "close by", Embedding: near,
	}))

	results, err := repo.SearchByVector(ctx, testEmbedding(0.5), 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "near", results[0].Highlight.Title)
	assert.InDelta(t, 0, results[0].Distance, 1e-6)
	assert.Equal(t, "far", results[1].Highlight.Title)
	assert.Equal(t, "clip.mp4", results[0].Filename)
}

func TestSearchByVectorAppliesCutoffAndTopK(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	video := createTestVideo(t, repo, "clip.mp4")
	ctx := context.Background()

	for i, fill := range []float32{0.5, 0.55, 0.95} {
		require.NoError(t, repo.AddHighlight(ctx, &models.Highlight{
			VideoID: video.ID, StartSeconds: float64(i * 10), EndSeconds: float64(i*10 + 5),
			Title: "t", Summary: "s", Embedding: testEmbedding(fill),
		}))
	}

	// 0.95 fill is ~8.8 away from a 0.5 query; cutoff excludes it
	results, err := repo.SearchByVector(ctx, testEmbedding(0.5), 10, 2.0)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = repo.SearchByVector(ctx, testEmbedding(0.5), 1, 2.0)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearchByVectorRejectsDimensionMismatch(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	_, err := repo.SearchByVector(context.Background(), models.Vector{1, 2}, 5, 0)
	assert.Error(t, err)
}

func TestSearchByKeywordCaseInsensitive(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	video := createTestVideo(t, repo, "clip.mp4")
	ctx := context.Background()

	require.NoError(t, repo.AddHighlight(ctx, &models.Highlight{
		VideoID: video.ID, StartSeconds: 20, EndSeconds: 25,
		Title: "Sunset over the Bay", Summary: "golden light", Embedding: testEmbedding(0.1),
	}))
	require.NoError(t, repo.AddHighlight(ctx, &models.Highlight{
		VideoID: video.ID, StartSeconds: 5, EndSeconds: 10,
		Title: "Morning", Summary: "a SUNSET replay", Embedding: testEmbedding(0.1),
	}))
	require.NoError(t, repo.AddHighlight(ctx, &models.Highlight{
		VideoID: video.ID, StartSeconds: 12, EndSeconds: 14,
		Title: "Unrelated", Summary: "nothing here", Embedding: testEmbedding(0.1),
	}))

	results, err := repo.SearchByKeyword(ctx, "sunset", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	// Ordered by start time, not relevance
	assert.Equal(t, 5.0, results[0].Highlight.StartSeconds)
	assert.Equal(t, 20.0, results[1].Highlight.StartSeconds)
}

func TestSearchByKeywordNoMatches(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	results, err := repo.SearchByKeyword(context.Background(), "nope", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}
