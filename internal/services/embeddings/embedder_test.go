package embeddings

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/killallgit/highlight-api/internal/models"
)

func TestMeanPool(t *testing.T) {
	// Two attended tokens and one padding token, dim 3
	data := []float32{
		1, 2, 3,
		3, 4, 5,
		100, 100, 100, // padded, must be ignored
	}
	mask := []int64{1, 1, 0}

	pooled := meanPool(data, mask, 3)
	assert.Equal(t, models.Vector{2, 3, 4}, pooled)
}

func TestMeanPoolAllMasked(t *testing.T) {
	data := []float32{1, 2, 3}
	pooled := meanPool(data, []int64{0}, 3)

	assert.Len(t, pooled, 3)
	assert.Equal(t, models.Vector{0, 0, 0}, pooled)
}

func TestMeanPoolSingleToken(t *testing.T) {
	data := []float32{7, 8, 9}
	pooled := meanPool(data, []int64{1}, 3)
	assert.Equal(t, models.Vector{7, 8, 9}, pooled)
}

func TestEmbedderDimension(t *testing.T) {
	e := NewOnnxEmbedder(EmbedderConfig{})
	assert.Equal(t, models.EmbeddingDim, e.Dimension())

	e = NewOnnxEmbedder(EmbedderConfig{Dimension: 512})
	assert.Equal(t, 512, e.Dimension())
}
