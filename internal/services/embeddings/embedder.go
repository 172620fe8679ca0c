// Package embeddings produces fixed-size sentence vectors with a local
// MiniLM-style transformer via ONNX Runtime. One embedding space serves both
// indexing and querying, so a single embedder instance is shared.
package embeddings

import (
	"fmt"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/killallgit/highlight-api/internal/models"
	"github.com/killallgit/highlight-api/internal/services/onnxrt"
)

// Embedder turns text into a fixed-dimension vector
type Embedder interface {
	Embed(text string) (models.Vector, error)
	Dimension() int
}

// EmbedderConfig holds the ONNX embedder settings
type EmbedderConfig struct {
	OnnxLibraryPath string
	ModelPath       string
	TokenizerPath   string
	Dimension       int // Default: models.EmbeddingDim
}

// OnnxEmbedder runs a sentence transformer through ONNX Runtime. The model
// and tokenizer load lazily on first use; afterwards the session is shared
// read-only across goroutines.
type OnnxEmbedder struct {
	config  EmbedderConfig
	initOnc sync.Once
	initErr error
	tok     *tokenizer.Tokenizer
	session *ort.DynamicAdvancedSession
}

var _ Embedder = (*OnnxEmbedder)(nil)

// NewOnnxEmbedder creates an embedder; nothing is loaded until the first call
func NewOnnxEmbedder(cfg EmbedderConfig) *OnnxEmbedder {
	if cfg.Dimension <= 0 {
		cfg.Dimension = models.EmbeddingDim
	}
	return &OnnxEmbedder{config: cfg}
}

// Dimension reports the embedding width this embedder produces
func (e *OnnxEmbedder) Dimension() int {
	return e.config.Dimension
}

func (e *OnnxEmbedder) ensureLoaded() error {
	e.initOnc.Do(func() {
		tok, err := pretrained.FromFile(e.config.TokenizerPath)
		if err != nil {
			e.initErr = fmt.Errorf("loading tokenizer %s: %w", e.config.TokenizerPath, err)
			return
		}

		if err := onnxrt.Ensure(e.config.OnnxLibraryPath); err != nil {
			e.initErr = err
			return
		}

		session, err := ort.NewDynamicAdvancedSession(
			e.config.ModelPath,
			[]string{"input_ids", "attention_mask", "token_type_ids"},
			[]string{"last_hidden_state"},
			nil,
		)
		if err != nil {
			e.initErr = fmt.Errorf("loading embedding model %s: %w", e.config.ModelPath, err)
			return
		}

		e.tok = tok
		e.session = session
	})
	return e.initErr
}

// Embed encodes one text into a vector of Dimension() floats using
// attention-masked mean pooling over the final hidden states.
func (e *OnnxEmbedder) Embed(text string) (models.Vector, error) {
	if err := e.ensureLoaded(); err != nil {
		return nil, err
	}

	input := tokenizer.NewSingleEncodeInput(tokenizer.NewInputSequence(text))
	encoding, err := e.tok.Encode(input, true)
	if err != nil {
		return nil, fmt.Errorf("tokenizing text: %w", err)
	}
	ids := encoding.GetIds()
	mask := encoding.GetAttentionMask()
	if len(ids) == 0 {
		return nil, fmt.Errorf("tokenizer produced no tokens")
	}

	seqLen := len(ids)
	inputIds := make([]int64, seqLen)
	attentionMask := make([]int64, seqLen)
	tokenTypeIds := make([]int64, seqLen)
	for i := 0; i < seqLen; i++ {
		inputIds[i] = int64(ids[i])
		attentionMask[i] = int64(mask[i])
	}

	shape := ort.NewShape(1, int64(seqLen))
	idsTensor, err := ort.NewTensor(shape, inputIds)
	if err != nil {
		return nil, fmt.Errorf("creating input_ids tensor: %w", err)
	}
	defer idsTensor.Destroy()

	maskTensor, err := ort.NewTensor(shape, attentionMask)
	if err != nil {
		return nil, fmt.Errorf("creating attention_mask tensor: %w", err)
	}
	defer maskTensor.Destroy()

	typesTensor, err := ort.NewTensor(shape, tokenTypeIds)
	if err != nil {
		return nil, fmt.Errorf("creating token_type_ids tensor: %w", err)
	}
	defer typesTensor.Destroy()

	outputs := []ort.Value{nil}
	if err := e.session.Run([]ort.Value{idsTensor, maskTensor, typesTensor}, outputs); err != nil {
		return nil, fmt.Errorf("running embedding model: %w", err)
	}
	hidden, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected embedding model output type %T", outputs[0])
	}
	defer hidden.Destroy()

	outShape := hidden.GetShape()
	if len(outShape) != 3 {
		return nil, fmt.Errorf("unexpected embedding output shape %v", outShape)
	}
	hiddenDim := int(outShape[2])
	if hiddenDim != e.config.Dimension {
		return nil, fmt.Errorf("embedding model produced %d dimensions, expected %d", hiddenDim, e.config.Dimension)
	}

	return meanPool(hidden.GetData(), attentionMask, hiddenDim), nil
}

// meanPool averages the hidden states of attended tokens. data is the
// [1, seqLen, dim] tensor flattened row-major; mask marks real tokens with 1.
func meanPool(data []float32, mask []int64, dim int) models.Vector {
	pooled := make(models.Vector, dim)
	var count float32
	for i, m := range mask {
		if m == 0 {
			continue
		}
		count++
		row := data[i*dim : (i+1)*dim]
		for j, v := range row {
			pooled[j] += v
		}
	}
	if count == 0 {
		return pooled
	}
	for j := range pooled {
		pooled[j] /= count
	}
	return pooled
}
