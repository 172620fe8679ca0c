package vision

import (
	"fmt"
	"log"
	"math"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/killallgit/highlight-api/internal/services/onnxrt"
	ort "github.com/yalue/onnxruntime_go"
)

const (
	// InputSize is the classifier's expected square input edge in pixels
	InputSize = 224

	topLabels = 5
)

// ImageNet normalization constants, per channel
var (
	normMean = [3]float32{0.485, 0.456, 0.406}
	normStd  = [3]float32{0.229, 0.224, 0.225}
)

// ImageClassifier ranks object labels for a single RGB frame
type ImageClassifier interface {
	ClassifyFrame(pixels []byte) ([]string, error)
}

// ClassifierConfig holds the ONNX classifier settings
type ClassifierConfig struct {
	OnnxLibraryPath string
	ModelPath       string
	LabelsPath      string
}

// OnnxClassifier runs an ImageNet-style classifier via ONNX Runtime. The
// session loads lazily on first use and is then shared read-only, so
// concurrent scene evaluations need no further locking.
type OnnxClassifier struct {
	config  ClassifierConfig
	initOnc sync.Once
	initErr error
	session *ort.DynamicAdvancedSession
	labels  []string
}

var _ ImageClassifier = (*OnnxClassifier)(nil)

// NewOnnxClassifier creates a classifier; the model is not loaded until the
// first frame is classified.
func NewOnnxClassifier(cfg ClassifierConfig) *OnnxClassifier {
	return &OnnxClassifier{config: cfg}
}

func (c *OnnxClassifier) ensureLoaded() error {
	c.initOnc.Do(func() {
		if err := onnxrt.Ensure(c.config.OnnxLibraryPath); err != nil {
			c.initErr = err
			return
		}

		session, err := ort.NewDynamicAdvancedSession(
			c.config.ModelPath,
			[]string{"input"},
			[]string{"output"},
			nil,
		)
		if err != nil {
			c.initErr = fmt.Errorf("loading vision model %s: %w", c.config.ModelPath, err)
			return
		}
		c.session = session
		c.labels = loadLabels(c.config.LabelsPath)
	})
	return c.initErr
}

// ClassifyFrame returns the top-5 object labels for a packed RGB frame of
// InputSize x InputSize pixels, most probable first.
func (c *OnnxClassifier) ClassifyFrame(pixels []byte) ([]string, error) {
	if err := c.ensureLoaded(); err != nil {
		return nil, err
	}
	if len(pixels) != InputSize*InputSize*3 {
		return nil, fmt.Errorf("expected %d RGB bytes, got %d", InputSize*InputSize*3, len(pixels))
	}

	input, err := ort.NewTensor(ort.NewShape(1, 3, InputSize, InputSize), preprocess(pixels))
	if err != nil {
		return nil, fmt.Errorf("creating input tensor: %w", err)
	}
	defer input.Destroy()

	outputs := []ort.Value{nil}
	if err := c.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, fmt.Errorf("running vision model: %w", err)
	}
	logitsTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected vision model output type %T", outputs[0])
	}
	defer logitsTensor.Destroy()

	probs := softmax(logitsTensor.GetData())
	return c.labelsFor(topIndices(probs, topLabels)), nil
}

// preprocess converts packed HWC RGB bytes to a normalized CHW float tensor
func preprocess(pixels []byte) []float32 {
	area := InputSize * InputSize
	out := make([]float32, 3*area)
	for i := 0; i < area; i++ {
		for ch := 0; ch < 3; ch++ {
			v := float32(pixels[i*3+ch]) / 255.0
			out[ch*area+i] = (v - normMean[ch]) / normStd[ch]
		}
	}
	return out
}

// softmax converts logits to probabilities
func softmax(logits []float32) []float64 {
	if len(logits) == 0 {
		return nil
	}
	max := logits[0]
	for _, v := range logits {
		if v > max {
			max = v
		}
	}
	probs := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		probs[i] = math.Exp(float64(v - max))
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

// topIndices returns the indices of the k largest values, descending
func topIndices(values []float64, k int) []int {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return values[idx[a]] > values[idx[b]]
	})
	if len(idx) > k {
		idx = idx[:k]
	}
	return idx
}

// labelsFor maps class indices to human labels, falling back to a synthetic
// class_<index> name when the label table is unavailable or short.
func (c *OnnxClassifier) labelsFor(indices []int) []string {
	labels := make([]string, 0, len(indices))
	for _, i := range indices {
		if i < len(c.labels) && c.labels[i] != "" {
			labels = append(labels, c.labels[i])
		} else {
			labels = append(labels, fmt.Sprintf("class_%d", i))
		}
	}
	return labels
}

// loadLabels reads one label per line; a missing file is not an error, the
// classifier falls back to synthetic names.
func loadLabels(path string) []string {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[WARN] Vision label table unavailable (%v), using synthetic labels", err)
		return nil
	}
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	labels := make([]string, 0, len(lines))
	for _, line := range lines {
		labels = append(labels, strings.TrimSpace(line))
	}
	return labels
}
