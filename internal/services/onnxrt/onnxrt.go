// Package onnxrt owns the process-wide ONNX Runtime environment. The vision
// classifier and the sentence embedder share one runtime; initialization
// happens exactly once, on first use, guarded against concurrent callers.
package onnxrt

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	once    sync.Once
	initErr error
)

// Ensure initializes the shared ONNX Runtime environment. Safe to call from
// multiple goroutines; only the first call does work.
func Ensure(libraryPath string) error {
	once.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			initErr = fmt.Errorf("initializing onnx runtime: %w", err)
		}
	})
	return initErr
}
