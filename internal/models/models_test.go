package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorRoundTrip(t *testing.T) {
	original := Vector{0.5, -1.25, 3.75, 0}

	value, err := original.Value()
	require.NoError(t, err)

	var scanned Vector
	require.NoError(t, scanned.Scan(value))
	assert.Equal(t, original, scanned)
}

func TestVectorScanNil(t *testing.T) {
	var v Vector
	require.NoError(t, v.Scan(nil))
	assert.Nil(t, v)
}

func TestVectorScanBadLength(t *testing.T) {
	var v Vector
	assert.Error(t, v.Scan([]byte{1, 2, 3}))
}

func TestVectorDistance(t *testing.T) {
	a := Vector{1, 0, 0}
	b := Vector{0, 1, 0}
	assert.InDelta(t, math.Sqrt2, a.Distance(b), 1e-9)
	assert.InDelta(t, 0, a.Distance(a), 1e-9)
}

func TestVectorDistanceDimensionMismatch(t *testing.T) {
	a := Vector{1, 0}
	b := Vector{1, 0, 0}
	assert.True(t, math.IsInf(a.Distance(b), 1))
}

func TestTranscriptSegmentOverlaps(t *testing.T) {
	iv := SceneInterval{StartSeconds: 10, EndSeconds: 20}

	tests := []struct {
		name string
		seg  TranscriptSegment
		want bool
	}{
		{"inside", TranscriptSegment{Start: 12, End: 15}, true},
		{"spanning", TranscriptSegment{Start: 5, End: 25}, true},
		{"partial left", TranscriptSegment{Start: 8, End: 11}, true},
		{"partial right", TranscriptSegment{Start: 19, End: 22}, true},
		{"before", TranscriptSegment{Start: 1, End: 9}, false},
		{"after", TranscriptSegment{Start: 21, End: 30}, false},
		{"touching start", TranscriptSegment{Start: 5, End: 10}, false},
		{"touching end", TranscriptSegment{Start: 20, End: 25}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.seg.Overlaps(iv))
		})
	}
}

func TestSceneIntervalMidpoint(t *testing.T) {
	assert.InDelta(t, 15.0, SceneInterval{StartSeconds: 10, EndSeconds: 20}.Midpoint(), 1e-9)
}
