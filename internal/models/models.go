package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EmbeddingDim is the dimensionality of highlight summary embeddings. Stored
// vectors and query vectors must both have exactly this length.
const EmbeddingDim = 384

// Video represents one processed video file
type Video struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UUID      string    `json:"uuid" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Filename string `json:"filename" gorm:"not null;size:500;index"`

	// Duration in seconds; NULL when frame rate or frame count could not be
	// determined from the container
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`

	// Highlights are cascade-deleted with their video
	Highlights []Highlight `json:"highlights,omitempty" gorm:"foreignKey:VideoID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate generates a UUID if not set
func (v *Video) BeforeCreate(tx *gorm.DB) error {
	if v.UUID == "" {
		v.UUID = uuid.New().String()
	}
	return nil
}

// Highlight represents a noteworthy time span within a video
type Highlight struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UUID      string    `json:"uuid" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	VideoID uint   `json:"video_id" gorm:"not null;index"`
	Video   *Video `json:"video,omitempty" gorm:"foreignKey:VideoID"`

	// Span in seconds; StartSeconds < EndSeconds always holds for persisted rows
	StartSeconds float64 `json:"start_seconds" gorm:"not null;index"`
	EndSeconds   float64 `json:"end_seconds" gorm:"not null"`

	Title   string `json:"title" gorm:"not null;size:500"`
	Summary string `json:"summary" gorm:"not null;type:text"`

	// 384-dim summary embedding, stored as a little-endian float32 blob
	Embedding Vector `json:"-" gorm:"type:blob"`
}

// BeforeCreate generates a UUID if not set
func (h *Highlight) BeforeCreate(tx *gorm.DB) error {
	if h.UUID == "" {
		h.UUID = uuid.New().String()
	}
	return nil
}

// SceneInterval is one contiguous candidate time span produced by the scene
// segmenter. Ephemeral: lives only within one pipeline run.
type SceneInterval struct {
	StartSeconds float64 `json:"start_seconds"`
	EndSeconds   float64 `json:"end_seconds"`
}

// Midpoint returns the center of the interval
func (s SceneInterval) Midpoint() float64 {
	return (s.StartSeconds + s.EndSeconds) / 2
}

// TranscriptSegment is one timestamped span of recognized speech
type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Overlaps reports whether the segment intersects the given interval
func (t TranscriptSegment) Overlaps(iv SceneInterval) bool {
	return t.Start < iv.EndSeconds && t.End > iv.StartSeconds
}

// VisualSignal holds the per-interval visual features: ranked object labels
// from the keyframe classifier and a scalar motion intensity estimate.
type VisualSignal struct {
	ObjectLabels []string `json:"object_labels"`
	MotionScore  float64  `json:"motion_score"`
}
