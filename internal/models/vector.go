package models

import (
	"database/sql/driver"
	"encoding/binary"
	"fmt"
	"math"
)

// Vector is a dense float32 embedding persisted as a little-endian blob.
// sqlite has no native vector type, so distance math happens in Go after
// scanning.
type Vector []float32

// Value implements driver.Valuer
func (v Vector) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf, nil
}

// Scan implements sql.Scanner
func (v *Vector) Scan(src any) error {
	if src == nil {
		*v = nil
		return nil
	}
	raw, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into Vector", src)
	}
	if len(raw)%4 != 0 {
		return fmt.Errorf("vector blob length %d is not a multiple of 4", len(raw))
	}
	out := make(Vector, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	*v = out
	return nil
}

// Distance returns the Euclidean distance to another vector. Smaller means
// more similar. Panics are avoided: mismatched lengths return +Inf so a bad
// row can never rank above a real match.
func (v Vector) Distance(other Vector) float64 {
	if len(v) != len(other) || len(v) == 0 {
		return math.Inf(1)
	}
	var sum float64
	for i := range v {
		d := float64(v[i]) - float64(other[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
