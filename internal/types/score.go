package types

import (
	"bytes"
	"math"
	"strconv"
)

// Threshold separates acceptable products from ones that need alternatives.
// A score of exactly 3.0 is acceptable.
const Threshold = 3.0

// Score is a nullable eco-score. The zero value is Unknown.
type Score struct {
	value float64
	known bool
}

// Unknown is the absent score
var Unknown = Score{}

// ScoreOf wraps a known value
func ScoreOf(v float64) Score {
	return Score{value: v, known: true}
}

// Value returns the score and whether it is known
func (s Score) Value() (float64, bool) {
	return s.value, s.known
}

// Known reports whether the score is present
func (s Score) Known() bool {
	return s.known
}

// Acceptable reports whether the score is known and at or above the threshold
func (s Score) Acceptable() bool {
	return s.known && s.value >= Threshold
}

// String formats the score verbatim, without rounding ("4", "2.1", "unknown")
func (s Score) String() string {
	if !s.known {
		return "unknown"
	}
	return strconv.FormatFloat(s.value, 'f', -1, 64)
}

// Equal compares two scores
func (s Score) Equal(other Score) bool {
	if s.known != other.known {
		return false
	}
	return !s.known || s.value == other.value
}

// MarshalJSON encodes unknown scores as null
func (s Score) MarshalJSON() ([]byte, error) {
	if !s.known {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(s.value, 'f', -1, 64)), nil
}

// UnmarshalJSON accepts a number or null; anything else decodes as unknown
func (s *Score) UnmarshalJSON(data []byte) error {
	*s = Unknown

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	v, err := strconv.ParseFloat(string(trimmed), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	*s = ScoreOf(v)
	return nil
}
