// Package scoring computes the priority score for a hypothesis.
// All functions are pure: no side effects, total over arbitrary input.
package scoring

import "strconv"

// Weights control how the two sub-ratings combine into a single score.
// They should sum to 1.0 so scores stay on the same 0-10 scale as the inputs.
type Weights struct {
	Potential float64 `yaml:"potential"`
	Ease      float64 `yaml:"ease"`
}

// DefaultWeights favors business impact over ease of implementation.
func DefaultWeights() Weights {
	return Weights{Potential: 0.6, Ease: 0.4}
}

// Score computes the weighted priority of a hypothesis.
func (w Weights) Score(ease, potential float64) float64 {
	return w.Potential*potential + w.Ease*ease
}

// CoerceRating parses a 1-10 rating from untrusted input.
// Non-numeric or missing values become 0; out-of-range values are clamped.
func CoerceRating(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return ClampRating(v)
}

// ClampRating forces a rating into the [0,10] range.
func ClampRating(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}
