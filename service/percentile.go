package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
)

// Reference is the frozen distribution of historical percentage
// discrepancy magnitudes that new discrepancies are ranked against
type Reference struct {
	sorted []float64
}

// NewReference stores the absolute values of distribution in a private
// sorted copy
func NewReference(distribution []float64) (*Reference, error) {
	if len(distribution) == 0 {
		return nil, errors.New("reference distribution is empty")
	}
	sorted := make([]float64, len(distribution))
	for i, v := range distribution {
		if math.IsNaN(v) {
			return nil, fmt.Errorf("reference distribution value %d is NaN", i)
		}
		sorted[i] = math.Abs(v)
	}
	sort.Float64s(sorted)
	return &Reference{sorted: sorted}, nil
}

// ReadReference decodes a flat JSON array of floats
func ReadReference(r io.Reader) (*Reference, error) {
	var distribution []float64
	if err := json.NewDecoder(r).Decode(&distribution); err != nil {
		return nil, fmt.Errorf("failed to decode reference distribution: %w", err)
	}
	return NewReference(distribution)
}

// Len returns the number of reference values
func (r *Reference) Len() int {
	return len(r.sorted)
}

// Severity returns 100 × (reference values strictly below |x|) / total.
// Ties do not count.
func (r *Reference) Severity(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	below := sort.SearchFloat64s(r.sorted, math.Abs(x))
	return 100 * float64(below) / float64(len(r.sorted))
}

// Severities scores a batch against the same reference
func (r *Reference) Severities(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = r.Severity(x)
	}
	return out
}

// PercentDiscrepancies divides each discrepancy by its raw prediction
func PercentDiscrepancies(discrepancies, predictions []float64) []float64 {
	out := make([]float64, len(discrepancies))
	for i := range discrepancies {
		out[i] = discrepancies[i] / predictions[i]
	}
	return out
}
