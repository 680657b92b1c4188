package index

import "math"

// SparseVector is a vector over a VectorSpace vocabulary.
// Indices are term ids in ascending order; Values holds the matching weights.
type SparseVector struct {
	Indices []int
	Values  []float64
}

// Len returns the number of stored (non-zero) entries.
func (v SparseVector) Len() int {
	return len(v.Indices)
}

// IsZero reports whether the vector has no non-zero weight.
func (v SparseVector) IsZero() bool {
	for _, w := range v.Values {
		if w != 0 {
			return false
		}
	}
	return true
}

// Norm returns the Euclidean (L2) norm.
func (v SparseVector) Norm() float64 {
	sum := 0.0
	for _, w := range v.Values {
		sum += w * w
	}
	return math.Sqrt(sum)
}

// Dot returns the dot product of two vectors from the same space.
// Both index lists are sorted, so a single merge pass suffices.
func (v SparseVector) Dot(other SparseVector) float64 {
	sum := 0.0
	i, j := 0, 0
	for i < len(v.Indices) && j < len(other.Indices) {
		switch {
		case v.Indices[i] == other.Indices[j]:
			sum += v.Values[i] * other.Values[j]
			i++
			j++
		case v.Indices[i] < other.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// Weight returns the weight stored for a term id, or 0.
func (v SparseVector) Weight(termID int) float64 {
	lo, hi := 0, len(v.Indices)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case v.Indices[mid] == termID:
			return v.Values[mid]
		case v.Indices[mid] < termID:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return 0
}
