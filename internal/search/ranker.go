package search

import (
	"math"
	"sort"

	"github.com/gcbaptista/go-lostfound/index"
)

// Candidate is a corpus record projected into the vector space.
type Candidate struct {
	ID     string
	Vector index.SparseVector
}

// Hit is a ranked candidate.
type Hit struct {
	ID    string
	Score float64
}

// Cosine returns the cosine similarity of two vectors, clamped into [0, 1].
// A zero vector on either side scores 0.
func Cosine(a, b index.SparseVector) float64 {
	na, nb := a.Norm(), b.Norm()
	if na == 0 || nb == 0 {
		return 0
	}
	return clamp(a.Dot(b) / (na * nb))
}

func clamp(score float64) float64 {
	switch {
	case math.IsNaN(score) || score < 0:
		return 0
	case score > 1:
		return 1
	default:
		return score
	}
}

// Rank scores every candidate against query and returns the k best, highest first.
// Equal scores keep corpus order. k <= 0 yields an empty slice.
func Rank(query index.SparseVector, candidates []Candidate, k int) []Hit {
	if k <= 0 || len(candidates) == 0 {
		return []Hit{}
	}

	hits := make([]Hit, len(candidates))
	for i, c := range candidates {
		hits[i] = Hit{ID: c.ID, Score: Cosine(query, c.Vector)}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits
}
