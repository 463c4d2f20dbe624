// Package similarity ranks stored vectors against a query vector.
// It is shared by the exemplar store adapters so both order results identically.
package similarity

import (
	"math"
	"sort"
)

// Cosine returns the cosine similarity of a and b, or 0 when either vector
// has zero magnitude or the lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Candidate is one stored vector with its insertion position.
type Candidate struct {
	Index  int
	Vector []float32
}

// Scored is a candidate index with its similarity score.
type Scored struct {
	Index int
	Score float64
}

// TopK scores candidates against query and returns the k closest, most similar
// first. Ties keep insertion order. k <= 0 returns nil.
func TopK(query []float32, candidates []Candidate, k int) []Scored {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}
	scored := make([]Scored, len(candidates))
	for i, c := range candidates {
		scored[i] = Scored{Index: c.Index, Score: Cosine(query, c.Vector)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Index < scored[j].Index
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}
