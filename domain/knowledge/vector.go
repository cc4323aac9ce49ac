package knowledge

import (
	"hash/fnv"
	"math"
)

// VectorSize is the fixed dimension of the term-hash vectors.
// It is part of the similarity contract: changing it changes every score.
const VectorSize = 100

// Vectorize folds a term bag into a fixed-size frequency vector. Each term
// contributes its occurrence count to bucket FNV-1a-32(term) mod VectorSize.
// FNV-1a is stable across runs and platforms, which keeps scores
// reproducible. Collisions are accepted: this is a coarse fingerprint of the
// payload, not a learned embedding.
func Vectorize(terms []string) []float64 {
	vector := make([]float64, VectorSize)
	for _, term := range terms {
		h := fnv.New32a()
		h.Write([]byte(term))
		vector[h.Sum32()%VectorSize]++
	}
	return vector
}

// CosineSimilarity returns the cosine of the angle between two vectors,
// in [0, 1] for the non-negative vectors produced by Vectorize.
// It returns 0 when either vector has zero magnitude.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}

	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
