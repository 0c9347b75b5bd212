package embed

import (
	"fmt"
	"math"
	"strings"
)

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns 0 when either vector is empty, zero-length, or the dimensions
// do not match.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// EuclideanDistance computes the L2 distance between two vectors.
// Returns +Inf when the dimensions do not match.
func EuclideanDistance(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Normalize scales the vector in place to unit length. Zero vectors are
// left unchanged.
func Normalize(vector []float32) {
	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares == 0 {
		return
	}

	norm := float32(math.Sqrt(sumSquares))
	for i := range vector {
		vector[i] /= norm
	}
}

// TruncateForDisplay renders at most n leading components of the vector,
// annotated with the true length, useful for logging without dumping
// hundreds of floats.
func TruncateForDisplay(vector []float32, n int) string {
	if len(vector) == 0 {
		return "[]"
	}
	if len(vector) <= n {
		return fmt.Sprint(vector)
	}
	head := strings.TrimSuffix(fmt.Sprint(vector[:n]), "]")
	return fmt.Sprintf("%s ...] (length: %d)", head, len(vector))
}
