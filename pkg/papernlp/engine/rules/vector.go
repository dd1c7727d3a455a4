package rules

import (
	"hash/fnv"
	"strings"
)

// Vectorizer produces deterministic pseudo-embeddings: each lowercased word
// seeds a splitmix64 stream that fills Dim components in [-1, 1).
// Same word, same vector, in every worker and every run.
type Vectorizer struct {
	Dim int
}

// Vector returns the embedding of word.
func (v Vectorizer) Vector(word string) []float32 {
	dim := v.Dim
	if dim <= 0 {
		dim = 64
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.ToLower(word)))
	state := h.Sum64()

	out := make([]float32, dim)
	for i := range out {
		state += 0x9e3779b97f4a7c15
		z := state
		z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
		z = (z ^ (z >> 27)) * 0x94d049bb133111eb
		z ^= z >> 31
		out[i] = float32(z>>40)/(1<<24)*2 - 1
	}
	return out
}
