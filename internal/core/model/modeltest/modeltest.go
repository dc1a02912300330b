// Package modeltest builds small deterministic models for tests
package modeltest

import (
	"math/rand/v2"
	"testing"

	"phishguard/internal/core/model"
)

// Alphabet is the vocabulary used by New, ids assigned in order from 1
const Alphabet = "abcdefghijklmnopqrstuvwxyz0123456789:/.-_?=&%"

// New returns a model with small dims and weights drawn uniformly from [-scale, scale]
func New(seed uint64, embed, hidden, layers, maxLen int, scale float64) *model.Model {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	fill := func(n int) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = (rng.Float64()*2 - 1) * scale
		}
		return out
	}

	vocab := model.Vocab{}
	for i, r := range []rune(Alphabet) {
		vocab[r] = i + 1
	}

	man := model.Manifest{
		Version:      "test",
		EmbeddingDim: embed,
		HiddenDim:    hidden,
		Layers:       layers,
		MaxLen:       maxLen,
	}
	w := model.Weights{Embedding: fill(vocab.Size() * embed)}
	in := embed
	for range layers {
		w.Layers = append(w.Layers, model.Layer{
			In:  in,
			Wih: fill(3 * hidden * in),
			Whh: fill(3 * hidden * hidden),
			Bih: fill(3 * hidden),
			Bhh: fill(3 * hidden),
		})
		in = hidden
	}
	w.FcW = fill(hidden)
	w.FcB = fill(1)[0]
	return &model.Model{Manifest: man, Vocab: vocab, Weights: w}
}

// Dir writes m into a temp dir and returns its path
func Dir(t testing.TB, m *model.Model) string {
	t.Helper()
	dir := t.TempDir()
	if err := model.WriteDir(dir, m); err != nil {
		t.Fatalf("write model: %v", err)
	}
	return dir
}
