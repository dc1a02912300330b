package model

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"unicode/utf8"
)

// Vocab maps a character to its id; ids run 1..len and 0 is padding or unknown
type Vocab map[rune]int

// ID returns the id for c, 0 when c is not in the vocabulary
func (v Vocab) ID(c rune) int { return v[c] }

// Size is the embedding row count, len(v)+1 for the padding row
func (v Vocab) Size() int { return len(v) + 1 }

// Layer holds one GRU layer with gates stacked r, z, n
type Layer struct {
	In  int
	Wih []float64 // [3H][In]
	Whh []float64 // [3H][H]
	Bih []float64 // [3H]
	Bhh []float64 // [3H]
}

// Weights is the immutable parameter set of the classifier
type Weights struct {
	Embedding []float64 // [vocab][E]
	Layers    []Layer
	FcW       []float64 // [H]
	FcB       float64
}

// Model is a loaded manifest with its vocabulary and weights
type Model struct {
	Manifest Manifest
	Vocab    Vocab
	Weights  Weights
}

// Load reads manifest.yaml, the vocabulary and the weights from dir.
// Any inconsistency between the three is an error
func Load(dir string) (*Model, error) {
	man, err := readManifest(dir)
	if err != nil {
		return nil, err
	}
	vb, err := readArtifact(dir, man.Vocab, man.SHA256.Vocab)
	if err != nil {
		return nil, fmt.Errorf("vocab: %w", err)
	}
	vocab, err := decodeVocab(vb)
	if err != nil {
		return nil, fmt.Errorf("vocab: %w", err)
	}
	wb, err := readArtifact(dir, man.Weights, man.SHA256.Weights)
	if err != nil {
		return nil, fmt.Errorf("weights: %w", err)
	}
	w, err := decodeWeights(wb, man, vocab.Size())
	if err != nil {
		return nil, fmt.Errorf("weights: %w", err)
	}
	return &Model{Manifest: man, Vocab: vocab, Weights: w}, nil
}

func decodeVocab(b []byte) (Vocab, error) {
	var raw map[string]int
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	v := make(Vocab, len(raw))
	seen := make(map[int]string, len(raw))
	for k, id := range raw {
		r, n := utf8.DecodeRuneInString(k)
		if n == 0 || n != len(k) || r == utf8.RuneError {
			return nil, fmt.Errorf("key %q is not a single character", k)
		}
		if id < 1 || id > len(raw) {
			return nil, fmt.Errorf("id %d for %q outside 1..%d", id, k, len(raw))
		}
		if prev, dup := seen[id]; dup {
			return nil, fmt.Errorf("id %d shared by %q and %q", id, prev, k)
		}
		seen[id] = k
		v[r] = id
	}
	return v, nil
}

// ParamCount is the float count weights.bin must hold for man and a vocabulary of vocabSize rows
func ParamCount(man Manifest, vocabSize int) int {
	e, h := man.EmbeddingDim, man.HiddenDim
	n := vocabSize * e
	in := e
	for range man.Layers {
		n += 3*h*in + 3*h*h + 6*h
		in = h
	}
	return n + h + 1
}

func decodeWeights(b []byte, man Manifest, vocabSize int) (Weights, error) {
	want := ParamCount(man, vocabSize)
	if len(b) != want*4 {
		return Weights{}, fmt.Errorf("size %d bytes, manifest needs %d", len(b), want*4)
	}
	flat := make([]float32, want)
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, flat); err != nil {
		return Weights{}, err
	}

	off := 0
	take := func(n int) []float64 {
		out := make([]float64, n)
		for i, f := range flat[off : off+n] {
			out[i] = float64(f)
		}
		off += n
		return out
	}

	e, h := man.EmbeddingDim, man.HiddenDim
	w := Weights{Embedding: take(vocabSize * e)}
	in := e
	for range man.Layers {
		w.Layers = append(w.Layers, Layer{
			In:  in,
			Wih: take(3 * h * in),
			Whh: take(3 * h * h),
			Bih: take(3 * h),
			Bhh: take(3 * h),
		})
		in = h
	}
	w.FcW = take(h)
	w.FcB = take(1)[0]

	for _, f := range flat {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return Weights{}, fmt.Errorf("non finite parameter")
		}
	}
	return w, nil
}
