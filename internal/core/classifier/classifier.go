// Package classifier scores URLs with a character level GRU
package classifier

import (
	"fmt"
	"math"

	"phishguard/internal/core/model"
	"phishguard/internal/core/urlnorm"
)

// Classifier is immutable after New and safe for concurrent Score calls
type Classifier struct {
	man    model.Manifest
	vocab  model.Vocab
	hidden int

	// proj0[id] = W_ih(layer 0) · embedding[id] + b_ih(layer 0), [3H] per vocabulary id
	proj0  [][]float64
	layers []model.Layer
	fcW    []float64
	fcB    float64
}

// New checks m's shapes and precomputes the first layer's input projections
func New(m *model.Model) (*Classifier, error) {
	if m == nil {
		return nil, fmt.Errorf("classifier: nil model")
	}
	man, w := m.Manifest, m.Weights
	e, h := man.EmbeddingDim, man.HiddenDim
	if len(w.Layers) != man.Layers || len(w.Layers) == 0 {
		return nil, fmt.Errorf("classifier: %d layers, manifest says %d", len(w.Layers), man.Layers)
	}
	if len(w.Embedding) != m.Vocab.Size()*e || len(w.FcW) != h {
		return nil, fmt.Errorf("classifier: embedding or fc shape mismatch")
	}
	in := e
	for i, l := range w.Layers {
		if l.In != in || len(l.Wih) != 3*h*in || len(l.Whh) != 3*h*h || len(l.Bih) != 3*h || len(l.Bhh) != 3*h {
			return nil, fmt.Errorf("classifier: layer %d shape mismatch", i)
		}
		in = h
	}

	l0 := w.Layers[0]
	proj0 := make([][]float64, m.Vocab.Size())
	for id := range proj0 {
		x := w.Embedding[id*e : (id+1)*e]
		p := make([]float64, 3*h)
		affine(p, l0.Wih, x, l0.Bih)
		proj0[id] = p
	}

	return &Classifier{
		man:    man,
		vocab:  m.Vocab,
		hidden: h,
		proj0:  proj0,
		layers: w.Layers,
		fcW:    w.FcW,
		fcB:    w.FcB,
	}, nil
}

// Manifest returns the descriptor of the loaded model
func (c *Classifier) Manifest() model.Manifest { return c.man }

// Score returns the phishing probability of url in [0,1].
// The URL is normalized, cut or zero padded to max_len characters, then run through every layer
func (c *Classifier) Score(url string) float64 {
	ids := c.encode(urlnorm.Normalize(url))

	h := c.hidden
	state := make([][]float64, len(c.layers))
	for i := range state {
		state[i] = make([]float64, h)
	}
	gi := make([]float64, 3*h)
	gh := make([]float64, 3*h)

	for _, id := range ids {
		var x []float64
		for li := range c.layers {
			l := &c.layers[li]
			if li == 0 {
				copy(gi, c.proj0[id])
			} else {
				affine(gi, l.Wih, x, l.Bih)
			}
			affine(gh, l.Whh, state[li], l.Bhh)
			step(state[li], gi, gh, h)
			x = state[li]
		}
	}

	last := state[len(state)-1]
	logit := c.fcB
	for j, v := range last {
		logit += c.fcW[j] * v
	}
	return sigmoid(logit)
}

func (c *Classifier) encode(s string) []int {
	ids := make([]int, c.man.MaxLen)
	i := 0
	for _, r := range s {
		if i == len(ids) {
			break
		}
		ids[i] = c.vocab.ID(r)
		i++
	}
	return ids
}

// step applies one GRU cell update to hs in place
func step(hs, gi, gh []float64, h int) {
	for j := 0; j < h; j++ {
		r := sigmoid(gi[j] + gh[j])
		z := sigmoid(gi[h+j] + gh[h+j])
		n := math.Tanh(gi[2*h+j] + r*gh[2*h+j])
		hs[j] = (1-z)*n + z*hs[j]
	}
}

// affine writes W·x + b into dst, W row-major [len(dst)][len(x)]
func affine(dst, w, x, b []float64) {
	cols := len(x)
	for i := range dst {
		row := w[i*cols : (i+1)*cols]
		sum := b[i]
		for j, v := range x {
			sum += row[j] * v
		}
		dst[i] = sum
	}
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }
