package model

import (
	"bufio"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// WriteDir exports m into dir in the layout Load reads, recording sha256 sums in the manifest
func WriteDir(dir string, m *Model) error {
	man := m.Manifest
	man.applyDefaults()
	if err := man.validate(); err != nil {
		return err
	}
	if got, want := len(m.Weights.Embedding), m.Vocab.Size()*man.EmbeddingDim; got != want {
		return fmt.Errorf("embedding has %d values, want %d", got, want)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	raw := make(map[string]int, len(m.Vocab))
	for r, id := range m.Vocab {
		raw[string(r)] = id
	}
	vb, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, man.Vocab), vb, 0o644); err != nil {
		return err
	}

	wsum, err := writeWeights(filepath.Join(dir, man.Weights), m.Weights)
	if err != nil {
		return err
	}

	vsum := sha256.Sum256(vb)
	man.SHA256.Vocab = hex.EncodeToString(vsum[:])
	man.SHA256.Weights = wsum
	mb, err := yaml.Marshal(man)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ManifestFile), mb, 0o644)
}

func writeWeights(path string, w Weights) (string, error) {
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	bw := bufio.NewWriter(f)
	put := func(vals ...float64) error {
		for _, v := range vals {
			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], math.Float32bits(float32(v)))
			_, _ = h.Write(b[:])
			if _, err := bw.Write(b[:]); err != nil {
				return err
			}
		}
		return nil
	}

	if err := put(w.Embedding...); err != nil {
		return "", err
	}
	for _, l := range w.Layers {
		for _, part := range [][]float64{l.Wih, l.Whh, l.Bih, l.Bhh} {
			if err := put(part...); err != nil {
				return "", err
			}
		}
	}
	if err := put(w.FcW...); err != nil {
		return "", err
	}
	if err := put(w.FcB); err != nil {
		return "", err
	}
	if err := bw.Flush(); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), f.Close()
}
