// Package model loads the character vocabulary and GRU weights the classifier runs on
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ManifestFile is the fixed name of the artifact descriptor inside a model dir
const ManifestFile = "manifest.yaml"

// Manifest describes one exported model
type Manifest struct {
	Version      string `yaml:"version" json:"version"`
	EmbeddingDim int    `yaml:"embedding_dim" json:"embedding_dim"`
	HiddenDim    int    `yaml:"hidden_dim" json:"hidden_dim"`
	Layers       int    `yaml:"layers" json:"layers"`
	MaxLen       int    `yaml:"max_len" json:"max_len"`
	Vocab        string `yaml:"vocab" json:"vocab"`
	Weights      string `yaml:"weights" json:"weights"`

	SHA256 struct {
		Vocab   string `yaml:"vocab,omitempty" json:"vocab,omitempty"`
		Weights string `yaml:"weights,omitempty" json:"weights,omitempty"`
	} `yaml:"sha256,omitempty" json:"-"`
}

func (m *Manifest) applyDefaults() {
	if m.EmbeddingDim == 0 {
		m.EmbeddingDim = 128
	}
	if m.HiddenDim == 0 {
		m.HiddenDim = 128
	}
	if m.Layers == 0 {
		m.Layers = 2
	}
	if m.MaxLen == 0 {
		m.MaxLen = 200
	}
	if m.Vocab == "" {
		m.Vocab = "vocab.json"
	}
	if m.Weights == "" {
		m.Weights = "weights.bin"
	}
}

func (m Manifest) validate() error {
	if m.EmbeddingDim < 1 || m.HiddenDim < 1 || m.Layers < 1 || m.MaxLen < 1 {
		return fmt.Errorf("manifest: dims must be positive (embedding=%d hidden=%d layers=%d max_len=%d)",
			m.EmbeddingDim, m.HiddenDim, m.Layers, m.MaxLen)
	}
	for _, name := range []string{m.Vocab, m.Weights} {
		if filepath.Base(name) != name {
			return fmt.Errorf("manifest: artifact %q must be a bare file name", name)
		}
	}
	return nil
}

func readManifest(dir string) (Manifest, error) {
	var m Manifest
	b, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return m, fmt.Errorf("manifest: %w", err)
	}
	if err := yaml.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("manifest: %w", err)
	}
	m.applyDefaults()
	return m, m.validate()
}

// readArtifact reads dir/name and checks it against want when want is set
func readArtifact(dir, name, want string) ([]byte, error) {
	b, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return nil, err
	}
	if want == "" {
		return b, nil
	}
	sum := sha256.Sum256(b)
	if got := hex.EncodeToString(sum[:]); !strings.EqualFold(got, want) {
		return nil, fmt.Errorf("%s: sha256 mismatch: got %s want %s", name, got, want)
	}
	return b, nil
}
