package bias

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"seqbias/internal/reference"
)

// document is the on-disk model. Unknown keys are ignored on read.
type document struct {
	L     int       `yaml:"L"`
	R     int       `yaml:"R"`
	Motif yaml.Node `yaml:"motif"`
}

// WriteTo writes the model as YAML.
func (m *Model) WriteTo(w io.Writer) (int64, error) {
	if m.motif == nil {
		return 0, ErrNoModel
	}
	node, err := m.codec.Encode(m.motif)
	if err != nil {
		return 0, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&document{L: m.L, R: m.R, Motif: *node}); err != nil {
		return 0, fmt.Errorf("bias: %w", err)
	}
	if err := enc.Close(); err != nil {
		return 0, fmt.Errorf("bias: %w", err)
	}
	return buf.WriteTo(w)
}

// Save writes the model to path, replacing any existing file.
func (m *Model) Save(path string) error {
	if m.motif == nil {
		return ErrNoModel
	}
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("bias: can't open %s for writing: %w", path, err)
	}
	if _, err := m.WriteTo(fh); err != nil {
		_ = fh.Close()
		return err
	}
	return fh.Close()
}

// Read replaces the model's geometry and motif with the document in r.
// The attached reference, if any, is kept.
func (m *Model) Read(r io.Reader) error {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("bias: reading model: %w", err)
	}
	if doc.L < 0 || doc.R < 0 {
		return fmt.Errorf("bias: model has negative geometry L=%d R=%d", doc.L, doc.R)
	}
	if m.codec == nil {
		m.codec = New().codec
	}
	mm, err := m.codec.Decode(&doc.Motif)
	if err != nil {
		return fmt.Errorf("bias: reading model: %w", err)
	}
	if got, want := mm.Len(), doc.L+1+doc.R; got != want {
		return fmt.Errorf("bias: motif covers %d bases but L+1+R = %d", got, want)
	}
	m.L, m.R, m.motif = doc.L, doc.R, mm
	return nil
}

// Load reads a model from modelPath. When refPath is not empty the
// reference is opened and attached for Predict.
func Load(modelPath, refPath string) (*Model, error) {
	fh, err := os.Open(modelPath)
	if err != nil {
		return nil, fmt.Errorf("bias: %w", err)
	}
	defer fh.Close()
	m := New()
	if err := m.Read(fh); err != nil {
		return nil, fmt.Errorf("%s: %w", modelPath, err)
	}
	if refPath != "" {
		ref, err := reference.Open(refPath)
		if err != nil {
			return nil, err
		}
		_ = m.AttachReference(ref, refPath)
	}
	return m, nil
}
