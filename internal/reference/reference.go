// Package reference gives random access to an indexed FASTA file.
package reference

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/biogo/hts/fai"
)

var (
	ErrNotFound   = errors.New("reference: sequence not found")
	ErrOutOfRange = errors.New("reference: interval out of range")
)

// Reference is an open FASTA file and its .fai index.
type Reference struct {
	path string
	fh   *os.File
	idx  fai.Index
	f    *fai.File
}

// Open opens path. If path+".fai" is absent the index is built by
// reading the whole file once. Gzip input is refused because it cannot
// be addressed by a .fai index.
func Open(path string) (*Reference, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reference: %w", err)
	}
	if gz, err := isGzip(fh); err != nil {
		_ = fh.Close()
		return nil, fmt.Errorf("reference: %s: %w", path, err)
	} else if gz {
		_ = fh.Close()
		return nil, fmt.Errorf("reference: %s: compressed FASTA is not supported, decompress it and index with samtools faidx", path)
	}
	idx, err := loadIndex(path, fh)
	if err != nil {
		_ = fh.Close()
		return nil, err
	}
	return &Reference{path: path, fh: fh, idx: idx, f: fai.NewFile(fh, idx)}, nil
}

func isGzip(fh *os.File) (bool, error) {
	var sig [2]byte
	n, _ := fh.Read(sig[:])
	if _, err := fh.Seek(0, io.SeekStart); err != nil {
		return false, err
	}
	return n == 2 && sig[0] == 0x1f && sig[1] == 0x8b, nil
}

func loadIndex(path string, fh *os.File) (fai.Index, error) {
	ih, err := os.Open(path + ".fai")
	if err == nil {
		defer ih.Close()
		idx, err := fai.ReadFrom(ih)
		if err != nil {
			return nil, fmt.Errorf("reference: %s.fai: %w", path, err)
		}
		return idx, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reference: %w", err)
	}
	idx, err := fai.NewIndex(fh)
	if err != nil {
		return nil, fmt.Errorf("reference: indexing %s: %w", path, err)
	}
	if _, err := fh.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("reference: %w", err)
	}
	return idx, nil
}

func (r *Reference) Path() string { return r.path }

// Len returns the length of the named sequence.
func (r *Reference) Len(name string) (int, bool) {
	rec, ok := r.idx[name]
	if !ok {
		return 0, false
	}
	return rec.Length, true
}

// Names lists the sequences in the index.
func (r *Reference) Names() []string {
	out := make([]string, 0, len(r.idx))
	for name := range r.idx {
		out = append(out, name)
	}
	return out
}

// Fetch returns bases start..end of name, 0-based and inclusive, in
// lower case.
func (r *Reference) Fetch(name string, start, end int) ([]byte, error) {
	rec, ok := r.idx[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if start < 0 || end < start || end >= rec.Length {
		return nil, fmt.Errorf("%w: %s:%d-%d (length %d)", ErrOutOfRange, name, start, end, rec.Length)
	}
	s, err := r.f.SeqRange(name, start, end+1)
	if err != nil {
		return nil, fmt.Errorf("reference: %s:%d-%d: %w", name, start, end, err)
	}
	b, err := io.ReadAll(s)
	if err != nil {
		return nil, fmt.Errorf("reference: %s:%d-%d: %w", name, start, end, err)
	}
	return bytes.ToLower(b), nil
}

// FetchAll returns the whole named sequence in lower case.
func (r *Reference) FetchAll(name string) ([]byte, error) {
	n, ok := r.Len(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if n == 0 {
		return []byte{}, nil
	}
	return r.Fetch(name, 0, n-1)
}

func (r *Reference) Close() error { return r.fh.Close() }
