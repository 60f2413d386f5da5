// Package reads opens coordinate-sorted, indexed BAM files.
package reads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
)

// ErrNoIndex is returned by Open when the BAM index cannot be read.
var ErrNoIndex = errors.New("reads: BAM index not found")

// File is an open BAM plus its .bai index.
type File struct {
	path string
	f    *os.File
	br   *bam.Reader
	idx  *bam.Index
	refs map[string]*sam.Reference
}

// Open opens path and path+".bai". Both must be readable.
func Open(path string) (*File, error) {
	idx, err := readIndex(path + ".bai")
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reads: %w", err)
	}
	br, err := bam.NewReader(f, 1)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("reads: %s: %w", path, err)
	}
	refs := make(map[string]*sam.Reference)
	for _, r := range br.Header().Refs() {
		refs[r.Name()] = r
	}
	return &File{path: path, f: f, br: br, idx: idx, refs: refs}, nil
}

func readIndex(path string) (*bam.Index, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoIndex, path)
	}
	defer fh.Close()
	idx, err := bam.ReadIndex(fh)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoIndex, path, err)
	}
	return idx, nil
}

func (b *File) Path() string        { return b.path }
func (b *File) Header() *sam.Header { return b.br.Header() }

// RefNames lists reference names in tid order.
func (b *File) RefNames() []string {
	refs := b.br.Header().Refs()
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.Name()
	}
	return out
}

// RefLen returns the length of the named reference.
func (b *File) RefLen(name string) (int, bool) {
	r, ok := b.refs[name]
	if !ok {
		return 0, false
	}
	return r.Len(), true
}

// Scan calls fn for every record from the start of the file. It rewinds
// first so repeated scans see the same records.
func (b *File) Scan(ctx context.Context, fn func(*sam.Record) error) error {
	if err := b.rewind(); err != nil {
		return err
	}
	for n := 0; ; n++ {
		if n&0xffff == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		r, err := b.br.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reads: %s: %w", b.path, err)
		}
		if err := fn(r); err != nil {
			return err
		}
	}
}

func (b *File) rewind() error {
	if _, err := b.f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("reads: %w", err)
	}
	_ = b.br.Close()
	br, err := bam.NewReader(b.f, 1)
	if err != nil {
		return fmt.Errorf("reads: %s: %w", b.path, err)
	}
	b.br = br
	return nil
}

// Query calls fn for each record overlapping the 0-based half-open
// interval [start, end) of the named reference. An unknown reference, or
// one the index holds no reads for, yields nothing.
func (b *File) Query(ctx context.Context, name string, start, end int, fn func(*sam.Record) error) error {
	ref, ok := b.refs[name]
	if !ok || start >= end {
		return nil
	}
	if start < 0 {
		start = 0
	}
	if end > ref.Len() {
		end = ref.Len()
	}
	chunks, err := b.idx.Chunks(ref, start, end)
	if err != nil || len(chunks) == 0 {
		return nil
	}
	it, err := bam.NewIterator(b.br, chunks)
	if err != nil {
		return fmt.Errorf("reads: %s: %w", b.path, err)
	}
	defer it.Close()
	for it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		r := it.Record()
		if r.Ref == nil || r.Ref.ID() != ref.ID() || r.Pos >= end || r.End() <= start {
			continue
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	if err := it.Error(); err != nil {
		return fmt.Errorf("reads: %s: %w", b.path, err)
	}
	return nil
}

func (b *File) Close() error {
	err := b.br.Close()
	if cerr := b.f.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
