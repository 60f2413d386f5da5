// Package testfixture writes small indexed FASTA and BAM files for tests.
package testfixture

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"testing"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/fai"
	"github.com/biogo/hts/sam"
)

// Contig is one reference sequence.
type Contig struct {
	Name string
	Seq  string
}

// WriteFASTA writes contigs wrapped at width bases per line and, when
// index is set, a matching .fai. It returns the FASTA path.
func WriteFASTA(t testing.TB, dir string, contigs []Contig, width int, index bool) string {
	t.Helper()
	var b bytes.Buffer
	for _, c := range contigs {
		b.WriteString(">" + c.Name + "\n")
		for i := 0; i < len(c.Seq); i += width {
			j := i + width
			if j > len(c.Seq) {
				j = len(c.Seq)
			}
			b.WriteString(c.Seq[i:j] + "\n")
		}
	}
	path := filepath.Join(dir, "ref.fa")
	if err := os.WriteFile(path, b.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	if !index {
		return path
	}
	idx, err := fai.NewIndex(bytes.NewReader(b.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	fh, err := os.Create(path + ".fai")
	if err != nil {
		t.Fatal(err)
	}
	defer fh.Close()
	if err := fai.WriteTo(fh, idx); err != nil {
		t.Fatal(err)
	}
	return path
}

// Read is one single-block alignment.
type Read struct {
	Ref     int
	Pos     int
	Len     int
	Reverse bool
}

// WriteBAM writes reads against contigs as a sorted BAM plus .bai and
// returns the BAM path.
func WriteBAM(t testing.TB, dir string, contigs []Contig, rs []Read) string {
	t.Helper()
	refs := make([]*sam.Reference, len(contigs))
	for i, c := range contigs {
		r, err := sam.NewReference(c.Name, "", "", len(c.Seq), nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		refs[i] = r
	}
	h, err := sam.NewHeader(nil, refs)
	if err != nil {
		t.Fatal(err)
	}
	h.SortOrder = sam.Coordinate

	sorted := append([]Read(nil), rs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Ref != sorted[j].Ref {
			return sorted[i].Ref < sorted[j].Ref
		}
		return sorted[i].Pos < sorted[j].Pos
	})

	path := filepath.Join(dir, "reads.bam")
	fh, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	bw, err := bam.NewWriter(fh, h, 1)
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range sorted {
		seq := bytes.Repeat([]byte("A"), r.Len)
		cigar := []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, r.Len)}
		rec, err := sam.NewRecord("r"+strconv.Itoa(i), refs[r.Ref], nil, r.Pos, -1, 0, 60, cigar, seq, nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		if r.Reverse {
			rec.Flags |= sam.Reverse
		}
		if err := bw.Write(rec); err != nil {
			t.Fatal(err)
		}
	}
	if err := bw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := fh.Close(); err != nil {
		t.Fatal(err)
	}
	writeBAI(t, path)
	return path
}

func writeBAI(t testing.TB, path string) {
	t.Helper()
	fh, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer fh.Close()
	br, err := bam.NewReader(fh, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer br.Close()
	var idx bam.Index
	for {
		r, err := br.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		if err := idx.Add(r, br.LastChunk()); err != nil {
			t.Fatal(err)
		}
	}
	out, err := os.Create(path + ".bai")
	if err != nil {
		t.Fatal(err)
	}
	defer out.Close()
	if err := bam.WriteIndex(out, &idx); err != nil {
		t.Fatal(err)
	}
}

