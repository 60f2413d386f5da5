package reference

import (
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"seqbias/internal/testfixture"
)

var contigs = []testfixture.Contig{
	{Name: "chr1", Seq: "ACGTACGTNNacgtTTGGCCAAGGTT"},
	{Name: "chrM", Seq: "GATTACA"},
}

func TestFetch(t *testing.T) {
	for _, indexed := range []bool{true, false} {
		name := "built"
		if indexed {
			name = "fai"
		}
		t.Run(name, func(t *testing.T) {
			path := testfixture.WriteFASTA(t, t.TempDir(), contigs, 7, indexed)
			ref, err := Open(path)
			if err != nil {
				t.Fatal(err)
			}
			defer ref.Close()

			cases := []struct {
				seq        string
				start, end int
				want       string
			}{
				{"chr1", 0, 3, "acgt"},
				{"chr1", 6, 11, "gtnnac"},
				{"chr1", 25, 25, "t"},
				{"chrM", 0, 6, "gattaca"},
			}
			for _, c := range cases {
				got, err := ref.Fetch(c.seq, c.start, c.end)
				if err != nil {
					t.Fatalf("Fetch(%s,%d,%d): %v", c.seq, c.start, c.end, err)
				}
				if string(got) != c.want {
					t.Errorf("Fetch(%s,%d,%d) = %q, want %q", c.seq, c.start, c.end, got, c.want)
				}
			}
			all, err := ref.FetchAll("chrM")
			if err != nil || string(all) != "gattaca" {
				t.Fatalf("FetchAll = %q, %v", all, err)
			}
			if n, ok := ref.Len("chr1"); !ok || n != 26 {
				t.Fatalf("Len(chr1) = %d,%v", n, ok)
			}
		})
	}
}

func TestFetchErrors(t *testing.T) {
	path := testfixture.WriteFASTA(t, t.TempDir(), contigs, 60, true)
	ref, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ref.Close()

	if _, err := ref.Fetch("chr9", 0, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing sequence: %v", err)
	}
	for _, iv := range [][2]int{{-1, 3}, {3, 2}, {0, 7}} {
		if _, err := ref.Fetch("chrM", iv[0], iv[1]); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("Fetch(chrM,%d,%d): %v", iv[0], iv[1], err)
		}
	}
}

func TestOpenRejectsGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ref.fa.gz")
	fh, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := gzip.NewWriter(fh)
	_, _ = zw.Write([]byte(">x\nACGT\n"))
	_ = zw.Close()
	_ = fh.Close()
	if _, err := Open(path); err == nil {
		t.Fatal("gzip FASTA accepted")
	}
}

func TestOpenMissing(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "nope.fa")); err == nil {
		t.Fatal("missing file accepted")
	}
}
