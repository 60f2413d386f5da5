package output

import (
	"io"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"seqbias/internal/kmer"
)

// KmerFrame lays a position by k-mer matrix out long-form with columns
// pos, kmer and freq. Row i of m is reported at position i-offset. When
// normalize is set each position's frequencies sum to one; m itself is
// never modified.
func KmerFrame(m *kmer.Matrix, offset int, normalize bool) dataframe.DataFrame {
	if normalize {
		m = m.Clone()
		m.Normalize()
	}
	cells := m.Table(offset)
	pos := make([]int, len(cells))
	kmers := make([]string, len(cells))
	freq := make([]float64, len(cells))
	for i, c := range cells {
		pos[i], kmers[i], freq[i] = c.Pos, c.Kmer, c.Freq
	}
	return dataframe.New(
		series.New(pos, series.Int, "pos"),
		series.New(kmers, series.String, "kmer"),
		series.New(freq, series.Float, "freq"),
	)
}

// WriteKmerTableCSV writes KmerFrame(m, offset, normalize) as CSV with a
// header row.
func WriteKmerTableCSV(w io.Writer, m *kmer.Matrix, offset int, normalize bool) error {
	return KmerFrame(m, offset, normalize).WriteCSV(w)
}
