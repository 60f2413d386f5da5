package output

import (
	"fmt"
	"io"
	"strconv"

	"seqbias/internal/dna"
	"seqbias/pkg/api"
)

// Track is a per-base series over seqname[Start..End] (0-based,
// inclusive). Values run from Start to End unless Reversed, in which case
// they run from End down to Start. A Sum track holds a single value.
type Track struct {
	Seqname    string
	Start, End int
	Strand     dna.Strand
	Values     []float64
	Reversed   bool
	Sum        bool
	Corrected  bool // counts were divided by predicted bias
}

// Pos returns the 1-based genomic position of Values[i].
func (t Track) Pos(i int) int {
	if t.Reversed {
		return t.End - i + 1
	}
	return t.Start + i + 1
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', 6, 64) }

// ToAPIPrediction converts a bias track to the v1 schema.
func ToAPIPrediction(t Track) api.PredictionV1 {
	return api.PredictionV1{
		SequenceID: t.Seqname,
		Start:      t.Start + 1,
		End:        t.End + 1,
		Strand:     t.Strand.String(),
		Bias:       append([]float64(nil), t.Values...),
	}
}

// ToAPICounts converts a count track to the v1 schema.
func ToAPICounts(t Track) api.CountsV1 {
	return api.CountsV1{
		SequenceID: t.Seqname,
		Start:      t.Start + 1,
		End:        t.End + 1,
		Strand:     t.Strand.String(),
		Sum:        t.Sum,
		Corrected:  t.Corrected,
		Counts:     append([]float64(nil), t.Values...),
	}
}

// WriteTrackTSV prints one line per base under header, or a single
// interval line for a Sum track.
func WriteTrackTSV(w io.Writer, t Track, header string, withHeader bool) error {
	if t.Sum {
		if withHeader {
			if _, err := fmt.Fprintln(w, SumTSVHeader); err != nil {
				return err
			}
		}
		var v float64
		if len(t.Values) > 0 {
			v = t.Values[0]
		}
		_, err := fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\n", t.Seqname, t.Start+1, t.End+1, t.Strand, formatFloat(v))
		return err
	}
	if withHeader {
		if _, err := fmt.Fprintln(w, header); err != nil {
			return err
		}
	}
	for i, v := range t.Values {
		if _, err := fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", t.Seqname, t.Pos(i), t.Strand, formatFloat(v)); err != nil {
			return err
		}
	}
	return nil
}

// WritePredictionTSV writes a bias track as TSV.
func WritePredictionTSV(w io.Writer, t Track, withHeader bool) error {
	return WriteTrackTSV(w, t, PredictionTSVHeader, withHeader)
}

// WriteCountsTSV writes a count track as TSV.
func WriteCountsTSV(w io.Writer, t Track, withHeader bool) error {
	return WriteTrackTSV(w, t, CountsTSVHeader, withHeader)
}

// WritePredictionJSON writes a single pretty-indented v1 prediction.
func WritePredictionJSON(w io.Writer, t Track) error {
	return encodePretty(w, ToAPIPrediction(t))
}

// WriteCountsJSON writes a single pretty-indented v1 count record.
func WriteCountsJSON(w io.Writer, t Track) error {
	return encodePretty(w, ToAPICounts(t))
}
