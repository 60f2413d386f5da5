package output

import (
	"fmt"
	"io"

	"seqbias/internal/bias"
	"seqbias/internal/motif"
	"seqbias/pkg/api"
)

// ToAPIModelSummary describes m with offsets relative to the read start.
func ToAPIModelSummary(m *bias.Model, source string) api.ModelSummaryV1 {
	v := api.ModelSummaryV1{L: m.L, R: m.R, Window: m.Len(), Source: source, Positions: []int{}}
	st, ok := m.Motif().(motif.Structure)
	if !ok {
		return v
	}
	for _, p := range st.Positions() {
		v.Positions = append(v.Positions, p-m.L)
	}
	for _, l := range st.Links() {
		v.Edges = append(v.Edges, api.EdgeV1{From: l[0] - m.L, To: l[1] - m.L})
	}
	return v
}

// WriteModelSummaryText prints key/value lines.
func WriteModelSummaryText(w io.Writer, s api.ModelSummaryV1) error {
	_, err := fmt.Fprintf(w, "L\t%d\nR\t%d\nwindow\t%d\npositions\t%s\nedges\t%d\n",
		s.L, s.R, s.Window, IntsCSV(s.Positions), len(s.Edges))
	return err
}

// WriteModelSummaryJSON writes a single pretty-indented v1 summary.
func WriteModelSummaryJSON(w io.Writer, s api.ModelSummaryV1) error {
	return encodePretty(w, s)
}
