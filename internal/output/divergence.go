package output

import (
	"fmt"
	"io"

	"seqbias/internal/tabulate"
	"seqbias/pkg/api"
)

// ToAPIDivergence converts a tabulation to the v1 schema.
func ToAPIDivergence(res *tabulate.Result) api.DivergenceV1 {
	v := api.DivergenceV1{
		L:         res.L,
		R:         res.R,
		K:         res.K,
		Windows:   res.Windows,
		Positions: make([]api.DivergencePointV1, len(res.KL)),
	}
	for i, kl := range res.KL {
		v.Positions[i] = api.DivergencePointV1{Offset: res.Offset(i), KL: kl}
	}
	return v
}

// WriteDivergenceTSV prints one offset per line.
func WriteDivergenceTSV(w io.Writer, res *tabulate.Result, withHeader bool) error {
	if withHeader {
		if _, err := fmt.Fprintln(w, DivergenceTSVHeader); err != nil {
			return err
		}
	}
	for i, kl := range res.KL {
		if _, err := fmt.Fprintf(w, "%d\t%s\n", res.Offset(i), formatFloat(kl)); err != nil {
			return err
		}
	}
	return nil
}

// WriteDivergenceJSON writes a single pretty-indented v1 divergence record.
func WriteDivergenceJSON(w io.Writer, res *tabulate.Result) error {
	return encodePretty(w, ToAPIDivergence(res))
}
