package writers

import (
	"io"

	"seqbias/internal/output"
	"seqbias/internal/tabulate"
	"seqbias/pkg/api"
)

func init() {
	Register(KindPrediction, output.FormatText, func(w io.Writer, p any, opt Options) error {
		t, ok := p.(output.Track)
		if !ok {
			return payloadError(KindPrediction, p)
		}
		return output.WritePredictionTSV(w, t, opt.Header)
	})
	Register(KindPrediction, output.FormatJSON, func(w io.Writer, p any, _ Options) error {
		t, ok := p.(output.Track)
		if !ok {
			return payloadError(KindPrediction, p)
		}
		return output.WritePredictionJSON(w, t)
	})
	Register(KindPrediction, output.FormatJSONL, trackJSONL(KindPrediction))

	Register(KindCounts, output.FormatText, func(w io.Writer, p any, opt Options) error {
		t, ok := p.(output.Track)
		if !ok {
			return payloadError(KindCounts, p)
		}
		return output.WriteCountsTSV(w, t, opt.Header)
	})
	Register(KindCounts, output.FormatJSON, func(w io.Writer, p any, _ Options) error {
		t, ok := p.(output.Track)
		if !ok {
			return payloadError(KindCounts, p)
		}
		return output.WriteCountsJSON(w, t)
	})
	Register(KindCounts, output.FormatJSONL, trackJSONL(KindCounts))

	Register(KindDivergence, output.FormatText, func(w io.Writer, p any, opt Options) error {
		res, ok := p.(*tabulate.Result)
		if !ok {
			return payloadError(KindDivergence, p)
		}
		return output.WriteDivergenceTSV(w, res, opt.Header)
	})
	Register(KindDivergence, output.FormatJSON, func(w io.Writer, p any, _ Options) error {
		res, ok := p.(*tabulate.Result)
		if !ok {
			return payloadError(KindDivergence, p)
		}
		return output.WriteDivergenceJSON(w, res)
	})
	Register(KindDivergence, output.FormatCSV, func(w io.Writer, p any, _ Options) error {
		res, ok := p.(*tabulate.Result)
		if !ok {
			return payloadError(KindDivergence, p)
		}
		return output.WriteKmerTableCSV(w, res.Counts, res.L, true)
	})

	Register(KindModel, output.FormatText, func(w io.Writer, p any, _ Options) error {
		s, ok := p.(api.ModelSummaryV1)
		if !ok {
			return payloadError(KindModel, p)
		}
		return output.WriteModelSummaryText(w, s)
	})
	Register(KindModel, output.FormatJSON, func(w io.Writer, p any, _ Options) error {
		s, ok := p.(api.ModelSummaryV1)
		if !ok {
			return payloadError(KindModel, p)
		}
		return output.WriteModelSummaryJSON(w, s)
	})
}

func trackJSONL(kind Kind) Func {
	return func(w io.Writer, p any, _ Options) error {
		t, ok := p.(output.Track)
		if !ok {
			return payloadError(kind, p)
		}
		return output.WriteTrackJSONL(w, t, IsBrokenPipe)
	}
}
