package output

// Canonical header rows for text/TSV outputs. Keep these as the single
// source of truth; all writers should use them.
const (
	PredictionTSVHeader = "sequence_id\tpos\tstrand\tbias"
	CountsTSVHeader     = "sequence_id\tpos\tstrand\tcount"
	SumTSVHeader        = "sequence_id\tstart\tend\tstrand\tcount"
	DivergenceTSVHeader = "offset\tkl"
)
