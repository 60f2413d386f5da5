// pkg/api/bias_v1.go
package api

// Positions in every v1 type are 1-based and inclusive, matching the
// region syntax accepted on the command line.
// Keep fields, names, and types stable. Add new fields only with ",omitempty".

// PredictionV1 is the stable JSON schema for one predicted bias track.
// Bias runs 5' to 3' of Strand: Start..End for "+", End..Start for "-".
type PredictionV1 struct {
	SequenceID string    `json:"sequence_id"`
	Start      int       `json:"start"`
	End        int       `json:"end"`
	Strand     string    `json:"strand"` // "+" | "-"
	Bias       []float64 `json:"bias"`
}

// CountsV1 is the stable JSON schema for read counts over a region. When
// Sum is set Counts holds a single total. Otherwise Counts runs 5' to 3'
// of Strand: Start..End for "+" and ".", End..Start for "-".
type CountsV1 struct {
	SequenceID string    `json:"sequence_id"`
	Start      int       `json:"start"`
	End        int       `json:"end"`
	Strand     string    `json:"strand"` // "+" | "-" | "."
	Sum        bool      `json:"sum,omitempty"`
	Corrected  bool      `json:"corrected,omitempty"`
	Counts     []float64 `json:"counts"`
}

// BaseValueV1 is one line of a per-base JSONL stream.
type BaseValueV1 struct {
	SequenceID string  `json:"sequence_id"`
	Pos        int     `json:"pos"`
	Strand     string  `json:"strand"`
	Value      float64 `json:"value"`
}

// DivergencePointV1 is the divergence at one offset from the read start.
type DivergencePointV1 struct {
	Offset int     `json:"offset"`
	KL     float64 `json:"kl"`
}

// DivergenceV1 is the stable JSON schema for tabulate output.
type DivergenceV1 struct {
	L         int                 `json:"L"`
	R         int                 `json:"R"`
	K         int                 `json:"k"`
	Windows   int                 `json:"windows"`
	Positions []DivergencePointV1 `json:"positions"`
}

// EdgeV1 is one dependency between window offsets.
type EdgeV1 struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// ModelSummaryV1 describes a saved model.
type ModelSummaryV1 struct {
	L         int      `json:"L"`
	R         int      `json:"R"`
	Window    int      `json:"window"`
	Positions []int    `json:"positions"` // offsets used by the model
	Edges     []EdgeV1 `json:"edges,omitempty"`
	Source    string   `json:"source_file,omitempty"`
}
