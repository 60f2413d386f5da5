package writers

import (
	"fmt"
	"io"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Kind names a result type.
type Kind string

const (
	KindPrediction Kind = "prediction"
	KindCounts     Kind = "counts"
	KindDivergence Kind = "divergence"
	KindModel      Kind = "model"
)

// Options are presentation switches shared by all formats. Formats that
// have no use for an option ignore it.
type Options struct {
	Header bool // print a header row in text output
}

// Func serializes one payload.
type Func func(w io.Writer, payload any, opt Options) error

// Writer registry (kind → format → handler). Register in init() blocks.
var registry = map[Kind]map[string]Func{}

// Register adds or replaces the handler for (kind, format).
func Register(kind Kind, format string, fn Func) {
	m, ok := registry[kind]
	if !ok {
		m = map[string]Func{}
		registry[kind] = m
	}
	m[format] = fn
}

// Formats lists the formats registered for kind, sorted.
func Formats(kind Kind) []string {
	fs := maps.Keys(registry[kind])
	slices.Sort(fs)
	return fs
}

// Supports reports whether (kind, format) has a handler.
func Supports(kind Kind, format string) bool {
	_, ok := registry[kind][format]
	return ok
}

// Write dispatches payload to the handler for (kind, format).
func Write(kind Kind, format string, w io.Writer, payload any, opt Options) error {
	fn, ok := registry[kind][format]
	if !ok {
		return fmt.Errorf("unknown %s format %q (no writer registered)", kind, format)
	}
	return fn(w, payload, opt)
}

func payloadError(kind Kind, payload any) error {
	return fmt.Errorf("writers: %s writer got %T", kind, payload)
}
