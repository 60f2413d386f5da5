// Package writers dispatches command results to format-specific
// serializers.
//
// Each result kind (prediction, counts, divergence, model) has a set of
// named formats registered in init blocks; the CLI validates --output
// against Formats and calls Write. Serialization itself lives in
// internal/output, and JSON goes through pkg/api (v1) for a stable wire
// format.
package writers
