package output

// Output formats accepted by --output.
const (
	FormatText  = "text" // TSV with a header row
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
	FormatCSV   = "csv"
)
