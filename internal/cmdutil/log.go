// internal/cmdutil/log.go
package cmdutil

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Warnf prints a one-line warning before a logger exists (flag parsing,
// config loading).
func Warnf(dst io.Writer, quiet bool, format string, a ...any) {
	if quiet {
		return
	}
	_, _ = fmt.Fprintf(dst, "WARN: "+format+"\n", a...)
}

// NewLogger builds the run logger. quiet keeps warnings and errors only;
// verbose enables debug output. quiet wins if both are set.
func NewLogger(w io.Writer, quiet, verbose bool) *logrus.Logger {
	lg := logrus.New()
	lg.SetOutput(w)
	lg.SetFormatter(&logrus.TextFormatter{
		DisableColors:    true,
		FullTimestamp:    true,
		TimestampFormat:  "15:04:05",
		DisableQuote:     true,
		QuoteEmptyFields: true,
	})
	switch {
	case quiet:
		lg.SetLevel(logrus.WarnLevel)
	case verbose:
		lg.SetLevel(logrus.DebugLevel)
	default:
		lg.SetLevel(logrus.InfoLevel)
	}
	return lg
}

// OrDiscard returns l, or a logger that drops everything when l is nil.
func OrDiscard(l logrus.FieldLogger) logrus.FieldLogger {
	if l != nil {
		return l
	}
	lg := logrus.New()
	lg.SetOutput(io.Discard)
	lg.SetLevel(logrus.PanicLevel)
	return lg
}
