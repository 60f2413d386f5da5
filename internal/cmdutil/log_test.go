package cmdutil

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestWarnf(t *testing.T) {
	var b bytes.Buffer
	Warnf(&b, false, "skipping %s", "chr9")
	if got := b.String(); got != "WARN: skipping chr9\n" {
		t.Fatalf("got %q", got)
	}
	b.Reset()
	Warnf(&b, true, "hidden")
	if b.Len() != 0 {
		t.Fatalf("quiet printed %q", b.String())
	}
}

func TestNewLoggerLevels(t *testing.T) {
	cases := []struct {
		quiet, verbose bool
		want           logrus.Level
	}{
		{false, false, logrus.InfoLevel},
		{true, false, logrus.WarnLevel},
		{false, true, logrus.DebugLevel},
		{true, true, logrus.WarnLevel},
	}
	for _, c := range cases {
		if got := NewLogger(&bytes.Buffer{}, c.quiet, c.verbose).GetLevel(); got != c.want {
			t.Errorf("quiet=%v verbose=%v: level %v, want %v", c.quiet, c.verbose, got, c.want)
		}
	}
}

func TestNewLoggerWrites(t *testing.T) {
	var b bytes.Buffer
	lg := NewLogger(&b, false, false)
	lg.Infof("hashed %d reads", 42)
	if !strings.Contains(b.String(), "hashed 42 reads") {
		t.Fatalf("missing message: %q", b.String())
	}
}

func TestOrDiscard(t *testing.T) {
	lg := NewLogger(&bytes.Buffer{}, false, false)
	if OrDiscard(lg) != logrus.FieldLogger(lg) {
		t.Fatal("non-nil logger replaced")
	}
	OrDiscard(nil).Info("dropped")
}

func TestStartProfileRejectsUnknown(t *testing.T) {
	if _, err := StartProfile("gpu", t.TempDir()); err == nil {
		t.Fatal("unknown mode accepted")
	}
	stop, err := StartProfile("", "")
	if err != nil {
		t.Fatal(err)
	}
	stop()
}
