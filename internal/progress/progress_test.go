package progress

import (
	"bytes"
	"testing"
)

func TestNewDisabledIsNop(t *testing.T) {
	r := New(&bytes.Buffer{}, "reads", false)
	if _, ok := r.(Nop); !ok {
		t.Fatalf("got %T, want Nop", r)
	}
	r.Add(10)
	r.Done()
	if _, ok := OrNop(nil).(Nop); !ok {
		t.Fatal("OrNop(nil) is not Nop")
	}
}

func TestSpinnerCompletes(t *testing.T) {
	var b bytes.Buffer
	s := NewSpinner(&b, "reads")
	for i := 0; i < 5; i++ {
		s.Add(1000)
	}
	s.Done()
	s.Add(1)
	s.Done()
	if s.bar.Current() != 5000 {
		t.Fatalf("count %d, want 5000", s.bar.Current())
	}
}
