package output

import (
	"bufio"
	"encoding/json"
	"io"
	"sync"

	"seqbias/pkg/api"
)

// Per-base streams can be long; share the 64 KiB buffers between runs.
var bwPool = sync.Pool{
	New: func() any {
		return bufio.NewWriterSize(io.Discard, 64<<10)
	},
}

// startJSONL spins up an encoder goroutine writing one JSON value per
// line. Close the returned channel, then read the error channel once.
// Errors for which isBroken reports true are dropped on the final flush.
func startJSONL[T any](out io.Writer, bufSize int, isBroken func(error) bool) (chan<- T, <-chan error) {
	if bufSize <= 0 {
		bufSize = 64
	}
	in := make(chan T, bufSize)
	done := make(chan error, 1)

	go func() {
		bw := bwPool.Get().(*bufio.Writer)
		bw.Reset(out)
		defer func() {
			bw.Reset(io.Discard)
			bwPool.Put(bw)
		}()

		enc := json.NewEncoder(bw)
		var err error
		for v := range in {
			if err != nil {
				continue // drain so the sender never blocks
			}
			err = enc.Encode(v)
		}
		if err == nil {
			err = bw.Flush()
		}
		if err != nil && isBroken != nil && isBroken(err) {
			err = nil
		}
		done <- err
	}()

	return in, done
}

// WriteTrackJSONL streams one api.BaseValueV1 per base.
func WriteTrackJSONL(w io.Writer, t Track, isBroken func(error) bool) error {
	in, done := startJSONL[api.BaseValueV1](w, 256, isBroken)
	for i, v := range t.Values {
		pos := t.Pos(i)
		if t.Sum {
			pos = t.Start + 1
		}
		in <- api.BaseValueV1{SequenceID: t.Seqname, Pos: pos, Strand: t.Strand.String(), Value: v}
	}
	close(in)
	return <-done
}
