package logging

import (
	"bytes"
	"io"
	"sync"

	"go.uber.org/multierr"
)

// CombinedWriter writes to every writer and keeps going past failures;
// the returned error aggregates all of them.
type CombinedWriter struct {
	Writers []io.Writer
}

func NewCombinedWriter(writers ...io.Writer) *CombinedWriter {
	cw := &CombinedWriter{}
	for _, w := range writers {
		if w != nil {
			cw.Writers = append(cw.Writers, w)
		}
	}
	return cw
}

func (cw *CombinedWriter) Write(p []byte) (int, error) {
	var err error
	for _, w := range cw.Writers {
		if _, werr := w.Write(p); werr != nil {
			err = multierr.Append(err, werr)
		}
	}
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

// ChannelWriter forwards complete lines (newline included) to a channel for
// the UI log pane. A line is dropped rather than blocking the writer when the
// channel is full.
type ChannelWriter struct {
	mu      sync.Mutex
	ch      chan<- string
	pending bytes.Buffer
	dropped int
}

func NewChannelWriter(ch chan<- string) *ChannelWriter {
	if ch == nil {
		panic("ChannelWriter: channel cannot be nil")
	}
	return &ChannelWriter{ch: ch}
}

func (w *ChannelWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending.Write(p)
	for {
		i := bytes.IndexByte(w.pending.Bytes(), '\n')
		if i < 0 {
			break
		}
		line := string(w.pending.Next(i + 1))
		select {
		case w.ch <- line:
		default:
			w.dropped++
		}
	}
	return len(p), nil
}

// Dropped returns the number of lines lost to a full channel
func (w *ChannelWriter) Dropped() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dropped
}
