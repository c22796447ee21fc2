// Package utils contains small helpers shared by the CLI entrypoint.
package utils

import (
	"bytes"
	"io"
	"sync"
)

// DeferredWriter buffers log output while a full-screen program owns the
// terminal. Flush replays it afterwards, one write per buffered line.
type DeferredWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// Write appends p to the buffer.
func (d *DeferredWriter) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buf.Write(p)
}

// Flush writes each buffered line to w and empties the buffer.
func (d *DeferredWriter) Flush(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for {
		line, err := d.buf.ReadBytes('\n')
		if len(line) > 0 {
			if _, werr := w.Write(line); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			return nil
		}
	}
}
