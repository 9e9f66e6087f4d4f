// internal/app/system/sse/sse.go

// Package sse writes Server-Sent Events over net/http. Folder event streams
// use it to push change notifications to the browser.
package sse

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// KeepAliveInterval is how often a comment is written to an idle stream so
// proxies do not time the connection out.
const KeepAliveInterval = 15 * time.Second

// ErrStreamingUnsupported is returned when the ResponseWriter cannot flush.
var ErrStreamingUnsupported = errors.New("sse: response writer does not support streaming")

// Writer sends events on one client connection. Not safe for concurrent use;
// each connection has one owning goroutine.
type Writer struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewWriter prepares w for event streaming and writes the SSE headers.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no") // Disable nginx buffering
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &Writer{w: w, flusher: flusher}, nil
}

// Send writes one named event. A write error means the client disconnected
// and the caller should stop streaming.
func (s *Writer) Send(event, data string) error {
	if event != "" {
		if _, err := fmt.Fprintf(s.w, "event: %s\n", event); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// KeepAlive writes a comment line that clients ignore.
func (s *Writer) KeepAlive() error {
	if _, err := fmt.Fprint(s.w, ": keepalive\n\n"); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
