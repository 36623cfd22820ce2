package stream

import (
	"io"
	"net/http"
)

// Sink receives encoded frame lines in order. A Sink is owned by one stream.
type Sink interface {
	WriteFrame(line []byte) error
}

// HTTPSink writes frames to a chunked response body, flushing after each one.
type HTTPSink struct {
	w       io.Writer
	flusher http.Flusher
}

// NewHTTPSink wraps w. If w implements http.Flusher each frame is flushed.
func NewHTTPSink(w io.Writer) *HTTPSink {
	s := &HTTPSink{w: w}
	if f, ok := w.(http.Flusher); ok {
		s.flusher = f
	}
	return s
}

func (s *HTTPSink) WriteFrame(line []byte) error {
	if _, err := s.w.Write(line); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}
