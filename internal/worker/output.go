package worker

import (
	"net/http"
	"sync/atomic"
)

// Output tracks whether headers of the response currently being served have
// reached the client. It is reset at the start of every dispatch.
type Output struct {
	sent atomic.Bool
}

// HeadersSent reports whether the status line and headers were written.
func (o *Output) HeadersSent() bool {
	return o.sent.Load()
}

func (o *Output) reset() {
	o.sent.Store(false)
}

// trackingWriter marks the output as sent on the first write.
type trackingWriter struct {
	http.ResponseWriter
	output *Output
}

func (w *trackingWriter) WriteHeader(code int) {
	// 1xx informational responses don't commit the final headers.
	if code >= 200 {
		w.output.sent.Store(true)
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *trackingWriter) Write(b []byte) (int, error) {
	w.output.sent.Store(true)
	return w.ResponseWriter.Write(b)
}

func (w *trackingWriter) Flush() {
	w.output.sent.Store(true)
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *trackingWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
