package sse

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
)

// ErrStreamingUnsupported is returned when the response writer cannot flush.
var ErrStreamingUnsupported = goerr.New("streaming is not supported by response writer")

// Writer writes server-sent events to an HTTP response and flushes each one.
type Writer struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}
	return &Writer{w: w, flusher: flusher}, nil
}

// Start writes the event-stream headers and the 200 status. It is called
// implicitly by the first event.
func (x *Writer) Start() {
	if x.started {
		return
	}
	x.started = true

	h := x.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	x.w.WriteHeader(http.StatusOK)
	x.flusher.Flush()
}

// Started reports whether headers have been sent.
func (x *Writer) Started() bool {
	return x.started
}

// Data writes v as a JSON encoded default event.
func (x *Writer) Data(v any) error {
	return x.Event("", v)
}

// Event writes v as a JSON encoded event of the given type.
func (x *Writer) Event(eventType string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal event data", goerr.V("event", eventType))
	}

	x.Start()

	if eventType != "" {
		if _, err := fmt.Fprintf(x.w, "event: %s\n", eventType); err != nil {
			return goerr.Wrap(err, "failed to write event type")
		}
	}
	if _, err := fmt.Fprintf(x.w, "data: %s\n\n", raw); err != nil {
		return goerr.Wrap(err, "failed to write event data")
	}
	x.flusher.Flush()
	return nil
}
