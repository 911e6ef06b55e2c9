package sse

import (
	"bufio"
	"io"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// Event is a single server-sent event. Type is empty for the default
// "message" event.
type Event struct {
	Type string
	Data string
}

// Reader reads server-sent events from a stream. Comment lines and the
// id/retry fields are ignored.
type Reader struct {
	r       *bufio.Reader
	current Event
	err     error
	eof     bool
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReaderSize(r, 64*1024)}
}

// Next advances to the next event. It returns false at the end of the
// stream or on a read error; call Err to tell them apart.
func (x *Reader) Next() bool {
	if x.eof || x.err != nil {
		return false
	}
	x.current = Event{}

	var (
		data      []string
		eventType string
		hasData   bool
	)

	emit := func() bool {
		x.current = Event{Type: eventType, Data: strings.Join(data, "\n")}
		return true
	}

	for {
		line, err := x.r.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				x.err = goerr.Wrap(err, "failed to read event stream")
				return false
			}
			x.eof = true
			if line == "" {
				if hasData {
					return emit()
				}
				return false
			}
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if hasData {
				return emit()
			}
			eventType = ""
			if x.eof {
				return false
			}
			continue
		}

		if !strings.HasPrefix(line, ":") {
			field, value, ok := strings.Cut(line, ":")
			if !ok {
				field, value = line, ""
			}
			value = strings.TrimPrefix(value, " ")

			switch field {
			case "data":
				data = append(data, value)
				hasData = true
			case "event":
				eventType = value
			}
		}

		if x.eof {
			if hasData {
				return emit()
			}
			return false
		}
	}
}

// Event returns the event read by the last successful Next.
func (x *Reader) Event() Event {
	return x.current
}

// Err returns the read error that stopped Next, or nil on a clean end.
func (x *Reader) Err() error {
	return x.err
}
