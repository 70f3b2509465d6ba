// Package sse reads text/event-stream bodies.
package sse

import (
	"bufio"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"
)

// maxLine bounds a single field line.
const maxLine = 1 << 20

// Event is one dispatched server-sent event.
type Event struct {
	// Event is the type from "event:"; empty means "message".
	Event string
	// Data joins multiple "data:" lines with newlines.
	Data string
	ID   string
	// Retry is the reconnection delay from "retry:", zero when absent.
	Retry time.Duration
}

// JSON unmarshals Data into v.
func (e *Event) JSON(v any) error {
	return json.Unmarshal([]byte(e.Data), v)
}

// Reader yields events until io.EOF.
type Reader interface {
	Next() (*Event, error)
	// LastEventID is the last id seen, kept across events.
	LastEventID() string
	Close() error
}

type reader struct {
	scanner *bufio.Scanner
	body    io.ReadCloser
	lastID  string
}

func NewReader(body io.ReadCloser) Reader {
	s := bufio.NewScanner(body)
	s.Buffer(make([]byte, 0, 4096), maxLine)
	return &reader{scanner: s, body: body}
}

// Next returns the next event carrying data. Comment lines and events
// without data are skipped.
func (r *reader) Next() (*Event, error) {
	var ev Event
	var hasData bool

	for r.scanner.Scan() {
		line := r.scanner.Text()
		if line == "" {
			if hasData {
				ev.ID = r.lastID
				return &ev, nil
			}
			ev = Event{}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value := splitField(line)
		switch field {
		case "data":
			if hasData {
				ev.Data += "\n" + value
			} else {
				ev.Data = value
				hasData = true
			}
		case "event":
			ev.Event = value
		case "id":
			if !strings.ContainsRune(value, 0) {
				r.lastID = value
			}
		case "retry":
			if ms, err := strconv.Atoi(value); err == nil && ms >= 0 {
				ev.Retry = time.Duration(ms) * time.Millisecond
			}
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	if hasData {
		ev.ID = r.lastID
		return &ev, nil
	}
	return nil, io.EOF
}

func (r *reader) LastEventID() string { return r.lastID }

func (r *reader) Close() error {
	return r.body.Close()
}

// splitField splits "field: value", dropping one leading space of value.
func splitField(line string) (string, string) {
	field, value, found := strings.Cut(line, ":")
	if !found {
		return line, ""
	}
	return field, strings.TrimPrefix(value, " ")
}
