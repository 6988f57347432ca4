// Package sse reads server-sent event streams frame by frame. It handles
// the wire format only; interpreting payloads is the caller's concern.
package sse

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// ErrIdleTimeout reports that the stream went silent for longer than the
// configured idle timeout and was closed.
var ErrIdleTimeout = errors.New("sse: idle timeout")

const defaultBufferSize = 64 * 1024

// Event is one server-sent event.
type Event struct {
	// Event is the event type, when the stream names one.
	Event string
	// Data is the event payload. Multi-line data is joined with newlines.
	Data string
	// ID is the last seen event ID, when present.
	ID string
}

// Reader yields events from a stream. Next returns io.EOF when the stream
// ends cleanly.
type Reader interface {
	Next() (*Event, error)
	Close() error
}

// Option configures a Reader.
type Option func(*reader)

// WithBufferSize sets the maximum accepted line length in bytes. Lines
// beyond it fail the stream with bufio.ErrTooLong.
func WithBufferSize(n int) Option {
	return func(r *reader) {
		if n > 0 {
			r.bufSize = n
		}
	}
}

// WithIdleTimeout closes the stream when no line arrives within d. Any
// line resets the clock, comment keep-alives included. Zero disables it.
func WithIdleTimeout(d time.Duration) Option {
	return func(r *reader) {
		r.idle = d
	}
}

type reader struct {
	body      io.ReadCloser
	scanner   *bufio.Scanner
	bufSize   int
	idle      time.Duration
	watchdog  *time.Timer
	timedOut  atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// NewReader wraps a response body in an event reader. The reader owns the
// body: Close releases it, and every terminal Next error leaves it closed
// by the caller's Close.
func NewReader(body io.ReadCloser, opts ...Option) Reader {
	r := &reader{
		body:    body,
		scanner: bufio.NewScanner(body),
		bufSize: defaultBufferSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.scanner.Buffer(make([]byte, 0, 4096), r.bufSize)
	if r.idle > 0 {
		r.watchdog = time.AfterFunc(r.idle, func() {
			r.timedOut.Store(true)
			r.body.Close()
		})
	}
	return r
}

// Next blocks until a complete event arrives. Events are dispatched on
// the blank line that terminates them; comment lines and unknown fields
// are skipped. io.EOF means the server ended the stream.
func (r *reader) Next() (*Event, error) {
	var eventType, lastID string
	var dataLines []string

	for r.scanner.Scan() {
		if r.watchdog != nil {
			r.watchdog.Reset(r.idle)
		}
		line := strings.TrimRight(r.scanner.Text(), "\r")

		if line == "" {
			if len(dataLines) > 0 {
				return &Event{
					Event: eventType,
					Data:  strings.Join(dataLines, "\n"),
					ID:    lastID,
				}, nil
			}
			eventType = ""
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value := parseLine(line)
		switch field {
		case "data":
			dataLines = append(dataLines, value)
		case "event":
			eventType = value
		case "id":
			lastID = value
		case "retry":
			// Reconnection hints are meaningless for one-shot request streams.
		}
	}

	if err := r.scanner.Err(); err != nil {
		if r.timedOut.Load() {
			return nil, ErrIdleTimeout
		}
		return nil, err
	}
	// A final event not terminated by a blank line still counts.
	if len(dataLines) > 0 {
		return &Event{
			Event: eventType,
			Data:  strings.Join(dataLines, "\n"),
			ID:    lastID,
		}, nil
	}
	return nil, io.EOF
}

// Close releases the underlying stream. Safe to call more than once.
func (r *reader) Close() error {
	r.closeOnce.Do(func() {
		if r.watchdog != nil {
			r.watchdog.Stop()
		}
		r.closeErr = r.body.Close()
	})
	return r.closeErr
}

// parseLine splits a field line at the first colon and strips the single
// optional space after it. A line without a colon is a field with an
// empty value.
func parseLine(line string) (string, string) {
	field, value, found := strings.Cut(line, ":")
	if !found {
		return line, ""
	}
	return field, strings.TrimPrefix(value, " ")
}
