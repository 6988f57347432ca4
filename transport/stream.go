package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/routerkit/logger"
	"github.com/kbukum/routerkit/transport/sse"
)

// doneSentinel terminates a gateway event stream.
const doneSentinel = "[DONE]"

// maxErrorBody bounds how much of a failed stream handshake is read for
// classification.
const maxErrorBody = 1 << 20

// EventStream yields typed events decoded from a server-sent event
// response. It is a pull iterator for a single consumer; Next and Close
// must not be called concurrently with each other from different
// goroutines, except that Close may interrupt a blocked Next.
type EventStream[T any] struct {
	reader    sse.Reader
	reqCtx    context.Context
	log       *logger.Logger
	requestID string
	idle      time.Duration

	mu   sync.Mutex
	done bool
	err  error
}

// Stream executes a streaming request against c and returns a typed event
// stream over the response. The request is dispatched exactly once:
// streaming calls are never retried, because frames may already have been
// delivered when a failure surfaces. A non-success handshake is read,
// classified, and returned as an error with the connection released.
func Stream[T any](ctx context.Context, c *Client, req Request) (*EventStream[T], error) {
	start := time.Now()
	ctx, span := c.tel.start(ctx, "transport.Stream", req.Method, req.Path)
	defer span.End()

	authName, authValue, authErr := c.authHeader(ctx)
	if authErr != nil {
		c.tel.end(ctx, span, req, 0, 0, authErr, start)
		return nil, authErr
	}

	body, contentType, encErr := encodeBody(req.Body)
	if encErr != nil {
		c.tel.end(ctx, span, req, 0, 0, encErr, start)
		return nil, encErr
	}

	requestID := uuid.NewString()
	httpReq, buildErr := c.buildRequest(ctx, req, body, contentType, authName, authValue, requestID)
	if buildErr != nil {
		c.tel.end(ctx, span, req, 0, 0, buildErr, start)
		return nil, buildErr
	}
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")

	// A dedicated client without a request timeout keeps long-lived
	// streams alive; the connection pool is shared with the base client.
	streamClient := &http.Client{Transport: c.httpClient.Transport}
	httpResp, doErr := streamClient.Do(httpReq)
	if doErr != nil {
		var terr *Error
		if ctxErr := ctx.Err(); ctxErr != nil {
			terr = NewTimeoutError(0, ctxErr)
		} else {
			var uerr *url.Error
			if errors.As(doErr, &uerr) && uerr.Timeout() {
				terr = NewTimeoutError(c.config.RequestTimeout, doErr)
			} else {
				terr = NewNetworkError(doErr)
			}
		}
		terr.RequestID = requestID
		c.tel.end(ctx, span, req, 0, 1, terr, start)
		return nil, terr
	}

	rid := httpResp.Header.Get(headerRequestID)
	if rid == "" {
		rid = requestID
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBody))
		httpResp.Body.Close()
		terr := Classify(httpResp.StatusCode, data, httpResp.Header)
		terr.RequestID = rid
		c.tel.end(ctx, span, req, httpResp.StatusCode, 1, terr, start)
		return nil, terr
	}

	opts := []sse.Option{sse.WithBufferSize(c.config.StreamBufferSize)}
	if c.config.StreamReadTimeout > 0 {
		opts = append(opts, sse.WithIdleTimeout(c.config.StreamReadTimeout))
	}

	c.log.Debug("stream open", logger.Fields(
		logger.FieldMethod, req.Method,
		logger.FieldPath, req.Path,
		logger.FieldRequestID, rid,
		logger.FieldStatus, httpResp.StatusCode,
	))
	c.tel.end(ctx, span, req, httpResp.StatusCode, 1, nil, start)

	return &EventStream[T]{
		reader:    sse.NewReader(httpResp.Body, opts...),
		reqCtx:    ctx,
		log:       c.log,
		requestID: rid,
		idle:      c.config.StreamReadTimeout,
	}, nil
}

// Next blocks until the next event, the end of the stream, or a failure.
// It returns (event, true, nil) for each decoded event; (zero, false,
// nil) once the stream ends, whether by the [DONE] sentinel or by the
// server closing it; and (zero, false, err) on failure, after which the
// stream is closed. Frames that do not decode into T are logged and
// skipped. Cancellation of ctx is observed at the next blocking read.
func (s *EventStream[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T

	s.mu.Lock()
	if s.done {
		err := s.err
		s.mu.Unlock()
		return zero, false, err
	}
	s.mu.Unlock()

	// Closing the reader unblocks a read in progress when ctx fires.
	stop := context.AfterFunc(ctx, func() { s.reader.Close() })
	defer stop()

	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, false, s.finish(NewTimeoutError(0, ctxErr))
		}

		ev, err := s.reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				// The server closed the stream without a sentinel; the
				// events delivered so far stand.
				return zero, false, s.finish(nil)
			}
			return zero, false, s.finish(s.classifyReadError(ctx, err))
		}

		if ev.Data == doneSentinel {
			return zero, false, s.finish(nil)
		}

		var out T
		if jerr := json.Unmarshal([]byte(ev.Data), &out); jerr != nil {
			s.log.Warn("skipping malformed stream frame", logger.Fields(
				logger.FieldRequestID, s.requestID,
				logger.FieldFrameBytes, len(ev.Data),
				logger.FieldError, jerr.Error(),
			))
			continue
		}
		return out, true, nil
	}
}

// Close releases the stream's connection. Safe to call at any point and
// more than once; a Next blocked on the network is unblocked.
func (s *EventStream[T]) Close() error {
	err := s.reader.Close()
	s.mu.Lock()
	s.done = true
	s.mu.Unlock()
	return err
}

// RequestID returns the correlation ID of the streaming exchange.
func (s *EventStream[T]) RequestID() string {
	return s.requestID
}

// finish records the terminal state and releases the connection. The
// terminal error (nil for a clean end) is sticky: every later Next
// returns it.
func (s *EventStream[T]) finish(err error) error {
	s.reader.Close()
	s.mu.Lock()
	s.done = true
	s.err = err
	s.mu.Unlock()
	return err
}

// classifyReadError maps a failed stream read to a classified error.
func (s *EventStream[T]) classifyReadError(ctx context.Context, err error) *Error {
	var terr *Error
	switch {
	case ctx.Err() != nil:
		terr = NewTimeoutError(0, ctx.Err())
	case s.reqCtx != nil && s.reqCtx.Err() != nil:
		terr = NewTimeoutError(0, s.reqCtx.Err())
	case errors.Is(err, sse.ErrIdleTimeout):
		terr = NewTimeoutError(s.idle, err)
	case errors.Is(err, bufio.ErrTooLong):
		terr = newError(KindSerialization, "stream frame exceeds buffer size")
		terr.Err = err
	default:
		terr = NewNetworkError(err)
	}
	terr.RequestID = s.requestID
	return terr
}
