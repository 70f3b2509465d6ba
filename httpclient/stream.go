package httpclient

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/kbukum/apicontract/contract"
	"github.com/kbukum/apicontract/httpclient/sse"
	"github.com/kbukum/apicontract/logger"
	"github.com/kbukum/apicontract/observability"
)

// maxErrorBody caps how much of a failed stream response is kept.
const maxErrorBody = 64 << 10

// StreamAdapter serves contracts declared with ReturnsStream. It shares
// the Adapter's transport, auth and policies but never retries, and
// Config.Timeout does not apply: the stream lives until ctx ends or the
// response is closed.
type StreamAdapter struct {
	a *Adapter
}

var _ contract.HTTPClient[*StreamResponse] = (*StreamAdapter)(nil)

// Stream returns a StreamAdapter sharing a.
func (a *Adapter) Stream() *StreamAdapter {
	return &StreamAdapter{a: a}
}

// Get opens a GET stream. The caller must Close it.
func (s *StreamAdapter) Get(ctx context.Context, url string, opts contract.Options) (*StreamResponse, error) {
	return s.call(ctx, http.MethodGet, url, nil, opts)
}

// Delete opens a DELETE stream without a body.
func (s *StreamAdapter) Delete(ctx context.Context, url string, opts contract.Options) (*StreamResponse, error) {
	return s.call(ctx, http.MethodDelete, url, nil, opts)
}

// Patch opens a PATCH stream sending body.
func (s *StreamAdapter) Patch(ctx context.Context, url string, body any, opts contract.Options) (*StreamResponse, error) {
	return s.call(ctx, http.MethodPatch, url, body, opts)
}

// Post opens a POST stream sending body.
func (s *StreamAdapter) Post(ctx context.Context, url string, body any, opts contract.Options) (*StreamResponse, error) {
	return s.call(ctx, http.MethodPost, url, body, opts)
}

// Put opens a PUT stream sending body.
func (s *StreamAdapter) Put(ctx context.Context, url string, body any, opts contract.Options) (*StreamResponse, error) {
	return s.call(ctx, http.MethodPut, url, body, opts)
}

func (s *StreamAdapter) call(ctx context.Context, method, rawURL string, body any, opts contract.Options) (*StreamResponse, error) {
	req, err := s.a.requestFromOptions(method, rawURL, body, opts)
	if err != nil {
		return nil, err
	}
	return s.a.DoStream(ctx, req)
}

// DoStream opens req and returns once the response headers arrive. A
// text/event-stream response is exposed through SSE, anything else through
// Body. The caller must Close the result.
func (a *Adapter) DoStream(ctx context.Context, req Request) (*StreamResponse, error) {
	payload, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, newRequestError(a.config.Name, fmt.Errorf("encode body: %w", err))
	}
	target, err := a.resolveURL(req.URL, req.Query)
	if err != nil {
		return nil, newRequestError(a.config.Name, err)
	}
	requestID := a.requestID(ctx)

	ctx, call := observability.StartStreamCall(ctx, a.metrics, a.config.Name, req.Method, target)
	// The stream owns streamCtx once returned; every other path cancels it.
	streamCtx, cancel := context.WithCancel(ctx)
	owned := false
	defer func() {
		if !owned {
			cancel()
		}
	}()

	stream, err := guard(ctx, a, func() (*StreamResponse, error) {
		return a.open(streamCtx, req, target, payload, contentType, requestID)
	})

	status := 0
	if err == nil && stream != nil {
		stream.cancel = cancel
		owned = true
		status = stream.StatusCode
	}
	call.End(ctx, status, errorClass(err), err)

	fields := logger.Fields(logger.FieldMethod, req.Method, logger.FieldURL, target, logger.FieldStatus, status)
	if err != nil {
		a.log.WithContext(ctx).Warn("http stream failed", logger.ErrorFields(fields, err))
		return nil, err
	}
	a.log.WithContext(ctx).Debug("http stream opened", fields)
	return stream, nil
}

func (a *Adapter) open(ctx context.Context, req Request, target string, payload []byte, contentType, requestID string) (*StreamResponse, error) {
	httpReq, err := a.newHTTPRequest(ctx, req, target, payload, contentType, requestID)
	if err != nil {
		return nil, err
	}
	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, a.transportError(ctx, ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = resp.Body.Close()
		return nil, ClassifyResponse(a.config.Name, resp.StatusCode, resp.Header, body)
	}

	stream := &StreamResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		RequestID:  requestID,
	}
	if mt, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mt == "text/event-stream" {
		stream.SSE = sse.NewReader(resp.Body)
	} else {
		stream.Body = resp.Body
	}
	return stream, nil
}
