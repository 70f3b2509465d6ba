package httpclient

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"time"

	"github.com/kbukum/apicontract/httpclient/sse"
)

// Request describes one outbound call.
type Request struct {
	Method string
	// URL is absolute, or relative to Config.BaseURL.
	URL     string
	Headers http.Header
	// Query is added to any query already present in URL.
	Query url.Values
	// Body is sent as is for io.Reader, []byte and string, as multipart for
	// *MultipartBody, and JSON-encoded otherwise.
	Body any
	// Auth overrides Config.Auth.
	Auth *AuthConfig
	// Timeout bounds each attempt; zero uses Config.Timeout.
	Timeout time.Duration
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// Attempts counts the tries it took, retries included.
	Attempts int
	// RequestID is the id sent with the request, if any.
	RequestID string
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// MediaType returns the response media type without parameters.
func (r *Response) MediaType() string {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mt
}

// JSON unmarshals the body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

func (r *Response) String() string {
	return string(r.Body)
}

// StreamResponse is an open response body. Exactly one of SSE and Body is
// set. The caller must Close it.
type StreamResponse struct {
	StatusCode int
	Header     http.Header
	RequestID  string
	SSE        sse.Reader
	Body       io.ReadCloser

	cancel func()
}

// Close releases the connection.
func (r *StreamResponse) Close() error {
	var err error
	switch {
	case r.SSE != nil:
		err = r.SSE.Close()
	case r.Body != nil:
		err = r.Body.Close()
	}
	if r.cancel != nil {
		r.cancel()
	}
	return err
}
