package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kbukum/apicontract/contract"
	apperrors "github.com/kbukum/apicontract/errors"
)

// DecodeResult turns resp into T according to the result encoding declared
// on d. JSON results are unmarshalled; raw results fill a string or
// []byte; contracts without a result decode to the zero value.
func DecodeResult[T any](d contract.Descriptor, resp *Response) (T, error) {
	var out T
	if resp == nil {
		return out, apperrors.Internal(errors.New("no response to decode"))
	}
	if contract.IsStream(d) {
		return out, apperrors.InvalidInput("result", "stream results are read from a StreamResponse")
	}

	switch d.ResultEncoding() {
	case contract.EncodingJSON:
		if len(resp.Body) == 0 {
			return out, nil
		}
		if err := json.Unmarshal(resp.Body, &out); err != nil {
			return out, apperrors.InvalidFormat("result", "JSON").WithCause(err)
		}
	case contract.EncodingRaw:
		switch p := any(&out).(type) {
		case *string:
			*p = string(resp.Body)
		case *[]byte:
			*p = resp.Body
		default:
			return out, apperrors.InvalidInput("result", fmt.Sprintf("raw result cannot decode into %T", out))
		}
	}
	return out, nil
}

// Call invokes fn and decodes the response per d. HTTP errors are returned
// without decoding.
func Call[T any](ctx context.Context, d contract.Descriptor, fn contract.Callable[*Response], args contract.Args) (T, error) {
	resp, err := fn(ctx, args)
	if err != nil {
		var zero T
		return zero, err
	}
	return DecodeResult[T](d, resp)
}
