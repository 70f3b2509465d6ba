package httpclient

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/kbukum/apicontract/contract"
)

// Extra contract.Options keys understood by the adapter besides the query
// and headers keys from Config.
const (
	// OptionAuth holds an *AuthConfig for one call.
	OptionAuth = "auth"
	// OptionTimeout holds a time.Duration or a duration string bounding
	// each attempt of one call.
	OptionTimeout = "timeout"
)

type callOptions struct {
	query   url.Values
	headers http.Header
	auth    *AuthConfig
	timeout time.Duration
}

func (a *Adapter) parseOptions(opts contract.Options) (callOptions, error) {
	co := callOptions{timeout: a.config.Timeout}

	q, err := queryValues(opts[a.config.QueryKey])
	if err != nil {
		return co, fmt.Errorf("option %q: %w", a.config.QueryKey, err)
	}
	co.query = q

	h, err := headerValues(opts[a.config.HeadersKey])
	if err != nil {
		return co, fmt.Errorf("option %q: %w", a.config.HeadersKey, err)
	}
	co.headers = h

	if v, ok := opts[OptionAuth]; ok && v != nil {
		auth, ok := v.(*AuthConfig)
		if !ok {
			return co, fmt.Errorf("option %q: unsupported type %T", OptionAuth, v)
		}
		co.auth = auth
	}

	switch t := opts[OptionTimeout].(type) {
	case nil:
	case time.Duration:
		co.timeout = t
	case string:
		d, err := time.ParseDuration(t)
		if err != nil {
			return co, fmt.Errorf("option %q: %w", OptionTimeout, err)
		}
		co.timeout = d
	default:
		return co, fmt.Errorf("option %q: unsupported type %T", OptionTimeout, t)
	}
	return co, nil
}

// queryValues accepts url.Values, map[string][]string, map[string]string
// and map[string]any. Nil values are dropped.
func queryValues(v any) (url.Values, error) {
	switch q := v.(type) {
	case nil:
		return nil, nil
	case url.Values:
		return q, nil
	case map[string][]string:
		return url.Values(q), nil
	case map[string]string:
		out := make(url.Values, len(q))
		for k, s := range q {
			out.Set(k, s)
		}
		return out, nil
	case map[string]any:
		out := make(url.Values, len(q))
		for k, item := range q {
			out[k] = stringValues(item)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported type %T", v)
	}
}

func headerValues(v any) (http.Header, error) {
	switch h := v.(type) {
	case nil:
		return nil, nil
	case http.Header:
		return h, nil
	case map[string][]string:
		out := make(http.Header, len(h))
		for k, vs := range h {
			for _, s := range vs {
				out.Add(k, s)
			}
		}
		return out, nil
	case map[string]string:
		out := make(http.Header, len(h))
		for k, s := range h {
			out.Set(k, s)
		}
		return out, nil
	case map[string]any:
		out := make(http.Header, len(h))
		for k, item := range h {
			for _, s := range stringValues(item) {
				out.Add(k, s)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported type %T", v)
	}
}

func stringValues(v any) []string {
	switch s := v.(type) {
	case nil:
		return nil
	case string:
		return []string{s}
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if item != nil {
				out = append(out, fmt.Sprint(item))
			}
		}
		return out
	default:
		return []string{fmt.Sprint(s)}
	}
}
