package contract

import "context"

// Options are per-request settings handed to the HTTP client. They are
// merged shallowly: a later layer replaces a key of an earlier one as a
// whole.
type Options map[string]any

// Clone returns a shallow copy of o. A nil Options clones to an empty map.
func (o Options) Clone() Options {
	c := make(Options, len(o))
	for k, v := range o {
		c[k] = v
	}
	return c
}

// mergeOptions shallow-merges layers in increasing priority.
func mergeOptions(layers ...Options) Options {
	n := 0
	for _, l := range layers {
		n += len(l)
	}
	merged := make(Options, n)
	for _, l := range layers {
		for k, v := range l {
			merged[k] = v
		}
	}
	return merged
}

// HTTPClient is the capability the factory dispatches to. R is whatever the
// implementation returns for a request (a response value, a stream, a
// future); the factory passes it through untouched.
type HTTPClient[R any] interface {
	Get(ctx context.Context, url string, opts Options) (R, error)
	Delete(ctx context.Context, url string, opts Options) (R, error)
	Patch(ctx context.Context, url string, body any, opts Options) (R, error)
	Post(ctx context.Context, url string, body any, opts Options) (R, error)
	Put(ctx context.Context, url string, body any, opts Options) (R, error)
}

// HTTPClientFuncs adapts plain functions to HTTPClient. A nil function
// fails with *UnsupportedMethodError.
type HTTPClientFuncs[R any] struct {
	GetFunc    func(ctx context.Context, url string, opts Options) (R, error)
	DeleteFunc func(ctx context.Context, url string, opts Options) (R, error)
	PatchFunc  func(ctx context.Context, url string, body any, opts Options) (R, error)
	PostFunc   func(ctx context.Context, url string, body any, opts Options) (R, error)
	PutFunc    func(ctx context.Context, url string, body any, opts Options) (R, error)
}

var _ HTTPClient[any] = HTTPClientFuncs[any]{}

// Get calls GetFunc.
func (f HTTPClientFuncs[R]) Get(ctx context.Context, url string, opts Options) (R, error) {
	if f.GetFunc == nil {
		var zero R
		return zero, &UnsupportedMethodError{Method: MethodGet}
	}
	return f.GetFunc(ctx, url, opts)
}

// Delete calls DeleteFunc.
func (f HTTPClientFuncs[R]) Delete(ctx context.Context, url string, opts Options) (R, error) {
	if f.DeleteFunc == nil {
		var zero R
		return zero, &UnsupportedMethodError{Method: MethodDelete}
	}
	return f.DeleteFunc(ctx, url, opts)
}

// Patch calls PatchFunc.
func (f HTTPClientFuncs[R]) Patch(ctx context.Context, url string, body any, opts Options) (R, error) {
	if f.PatchFunc == nil {
		var zero R
		return zero, &UnsupportedMethodError{Method: MethodPatch}
	}
	return f.PatchFunc(ctx, url, body, opts)
}

// Post calls PostFunc.
func (f HTTPClientFuncs[R]) Post(ctx context.Context, url string, body any, opts Options) (R, error) {
	if f.PostFunc == nil {
		var zero R
		return zero, &UnsupportedMethodError{Method: MethodPost}
	}
	return f.PostFunc(ctx, url, body, opts)
}

// Put calls PutFunc.
func (f HTTPClientFuncs[R]) Put(ctx context.Context, url string, body any, opts Options) (R, error) {
	if f.PutFunc == nil {
		var zero R
		return zero, &UnsupportedMethodError{Method: MethodPut}
	}
	return f.PutFunc(ctx, url, body, opts)
}
