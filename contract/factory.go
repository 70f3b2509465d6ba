package contract

import (
	"context"
	"net/url"

	"github.com/kbukum/apicontract/logger"
)

// Args bundles the inputs of one call. A field is only read when the
// contract declares the matching capability; Options are always read.
type Args struct {
	// PathParameters fill the ":name" placeholders of the path.
	PathParameters map[string]string
	// QueryParameters are written into the options under the configured
	// query parameter key.
	QueryParameters url.Values
	// Body is forwarded untouched to PATCH, POST and PUT calls.
	Body any
	// Options are merged over factory defaults and create-time options.
	Options Options
	// BaseURL overrides every other base URL for this call.
	BaseURL string
}

// Callable performs one HTTP client call per invocation and returns the
// client's result unchanged.
type Callable[R any] func(ctx context.Context, args Args) (R, error)

// FactoryOption configures a Factory.
type FactoryOption func(*factoryOptions)

type factoryOptions struct {
	log *logger.Logger
}

// WithLogger sets the logger used for dispatch events.
func WithLogger(l *logger.Logger) FactoryOption {
	return func(o *factoryOptions) { o.log = l }
}

// CreateOption configures a single Create call.
type CreateOption func(*createOptions)

type createOptions struct {
	requestOptions Options
	baseURL        string
}

// WithRequestOptions sets options merged over the factory defaults for
// every call of the created function.
func WithRequestOptions(opts Options) CreateOption {
	return func(o *createOptions) { o.requestOptions = opts.Clone() }
}

// WithBaseURL sets the base URL for every call of the created function.
func WithBaseURL(baseURL string) CreateOption {
	return func(o *createOptions) { o.baseURL = baseURL }
}

// Factory turns descriptors into callables bound to one HTTP client. The
// client is shared, not owned: the caller controls its lifetime. A Factory
// is immutable after construction and safe for concurrent use.
type Factory[R any] struct {
	client HTTPClient[R]
	cfg    Config
	log    *logger.Logger
}

// NewFactory creates a Factory for client.
func NewFactory[R any](client HTTPClient[R], cfg Config, opts ...FactoryOption) (*Factory[R], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.DefaultOptions = cfg.DefaultOptions.Clone()

	var fo factoryOptions
	for _, opt := range opts {
		opt(&fo)
	}
	if fo.log == nil {
		fo.log = logger.Get("contract")
	}

	return &Factory[R]{client: client, cfg: cfg, log: fo.log}, nil
}

// Config returns the factory configuration.
func (f *Factory[R]) Config() Config {
	return f.cfg
}

// Create returns a callable for d.
func (f *Factory[R]) Create(d Descriptor, opts ...CreateOption) Callable[R] {
	var co createOptions
	for _, opt := range opts {
		opt(&co)
	}
	return func(ctx context.Context, args Args) (R, error) {
		return f.invoke(ctx, d, co, args)
	}
}

// extracted holds the arguments a contract actually consumes.
type extracted struct {
	pathParameters  map[string]string
	queryParameters url.Values
	body            any
	options         Options
}

func (f *Factory[R]) extract(d Descriptor, args Args) extracted {
	var e extracted
	if d.PathParameters != nil {
		e.pathParameters = args.PathParameters
	} else if len(args.PathParameters) > 0 {
		f.log.Debug("ignoring undeclared path parameters", logger.Fields("contract", d.Key()))
	}
	if d.QueryParameters != nil {
		e.queryParameters = args.QueryParameters
	} else if len(args.QueryParameters) > 0 {
		f.log.Debug("ignoring undeclared query parameters", logger.Fields("contract", d.Key()))
	}
	if d.Body != nil {
		e.body = args.Body
	} else if args.Body != nil {
		f.log.Debug("ignoring undeclared request body", logger.Fields("contract", d.Key()))
	}
	e.options = args.Options
	if e.options == nil {
		e.options = Options{}
	}
	return e
}

func (f *Factory[R]) invoke(ctx context.Context, d Descriptor, co createOptions, args Args) (R, error) {
	var zero R

	e := f.extract(d, args)

	if f.cfg.StrictPathParameters {
		if name, missing := unresolved(d.Path, e.pathParameters); missing {
			return zero, &MissingPathParameterError{Path: d.Path, Name: name}
		}
	}

	target := firstNonEmpty(args.BaseURL, co.baseURL, f.cfg.BaseURL) + BuildPath(d.Path, e.pathParameters)

	options := mergeOptions(f.cfg.DefaultOptions, co.requestOptions, e.options)
	if d.QueryParameters != nil {
		options[f.cfg.QueryParameterKey] = e.queryParameters
	}

	f.log.Debug("dispatching contract call", logger.Fields("method", d.Method.HTTP(), "url", target))

	switch {
	case d.Method.SupportsBody():
		switch d.Method {
		case MethodPatch:
			return f.client.Patch(ctx, target, e.body, options)
		case MethodPost:
			return f.client.Post(ctx, target, e.body, options)
		default:
			return f.client.Put(ctx, target, e.body, options)
		}
	case d.Method.SupportsQuery():
		if e.body != nil {
			f.log.Debug("request body is not forwarded", logger.Fields("method", d.Method.HTTP(), "contract", d.Key()))
		}
		if d.Method == MethodGet {
			return f.client.Get(ctx, target, options)
		}
		return f.client.Delete(ctx, target, options)
	default:
		return zero, &UnsupportedMethodError{Method: d.Method}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
