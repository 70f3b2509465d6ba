package contract

import (
	"reflect"
)

// facet collects the settings of one builder step.
type facet struct {
	shape       Shape
	contentType string
}

// FacetOption refines a capability declared by a builder step.
type FacetOption func(*facet)

// Typed declares T as the Go type of a capability's payload.
func Typed[T any]() FacetOption {
	t := reflect.TypeOf((*T)(nil)).Elem()
	return func(f *facet) { f.shape.Type = t }
}

// ShapeOf declares the payload type from an example value.
func ShapeOf(v any) FacetOption {
	t := reflect.TypeOf(v)
	return func(f *facet) { f.shape.Type = t }
}

// Description attaches free text to a capability.
func Description(text string) FacetOption {
	return func(f *facet) { f.shape.Description = text }
}

// ContentType sets the response content type of a JSON or raw result.
// It is ignored by other builder steps.
func ContentType(ct string) FacetOption {
	return func(f *facet) { f.contentType = ct }
}

func applyFacet(opts []FacetOption) facet {
	var f facet
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// Builder extends a seed descriptor one capability at a time. Every method
// returns a new value; the receiver is never modified. Result methods and
// Build end the chain by returning a Descriptor, which has no builder
// methods, so a result cannot be declared twice.
type Builder struct {
	desc Descriptor
}

// QueryParameters declares query parameters.
func (b Builder) QueryParameters(opts ...FacetOption) Builder {
	f := applyFacet(opts)
	d := b.desc
	d.QueryParameters = &f.shape
	return Builder{desc: d}
}

// PathParameters declares path parameters.
func (b Builder) PathParameters(opts ...FacetOption) Builder {
	f := applyFacet(opts)
	d := b.desc
	d.PathParameters = &f.shape
	return Builder{desc: d}
}

// RequestBody declares a request body.
func (b Builder) RequestBody(opts ...FacetOption) Builder {
	f := applyFacet(opts)
	d := b.desc
	d.Body = &f.shape
	return Builder{desc: d}
}

// Returns declares a result without encoding.
func (b Builder) Returns(opts ...FacetOption) Descriptor {
	return b.withResult(EncodingNone, false, opts)
}

// ReturnsJSON declares a JSON encoded result.
func (b Builder) ReturnsJSON(opts ...FacetOption) Descriptor {
	return b.withResult(EncodingJSON, false, opts)
}

// ReturnsRaw declares a raw (string) result.
func (b Builder) ReturnsRaw(opts ...FacetOption) Descriptor {
	return b.withResult(EncodingRaw, false, opts)
}

// ReturnsStream declares a lazily produced result.
func (b Builder) ReturnsStream(opts ...FacetOption) Descriptor {
	return b.withResult(EncodingNone, true, opts)
}

// Build ends the chain without declaring a result.
func (b Builder) Build() Descriptor {
	return b.desc
}

// Peek returns the descriptor built so far without ending the chain.
func (b Builder) Peek() Descriptor {
	return b.desc
}

func (b Builder) withResult(enc ResultEncoding, stream bool, opts []FacetOption) Descriptor {
	f := applyFacet(opts)
	r := &Result{Shape: f.shape, Encoding: enc, Stream: stream}
	if enc != EncodingNone {
		r.ContentType = f.contentType
	}
	d := b.desc
	d.Result = r
	return d
}

// API is the only way to start a contract. Each entry point registers the
// method and path on the Registry before any capability is declared. Create
// it with NewAPI; an API without a registry fails with ErrNoRegistry.
type API struct {
	registry *Registry
}

// NewAPI binds contract declarations to reg.
func NewAPI(reg *Registry) *API {
	return &API{registry: reg}
}

// Registry returns the registry the API declares into.
func (a *API) Registry() *Registry {
	if a == nil {
		return nil
	}
	return a.registry
}

// Declare starts a contract for any supported method.
func (a *API) Declare(method Method, path string) (Builder, error) {
	if !method.Valid() {
		return Builder{}, &UnsupportedMethodError{Method: method}
	}
	if a == nil || a.registry == nil {
		return Builder{}, ErrNoRegistry
	}
	if err := a.registry.Define(method, path); err != nil {
		return Builder{}, err
	}
	return Builder{desc: Descriptor{Method: method, Path: path}}, nil
}

// Get starts a GET contract.
func (a *API) Get(path string) (Builder, error) { return a.Declare(MethodGet, path) }

// Delete starts a DELETE contract.
func (a *API) Delete(path string) (Builder, error) { return a.Declare(MethodDelete, path) }

// Patch starts a PATCH contract.
func (a *API) Patch(path string) (Builder, error) { return a.Declare(MethodPatch, path) }

// Post starts a POST contract.
func (a *API) Post(path string) (Builder, error) { return a.Declare(MethodPost, path) }

// Put starts a PUT contract.
func (a *API) Put(path string) (Builder, error) { return a.Declare(MethodPut, path) }

// MustGet is like Get but panics on a duplicate declaration.
func (a *API) MustGet(path string) Builder { return must(a.Get(path)) }

// MustDelete is like Delete but panics on a duplicate declaration.
func (a *API) MustDelete(path string) Builder { return must(a.Delete(path)) }

// MustPatch is like Patch but panics on a duplicate declaration.
func (a *API) MustPatch(path string) Builder { return must(a.Patch(path)) }

// MustPost is like Post but panics on a duplicate declaration.
func (a *API) MustPost(path string) Builder { return must(a.Post(path)) }

// MustPut is like Put but panics on a duplicate declaration.
func (a *API) MustPut(path string) Builder { return must(a.Put(path)) }

func must(b Builder, err error) Builder {
	if err != nil {
		panic(err)
	}
	return b
}
