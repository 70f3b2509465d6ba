package contract

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/kbukum/apicontract/validation"
)

// Shape describes the payload of one capability. A zero Shape is a bare
// marker: the capability is declared but its structure is unknown.
type Shape struct {
	// Type is the Go type of the payload, nil when undeclared.
	Type reflect.Type
	// Description is free text for tooling (OpenAPI summaries, docs).
	Description string
}

// Result describes the declared response of a contract.
type Result struct {
	Shape
	// Encoding refines how the response body is interpreted.
	Encoding ResultEncoding
	// ContentType is only meaningful alongside Encoding.
	ContentType string
	// Stream marks a result produced lazily (ReturnsStream).
	Stream bool
}

// Descriptor is the data record of a contract. It only grows through the
// builder chain: a capability, once declared, is never removed. Descriptors
// are values; copying one never shares mutable state.
type Descriptor struct {
	Method          Method
	Path            string
	PathParameters  *Shape
	QueryParameters *Shape
	Body            *Shape
	Result          *Result
}

// Key returns the identity of the contract. Two descriptors are the same
// contract iff method and path are identical.
func (d Descriptor) Key() string {
	return contractKey(d.Method, d.Path)
}

func contractKey(method Method, path string) string {
	return string(method) + path
}

// Has reports whether the descriptor declares every capability in c.
func (d Descriptor) Has(c Capability) bool {
	return d.Capabilities().Has(c)
}

// Capabilities returns the set of declared capabilities.
func (d Descriptor) Capabilities() Capability {
	var c Capability
	if d.PathParameters != nil {
		c |= CapPathParameters
	}
	if d.QueryParameters != nil {
		c |= CapQueryParameters
	}
	if d.Body != nil {
		c |= CapBody
	}
	if d.Result != nil {
		c |= CapResult
	}
	return c
}

// ResultEncoding returns the declared encoding, EncodingNone when no result
// or no encoding was declared.
func (d Descriptor) ResultEncoding() ResultEncoding {
	if d.Result == nil {
		return EncodingNone
	}
	return d.Result.Encoding
}

// IsJSONEncoded reports whether the contract returns a JSON encoded response.
func IsJSONEncoded(d Descriptor) bool {
	return d.ResultEncoding() == EncodingJSON
}

// IsRaw reports whether the contract returns a raw response.
func IsRaw(d Descriptor) bool {
	return d.ResultEncoding() == EncodingRaw
}

// IsStream reports whether the contract returns a stream.
func IsStream(d Descriptor) bool {
	return d.Result != nil && d.Result.Stream
}

// Placeholders returns the names of the ":name" tokens of the path template
// in order of appearance.
func (d Descriptor) Placeholders() []string {
	return placeholders(d.Path)
}

// Validate checks the descriptor against the method/capability rules the
// builder does not enforce: a body on GET or DELETE, query parameters on
// PATCH, POST or PUT, and path parameters without placeholders (or the
// reverse).
func (d Descriptor) Validate() error {
	v := validation.New()
	v.Custom(d.Method.Valid(), "method", fmt.Sprintf("unsupported method %q", d.Method))
	v.Required("path", d.Path)
	v.Custom(d.Path == "" || strings.HasPrefix(d.Path, "/"), "path", "must start with /")
	if d.Method.Valid() {
		v.Custom(d.Body == nil || d.Method.SupportsBody(), "body",
			fmt.Sprintf("not supported by %s", d.Method.HTTP()))
		v.Custom(d.QueryParameters == nil || d.Method.SupportsQuery(), "query_parameters",
			fmt.Sprintf("not supported by %s", d.Method.HTTP()))
	}
	names := d.Placeholders()
	v.Custom(d.PathParameters != nil || len(names) == 0, "path_parameters",
		fmt.Sprintf("path declares %s but no path parameters", strings.Join(names, ", ")))
	v.Custom(d.PathParameters == nil || len(names) > 0, "path_parameters",
		"declared but the path has no placeholders")
	return v.Err()
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s %s [%s]", d.Method.HTTP(), d.Path, d.Capabilities())
}

// placeholders scans a path template for ":name" tokens. A token starts
// right after a '/' and runs until the next character that cannot be part
// of a name.
func placeholders(path string) []string {
	var names []string
	for i := 0; i < len(path); i++ {
		if path[i] != ':' || (i > 0 && path[i-1] != '/') {
			continue
		}
		j := i + 1
		for j < len(path) && isNameByte(path[j]) {
			j++
		}
		if j > i+1 {
			names = append(names, path[i+1:j])
		}
		i = j - 1
	}
	return names
}

func isNameByte(b byte) bool {
	return b == '_' ||
		('a' <= b && b <= 'z') ||
		('A' <= b && b <= 'Z') ||
		('0' <= b && b <= '9')
}
