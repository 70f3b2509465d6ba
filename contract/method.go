package contract

import (
	"fmt"
	"strings"
)

// Method is the HTTP method of a contract.
type Method string

const (
	// MethodGet reads a resource. Supports query parameters.
	MethodGet Method = "get"
	// MethodDelete removes a resource. Supports query parameters.
	MethodDelete Method = "delete"
	// MethodPatch partially updates a resource. Carries a request body.
	MethodPatch Method = "patch"
	// MethodPost creates a resource. Carries a request body.
	MethodPost Method = "post"
	// MethodPut replaces a resource. Carries a request body.
	MethodPut Method = "put"
)

// Methods lists every supported method in declaration order.
var Methods = []Method{MethodGet, MethodDelete, MethodPatch, MethodPost, MethodPut}

// ParseMethod converts a method name in any case into a Method.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return m, &UnsupportedMethodError{Method: m}
	}
	return m, nil
}

// Valid reports whether m is one of the supported methods.
func (m Method) Valid() bool {
	return m.SupportsQuery() || m.SupportsBody()
}

// SupportsQuery reports whether m is a query-bearing method (GET, DELETE).
func (m Method) SupportsQuery() bool {
	return m == MethodGet || m == MethodDelete
}

// SupportsBody reports whether m is a body-bearing method (PATCH, POST, PUT).
func (m Method) SupportsBody() bool {
	return m == MethodPatch || m == MethodPost || m == MethodPut
}

// HTTP returns the upper-case verb as used by net/http.
func (m Method) HTTP() string {
	return strings.ToUpper(string(m))
}

func (m Method) String() string {
	return string(m)
}

// ResultEncoding refines how a declared result is interpreted.
// The zero value means unspecified (raw pass-through).
type ResultEncoding string

const (
	// EncodingNone leaves decoding to the client.
	EncodingNone ResultEncoding = ""
	// EncodingJSON decodes the body as JSON.
	EncodingJSON ResultEncoding = "json"
	// EncodingRaw returns the body bytes untouched.
	EncodingRaw ResultEncoding = "raw"
)

// ParseResultEncoding converts a name into a ResultEncoding.
func ParseResultEncoding(s string) (ResultEncoding, error) {
	switch e := ResultEncoding(strings.ToLower(strings.TrimSpace(s))); e {
	case EncodingNone, EncodingJSON, EncodingRaw:
		return e, nil
	default:
		return EncodingNone, fmt.Errorf("contract: unknown result encoding %q", s)
	}
}

// Capability is a bit set of the optional facets a contract declares.
type Capability uint8

const (
	// CapPathParameters marks a path with {name} placeholders.
	CapPathParameters Capability = 1 << iota
	// CapQueryParameters marks a contract that accepts query parameters.
	CapQueryParameters
	// CapBody marks a contract that sends a request body.
	CapBody
	// CapResult marks a contract with a declared result.
	CapResult
)

// Has reports whether every bit of other is set in c.
func (c Capability) Has(other Capability) bool {
	return c&other == other
}

func (c Capability) String() string {
	if c == 0 {
		return "none"
	}
	var parts []string
	if c.Has(CapPathParameters) {
		parts = append(parts, "pathParameters")
	}
	if c.Has(CapQueryParameters) {
		parts = append(parts, "queryParameters")
	}
	if c.Has(CapBody) {
		parts = append(parts, "body")
	}
	if c.Has(CapResult) {
		parts = append(parts, "result")
	}
	return strings.Join(parts, "|")
}
