package manifest

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kbukum/apicontract/contract"
	apperrors "github.com/kbukum/apicontract/errors"
	"github.com/kbukum/apicontract/validation"
)

// Manifest is a YAML file declaring the contracts of one service.
type Manifest struct {
	Name      string           `yaml:"name" validate:"required"`
	Version   string           `yaml:"version"`
	BaseURL   string           `yaml:"base_url" validate:"omitempty,url"`
	Contracts map[string]Entry `yaml:"contracts" validate:"required,min=1,dive"`
}

// Entry declares one contract.
type Entry struct {
	Method          string   `yaml:"method" validate:"required"`
	Path            string   `yaml:"path" validate:"required,urlpath"`
	Summary         string   `yaml:"summary"`
	Tags            []string `yaml:"tags"`
	PathParameters  Facet    `yaml:"path_parameters"`
	QueryParameters Facet    `yaml:"query_parameters"`
	Body            Facet    `yaml:"body"`
	Result          *Result  `yaml:"result"`
}

// Facet declares an optional capability. In YAML it is a boolean or a
// mapping with a description, which implies true.
type Facet struct {
	Declared    bool
	Description string
}

// Result declares the response. The scalars "json", "raw", "stream" and
// "none" are shorthands.
type Result struct {
	Encoding    string `yaml:"encoding"`
	ContentType string `yaml:"content_type"`
	Stream      bool   `yaml:"stream"`
	Description string `yaml:"description"`
}

// Contract is a declared manifest entry.
type Contract struct {
	Name       string
	Summary    string
	Tags       []string
	Descriptor contract.Descriptor
}

func (f *Facet) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var declared bool
		if err := node.Decode(&declared); err != nil {
			return fmt.Errorf("line %d: capability must be a boolean or a mapping", node.Line)
		}
		*f = Facet{Declared: declared}
		return nil
	case yaml.MappingNode:
		var body struct {
			Description string `yaml:"description"`
		}
		if err := decodeStrict(node, &body); err != nil {
			return err
		}
		*f = Facet{Declared: true, Description: body.Description}
		return nil
	default:
		return fmt.Errorf("line %d: capability must be a boolean or a mapping", node.Line)
	}
}

func (f Facet) MarshalYAML() (any, error) {
	if f.Description == "" {
		return f.Declared, nil
	}
	return map[string]string{"description": f.Description}, nil
}

func (r *Result) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		switch node.Value {
		case "stream":
			*r = Result{Stream: true}
		case "none", "":
			*r = Result{}
		default:
			*r = Result{Encoding: node.Value}
		}
		return nil
	}
	type plain Result
	return decodeStrict(node, (*plain)(r))
}

// decodeStrict re-encodes node so nested mappings also reject unknown keys.
func decodeStrict(node *yaml.Node, out any) error {
	raw, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	return nil
}

// Parse decodes and validates a manifest. Unknown keys are rejected.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, apperrors.InvalidFormat("manifest", "a YAML contract manifest").WithCause(err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NotFound("manifest", path).WithCause(err)
	}
	return Parse(data)
}

// Validate checks the struct tags, then the method, result and capability
// rules of every entry.
func (m *Manifest) Validate() error {
	if err := validation.Validate(m); err != nil {
		return err
	}

	v := validation.New()
	for _, name := range m.Names() {
		v.Pattern("contracts."+name, name, namePattern)
		v.Merge("contracts."+name+".", m.Contracts[name].validate())
	}
	return v.Err()
}

// namePattern keeps contract names usable as OpenAPI operation ids and
// CLI arguments.
const namePattern = `^[A-Za-z_][A-Za-z0-9_.-]*$`

var encodings = []string{string(contract.EncodingJSON), string(contract.EncodingRaw)}

func (e Entry) validate() *validation.Validator {
	v := validation.New()
	if e.Result != nil {
		v.OneOf("result.encoding", strings.ToLower(strings.TrimSpace(e.Result.Encoding)), encodings)
		v.Custom(!e.Result.Stream || e.Result.Encoding == "", "result", "a stream has no encoding")
	}
	d, err := e.descriptor()
	if err != nil {
		v.AddError("method", err.Error())
		return v
	}
	if err := d.Validate(); err != nil {
		var fields []validation.FieldError
		if app, ok := apperrors.AsAppError(err); ok {
			fields, _ = app.Details["fields"].([]validation.FieldError)
		}
		if len(fields) == 0 {
			v.AddError("", err.Error())
			return v
		}
		for _, f := range fields {
			v.AddError(f.Field, f.Message)
		}
	}
	return v
}

// Names returns the contract names sorted.
func (m *Manifest) Names() []string {
	names := make([]string, 0, len(m.Contracts))
	for name := range m.Contracts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Declare declares every entry on api in name order and stops at the first
// error. A method and path declared twice matches
// contract.ErrDuplicateContract.
func (m *Manifest) Declare(api *contract.API) ([]Contract, error) {
	out := make([]Contract, 0, len(m.Contracts))
	for _, name := range m.Names() {
		entry := m.Contracts[name]
		method, err := contract.ParseMethod(entry.Method)
		if err != nil {
			return out, fmt.Errorf("contract %s: %w", name, err)
		}
		b, err := api.Declare(method, entry.Path)
		if err != nil {
			return out, fmt.Errorf("contract %s: %w", name, err)
		}
		out = append(out, Contract{
			Name:       name,
			Summary:    entry.Summary,
			Tags:       entry.Tags,
			Descriptor: entry.build(b),
		})
	}
	return out, nil
}

// Find returns the contract called name.
func Find(contracts []Contract, name string) (Contract, bool) {
	for _, c := range contracts {
		if c.Name == name {
			return c, true
		}
	}
	return Contract{}, false
}

// descriptor builds the entry against a scratch registry.
func (e Entry) descriptor() (contract.Descriptor, error) {
	method, err := contract.ParseMethod(e.Method)
	if err != nil {
		return contract.Descriptor{}, err
	}
	b, err := contract.NewAPI(contract.NewRegistry()).Declare(method, e.Path)
	if err != nil {
		return contract.Descriptor{}, err
	}
	return e.build(b), nil
}

func (e Entry) build(b contract.Builder) contract.Descriptor {
	if e.PathParameters.Declared {
		b = b.PathParameters(facetOptions(e.PathParameters.Description)...)
	}
	if e.QueryParameters.Declared {
		b = b.QueryParameters(facetOptions(e.QueryParameters.Description)...)
	}
	if e.Body.Declared {
		b = b.RequestBody(facetOptions(e.Body.Description)...)
	}
	if e.Result == nil {
		return b.Build()
	}

	opts := facetOptions(e.Result.Description)
	if e.Result.ContentType != "" {
		opts = append(opts, contract.ContentType(e.Result.ContentType))
	}
	if e.Result.Stream {
		return b.ReturnsStream(opts...)
	}
	enc, _ := contract.ParseResultEncoding(e.Result.Encoding)
	switch enc {
	case contract.EncodingJSON:
		return b.ReturnsJSON(opts...)
	case contract.EncodingRaw:
		return b.ReturnsRaw(opts...)
	default:
		return b.Returns(opts...)
	}
}

func facetOptions(description string) []contract.FacetOption {
	if description == "" {
		return nil
	}
	return []contract.FacetOption{contract.Description(description)}
}
