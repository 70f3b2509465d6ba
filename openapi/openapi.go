package openapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3gen"
	"gopkg.in/yaml.v3"

	"github.com/kbukum/apicontract/contract"
	apperrors "github.com/kbukum/apicontract/errors"
)

// Version is the OpenAPI version of generated documents.
const Version = "3.0.3"

// Format selects the serialization of Encode.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Info describes the exported API.
type Info struct {
	Title       string
	Version     string
	Description string
	Servers     []string
	// QueryKey names the free-form query parameter of contracts whose query
	// parameters have no declared shape. Defaults to "params".
	QueryKey string
}

// Operation is a descriptor plus the metadata OpenAPI carries for it.
type Operation struct {
	ID         string
	Summary    string
	Tags       []string
	Descriptor contract.Descriptor
}

// Generate builds and validates an OpenAPI document for ops. Descriptors
// failing Descriptor.Validate are rejected.
func Generate(ctx context.Context, info Info, ops []Operation) (*openapi3.T, error) {
	if info.Title == "" {
		return nil, apperrors.MissingField("title")
	}
	if info.Version == "" {
		info.Version = "0.0.0"
	}
	if info.QueryKey == "" {
		info.QueryKey = contract.DefaultQueryParameterKey
	}

	doc := &openapi3.T{
		OpenAPI: Version,
		Info: &openapi3.Info{
			Title:       info.Title,
			Version:     info.Version,
			Description: info.Description,
		},
		Paths: openapi3.Paths{},
	}
	for _, s := range info.Servers {
		doc.Servers = append(doc.Servers, &openapi3.Server{URL: s})
	}

	g := &generator{
		gen:        openapi3gen.NewGenerator(openapi3gen.UseAllExportedFields()),
		queryKey:   info.QueryKey,
		components: openapi3.Schemas{},
	}
	errSchema, err := g.schema(reflect.TypeOf(apperrors.ErrorResponse{}))
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	g.errorSchema = errSchema

	seen := make(map[string]string, len(ops))
	for _, op := range ops {
		d := op.Descriptor
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("openapi: %s: %w", d, err)
		}
		id := op.ID
		if id == "" {
			id = OperationID(d)
		}
		if prev, ok := seen[id]; ok {
			return nil, apperrors.InvalidInput("operation_id",
				fmt.Sprintf("%q is used by %s and %s", id, prev, d))
		}
		seen[id] = d.String()

		operation, err := g.operation(id, op)
		if err != nil {
			return nil, fmt.Errorf("openapi: %s: %w", d, err)
		}
		path := Path(d.Path)
		item := doc.Paths[path]
		if item == nil {
			item = &openapi3.PathItem{}
			doc.Paths[path] = item
		}
		item.SetOperation(d.Method.HTTP(), operation)
	}

	if len(g.components) > 0 {
		doc.Components = &openapi3.Components{Schemas: g.components}
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, apperrors.Validation("generated OpenAPI document is invalid").WithCause(err)
	}
	return doc, nil
}

// Path converts ":name" placeholders to "{name}".
func Path(template string) string {
	return contract.RewritePlaceholders(template, func(name string) string {
		return "{" + name + "}"
	})
}

// OperationID derives an identifier from method and path, e.g.
// "get_users_id" for GET /users/:id.
func OperationID(d contract.Descriptor) string {
	var sb strings.Builder
	sb.WriteString(string(d.Method))
	for _, r := range d.Path {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '/' || r == '-' || r == '.' || r == '_':
			if !strings.HasSuffix(sb.String(), "_") {
				sb.WriteByte('_')
			}
		}
	}
	return strings.TrimSuffix(sb.String(), "_")
}

// Encode serializes doc as JSON or YAML.
func Encode(doc *openapi3.T, format Format) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatJSON, "":
		return append(data, '\n'), nil
	case FormatYAML:
		// JSON is YAML; the node keeps the key order of the JSON encoding.
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return nil, err
		}
		blockStyle(&node)
		return yaml.Marshal(&node)
	default:
		return nil, apperrors.InvalidInput("format", fmt.Sprintf("unknown format %q", format))
	}
}

func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

type generator struct {
	gen         *openapi3gen.Generator
	queryKey    string
	errorSchema *openapi3.Schema
	// components receives the recursive types, the only ones not inlined.
	components openapi3.Schemas
}

const componentPrefix = "#/components/schemas/"

// schema inlines the schema of t. Recursive types are referenced under
// components; those references also carry the resolved value so the
// document validates before it is serialized.
func (g *generator) schema(t reflect.Type) (*openapi3.Schema, error) {
	if t.Kind() == reflect.Interface {
		return openapi3.NewSchema(), nil
	}
	ref, err := g.gen.NewSchemaRefForValue(reflect.Zero(t).Interface(), g.components)
	if err != nil {
		return nil, err
	}
	for r := range g.gen.SchemaRefs {
		if name, ok := strings.CutPrefix(r.Ref, componentPrefix); ok && r.Value == nil {
			if c := g.components[name]; c != nil {
				r.Value = c.Value
			}
		}
	}
	if ref.Value == nil {
		return nil, fmt.Errorf("no schema for %s", t)
	}
	return ref.Value, nil
}

// shapeSchema returns the schema of shape's type, or fallback when the shape
// has none.
func (g *generator) shapeSchema(shape *contract.Shape, fallback *openapi3.Schema) (*openapi3.Schema, error) {
	if shape == nil || shape.Type == nil {
		return fallback, nil
	}
	return g.schema(shape.Type)
}

func (g *generator) operation(id string, op Operation) (*openapi3.Operation, error) {
	d := op.Descriptor
	out := openapi3.NewOperation()
	out.OperationID = id
	out.Summary = op.Summary
	out.Tags = op.Tags
	out.Responses = openapi3.Responses{}

	if err := g.pathParameters(out, d); err != nil {
		return nil, err
	}
	if d.QueryParameters != nil {
		if err := g.queryParameters(out, d.QueryParameters); err != nil {
			return nil, err
		}
	}
	if d.Body != nil {
		s, err := g.shapeSchema(d.Body, openapi3.NewObjectSchema().WithAnyAdditionalProperties())
		if err != nil {
			return nil, err
		}
		body := openapi3.NewRequestBody().
			WithRequired(true).
			WithDescription(d.Body.Description).
			WithJSONSchema(s)
		out.RequestBody = &openapi3.RequestBodyRef{Value: body}
	}

	status, resp, err := g.response(d)
	if err != nil {
		return nil, err
	}
	out.Responses[status] = &openapi3.ResponseRef{Value: resp}
	out.Responses["default"] = &openapi3.ResponseRef{
		Value: openapi3.NewResponse().
			WithDescription("Error").
			WithJSONSchema(g.errorSchema),
	}
	return out, nil
}

// pathParameters adds one required parameter per placeholder, typed by the
// matching property of the path parameter shape when there is one.
func (g *generator) pathParameters(op *openapi3.Operation, d contract.Descriptor) error {
	var props openapi3.Schemas
	if d.PathParameters != nil {
		s, err := g.shapeSchema(d.PathParameters, nil)
		if err != nil {
			return err
		}
		if s != nil {
			props = s.Properties
		}
	}
	for _, name := range d.Placeholders() {
		schema := openapi3.NewStringSchema()
		if ref, ok := props[name]; ok && ref.Value != nil {
			schema = ref.Value
		}
		p := openapi3.NewPathParameter(name).WithSchema(schema)
		if d.PathParameters != nil {
			p.Description = d.PathParameters.Description
		}
		op.AddParameter(p)
	}
	return nil
}

// queryParameters adds one parameter per property of a struct shape, or a
// single form-exploded object parameter when the shape has no properties.
func (g *generator) queryParameters(op *openapi3.Operation, shape *contract.Shape) error {
	s, err := g.shapeSchema(shape, nil)
	if err != nil {
		return err
	}
	if s == nil || len(s.Properties) == 0 {
		explode := true
		p := openapi3.NewQueryParameter(g.queryKey).
			WithDescription(shape.Description).
			WithSchema(openapi3.NewObjectSchema().WithAnyAdditionalProperties())
		p.Style = openapi3.SerializationForm
		p.Explode = &explode
		op.AddParameter(p)
		return nil
	}

	required := make(map[string]bool, len(s.Required))
	for _, name := range s.Required {
		required[name] = true
	}
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p := openapi3.NewQueryParameter(name).
			WithSchema(s.Properties[name].Value).
			WithRequired(required[name])
		op.AddParameter(p)
	}
	return nil
}

// response maps the declared result onto a status code and content.
func (g *generator) response(d contract.Descriptor) (string, *openapi3.Response, error) {
	r := d.Result
	if r == nil {
		return "204", openapi3.NewResponse().WithDescription(http.StatusText(http.StatusNoContent)), nil
	}

	resp := openapi3.NewResponse().WithDescription(describe(r.Description, http.StatusText(http.StatusOK)))
	status := "200"
	switch {
	case r.Stream:
		resp.WithContent(openapi3.NewContentWithSchema(openapi3.NewStringSchema(), []string{"text/event-stream"}))
	case r.Encoding == contract.EncodingJSON:
		s, err := g.shapeSchema(&r.Shape, openapi3.NewObjectSchema().WithAnyAdditionalProperties())
		if err != nil {
			return "", nil, err
		}
		resp.WithContent(openapi3.NewContentWithSchema(s, []string{describe(r.ContentType, "application/json")}))
	case r.Encoding == contract.EncodingRaw:
		resp.WithContent(openapi3.NewContentWithSchema(openapi3.NewStringSchema(), []string{describe(r.ContentType, "text/plain")}))
	}
	return status, resp, nil
}

func describe(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
