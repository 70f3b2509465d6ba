package openapi

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/kbukum/apicontract/contract"
	apperrors "github.com/kbukum/apicontract/errors"
)

type user struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Admin bool   `json:"admin"`
}

type userKey struct {
	ID int64 `json:"id"`
}

type listQuery struct {
	Page  int    `json:"page"`
	Query string `json:"q"`
}

func operations(t *testing.T) []Operation {
	t.Helper()
	api := contract.NewAPI(contract.NewRegistry())
	get := api.MustGet("/users/:id").
		PathParameters(contract.Typed[userKey](), contract.Description("user id")).
		ReturnsJSON(contract.Typed[user]())
	list := api.MustGet("/users").
		QueryParameters(contract.Typed[listQuery]()).
		ReturnsJSON(contract.Typed[[]user]())
	search := api.MustDelete("/sessions").
		QueryParameters(contract.Description("filters")).
		Build()
	create := api.MustPost("/users").
		RequestBody(contract.Typed[user](), contract.Description("new user")).
		ReturnsJSON(contract.ContentType("application/vnd.users+json"))
	avatar := api.MustGet("/users/:id/avatar").
		PathParameters().
		ReturnsRaw(contract.ContentType("image/png"))
	events := api.MustGet("/events").ReturnsStream(contract.Description("change feed"))

	return []Operation{
		{ID: "getUser", Summary: "Fetch a user", Tags: []string{"users"}, Descriptor: get},
		{Descriptor: list},
		{Descriptor: search},
		{ID: "createUser", Descriptor: create},
		{Descriptor: avatar},
		{Descriptor: events},
	}
}

func generate(t *testing.T) *openapi3.T {
	t.Helper()
	doc, err := Generate(context.Background(), Info{
		Title:   "users",
		Version: "1.0.0",
		Servers: []string{"https://api.example.com"},
	}, operations(t))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return doc
}

func TestGenerate_Paths(t *testing.T) {
	doc := generate(t)

	for _, p := range []string{"/users/{id}", "/users", "/sessions", "/users/{id}/avatar", "/events"} {
		if doc.Paths[p] == nil {
			t.Errorf("missing path %s", p)
		}
	}
	if doc.Paths["/users/:id"] != nil {
		t.Error("colon placeholders must be converted")
	}
	if doc.Paths["/users"].Get == nil || doc.Paths["/users"].Post == nil {
		t.Error("GET and POST /users should share a path item")
	}
	if len(doc.Servers) != 1 || doc.Servers[0].URL != "https://api.example.com" {
		t.Errorf("servers = %v", doc.Servers)
	}
}

func TestGenerate_Parameters(t *testing.T) {
	doc := generate(t)

	get := doc.Paths["/users/{id}"].Get
	if get.OperationID != "getUser" || get.Summary != "Fetch a user" || len(get.Tags) != 1 {
		t.Errorf("metadata not carried: %+v", get)
	}
	if len(get.Parameters) != 1 {
		t.Fatalf("expected one path parameter, got %d", len(get.Parameters))
	}
	id := get.Parameters[0].Value
	if id.In != openapi3.ParameterInPath || id.Name != "id" || !id.Required || id.Description != "user id" {
		t.Errorf("path parameter = %+v", id)
	}
	if id.Schema.Value.Type != "integer" {
		t.Errorf("id should take its type from the shape, got %q", id.Schema.Value.Type)
	}

	avatar := doc.Paths["/users/{id}/avatar"].Get
	if typ := avatar.Parameters[0].Value.Schema.Value.Type; typ != "string" {
		t.Errorf("untyped path parameter should be a string, got %q", typ)
	}

	list := doc.Paths["/users"].Get
	var names []string
	for _, p := range list.Parameters {
		if p.Value.In != openapi3.ParameterInQuery {
			t.Errorf("%s should be a query parameter", p.Value.Name)
		}
		names = append(names, p.Value.Name)
	}
	if strings.Join(names, ",") != "page,q" {
		t.Errorf("query parameters = %v", names)
	}

	del := doc.Paths["/sessions"].Delete
	if len(del.Parameters) != 1 {
		t.Fatalf("expected one free-form parameter, got %d", len(del.Parameters))
	}
	free := del.Parameters[0].Value
	if free.Name != "params" || free.Style != openapi3.SerializationForm || free.Explode == nil || !*free.Explode {
		t.Errorf("free-form parameter = %+v", free)
	}
	if free.Description != "filters" {
		t.Errorf("description = %q", free.Description)
	}
}

func TestGenerate_BodiesAndResponses(t *testing.T) {
	doc := generate(t)

	create := doc.Paths["/users"].Post
	if create.RequestBody == nil {
		t.Fatal("missing request body")
	}
	body := create.RequestBody.Value
	if !body.Required || body.Description != "new user" {
		t.Errorf("request body = %+v", body)
	}
	schema := body.Content.Get("application/json").Schema.Value
	for _, prop := range []string{"id", "name", "admin"} {
		if schema.Properties[prop] == nil {
			t.Errorf("body schema missing %s", prop)
		}
	}
	if create.Responses["200"].Value.Content.Get("application/vnd.users+json") == nil {
		t.Error("JSON response should use the declared content type")
	}

	tests := []struct {
		name      string
		op        *openapi3.Operation
		status    string
		mediaType string
	}{
		{"json", doc.Paths["/users/{id}"].Get, "200", "application/json"},
		{"raw", doc.Paths["/users/{id}/avatar"].Get, "200", "image/png"},
		{"stream", doc.Paths["/events"].Get, "200", "text/event-stream"},
		{"no result", doc.Paths["/sessions"].Delete, "204", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := tc.op.Responses[tc.status]
			if resp == nil {
				t.Fatalf("missing %s response", tc.status)
			}
			if tc.mediaType == "" {
				if len(resp.Value.Content) != 0 {
					t.Errorf("expected no content, got %v", resp.Value.Content)
				}
			} else if resp.Value.Content.Get(tc.mediaType) == nil {
				t.Errorf("missing %s content", tc.mediaType)
			}
			def := tc.op.Responses["default"]
			if def == nil || def.Value.Content.Get("application/json").Schema.Value.Properties["error"] == nil {
				t.Error("default response should carry the error envelope")
			}
		})
	}

	list := doc.Paths["/users"].Get.Responses["200"].Value.Content.Get("application/json").Schema.Value
	if list.Type != "array" {
		t.Errorf("slice result should be an array, got %q", list.Type)
	}
	if d := *doc.Paths["/events"].Get.Responses["200"].Value.Description; d != "change feed" {
		t.Errorf("stream description = %q", d)
	}
}

func TestGenerate_Rejects(t *testing.T) {
	api := contract.NewAPI(contract.NewRegistry())
	bodyOnGet := api.MustGet("/a").RequestBody().Build()
	ok := api.MustGet("/b").Build()
	ok2 := api.MustGet("/c").Build()

	if _, err := Generate(context.Background(), Info{Title: "x"}, []Operation{{Descriptor: bodyOnGet}}); err == nil {
		t.Error("expected invalid descriptor to be rejected")
	}
	_, err := Generate(context.Background(), Info{Title: "x"}, []Operation{
		{ID: "same", Descriptor: ok},
		{ID: "same", Descriptor: ok2},
	})
	if !apperrors.IsAppError(err) {
		t.Errorf("expected duplicate operation id error, got %v", err)
	}
	if _, err := Generate(context.Background(), Info{}, nil); !apperrors.IsAppError(err) {
		t.Errorf("expected missing title error, got %v", err)
	}
}

func TestOperationID(t *testing.T) {
	tests := []struct {
		method contract.Method
		path   string
		want   string
	}{
		{contract.MethodGet, "/users/:id", "get_users_id"},
		{contract.MethodPost, "/users", "post_users"},
		{contract.MethodDelete, "/a-b/:c.d/", "delete_a_b_c_d"},
	}
	for _, tc := range tests {
		d := contract.Descriptor{Method: tc.method, Path: tc.path}
		if got := OperationID(d); got != tc.want {
			t.Errorf("OperationID(%s %s) = %q, want %q", tc.method, tc.path, got, tc.want)
		}
	}
}

func TestEncode(t *testing.T) {
	doc := generate(t)

	data, err := Encode(doc, FormatJSON)
	if err != nil {
		t.Fatalf("Encode json: %v", err)
	}
	var generic map[string]any
	if err := json.Unmarshal(data, &generic); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if generic["openapi"] != Version {
		t.Errorf("openapi = %v", generic["openapi"])
	}
	if strings.Contains(string(data), `"$ref"`) {
		t.Errorf("non-recursive types must be inlined:\n%s", data)
	}
	fromJSON, err := openapi3.NewLoader().LoadFromData(data)
	if err != nil {
		t.Fatalf("reload JSON: %v", err)
	}
	if err := fromJSON.Validate(context.Background()); err != nil {
		t.Fatalf("reloaded JSON document invalid: %v", err)
	}
	errBody := fromJSON.Paths["/users"].Get.Responses["default"].Value.Content.Get("application/json").Schema.Value
	if errBody.Properties["error"] == nil || errBody.Properties["error"].Value.Properties["code"] == nil {
		t.Errorf("error response must describe the error body, got %+v", errBody.Properties)
	}

	data, err = Encode(doc, FormatYAML)
	if err != nil {
		t.Fatalf("Encode yaml: %v", err)
	}
	if strings.Contains(string(data), "{\"") {
		t.Error("YAML output should use block style")
	}
	loaded, err := openapi3.NewLoader().LoadFromData(data)
	if err != nil {
		t.Fatalf("reload YAML: %v", err)
	}
	if err := loaded.Validate(context.Background()); err != nil {
		t.Fatalf("reloaded document invalid: %v", err)
	}
	if loaded.Paths["/sessions"].Delete.Responses["204"] == nil {
		t.Error("status codes must survive as strings")
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		t.Fatalf("yaml: %v", err)
	}

	if _, err := Encode(doc, Format("toml")); !apperrors.IsAppError(err) {
		t.Errorf("expected unknown format error, got %v", err)
	}
}

type category struct {
	Name     string     `json:"name"`
	Children []category `json:"children"`
}

func TestGenerate_RecursiveShape(t *testing.T) {
	api := contract.NewAPI(contract.NewRegistry())
	op := Operation{Descriptor: api.MustPost("/categories").
		RequestBody(contract.Typed[category]()).
		ReturnsJSON(contract.Typed[category]())}

	doc, err := Generate(context.Background(), Info{Title: "catalog"}, []Operation{op})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if doc.Components == nil || doc.Components.Schemas["category"] == nil {
		t.Fatalf("expected category under components, got %+v", doc.Components)
	}

	data, err := Encode(doc, FormatJSON)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(string(data), `"$ref": "#/components/schemas/category"`) {
		t.Errorf("expected a component reference:\n%s", data)
	}
	loaded, err := openapi3.NewLoader().LoadFromData(data)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if err := loaded.Validate(context.Background()); err != nil {
		t.Fatalf("reloaded document invalid: %v", err)
	}
}
