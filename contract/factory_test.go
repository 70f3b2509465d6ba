package contract

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/kbukum/apicontract/logger"
)

// recordedCall is what the recording client returns for every request.
type recordedCall struct {
	method  Method
	url     string
	body    any
	hasBody bool
	opts    Options
}

type recordingClient struct {
	calls []recordedCall
	err   error
}

func (c *recordingClient) record(m Method, url string, body any, hasBody bool, opts Options) (*recordedCall, error) {
	rc := recordedCall{method: m, url: url, body: body, hasBody: hasBody, opts: opts}
	c.calls = append(c.calls, rc)
	return &rc, c.err
}

func (c *recordingClient) Get(_ context.Context, url string, opts Options) (*recordedCall, error) {
	return c.record(MethodGet, url, nil, false, opts)
}

func (c *recordingClient) Delete(_ context.Context, url string, opts Options) (*recordedCall, error) {
	return c.record(MethodDelete, url, nil, false, opts)
}

func (c *recordingClient) Patch(_ context.Context, url string, body any, opts Options) (*recordedCall, error) {
	return c.record(MethodPatch, url, body, true, opts)
}

func (c *recordingClient) Post(_ context.Context, url string, body any, opts Options) (*recordedCall, error) {
	return c.record(MethodPost, url, body, true, opts)
}

func (c *recordingClient) Put(_ context.Context, url string, body any, opts Options) (*recordedCall, error) {
	return c.record(MethodPut, url, body, true, opts)
}

func newTestFactory(t *testing.T, cfg Config) (*Factory[*recordedCall], *recordingClient) {
	t.Helper()
	client := &recordingClient{}
	f, err := NewFactory[*recordedCall](client, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return f, client
}

func TestFactory_PathParameters(t *testing.T) {
	api := NewAPI(NewRegistry())
	f, _ := newTestFactory(t, Config{})
	call := f.Create(api.MustGet("/users/:id").PathParameters().ReturnsJSON())

	rc, err := call(context.Background(), Args{PathParameters: map[string]string{"id": "7"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rc.url != "/users/7" {
		t.Errorf("expected /users/7, got %s", rc.url)
	}

	rc, _ = call(context.Background(), Args{PathParameters: map[string]string{"id": "a/b"}})
	if rc.url != "/users/a%2Fb" {
		t.Errorf("expected encoded value, got %s", rc.url)
	}
}

func TestFactory_GetWithQuery(t *testing.T) {
	api := NewAPI(NewRegistry())
	f, client := newTestFactory(t, Config{
		DefaultOptions: Options{"params": url.Values{"page": {"1"}}, "timeout": 5},
	})
	call := f.Create(
		api.MustGet("/users").QueryParameters().ReturnsJSON(),
		WithRequestOptions(Options{"headers": map[string]string{"X-Trace": "1"}}),
	)

	_, err := call(context.Background(), Args{QueryParameters: url.Values{"search": {"x"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(client.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(client.calls))
	}
	rc := client.calls[0]
	if rc.method != MethodGet {
		t.Errorf("expected get, got %s", rc.method)
	}
	if !reflect.DeepEqual(rc.opts["params"], url.Values{"search": {"x"}}) {
		t.Errorf("expected query to override defaults, got %v", rc.opts["params"])
	}
	if rc.opts["timeout"] != 5 {
		t.Errorf("expected default option to survive, got %v", rc.opts["timeout"])
	}
	if _, ok := rc.opts["headers"]; !ok {
		t.Error("expected create-time option")
	}
}

func TestFactory_CustomQueryKey(t *testing.T) {
	api := NewAPI(NewRegistry())
	f, client := newTestFactory(t, Config{QueryParameterKey: "query"})
	call := f.Create(api.MustDelete("/sessions").QueryParameters().Build())

	_, _ = call(context.Background(), Args{QueryParameters: url.Values{"all": {"true"}}})

	rc := client.calls[0]
	if _, ok := rc.opts["params"]; ok {
		t.Error("default key must not be used")
	}
	if !reflect.DeepEqual(rc.opts["query"], url.Values{"all": {"true"}}) {
		t.Errorf("unexpected query option %v", rc.opts["query"])
	}
}

func TestFactory_QueryKeyUntouchedWithoutQueryCapability(t *testing.T) {
	api := NewAPI(NewRegistry())
	defaults := url.Values{"api-version": {"2"}}
	f, client := newTestFactory(t, Config{DefaultOptions: Options{"params": defaults}})
	call := f.Create(api.MustGet("/health").Returns())

	_, _ = call(context.Background(), Args{QueryParameters: url.Values{"ignored": {"1"}}})

	if !reflect.DeepEqual(client.calls[0].opts["params"], defaults) {
		t.Errorf("expected defaults to pass through, got %v", client.calls[0].opts["params"])
	}
}

func TestFactory_PostBodyUnmodified(t *testing.T) {
	api := NewAPI(NewRegistry())
	f, client := newTestFactory(t, Config{BaseURL: "https://api.test"})
	call := f.Create(api.MustPost("/orgs/:org/users").PathParameters().RequestBody().ReturnsJSON())

	body := &testUser{ID: "1", Name: "Ada"}
	_, err := call(context.Background(), Args{
		PathParameters: map[string]string{"org": "acme"},
		Body:           body,
		Options:        Options{"retry": false},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rc := client.calls[0]
	if rc.method != MethodPost || !rc.hasBody {
		t.Fatalf("expected post with body, got %+v", rc)
	}
	if rc.body != body {
		t.Error("expected the exact body value")
	}
	if rc.url != "https://api.test/orgs/acme/users" {
		t.Errorf("unexpected url %s", rc.url)
	}
	if rc.opts["retry"] != false {
		t.Errorf("expected call options, got %v", rc.opts)
	}
	if _, ok := rc.opts["params"]; ok {
		t.Error("query key must not be written without query capability")
	}
}

func TestFactory_BodyMethods(t *testing.T) {
	for _, m := range []Method{MethodPatch, MethodPost, MethodPut} {
		t.Run(m.String(), func(t *testing.T) {
			api := NewAPI(NewRegistry())
			f, client := newTestFactory(t, Config{})
			b, _ := api.Declare(m, "/things")
			call := f.Create(b.RequestBody().Build())

			_, _ = call(context.Background(), Args{Body: map[string]any{"a": 1}})

			rc := client.calls[0]
			if rc.method != m {
				t.Errorf("expected %s, got %s", m, rc.method)
			}
			if !reflect.DeepEqual(rc.body, map[string]any{"a": 1}) {
				t.Errorf("unexpected body %v", rc.body)
			}
		})
	}
}

func TestFactory_UndeclaredBodyIsNil(t *testing.T) {
	api := NewAPI(NewRegistry())
	f, client := newTestFactory(t, Config{})
	call := f.Create(api.MustPost("/ping").Returns())

	_, _ = call(context.Background(), Args{Body: "payload"})

	if client.calls[0].body != nil {
		t.Errorf("expected no body, got %v", client.calls[0].body)
	}
}

func TestFactory_DeleteNeverForwardsBody(t *testing.T) {
	var logs bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: logger.FormatJSON}, "test", &logs)

	api := NewAPI(NewRegistry())
	client := &recordingClient{}
	f, err := NewFactory[*recordedCall](client, Config{}, WithLogger(log))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	call := f.Create(api.MustDelete("/users/:id").PathParameters().RequestBody().Build())

	_, err = call(context.Background(), Args{
		PathParameters: map[string]string{"id": "9"},
		Body:           map[string]string{"reason": "spam"},
	})
	if err != nil {
		t.Fatalf("expected body to be ignored, got %v", err)
	}
	// Delete has no body parameter, so the client cannot receive one; the
	// dropped body is reported instead.
	if rc := client.calls[0]; rc.method != MethodDelete {
		t.Errorf("expected delete, got %+v", rc)
	}
	if !strings.Contains(logs.String(), `"message":"request body is not forwarded"`) {
		t.Errorf("expected the dropped body to be logged, got %s", logs.String())
	}

	logs.Reset()
	if _, err := call(context.Background(), Args{PathParameters: map[string]string{"id": "9"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(logs.String(), "request body is not forwarded") {
		t.Error("a call without a body must not report a dropped body")
	}
}

func TestFactory_BaseURLPriority(t *testing.T) {
	api := NewAPI(NewRegistry())
	d := api.MustGet("/v").Build()

	tests := []struct {
		name    string
		factory string
		create  string
		call    string
		want    string
	}{
		{"none", "", "", "", "/v"},
		{"factory", "http://f.test", "", "", "http://f.test/v"},
		{"create", "http://f.test", "http://c.test", "", "http://c.test/v"},
		{"call", "http://f.test", "http://c.test", "http://i.test", "http://i.test/v"},
		{"no normalisation", "http://f.test/", "", "", "http://f.test//v"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f, client := newTestFactory(t, Config{BaseURL: tc.factory})
			var opts []CreateOption
			if tc.create != "" {
				opts = append(opts, WithBaseURL(tc.create))
			}
			_, _ = f.Create(d, opts...)(context.Background(), Args{BaseURL: tc.call})
			if got := client.calls[0].url; got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestFactory_OptionPriority(t *testing.T) {
	api := NewAPI(NewRegistry())
	f, client := newTestFactory(t, Config{DefaultOptions: Options{"a": "default", "b": "default", "c": "default"}})
	call := f.Create(api.MustGet("/o").Build(), WithRequestOptions(Options{"b": "create", "c": "create"}))

	_, _ = call(context.Background(), Args{Options: Options{"c": "call"}})

	opts := client.calls[0].opts
	if opts["a"] != "default" || opts["b"] != "create" || opts["c"] != "call" {
		t.Errorf("unexpected merge result %v", opts)
	}
}

func TestFactory_MergeDoesNotLeak(t *testing.T) {
	api := NewAPI(NewRegistry())
	defaults := Options{"k": "v"}
	f, client := newTestFactory(t, Config{DefaultOptions: defaults})
	call := f.Create(api.MustGet("/leak").QueryParameters().Build())

	_, _ = call(context.Background(), Args{QueryParameters: url.Values{"q": {"1"}}})
	client.calls[0].opts["k"] = "mutated"
	_, _ = call(context.Background(), Args{})

	if defaults["k"] != "v" || client.calls[1].opts["k"] != "v" {
		t.Error("merged options must not alias factory defaults")
	}
	if _, ok := defaults["params"]; ok {
		t.Error("query must not be written into the defaults")
	}
}

func TestFactory_StrictPathParameters(t *testing.T) {
	api := NewAPI(NewRegistry())
	d := api.MustGet("/orgs/:org/users/:id").PathParameters().Build()

	lenient, client := newTestFactory(t, Config{})
	_, err := lenient.Create(d)(context.Background(), Args{PathParameters: map[string]string{"org": "acme"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.calls[0].url != "/orgs/acme/users/:id" {
		t.Errorf("expected placeholder left verbatim, got %s", client.calls[0].url)
	}

	strict, strictClient := newTestFactory(t, Config{StrictPathParameters: true})
	_, err = strict.Create(d)(context.Background(), Args{PathParameters: map[string]string{"org": "acme"}})
	if !errors.Is(err, ErrMissingPathParameter) {
		t.Fatalf("expected ErrMissingPathParameter, got %v", err)
	}
	var missing *MissingPathParameterError
	if !errors.As(err, &missing) || missing.Name != "id" {
		t.Errorf("expected missing id, got %v", err)
	}
	if len(strictClient.calls) != 0 {
		t.Error("strict factory must not call the client")
	}
}

func TestFactory_UnsupportedMethod(t *testing.T) {
	f, client := newTestFactory(t, Config{})
	call := f.Create(Descriptor{Method: "head", Path: "/x"})

	_, err := call(context.Background(), Args{})
	if !errors.Is(err, ErrUnsupportedMethod) {
		t.Fatalf("expected ErrUnsupportedMethod, got %v", err)
	}
	var ume *UnsupportedMethodError
	if !errors.As(err, &ume) || ume.Method != "head" {
		t.Errorf("expected method in error, got %v", err)
	}
	if len(client.calls) != 0 {
		t.Error("client must not be called")
	}
}

func TestFactory_ClientErrorPassThrough(t *testing.T) {
	api := NewAPI(NewRegistry())
	boom := errors.New("boom")
	client := &recordingClient{err: boom}
	f, err := NewFactory[*recordedCall](client, Config{})
	if err != nil {
		t.Fatal(err)
	}

	rc, err := f.Create(api.MustGet("/err").Build())(context.Background(), Args{})
	if err != boom {
		t.Errorf("expected client error unchanged, got %v", err)
	}
	if rc == nil || rc.url != "/err" {
		t.Error("expected client result unchanged")
	}
}

func TestNewFactory_InvalidConfig(t *testing.T) {
	_, err := NewFactory[*recordedCall](&recordingClient{}, Config{BaseURL: "not a url"})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestNewFactory_Defaults(t *testing.T) {
	f, _ := newTestFactory(t, Config{})
	if f.Config().QueryParameterKey != DefaultQueryParameterKey {
		t.Errorf("expected %q, got %q", DefaultQueryParameterKey, f.Config().QueryParameterKey)
	}
}

func TestHTTPClientFuncs(t *testing.T) {
	var got string
	client := HTTPClientFuncs[string]{
		GetFunc: func(_ context.Context, url string, _ Options) (string, error) {
			got = url
			return "ok", nil
		},
	}
	f, err := NewFactory[string](client, Config{})
	if err != nil {
		t.Fatal(err)
	}
	api := NewAPI(NewRegistry())

	res, err := f.Create(api.MustGet("/funcs").Build())(context.Background(), Args{})
	if err != nil || res != "ok" || got != "/funcs" {
		t.Errorf("unexpected result %q %v %q", res, err, got)
	}

	_, err = f.Create(api.MustPut("/funcs").Build())(context.Background(), Args{})
	if !errors.Is(err, ErrUnsupportedMethod) {
		t.Errorf("expected ErrUnsupportedMethod for missing func, got %v", err)
	}
}
