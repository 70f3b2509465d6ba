// Package contract declares REST API contracts and compiles them into
// callables bound to a pluggable HTTP client.
//
// A contract pairs an HTTP method with a path template (":name" tokens mark
// path parameters) and optionally declares path parameters, query
// parameters, a request body and a result. Contracts are declared through an
// API bound to an explicit Registry, which rejects a second declaration of
// the same method and path.
//
// # Declaring
//
//	reg := contract.NewRegistry()
//	api := contract.NewAPI(reg)
//
//	getUser := api.MustGet("/users/:id").
//	    PathParameters().
//	    QueryParameters().
//	    ReturnsJSON(contract.Typed[User]())
//
// Builder steps never mutate the previous value, so capability calls can be
// chained in any order. Result calls (Returns, ReturnsJSON, ReturnsRaw,
// ReturnsStream) and Build end the chain and yield a Descriptor.
//
// # Calling
//
//	factory, err := contract.NewFactory[*httpclient.Response](adapter, contract.Config{
//	    BaseURL: "https://api.example.com",
//	})
//	call := factory.Create(getUser)
//	resp, err := call(ctx, contract.Args{
//	    PathParameters:  map[string]string{"id": "7"},
//	    QueryParameters: url.Values{"expand": {"groups"}},
//	})
//
// The factory never decodes results. Whatever the HTTP client returns is
// passed back unchanged.
package contract
