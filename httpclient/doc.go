// Package httpclient is the net/http implementation of contract.HTTPClient.
//
// An Adapter reads query parameters and headers from the contract options,
// attaches auth, a request id and trace context, and runs every attempt
// through the configured bulkhead, rate limiter and circuit breaker, with
// retries on top:
//
//	adapter, err := httpclient.New(httpclient.Config{
//	    Name:    "users-api",
//	    BaseURL: "https://api.example.com",
//	    Auth:    httpclient.BearerAuth(token),
//	    Retry:   httpclient.DefaultRetryConfig(),
//	})
//	factory, err := contract.NewFactory[*httpclient.Response](adapter, contract.Config{})
//	getUser := factory.Create(getUserContract)
//	user, err := httpclient.Call[User](ctx, getUserContract, getUser, contract.Args{
//	    PathParameters: map[string]string{"id": "42"},
//	})
//
// Contracts declared with ReturnsStream go through adapter.Stream(), which
// yields a *StreamResponse with an SSE reader for text/event-stream bodies.
package httpclient
