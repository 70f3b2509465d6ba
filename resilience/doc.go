// Package resilience wraps outbound calls with retry, circuit breaking,
// rate limiting and concurrency limits.
//
// Retry backs off exponentially through cenkalti/backoff and honours
// server hints from errors implementing RetryAfterHinter. The rate limiter
// is a golang.org/x/time/rate token bucket and the bulkhead a weighted
// semaphore:
//
//	cb := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("users-api"))
//	rl := resilience.NewRateLimiter(resilience.RateLimiterConfig{Rate: 50, Burst: 10})
//
//	resp, err := resilience.Retry(ctx, cfg, func(attempt int) (*Response, error) {
//	    if err := rl.Wait(ctx); err != nil {
//	        return nil, err
//	    }
//	    var resp *Response
//	    err := cb.Execute(func() error {
//	        var err error
//	        resp, err = send(ctx)
//	        return err
//	    })
//	    return resp, err
//	})
package resilience
