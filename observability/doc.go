// Package observability traces and measures outbound HTTP calls with
// OpenTelemetry.
//
//	tp, err := observability.InitTracer(ctx, &cfg)
//	defer tp.Shutdown(ctx)
//
//	ctx, call := observability.StartCall(ctx, metrics, "users-api", "GET", u)
//	resp, err := do(ctx)
//	call.End(ctx, resp.StatusCode, "", err)
//
// Without InitTracer and InitMeter the global no-op providers are used.
package observability
