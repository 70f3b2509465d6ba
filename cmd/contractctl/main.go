// Command contractctl checks contract manifests, exports them as OpenAPI
// and calls the declared endpoints.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kbukum/apicontract/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx)
	stop()
	os.Exit(code)
}
