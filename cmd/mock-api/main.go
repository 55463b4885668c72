package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/codenestai/client/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := app.MockMain(ctx)
	stop()
	os.Exit(code)
}
