package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ozzus/nsca-agent/internal/sendnsca"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := sendnsca.Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
