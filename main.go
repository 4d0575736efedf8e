package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/srclight/cli/cmd"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	cmd.SetVersion(version)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := fang.Execute(ctx, cmd.Root(), fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}
