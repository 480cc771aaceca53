// The main package for the lead-harvester executable.
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/realcrm/lead-harvester/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cmd.Execute(ctx)
}
