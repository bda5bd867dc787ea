package main

import (
	"context"
	"os"

	"hostelfees/internal/cli"
	"hostelfees/internal/commands"
	"hostelfees/internal/log"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentCLI, os.Stderr)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	if err := commands.NewRootCommand(commands.DefaultDependencies(cfg, logger)).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
