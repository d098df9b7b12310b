// Package main provides the graphplan CLI tool.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	// Register dialects.
	_ "github.com/rlch/graphplan/dialects/cypher"
)

var version = "dev"

func main() {
	app := &cli.Command{
		Name:    "graphplan",
		Version: version,
		Usage:   "Answer natural-language questions over a knowledge graph",
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			generateCommand(),
			classifyCommand(),
			planCommand(),
			askCommand(),
			replCommand(),
			serveCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := app.Run(ctx, os.Args)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
