package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/rlch/graphplan/server"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve planning and execution over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "listen address (default: from config)",
				Sources: cli.EnvVars("GRAPHPLAN_ADDR"),
			},
		},
		Action: runServe,
	}
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	addr := cmd.String("addr")
	if addr == "" {
		addr = e.cfg.Server.Addr
	}

	p, cat, err := e.planner(ctx)
	if err != nil {
		return err
	}

	r, err := e.runner(cat, "")
	if err != nil {
		return err
	}

	srv := server.New(p, r, cat,
		server.WithMetrics(e.metrics),
		server.WithLogger(e.logger))

	return srv.ListenAndServe(ctx, addr)
}
