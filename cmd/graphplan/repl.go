package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/rlch/graphplan/planner"
	"github.com/rlch/graphplan/runner"
)

func replCommand() *cli.Command {
	return &cli.Command{
		Name:  "repl",
		Usage: "Ask questions interactively (type sair, exit or quit to leave)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "where",
				Aliases: []string{"w"},
				Usage:   "keep only records matching an expression",
			},
		},
		Action: runREPL,
	}
}

func runREPL(ctx context.Context, cmd *cli.Command) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	p, cat, err := e.planner(ctx)
	if err != nil {
		return err
	}

	r, err := e.runner(cat, cmd.String("where"))
	if err != nil {
		return err
	}

	return runner.NewREPL(askFunc(p, r), os.Stdin, os.Stdout).Run(ctx)
}

// askFunc answers graph questions only: messages whose best intent does not
// clear the graph threshold get a note instead of a plan.
func askFunc(p *planner.Planner, r *runner.Runner) runner.AskFunc {
	return func(ctx context.Context, question string) (runner.Answer, error) {
		plan, best, err := p.PlanGraphQuery(ctx, question)
		if err != nil {
			return runner.Answer{}, err
		}

		if plan == nil {
			return runner.Answer{
				Note: fmt.Sprintf("That does not look like a question about the graph (best score %.2f).", best.Score),
			}, nil
		}

		records, err := r.Execute(ctx, plan)
		if err != nil {
			return runner.Answer{Plan: plan}, err
		}

		return runner.Answer{Plan: plan, Records: records}, nil
	}
}
