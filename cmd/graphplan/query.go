package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/rlch/graphplan/runner"
)

var ErrNoQuery = errors.New("no query given")

func queryArg(cmd *cli.Command) (string, error) {
	q := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if q == "" {
		return "", ErrNoQuery
	}

	return q, nil
}

func classifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "classify",
		Usage:     "Rank the intents closest to a question",
		ArgsUsage: "<question>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "top",
				Aliases: []string{"k"},
				Usage:   "number of intents to show",
				Value:   5,
			},
		},
		Action: runClassify,
	}
}

func runClassify(ctx context.Context, cmd *cli.Command) error {
	q, err := queryArg(cmd)
	if err != nil {
		return err
	}

	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	p, _, err := e.planner(ctx)
	if err != nil {
		return err
	}

	matches, err := p.Classify(ctx, q, cmd.Int("top"))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.Root().Writer, 0, 0, 2, ' ', 0)
	for _, m := range matches {
		fmt.Fprintf(w, "%.4f\t%s\t%s\n", m.Score, m.Intent.ID, m.Intent.Description)
	}

	return w.Flush()
}

func planCommand() *cli.Command {
	return &cli.Command{
		Name:      "plan",
		Usage:     "Print the execution plan for a question",
		ArgsUsage: "<question>",
		Action:    runPlan,
	}
}

func runPlan(ctx context.Context, cmd *cli.Command) error {
	q, err := queryArg(cmd)
	if err != nil {
		return err
	}

	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	p, _, err := e.planner(ctx)
	if err != nil {
		return err
	}

	plan, err := p.GeneratePlan(ctx, q)
	if err != nil {
		return err
	}

	return writeJSON(cmd.Root().Writer, plan)
}

func askCommand() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Plan a question, run it against the graph store and print the records",
		ArgsUsage: "<question>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print records as JSON",
			},
			&cli.StringFlag{
				Name:    "where",
				Aliases: []string{"w"},
				Usage:   "keep only records matching an expression (e.g. 'ano > 2015')",
			},
		},
		Action: runAsk,
	}
}

func runAsk(ctx context.Context, cmd *cli.Command) error {
	q, err := queryArg(cmd)
	if err != nil {
		return err
	}

	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	// One id ties the planner and runner logs of this question together.
	e.logger = e.logger.With(zap.String("request_id", uuid.NewString()))

	p, cat, err := e.planner(ctx)
	if err != nil {
		return err
	}

	plan, err := p.GeneratePlan(ctx, q)
	if err != nil {
		return err
	}

	r, err := e.runner(cat, cmd.String("where"))
	if err != nil {
		return err
	}

	records, err := r.Execute(ctx, plan)
	if err != nil {
		return err
	}

	format := runner.FormatText
	if cmd.Bool("json") {
		format = runner.FormatJSON
	}

	f, err := runner.NewFormatter(format, outputStyles(cmd.Root().Writer))
	if err != nil {
		return err
	}

	return f.Format(cmd.Root().Writer, records)
}

func outputStyles(w io.Writer) *runner.Styles {
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return runner.DefaultStyles()
	}

	return runner.PlainStyles()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
