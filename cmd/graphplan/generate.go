package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/rlch/graphplan/generator"
	"github.com/rlch/graphplan/ontology"
)

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:    "generate",
		Aliases: []string{"gen"},
		Usage:   "Build the intent catalog from the ontology in the graph store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "output file (default: the configured catalog path)",
			},
			&cli.IntFlag{
				Name:  "max-depth",
				Usage: "maximum path length in hops (default: from config)",
			},
			&cli.StringFlag{
				Name:    "locale",
				Aliases: []string{"l"},
				Usage:   "example phrasebook (pt, en)",
			},
		},
		Action: runGenerate,
	}
}

func runGenerate(ctx context.Context, cmd *cli.Command) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	gc := e.cfg.Generator

	if v := cmd.Int("max-depth"); v > 0 {
		gc.MaxDepth = v
	}

	if v := cmd.String("locale"); v != "" {
		gc.Locale = v
	}

	out := cmd.String("out")
	if out == "" {
		out = e.cfg.Catalog
	}

	phrases, err := generator.PhrasebookFor(gc.Locale)
	if err != nil {
		return err
	}

	d, err := e.dialect()
	if err != nil {
		return err
	}

	snap, err := ontology.NewLoader(d, ontology.WithLogger(e.logger)).Load(ctx)
	if err != nil {
		return err
	}

	opts := []generator.Option{
		generator.WithMaxDepth(gc.MaxDepth),
		generator.WithPhrasebook(phrases),
		generator.WithMultiValued(gc.MultiValued),
		generator.WithLogger(e.logger),
	}
	if gc.Version != "" {
		opts = append(opts, generator.WithVersion(gc.Version))
	}

	cat, err := generator.New(opts...).Generate(snap)
	if err != nil {
		return err
	}

	err = cat.Save(out)
	if err != nil {
		return err
	}

	e.logger.Info("Wrote intent catalog", zap.String("path", out), zap.Int("intents", cat.Len()))
	fmt.Fprintf(cmd.Root().Writer, "%d intents written to %s\n", cat.Len(), out)

	return nil
}
