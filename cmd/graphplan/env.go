package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rlch/graphplan"
	"github.com/rlch/graphplan/catalog"
	"github.com/rlch/graphplan/classify"
	"github.com/rlch/graphplan/embed"
	"github.com/rlch/graphplan/planner"
	"github.com/rlch/graphplan/runner"
	"github.com/rlch/graphplan/telemetry"
)

var ErrUnknownProvider = errors.New("unknown embedding provider")

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "config file (default: nearest .graphplan.yaml)",
			Sources: cli.EnvVars("GRAPHPLAN_CONFIG"),
		},
		&cli.StringFlag{
			Name:    "catalog",
			Usage:   "intent catalog path",
			Sources: cli.EnvVars("GRAPHPLAN_CATALOG"),
		},
		&cli.StringFlag{
			Name:    "uri",
			Usage:   "graph store URI",
			Sources: cli.EnvVars("GRAPHPLAN_NEO4J_URI"),
		},
		&cli.StringFlag{
			Name:    "user",
			Usage:   "graph store user",
			Sources: cli.EnvVars("GRAPHPLAN_NEO4J_USER"),
		},
		&cli.StringFlag{
			Name:    "password",
			Usage:   "graph store password",
			Sources: cli.EnvVars("GRAPHPLAN_NEO4J_PASS"),
		},
		&cli.StringFlag{
			Name:    "embedder",
			Usage:   "embedding provider (ollama, hash)",
			Sources: cli.EnvVars("GRAPHPLAN_EMBEDDER"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log level (debug, info, warn, error)",
			Sources: cli.EnvVars("GRAPHPLAN_LOG_LEVEL"),
		},
	}
}

// env holds what a command builds from its config. close releases it in
// reverse order.
type env struct {
	cfg     *graphplan.Config
	logger  *zap.Logger
	metrics *telemetry.Metrics
	closers []func() error
}

func newEnv(cmd *cli.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	return &env{
		cfg:     cfg,
		logger:  logger,
		metrics: telemetry.NewMetrics(),
	}, nil
}

// loadConfig reads --config, else the nearest config file, else the defaults,
// then applies flag overrides.
func loadConfig(cmd *cli.Command) (*graphplan.Config, error) {
	var (
		cfg *graphplan.Config
		err error
	)

	if path := cmd.String("config"); path != "" {
		cfg, err = graphplan.LoadConfigFile(path)
	} else {
		cfg, err = graphplan.LoadConfig(".")
		if errors.Is(err, graphplan.ErrConfigNotFound) {
			cfg, err = graphplan.DefaultConfig(), nil
		}
	}

	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if v := cmd.String("catalog"); v != "" {
		cfg.Catalog = v
	}

	if v := cmd.String("uri"); v != "" {
		cfg.Connection.URI = v
	}

	if v := cmd.String("user"); v != "" {
		cfg.Connection.Username = v
	}

	if v := cmd.String("password"); v != "" {
		cfg.Connection.Password = v
	}

	if v := cmd.String("embedder"); v != "" {
		cfg.Embedding.Provider = v
	}

	if v := cmd.String("log-level"); v != "" {
		cfg.LogLevel = v
	}

	return cfg, nil
}

// newLogger logs to stderr; stdout carries command output.
func newLogger(level string) (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.OutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}

		config.Level = zap.NewAtomicLevelAt(lvl)
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return logger, nil
}

func (e *env) close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			e.logger.Warn("Close failed", zap.Error(err))
		}
	}

	_ = e.logger.Sync()
}

func (e *env) dialect() (graphplan.Dialect, error) { //nolint:ireturn
	d, err := graphplan.NewDialect(e.cfg.Dialect, e.cfg.Connection)
	if err != nil {
		return nil, err
	}

	e.closers = append(e.closers, d.Close)

	return d, nil
}

func (e *env) embedder() (embed.Embedder, error) { //nolint:ireturn
	ec := e.cfg.Embedding

	switch ec.Provider {
	case "ollama":
		return embed.NewOllama(embed.WithURL(ec.URL), embed.WithModel(ec.Model)), nil
	case "hash":
		return embed.NewHash(ec.Dimensions), nil
	default:
		return nil, fmt.Errorf("%w: %q (available: ollama, hash)", ErrUnknownProvider, ec.Provider)
	}
}

func (e *env) classifier(ctx context.Context, cat *catalog.Catalog) (*classify.Classifier, error) {
	emb, err := e.embedder()
	if err != nil {
		return nil, err
	}

	opts := []classify.Option{
		classify.WithConcurrency(e.cfg.Embedding.Concurrency),
		classify.WithLogger(e.logger),
	}

	if dir := e.cfg.Embedding.CacheDir; dir != "" {
		cache, err := embed.OpenBadgerCache(dir, e.cfg.Embedding.CacheTTL, e.logger)
		if err != nil {
			return nil, fmt.Errorf("open vector cache: %w", err)
		}

		e.closers = append(e.closers, cache.Close)
		opts = append(opts, classify.WithCache(cache))
	}

	return classify.New(ctx, cat, emb, opts...)
}

// planner loads the catalog, embeds its intents and returns a planner over
// them together with the catalog the planner classifies against. A missing
// catalog yields a planner with zero intents.
func (e *env) planner(ctx context.Context) (*planner.Planner, *catalog.Catalog, error) {
	clf, err := e.classifier(ctx, catalog.LoadOrEmpty(e.cfg.Catalog, e.logger))
	if err != nil {
		return nil, nil, err
	}

	pc := e.cfg.Planner

	p := planner.New(clf,
		planner.WithMinScore(pc.MinScore),
		planner.WithTopK(pc.TopK),
		planner.WithGraphThreshold(pc.GraphThreshold),
		planner.WithLogger(e.logger),
		planner.WithMetrics(e.metrics),
	)

	return p, clf.Catalog(), nil
}

func (e *env) runner(cat *catalog.Catalog, where string) (*runner.Runner, error) {
	filter, err := runner.CompileFilter(where)
	if err != nil {
		return nil, err
	}

	d, err := e.dialect()
	if err != nil {
		return nil, err
	}

	return runner.New(
		runner.WithDialect(d),
		runner.WithCatalog(cat),
		runner.WithFilter(filter),
		runner.WithLogger(e.logger),
		runner.WithMetrics(e.metrics),
	), nil
}
