package graphplan

import (
	"context"
	"fmt"
	"slices"
)

// Dialect defines the interface for graph store backends.
type Dialect interface {
	// Name returns the dialect identifier (e.g., "cypher").
	Name() string

	// Execute runs a query with parameters and returns the rows.
	Execute(ctx context.Context, query string, params map[string]any) ([]Row, error)

	// Close releases any resources held by the dialect.
	Close() error
}

// Session is a scoped unit of work against the store. The executor opens one
// per plan and closes it on every exit path.
type Session interface {
	// Run executes a query within the session.
	Run(ctx context.Context, query string, params map[string]any) ([]Row, error)

	// Close releases the session.
	Close(ctx context.Context) error
}

// Sessioner is an optional interface for dialects with native sessions.
type Sessioner interface {
	Dialect

	// NewSession opens a new session.
	NewSession(ctx context.Context) (Session, error)
}

// DialectFactory creates a Dialect from connection configuration.
type DialectFactory func(cfg DialectConfig) (Dialect, error)

// DialectConfig holds connection settings for a dialect.
type DialectConfig struct {
	// Connection URI (e.g., "bolt://localhost:7687")
	URI string `yaml:"uri"`

	// Optional credentials (if not in URI)
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`

	// Dialect-specific options
	Options map[string]any `yaml:"options,omitempty"`
}

var dialects = make(map[string]DialectFactory)

// RegisterDialect registers a dialect factory by name.
func RegisterDialect(name string, factory DialectFactory) {
	dialects[name] = factory
}

// NewDialect creates a dialect instance by name.
func NewDialect(name string, cfg DialectConfig) (Dialect, error) { //nolint:ireturn
	factory, ok := dialects[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDialect, name)
	}

	d, err := factory(cfg)
	if err != nil {
		return nil, err
	}

	return &dialectWrapper{d}, nil
}

// RegisteredDialects returns the names of all registered dialects, sorted.
func RegisteredDialects() []string {
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// dialectWrapper wraps a Dialect so every dialect can hand out sessions.
type dialectWrapper struct {
	Dialect
}

// NewSession delegates to the underlying dialect when it has native sessions.
func (w *dialectWrapper) NewSession(ctx context.Context) (Session, error) { //nolint:ireturn
	return OpenSession(ctx, w.Dialect)
}

// OpenSession opens a session on d. Dialects without native sessions get a
// session that runs every query through Execute.
func OpenSession(ctx context.Context, d Dialect) (Session, error) { //nolint:ireturn
	if s, ok := d.(Sessioner); ok {
		return s.NewSession(ctx)
	}

	return executeSession{d}, nil
}

type executeSession struct {
	d Dialect
}

func (s executeSession) Run(ctx context.Context, query string, params map[string]any) ([]Row, error) {
	return s.d.Execute(ctx, query, params)
}

func (executeSession) Close(context.Context) error { return nil }

// Ensure the wrapper satisfies Sessioner.
var _ Sessioner = (*dialectWrapper)(nil)
