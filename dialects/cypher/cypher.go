// Package cypher provides a graphplan dialect for Cypher queries against Neo4j.
package cypher

import (
	"context"
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/rlch/graphplan"
)

//nolint:gochecknoinits // Dialect self-registration pattern
func init() {
	graphplan.RegisterDialect("cypher", New)
}

// Dialect implements graphplan.Dialect for Cypher queries against Neo4j.
type Dialect struct {
	driver neo4j.DriverWithContext
	db     string
}

// New creates a new Cypher dialect from the given configuration.
func New(cfg graphplan.DialectConfig) (graphplan.Dialect, error) { //nolint:ireturn // Factory returns interface per Dialect pattern
	auth := neo4j.NoAuth()
	if cfg.Username != "" {
		auth = neo4j.BasicAuth(cfg.Username, cfg.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, auth)
	if err != nil {
		return nil, fmt.Errorf("cypher: failed to create driver: %w", err)
	}

	d := &Dialect{
		driver: driver,
		db:     cfg.Database(),
	}

	// Verify connectivity
	ctx := context.Background()

	err = driver.VerifyConnectivity(ctx)
	if err != nil {
		_ = driver.Close(ctx)

		return nil, fmt.Errorf("cypher: failed to connect: %w", err)
	}

	return d, nil
}

// Name returns the dialect identifier.
func (d *Dialect) Name() string {
	return "cypher"
}

// Execute runs a single query in its own session.
func (d *Dialect) Execute(ctx context.Context, query string, params map[string]any) ([]graphplan.Row, error) {
	return runOnce(ctx, d.newSession(ctx), query, params)
}

// runOnce runs query in s and closes s. A failed close is joined to the
// query error, so it surfaces even when the query succeeded.
func runOnce(ctx context.Context, s graphplan.Session, query string, params map[string]any) (rows []graphplan.Row, err error) {
	defer func() {
		err = errors.Join(err, s.Close(ctx))
	}()

	return s.Run(ctx, query, params)
}

// NewSession opens a read session on the configured database.
func (d *Dialect) NewSession(ctx context.Context) (graphplan.Session, error) { //nolint:ireturn // Interface return per Sessioner contract
	return d.newSession(ctx), nil
}

func (d *Dialect) newSession(ctx context.Context) *Session {
	cfg := neo4j.SessionConfig{
		AccessMode: neo4j.AccessModeRead,
	}
	if d.db != "" {
		cfg.DatabaseName = d.db
	}

	return &Session{session: d.driver.NewSession(ctx, cfg)}
}

// Close releases the driver.
func (d *Dialect) Close() error {
	if d.driver == nil {
		return nil
	}

	err := d.driver.Close(context.Background())
	if err != nil {
		return fmt.Errorf("cypher: failed to close driver: %w", err)
	}

	return nil
}

// Session wraps a Neo4j session.
type Session struct {
	session neo4j.SessionWithContext
}

// Run executes a query and converts every record into a graphplan.Row.
// Store errors are returned unwrapped so callers see the server message.
func (s *Session) Run(ctx context.Context, query string, params map[string]any) ([]graphplan.Row, error) {
	result, err := s.session.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}

	records, err := result.Collect(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]graphplan.Row, len(records))
	for i, record := range records {
		rows[i] = convertRecord(record.Keys, record.Values)
	}

	return rows, nil
}

// Close closes the session.
func (s *Session) Close(ctx context.Context) error {
	err := s.session.Close(ctx)
	if err != nil {
		return fmt.Errorf("cypher: failed to close session: %w", err)
	}

	return nil
}

// convertRecord converts a Neo4j record into a row of tagged values.
func convertRecord(keys []string, values []any) graphplan.Row {
	row := graphplan.Row{
		Keys:   keys,
		Values: make([]graphplan.Value, len(values)),
	}

	for i, v := range values {
		row.Values[i] = convertValue(v)
	}

	return row
}

// convertValue tags a driver value: nodes and relationships become entities,
// maps pass through and everything else (scalars, lists, paths) is raw.
func convertValue(value any) graphplan.Value {
	switch v := value.(type) {
	case dbtype.Node:
		return graphplan.EntityValue(graphplan.Entity{
			ID:     v.ElementId,
			Labels: v.Labels,
			Props:  v.Props,
		})

	case dbtype.Relationship:
		return graphplan.EntityValue(graphplan.Entity{
			ID:     v.ElementId,
			Labels: []string{v.Type},
			Props:  v.Props,
		})

	case map[string]any:
		return graphplan.MapValue(v)

	default:
		return graphplan.RawValue(v)
	}
}

// Ensure Dialect implements graphplan.Sessioner.
var (
	_ graphplan.Sessioner = (*Dialect)(nil)
	_ graphplan.Session   = (*Session)(nil)
)
