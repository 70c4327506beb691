package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"

	"github.com/pgdeclare/pgdeclare/internal/postgres"
	"github.com/pgdeclare/pgdeclare/ir"
)

// This file adds the thin entry points the integration test suites call
// (SetupPostgres/ConnectToPostgres/SetupPostgresContainer*/GetMajorVersion/
// ParseSQLToIR) on top of internal/postgres.EmbeddedPostgres, the same
// embedded-instance type the plan command uses in production, rather than
// introducing a second embedded-Postgres type for tests alone.

// setupOptions configures SetupPostgres.
type setupOptions struct {
	shared bool
}

// Option configures SetupPostgres.
type Option func(*setupOptions)

// WithShared requests the package-level shared embedded PostgreSQL instance
// (started once, reused by every caller) instead of a fresh one per call.
func WithShared() Option {
	return func(o *setupOptions) { o.shared = true }
}

var (
	sharedOnce  sync.Once
	sharedPG    *postgres.EmbeddedPostgres
	sharedPGErr error
)

func getSharedEmbeddedPostgres(t testing.TB) *postgres.EmbeddedPostgres {
	sharedOnce.Do(func() {
		sharedPG, sharedPGErr = postgres.StartEmbeddedPostgres(&postgres.EmbeddedPostgresConfig{
			Version:  getPostgresVersion(),
			Database: "testdb",
			Username: "testuser",
			Password: "testpass",
		})
	})
	if sharedPGErr != nil {
		if t != nil {
			t.Fatalf("failed to start shared embedded postgres: %v", sharedPGErr)
		}
		panic(fmt.Sprintf("failed to start shared embedded postgres: %v", sharedPGErr))
	}
	return sharedPG
}

// SetupPostgres starts an embedded PostgreSQL instance for a test, or
// returns the shared one when called with WithShared(). t may be nil (e.g.
// from TestMain, which only has *testing.M); in that case failures panic
// instead of calling t.Fatalf.
//
// A non-shared instance registers its own teardown via t.Cleanup when t is
// non-nil; callers that pass nil (TestMain) are responsible for calling
// Stop themselves.
func SetupPostgres(t testing.TB, opts ...Option) *postgres.EmbeddedPostgres {
	var cfg setupOptions
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.shared {
		return getSharedEmbeddedPostgres(t)
	}

	ep, err := postgres.StartEmbeddedPostgres(&postgres.EmbeddedPostgresConfig{
		Version:  getPostgresVersion(),
		Database: "testdb",
		Username: "testuser",
		Password: "testpass",
	})
	if err != nil {
		if t != nil {
			t.Fatalf("failed to start embedded postgres: %v", err)
		}
		panic(fmt.Sprintf("failed to start embedded postgres: %v", err))
	}

	if t != nil {
		t.Cleanup(func() { ep.Stop() })
	}
	return ep
}

// ConnectToPostgres returns the embedded instance's live connection plus the
// individual connection parameters tests commonly need to pass as --host/
// --port/--db/--user/--password CLI flags.
func ConnectToPostgres(t testing.TB, ep *postgres.EmbeddedPostgres) (conn *sql.DB, host string, port int, database string, user string, password string) {
	host, port, database, user, password = ep.GetConnectionDetails()
	return ep.GetDB(), host, port, database, user, password
}

// GetMajorVersion queries conn for its PostgreSQL major version number (e.g.
// 17 for "PostgreSQL 17.5").
func GetMajorVersion(conn *sql.DB) (int, error) {
	var versionNum int
	if err := conn.QueryRow("SHOW server_version_num").Scan(&versionNum); err != nil {
		return 0, fmt.Errorf("failed to query server_version_num: %w", err)
	}
	return versionNum / 10000, nil
}

// ContainerInfo is the container-test-shaped view of an embedded PostgreSQL
// instance: tests written against a testcontainers-go-style fixture
// (Host/Port/DBName/User/Password/Conn, Terminate(ctx, t)) get the same
// shape backed by embedded postgres instead of a real Docker container.
type ContainerInfo struct {
	Host     string
	Port     int
	DBName   string
	User     string
	Password string
	Conn     *sql.DB

	ep *postgres.EmbeddedPostgres
}

// Terminate stops the underlying embedded postgres instance and closes its
// connection.
func (c *ContainerInfo) Terminate(ctx context.Context, t *testing.T) {
	if err := c.ep.Stop(); err != nil && t != nil {
		t.Logf("failed to stop embedded postgres: %v", err)
	}
}

// ConnectionString returns a libpq-style DSN with the given extra query
// parameters appended (e.g. "sslmode=disable").
func (c *ContainerInfo) ConnectionString(ctx context.Context, extraParams string) (string, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s", c.User, c.Password, c.Host, c.Port, c.DBName)
	if extraParams != "" {
		dsn += "?" + extraParams
	}
	return dsn, nil
}

// SetupPostgresContainer starts an embedded PostgreSQL instance with the
// standard testdb/testuser/testpass credentials, shaped as a ContainerInfo.
func SetupPostgresContainer(ctx context.Context, t *testing.T) *ContainerInfo {
	return SetupPostgresContainerWithDB(ctx, t, "testdb", "testuser", "testpass")
}

// SetupPostgresContainerWithDB starts an embedded PostgreSQL instance with
// the given database name, user, and password.
func SetupPostgresContainerWithDB(ctx context.Context, t *testing.T, dbname, user, password string) *ContainerInfo {
	ep, err := postgres.StartEmbeddedPostgres(&postgres.EmbeddedPostgresConfig{
		Version:  getPostgresVersion(),
		Database: dbname,
		Username: user,
		Password: password,
	})
	if err != nil {
		t.Fatalf("failed to start embedded postgres: %v", err)
	}
	t.Cleanup(func() { ep.Stop() })

	host, port, database, username, pw := ep.GetConnectionDetails()
	return &ContainerInfo{
		Host:     host,
		Port:     port,
		DBName:   database,
		User:     username,
		Password: pw,
		Conn:     ep.GetDB(),
		ep:       ep,
	}
}

// ParseSQLToIR resets schema on ep (dropping and recreating it), applies
// sqlContent to it, and introspects the result back into an *ir.IR — the
// same production code path BuildIR uses against a real database.
func ParseSQLToIR(t *testing.T, ep *postgres.EmbeddedPostgres, sqlContent string, schema string) *ir.IR {
	t.Helper()

	if err := ep.ApplySchema(context.Background(), schema, sqlContent); err != nil {
		t.Fatalf("failed to apply schema %q: %v", schema, err)
	}

	inspector := ir.NewInspector(ep.GetDB(), nil)
	schemaIR, err := inspector.BuildIR(context.Background(), schema)
	if err != nil {
		t.Fatalf("failed to introspect schema %q into IR: %v", schema, err)
	}
	return schemaIR
}
