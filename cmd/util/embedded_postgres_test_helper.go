package util

import (
	"testing"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
)

// SetupSharedEmbeddedPostgres creates a shared embedded PostgreSQL instance for test suites.
// This instance can be reused across multiple test cases to significantly improve test performance.
//
// Usage example:
//
//	func TestMain(m *testing.M) {
//	    // Create shared embedded postgres for all tests
//	    embeddedPG := util.SetupSharedEmbeddedPostgres(nil, embeddedpostgres.PostgresVersion("17.5.0"))
//	    defer embeddedPG.Stop()
//
//	    // Run tests
//	    code := m.Run()
//	    os.Exit(code)
//	}
//
//	func TestMyFeature(t *testing.T) {
//	    ctx := context.Background()
//	    // Reuse the shared instance: reset the schema, then load this test's SQL
//	    if err := embeddedPG.ResetSchema(ctx, "public"); err != nil {
//	        t.Fatal(err)
//	    }
//	    if err := embeddedPG.ApplySchemaSQL(ctx, "public", schemaSQL); err != nil {
//	        t.Fatal(err)
//	    }
//	    // ... query embeddedPG.GetDB() ...
//	}
func SetupSharedEmbeddedPostgres(t testing.TB, version embeddedpostgres.PostgresVersion) *EmbeddedPostgres {
	config := &EmbeddedPostgresConfig{
		Version:  version,
		Database: "testdb",
		Username: "testuser",
		Password: "testpass",
	}

	embeddedPG, err := StartEmbeddedPostgres(config)
	if err != nil {
		if t != nil {
			t.Fatalf("Failed to start shared embedded PostgreSQL: %v", err)
		} else {
			panic("Failed to start shared embedded PostgreSQL: " + err.Error())
		}
	}

	return embeddedPG
}
