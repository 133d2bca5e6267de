package surreal

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	surrealdb "github.com/surrealdb/surrealdb.go"

	"github.com/dmcnabb/questfolio/internal/common"
	tcommon "github.com/dmcnabb/questfolio/tests/common"
)

// testDB starts the shared SurrealDB container and returns a connected DB
// using a unique database name per test to ensure isolation.
func testDB(t *testing.T) *surrealdb.DB {
	t.Helper()

	sc := tcommon.StartSurrealDB(t)
	ctx := context.Background()

	db, err := surrealdb.New(sc.Address())
	if err != nil {
		t.Fatalf("connect to SurrealDB: %v", err)
	}

	user, pass := sc.Credentials()
	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": user,
		"pass": pass,
	}); err != nil {
		t.Fatalf("sign in to SurrealDB: %v", err)
	}

	// Unique database per test; sanitize t.Name() because subtests produce
	// names with "/" which SurrealDB rejects.
	sanitized := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dbName := fmt.Sprintf("t_%s_%d", sanitized, time.Now().UnixNano()%100000)
	if err := db.Use(ctx, tcommon.TestNamespace, dbName); err != nil {
		t.Fatalf("select namespace/database: %v", err)
	}

	if _, err := surrealdb.Query[any](ctx, db, "DEFINE TABLE IF NOT EXISTS credential SCHEMALESS", nil); err != nil {
		t.Fatalf("define credential table: %v", err)
	}

	t.Cleanup(func() {
		db.Close(context.Background())
	})

	return db
}

// testLogger returns a silent logger for tests.
func testLogger() *common.Logger {
	return common.NewSilentLogger()
}
