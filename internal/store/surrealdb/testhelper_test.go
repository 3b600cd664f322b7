package surrealdb

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bobmcallan/trivia/internal/common"
	tcommon "github.com/bobmcallan/trivia/tests/common"
)

// testStore starts the shared SurrealDB container and returns a Store
// connected to a unique database per test, for isolation across tests.
func testStore(t *testing.T) *Store {
	t.Helper()

	sc := tcommon.StartSurrealDB(t)
	ctx := context.Background()

	sanitized := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dbName := fmt.Sprintf("t_%s_%d", sanitized, time.Now().UnixNano()%100000)

	cfg := common.StorageConfig{
		Address:   sc.Address(),
		Username:  "root",
		Password:  "root",
		Namespace: "trivia_test",
		Database:  dbName,
	}

	store, err := New(ctx, common.NewSilentLogger(), cfg)
	if err != nil {
		t.Fatalf("connect to SurrealDB: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}
