// internal/app/bootstrap/db_test.go
package bootstrap

import (
	"testing"

	"go.uber.org/zap"

	"github.com/tewell/reelhub/internal/testutil"
)

func TestEnsureSchema(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoDatabase: db}
	if err := EnsureSchema(ctx, nil, AppConfig{}, deps, zap.NewNop()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	// Running twice is fine; index builds are idempotent.
	if err := EnsureSchema(ctx, nil, AppConfig{}, deps, zap.NewNop()); err != nil {
		t.Fatalf("EnsureSchema second run: %v", err)
	}
}
