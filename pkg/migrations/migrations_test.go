package migrations

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	"github.com/chainsafe/crosschain-middleware/pkg/migrations/bridgedb"
	"github.com/chainsafe/crosschain-middleware/pkg/pgutil"
)

func setupMigrationDB(t *testing.T) (context.Context, *bun.DB, *migrate.Migrator) {
	t.Helper()
	requireDockerAccess(t)

	ctx := context.Background()
	db, cleanup := pgutil.SetupTestDB(t)
	t.Cleanup(cleanup)

	migrator := migrate.NewMigrator(db, bridgedb.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}

	return ctx, db, migrator
}

func requireDockerAccess(t *testing.T) {
	t.Helper()

	candidates := []string{
		"/var/run/docker.sock",
		filepath.Join(os.Getenv("HOME"), ".docker/run/docker.sock"),
	}

	for _, sock := range candidates {
		if sock == "" {
			continue
		}
		if _, err := os.Stat(sock); err != nil {
			continue
		}
		conn, err := (&net.Dialer{}).DialContext(context.Background(), "unix", sock)
		if err == nil {
			_ = conn.Close()
			return
		}
	}

	t.Skip("docker daemon socket is not accessible; skipping testcontainer-backed migration tests")
}

func TestBridgeDBMigrations_Apply(t *testing.T) {
	ctx, db, migrator := setupMigrationDB(t)

	group, err := migrator.Migrate(ctx)
	if err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	if group.IsZero() {
		t.Error("Expected migrations to run, but none were applied")
	}

	for _, table := range []string{"bridge_transactions", "bun_migrations"} {
		pgutil.AssertTableExists(t, db, table)
	}

	for _, index := range []string{
		"idx_bridge_transactions_owner_id",
		"idx_bridge_transactions_status",
		"idx_bridge_transactions_created_at",
		"idx_bridge_transactions_updated_at",
	} {
		pgutil.AssertIndexExists(t, db, index)
	}
}

func TestBridgeDBMigrations_Idempotent(t *testing.T) {
	ctx, db, migrator := setupMigrationDB(t)

	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("First Migrate() failed: %v", err)
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		t.Fatalf("Second Migrate() failed: %v", err)
	}
	if !group.IsZero() {
		t.Error("Expected no new migrations on second run")
	}

	pgutil.AssertTableExists(t, db, "bridge_transactions")
}

func TestBridgeDBMigrations_Rollback(t *testing.T) {
	ctx, db, migrator := setupMigrationDB(t)

	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	pgutil.AssertTableExists(t, db, "bridge_transactions")

	group, err := migrator.Rollback(ctx)
	if err != nil {
		t.Fatalf("Rollback() failed: %v", err)
	}
	if group.IsZero() {
		t.Error("Expected rollback to process a migration")
	}

	pgutil.AssertTableNotExists(t, db, "bridge_transactions")
}
