package bridgedb

import (
	"context"
	"log"

	"github.com/chainsafe/crosschain-middleware/pkg/bridgestore"
	mghelper "github.com/chainsafe/crosschain-middleware/pkg/pgutil/migrations"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating bridge_transactions table...")
		if err := mghelper.CreateSchema(ctx, db, &bridgestore.TransactionDao{}); err != nil {
			return err
		}
		// History queries filter by owner and status, sorted by creation
		// time; the stale sweep scans status + updated_at.
		return mghelper.CreateModelIndexes(ctx, db, &bridgestore.TransactionDao{},
			"owner_id", "status", "created_at", "updated_at")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping bridge_transactions table...")
		return mghelper.DropTables(ctx, db, &bridgestore.TransactionDao{})
	})
}
