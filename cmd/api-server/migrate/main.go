package main

import (
	"flag"
	"log"

	"github.com/chainsafe/crosschain-middleware/pkg/config"
	"github.com/chainsafe/crosschain-middleware/pkg/migrations/bridgedb"
	"github.com/chainsafe/crosschain-middleware/pkg/pgutil"
	mghelper "github.com/chainsafe/crosschain-middleware/pkg/pgutil/migrations"

	"github.com/uptrace/bun/migrate"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Usage = mghelper.Usage
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("error reading configuration file: %s", err.Error())
	}

	db, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		log.Fatalf("error connecting to database: %s", err.Error())
	}
	defer db.Close()

	log.Printf("Running migrations for bridge database (%s)...\n", cfg.Database.Database)

	migrator := migrate.NewMigrator(db, bridgedb.Migrations)

	err = mghelper.RunMigrations(migrator, flag.Args()...)
	if err != nil {
		mghelper.Exitf(err.Error())
	}
}
