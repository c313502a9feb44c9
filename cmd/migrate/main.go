package main

import (
	"errors"
	"flag"
	"log"
	"storefront/internal/pkg/config"
	"storefront/pkg/database"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	var (
		source = flag.String("source", "file://migrations", "Migration source URL")
		down   = flag.Bool("down", false, "Roll back one step")
		force  = flag.Int("force", -1, "Force a version after fixing a dirty database")
	)
	flag.Parse()

	config.LoadConfig()
	m, err := migrate.New(*source, database.MigrateDSN(config.GlobalConfig.Database))
	if err != nil {
		log.Fatal(err)
	}
	defer m.Close()

	if *force >= 0 {
		if err := m.Force(*force); err != nil {
			log.Fatal("Failed to force version:", err)
		}
		log.Printf("Forced version %d", *force)
		return
	}

	if *down {
		err = m.Steps(-1)
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		var dirty migrate.ErrDirty
		if errors.As(err, &dirty) {
			log.Fatalf("Database is dirty at version %d, fix it and rerun with -force %d", dirty.Version, dirty.Version-1)
		}
		log.Fatal(err)
	}

	version, dirty, _ := m.Version()
	log.Printf("Migration successful, version=%d dirty=%v", version, dirty)
}
