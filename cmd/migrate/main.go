// Command migrate applies or rolls back the SQL migrations by hand, outside
// of the API server's automatic migration on startup.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"coinkeep/internal/database"
)

func main() {
	var (
		dir   = flag.String("dir", "migrations", "directory holding the SQL migration files")
		down  = flag.Bool("down", false, "roll back one migration instead of applying all pending ones")
		steps = flag.Int("steps", 0, "apply exactly N migrations (negative rolls back)")
	)
	flag.Parse()

	if err := run(*dir, *down, *steps); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

func run(dir string, down bool, steps int) error {
	cfg, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("loading database configuration: %w", err)
	}

	m, err := migrate.New("file://"+dir, cfg.URL())
	if err != nil {
		return fmt.Errorf("opening migrations: %w", err)
	}
	defer m.Close()

	switch {
	case steps != 0:
		err = m.Steps(steps)
	case down:
		err = m.Steps(-1)
	default:
		err = m.Up()
	}
	if err == migrate.ErrNoChange {
		fmt.Println("no pending migrations")
		return nil
	}
	if err != nil {
		return err
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("reading migration version: %w", err)
	}
	fmt.Printf("migrated to version %d (dirty=%v)\n", version, dirty)
	return nil
}
