// Package main provides a CLI tool for database migrations.
// Migrations are embedded in the binary; the tool needs only the
// database path.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/ChrisThompsonK/team2-job-app-backend/migrations"
)

// Version is set at build time
var Version = "dev"

func main() {
	var (
		dbPath      = flag.String("db", getEnv("DB_PATH", "data/jobapp.db"), "SQLite database path")
		showVersion = flag.Bool("version", false, "Print version and exit")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <command> [args]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Database migration tool\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  up           Apply all pending migrations\n")
		fmt.Fprintf(os.Stderr, "  down [N]     Roll back all or N migrations\n")
		fmt.Fprintf(os.Stderr, "  version      Print current migration version\n")
		fmt.Fprintf(os.Stderr, "  force V      Set version V without running migrations\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Println(Version)
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	m, closeDB := newMigrator(*dbPath)
	defer closeDB()

	switch args[0] {
	case "up":
		runMigration(m.Up)
	case "down":
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				log.Fatalf("invalid step count: %s", args[1])
			}
			runMigration(func() error { return m.Steps(-n) })
		} else {
			runMigration(m.Down)
		}
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			if errors.Is(err, migrate.ErrNilVersion) {
				fmt.Println("no migrations applied")
				return
			}
			log.Fatalf("failed to read version: %v", err)
		}
		fmt.Printf("version %d (dirty: %t)\n", version, dirty)
	case "force":
		if len(args) < 2 {
			log.Fatal("force requires a version argument")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatalf("invalid version: %s", args[1])
		}
		if err := m.Force(v); err != nil {
			log.Fatalf("failed to force version: %v", err)
		}
		fmt.Printf("forced version to %d\n", v)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func newMigrator(dbPath string) (*migrate.Migrate, func()) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		log.Fatalf("failed to load embedded migrations: %v", err)
	}

	driver, err := migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
	if err != nil {
		log.Fatalf("failed to prepare migration driver: %v", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		log.Fatalf("failed to initialize migrations: %v", err)
	}

	return m, func() { db.Close() }
}

func runMigration(fn func() error) {
	if err := fn(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Println("no change")
			return
		}
		log.Fatalf("migration failed: %v", err)
	}
	fmt.Println("ok")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
