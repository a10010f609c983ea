package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/BurntNail/denim/internal/config"
	"github.com/BurntNail/denim/internal/db"
)

func usage() {
	fmt.Fprintln(os.Stderr, `usage: migrate <command>

commands:
  up              apply all pending migrations
  down <version>  roll back to the given schema version
  version         print the current schema version`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg := config.Load()
	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connection failed: %v", err)
	}
	defer pool.Close()

	migrator := db.NewMigrator(pool)

	switch os.Args[1] {
	case "up":
		applied, err := migrator.Up(ctx)
		if err != nil {
			log.Fatalf("migrate up failed: %v", err)
		}
		fmt.Printf("applied %d migration(s)\n", applied)
	case "down":
		if len(os.Args) < 3 {
			usage()
		}
		target, err := strconv.Atoi(os.Args[2])
		if err != nil {
			usage()
		}
		reverted, err := migrator.Down(ctx, target)
		if err != nil {
			log.Fatalf("migrate down failed: %v", err)
		}
		fmt.Printf("reverted %d migration(s)\n", reverted)
	case "version":
		version, err := migrator.Version(ctx)
		if err != nil {
			log.Fatalf("version check failed: %v", err)
		}
		fmt.Println(version)
	default:
		usage()
	}
}
