package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"evfleet-console/internal/adapters/snapshot"
	"evfleet-console/internal/config"
	"evfleet-console/internal/platform/db"
)

// dbtool manages the shared postgres snapshot store:
//
//	init   create the snapshot schema
//	prune  delete snapshots older than SNAPSHOT_MAX_AGE (default 72h)
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	database, err := db.Open(databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close()

	cmd := "init"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cmd {
	case "init":
		log.Println("Initializing snapshot schema...")
		if err := snapshot.InitSchema(ctx, database); err != nil {
			log.Fatalf("schema initialization failed: %v", err)
		}
		log.Println("Schema ready.")
	case "prune":
		maxAge := config.GetDuration("SNAPSHOT_MAX_AGE", 72*time.Hour)
		store := snapshot.NewSQLSnapshotStore(database, zerolog.Nop())
		n, err := store.Prune(ctx, maxAge)
		if err != nil {
			log.Fatalf("prune failed: %v", err)
		}
		log.Printf("Pruned %d snapshot(s) older than %s.", n, maxAge)
	default:
		log.Fatalf("unknown command %q (want init or prune)", cmd)
	}
}
