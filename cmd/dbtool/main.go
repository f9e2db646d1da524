package main

import (
	"log"

	"truck-tracking-service/internal/adapters/repositories"
	"truck-tracking-service/internal/platform/config"
	"truck-tracking-service/internal/platform/db"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"
)

// dbtool initializes the tracking store schema without starting the
// server. Useful for provisioning a fresh Postgres database before the
// first deploy.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg := config.Load()

	if cfg.DatabaseURL != "" {
		store, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatal(err)
		}
		defer store.Close()

		log.Println("Initializing postgres schema...")
		if err := repositories.InitSchema(store, repositories.DialectPostgres); err != nil {
			log.Fatalf("schema initialization failed: %v", err)
		}
		log.Println("Schema ready.")
		return
	}

	store, err := db.OpenSQLite(cfg.SQLitePath)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	log.Printf("Initializing sqlite schema path=%s", cfg.SQLitePath)
	if err := repositories.InitSchema(store, repositories.DialectSqlite); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")
}
