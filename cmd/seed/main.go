package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"docwindow/internal/config"
	"docwindow/internal/repository/postgres"
	"docwindow/internal/seed"

	"github.com/joho/godotenv"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop the demo tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up the schema, don't insert sample data")
	clearData := flag.Bool("clear-data", false, "Clear sample data (keep schema)")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("BLOCKED: refusing destructive flags (--drop-tables, --clear-data) in production")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	seeder := seed.NewDemoSeeder(pool, logger)

	if *dropTables {
		if err := seeder.DropTables(ctx); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
	}
	if *clearData {
		if err := seeder.ClearData(ctx); err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
		return
	}

	if err := seeder.SetupSchema(ctx); err != nil {
		log.Fatalf("Failed to set up schema: %v", err)
	}
	if *schemaOnly {
		return
	}
	if err := seeder.SeedData(ctx); err != nil {
		log.Fatalf("Failed to seed data: %v", err)
	}
	logger.Info("seed complete")
}
