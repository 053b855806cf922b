package main

import (
	"context"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"neurosync/adapters/plv"
	"neurosync/adapters/postgres"
	"neurosync/adapters/rng"
	"neurosync/app"
	"neurosync/internal/config"
	"neurosync/internal/testkit"
	"neurosync/ports"
	"neurosync/ui"
)

func main() {
	// Load .env file if present
	if err := godotenv.Load(); err != nil {
		log.Printf("[Main] no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Main] failed to load configuration: %v", err)
	}

	repo, err := buildRepository(cfg)
	if err != nil {
		log.Fatalf("[Main] failed to initialize repository: %v", err)
	}

	source := testkit.NewSyntheticSource(testkit.DefaultSyntheticConfig())
	engine := plv.NewEngine(rng.New(), cfg.Analysis.Workers)

	analysis := app.NewAnalysisService(source, repo, engine)
	modeling := app.NewModelingService(source)

	server := ui.NewServer(analysis, modeling, cfg.Server.Port)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("[Main] server stopped: %v", err)
	}
}

// buildRepository connects to PostgreSQL when DATABASE_URL is set and
// falls back to the in-memory store otherwise.
func buildRepository(cfg *config.Config) (ports.ResultRepository, error) {
	if cfg.Database.URL == "" {
		log.Printf("[Main] DATABASE_URL not set, using in-memory repository")
		return testkit.NewMemoryRepository(), nil
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := postgres.Migrate(ctx, db); err != nil {
		return nil, err
	}

	log.Printf("[Main] connected to PostgreSQL")
	return postgres.NewResultRepository(db), nil
}
