// Command seed loads the demo contacts and notes into Neo4j. Meant for a
// fresh local database.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/RolodexAI/rolodex-mvp/engine/records"
)

type config struct {
	Neo4jURL  string `env:"NEO4J_URL" envDefault:"neo4j://localhost:7687"`
	Neo4jUser string `env:"NEO4J_USER" envDefault:"neo4j"`
	Neo4jPass string `env:"NEO4J_PASS" envDefault:"password"`
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	_ = godotenv.Load()
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		logger.Error("config parse failed", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURL, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
	if err != nil {
		logger.Error("neo4j driver", "err", err)
		os.Exit(1)
	}
	defer driver.Close(ctx)

	store := records.NewStore(driver, records.DefaultOptions())
	if err := store.Seed(ctx); err != nil {
		logger.Error("seed failed", "err", err)
		os.Exit(1)
	}
	logger.Info("seeded demo data",
		"contacts", len(records.DemoContacts),
		"notes", len(records.DemoNotes),
	)
}
