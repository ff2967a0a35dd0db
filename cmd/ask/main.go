// Package main is a one-shot CLI for asking the pipeline a question without
// running the API server. Useful for local checks against a seeded store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/RolodexAI/rolodex-mvp/engine/answer"
	"github.com/RolodexAI/rolodex-mvp/engine/ask"
	"github.com/RolodexAI/rolodex-mvp/engine/domain"
	"github.com/RolodexAI/rolodex-mvp/engine/prompt"
	"github.com/RolodexAI/rolodex-mvp/engine/records"
	"github.com/RolodexAI/rolodex-mvp/engine/retrieve"
	"github.com/RolodexAI/rolodex-mvp/pkg/ollama"
)

type config struct {
	Neo4jURL  string `env:"NEO4J_URL" envDefault:"neo4j://localhost:7687"`
	Neo4jUser string `env:"NEO4J_USER" envDefault:"neo4j"`
	Neo4jPass string `env:"NEO4J_PASS" envDefault:"password"`
	OllamaURL string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	ChatModel string `env:"CHAT_MODEL" envDefault:"llama3.2"`
}

func main() {
	contact := flag.String("contact", "", "restrict retrieval to one contact ID")
	verbose := flag.Bool("v", false, "log pipeline steps")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: ask [-contact ID] [-v] <question>")
		os.Exit(2)
	}
	question := strings.Join(flag.Args(), " ")

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	_ = godotenv.Load()
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		logger.Error("config parse failed", "err", err)
		os.Exit(1)
	}

	if err := run(cfg, question, *contact, logger); err != nil {
		logger.Error("ask failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg config, question, contact string, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURL, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
	if err != nil {
		return fmt.Errorf("neo4j driver: %w", err)
	}
	defer driver.Close(ctx)

	store := records.NewStore(driver, records.DefaultOptions())
	builder, err := prompt.New(prompt.DefaultOptions())
	if err != nil {
		return err
	}

	svc := ask.New(
		retrieve.NewLexical(store, retrieve.DefaultOptions(), logger),
		builder,
		ollama.NewGenerateClient(cfg.OllamaURL, cfg.ChatModel, ollama.DefaultGenerateOpts),
		answer.New(answer.DefaultOptions(), logger),
		logger,
	)

	ans, err := svc.Ask(ctx, domain.Query{Question: question, ContactScope: contact, IssuedAt: time.Now().UTC()})
	if err != nil {
		return err
	}

	fmt.Println(ans.Text)
	if len(ans.Sources) > 0 {
		fmt.Printf("\nsources: %s\n", strings.Join(ans.Sources, ", "))
	}
	fmt.Printf("confidence: %.2f  grounded: %v\n", ans.Confidence, ans.Grounded)
	return nil
}
