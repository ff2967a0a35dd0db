// Package main implements the Rolodex API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/RolodexAI/rolodex-mvp/engine/answer"
	"github.com/RolodexAI/rolodex-mvp/engine/ask"
	"github.com/RolodexAI/rolodex-mvp/engine/prompt"
	"github.com/RolodexAI/rolodex-mvp/engine/records"
	"github.com/RolodexAI/rolodex-mvp/engine/retrieve"
	"github.com/RolodexAI/rolodex-mvp/engine/semantic"
	"github.com/RolodexAI/rolodex-mvp/pkg/metrics"
	"github.com/RolodexAI/rolodex-mvp/pkg/mid"
	"github.com/RolodexAI/rolodex-mvp/pkg/natsutil"
	"github.com/RolodexAI/rolodex-mvp/pkg/ollama"
)

// Config holds all environment-based configuration.
type Config struct {
	Port       string        `env:"PORT" envDefault:"8080"`
	Neo4jURL   string        `env:"NEO4J_URL" envDefault:"neo4j://localhost:7687"`
	Neo4jUser  string        `env:"NEO4J_USER" envDefault:"neo4j"`
	Neo4jPass  string        `env:"NEO4J_PASS" envDefault:"password"`
	OllamaURL  string        `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	ChatModel  string        `env:"CHAT_MODEL" envDefault:"llama3.2"`
	EmbedModel string        `env:"EMBED_MODEL" envDefault:"nomic-embed-text"`
	Retriever  string        `env:"RETRIEVER" envDefault:"lexical"` // lexical or semantic
	QdrantURL  string        `env:"QDRANT_URL" envDefault:"localhost:6334"`
	Collection string        `env:"QDRANT_COLLECTION" envDefault:"rolodex"`
	NatsURL    string        `env:"NATS_URL"` // empty disables audit events
	AuditSubj  string        `env:"AUDIT_SUBJECT" envDefault:"rolodex.audit.ask"`
	CORSOrigin string        `env:"CORS_ORIGIN" envDefault:"*"`
	AskTimeout time.Duration `env:"ASK_TIMEOUT" envDefault:"90s"`
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	_ = godotenv.Load()
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		logger.Error("config parse failed", "err", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Connect to Neo4j ---
	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURL, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
	if err != nil {
		return fmt.Errorf("neo4j driver: %w", err)
	}
	defer driver.Close(ctx)

	store := records.NewStore(driver, records.DefaultOptions())

	// --- Model runtime ---
	model := ollama.NewGenerateClient(cfg.OllamaURL, cfg.ChatModel, ollama.DefaultGenerateOpts)

	// --- Retriever ---
	var retriever ask.ContextRetriever
	switch cfg.Retriever {
	case "semantic":
		vectors, err := semantic.New(cfg.QdrantURL, cfg.Collection)
		if err != nil {
			return fmt.Errorf("qdrant connect: %w", err)
		}
		defer vectors.Close()
		embed := ollama.NewEmbedClient(cfg.OllamaURL, cfg.EmbedModel)
		retriever = retrieve.NewSemantic(embed, vectors, retrieve.DefaultOptions(), logger)
	default:
		retriever = retrieve.NewLexical(store, retrieve.DefaultOptions(), logger)
	}

	builder, err := prompt.New(prompt.DefaultOptions())
	if err != nil {
		return fmt.Errorf("prompt builder: %w", err)
	}

	// --- Ask service ---
	reg := metrics.New()
	svcOpts := []ask.Option{metricsSink(reg)}
	if cfg.NatsURL != "" {
		nc, err := nats.Connect(cfg.NatsURL, nats.Name("rolodex-api"))
		if err != nil {
			return fmt.Errorf("nats connect: %w", err)
		}
		defer nc.Close()
		svcOpts = append(svcOpts, ask.WithEventSink(func(ctx context.Context, ev ask.Event) {
			if err := natsutil.Publish(ctx, nc, cfg.AuditSubj, ev); err != nil {
				logger.Warn("audit publish failed", "err", err)
			}
		}))
	}
	svc := ask.New(retriever, builder, model, answer.New(answer.DefaultOptions(), logger), logger, svcOpts...)

	// --- HTTP server ---
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth(store, model))
	mux.HandleFunc("POST /api/ask", handleAsk(svc, cfg.AskTimeout, logger))
	mux.Handle("GET /metrics", reg.Handler())

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.RequestID(),
		mid.Logger(logger),
		mid.OTel("rolodex-api"),
		mid.CORS(cfg.CORSOrigin),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * cfg.AskTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port, "retriever", cfg.Retriever)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// metricsSink counts completed cycles by outcome and observes latency.
func metricsSink(reg *metrics.Registry) ask.Option {
	hist := reg.Histogram("ask_duration_seconds", "end-to-end ask latency", nil)
	return ask.WithEventSink(func(_ context.Context, ev ask.Event) {
		outcome := "ok"
		if ev.Failure != "" {
			outcome = ev.Failure
		}
		reg.Counter(metrics.WithLabels("asks_total", "outcome", outcome), "completed ask cycles").Inc()
		hist.Observe(ev.Elapsed.Seconds())
	})
}
