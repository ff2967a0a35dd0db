// Command indexer rebuilds the vector index from the record store. It renders
// every contact and note to text, embeds the text via Ollama, and upserts the
// vectors into Qdrant for the semantic retriever.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/RolodexAI/rolodex-mvp/engine/domain"
	"github.com/RolodexAI/rolodex-mvp/engine/records"
	"github.com/RolodexAI/rolodex-mvp/engine/semantic"
	"github.com/RolodexAI/rolodex-mvp/pkg/fn"
	"github.com/RolodexAI/rolodex-mvp/pkg/metrics"
	"github.com/RolodexAI/rolodex-mvp/pkg/ollama"
)

type config struct {
	Neo4jURL    string `env:"NEO4J_URL" envDefault:"neo4j://localhost:7687"`
	Neo4jUser   string `env:"NEO4J_USER" envDefault:"neo4j"`
	Neo4jPass   string `env:"NEO4J_PASS" envDefault:"password"`
	OllamaURL   string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	EmbedModel  string `env:"EMBED_MODEL" envDefault:"nomic-embed-text"`
	EmbedDims   int    `env:"EMBED_DIMS" envDefault:"768"`
	QdrantURL   string `env:"QDRANT_URL" envDefault:"localhost:6334"`
	Collection  string `env:"QDRANT_COLLECTION" envDefault:"rolodex"`
	Workers     int    `env:"INDEX_WORKERS" envDefault:"4"`
	MetricsPort int    `env:"METRICS_PORT"` // 0 disables the endpoint
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	_ = godotenv.Load()
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		logger.Error("config parse failed", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("indexing failed", "err", err)
		os.Exit(1)
	}
}

// indexed pairs a record with its rendered text before embedding.
type indexed struct {
	rec  semantic.IndexRecord
	text string
	err  error
}

func run(ctx context.Context, cfg config, logger *slog.Logger) error {
	reg := metrics.New()
	if cfg.MetricsPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", reg.Handler())
		go func() {
			if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.MetricsPort), mux); err != nil {
				logger.Error("metrics server", "error", err)
			}
		}()
	}
	embedded := reg.Counter("records_embedded_total", "records embedded this run")
	failed := reg.Counter("records_failed_total", "records that failed to embed")
	duration := reg.Histogram("index_duration_seconds", "full run duration", nil)
	start := time.Now()

	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURL, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
	if err != nil {
		return fmt.Errorf("neo4j driver: %w", err)
	}
	defer driver.Close(ctx)
	store := records.NewStore(driver, records.DefaultOptions())

	vectors, err := semantic.New(cfg.QdrantURL, cfg.Collection)
	if err != nil {
		return fmt.Errorf("qdrant connect: %w", err)
	}
	defer vectors.Close()
	if err := vectors.EnsureCollection(ctx, cfg.EmbedDims); err != nil {
		return err
	}

	embedder := ollama.NewEmbedClient(cfg.OllamaURL, cfg.EmbedModel)

	contacts, err := store.Contacts(ctx, "")
	if err != nil {
		return err
	}
	notes, err := store.Notes(ctx, "")
	if err != nil {
		return err
	}
	logger.Info("indexing records", "contacts", len(contacts), "notes", len(notes))

	names := make(map[string]string, len(contacts))
	for _, c := range contacts {
		names[c.ID] = c.Name
	}

	var pending []indexed
	for _, c := range contacts {
		pending = append(pending, indexed{
			text: domain.RenderContact(c),
			rec:  semantic.IndexRecord{ID: c.ID, Kind: string(domain.KindContact), ContactID: c.ID},
		})
	}
	for _, n := range notes {
		pending = append(pending, indexed{
			text: domain.RenderNote(n, names[n.ContactID]),
			rec: semantic.IndexRecord{
				ID: n.ID, Kind: string(domain.KindNote),
				ContactID: n.ContactID, CreatedAt: n.CreatedAt.Unix(),
			},
		})
	}

	done := fn.ParMap(pending, cfg.Workers, func(it indexed) indexed {
		vec, err := embedder.Embed(ctx, it.text)
		if err != nil {
			it.err = err
			return it
		}
		it.rec.Embedding = vec
		it.rec.Text = it.text
		return it
	})

	var batch []semantic.IndexRecord
	for _, it := range done {
		if it.err != nil {
			failed.Inc()
			logger.Warn("embed failed", "id", it.rec.ID, "err", it.err)
			continue
		}
		embedded.Inc()
		batch = append(batch, it.rec)
	}

	for _, chunk := range fn.Chunk(batch, 64) {
		if err := vectors.Upsert(ctx, chunk); err != nil {
			return fmt.Errorf("upsert: %w", err)
		}
	}

	duration.Since(start)
	logger.Info("indexing done",
		"embedded", embedded.Value(),
		"failed", failed.Value(),
		"elapsed", time.Since(start),
	)
	return nil
}
