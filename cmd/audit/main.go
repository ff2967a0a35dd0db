// Command audit consumes ask-cycle events from NATS and writes them to
// stdout as structured log lines. Run one or more instances; the queue group
// shares the subject between them.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"github.com/RolodexAI/rolodex-mvp/engine/ask"
	"github.com/RolodexAI/rolodex-mvp/pkg/natsutil"
)

type config struct {
	NatsURL   string `env:"NATS_URL" envDefault:"nats://localhost:4222"`
	AuditSubj string `env:"AUDIT_SUBJECT" envDefault:"rolodex.audit.ask"`
	Queue     string `env:"AUDIT_QUEUE" envDefault:"rolodex-audit"`
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

	nc, err := nats.Connect(cfg.NatsURL, nats.Name("rolodex-audit"))
	if err != nil {
		logger.Error("nats connect", "err", err)
		os.Exit(1)
	}
	defer nc.Close()

	sub, err := natsutil.QueueSubscribe(nc, cfg.AuditSubj, cfg.Queue, func(_ context.Context, ev ask.Event) {
		attrs := []any{
			"question", ev.Question,
			"grounded", ev.Answer.Grounded,
			"sources", len(ev.Answer.Sources),
			"confidence", ev.Answer.Confidence,
			"retrieved", ev.Retrieved,
			"elapsed", ev.Elapsed,
			"at", ev.At,
		}
		if ev.ContactScope != "" {
			attrs = append(attrs, "contact_scope", ev.ContactScope)
		}
		if ev.Failure != "" {
			logger.Error("ask cycle failed", append(attrs, "failure", ev.Failure)...)
			return
		}
		logger.Info("ask cycle", attrs...)
	})
	if err != nil {
		logger.Error("subscribe", "err", err)
		os.Exit(1)
	}
	defer sub.Unsubscribe()

	logger.Info("audit consumer running", "subject", cfg.AuditSubj, "queue", cfg.Queue)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
}
