package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/RolodexAI/rolodex-mvp/engine/domain"
)

// asker is the part of ask.Service the handler needs.
type asker interface {
	Ask(ctx context.Context, q domain.Query) (domain.Answer, error)
}

// pinger reports reachability of a dependency.
type pinger interface {
	Ping(ctx context.Context) error
}

// AskRequest is the JSON body for POST /api/ask.
type AskRequest struct {
	Question     string `json:"question"`
	ContactScope string `json:"contact_scope,omitempty"`
}

// AskResponse mirrors domain.Answer on the wire.
type AskResponse struct {
	Answer     string   `json:"answer"`
	Sources    []string `json:"sources"`
	Confidence float64  `json:"confidence"`
	Grounded   bool     `json:"grounded"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Failure string `json:"failure,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps the failure taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyQuestion),
		errors.Is(err, domain.ErrQuestionTooLong),
		errors.Is(err, domain.ErrQuestionUnsafe):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrContextTooLarge):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrStoreTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrStoreUnavailable),
		errors.Is(err, domain.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func handleAsk(svc asker, timeout time.Duration, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		ans, err := svc.Ask(ctx, domain.Query{
			Question:     req.Question,
			ContactScope: req.ContactScope,
			IssuedAt:     time.Now().UTC(),
		})
		if err != nil {
			status := statusFor(err)
			if status == http.StatusInternalServerError {
				logger.Error("ask failed", "err", err)
				writeJSON(w, status, errorResponse{Error: "internal server error"})
				return
			}
			writeJSON(w, status, errorResponse{Error: err.Error(), Failure: domain.FailureName(err)})
			return
		}

		writeJSON(w, http.StatusOK, AskResponse{
			Answer:     ans.Text,
			Sources:    ans.Sources,
			Confidence: ans.Confidence,
			Grounded:   ans.Grounded,
		})
	}
}

// handleHealth reports dependency reachability. The store must answer; the
// model runtime is reported but does not fail the check, since empty-context
// questions are answerable without it.
func handleHealth(store, model pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := map[string]string{"status": "ok", "store": "ok", "model": "ok"}
		code := http.StatusOK
		if err := store.Ping(ctx); err != nil {
			status["status"] = "degraded"
			status["store"] = err.Error()
			code = http.StatusServiceUnavailable
		}
		if err := model.Ping(ctx); err != nil {
			status["model"] = err.Error()
		}
		writeJSON(w, code, status)
	}
}
