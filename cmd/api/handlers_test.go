package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/RolodexAI/rolodex-mvp/engine/domain"
)

type stubAsker struct {
	ans domain.Answer
	err error
}

func (s *stubAsker) Ask(context.Context, domain.Query) (domain.Answer, error) {
	return s.ans, s.err
}

type stubPinger struct{ err error }

func (s *stubPinger) Ping(context.Context) error { return s.err }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func postAsk(t *testing.T, svc *stubAsker, body string) *httptest.ResponseRecorder {
	t.Helper()
	h := handleAsk(svc, time.Second, discard())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/api/ask", strings.NewReader(body)))
	return rec
}

func TestHandleAsk_OK(t *testing.T) {
	svc := &stubAsker{ans: domain.Answer{
		Text: "John's phone number is 555-0100.", Sources: []string{"c-john"},
		Confidence: 0.92, Grounded: true,
	}}
	rec := postAsk(t, svc, `{"question":"What's John's phone number?"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var resp AskResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Grounded || len(resp.Sources) != 1 || resp.Sources[0] != "c-john" {
		t.Errorf("got %+v", resp)
	}
}

func TestHandleAsk_BadBody(t *testing.T) {
	rec := postAsk(t, &stubAsker{}, "{nope")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status %d", rec.Code)
	}
}

func TestHandleAsk_FailureMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"empty question", domain.ErrEmptyQuestion, http.StatusBadRequest},
		{"unsafe question", domain.ErrQuestionUnsafe, http.StatusBadRequest},
		{"context too large", domain.Fail("prompt", domain.ErrContextTooLarge, "over budget"), http.StatusUnprocessableEntity},
		{"store timeout", domain.Fail("retrieve", domain.ErrStoreTimeout, "deadline"), http.StatusGatewayTimeout},
		{"store unavailable", domain.Fail("retrieve", domain.ErrStoreUnavailable, "refused"), http.StatusServiceUnavailable},
		{"model unavailable", domain.Fail("model", domain.ErrModelUnavailable, "down"), http.StatusServiceUnavailable},
		{"malformed response", domain.Fail("model", domain.ErrMalformedResponse, "garbage"), http.StatusBadGateway},
		{"unknown", errors.New("surprise"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postAsk(t, &stubAsker{err: tt.err}, `{"question":"q"}`)
			if rec.Code != tt.want {
				t.Errorf("status %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandleAsk_FailureNameInBody(t *testing.T) {
	svc := &stubAsker{err: domain.Fail("retrieve", domain.ErrStoreUnavailable, "refused")}
	rec := postAsk(t, svc, `{"question":"q"}`)

	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Failure != "StoreUnavailable" {
		t.Errorf("failure = %q", resp.Failure)
	}
}

func TestHandleHealth(t *testing.T) {
	t.Run("all up", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handleHealth(&stubPinger{}, &stubPinger{}).ServeHTTP(rec, httptest.NewRequest("GET", "/api/health", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("status %d", rec.Code)
		}
	})
	t.Run("store down", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handleHealth(&stubPinger{err: errors.New("refused")}, &stubPinger{}).
			ServeHTTP(rec, httptest.NewRequest("GET", "/api/health", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status %d", rec.Code)
		}
	})
	t.Run("model down is degraded not failing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handleHealth(&stubPinger{}, &stubPinger{err: errors.New("no runtime")}).
			ServeHTTP(rec, httptest.NewRequest("GET", "/api/health", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("status %d", rec.Code)
		}
	})
}
