package natsutil

import (
	"context"
	"testing"

	"github.com/nats-io/nats.go"
)

type auditEvent struct {
	Question string  `json:"question"`
	Failure  string  `json:"failure,omitempty"`
	Elapsed  float64 `json:"elapsed"`
}

func TestHeaderCarrier(t *testing.T) {
	msg := &nats.Msg{}
	carrier := (*headerCarrier)(msg)

	carrier.Set("traceparent", "00-abc-def-01")
	if got := carrier.Get("traceparent"); got != "00-abc-def-01" {
		t.Fatalf("expected traceparent, got %q", got)
	}
	if keys := carrier.Keys(); len(keys) != 1 {
		t.Fatalf("unexpected keys: %v", keys)
	}
}

func TestHeaderCarrier_NilHeader(t *testing.T) {
	carrier := (*headerCarrier)(&nats.Msg{})
	if got := carrier.Get("missing"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
	if keys := carrier.Keys(); keys != nil {
		t.Fatalf("expected nil keys, got %v", keys)
	}
}

func TestDecode_DeliversTyped(t *testing.T) {
	var got auditEvent
	h := decode(func(_ context.Context, v auditEvent) { got = v })

	h(&nats.Msg{Data: []byte(`{"question":"who is john?","elapsed":0.12}`)})

	if got.Question != "who is john?" || got.Elapsed != 0.12 {
		t.Errorf("got %+v", got)
	}
}

func TestDecode_DropsMalformed(t *testing.T) {
	called := false
	h := decode(func(_ context.Context, _ auditEvent) { called = true })

	h(&nats.Msg{Data: []byte("{invalid json")})

	if called {
		t.Fatal("handler should not run for malformed message")
	}
}

func TestDecode_ExtractsContext(t *testing.T) {
	var ctx context.Context
	h := decode(func(c context.Context, _ auditEvent) { ctx = c })

	msg := &nats.Msg{Data: []byte(`{}`)}
	(*headerCarrier)(msg).Set("traceparent", "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01")
	h(msg)

	if ctx == nil {
		t.Fatal("handler should receive a context")
	}
}
