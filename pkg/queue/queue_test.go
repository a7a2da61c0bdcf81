package queue

import (
	"encoding/json"
	"testing"
	"time"
)

func TestMessageRoundTrip(t *testing.T) {
	payload, err := json.Marshal(map[string]string{"id": "job-1"})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	in := Message{
		ID:         "m1",
		Type:       "scan_request",
		Payload:    payload,
		Attempts:   2,
		EnqueuedAt: time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC),
	}

	wire, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal message: %v", err)
	}
	var out Message
	if err := json.Unmarshal(wire, &out); err != nil {
		t.Fatalf("unmarshal message: %v", err)
	}
	if out.ID != in.ID || out.Type != in.Type || out.Attempts != in.Attempts {
		t.Fatalf("round trip mismatch: %+v", out)
	}
	if string(out.Payload) != string(in.Payload) {
		t.Fatalf("payload changed: %s", out.Payload)
	}
}

func TestDecodePayload(t *testing.T) {
	type req struct {
		ID      string   `json:"id"`
		Symbols []string `json:"symbols"`
	}

	got, err := DecodePayload[req](json.RawMessage(`{"id":"j1","symbols":["TCS"]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "j1" || len(got.Symbols) != 1 || got.Symbols[0] != "TCS" {
		t.Fatalf("unexpected payload %+v", got)
	}

	if _, err := DecodePayload[req](json.RawMessage(`42`)); err == nil {
		t.Fatalf("expected decode error for wrong shape")
	}
}
