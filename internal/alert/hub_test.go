package alert

import (
	"encoding/json"
	"testing"
	"time"
)

func TestHubBroadcastDeliversToClients(t *testing.T) {
	hub := NewHub()
	client := &Client{send: make(chan []byte, 4)}
	hub.Register(client)

	hub.Broadcast(Alert{Kind: KindIntegrityFailure, Entity: "wallet", Detail: "ciphertext failed authentication"})

	select {
	case payload := <-client.send:
		var got Alert
		if err := json.Unmarshal(payload, &got); err != nil {
			t.Fatalf("payload is not json: %v", err)
		}
		if got.Kind != KindIntegrityFailure || got.Entity != "wallet" {
			t.Fatalf("unexpected alert: %#v", got)
		}
		if got.At.IsZero() {
			t.Fatal("expected timestamp to be filled")
		}
	default:
		t.Fatal("expected delivery")
	}
}

func TestHubBroadcastSkipsSlowConsumer(t *testing.T) {
	hub := NewHub()
	slow := &Client{send: make(chan []byte)}
	hub.Register(slow)

	done := make(chan struct{})
	go func() {
		hub.Broadcast(Alert{Kind: KindAccountLocked, Detail: "locked"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast must not block on a slow consumer")
	}
}

func TestHubUnregisterStopsDelivery(t *testing.T) {
	hub := NewHub()
	client := &Client{send: make(chan []byte, 4)}
	hub.Register(client)
	hub.Unregister(client)

	hub.Broadcast(Alert{Kind: KindSuspicious, Detail: "replay"})
	select {
	case <-client.send:
		t.Fatal("unexpected delivery after unregister")
	default:
	}
}
