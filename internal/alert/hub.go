// Package alert pushes security-relevant operational events (integrity
// failures, audit-write failures, account lockouts) to connected monitoring
// clients. Delivery is best effort; the triggering operation never blocks on
// a slow consumer.
package alert

import (
	"encoding/json"
	"sync"
	"time"
)

// Alert kinds.
const (
	KindIntegrityFailure = "integrity_failure"
	KindAuditWriteFailed = "audit_write_failed"
	KindAccountLocked    = "account_locked"
	KindSuspicious       = "suspicious_activity"
)

type Alert struct {
	Kind   string    `json:"kind"`
	Entity string    `json:"entity,omitempty"`
	Detail string    `json:"detail"`
	At     time.Time `json:"at"`
}

// Sink receives operational alerts.
type Sink interface {
	Broadcast(alert Alert)
}

type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, client)
}

func (h *Hub) Broadcast(alert Alert) {
	if alert.At.IsZero() {
		alert.At = time.Now()
	}
	payload, _ := json.Marshal(alert)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
		}
	}
}
