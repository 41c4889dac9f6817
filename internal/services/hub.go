package services

import (
	"context"
	"sync"
	"time"

	"beacon-guardian/internal/models"

	"github.com/gorilla/websocket"
)

// AlertPublisher receives every alert right after it is stored.
type AlertPublisher interface {
	PublishAlert(alert models.Alert)
}

type AlertEvent struct {
	Event string       `json:"event"`
	Alert models.Alert `json:"alert"`
}

// AlertHub fans newly raised alerts out to websocket subscribers of the owning tenant.
type AlertHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]string
	ch      chan models.Alert
}

func NewAlertHub() *AlertHub {
	return &AlertHub{
		clients: map[*websocket.Conn]string{},
		ch:      make(chan models.Alert, 64),
	}
}

func (h *AlertHub) Run(ctx context.Context) {
	for {
		select {
		case alert := <-h.ch:
			h.deliver(alert)
		case <-ctx.Done():
			h.mu.Lock()
			for conn := range h.clients {
				_ = conn.Close()
			}
			h.clients = map[*websocket.Conn]string{}
			h.mu.Unlock()
			return
		}
	}
}

// PublishAlert never blocks; alerts are dropped when the buffer is full.
func (h *AlertHub) PublishAlert(alert models.Alert) {
	select {
	case h.ch <- alert:
	default:
	}
}

func (h *AlertHub) Add(conn *websocket.Conn, tenantID string) {
	h.mu.Lock()
	h.clients[conn] = tenantID
	h.mu.Unlock()
}

// Subscribers counts the connections listening to a tenant.
func (h *AlertHub) Subscribers(tenantID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	count := 0
	for _, id := range h.clients {
		if id == tenantID {
			count++
		}
	}
	return count
}

func (h *AlertHub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

func (h *AlertHub) deliver(alert models.Alert) {
	h.mu.Lock()
	targets := make([]*websocket.Conn, 0, len(h.clients))
	for conn, tenantID := range h.clients {
		if tenantID == alert.TenantID {
			targets = append(targets, conn)
		}
	}
	h.mu.Unlock()

	event := AlertEvent{Event: "alert.created", Alert: alert}
	for _, conn := range targets {
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(event); err != nil {
			h.Remove(conn)
			_ = conn.Close()
		}
	}
}
