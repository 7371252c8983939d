package preview

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// RebuildEvent is published after every preview rebuild so other tooling
// (editors, CI dashboards) can react to the archive changing.
type RebuildEvent struct {
	ID        string    `json:"id"`
	Catalog   string    `json:"catalog"`
	Succeeded bool      `json:"succeeded"`
	Cancelled bool      `json:"cancelled,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventPublisher publishes rebuild events to a NATS subject. A nil
// publisher is valid and publishes nothing.
type EventPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewEventPublisher connects to NATS. The connection retries in the
// background; a preview session outlives broker restarts.
func NewEventPublisher(url, subject string) (*EventPublisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second))
	if err != nil {
		return nil, err
	}
	slog.Info("Publishing rebuild events", slog.String("nats_url", url), slog.String("subject", subject))
	return &EventPublisher{conn: conn, subject: subject}, nil
}

// Publish sends one rebuild event. Publish failures are logged, never
// fatal; the preview keeps serving without its event stream.
func (p *EventPublisher) Publish(event RebuildEvent) {
	if p == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now().UTC()
	data, err := json.Marshal(event)
	if err != nil {
		slog.Warn("Encode rebuild event failed", slog.Any("error", err))
		return
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		slog.Warn("Publish rebuild event failed", slog.Any("error", err))
	}
}

// Close drains the connection.
func (p *EventPublisher) Close() {
	if p == nil {
		return
	}
	_ = p.conn.Drain()
}
