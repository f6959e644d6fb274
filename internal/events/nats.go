package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// conn is the part of *nats.Conn the publisher uses.
type conn interface {
	Publish(subj string, data []byte) error
}

// NATSPublisher publishes JSON messages to <prefix>.<status>.
type NATSPublisher struct {
	nc     conn
	prefix string
}

var _ Publisher = (*NATSPublisher)(nil)

// NewNATSPublisher wraps an established connection.
func NewNATSPublisher(nc conn, prefix string) *NATSPublisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATSPublisher{nc: nc, prefix: prefix}
}

// Subject returns the subject a message with status is published on.
func (p *NATSPublisher) Subject(status string) string {
	if status == "" {
		status = "unknown"
	}
	return p.prefix + "." + status
}

// Publish marshals msg and hands it to the connection. NATS core publish is
// fire-and-forget; ctx is checked only before sending.
func (p *NATSPublisher) Publish(ctx context.Context, msg SubscriptionStatusChanged) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("events: marshal status change: %w", err)
	}
	if err := p.nc.Publish(p.Subject(string(msg.Status)), data); err != nil {
		return fmt.Errorf("events: publish status change: %w", err)
	}
	return nil
}

// Connect dials NATS with reconnects enabled. The caller drains the
// returned connection on shutdown.
func Connect(url, name string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("events: connect to nats: %w", err)
	}
	return nc, nil
}
