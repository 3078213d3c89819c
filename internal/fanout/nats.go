package fanout

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	natsSubjectPrefix   = "document.edits."
	natsSubjectWildcard = "document.edits.>"
)

// NATSBus implements Bus over NATS core pub/sub, one subject per document
// (document.edits.<id>).
type NATSBus struct {
	conn *nats.Conn
	sub  *nats.Subscription
}

// NewNATSBus connects to the NATS server at url. The connection reconnects
// indefinitely; a dropped connection degrades to local-only delivery in the
// meantime.
func NewNATSBus(url, name string) (*NATSBus, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &NATSBus{conn: conn}, nil
}

// Publish sends the message to the document's subject.
func (b *NATSBus) Publish(ctx context.Context, msg EditMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.conn.Publish(natsSubjectPrefix+msg.DocumentID, payload)
}

// Subscribe wildcard-subscribes to every document subject. No queue group:
// every instance needs every message.
func (b *NATSBus) Subscribe(ctx context.Context, h Handler) error {
	sub, err := b.conn.Subscribe(natsSubjectWildcard, func(m *nats.Msg) {
		var msg EditMessage
		if err := json.Unmarshal(m.Data, &msg); err != nil {
			log.Printf("fanout: dropping malformed message on %s: %v", m.Subject, err)
			return
		}
		h(msg)
	})
	if err != nil {
		return err
	}
	b.sub = sub
	return nil
}

// Close drains the subscription and closes the connection.
func (b *NATSBus) Close() error {
	if b.sub != nil {
		if err := b.sub.Drain(); err != nil {
			log.Printf("fanout: drain: %v", err)
		}
	}
	b.conn.Close()
	return nil
}
