package fanout

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/go-redis/redis/v8"
)

const (
	redisChannelPrefix  = "document:"
	redisChannelSuffix  = ":edits"
	redisChannelPattern = "document:*:edits"
)

// RedisBus implements Bus over Redis pub/sub, one channel per document
// (document:<id>:edits). Subscribers use PSUBSCRIBE so new documents need no
// additional wiring.
type RedisBus struct {
	client *redis.Client
	pubsub *redis.PubSub
}

// NewRedisBus returns a Bus on the given Redis client.
func NewRedisBus(client *redis.Client) *RedisBus {
	return &RedisBus{client: client}
}

// Publish sends the message to the document's edit channel.
func (b *RedisBus) Publish(ctx context.Context, msg EditMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	channel := redisChannelPrefix + msg.DocumentID + redisChannelSuffix
	return b.client.Publish(ctx, channel, payload).Err()
}

// Subscribe pattern-subscribes to all document edit channels and dispatches
// each message to h on a dedicated goroutine. Malformed payloads are logged
// and skipped.
func (b *RedisBus) Subscribe(ctx context.Context, h Handler) error {
	b.pubsub = b.client.PSubscribe(ctx, redisChannelPattern)
	// Force the subscription onto the wire before returning.
	if _, err := b.pubsub.Receive(ctx); err != nil {
		_ = b.pubsub.Close()
		b.pubsub = nil
		return err
	}
	ch := b.pubsub.Channel()
	go func() {
		for m := range ch {
			var msg EditMessage
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				log.Printf("fanout: dropping malformed message on %s: %v", m.Channel, err)
				continue
			}
			if msg.DocumentID == "" {
				msg.DocumentID = documentIDFromChannel(m.Channel)
			}
			h(msg)
		}
	}()
	return nil
}

// Close tears down the subscription. The underlying client is owned by the caller.
func (b *RedisBus) Close() error {
	if b.pubsub != nil {
		return b.pubsub.Close()
	}
	return nil
}

func documentIDFromChannel(channel string) string {
	s := strings.TrimPrefix(channel, redisChannelPrefix)
	return strings.TrimSuffix(s, redisChannelSuffix)
}
