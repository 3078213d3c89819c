package producer

import (
	"context"
	"encoding/json"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// OTelProducer implements Producer by emitting activity events as OTel log
// records, for deployments that ship activity through the collector instead
// of Kafka.
type OTelProducer struct {
	logger otellog.Logger
}

// NewOTelProducer returns a producer writing through the given
// LoggerProvider. Returns nil when provider is nil so callers can wire it
// unconditionally.
func NewOTelProducer(provider *sdklog.LoggerProvider) *OTelProducer {
	if provider == nil {
		return nil
	}
	return &OTelProducer{logger: provider.Logger("codesync.activity")}
}

// Emit converts the event to an OTel log record. The full event rides in the
// body as JSON; the identifying fields double as attributes for filtering.
func (p *OTelProducer) Emit(ctx context.Context, event ActivityEvent) error {
	if p == nil {
		return nil
	}
	rec := otellog.Record{}
	if event.At.IsZero() {
		rec.SetTimestamp(time.Now().UTC())
	} else {
		rec.SetTimestamp(event.At)
	}
	if body, err := json.Marshal(event); err == nil {
		rec.SetBody(otellog.BytesValue(body))
	}
	rec.AddAttributes(otellog.String("event_type", event.Type))
	if event.DocumentID != "" {
		rec.AddAttributes(otellog.String("document_id", event.DocumentID))
	}
	if event.UserID != "" {
		rec.AddAttributes(otellog.String("user_id", event.UserID))
	}
	if event.Username != "" {
		rec.AddAttributes(otellog.String("username", event.Username))
	}
	if event.Instance != "" {
		rec.AddAttributes(otellog.String("instance", event.Instance))
	}
	p.logger.Emit(ctx, rec)
	return nil
}

// Close is a no-op; the LoggerProvider owns exporter shutdown.
func (p *OTelProducer) Close() error { return nil }
