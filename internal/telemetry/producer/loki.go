package producer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// lokiPushRequest is the Loki push API request body (v1).
type lokiPushRequest struct {
	Streams []lokiStream `json:"streams"`
}

// lokiStream is a single stream with labels and log entries.
type lokiStream struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"` // each entry is [timestamp_ns, log_line]
}

// labelSanitize replaces characters that are invalid in Loki label values.
var labelSanitize = regexp.MustCompile(`[^a-zA-Z0-9_\-:]`)

// LokiProducer implements Producer by pushing activity events to Grafana
// Loki, one log line per event with labels for job, event_type, document_id,
// and instance.
type LokiProducer struct {
	baseURL string
	client  *http.Client
}

// NewLokiProducer returns a producer pushing to the Loki at baseURL
// (e.g. http://localhost:3100). Returns nil when baseURL is empty so callers
// can wire it unconditionally.
func NewLokiProducer(baseURL string) *LokiProducer {
	if strings.TrimSpace(baseURL) == "" {
		return nil
	}
	return &LokiProducer{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// Emit pushes the event as one stream entry. Returns an error if the HTTP
// request fails or Loki answers non-2xx.
func (p *LokiProducer) Emit(ctx context.Context, event ActivityEvent) error {
	if p == nil {
		return nil
	}
	line, err := json.Marshal(event)
	if err != nil {
		return err
	}
	ts := event.At
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	labels := map[string]string{"job": "codesync"}
	for k, v := range map[string]string{
		"event_type":  event.Type,
		"document_id": event.DocumentID,
		"instance":    event.Instance,
	} {
		sanitized := labelSanitize.ReplaceAllString(strings.TrimSpace(v), "_")
		if sanitized != "" {
			labels[k] = sanitized
		}
	}

	body := lokiPushRequest{
		Streams: []lokiStream{{
			Stream: labels,
			Values: [][]string{{strconv.FormatInt(ts.UnixNano(), 10), string(line)}},
		}},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/loki/api/v1/push", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("loki: push returned %s", resp.Status)
	}
	return nil
}

// Close is a no-op; the HTTP client holds no persistent resources.
func (p *LokiProducer) Close() error { return nil }
