package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// WebhookSink mirrors events to a plain JSON webhook endpoint. It is the
// second delivery path next to the broker proxy, so a broker outage alone
// does not degrade a publish to the outbox.
type WebhookSink struct {
	url    string
	token  string
	client *http.Client
}

func NewWebhookSink(url, token string, client *http.Client) *WebhookSink {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &WebhookSink{url: url, token: token, client: client}
}

func (s *WebhookSink) Name() string { return "webhook" }

func (s *WebhookSink) Produce(ctx context.Context, topic string, records []Record) error {
	body, err := json.Marshal(map[string]any{"topic": topic, "records": records})
	if err != nil {
		return fmt.Errorf("webhook: encode records: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: post to %s: %w", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook: post to %s: status %d: %s",
			s.url, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}

func (s *WebhookSink) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
