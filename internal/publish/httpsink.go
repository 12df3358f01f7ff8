package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Kafka v2 JSON media types spoken by Redpanda-compatible HTTP proxies.
const (
	proxyAcceptType  = "application/vnd.kafka.v2+json"
	proxyContentType = "application/vnd.kafka.json.v2+json"
)

type HTTPProxyOptions struct {
	BaseURL       string
	APIKey        string
	AuthHeader    string // defaults to Authorization
	AuthScheme    string // defaults to Bearer; empty scheme sends the bare key
	StaticHeaders map[string]string
	Client        *http.Client
}

// HTTPProxySink produces records through a broker's HTTP proxy endpoint
// (POST /topics/{topic}).
type HTTPProxySink struct {
	opts   HTTPProxyOptions
	client *http.Client
}

func NewHTTPProxySink(opts HTTPProxyOptions) *HTTPProxySink {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if opts.AuthHeader == "" {
		opts.AuthHeader = "Authorization"
	}
	return &HTTPProxySink{opts: opts, client: client}
}

func (s *HTTPProxySink) Name() string { return "http-proxy" }

func (s *HTTPProxySink) Produce(ctx context.Context, topic string, records []Record) error {
	endpoint := strings.TrimRight(s.opts.BaseURL, "/") + "/topics/" + url.PathEscape(topic)

	body, err := json.Marshal(map[string]any{"records": records})
	if err != nil {
		return fmt.Errorf("http-proxy: encode records: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("http-proxy: build request: %w", err)
	}
	req.Header.Set("Accept", proxyAcceptType)
	req.Header.Set("Content-Type", proxyContentType)
	for name, value := range s.opts.StaticHeaders {
		req.Header.Set(name, value)
	}
	if s.opts.APIKey != "" {
		value := s.opts.APIKey
		if s.opts.AuthScheme != "" {
			value = s.opts.AuthScheme + " " + value
		}
		req.Header.Set(s.opts.AuthHeader, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("http-proxy: produce to %s: %w", topic, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("http-proxy: produce to %s: status %d: %s",
			topic, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}

func (s *HTTPProxySink) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
