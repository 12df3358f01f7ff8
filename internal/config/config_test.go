package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadExpandsEnvReferences(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rescue.yaml")

	t.Setenv("DECISION_TOKEN", "tok-123")

	data := `
listen_addr: ":9090"
policy_path: "./policies/default.yaml"
decision:
  base_url: "https://decisions.example.com"
  token: "${DECISION_TOKEN}"
  poll_interval: 3s
  max_poll_attempts: 10
topics:
  events: "delay-events"
  actions: "delay-actions"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Decision.Token != "tok-123" {
		t.Fatalf("expected expanded token, got %q", cfg.Decision.Token)
	}
	if cfg.Decision.PollInterval != 3*time.Second {
		t.Fatalf("poll interval = %v", cfg.Decision.PollInterval)
	}
	if cfg.Topics.Events != "delay-events" {
		t.Fatalf("topics = %+v", cfg.Topics)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rescue.yaml")

	data := `
policy_path: "./policies/default.yaml"
simulate: true
environment: "staging"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	t.Setenv("RESCUE_ENVIRONMENT", "production")
	t.Setenv("RESCUE_TOPIC_EVENTS", "prod-delay-events")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Environment != "production" {
		t.Fatalf("environment = %q", cfg.Environment)
	}
	if cfg.Topics.Events != "prod-delay-events" {
		t.Fatalf("events topic = %q", cfg.Topics.Events)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rescue.yaml")
	data := `
policy_path: "./policies/default.yaml"
simulate: true
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":8080" || cfg.Environment != "development" || cfg.OutboxDir != "outbox" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestValidateRequiresPolicyPath(t *testing.T) {
	if err := (Config{}).Validate(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidateDecisionRequiredUnlessSimulating(t *testing.T) {
	cfg := Config{PolicyPath: "policies/default.yaml"}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error without decision credentials")
	}

	cfg.Simulate = true
	if err := cfg.Validate(); err != nil {
		t.Fatalf("simulate should not require decision credentials: %v", err)
	}
}

func TestValidateProxyKeyRequiresBaseURL(t *testing.T) {
	cfg := Config{
		PolicyPath: "policies/default.yaml",
		Simulate:   true,
		Proxy:      ProxyConfig{APIKey: "secret"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidateObservabilityNeedsOrgAndProject(t *testing.T) {
	cfg := Config{
		PolicyPath:    "policies/default.yaml",
		Simulate:      true,
		Observability: ObservabilityConfig{BaseURL: "https://obs.example.com"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error")
	}
	cfg.Observability.Org = "acme"
	cfg.Observability.Project = "rescue"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("does-not-exist.yaml"); err == nil {
		t.Fatalf("expected error")
	}
}
