package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr    string  `yaml:"listen_addr" env:"RESCUE_LISTEN_ADDR"`
	Environment   string  `yaml:"environment" env:"RESCUE_ENVIRONMENT"`
	Simulate      bool    `yaml:"simulate" env:"RESCUE_SIMULATE"`
	PolicyPath    string  `yaml:"policy_path" env:"RESCUE_POLICY_PATH"`
	OrdersPath    string  `yaml:"orders_path" env:"RESCUE_ORDERS_PATH"`
	OutboxDir     string  `yaml:"outbox_dir" env:"RESCUE_OUTBOX_DIR"`
	APIToken      string  `yaml:"api_token" env:"RESCUE_API_TOKEN"`
	MinDelayHours float64 `yaml:"min_delay_hours" env:"RESCUE_MIN_DELAY_HOURS"`

	Topics        TopicsConfig        `yaml:"topics"`
	Decision      DecisionConfig      `yaml:"decision"`
	Proxy         ProxyConfig         `yaml:"proxy"`
	Webhook       WebhookConfig       `yaml:"webhook"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type TopicsConfig struct {
	Events  string `yaml:"events" env:"RESCUE_TOPIC_EVENTS"`
	Actions string `yaml:"actions" env:"RESCUE_TOPIC_ACTIONS"`
}

type DecisionConfig struct {
	BaseURL         string        `yaml:"base_url" env:"RESCUE_DECISION_BASE_URL"`
	Token           string        `yaml:"token" env:"RESCUE_DECISION_TOKEN"`
	Deployment      string        `yaml:"deployment" env:"RESCUE_DECISION_DEPLOYMENT"`
	PollInterval    time.Duration `yaml:"poll_interval" env:"RESCUE_DECISION_POLL_INTERVAL"`
	MaxPollAttempts int           `yaml:"max_poll_attempts" env:"RESCUE_DECISION_MAX_POLL_ATTEMPTS"`
	ResultLimit     int           `yaml:"result_limit" env:"RESCUE_DECISION_RESULT_LIMIT"`
}

type ProxyConfig struct {
	BaseURL       string            `yaml:"base_url" env:"RESCUE_PROXY_BASE_URL"`
	APIKey        string            `yaml:"api_key" env:"RESCUE_PROXY_API_KEY"`
	AuthHeader    string            `yaml:"auth_header" env:"RESCUE_PROXY_AUTH_HEADER"`
	AuthScheme    string            `yaml:"auth_scheme" env:"RESCUE_PROXY_AUTH_SCHEME"`
	StaticHeaders map[string]string `yaml:"static_headers"`
}

type WebhookConfig struct {
	URL   string `yaml:"url" env:"RESCUE_WEBHOOK_URL"`
	Token string `yaml:"token" env:"RESCUE_WEBHOOK_TOKEN"`
}

type ObservabilityConfig struct {
	BaseURL string `yaml:"base_url" env:"RESCUE_OBS_BASE_URL"`
	Token   string `yaml:"token" env:"RESCUE_OBS_TOKEN"`
	Org     string `yaml:"org" env:"RESCUE_OBS_ORG"`
	Project string `yaml:"project" env:"RESCUE_OBS_PROJECT"`
}

// Load reads the YAML file at path, expands ${VAR} references, applies
// environment overrides, and validates. An empty path yields a config built
// from environment variables and defaults alone.
func Load(path string) (Config, error) {
	var cfg Config

	if path != "" {
		// #nosec G304 -- path is operator-provided config path.
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}

		expanded := os.ExpandEnv(string(raw))
		expanded = strings.ReplaceAll(expanded, "\r\n", "\n")

		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	cfg.applyDefaults()
	return cfg, cfg.Validate()
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.OutboxDir == "" {
		c.OutboxDir = "outbox"
	}
}

func (c Config) Validate() error {
	if c.PolicyPath == "" {
		return fmt.Errorf("policy_path is required")
	}
	if c.MinDelayHours < 0 {
		return fmt.Errorf("min_delay_hours must not be negative")
	}

	if !c.Simulate {
		if c.Decision.BaseURL == "" {
			return fmt.Errorf("decision.base_url is required unless simulate=true")
		}
		if c.Decision.Token == "" {
			return fmt.Errorf("decision.token is required unless simulate=true")
		}
	}
	if c.Decision.PollInterval < 0 {
		return fmt.Errorf("decision.poll_interval must not be negative")
	}
	if c.Decision.MaxPollAttempts < 0 {
		return fmt.Errorf("decision.max_poll_attempts must not be negative")
	}

	if c.Proxy.APIKey != "" && c.Proxy.BaseURL == "" {
		return fmt.Errorf("proxy.base_url is required when proxy.api_key is set")
	}
	if c.Observability.BaseURL != "" {
		if c.Observability.Org == "" || c.Observability.Project == "" {
			return fmt.Errorf("observability.org and observability.project are required when observability.base_url is set")
		}
	}

	return nil
}
