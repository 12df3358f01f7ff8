// Package app assembles the workflow engine from configuration. Both the
// gateway and the batch runner build their engine here so wiring stays in one
// place.
package app

import (
	"fmt"
	"log/slog"

	"github.com/autorescue/autorescue/internal/config"
	"github.com/autorescue/autorescue/internal/decision"
	"github.com/autorescue/autorescue/internal/observability"
	"github.com/autorescue/autorescue/internal/orders"
	"github.com/autorescue/autorescue/internal/outbox"
	"github.com/autorescue/autorescue/internal/publish"
	"github.com/autorescue/autorescue/internal/workflow"
)

// NewEngine wires every collaborator the config enables. The returned store
// is the same one the publisher falls back to, exposed so callers can serve
// outbox reads.
func NewEngine(cfg config.Config, logger *slog.Logger) (*workflow.Engine, *outbox.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store := outbox.NewStore(cfg.OutboxDir)

	var sinks []publish.Sink
	if cfg.Proxy.BaseURL != "" {
		sinks = append(sinks, publish.NewHTTPProxySink(publish.HTTPProxyOptions{
			BaseURL:       cfg.Proxy.BaseURL,
			APIKey:        cfg.Proxy.APIKey,
			AuthHeader:    cfg.Proxy.AuthHeader,
			AuthScheme:    cfg.Proxy.AuthScheme,
			StaticHeaders: cfg.Proxy.StaticHeaders,
		}))
	}
	if cfg.Webhook.URL != "" {
		sinks = append(sinks, publish.NewWebhookSink(cfg.Webhook.URL, cfg.Webhook.Token, nil))
	}
	publisher := publish.NewPublisher(sinks, store, logger)

	var source orders.Source
	if cfg.OrdersPath != "" {
		fileSource, err := orders.NewFileSource(cfg.OrdersPath)
		if err != nil {
			return nil, nil, fmt.Errorf("load orders: %w", err)
		}
		source = fileSource
	} else {
		source = orders.NewMemorySource()
	}

	acquirer := &decision.Acquirer{
		Simulate:     cfg.Simulate,
		PollInterval: cfg.Decision.PollInterval,
		MaxAttempts:  cfg.Decision.MaxPollAttempts,
		ResultLimit:  cfg.Decision.ResultLimit,
		Logger:       logger,
	}
	if cfg.Decision.BaseURL != "" {
		acquirer.Client = decision.NewHTTPClient(cfg.Decision.BaseURL, cfg.Decision.Token)
	}

	var recorder *observability.Recorder
	if cfg.Observability.BaseURL != "" {
		recorder = &observability.Recorder{
			Client: observability.NewHTTPClient(
				cfg.Observability.BaseURL, cfg.Observability.Token,
				cfg.Observability.Org, cfg.Observability.Project),
			Environment: cfg.Environment,
			Logger:      logger,
		}
	}

	engine := &workflow.Engine{
		Orders:        source,
		PolicyPath:    cfg.PolicyPath,
		Acquirer:      acquirer,
		Publisher:     publisher,
		Observability: recorder,
		EventsTopic:   cfg.Topics.Events,
		ActionsTopic:  cfg.Topics.Actions,
		Deployment:    cfg.Decision.Deployment,
		Simulate:      cfg.Simulate,
		Logger:        logger,
	}
	return engine, store, nil
}
