// Package publish fans incident and action events out to the configured
// event sinks, degrading to the durable outbox when every sink fails.
package publish

import (
	"context"
	"log/slog"
	"strings"

	"github.com/autorescue/autorescue/internal/outbox"
	"github.com/autorescue/autorescue/internal/sanitize"
	"github.com/autorescue/autorescue/pkg/types"
)

// Record is the unit handed to a sink. Value is already sanitized when a
// sink receives it.
type Record struct {
	Key       string `json:"key,omitempty"`
	Value     any    `json:"value"`
	Partition *int   `json:"partition,omitempty"`
}

// Sink delivers records for a topic to one downstream transport.
type Sink interface {
	Name() string
	Produce(ctx context.Context, topic string, records []Record) error
	Close() error
}

type Publisher struct {
	sinks  []Sink
	outbox *outbox.Store
	logger *slog.Logger
}

// NewPublisher owns the given sinks; Close disconnects them. The outbox may
// be nil, in which case total sink failure is reported without fallback.
func NewPublisher(sinks []Sink, store *outbox.Store, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{sinks: sinks, outbox: store, logger: logger}
}

// Publish sends one keyed record to every configured sink. The call counts
// as published when at least one sink accepted the record; it fails only
// when all sinks fail, and then additionally archives the record so the
// caller can tell "durably queued" from "lost".
func (p *Publisher) Publish(ctx context.Context, topic, key string, value any) types.PublishStatus {
	if topic == "" {
		return types.PublishStatus{State: types.PublishStateSkipped, Reason: types.SkipTopicNotConfigured}
	}
	if len(p.sinks) == 0 {
		return types.PublishStatus{State: types.PublishStateSkipped, Reason: types.SkipClientNotConfigured}
	}

	record := Record{Key: key, Value: sanitize.Sanitize(value)}

	results := make([]types.SinkResult, 0, len(p.sinks))
	var failures []string
	successes := 0
	for _, sink := range p.sinks {
		err := sink.Produce(ctx, topic, []Record{record})
		if err != nil {
			p.logger.Warn("sink produce failed", "sink", sink.Name(), "topic", topic, "error", err)
			results = append(results, types.SinkResult{Sink: sink.Name(), Error: err.Error()})
			failures = append(failures, sink.Name()+": "+err.Error())
			continue
		}
		results = append(results, types.SinkResult{Sink: sink.Name(), OK: true})
		successes++
	}

	if successes > 0 {
		return types.PublishStatus{State: types.PublishStatePublished, Sinks: results}
	}

	status := types.PublishStatus{
		State: types.PublishStateFailed,
		Sinks: results,
		Error: strings.Join(failures, "; "),
	}
	if p.outbox != nil {
		if err := p.outbox.Append(topic, record); err != nil {
			p.logger.Error("outbox fallback failed", "topic", topic, "error", err)
		} else {
			status.Outbox = true
		}
	}
	return status
}

// Close drains and disconnects every owned sink. Individual close failures
// are logged so a broken connection cannot block shutdown.
func (p *Publisher) Close() {
	for _, sink := range p.sinks {
		if err := sink.Close(); err != nil {
			p.logger.Warn("sink close failed", "sink", sink.Name(), "error", err)
		}
	}
}
