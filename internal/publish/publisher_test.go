package publish

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/autorescue/autorescue/internal/outbox"
	"github.com/autorescue/autorescue/pkg/types"
)

type fakeSink struct {
	name     string
	err      error
	closeErr error
	produced []Record
	closed   bool
}

func (f *fakeSink) Name() string { return f.name }

func (f *fakeSink) Produce(_ context.Context, _ string, records []Record) error {
	if f.err != nil {
		return f.err
	}
	f.produced = append(f.produced, records...)
	return nil
}

func (f *fakeSink) Close() error {
	f.closed = true
	return f.closeErr
}

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestPublishSkippedWithoutTopic(t *testing.T) {
	p := NewPublisher([]Sink{&fakeSink{name: "a"}}, nil, quietLogger())
	status := p.Publish(context.Background(), "", "key", "value")
	if status.State != types.PublishStateSkipped || status.Reason != types.SkipTopicNotConfigured {
		t.Fatalf("status = %+v", status)
	}
}

func TestPublishSkippedWithoutSinks(t *testing.T) {
	p := NewPublisher(nil, nil, quietLogger())
	status := p.Publish(context.Background(), "events", "key", "value")
	if status.State != types.PublishStateSkipped || status.Reason != types.SkipClientNotConfigured {
		t.Fatalf("status = %+v", status)
	}
}

func TestPublishSingleSinkSuccess(t *testing.T) {
	sink := &fakeSink{name: "proxy"}
	p := NewPublisher([]Sink{sink}, nil, quietLogger())

	status := p.Publish(context.Background(), "events", "ORD-1", map[string]any{"ok": true})
	if status.State != types.PublishStatePublished {
		t.Fatalf("status = %+v", status)
	}
	if len(sink.produced) != 1 || sink.produced[0].Key != "ORD-1" {
		t.Fatalf("produced = %+v", sink.produced)
	}
}

func TestPublishPartialFailureStillPublished(t *testing.T) {
	broken := &fakeSink{name: "proxy", err: errors.New("connection refused")}
	healthy := &fakeSink{name: "webhook"}
	store := outbox.NewStore(t.TempDir())
	p := NewPublisher([]Sink{broken, healthy}, store, quietLogger())

	status := p.Publish(context.Background(), "events", "ORD-1", map[string]any{"ok": true})
	if status.State != types.PublishStatePublished {
		t.Fatalf("one healthy sink should yield published, got %+v", status)
	}
	if len(status.Sinks) != 2 {
		t.Fatalf("sinks = %+v", status.Sinks)
	}
	var okCount, failCount int
	for _, result := range status.Sinks {
		if result.OK {
			okCount++
		} else {
			failCount++
		}
	}
	if okCount != 1 || failCount != 1 {
		t.Fatalf("expected one success and one failure, got %+v", status.Sinks)
	}
	if status.Outbox {
		t.Fatalf("partial failure must not write the outbox")
	}

	result, err := store.Read("events", 10)
	if err != nil {
		t.Fatalf("outbox read: %v", err)
	}
	if result.Total != 0 {
		t.Fatalf("outbox should be empty, got %d records", result.Total)
	}
}

func TestPublishTotalFailureFallsBackToOutbox(t *testing.T) {
	a := &fakeSink{name: "proxy", err: errors.New("dns failure")}
	b := &fakeSink{name: "webhook", err: errors.New("500")}
	store := outbox.NewStore(t.TempDir())
	p := NewPublisher([]Sink{a, b}, store, quietLogger())

	status := p.Publish(context.Background(), "events", "ORD-1", map[string]any{"incidentId": "INC-1"})
	if status.State != types.PublishStateFailed {
		t.Fatalf("status = %+v", status)
	}
	if !status.Outbox {
		t.Fatalf("total failure should report outbox=true")
	}
	if status.Error == "" {
		t.Fatalf("failed status should carry the aggregated error")
	}

	result, err := store.Read("events", 10)
	if err != nil {
		t.Fatalf("outbox read: %v", err)
	}
	if result.Total != 1 {
		t.Fatalf("outbox total = %d, want 1", result.Total)
	}
	payload, ok := result.Latest[0].Payload.(map[string]any)
	if !ok {
		t.Fatalf("payload type %T", result.Latest[0].Payload)
	}
	value, ok := payload["value"].(map[string]any)
	if !ok || value["incidentId"] != "INC-1" {
		t.Fatalf("archived payload = %+v", payload)
	}
}

func TestPublishTotalFailureWithoutOutbox(t *testing.T) {
	a := &fakeSink{name: "proxy", err: errors.New("down")}
	p := NewPublisher([]Sink{a}, nil, quietLogger())

	status := p.Publish(context.Background(), "events", "k", "v")
	if status.State != types.PublishStateFailed || status.Outbox {
		t.Fatalf("status = %+v", status)
	}
}

func TestPublishSanitizesValues(t *testing.T) {
	sink := &fakeSink{name: "proxy"}
	p := NewPublisher([]Sink{sink}, nil, quietLogger())

	p.Publish(context.Background(), "events", "k", map[string]any{
		"keep": "x",
		"fn":   func() {},
	})

	value, ok := sink.produced[0].Value.(map[string]any)
	if !ok {
		t.Fatalf("value type %T", sink.produced[0].Value)
	}
	if _, present := value["fn"]; present {
		t.Fatalf("function member should be stripped before the sink sees it")
	}
	if value["keep"] != "x" {
		t.Fatalf("value = %+v", value)
	}
}

func TestCloseClosesEverySinkDespiteFailures(t *testing.T) {
	a := &fakeSink{name: "proxy", closeErr: errors.New("already closed")}
	b := &fakeSink{name: "webhook"}
	p := NewPublisher([]Sink{a, b}, nil, quietLogger())

	p.Close()
	if !a.closed || !b.closed {
		t.Fatalf("all sinks should be closed: a=%v b=%v", a.closed, b.closed)
	}
}
