package outbox

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAppendReadRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	for i := 0; i < 3; i++ {
		payload := map[string]any{"seq": i}
		if err := store.Append("delay-events", payload); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	result, err := store.Read("delay-events", 3)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if result.Total != 3 {
		t.Fatalf("total = %d, want 3", result.Total)
	}
	if len(result.Latest) != 3 {
		t.Fatalf("latest = %d records, want 3", len(result.Latest))
	}

	// Most recent first.
	for i, record := range result.Latest {
		payload, ok := record.Payload.(map[string]any)
		if !ok {
			t.Fatalf("record %d payload type %T", i, record.Payload)
		}
		want := float64(2 - i)
		if payload["seq"] != want {
			t.Fatalf("record %d seq = %v, want %v", i, payload["seq"], want)
		}
		if record.Topic != "delay-events" {
			t.Fatalf("record %d topic = %q", i, record.Topic)
		}
		if record.Timestamp == "" || record.ID == "" {
			t.Fatalf("record %d missing timestamp or id", i)
		}
	}
}

func TestReadMissingTopic(t *testing.T) {
	store := NewStore(t.TempDir())

	result, err := store.Read("never-written", 10)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if result.Total != 0 || len(result.Latest) != 0 {
		t.Fatalf("missing topic should read empty, got %+v", result)
	}
}

func TestReadLimitsToLastN(t *testing.T) {
	store := NewStore(t.TempDir())
	for i := 0; i < 5; i++ {
		if err := store.Append("actions", map[string]any{"seq": i}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	result, err := store.Read("actions", 2)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if result.Total != 5 {
		t.Fatalf("total = %d, want 5", result.Total)
	}
	if len(result.Latest) != 2 {
		t.Fatalf("latest = %d, want 2", len(result.Latest))
	}
	first := result.Latest[0].Payload.(map[string]any)
	if first["seq"] != float64(4) {
		t.Fatalf("latest[0] seq = %v, want 4", first["seq"])
	}
}

func TestReadToleratesMalformedLines(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	if err := store.Append("mixed", map[string]any{"ok": true}); err != nil {
		t.Fatalf("append: %v", err)
	}

	path := filepath.Join(dir, "mixed.jsonl")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := f.WriteString("{not json\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = f.Close()

	if err := store.Append("mixed", map[string]any{"ok": true}); err != nil {
		t.Fatalf("append: %v", err)
	}

	result, err := store.Read("mixed", 10)
	if err != nil {
		t.Fatalf("read should not abort on malformed lines: %v", err)
	}
	if result.Total != 3 {
		t.Fatalf("total = %d, want 3", result.Total)
	}

	parseErrors := 0
	for _, record := range result.Latest {
		if record.ParseError != "" {
			parseErrors++
		}
	}
	if parseErrors != 1 {
		t.Fatalf("parse errors = %d, want 1", parseErrors)
	}
}

func TestSafeTopicFileNames(t *testing.T) {
	store := NewStore(t.TempDir())
	if err := store.Append("tenant/delay events", map[string]any{"ok": true}); err != nil {
		t.Fatalf("append: %v", err)
	}
	result, err := store.Read("tenant/delay events", 1)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if result.Total != 1 {
		t.Fatalf("total = %d, want 1", result.Total)
	}
}
