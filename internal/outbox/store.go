// Package outbox is the durable fallback for event publication: one
// append-only newline-delimited JSON file per topic. Records are never
// rewritten; a separate replay process re-feeds them into the publisher.
package outbox

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/autorescue/autorescue/internal/sanitize"
)

type Record struct {
	ID        string `json:"id,omitempty"`
	Topic     string `json:"topic"`
	Timestamp string `json:"timestamp"`
	Payload   any    `json:"payload,omitempty"`

	// ParseError is set on read when a stored line is not valid JSON.
	ParseError string `json:"parseError,omitempty"`
}

type ReadResult struct {
	Total  int      `json:"total"`
	Latest []Record `json:"latest"`
}

type Store struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// Append writes one self-contained record to the topic's log file.
func (s *Store) Append(topic string, payload any) error {
	if topic == "" {
		return fmt.Errorf("outbox append: missing topic")
	}

	record := Record{
		ID:        uuid.NewString(),
		Topic:     topic,
		Timestamp: s.now().UTC().Format(time.RFC3339),
		Payload:   sanitize.Sanitize(payload),
	}
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("outbox append: encode record: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("outbox append: create dir: %w", err)
	}

	// #nosec G304 -- path derives from the operator-configured outbox dir.
	f, err := os.OpenFile(s.topicPath(topic), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("outbox append: open log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("outbox append: write record: %w", err)
	}
	return nil
}

// Read returns the last limit records for topic, most recent first. A missing
// topic file yields an empty result; malformed lines become parse-error
// records instead of aborting the read.
func (s *Store) Read(topic string, limit int) (ReadResult, error) {
	if limit <= 0 {
		limit = 20
	}

	// #nosec G304 -- path derives from the operator-configured outbox dir.
	f, err := os.Open(s.topicPath(topic))
	if err != nil {
		if os.IsNotExist(err) {
			return ReadResult{Total: 0, Latest: []Record{}}, nil
		}
		return ReadResult{}, fmt.Errorf("outbox read: %w", err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var record Record
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			records = append(records, Record{
				Topic:      topic,
				ParseError: fmt.Sprintf("line %d: %v", lineNo, err),
			})
			continue
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return ReadResult{}, fmt.Errorf("outbox read: %w", err)
	}

	result := ReadResult{Total: len(records), Latest: []Record{}}
	for i := len(records) - 1; i >= 0 && len(result.Latest) < limit; i-- {
		result.Latest = append(result.Latest, records[i])
	}
	return result, nil
}

func (s *Store) topicPath(topic string) string {
	return filepath.Join(s.dir, safeTopic(topic)+".jsonl")
}

// safeTopic keeps topic-derived file names inside the outbox dir.
func safeTopic(topic string) string {
	var b strings.Builder
	for _, r := range topic {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "topic"
	}
	return b.String()
}
