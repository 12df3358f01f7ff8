// Package orders resolves order context for incidents. The gateway and
// runner use the file-backed source; tests inject the in-memory one.
package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/autorescue/autorescue/pkg/types"
)

// Source is the read-only order lookup the workflow depends on.
type Source interface {
	Order(ctx context.Context, orderID string) (types.OrderContext, bool, error)
}

type MemorySource struct {
	mu     sync.Mutex
	orders map[string]types.OrderContext
}

func NewMemorySource() *MemorySource {
	return &MemorySource{orders: make(map[string]types.OrderContext)}
}

func (s *MemorySource) Put(order types.OrderContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.OrderID] = order
}

func (s *MemorySource) Order(_ context.Context, orderID string) (types.OrderContext, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	return order, ok, nil
}

// FileSource serves a snapshot loaded once at startup from a JSON file,
// either a plain array of orders or {"orders": [...]}.
type FileSource struct {
	orders map[string]types.OrderContext
}

func NewFileSource(path string) (*FileSource, error) {
	// #nosec G304 -- path comes from operator-configured orders path.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}

	var list []types.OrderContext
	if err := json.Unmarshal(data, &list); err != nil {
		var wrapped struct {
			Orders []types.OrderContext `json:"orders"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("load orders: parse %s: %w", path, err)
		}
		list = wrapped.Orders
	}

	orders := make(map[string]types.OrderContext, len(list))
	for _, order := range list {
		if order.OrderID == "" {
			continue
		}
		orders[order.OrderID] = order
	}
	return &FileSource{orders: orders}, nil
}

func (s *FileSource) Order(_ context.Context, orderID string) (types.OrderContext, bool, error) {
	order, ok := s.orders[orderID]
	return order, ok, nil
}

func (s *FileSource) Len() int { return len(s.orders) }
