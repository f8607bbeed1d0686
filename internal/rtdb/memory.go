package rtdb

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process Store with the same snapshot and fan-out
// semantics as Client. It backs the package tests and lets the services
// run without a live Redis.
type Memory struct {
	mu     sync.Mutex
	values map[string]json.RawMessage            // value roots
	maps   map[string]map[string]json.RawMessage // map roots
	subs   map[string][]chan json.RawMessage

	// WriteErr, when set, makes every mutating call fail. Used to
	// exercise remote-write failure paths.
	WriteErr error
}

func NewMemory() *Memory {
	return &Memory{
		values: make(map[string]json.RawMessage),
		maps:   make(map[string]map[string]json.RawMessage),
		subs:   make(map[string][]chan json.RawMessage),
	}
}

func (m *Memory) snapshotLocked(root string) json.RawMessage {
	if children, ok := m.maps[root]; ok && len(children) > 0 {
		b, _ := json.Marshal(children)
		return b
	}
	if v, ok := m.values[root]; ok {
		return v
	}
	return json.RawMessage("null")
}

func (m *Memory) publishLocked(root string) {
	snap := m.snapshotLocked(root)
	for _, ch := range m.subs[root] {
		select {
		case ch <- snap:
		default:
		}
	}
}

func (m *Memory) ReadSnapshot(_ context.Context, path string) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	root, child := splitPath(path)
	if child != "" {
		if v, ok := m.maps[root][child]; ok {
			return v, nil
		}
		return json.RawMessage("null"), nil
	}
	return m.snapshotLocked(root), nil
}

func (m *Memory) WriteSnapshot(_ context.Context, path string, v any) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("rtdb marshal %s: %w", path, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	root, child := splitPath(path)
	if child != "" {
		if m.maps[root] == nil {
			m.maps[root] = make(map[string]json.RawMessage)
		}
		m.maps[root][child] = b
	} else {
		m.values[root] = b
	}
	m.publishLocked(root)
	return nil
}

func (m *Memory) AppendUnique(_ context.Context, root string, v any) (string, error) {
	if m.WriteErr != nil {
		return "", m.WriteErr
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("rtdb marshal %s: %w", root, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.maps[root] == nil {
		m.maps[root] = make(map[string]json.RawMessage)
	}
	key := uuid.NewString()
	m.maps[root][key] = b
	m.publishLocked(root)
	return key, nil
}

func (m *Memory) DeleteSubtree(_ context.Context, path string) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	root, child := splitPath(path)
	if child != "" {
		delete(m.maps[root], child)
	} else {
		delete(m.maps, root)
		delete(m.values, root)
	}
	m.publishLocked(root)
	return nil
}

func (m *Memory) Subscribe(ctx context.Context, root string) (<-chan json.RawMessage, error) {
	m.mu.Lock()
	ch := make(chan json.RawMessage, 64)
	ch <- m.snapshotLocked(root)
	m.subs[root] = append(m.subs[root], ch)
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, c := range m.subs[root] {
			if c == ch {
				m.subs[root] = append(m.subs[root][:i], m.subs[root][i+1:]...)
				close(c)
				break
			}
		}
	}()
	return ch, nil
}
