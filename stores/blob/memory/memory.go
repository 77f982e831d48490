// Package memory keeps blobs in a map. Nothing survives Close.
package memory

import (
	"context"
	"net/http"
	"sync"

	"github.com/bsv-blockchain/utxochain/errors"
	"github.com/bsv-blockchain/utxochain/stores/blob/options"
)

type Memory struct {
	mu         sync.RWMutex
	blobs      map[string][]byte
	Counters   map[string]int
	countersMu sync.Mutex
}

func New() *Memory {
	return &Memory{
		blobs:    make(map[string][]byte),
		Counters: make(map[string]int),
	}
}

func (m *Memory) count(op string) {
	m.countersMu.Lock()
	m.Counters[op]++
	m.countersMu.Unlock()
}

// Count returns how often op was called.
func (m *Memory) Count(op string) int {
	m.countersMu.Lock()
	defer m.countersMu.Unlock()

	return m.Counters[op]
}

func (m *Memory) Health(_ context.Context, _ bool) (int, string, error) {
	m.count("health")

	return http.StatusOK, "Memory Store available", nil
}

func (m *Memory) Exists(_ context.Context, key []byte) (bool, error) {
	m.count("exists")

	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.blobs[string(key)]

	return ok, nil
}

func (m *Memory) Get(_ context.Context, key []byte) ([]byte, error) {
	m.count("get")

	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.blobs[string(key)]
	if !ok {
		return nil, errors.NewNotFoundError("[Memory] key %q not found", key)
	}

	out := make([]byte, len(value))
	copy(out, value)

	return out, nil
}

func (m *Memory) Set(_ context.Context, key []byte, value []byte) error {
	m.count("set")

	m.mu.Lock()
	defer m.mu.Unlock()

	m.set(key, value)

	return nil
}

// SetBatch applies all writes under a single lock, readers never see part of a batch.
func (m *Memory) SetBatch(_ context.Context, batch []options.KeyValue) error {
	m.count("setBatch")

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, kv := range batch {
		m.set(kv.Key, kv.Value)
	}

	return nil
}

func (m *Memory) set(key []byte, value []byte) {
	stored := make([]byte, len(value))
	copy(stored, value)

	m.blobs[string(key)] = stored
}

func (m *Memory) Del(_ context.Context, key []byte) error {
	m.count("del")

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.blobs, string(key))

	return nil
}

func (m *Memory) Flush(_ context.Context) error {
	m.count("flush")

	return nil
}

func (m *Memory) Close(_ context.Context) error {
	m.count("close")

	return nil
}
