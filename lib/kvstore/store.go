// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kvstore

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/bureau-foundation/taiga/lib/codec"
)

// Store reads and writes named values. Values are encoded with
// lib/codec, so any type with json or cbor struct tags can be stored.
type Store interface {
	// Get decodes the value stored under key into value. Returns false
	// (and leaves value untouched) when the key is absent.
	Get(key string, value any) (bool, error)

	// Apply writes every entry of changes as one unit: either all
	// changes become durable or none do. A nil value deletes its key.
	Apply(changes map[string]any) error
}

// Update writes a single entry. A nil value deletes the key.
func Update(store Store, key string, value any) error {
	return store.Apply(map[string]any{key: value})
}

// entries is the shared in-memory representation behind Memory and
// File.
type entries map[string]codec.RawMessage

func (e entries) get(key string, value any) (bool, error) {
	raw, ok := e[key]
	if !ok {
		return false, nil
	}
	if err := codec.Unmarshal(raw, value); err != nil {
		return true, fmt.Errorf("kvstore: decoding %q: %w", key, err)
	}
	return true, nil
}

// with returns a copy of e with changes applied. e is not modified.
func (e entries) with(changes map[string]any) (entries, error) {
	next := maps.Clone(e)
	if next == nil {
		next = make(entries, len(changes))
	}
	for key, value := range changes {
		if value == nil {
			delete(next, key)
			continue
		}
		encoded, err := codec.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("kvstore: encoding %q: %w", key, err)
		}
		next[key] = encoded
	}
	return next, nil
}

func (e entries) keys() []string {
	return slices.Sorted(maps.Keys(e))
}

// Memory is a Store held entirely in memory.
type Memory struct {
	mu      sync.Mutex
	entries entries
}

// NewMemory returns an empty in-memory Store.
func NewMemory() *Memory {
	return &Memory{entries: make(entries)}
}

// Get implements Store.
func (m *Memory) Get(key string, value any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries.get(key, value)
}

// Apply implements Store.
func (m *Memory) Apply(changes map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next, err := m.entries.with(changes)
	if err != nil {
		return err
	}
	m.entries = next
	return nil
}

// Keys returns the stored keys in sorted order.
func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries.keys()
}
