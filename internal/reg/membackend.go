// PadOS
// https://github.com/kavionic/pados
//
// Copyright (c) The PadOS Authors.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package reg

import "sync"

// MemBackend is a Backend over a plain map of words. It is what a hosted
// build (unit tests) uses in place of real memory-mapped I/O; a board
// package wires a memory-mapped Backend instead.
type MemBackend struct {
	mu   sync.Mutex
	mem  map[uint32]uint32
	Hook func(offset uint32, val uint32) uint32 // optional; maps each Write32 value, Poke bypasses it
}

// NewMemBackend returns an empty simulated register block.
func NewMemBackend() *MemBackend {
	return &MemBackend{mem: make(map[uint32]uint32)}
}

func (m *MemBackend) Read32(offset uint32) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mem[offset]
}

func (m *MemBackend) Write32(offset uint32, val uint32) {
	m.mu.Lock()
	hook := m.Hook
	m.mu.Unlock()

	if hook != nil {
		val = hook(offset, val)
	}

	m.mu.Lock()
	m.mem[offset] = val
	m.mu.Unlock()
}

// Poke sets a register value directly, bypassing Hook; used by tests to
// seed controller state (e.g. simulate a card response arriving).
func (m *MemBackend) Poke(offset uint32, val uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mem[offset] = val
}
