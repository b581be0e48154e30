// PadOS
// https://github.com/kavionic/pados
//
// Copyright (c) The PadOS Authors.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package vfs is the filesystem tree of inodes keyed by handle described in
// spec §2 item 3: drivers register device inodes, filesystem volumes
// register data inodes, and callers address both through a flat path
// namespace under /dev. It mirrors the source system's Kernel::RegisterDevice_trw
// / RenameDevice_trw / RemoveDevice_trw trio, generalized into a small
// in-process registry since this module has no other process to share the
// tree with.
package vfs

import (
	"sort"
	"sync"

	"github.com/kavionic/pados/internal/perr"
)

// Handle identifies a registered inode. Zero is never issued.
type Handle int64

// Device is the contract a device or partition inode satisfies: byte-
// addressed, block-aligned I/O plus a vendor-specific control channel
// (spec §4.1.1 Open/Read/Write/DeviceControl).
type Device interface {
	Open(flags int) error
	Close() error
	Read(p []byte, offset int64) (int, error)
	Write(p []byte, offset int64) (int, error)
	DeviceControl(request int, in, out []byte) error
}

type entry struct {
	handle Handle
	path   string
	dev    Device
}

// Registry is a flat /dev-style namespace: paths map to Devices by Handle.
// One Registry is shared by every driver in the system (sdmmc publishes
// disk nodes into it, a future sensor driver would publish its own), the
// same way the source's single global Kernel device table is shared by
// every IDriver.
type Registry struct {
	mu       sync.RWMutex
	byHandle map[Handle]*entry
	byPath   map[string]*entry
	next     Handle
}

// NewRegistry returns an empty device registry.
func NewRegistry() *Registry {
	return &Registry{
		byHandle: make(map[Handle]*entry),
		byPath:   make(map[string]*entry),
	}
}

// Register publishes dev at path and returns its handle. It fails
// InvalidArg if path is already registered.
func (r *Registry) Register(path string, dev Device) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byPath[path]; exists {
		return 0, perr.New("vfs.Register", perr.InvalidArg, "path already registered: "+path)
	}

	r.next++
	e := &entry{handle: r.next, path: path, dev: dev}
	r.byHandle[e.handle] = e
	r.byPath[path] = e

	return e.handle, nil
}

// Rename moves the node's published path. Two-phase renames (a temporary
// name to avoid collisions, then the final name) are the caller's
// responsibility, as PartitionManager.Reconcile does: Rename itself just
// rebinds one path to another, failing InvalidArg if the destination is
// already taken by a different node.
func (r *Registry) Rename(h Handle, newPath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byHandle[h]
	if !ok {
		return perr.New("vfs.Rename", perr.InvalidArg, "unknown handle")
	}
	if existing, exists := r.byPath[newPath]; exists && existing.handle != h {
		return perr.New("vfs.Rename", perr.InvalidArg, "destination path in use: "+newPath)
	}

	delete(r.byPath, e.path)
	e.path = newPath
	r.byPath[newPath] = e

	return nil
}

// Remove unpublishes a node. The Device itself is unaffected; callers that
// still hold a reference may keep using it, they simply can no longer look
// it up by path.
func (r *Registry) Remove(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byHandle[h]
	if !ok {
		return
	}
	delete(r.byHandle, h)
	delete(r.byPath, e.path)
}

// Lookup resolves a path to its Device and Handle.
func (r *Registry) Lookup(path string) (Handle, Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byPath[path]
	if !ok {
		return 0, nil, false
	}
	return e.handle, e.dev, true
}

// Paths returns every currently published path, sorted, for diagnostics
// and tests.
func (r *Registry) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	paths := make([]string, 0, len(r.byPath))
	for p := range r.byPath {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
