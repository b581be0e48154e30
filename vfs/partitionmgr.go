// PadOS
// https://github.com/kavionic/pados
//
// Copyright (c) The PadOS Authors.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package vfs

import (
	"fmt"
	"sort"

	"github.com/kavionic/pados/internal/perr"
)

// Partition is a device inode spanning a sub-range of a raw medium (spec
// §3.1 "Inode"): a byte offset and size within the medium, an open-count
// guarding deletion, and the type byte the partition table reported.
type Partition struct {
	Start      uint64
	Size       uint64
	Type       byte
	OpenCount  int
	handle     Handle
	registered bool
}

// PartitionManager owns the set of partition inodes published for one
// block device and reconciles it against freshly decoded partition
// tables, grounded on the source driver's DecodePartitions: match
// existing partitions by (start, size), recycle or destroy removed ones
// by open-count, append new ones, then two-phase-rename everything to
// <base>0, <base>1, ... in start order.
type PartitionManager struct {
	registry   *Registry
	basePath   string
	partitions []*Partition
}

// NewPartitionManager returns a manager that publishes partition nodes as
// basePath+"0", basePath+"1", ... into registry.
func NewPartitionManager(registry *Registry, basePath string) *PartitionManager {
	return &PartitionManager{registry: registry, basePath: basePath}
}

// Partitions returns the currently published partitions, in path order.
func (m *PartitionManager) Partitions() []*Partition {
	out := make([]*Partition, len(m.partitions))
	copy(out, m.partitions)
	return out
}

// Reconcile applies a freshly decoded partition table. newDevice is called
// once per newly-appended partition to obtain the Device to register for
// it (typically a view over the raw medium scoped to that partition's
// byte range). force allows reconciliation to proceed even if an open
// partition would otherwise be invalidated; without it, such a change
// fails Busy and the manager's state is left untouched, per spec §3.1
// invariant (c) and §4.1.4.
func (m *PartitionManager) Reconcile(table []PartitionEntry, force bool, newDevice func(p *Partition) Device) error {
	for _, existing := range m.partitions {
		if existing.OpenCount == 0 {
			continue
		}
		found := false
		for _, e := range table {
			if e.Start == existing.Start && e.Size == existing.Size {
				found = true
				break
			}
		}
		if !found && !force {
			return perr.New("vfs.Reconcile", perr.Busy, "open partition removed from table")
		}
	}

	var kept []*Partition
	var recycled []*Partition
	remaining := append([]PartitionEntry(nil), table...)

	for _, existing := range m.partitions {
		matchIdx := -1
		for i, e := range remaining {
			if e.Start == existing.Start && e.Size == existing.Size {
				matchIdx = i
				break
			}
		}

		if matchIdx >= 0 {
			existing.Type = remaining[matchIdx].Type
			remaining = append(remaining[:matchIdx], remaining[matchIdx+1:]...)
			kept = append(kept, existing)
			continue
		}

		// Gone from the table. A zero open-count partition is destroyed
		// outright; a positive open-count one (only reachable with force)
		// is recycled instead, per spec §4.1.4: "renamed to a temporary
		// unique name, then reassigned to another entry if available."
		// Its handle and registered state are left untouched so the
		// two-phase rename below carries it through a temp name to
		// whatever entry claims it - the still-open inode keeps its
		// identity but now reads as the newly assigned partition.
		if existing.OpenCount == 0 {
			if existing.registered {
				m.registry.Remove(existing.handle)
				existing.registered = false
			}
			continue
		}
		recycled = append(recycled, existing)
	}

	for _, e := range remaining {
		var p *Partition
		if len(recycled) > 0 {
			p = recycled[len(recycled)-1]
			recycled = recycled[:len(recycled)-1]
		} else {
			p = &Partition{}
		}
		p.Start, p.Size, p.Type = e.Start, e.Size, e.Type
		kept = append(kept, p)
	}

	// A recycled partition that no entry claimed leaves the published
	// namespace; whoever holds it open keeps the Partition struct.
	for _, p := range recycled {
		if p.registered {
			m.registry.Remove(p.handle)
			p.registered = false
		}
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })
	m.partitions = kept

	// Two-phase rename: every already-registered node first gets a unique
	// transient name so a reordering can never collide with another
	// node's final name mid-loop.
	for i, p := range kept {
		if p.registered {
			if err := m.registry.Rename(p.handle, fmt.Sprintf("%s%d_new", m.basePath, i)); err != nil {
				return err
			}
		}
	}
	for i, p := range kept {
		finalPath := fmt.Sprintf("%s%d", m.basePath, i)
		if p.registered {
			if err := m.registry.Rename(p.handle, finalPath); err != nil {
				return err
			}
			continue
		}
		h, err := m.registry.Register(finalPath, newDevice(p))
		if err != nil {
			return err
		}
		p.handle = h
		p.registered = true
	}

	return nil
}
