// PadOS
// https://github.com/kavionic/pados
//
// Copyright (c) The PadOS Authors.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package hal

import (
	"container/list"
	"fmt"
	"sync"
)

// CacheLineSize is the target architecture's cache line size in bytes.
// SDMMC and display DMA buffers are allocated as whole multiples of this,
// per spec §3.1 invariant (b): "all data-phase buffers are cache-line
// aligned and used only after cache maintenance".
const CacheLineSize = 32

// CacheOps are the two maintenance operations a board must provide around
// a DMA transfer on a non-coherent bus. They are board hooks in the same
// spirit as the teacher usdhc driver's LowVoltage board hook: a generic
// driver calls them without knowing the concrete cache-controller
// instructions for the target core. The default, used unless a board
// overrides it, is a no-op pair, appropriate for the hosted simulation
// build and for any core whose DMA path is already coherent.
type CacheOps struct {
	Clean      func(buf []byte) // write back dirty cache lines before a device read
	Invalidate func(buf []byte) // discard stale cache lines before a CPU read
}

var defaultCacheOps = CacheOps{
	Clean:      func([]byte) {},
	Invalidate: func([]byte) {},
}

// block is one entry of the pool's address-ordered free list, the same
// shape as the teacher's first-fit allocator block, scoped to an offset
// into a backing byte arena rather than a raw physical address — this lets
// the allocator run, and be tested, on a hosted build while keeping the
// identical split/coalesce algorithm a real bare-metal build would use
// over physical DMA-region addresses.
type block struct {
	offset int
	size   int
}

// Buffer is a cache-line-aligned DMA allocation. Bytes is the
// exactly-sized view callers read/write; Free returns it to its Pool.
type Buffer struct {
	Bytes  []byte
	offset int
	size   int // aligned size, for coalescing on Free
	pool   *Pool
}

// Free returns the buffer to the pool it was allocated from.
func (b *Buffer) Free() {
	if b == nil || b.pool == nil {
		return
	}
	b.pool.free_(b.offset, b.size)
	b.pool = nil
	b.Bytes = nil
}

// Pool is a cache-line-aligned, first-fit DMA buffer allocator over a
// fixed-size arena, the same allocation discipline as the teacher's dma
// package (a process-wide region carved out of memory the Go heap never
// touches) scoped down to one arena per instance so sdmmc and the
// compositor each own a pool sized to their own worst-case transfer.
type Pool struct {
	mu       sync.Mutex
	arena    []byte
	free     *list.List // of *block, address order
	cacheOps CacheOps
}

// NewPool allocates an arena of size bytes (rounded up to a cache-line
// multiple) and returns a Pool ready to hand out aligned buffers from it.
func NewPool(size int, ops *CacheOps) *Pool {
	size = align(size, CacheLineSize)

	p := &Pool{
		arena: make([]byte, size),
		free:  list.New(),
	}

	if ops != nil {
		p.cacheOps = *ops
	} else {
		p.cacheOps = defaultCacheOps
	}

	p.free.PushFront(&block{offset: 0, size: size})

	return p
}

func align(v, to int) int {
	if r := v % to; r != 0 {
		v += to - r
	}
	return v
}

// Alloc reserves size bytes, cache-line aligned, and returns a Buffer
// backed by the pool's arena. It panics on exhaustion, matching the
// teacher's dma.Alloc behavior: a DMA arena is a fixed, board-sized
// resource, and running out of it is a configuration bug, not a
// recoverable condition.
func (p *Pool) Alloc(size int) *Buffer {
	if size <= 0 {
		return &Buffer{}
	}

	aligned := align(size, CacheLineSize)

	p.mu.Lock()
	defer p.mu.Unlock()

	for e := p.free.Front(); e != nil; e = e.Next() {
		b := e.Value.(*block)
		if b.size < aligned {
			continue
		}

		off := b.offset
		if b.size > aligned {
			b.offset += aligned
			b.size -= aligned
		} else {
			p.free.Remove(e)
		}

		return &Buffer{
			Bytes:  p.arena[off : off+size : off+aligned],
			offset: off,
			size:   aligned,
			pool:   p,
		}
	}

	panic(fmt.Sprintf("hal: dma pool exhausted, requested %d bytes", size))
}

// free_ returns the block at offset/size to the free list, coalescing with
// adjacent free neighbours (mirrors the teacher's defrag() pass).
func (p *Pool) free_(offset, size int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var prev, next *list.Element

	for e := p.free.Front(); e != nil; e = e.Next() {
		b := e.Value.(*block)
		if b.offset < offset {
			prev = e
		} else if next == nil {
			next = e
			break
		}
	}

	if prev != nil {
		if pb := prev.Value.(*block); pb.offset+pb.size == offset {
			pb.size += size
			if next != nil {
				if nx := next.Value.(*block); pb.offset+pb.size == nx.offset {
					pb.size += nx.size
					p.free.Remove(next)
				}
			}
			return
		}
	}

	if next != nil {
		if nx := next.Value.(*block); offset+size == nx.offset {
			nx.offset = offset
			nx.size += size
			return
		}
	}

	nb := &block{offset: offset, size: size}
	if prev != nil {
		p.free.InsertAfter(nb, prev)
	} else {
		p.free.PushFront(nb)
	}
}

// Clean runs the board's cache write-back hook over buf before handing it
// to a DMA-capable peripheral for a device-read (host-write) transfer.
func (p *Pool) Clean(buf []byte) { p.cacheOps.Clean(buf) }

// Invalidate runs the board's cache invalidate hook over buf before the
// CPU reads data a peripheral just DMA'd in.
func (p *Pool) Invalidate(buf []byte) { p.cacheOps.Invalidate(buf) }
