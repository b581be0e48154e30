package hal

import "testing"

func TestPoolAllocAlignsAndSizes(t *testing.T) {
	p := NewPool(4*CacheLineSize, nil)

	b := p.Alloc(10)
	if len(b.Bytes) != 10 {
		t.Fatalf("expected 10 visible bytes, got %d", len(b.Bytes))
	}
	if cap(b.Bytes) != CacheLineSize {
		t.Fatalf("expected capacity rounded to one cache line, got %d", cap(b.Bytes))
	}
}

func TestPoolFreeCoalesces(t *testing.T) {
	p := NewPool(4*CacheLineSize, nil)

	a := p.Alloc(CacheLineSize)
	b := p.Alloc(CacheLineSize)
	c := p.Alloc(CacheLineSize)

	a.Free()
	b.Free()
	c.Free()

	if p.free.Len() != 1 {
		t.Fatalf("expected free list to coalesce back to one block, got %d entries", p.free.Len())
	}
	blk := p.free.Front().Value.(*block)
	if blk.offset != 0 || blk.size != 4*CacheLineSize {
		t.Fatalf("unexpected coalesced block: %+v", blk)
	}
}

func TestPoolExhaustionPanics(t *testing.T) {
	p := NewPool(CacheLineSize, nil)
	p.Alloc(CacheLineSize)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on exhausted pool")
		}
	}()
	p.Alloc(1)
}

func TestCacheOpsInvoked(t *testing.T) {
	var cleaned, invalidated bool
	p := NewPool(CacheLineSize, &CacheOps{
		Clean:      func([]byte) { cleaned = true },
		Invalidate: func([]byte) { invalidated = true },
	})

	b := p.Alloc(8)
	p.Clean(b.Bytes)
	p.Invalidate(b.Bytes)

	if !cleaned || !invalidated {
		t.Fatalf("expected both cache hooks to run")
	}
}
