package reg

import "testing"

func TestSpaceBitfields(t *testing.T) {
	s := New(NewMemBackend())

	s.Set(0x10, 3)
	if s.Get(0x10, 3, 1) != 1 {
		t.Fatalf("expected bit set")
	}

	s.Clear(0x10, 3)
	if s.Get(0x10, 3, 1) != 0 {
		t.Fatalf("expected bit clear")
	}

	s.SetN(0x10, 4, 0xf, 0x9)
	if got := s.Get(0x10, 4, 0xf); got != 0x9 {
		t.Fatalf("expected 0x9, got %x", got)
	}

	s.ClearN(0x10, 4, 0xf)
	if got := s.Get(0x10, 4, 0xf); got != 0 {
		t.Fatalf("expected cleared field, got %x", got)
	}
}

func TestWaitFor(t *testing.T) {
	be := NewMemBackend()
	s := New(be)

	be.Poke(0x20, 1)

	if !s.WaitFor(0, 0x20, 0, 1, 1) {
		t.Fatalf("expected immediate match")
	}

	if s.WaitFor(0, 0x20, 0, 1, 0) {
		t.Fatalf("expected timeout, field never reaches 0")
	}
}
