package bits

import "testing"

func TestSetGetClear(t *testing.T) {
	var v uint32

	Set(&v, 3)
	if Get(&v, 3, 1) != 1 {
		t.Fatalf("expected bit 3 set")
	}

	Clear(&v, 3)
	if Get(&v, 3, 1) != 0 {
		t.Fatalf("expected bit 3 clear")
	}

	SetN(&v, 4, 0xf, 0xa)
	if Get(&v, 4, 0xf) != 0xa {
		t.Fatalf("expected field 0xa, got %x", Get(&v, 4, 0xf))
	}
}

func TestFieldFrom128(t *testing.T) {
	words := [4]uint32{0x00000000, 0x000000ab, 0x00000000, 0x00000000}

	// bit 32 is the LSB of words[1]
	got := FieldFrom128(words, 32, 8)
	if got != 0xab {
		t.Fatalf("expected 0xab, got %x", got)
	}
}

func TestGetSetN64(t *testing.T) {
	var v uint64

	SetN64(&v, 8, 0xff, 0x42)
	if Get64(&v, 8, 0xff) != 0x42 {
		t.Fatalf("expected 0x42, got %x", Get64(&v, 8, 0xff))
	}
}
