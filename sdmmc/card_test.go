package sdmmc

import "testing"

func TestDecodeCSDVersion2(t *testing.T) {
	var csd [16]byte
	setFieldLE(&csd, 126, 2, 1) // structure version 2.0
	cSize := uint64(2047)      // (2047+1)*1024 = 2,097,152 sectors (1GiB)
	setFieldLE(&csd, 48, 22, cSize)

	got := DecodeCSD(csd, nil, false)
	want := (cSize + 1) * 1024
	if got != want {
		t.Fatalf("got %d, want %d", got, want)
	}
}

func TestDecodeCSDMMCHighCapacity(t *testing.T) {
	ext := make([]byte, 512)
	var want uint64 = 8388608 // 4GiB in 512-byte sectors
	ext[212] = byte(want)
	ext[213] = byte(want >> 8)
	ext[214] = byte(want >> 16)
	ext[215] = byte(want >> 24)

	got := DecodeCSD([16]byte{}, ext, true)
	if got != want {
		t.Fatalf("got %d, want %d", got, want)
	}
}

func TestTypeString(t *testing.T) {
	ty := TypeSD | TypeHighCapacity
	if ty.String() != "SD|HC" {
		t.Fatalf("unexpected type string: %q", ty.String())
	}
	if !ty.Has(TypeSD) || ty.Has(TypeMMC) {
		t.Fatalf("Has() behaved unexpectedly for %v", ty)
	}
}
