package vfs

import (
	"encoding/binary"
	"testing"
)

func buildMBR(entries [4][2]uint32, types [4]byte) []byte {
	buf := make([]byte, BlockSize)
	for i := 0; i < 4; i++ {
		e := buf[mbrTableOffset+i*mbrEntrySize : mbrTableOffset+(i+1)*mbrEntrySize]
		e[4] = types[i]
		binary.LittleEndian.PutUint32(e[8:12], entries[i][0])
		binary.LittleEndian.PutUint32(e[12:16], entries[i][1])
	}
	buf[mbrSignatureOffset] = mbrSignatureLo
	buf[mbrSignatureOffset+1] = mbrSignatureHi
	return buf
}

func TestDecodePartitionTableBasic(t *testing.T) {
	sector0 := buildMBR(
		[4][2]uint32{{2048, 204800}, {0, 0}, {0, 0}, {0, 0}},
		[4]byte{0x83, 0, 0, 0},
	)

	parts, err := DecodePartitionTable(sector0, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(parts) != 1 {
		t.Fatalf("expected 1 partition, got %d", len(parts))
	}
	if parts[0].Start != 2048*BlockSize || parts[0].Size != 204800*BlockSize || parts[0].Type != 0x83 {
		t.Fatalf("unexpected partition: %+v", parts[0])
	}
}

func TestDecodePartitionTableNoSignatureIsEmpty(t *testing.T) {
	buf := make([]byte, BlockSize)
	parts, err := DecodePartitionTable(buf, nil)
	if err != nil {
		t.Fatalf("expected degrade-to-empty, got error: %v", err)
	}
	if parts != nil {
		t.Fatalf("expected no partitions, got %v", parts)
	}
}

func TestDecodePartitionTableRejectsShortBuffer(t *testing.T) {
	if _, err := DecodePartitionTable(make([]byte, 10), nil); err == nil {
		t.Fatalf("expected error for undersized buffer")
	}
}
