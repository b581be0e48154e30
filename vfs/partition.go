// PadOS
// https://github.com/kavionic/pados
//
// Copyright (c) The PadOS Authors.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package vfs

import (
	"encoding/binary"

	"github.com/kavionic/pados/internal/perr"
)

// BlockSize is the fixed sector size this VFS's block devices are
// addressed in (spec §3.1: "Block I/O uses byte offsets that must be a
// multiple of the 512-byte block size").
const BlockSize = 512

// PartitionEntry is one decoded MBR/EBR table row: a (start, size, type)
// triple, matching the disk_partition_desc the source's
// KVFSManager::DecodeDiskPartitions_trw returns (spec §6.1).
type PartitionEntry struct {
	Start uint64 // byte offset from the start of the medium
	Size  uint64 // bytes
	Type  byte
}

const (
	mbrSignatureOffset = 510
	mbrSignatureLo     = 0x55
	mbrSignatureHi     = 0xaa
	mbrTableOffset     = 446
	mbrEntrySize       = 16
	mbrEntryCount      = 4

	partTypeEmpty    = 0x00
	partTypeExtended = 0x05
	partTypeExtLBA   = 0x0f
	partTypeExtLinux = 0x85
)

// DecodePartitionTable decodes a 512-byte sector-0 (MBR) buffer into a
// flat list of primary and logical partitions, per spec §4.1.4 and §6.1:
// "the driver passes a 512-byte sector-0 buffer to the VFS's MBR/EBR
// decoder ... partitions with type 0 or size 0 are ignored". readSector
// is invoked to fetch any extended-boot-record sector beyond sector 0, so
// a caller with a cache-aligned scratch buffer can reuse it rather than
// this package allocating its own.
func DecodePartitionTable(sector0 []byte, readSector func(lba uint64, buf []byte) error) ([]PartitionEntry, error) {
	if len(sector0) < BlockSize {
		return nil, perr.New("vfs.DecodePartitionTable", perr.InvalidArg, "sector buffer shorter than one block")
	}

	if sector0[mbrSignatureOffset] != mbrSignatureLo || sector0[mbrSignatureOffset+1] != mbrSignatureHi {
		// No MBR signature: treat the whole medium as unpartitioned rather
		// than erroring, matching the propagation policy of spec §7:
		// "partition-table I/O errors during decode ... produce an empty
		// partition list without removing existing partitions."
		return nil, nil
	}

	var out []PartitionEntry

	for i := 0; i < mbrEntryCount; i++ {
		e := sector0[mbrTableOffset+i*mbrEntrySize : mbrTableOffset+(i+1)*mbrEntrySize]
		ptype := e[4]
		startLBA := binary.LittleEndian.Uint32(e[8:12])
		sectorCount := binary.LittleEndian.Uint32(e[12:16])

		if ptype == partTypeEmpty || sectorCount == 0 {
			continue
		}

		if ptype == partTypeExtended || ptype == partTypeExtLBA || ptype == partTypeExtLinux {
			logical, err := decodeExtendedChain(uint64(startLBA), readSector)
			if err != nil {
				return nil, nil // same degrade-to-empty policy as above
			}
			out = append(out, logical...)
			continue
		}

		out = append(out, PartitionEntry{
			Start: uint64(startLBA) * BlockSize,
			Size:  uint64(sectorCount) * BlockSize,
			Type:  ptype,
		})
	}

	return out, nil
}

// decodeExtendedChain walks the linked list of Extended Boot Records
// starting at extendedLBA, each EBR holding one logical partition entry
// and, optionally, a link to the next EBR, both at the same table offset
// as the MBR's primary table.
func decodeExtendedChain(extendedLBA uint64, readSector func(lba uint64, buf []byte) error) ([]PartitionEntry, error) {
	if readSector == nil {
		return nil, perr.New("vfs.decodeExtendedChain", perr.InvalidArg, "extended partition present but no sector reader supplied")
	}

	var out []PartitionEntry
	base := extendedLBA
	next := extendedLBA

	// Defends against a malformed or cyclic EBR chain; no real medium
	// needs more than a few dozen logical partitions.
	for guard := 0; guard < 128; guard++ {
		buf := make([]byte, BlockSize)
		if err := readSector(next, buf); err != nil {
			return nil, err
		}
		if buf[mbrSignatureOffset] != mbrSignatureLo || buf[mbrSignatureOffset+1] != mbrSignatureHi {
			break
		}

		e := buf[mbrTableOffset : mbrTableOffset+mbrEntrySize]
		ptype := e[4]
		startLBA := binary.LittleEndian.Uint32(e[8:12])
		sectorCount := binary.LittleEndian.Uint32(e[12:16])

		if ptype != partTypeEmpty && sectorCount != 0 {
			out = append(out, PartitionEntry{
				Start: (next + uint64(startLBA)) * BlockSize,
				Size:  uint64(sectorCount) * BlockSize,
				Type:  ptype,
			})
		}

		link := buf[mbrTableOffset+mbrEntrySize : mbrTableOffset+2*mbrEntrySize]
		linkType := link[4]
		linkLBA := binary.LittleEndian.Uint32(link[8:12])

		if linkType == partTypeEmpty || linkLBA == 0 {
			break
		}
		next = base + uint64(linkLBA)
	}

	return out, nil
}
