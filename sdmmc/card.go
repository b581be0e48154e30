// PadOS
// https://github.com/kavionic/pados
//
// Copyright (c) The PadOS Authors.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package sdmmc is the SD/SDIO/MMC host driver of spec §4.1: card
// discovery and identification, OCR/CSD/SCR negotiation, clock and
// bus-width ramp-up, block I/O with cache-aligned buffers and retry, SDIO
// CCCR/CIS traversal, and VFS partition-node integration. It is grounded
// on the teacher's soc/nxp/usdhc driver (cmd/response framing, CSD
// decode, ACMD41/CMD1 negotiation) and, for the parts the teacher never
// implemented (partition lifecycle, the dual SD/MMC fallback path),
// directly on the system this spec was distilled from.
package sdmmc

import "time"

// State is the card lifecycle of spec §3.1 / §4.1.2.
type State int

const (
	StateNoCard State = iota
	StateInitializing
	StateReady
	StateUnusable
)

func (s State) String() string {
	switch s {
	case StateNoCard:
		return "no-card"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateUnusable:
		return "unusable"
	default:
		return "unknown"
	}
}

// Type is a bitset of the card-type flags spec §3.1 names: "a type set of
// {SD, MMC, SDIO, SD-combo, HighCapacity}".
type Type uint8

const (
	TypeSD Type = 1 << iota
	TypeMMC
	TypeSDIO
	TypeCombo
	TypeHighCapacity
)

func (t Type) Has(f Type) bool { return t&f != 0 }

func (t Type) String() string {
	var s string
	for _, f := range []struct {
		bit  Type
		name string
	}{
		{TypeSD, "SD"}, {TypeMMC, "MMC"}, {TypeSDIO, "SDIO"},
		{TypeCombo, "Combo"}, {TypeHighCapacity, "HC"},
	} {
		if t.Has(f.bit) {
			if s != "" {
				s += "|"
			}
			s += f.name
		}
	}
	if s == "" {
		return "none"
	}
	return s
}

// Version enumerates the SD/MMC protocol revision negotiated during
// identification (spec §3.1: "a version (SD 1.0, SD 1.10, SD 2.0, SD 3.0,
// MMC 1.2...4)").
type Version int

const (
	VersionUnknown Version = iota
	VersionSD1_0
	VersionSD1_10
	VersionSD2_0
	VersionSD3_0
	VersionMMC1_2
	VersionMMC1_4
	VersionMMC2
	VersionMMC3
	VersionMMC4
)

// Card is the identified card's state as of the last successful
// initialization or command, per spec §3.1's "Card state" data model.
type Card struct {
	State       State
	Type        Type
	Version     Version
	RCA         uint16
	ClockHz     int
	BusWidth    int
	HighSpeed   bool
	SectorCount uint64
	CSD         [16]byte // 128 bits raw
	ExtCSD      []byte   // 512 bytes, MMC only, nil otherwise
}

// BlockSize is the fixed sector size every block-I/O command in this
// driver addresses (spec §3.1 invariant (d)).
const BlockSize = 512

// init retry/backoff constants named in spec §4.1.2/§5.
const (
	ocrPollDeadline  = 1 * time.Second
	cardDetectDebounce = 100 * time.Millisecond
	unusableRetryDelay = 500 * time.Millisecond
	stuckReadTimeout   = 50 * time.Millisecond
	maxBlockIORetries  = 10
)

// DecodeCSD derives SectorCount from the raw 128-bit CSD per spec §6.1,
// branching on CSD structure version and, for MMC high-capacity cards,
// on EXT_CSD bytes 212..215 instead.
func DecodeCSD(csd [16]byte, extCSD []byte, highCapacityMMC bool) uint64 {
	// CSD is transmitted and stored MSB-first; bit 126-127 (structure
	// version) lives in the first two bits of the second byte from the
	// top in the JEDEC/SD layout the teacher's CSD_RSP_OFF arithmetic
	// addresses relative to a 128-bit response shifted down by 8 (the
	// CRC byte is not part of the stored response). Field extraction
	// here works directly against the stored 16-byte CSD instead.
	structureVersion := (csd[0] >> 6) & 0x3

	if highCapacityMMC {
		if len(extCSD) >= 216 {
			return uint64(extCSD[212]) | uint64(extCSD[213])<<8 | uint64(extCSD[214])<<16 | uint64(extCSD[215])<<24
		}
		return 0
	}

	switch structureVersion {
	case 0:
		// SD v1.x / MMC standard-capacity.
		cSizeMult := fieldLE(csd, 47, 3)
		cSize := fieldLE(csd, 62, 12)
		readBlLen := fieldLE(csd, 80, 4)
		return (cSize + 1) * (1 << (cSizeMult + 2)) * (1 << readBlLen) / BlockSize
	case 1:
		// SD v2.0 (CSD version 2.0): sector_count = (C_SIZE+1) x 1024.
		cSize := fieldLE(csd, 48, 22)
		return (cSize + 1) * 1024
	default:
		// SD v3.0 (CSD version 3.0): same formula, wider C_SIZE field.
		cSize := fieldLE(csd, 48, 28)
		return (cSize + 1) * 1024
	}
}

// decodeSCR derives the negotiated SD physical-layer spec version from an
// ACMD51 SEND_SCR response, per spec §4.1.2 step 7 ("ACMD51 reads 64-bit
// SCR for SD version"). rsp[0] carries SCR bits 63:32.
func decodeSCR(rsp [4]uint32) Version {
	sdSpec := (rsp[0] >> 24) & 0xf
	sdSpec3 := (rsp[0] >> 15) & 0x1

	switch {
	case sdSpec == 0:
		return VersionSD1_0
	case sdSpec == 1:
		return VersionSD1_10
	case sdSpec == 2 && sdSpec3 == 0:
		return VersionSD2_0
	case sdSpec == 2 && sdSpec3 == 1:
		return VersionSD3_0
	default:
		return VersionUnknown
	}
}

// decodeMMCVersion derives the negotiated MMC spec version from CSD
// SPEC_VERS (bits 122:125). A card that carries an EXT_CSD (the
// high-capacity cards) is reported as MMC 4; EXT_CSD_REV is not read.
func decodeMMCVersion(csd [16]byte, extCSD []byte) Version {
	if len(extCSD) > 192 {
		return VersionMMC4
	}
	switch fieldLE(csd, 122, 4) {
	case 0:
		return VersionMMC1_2
	case 1:
		return VersionMMC1_4
	case 2:
		return VersionMMC2
	case 3:
		return VersionMMC3
	case 4:
		return VersionMMC4
	default:
		return VersionUnknown
	}
}

// fieldLE extracts a bit field from a 128-bit CSD, where bit 0 is the LSB
// of the last transmitted byte (csd[15]) per the SD/MMC convention of
// numbering CSD bits from the end of the register.
func fieldLE(csd [16]byte, startBit, width int) uint64 {
	var v uint64
	for i := 0; i < width; i++ {
		bit := startBit + i
		byteIdx := 15 - bit/8
		if byteIdx < 0 || byteIdx >= len(csd) {
			continue
		}
		if csd[byteIdx]&(1<<(uint(bit)%8)) != 0 {
			v |= 1 << uint(i)
		}
	}
	return v
}
