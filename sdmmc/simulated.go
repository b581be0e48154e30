// PadOS
// https://github.com/kavionic/pados
//
// Copyright (c) The PadOS Authors.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package sdmmc

import (
	"sync"

	"github.com/kavionic/pados/internal/perr"
)

// SimController is a host-only Controller that models a single inserted
// card's command responses in memory, enough to drive card identification
// and block I/O end to end without real silicon. It exists for this
// package's own tests and for any caller exercising Driver on a hosted
// build.
type SimController struct {
	mu sync.Mutex

	present  bool
	isMMC    bool
	highCap  bool
	csd      [16]byte
	extCSD   []byte
	rca      uint16
	acmdNext bool

	storage []byte // BlockSize-aligned backing store

	isSDIO      bool
	comboMemory bool
	cccr        [256]byte // function-0 (CIA) register space for CMD52/53

	clockHz  int
	busWidth int
	highSpd  bool

	// FailNextN causes the next N data-phase commands to report a card
	// error status, modeling a transient bus error for retry tests.
	FailNextN int
}

// NewSimController returns a controller with no card inserted.
func NewSimController() *SimController {
	return &SimController{}
}

// InsertSD inserts a simulated high-capacity SD card (non-MMC) with
// sectorCount 512-byte sectors, encoding a CSD version 2.0 (SD v2.0+)
// C_SIZE field so DecodeCSD recovers sectorCount rounded down to a
// multiple of 1024.
func (c *SimController) InsertSD(sectorCount uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.present = true
	c.isMMC = false
	c.highCap = true
	c.rca = 0xaaaa
	c.storage = make([]byte, sectorCount*BlockSize)

	cSize := sectorCount/1024 - 1
	var csd [16]byte
	setFieldLE(&csd, 126, 2, 1) // CSD structure version 2.0
	setFieldLE(&csd, 48, 22, cSize)
	c.csd = csd
}

// InsertMMC inserts a simulated high-capacity MMC card, sector count
// carried in EXT_CSD bytes 212..215 as spec §6.1 describes.
func (c *SimController) InsertMMC(sectorCount uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.present = true
	c.isMMC = true
	c.highCap = true
	c.rca = 0x0001
	c.storage = make([]byte, sectorCount*BlockSize)

	ext := make([]byte, 512)
	ext[212] = byte(sectorCount)
	ext[213] = byte(sectorCount >> 8)
	ext[214] = byte(sectorCount >> 16)
	ext[215] = byte(sectorCount >> 24)
	c.extCSD = ext
}

// InsertSDIO inserts a simulated SDIO card, pure I/O or SD-combo depending
// on combo, per spec §4.1.2 step 3 ("SDIO probe sets the SDIO/SD-combo
// subtype"). A combo card also carries SD memory, modeled as if InsertSD
// had been called with memorySectorCount.
func (c *SimController) InsertSDIO(combo bool, memorySectorCount uint64) {
	if combo {
		c.InsertSD(memorySectorCount)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isSDIO = true
	c.comboMemory = combo
	if !combo {
		c.present = true
		c.rca = 0x0001
	}
}

// Remove simulates card removal.
func (c *SimController) Remove() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.present = false
}

func setFieldLE(csd *[16]byte, startBit, width int, val uint64) {
	for i := 0; i < width; i++ {
		if val&(1<<uint(i)) == 0 {
			continue
		}
		bit := startBit + i
		byteIdx := 15 - bit/8
		if byteIdx < 0 || byteIdx >= len(csd) {
			continue
		}
		csd[byteIdx] |= 1 << (uint(bit) % 8)
	}
}

func (c *SimController) CardDetected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.present
}

func (c *SimController) SetClock(hz int, width int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clockHz, c.busWidth = hz, width
	return nil
}

func (c *SimController) SetHighSpeed(enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.highSpd = enabled
	return nil
}

// card status bit conventionally reporting a read/write error, mirrored
// from the teacher's CARD_STATUS_ERR_RD_WR check in Read/Write.
const cardStatusErrRdWr = 1 << 19

func (c *SimController) SendCommand(cmd Command, buf []byte) ([4]uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.present && cmd.Index != 0 {
		return [4]uint32{}, perr.New("sdmmc.SimController", perr.NoDevice, "no card inserted")
	}

	if cmd.AppCmd {
		return c.doACmd(cmd, buf)
	}
	return c.doCmd(cmd, buf)
}

func (c *SimController) doCmd(cmd Command, buf []byte) ([4]uint32, error) {
	switch cmd.Index {
	case 0: // GO_IDLE_STATE
		return [4]uint32{}, nil
	case 8: // SD: SEND_IF_COND. MMC: SEND_EXT_CSD (a 512-byte read).
		if c.isMMC {
			if cmd.Dir != DirRead || buf == nil {
				return [4]uint32{}, perr.New("sdmmc.SimController", perr.IOError, "no response (MMC)")
			}
			if len(c.extCSD) == 0 {
				return [4]uint32{}, perr.New("sdmmc.SimController", perr.IOError, "no EXT_CSD")
			}
			copy(buf, c.extCSD)
			return [4]uint32{}, nil
		}
		return [4]uint32{cmd.Arg}, nil
	case 5: // IO_SEND_OP_COND (SDIO probe)
		if !c.isSDIO {
			return [4]uint32{}, perr.New("sdmmc.SimController", perr.IOError, "not SDIO")
		}
		const ocrMemoryPresent = 1 << 27
		ocr := uint32(1 << 31) // I/O ready
		if c.comboMemory {
			ocr |= ocrMemoryPresent
		}
		return [4]uint32{ocr}, nil
	case 52: // IO_RW_DIRECT
		if !c.isSDIO {
			return [4]uint32{}, perr.New("sdmmc.SimController", perr.IOError, "not SDIO")
		}
		write := cmd.Arg&(1<<31) != 0
		addr := int(((cmd.Arg >> 9) & 0x1ffff) % uint32(len(c.cccr)))
		if write {
			c.cccr[addr] = byte(cmd.Arg)
		}
		return [4]uint32{uint32(c.cccr[addr])}, nil
	case 53: // IO_RW_EXTENDED
		if !c.isSDIO {
			return [4]uint32{}, perr.New("sdmmc.SimController", perr.IOError, "not SDIO")
		}
		write := cmd.Arg&(1<<31) != 0
		addr := int(((cmd.Arg >> 9) & 0x1ffff) % uint32(len(c.cccr)))
		n := len(buf)
		if addr+n > len(c.cccr) {
			n = len(c.cccr) - addr
		}
		if write {
			copy(c.cccr[addr:addr+n], buf[:n])
		} else {
			copy(buf[:n], c.cccr[addr:addr+n])
		}
		return [4]uint32{}, nil
	case 1: // MMC SEND_OP_COND
		if !c.isMMC {
			return [4]uint32{}, perr.New("sdmmc.SimController", perr.IOError, "not MMC")
		}
		var ocr uint32 = 1 << 31 // bit 31 set: power-up complete, card ready
		if c.highCap {
			ocr |= 1 << 30
		}
		return [4]uint32{ocr}, nil
	case 2: // ALL_SEND_CID
		return [4]uint32{0x11223344, 0x55667788, 0x99aabbcc, 0xddeeff00}, nil
	case 3: // SEND/SET_RELATIVE_ADDR
		const currentStateIdent = 2
		return [4]uint32{uint32(c.rca)<<16 | currentStateIdent<<9}, nil
	case 9: // SEND_CSD
		var r [4]uint32
		for i := 0; i < 4; i++ {
			r[i] = uint32(c.csd[i*4]) | uint32(c.csd[i*4+1])<<8 | uint32(c.csd[i*4+2])<<16 | uint32(c.csd[i*4+3])<<24
		}
		return r, nil
	case 7: // SELECT/DESELECT CARD
		const currentStateTran = 4
		return [4]uint32{currentStateTran << 9}, nil
	case 6: // SWITCH (bus width/speed)
		return [4]uint32{}, nil
	case 13: // SEND_STATUS
		return [4]uint32{0}, nil
	case 16: // SET_BLOCKLEN
		return [4]uint32{}, nil
	case 17, 18: // READ_(MULTIPLE_)BLOCK
		return c.doTransfer(cmd, buf, DirRead)
	case 24, 25: // WRITE_(MULTIPLE_)BLOCK
		return c.doTransfer(cmd, buf, DirWrite)
	case 12: // STOP_TRANSMISSION
		return [4]uint32{}, nil
	case 55: // APP_CMD
		return [4]uint32{1 << 5}, nil
	default:
		return [4]uint32{}, perr.New("sdmmc.SimController", perr.NotImplemented, "unsupported command")
	}
}

func (c *SimController) doACmd(cmd Command, buf []byte) ([4]uint32, error) {
	switch cmd.Index {
	case 41: // SD_SEND_OP_COND
		if c.isMMC {
			// A real MMC card ignores ACMD41 (it isn't an SD command);
			// initialize's OCR poll must see an error here to fall
			// through to the CMD1 path rather than a bogus ready response.
			return [4]uint32{}, perr.New("sdmmc.SimController", perr.IOError, "no response (MMC)")
		}
		var ocr uint32 = 1 << 31 // busy bit set = ready
		if c.highCap {
			ocr |= 1 << 30
		}
		return [4]uint32{ocr}, nil
	case 6: // SET_BUS_WIDTH
		return [4]uint32{}, nil
	case 51: // SEND_SCR
		return [4]uint32{0, 0}, nil
	default:
		return [4]uint32{}, perr.New("sdmmc.SimController", perr.NotImplemented, "unsupported app command")
	}
}

func (c *SimController) doTransfer(cmd Command, buf []byte, dir Direction) ([4]uint32, error) {
	if c.FailNextN > 0 {
		c.FailNextN--
		return [4]uint32{cardStatusErrRdWr}, nil
	}

	start := int(cmd.Arg)
	if c.highCap {
		start *= BlockSize
	}

	if start < 0 || start+len(buf) > len(c.storage) {
		return [4]uint32{}, perr.New("sdmmc.SimController", perr.IOError, "transfer out of range")
	}

	if dir == DirRead {
		copy(buf, c.storage[start:start+len(buf)])
	} else {
		copy(c.storage[start:start+len(buf)], buf)
	}

	return [4]uint32{}, nil
}
