// PadOS
// https://github.com/kavionic/pados
//
// Copyright (c) The PadOS Authors.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package sdmmc

import (
	"context"
	"encoding/binary"

	"github.com/kavionic/pados/boardcfg"
	"github.com/kavionic/pados/internal/perr"
	"github.com/kavionic/pados/vfs"
	"golang.org/x/time/rate"
)

// DeviceControl request codes of spec §4.1.1 / §6.5.
const (
	ReqGetGeometry = iota
	ReqRereadPartitionTable
	ReqSDIOReadDirect
	ReqSDIOWriteDirect
	ReqSDIOReadExtended
	ReqSDIOWriteExtended
)

// Geometry is the GetGeometry DeviceControl reply payload of spec §4.1.1:
// "{bytes-per-sector=512, sector-count, read-only=false, removable=true}".
type Geometry struct {
	BytesPerSector uint32
	SectorCount    uint64
	ReadOnly       bool
	Removable      bool
}

func encodeGeometry(g Geometry, out []byte) error {
	if len(out) < 14 {
		return perr.New("sdmmc.encodeGeometry", perr.InvalidArg, "output buffer too small for Geometry")
	}
	binary.LittleEndian.PutUint32(out[0:4], g.BytesPerSector)
	binary.LittleEndian.PutUint64(out[4:12], g.SectorCount)
	out[12] = boolByte(g.ReadOnly)
	out[13] = boolByte(g.Removable)
	return nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// readAt implements the Read skeleton of spec §4.1.3 against the whole
// raw medium: acquire the device semaphore, issue CMD13 then a single- or
// multi-block read command, retry on error up to ten times.
func (d *Driver) readAt(p []byte, offset int64) (int, error) {
	return d.blockIO(p, offset, DirRead)
}

func (d *Driver) writeAt(p []byte, offset int64) (int, error) {
	return d.blockIO(p, offset, DirWrite)
}

func (d *Driver) blockIO(p []byte, offset int64, dir Direction) (int, error) {
	const op = "sdmmc.blockIO"

	if offset%BlockSize != 0 || len(p)%BlockSize != 0 {
		return 0, perr.New(op, perr.InvalidArg, "offset/length not a multiple of the block size")
	}

	d.mu.Lock()
	card := d.card
	d.mu.Unlock()

	if card.State != StateReady {
		return 0, perr.New(op, perr.NoDevice, "card not ready")
	}

	firstBlock := uint32(offset / BlockSize)
	blockCount := uint32(len(p) / BlockSize)

	// Retry budget and per-retry backoff come from the board's own
	// tuning (spec §5: "50 ms per retry, ten retries"), paced through a
	// limiter rather than a bare time.Sleep so a retry never fires
	// sooner than the board's configured spacing even if SendCommand
	// itself returned quickly.
	cfg := boardcfg.Current.SDMMC
	budget := cfg.RetryBudget
	if budget <= 0 {
		budget = maxBlockIORetries
	}
	limiter := rate.NewLimiter(rate.Every(cfg.RetryInterval), 1)

	var lastErr error

	for retry := 0; retry < budget; retry++ {
		// The first attempt takes the limiter's initial token, so every
		// later attempt waits a full interval.
		_ = limiter.Wait(context.Background())

		d.sem.Acquire()
		err := d.transferOnce(dir, firstBlock, blockCount, card.Type.Has(TypeHighCapacity), retry == 0, p)
		d.sem.Release()

		if err == nil {
			return len(p), nil
		}
		lastErr = err
	}

	return 0, perr.Wrap(op, perr.IOError, lastErr)
}

func (d *Driver) transferOnce(dir Direction, firstBlock, blockCount uint32, highCapacity, firstAttempt bool, buf []byte) error {
	if dir == DirRead {
		if _, err := d.ctl.SendCommand(Command{Index: 13}, nil); err != nil {
			return err
		}
	}

	index := uint32(17)
	if dir == DirWrite {
		index = 24
	}
	if blockCount > 1 {
		index++ // 18 (read) or 25 (write)
	}

	start := firstBlock
	if !highCapacity {
		start *= BlockSize
	}

	rsp, err := d.ctl.SendCommand(Command{
		Index:     index,
		Arg:       start,
		Blocks:    blockCount,
		BlockSize: BlockSize,
		Dir:       dir,
	}, buf)
	if err != nil {
		return err
	}

	const cardStatusErrRdWr = 1 << 19
	if rsp[0]&cardStatusErrRdWr != 0 {
		return perr.New("sdmmc.transferOnce", perr.IOError, "card reported read/write error status")
	}

	if blockCount > 1 {
		if _, err := d.ctl.SendCommand(Command{Index: 12}, nil); err != nil && (dir == DirWrite || !firstAttempt) {
			// Write's stop-transmission error is fatal; read tolerates it
			// on the first attempt per spec §4.1.3.
			return err
		}
	}

	return nil
}

func (d *Driver) deviceControl(req int, in, out []byte) error {
	const op = "sdmmc.DeviceControl"

	switch req {
	case ReqGetGeometry:
		card := d.Card()
		g := Geometry{BytesPerSector: BlockSize, SectorCount: card.SectorCount, ReadOnly: false, Removable: true}
		return encodeGeometry(g, out)

	case ReqRereadPartitionTable:
		force := len(in) > 0 && in[0] != 0
		return d.RereadPartitionTable(force)

	case ReqSDIOReadDirect, ReqSDIOWriteDirect, ReqSDIOReadExtended, ReqSDIOWriteExtended:
		return d.sdioDeviceControl(req, in, out)

	default:
		return perr.New(op, perr.NotImplemented, "unrecognized request")
	}
}

// RereadPartitionTable re-reads sector 0 and reconciles the published
// partition nodes against it, per spec §4.1.4.
func (d *Driver) RereadPartitionTable(force bool) error {
	const op = "sdmmc.RereadPartitionTable"

	buf := d.pool.Alloc(BlockSize)
	defer buf.Free()

	if _, err := d.readAt(buf.Bytes, 0); err != nil {
		return perr.Wrap(op, perr.IOError, err)
	}

	readSector := func(lba uint64, dst []byte) error {
		b := d.pool.Alloc(BlockSize)
		defer b.Free()
		if _, err := d.readAt(b.Bytes, int64(lba)*BlockSize); err != nil {
			return err
		}
		copy(dst, b.Bytes)
		return nil
	}

	table, err := vfs.DecodePartitionTable(buf.Bytes, readSector)
	if err != nil {
		return perr.Wrap(op, perr.IOError, err)
	}

	return d.parts.Reconcile(table, force, func(p *vfs.Partition) vfs.Device {
		return partitionDevice{d: d, start: int64(p.Start), size: int64(p.Size)}
	})
}

// partitionDevice adapts a byte-range of the raw medium to vfs.Device, the
// per-partition inode of spec §3.1: "partition inodes are substrings" of
// the raw medium.
type partitionDevice struct {
	d     *Driver
	start int64
	size  int64
}

func (p partitionDevice) Open(int) error { return nil }
func (p partitionDevice) Close() error   { return nil }

func (p partitionDevice) Read(buf []byte, offset int64) (int, error) {
	if offset >= p.size {
		return 0, nil
	}
	if offset+int64(len(buf)) > p.size {
		buf = buf[:p.size-offset]
	}
	return p.d.readAt(buf, p.start+offset)
}

func (p partitionDevice) Write(buf []byte, offset int64) (int, error) {
	if offset >= p.size {
		return 0, nil
	}
	if offset+int64(len(buf)) > p.size {
		buf = buf[:p.size-offset]
	}
	return p.d.writeAt(buf, p.start+offset)
}

func (p partitionDevice) DeviceControl(req int, in, out []byte) error {
	return p.d.deviceControl(req, in, out)
}
