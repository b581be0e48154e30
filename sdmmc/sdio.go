// PadOS
// https://github.com/kavionic/pados
//
// Copyright (c) The PadOS Authors.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package sdmmc

import "github.com/kavionic/pados/internal/perr"

// SDIO command indices, distinct from the memory-card command set: CMD52
// is a one-byte direct I/O exchange, CMD53 a multi-byte (1..512) extended
// exchange, both against one of the function numbers 1..7 or function 0
// (CIA, carrying the CCCR and CIS).
const (
	cmdIODirect   = 52
	cmdIOExtended = 53

	sdioFnCIA = 0 // Card Information Area: CCCR + CIS

	// CCCR register offsets, function 0 address space (spec glossary: CCCR).
	cccrBusInterface = 0x07
	cccrBusWidth4Bit = 1 << 1
	cccrHighSpeed    = 0x13
	cccrHighSpeedEn  = 1 << 1
)

func sdioDirectArg(write bool, fn uint8, addr uint32, data byte) uint32 {
	var arg uint32
	if write {
		arg |= 1 << 31
	}
	arg |= uint32(fn&0x7) << 28
	arg |= (addr & 0x1ffff) << 9
	arg |= uint32(data)
	return arg
}

func sdioExtendedArg(write bool, fn uint8, addr uint32, incrementAddr bool, size int) uint32 {
	var arg uint32
	if write {
		arg |= 1 << 31
	}
	arg |= uint32(fn&0x7) << 28
	if incrementAddr {
		arg |= 1 << 26
	}
	arg |= (addr & 0x1ffff) << 9
	arg |= uint32(size) & 0x1ff
	return arg
}

// sdioReadDirect performs a CMD52 one-byte read (spec §6.5 SDIOReadDirect).
func (d *Driver) sdioReadDirect(fn uint8, addr uint32) (byte, error) {
	rsp, err := d.ctl.SendCommand(Command{Index: cmdIODirect, Arg: sdioDirectArg(false, fn, addr, 0)}, nil)
	if err != nil {
		return 0, err
	}
	return byte(rsp[0]), nil
}

// sdioWriteDirect performs a CMD52 one-byte write.
func (d *Driver) sdioWriteDirect(fn uint8, addr uint32, data byte) error {
	_, err := d.ctl.SendCommand(Command{Index: cmdIODirect, Arg: sdioDirectArg(true, fn, addr, data)}, nil)
	return err
}

// sdioReadExtended performs a CMD53 multi-byte read, size 1..512.
func (d *Driver) sdioReadExtended(fn uint8, addr uint32, incrementAddr bool, buf []byte) error {
	if len(buf) == 0 || len(buf) > BlockSize {
		return perr.New("sdmmc.sdioReadExtended", perr.InvalidArg, "size out of 1..512 range")
	}
	_, err := d.ctl.SendCommand(Command{
		Index: cmdIOExtended,
		Arg:   sdioExtendedArg(false, fn, addr, incrementAddr, len(buf)),
		Dir:   DirRead,
	}, buf)
	return err
}

// sdioWriteExtended performs a CMD53 multi-byte write, size 1..512.
func (d *Driver) sdioWriteExtended(fn uint8, addr uint32, incrementAddr bool, buf []byte) error {
	if len(buf) == 0 || len(buf) > BlockSize {
		return perr.New("sdmmc.sdioWriteExtended", perr.InvalidArg, "size out of 1..512 range")
	}
	_, err := d.ctl.SendCommand(Command{
		Index: cmdIOExtended,
		Arg:   sdioExtendedArg(true, fn, addr, incrementAddr, len(buf)),
		Dir:   DirWrite,
	}, buf)
	return err
}

// sdioRaiseBusWidth requests 4-bit bus operation over the CCCR bus
// interface register, per spec §4.1.2 step 8's SDIO branch.
func (d *Driver) sdioRaiseBusWidth() error {
	v, err := d.sdioReadDirect(sdioFnCIA, cccrBusInterface)
	if err != nil {
		return err
	}
	return d.sdioWriteDirect(sdioFnCIA, cccrBusInterface, v|cccrBusWidth4Bit)
}

// sdioRaiseSpeed enables the CCCR high-speed bit, per spec §4.1.2 step 9.
func (d *Driver) sdioRaiseSpeed() error {
	v, err := d.sdioReadDirect(sdioFnCIA, cccrHighSpeed)
	if err != nil {
		return err
	}
	return d.sdioWriteDirect(sdioFnCIA, cccrHighSpeed, v|cccrHighSpeedEn)
}

// sdioDeviceControl decodes the fixed-layout argument records for the
// SDIO DeviceControl requests of spec §6.5, packed into in/out as:
// ReqSDIOReadDirect:    in={fn, addr(4)}              out={data(1)}
// ReqSDIOWriteDirect:   in={fn, addr(4), data(1)}      out=unused
// ReqSDIOReadExtended:  in={fn, addr(4), incr(1)}      out={buf}
// ReqSDIOWriteExtended: in={fn, addr(4), incr(1), buf} out=unused
func (d *Driver) sdioDeviceControl(req int, in, out []byte) error {
	const op = "sdmmc.sdioDeviceControl"

	switch req {
	case ReqSDIOReadDirect:
		if len(in) < 5 || len(out) < 1 {
			return perr.New(op, perr.InvalidArg, "malformed SDIOReadDirect args")
		}
		v, err := d.sdioReadDirect(in[0], leUint32(in[1:5]))
		if err != nil {
			return err
		}
		out[0] = v
		return nil

	case ReqSDIOWriteDirect:
		if len(in) < 6 {
			return perr.New(op, perr.InvalidArg, "malformed SDIOWriteDirect args")
		}
		return d.sdioWriteDirect(in[0], leUint32(in[1:5]), in[5])

	case ReqSDIOReadExtended:
		if len(in) < 6 {
			return perr.New(op, perr.InvalidArg, "malformed SDIOReadExtended args")
		}
		return d.sdioReadExtended(in[0], leUint32(in[1:5]), in[5] != 0, out)

	case ReqSDIOWriteExtended:
		if len(in) < 6 {
			return perr.New(op, perr.InvalidArg, "malformed SDIOWriteExtended args")
		}
		return d.sdioWriteExtended(in[0], leUint32(in[1:5]), in[5] != 0, in[6:])

	default:
		return perr.New(op, perr.NotImplemented, "unrecognized SDIO request")
	}
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
