// PadOS
// https://github.com/kavionic/pados
//
// Copyright (c) The PadOS Authors.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package padtouch provides the board configuration, automatically on
// import, for the reference PadOS touchscreen device: an 800x480 RA8875
// panel and a single SD/MMC storage slot. Mirrors the automatic,
// import-triggered board bring-up of usbarmory-tamago's board/usbarmory/mk2
// and board/nxp/imx8mpevk packages, but assigns a boardcfg.Config rather
// than poking SoC registers directly.
package padtouch

import (
	"time"

	"github.com/kavionic/pados/boardcfg"
)

func init() {
	boardcfg.Current = boardcfg.Config{
		Name: "pados-touch-ref",
		SDMMC: boardcfg.SDMMC{
			MaxClockHz:      50_000_000,
			DefaultBusWidth: 4,
			OCRPollTimeout:  time.Second,
			RetryBudget:     10,
			RetryInterval:   50 * time.Millisecond,
		},
		Panel: boardcfg.Panel{
			WidthPx:           800,
			HeightPx:          480,
			PixelClockHz:      33_300_000,
			HSyncPulse:        48,
			HBackPorch:        88,
			HFrontPorch:       40,
			VSyncPulse:        3,
			VBackPorch:        32,
			VFrontPorch:       13,
			TouchIRQActiveLow: true,
		},
	}
}
