// PadOS
// https://github.com/kavionic/pados
//
// Copyright (c) The PadOS Authors.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package boardcfg captures per-board tunables as plain Go structs
// assigned by a board package's init(), the same shape
// github.com/usbarmory/tamago's board/usbarmory/mk2 and
// board/nxp/imx8mpevk packages use for their own hardware bring-up:
// a package-level Config the generic drivers (sdmmc, compositor, hal)
// read instead of hard-coding a specific panel or SD controller.
package boardcfg

import "time"

// SDMMC holds the SD/MMC controller tunables of spec §3.1/§5: a clock
// ceiling, a default bus width, the OCR-polling deadline, and the block-I/O
// retry budget and spacing. The sdmmc driver reads the last three; it does
// not read MaxClockHz or DefaultBusWidth.
type SDMMC struct {
	// MaxClockHz is the board's highest supported bus clock. The sdmmc
	// driver does not read it: it runs every identified card at 25 MHz.
	MaxClockHz uint32

	// DefaultBusWidth is the board's preferred data bus width. The sdmmc
	// driver does not read it: it requests 4 bits for SD and SDIO cards
	// and 8 bits for MMC, and stays at 1 bit when the card rejects the
	// switch.
	DefaultBusWidth int

	// OCRPollTimeout bounds ACMD41/CMD1 polling during identification
	// (spec §5: "1-second deadline on OCR polling during init").
	OCRPollTimeout time.Duration

	// RetryBudget is the number of stuck-read retries before a transfer
	// fails (spec §5: "ten retries").
	RetryBudget int

	// RetryInterval is the per-retry backoff (spec §5: "50 ms per retry
	// attempt for stuck reads").
	RetryInterval time.Duration
}

// Panel holds the RA8875-class display panel timings and geometry the
// compositor's Display implementation is configured against.
type Panel struct {
	WidthPx, HeightPx int

	// PixelClockHz is the panel's native dot clock.
	PixelClockHz uint32

	// HSyncPulse/VSyncPulse and the front/back porch widths follow the
	// RA8875 datasheet's register field names (PCLK, HBPQ, HFPQ, etc.);
	// stored as plain counts since the driver writes them straight to
	// register fields.
	HSyncPulse, HBackPorch, HFrontPorch int
	VSyncPulse, VBackPorch, VFrontPorch int

	// TouchIRQActiveLow reports the polarity of the touch controller's
	// interrupt line, wired through hal.Pin.
	TouchIRQActiveLow bool
}

// Config is the full set of tunables one board provides. A board package
// assigns Current in its own init(), mirroring mk2.Init's
// "//go:linkname Init runtime.hwinit" early-boot hook pattern but using a
// plain init() here since PadOS's boards are configuration data, not SoC
// register bring-up code.
type Config struct {
	Name  string
	SDMMC SDMMC
	Panel Panel
}

// Current is the active board configuration. Defaults describe a
// conservative software/testing target; a real board's package
// overwrites this in its own init().
var Current = Config{
	Name: "generic",
	SDMMC: SDMMC{
		MaxClockHz:      50_000_000,
		DefaultBusWidth: 4,
		OCRPollTimeout:  time.Second,
		RetryBudget:     10,
		RetryInterval:   50 * time.Millisecond,
	},
	Panel: Panel{
		WidthPx:  800,
		HeightPx: 480,
	},
}
