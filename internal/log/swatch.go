// PadOS
// https://github.com/kavionic/pados
//
// Copyright (c) The PadOS Authors.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package log

import (
	"image/color"

	"github.com/maruel/ansi256"
)

// ColorSwatch renders an 8-bit-per-channel RGB color as an ANSI-256 block,
// so a console line can show approximately what color was painted. The
// compositor's ViewDebugDraw handler does not call it; it logs the
// ANSI-256 index instead.
func ColorSwatch(r, g, b uint8) string {
	return ansi256.Default.Block(color.NRGBA{R: r, G: g, B: b, A: 255}) + "\x1b[0m"
}
