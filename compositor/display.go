// PadOS
// https://github.com/kavionic/pados
//
// Copyright (c) The PadOS Authors.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package compositor

// Display is the hardware surface the compositor owns exclusively, per
// spec §5: "the framebuffer and RA8875 registers are owned by the
// compositor". It exposes the RA8875 blitter's primitive operations,
// generalized from the teacher's bcm2835/framebuffer property-tag calls
// (PhysicalSize/SetPhysicalSize) into the fixed small set of hardware
// draws the drawing-translation layer (§4.2.4) emits per clip
// rectangle. A real board wires this over the RA8875's register block
// (busy-waiting on the blitter-status register per call, per spec §5);
// tests use SimDisplay.
type Display interface {
	// Size reports the panel's pixel dimensions.
	Size() (width, height int)

	// FillRect paints rect solid with color. rect is already clipped to
	// a single destination sub-rectangle.
	FillRect(rect IRect, color uint16)

	// DrawLine draws a single already-clipped line segment.
	DrawLine(p1, p2 Point, color uint16)

	// FillCircle paints a filled circle, windowed to clip (the hardware
	// draw-circle's clip window is set to clip's screen area, per
	// §4.2.4).
	FillCircle(center Point, radius float64, clip IRect, color uint16)

	// DrawString draws text with the hardware's built-in glyph engine
	// (no software rasterizer, per spec Non-goals).
	DrawString(pos Point, s string, color uint16)

	// CopyRect performs the accelerated BTE rectangle move used both for
	// explicit ViewCopyRect and for the sibling-move optimization of
	// §4.2.2.
	CopyRect(src, dst IRect)
}

// drawCall records one Display invocation; SimDisplay appends one per
// call so tests can assert on the exact sequence of hardware operations
// a drawing-translation path emitted.
type drawCall struct {
	Op    string
	Rect  IRect
	P1,P2 Point
	Color uint16
}

// SimDisplay is an in-memory Display used by tests: it does not
// rasterize anything, it just records the sequence of primitive calls,
// since spec Non-goals exclude a software rasterizer — verifying pixels
// would require one.
type SimDisplay struct {
	W, H  int
	Calls []drawCall
}

func NewSimDisplay(w, h int) *SimDisplay {
	return &SimDisplay{W: w, H: h}
}

func (d *SimDisplay) Size() (int, int) { return d.W, d.H }

func (d *SimDisplay) FillRect(rect IRect, color uint16) {
	d.Calls = append(d.Calls, drawCall{Op: "fillrect", Rect: rect, Color: color})
}

func (d *SimDisplay) DrawLine(p1, p2 Point, color uint16) {
	d.Calls = append(d.Calls, drawCall{Op: "line", P1: p1, P2: p2, Color: color})
}

func (d *SimDisplay) FillCircle(center Point, radius float64, clip IRect, color uint16) {
	d.Calls = append(d.Calls, drawCall{Op: "circle", P1: center, Rect: clip, Color: color})
}

func (d *SimDisplay) DrawString(pos Point, s string, color uint16) {
	d.Calls = append(d.Calls, drawCall{Op: "string", P1: pos, Color: color})
}

func (d *SimDisplay) CopyRect(src, dst IRect) {
	d.Calls = append(d.Calls, drawCall{Op: "copyrect", Rect: dst, P1: src.LeftTop()})
}
