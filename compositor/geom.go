// PadOS
// https://github.com/kavionic/pados
//
// Copyright (c) The PadOS Authors.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package compositor

// Package compositor is the application server of spec §3.2/§4.2: it owns
// the framebuffer, the server-side view tree, and the region algebra that
// derives what each view is allowed to draw.

// Point is a coordinate in some view's local space.
type Point struct {
	X, Y float64
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p translated by -q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Rect is an axis-aligned rectangle with an exclusive right/bottom edge,
// per spec §6.2: "rectangles are {left, top, right, bottom} with
// right/bottom exclusive".
type Rect struct {
	Left, Top, Right, Bottom float64
}

// IRect is the integer-coordinate rectangle the region algebra operates
// on; compositor geometry is rasterized to pixels before clipping.
type IRect struct {
	Left, Top, Right, Bottom int
}

func RectFromFloat(r Rect) IRect {
	return IRect{int(r.Left), int(r.Top), int(r.Right), int(r.Bottom)}
}

func (r Rect) ToInt() IRect { return RectFromFloat(r) }

// Width and Height report the rectangle's extent; a rectangle with
// Right <= Left or Bottom <= Top is not valid.
func (r IRect) Width() int  { return r.Right - r.Left }
func (r IRect) Height() int { return r.Bottom - r.Top }

// IsValid reports whether r encloses a non-empty area.
func (r IRect) IsValid() bool { return r.Right > r.Left && r.Bottom > r.Top }

// LeftTop returns the rectangle's top-left corner.
func (r IRect) LeftTop() Point { return Point{float64(r.Left), float64(r.Top)} }

// Offset translates r by (dx, dy).
func (r IRect) Offset(dx, dy int) IRect {
	return IRect{r.Left + dx, r.Top + dy, r.Right + dx, r.Bottom + dy}
}

// OffsetPt translates r by p, truncated to integer pixels.
func (r IRect) OffsetPt(p Point) IRect {
	return r.Offset(int(p.X), int(p.Y))
}

// Intersect returns the intersection of r and o; the result IsValid only
// if the two rectangles genuinely overlap.
func (r IRect) Intersect(o IRect) IRect {
	out := IRect{
		Left:   max(r.Left, o.Left),
		Top:    max(r.Top, o.Top),
		Right:  min(r.Right, o.Right),
		Bottom: min(r.Bottom, o.Bottom),
	}
	return out
}

// Union returns the bounding rectangle of r and o.
func (r IRect) Union(o IRect) IRect {
	return IRect{
		Left:   min(r.Left, o.Left),
		Top:    min(r.Top, o.Top),
		Right:  max(r.Right, o.Right),
		Bottom: max(r.Bottom, o.Bottom),
	}
}

// Contains reports whether the pixel (x, y) lies within r.
func (r IRect) Contains(x, y int) bool {
	return x >= r.Left && x < r.Right && y >= r.Top && y < r.Bottom
}
