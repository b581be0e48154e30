// PadOS
// https://github.com/kavionic/pados
//
// Copyright (c) The PadOS Authors.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package layout

import "github.com/kavionic/pados/compositor"

// Horizontal places children left-to-right; each child's width is
// determined by weighted distribution of slack between the sum of
// children's minimum widths and the view's own width, capped per child
// by its own maximum width. Grounded on HLayoutNode::Layout.
type Horizontal struct{}

func (Horizontal) PreferredSize(view View, largest bool) compositor.Point {
	var size compositor.Point
	for _, c := range view.Children() {
		cs := c.PreferredSize(largest)
		size.X += cs.X
		if cs.Y > size.Y {
			size.Y = cs.Y
		}
	}
	return size
}

func (Horizontal) Layout(view View) {
	children := view.Children()
	if len(children) == 0 {
		return
	}
	bounds := normalizedBounds(view)

	mins := make([]float64, len(children))
	maxs := make([]float64, len(children))
	maxHeights := make([]float64, len(children))
	wheights := make([]float64, len(children))

	var totalMin, totalWheight float64
	for i, c := range children {
		min := c.PreferredSize(false)
		max := c.PreferredSize(true)
		mins[i] = min.X
		maxs[i] = max.X
		maxHeights[i] = max.Y
		wheights[i] = c.Wheight()
		totalMin += min.X
		totalWheight += wheights[i]
	}

	widths, unused := spaceOut(float64(bounds.Width()), totalMin, totalWheight, mins, maxs, wheights)
	pad := unused / float64(len(children))

	x := float64(bounds.Left) + pad/2
	for i, c := range children {
		w := widths[i]
		h := float64(bounds.Height())
		if h > maxHeights[i] {
			h = maxHeights[i]
		}
		y := float64(bounds.Top) + (float64(bounds.Height())-h)/2
		c.SetFrame(compositor.IRect{
			Left: int(x), Top: int(y),
			Right: int(x + w), Bottom: int(y + h),
		})
		x += w + pad
	}
}

// Vertical is Horizontal's symmetric counterpart: children placed
// top-to-bottom. Grounded on VLayoutNode::Layout.
type Vertical struct{}

func (Vertical) PreferredSize(view View, largest bool) compositor.Point {
	var size compositor.Point
	for _, c := range view.Children() {
		cs := c.PreferredSize(largest)
		size.Y += cs.Y
		if cs.X > size.X {
			size.X = cs.X
		}
	}
	return size
}

func (Vertical) Layout(view View) {
	children := view.Children()
	if len(children) == 0 {
		return
	}
	bounds := normalizedBounds(view)

	mins := make([]float64, len(children))
	maxs := make([]float64, len(children))
	maxWidths := make([]float64, len(children))
	wheights := make([]float64, len(children))

	var totalMin, totalWheight float64
	for i, c := range children {
		min := c.PreferredSize(false)
		max := c.PreferredSize(true)
		mins[i] = min.Y
		maxs[i] = max.Y
		maxWidths[i] = max.X
		wheights[i] = c.Wheight()
		totalMin += min.Y
		totalWheight += wheights[i]
	}

	heights, unused := spaceOut(float64(bounds.Height()), totalMin, totalWheight, mins, maxs, wheights)
	pad := unused / float64(len(children))

	y := float64(bounds.Top) + pad/2
	for i, c := range children {
		h := heights[i]
		w := float64(bounds.Width())
		if w > maxWidths[i] {
			w = maxWidths[i]
		}
		x := float64(bounds.Left) + (float64(bounds.Width())-w)/2
		c.SetFrame(compositor.IRect{
			Left: int(x), Top: int(y),
			Right: int(x + w), Bottom: int(y + h),
		})
		y += h + pad
	}
}
