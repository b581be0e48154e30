// PadOS
// https://github.com/kavionic/pados
//
// Copyright (c) The PadOS Authors.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package layout is the client-side layout engine of spec §4.3.2,
// grounded on the original's PadOS/System/GUI/LayoutNode.cpp: a
// polymorphic Node owning a view, with Stacked (default), Horizontal,
// Vertical and Spacer variants.
package layout

import "github.com/kavionic/pados/compositor"

// View is the subset of a client view a layout Node needs: its frame in
// parent coordinates, its weighted share of slack, and its own preferred
// size (already adjusted for size overrides — layout never sees
// overrides directly, per spec §4.3.2).
type View interface {
	Frame() compositor.IRect
	SetFrame(compositor.IRect)
	Children() []View
	Wheight() float64
	PreferredSize(largest bool) compositor.Point
}

// Node is a layout strategy: given the owning view's current bounds and
// its children, it assigns each child a frame.
type Node interface {
	// PreferredSize reports the size this node's content would occupy
	// given its children's own preferred sizes (CalculateContentSize).
	PreferredSize(view View, largest bool) compositor.Point

	// Layout assigns frames to view's children.
	Layout(view View)
}

// Stacked is the default layout: every child occupies the view's whole
// bounds.
type Stacked struct{}

func (Stacked) PreferredSize(view View, largest bool) compositor.Point {
	var size compositor.Point
	for _, c := range view.Children() {
		cs := c.PreferredSize(largest)
		if cs.X > size.X {
			size.X = cs.X
		}
		if cs.Y > size.Y {
			size.Y = cs.Y
		}
	}
	return size
}

func (Stacked) Layout(view View) {
	bounds := normalizedBounds(view)
	for _, c := range view.Children() {
		c.SetFrame(bounds)
	}
}

// Spacer is a leaf layout node reporting a fixed min/max size and never
// holding children, used to insert padding into a Horizontal/Vertical
// layout.
type Spacer struct {
	Min, Max compositor.Point
}

func (s Spacer) PreferredSize(_ View, largest bool) compositor.Point {
	if largest {
		return s.Max
	}
	return s.Min
}
func (s Spacer) Layout(View) {}

func normalizedBounds(view View) compositor.IRect {
	f := view.Frame()
	return compositor.IRect{Left: 0, Top: 0, Right: f.Width(), Bottom: f.Height()}
}

// spaceOut distributes total slack (totalSize - totalMinSize) across
// entries by weight, capping each at (max - min); it reruns the
// distribution after capping any entry until a pass caps nothing, then
// returns the remaining unused slack. Grounded exactly on the source's
// SpaceOut (LayoutNode.cpp).
func spaceOut(totalSize, totalMinSize, totalWheight float64, minSizes, maxSizes, wheights []float64) (finalSizes []float64, unused float64) {
	n := len(minSizes)
	finalSizes = make([]float64, n)
	done := make([]bool, n)
	extra := totalSize - totalMinSize

	for {
		capped := -1
		for i := 0; i < n; i++ {
			if done[i] {
				continue
			}
			weight := 0.0
			if totalWheight != 0 {
				weight = wheights[i] / totalWheight
			}
			finalSizes[i] = minSizes[i] + extra*weight
			if finalSizes[i] >= maxSizes[i] {
				extra -= maxSizes[i] - minSizes[i]
				totalWheight -= wheights[i]
				finalSizes[i] = maxSizes[i]
				done[i] = true
				capped = i
				break
			}
		}
		if capped < 0 {
			break
		}
	}

	sum := 0.0
	for _, v := range finalSizes {
		sum += v
	}
	return finalSizes, totalSize - sum
}
