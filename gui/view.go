// PadOS
// https://github.com/kavionic/pados
//
// Copyright (c) The PadOS Authors.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package gui is the client-side GUI framework of spec §3.3/§4.3: a
// client-side mirror of the compositor's server views, message batching
// over the wire port, layout, and event dispatch. Grounded on the
// original's PadOS/System/GUI/View.cpp (client half) and LayoutNode.cpp.
package gui

import (
	"github.com/kavionic/pados/compositor"
	"github.com/kavionic/pados/gui/layout"
)

// SizeOverride is the per-axis size policy of spec §4.3.2.
type SizeOverride int

const (
	// OverrideNone leaves the reported preferred size untouched.
	OverrideNone SizeOverride = iota
	// OverrideAlways replaces both the smallest and greatest size for the axis.
	OverrideAlways
	// OverrideExtend acts as a floor on the smallest size.
	OverrideExtend
	// OverrideLimit acts as a ceiling on both smallest and greatest size.
	OverrideLimit
)

// sizeConstraint pairs an override kind with the value it applies.
type sizeConstraint struct {
	kind  SizeOverride
	value float64
}

// View is the client-side mirror of a server view: it owns a Handle once
// attached, a position in the local tree, layout policy, and the pending
// drawing state that Flush/Sync push over the wire.
type View struct {
	Handle compositor.Handle
	Name   string
	Frame_ compositor.IRect

	Parent   *View
	children []*View

	client *Client

	Flags compositor.Flag

	FgColor, BgColor, EraseColor uint16

	layoutNode layout.Node
	wheight    float64

	widthOverrideMin, widthOverrideMax   sizeConstraint
	heightOverrideMin, heightOverrideMax sizeConstraint

	// widthRing/heightRing are circular singly-linked rings per spec
	// §4.3.2: every view starts as a ring of one (pointing to itself);
	// AddToWidthRing/AddToHeightRing splice two rings together.
	widthRing, heightRing *View

	// Hooks a concrete widget can set; nil means "use the framework default".
	OnPaintFn      func(v *View, damage compositor.IRect)
	OnMouseDownFn  func(v *View, pos compositor.Point) bool
	OnMouseUpFn    func(v *View, pos compositor.Point)
	OnMouseMoveFn  func(v *View, pos compositor.Point)
	OnLongPressFn  func(v *View, pos compositor.Point)
	OnFrameSizedFn func(v *View, old compositor.IRect)

	minContentSize, maxContentSize compositor.Point

	hasFocus bool

	keyRepeat *keyRepeater
	longPress *longPressTracker
}

// HasFocus reports whether the compositor last reported this view as
// holding keyboard/input focus (ViewFocusChanged).
func (v *View) HasFocus() bool { return v.hasFocus }

// NewView constructs an unattached client view. Call Client.AddView to
// register it with the compositor.
func NewView(name string, frame compositor.IRect) *View {
	v := &View{
		Name:       name,
		Frame_:     frame,
		layoutNode: layout.Stacked{},
		wheight:    1.0,
	}
	v.widthRing = v
	v.heightRing = v
	return v
}

// SetLayoutNode installs the layout strategy run over this view's
// children (layout.Stacked, layout.Horizontal, layout.Vertical, or a
// custom layout.Node).
func (v *View) SetLayoutNode(n layout.Node) { v.layoutNode = n }

// --- layout.View interface -------------------------------------------------

func (v *View) Frame() compositor.IRect     { return v.Frame_ }
func (v *View) Wheight() float64            { return v.wheight }
func (v *View) SetWheight(w float64)        { v.wheight = w }

func (v *View) Children() []layout.View {
	out := make([]layout.View, len(v.children))
	for i, c := range v.children {
		out[i] = c
	}
	return out
}

// SetFrame assigns the view's frame in parent coordinates and, if
// attached, forwards the change to the compositor as ViewSetFrame. It
// then notifies OnFrameSizedFn and re-runs this view's own layout, since a
// resize invalidates children placed by Horizontal/Vertical/Stacked.
func (v *View) SetFrame(f compositor.IRect) {
	old := v.Frame_
	v.Frame_ = f
	if v.client != nil && v.Handle != 0 {
		v.client.sendSetFrame(v, f)
	}
	if v.OnFrameSizedFn != nil && f != old {
		v.OnFrameSizedFn(v, old)
	}
	v.RunLayout()
}

// PreferredSize applies this view's size overrides on top of whatever its
// layout content size would otherwise be (spec §4.3.2: Always/Extend/Limit),
// then widens the result to the ring-wise maximum (ringMax).
func (v *View) PreferredSize(largest bool) compositor.Point {
	return v.ringMax(largest, v.rawPreferredSize(largest))
}

// rawPreferredSize is PreferredSize without the ring step, so ringMax can
// query the other ring members without re-entering itself.
func (v *View) rawPreferredSize(largest bool) compositor.Point {
	content := v.ContentSize(largest)

	applyAxis := func(content float64, min, max sizeConstraint) float64 {
		c := content
		switch min.kind {
		case OverrideAlways:
			c = min.value
		case OverrideExtend:
			if c < min.value {
				c = min.value
			}
		case OverrideLimit:
			if c > min.value {
				c = min.value
			}
		}
		switch max.kind {
		case OverrideAlways:
			c = max.value
		case OverrideLimit:
			if c > max.value {
				c = max.value
			}
		}
		return c
	}

	w := applyAxis(content.X, v.widthOverrideMin, v.widthOverrideMax)
	h := applyAxis(content.Y, v.heightOverrideMin, v.heightOverrideMax)
	return compositor.Point{X: w, Y: h}
}

// ContentSize computes CalculateContentSize: the view's own minimum
// canvas (for leaves with no layout children) unioned with whatever its
// layout node reports for its children.
func (v *View) ContentSize(largest bool) compositor.Point {
	size := v.minContentSize
	if largest {
		size = v.maxContentSize
	}
	if len(v.children) == 0 || v.layoutNode == nil {
		return size
	}
	fromChildren := v.layoutNode.PreferredSize(v, largest)
	if fromChildren.X > size.X {
		size.X = fromChildren.X
	}
	if fromChildren.Y > size.Y {
		size.Y = fromChildren.Y
	}
	return size
}

// SetContentSize sets the leaf preferred size CalculateContentSize falls
// back to when this view has no children (e.g. a label or button sizing
// itself to its text).
func (v *View) SetContentSize(min, max compositor.Point) {
	v.minContentSize = min
	v.maxContentSize = max
}

// SetWidthOverride / SetHeightOverride install the per-axis constraints of
// spec §4.3.2.
func (v *View) SetWidthOverride(min, max SizeOverride, minVal, maxVal float64) {
	v.widthOverrideMin = sizeConstraint{min, minVal}
	v.widthOverrideMax = sizeConstraint{max, maxVal}
}

func (v *View) SetHeightOverride(min, max SizeOverride, minVal, maxVal float64) {
	v.heightOverrideMin = sizeConstraint{min, minVal}
	v.heightOverrideMax = sizeConstraint{max, maxVal}
}

// AddToWidthRing splices v's width ring together with other's, so that
// preferred-width queries against any member of the merged ring answer
// with the ring-wise maximum, per spec §4.3.2. This is the standard O(1)
// splice-merge for two disjoint circular singly-linked lists: swapping
// the two nodes' next pointers threads both cycles into one.
func (v *View) AddToWidthRing(other *View) {
	v.widthRing, other.widthRing = other.widthRing, v.widthRing
}

func (v *View) AddToHeightRing(other *View) {
	v.heightRing, other.heightRing = other.heightRing, v.heightRing
}

// ringMax walks the view's width/height rings and returns the componentwise
// max of every member's own unringed preferred size. Every view is in a
// ring of at least itself, so the loop always terminates back at v.
func (v *View) ringMax(largest bool, own compositor.Point) compositor.Point {
	result := own
	for n := v.widthRing; n != v; n = n.widthRing {
		if s := n.rawPreferredSize(largest); s.X > result.X {
			result.X = s.X
		}
	}
	for n := v.heightRing; n != v; n = n.heightRing {
		if s := n.rawPreferredSize(largest); s.Y > result.Y {
			result.Y = s.Y
		}
	}
	return result
}

// RunLayout runs this view's layout node against its current children
// maxLayoutIterations times in a row, immediately when called.
const maxLayoutIterations = 4

func (v *View) RunLayout() {
	if v.layoutNode == nil || len(v.children) == 0 {
		return
	}
	for i := 0; i < maxLayoutIterations; i++ {
		v.layoutNode.Layout(v)
	}
}

// AddChild appends a child view in local (unattached) state; Client.AddView
// performs the compositor-side creation once the parent itself is attached.
func (v *View) AddChild(child *View) {
	child.Parent = v
	v.children = append(v.children, child)
}

func (v *View) findChild(handle compositor.Handle) *View {
	if v.Handle == handle {
		return v
	}
	for _, c := range v.children {
		if found := c.findChild(handle); found != nil {
			return found
		}
	}
	return nil
}

// *View satisfies layout.View directly (Frame, SetFrame, Children, Wheight,
// PreferredSize are all defined above), so it is passed straight into a
// layout.Node without an adapter.
var _ layout.View = (*View)(nil)
