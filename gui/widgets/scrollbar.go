// PadOS
// https://github.com/kavionic/pados
//
// Copyright (c) The PadOS Authors.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package widgets holds concrete widgets built on gui's view/layout/event
// machinery. ScrollBar is restored from the original's
// System/GUI/ScrollBar.cpp (SPEC_FULL.md §C.6): a minimal drag-to-scroll
// control, trimmed of the original's stepper-arrow buttons and repeat
// timer, which are cosmetic rather than load-bearing for exercising the
// scroll-by messaging path this widget exists to demonstrate.
package widgets

import (
	"github.com/kavionic/pados/compositor"
	"github.com/kavionic/pados/gui"
)

// Orientation selects which axis a ScrollBar tracks.
type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

// scrollBarThickness is the fixed 16px cross-axis size the original
// reports from CalculatePreferredSize.
const scrollBarThickness = 16.0

// ScrollBar is a drag-to-scroll control over a knob area proportional to
// the tracked content: dragging the knob calls OnScrolled with the new
// value, clamped to [Min, Max]. Grounded on ScrollBar::SetValue/
// SetProportion/SetMinMax/OnMouseDown/OnMouseUp/OnMouseMove/PosToVal/
// FrameSized.
type ScrollBar struct {
	*gui.View

	orientation Orientation
	min, max    float64
	value       float64
	proportion  float64 // knob length as a fraction of the track, (0,1]

	knobArea compositor.IRect
	dragging bool
	hitPos   float64 // drag-start offset from the knob's own origin

	// OnScrolled is invoked after user input (a knob drag or a click on the
	// track, not a programmatic SetValue) changes the value, mirroring the
	// original wiring a ScrollBar to a target view's ScrollTo.
	OnScrolled func(value float64)
}

// NewScrollBar creates a scrollbar over [min, max]. The proportion (the
// knob's fraction of the track, e.g. viewport/content) starts at 1;
// SetProportion changes it.
func NewScrollBar(name string, orientation Orientation, min, max float64) *ScrollBar {
	sb := &ScrollBar{
		View:        gui.NewView(name, compositor.IRect{}),
		orientation: orientation,
		min:         min,
		max:         max,
		proportion:  1.0,
		value:       min,
	}
	sb.OnMouseDownFn = sb.onMouseDown
	sb.OnMouseUpFn = sb.onMouseUp
	sb.OnMouseMoveFn = sb.onMouseMove
	sb.OnFrameSizedFn = func(*gui.View, compositor.IRect) { sb.layoutKnob() }

	if orientation == Horizontal {
		sb.SetHeightOverride(gui.OverrideAlways, gui.OverrideAlways, scrollBarThickness, scrollBarThickness)
	} else {
		sb.SetWidthOverride(gui.OverrideAlways, gui.OverrideAlways, scrollBarThickness, scrollBarThickness)
	}
	return sb
}

// Value reports the current scroll position.
func (sb *ScrollBar) Value() float64 { return sb.value }

// SetValue moves the knob programmatically, invalidating its area but not
// invoking OnScrolled (which only fires for user input, a knob drag or a
// track click, per the original's SetValue being the thing OnMouseMove
// itself calls).
func (sb *ScrollBar) SetValue(value float64) {
	if value < sb.min {
		value = sb.min
	} else if value > sb.max {
		value = sb.max
	}
	if value == sb.value {
		return
	}
	sb.value = value
	sb.layoutKnob()
	sb.Invalidate(sb.knobArea)
}

// SetProportion sets the knob's length as a fraction (0,1] of the track.
func (sb *ScrollBar) SetProportion(p float64) {
	sb.proportion = p
	sb.layoutKnob()
	sb.Invalidate(sb.knobArea)
}

// SetMinMax changes the scrollable range.
func (sb *ScrollBar) SetMinMax(min, max float64) {
	sb.min, sb.max = min, max
	sb.SetValue(sb.value)
}

// trackLength is the view's extent along the scroll axis, the length the
// knob travels within.
func (sb *ScrollBar) trackLength() float64 {
	if sb.orientation == Horizontal {
		return float64(sb.Frame().Width())
	}
	return float64(sb.Frame().Height())
}

func (sb *ScrollBar) knobLength() float64 {
	l := sb.trackLength() * sb.proportion
	if l < 1 {
		l = 1
	}
	return l
}

// layoutKnob recomputes the knob's rectangle from the current value and
// proportion, the equivalent of FrameSized's m_KnobArea/m_ArrowRects setup
// simplified to a single drag track.
func (sb *ScrollBar) layoutKnob() {
	bounds := compositor.IRect{Left: 0, Top: 0, Right: sb.Frame().Width(), Bottom: sb.Frame().Height()}
	sb.knobArea = bounds

	span := sb.max - sb.min
	if span <= 0 {
		return
	}
	frac := (sb.value - sb.min) / span
	knobLen := sb.knobLength()
	track := sb.trackLength()
	offset := frac * (track - knobLen)

	if sb.orientation == Horizontal {
		sb.knobArea.Left = bounds.Left + int(offset)
		sb.knobArea.Right = sb.knobArea.Left + int(knobLen)
	} else {
		sb.knobArea.Top = bounds.Top + int(offset)
		sb.knobArea.Bottom = sb.knobArea.Top + int(knobLen)
	}
}

// posToVal is the inverse of layoutKnob: given a pointer position (view
// local), and the drag's hitPos offset into the knob, compute the value
// that keeps the knob under the pointer. Grounded on ScrollBar::PosToVal.
func (sb *ScrollBar) posToVal(pos compositor.Point) float64 {
	knobLen := sb.knobLength()
	track := sb.trackLength()
	length := track - knobLen
	if length <= 0 {
		return sb.min
	}

	var axisPos float64
	if sb.orientation == Horizontal {
		axisPos = pos.X - sb.hitPos
	} else {
		axisPos = pos.Y - sb.hitPos
	}
	relative := axisPos / length
	value := sb.min + (sb.max-sb.min)*relative
	if value < sb.min {
		value = sb.min
	} else if value > sb.max {
		value = sb.max
	}
	return value
}

func (sb *ScrollBar) onMouseDown(_ *gui.View, pos compositor.Point) bool {
	if !sb.knobArea.Contains(int(pos.X), int(pos.Y)) {
		// Clicking the track outside the knob jumps by one page, the
		// original's arrow/page hit regions collapsed to a single action.
		sb.pageTo(pos)
		return false
	}
	sb.dragging = true
	if sb.orientation == Horizontal {
		sb.hitPos = pos.X - float64(sb.knobArea.Left)
	} else {
		sb.hitPos = pos.Y - float64(sb.knobArea.Top)
	}
	return true
}

func (sb *ScrollBar) onMouseUp(*gui.View, compositor.Point) {
	sb.dragging = false
}

func (sb *ScrollBar) onMouseMove(_ *gui.View, pos compositor.Point) {
	if !sb.dragging {
		return
	}
	value := sb.posToVal(pos)
	if value == sb.value {
		return
	}
	sb.SetValue(value)
	if sb.OnScrolled != nil {
		sb.OnScrolled(value)
	}
}

// pageTo jumps the value by one proportion-sized page toward pos, the
// simplified replacement for the original's discrete arrow/page rects.
func (sb *ScrollBar) pageTo(pos compositor.Point) {
	page := (sb.max - sb.min) * sb.proportion
	if page <= 0 {
		page = (sb.max - sb.min) * 0.1
	}

	var before bool
	if sb.orientation == Horizontal {
		before = int(pos.X) < sb.knobArea.Left
	} else {
		before = int(pos.Y) < sb.knobArea.Top
	}

	value := sb.value
	if before {
		value -= page
	} else {
		value += page
	}
	sb.SetValue(value)
	if sb.OnScrolled != nil {
		sb.OnScrolled(sb.value)
	}
}
