// PadOS
// https://github.com/kavionic/pados
//
// Copyright (c) The PadOS Authors.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package widgets

import (
	"testing"

	"github.com/kavionic/pados/compositor"
)

func TestNewScrollBarLayoutsKnobProportionally(t *testing.T) {
	sb := NewScrollBar("sb", Horizontal, 0, 100)
	sb.SetProportion(0.25)
	sb.SetFrame(compositor.IRect{Left: 0, Top: 0, Right: 200, Bottom: 16})

	if got := sb.knobArea.Width(); got != 50 {
		t.Fatalf("expected knob width 50 for a 0.25 proportion of 200px, got %v", got)
	}
	// value is still at min, so the knob should sit flush at the track start.
	if sb.knobArea.Left != 0 {
		t.Fatalf("expected knob at track start when value==min, got left=%v", sb.knobArea.Left)
	}
}

func TestSetValueMovesKnobAndClamps(t *testing.T) {
	sb := NewScrollBar("sb", Horizontal, 0, 100)
	sb.SetProportion(0.5)
	sb.SetFrame(compositor.IRect{Left: 0, Top: 0, Right: 200, Bottom: 16})

	sb.SetValue(50)
	if sb.Value() != 50 {
		t.Fatalf("expected value 50, got %v", sb.Value())
	}
	// track=200, knob=100, length=100; frac=0.5 -> offset 50.
	if sb.knobArea.Left != 50 {
		t.Fatalf("expected knob left at 50, got %v", sb.knobArea.Left)
	}

	sb.SetValue(1000)
	if sb.Value() != 100 {
		t.Fatalf("expected value clamped to max 100, got %v", sb.Value())
	}
	sb.SetValue(-50)
	if sb.Value() != 0 {
		t.Fatalf("expected value clamped to min 0, got %v", sb.Value())
	}
}

func TestDragMovesKnobViaMouseEvents(t *testing.T) {
	sb := NewScrollBar("sb", Horizontal, 0, 100)
	sb.SetProportion(0.5)
	sb.SetFrame(compositor.IRect{Left: 0, Top: 0, Right: 200, Bottom: 16})

	var scrolled float64
	var gotScrolled bool
	sb.OnScrolled = func(v float64) { scrolled = v; gotScrolled = true }

	// Knob currently spans [0,100]; grab it at its midpoint.
	captured := sb.onMouseDown(sb.View, compositor.Point{X: 50, Y: 8})
	if !captured {
		t.Fatalf("expected mouse-down on the knob to capture the drag")
	}
	if !sb.dragging {
		t.Fatalf("expected dragging to be true after mouse-down on knob")
	}

	// Drag the pointer to x=150, keeping the same grab offset (50).
	sb.onMouseMove(sb.View, compositor.Point{X: 150, Y: 8})
	if !gotScrolled {
		t.Fatalf("expected OnScrolled to fire from a drag")
	}
	if scrolled != sb.Value() {
		t.Fatalf("expected OnScrolled value to match the scrollbar's new value, got %v vs %v", scrolled, sb.Value())
	}

	sb.onMouseUp(sb.View, compositor.Point{X: 150, Y: 8})
	if sb.dragging {
		t.Fatalf("expected dragging to clear on mouse-up")
	}
}

func TestClickOutsideKnobPagesWithoutCapturing(t *testing.T) {
	sb := NewScrollBar("sb", Horizontal, 0, 100)
	sb.SetProportion(0.25)
	sb.SetFrame(compositor.IRect{Left: 0, Top: 0, Right: 200, Bottom: 16})

	before := sb.Value()
	captured := sb.onMouseDown(sb.View, compositor.Point{X: 190, Y: 8})
	if captured {
		t.Fatalf("expected a track click outside the knob to not capture the drag")
	}
	if sb.Value() <= before {
		t.Fatalf("expected a track click past the knob to page the value forward, got %v (was %v)", sb.Value(), before)
	}
}

func TestVerticalScrollBarTracksYAxis(t *testing.T) {
	sb := NewScrollBar("sb", Vertical, 0, 10)
	sb.SetProportion(0.5)
	sb.SetFrame(compositor.IRect{Left: 0, Top: 0, Right: 16, Bottom: 100})

	sb.SetValue(10)
	if sb.knobArea.Bottom != 100 {
		t.Fatalf("expected knob flush against the track end at max value, got bottom=%v", sb.knobArea.Bottom)
	}
}
