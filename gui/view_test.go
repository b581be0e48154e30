// PadOS
// https://github.com/kavionic/pados
//
// Copyright (c) The PadOS Authors.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package gui

import (
	"testing"

	"github.com/kavionic/pados/compositor"
	"github.com/kavionic/pados/gui/layout"
)

func TestPreferredSizeOverrideAlways(t *testing.T) {
	v := NewView("v", compositor.IRect{})
	v.SetContentSize(compositor.Point{X: 10, Y: 10}, compositor.Point{X: 10, Y: 10})
	v.SetWidthOverride(OverrideAlways, OverrideNone, 99, 0)

	got := v.PreferredSize(false)
	if got.X != 99 {
		t.Fatalf("expected override-always width 99, got %v", got.X)
	}
}

func TestPreferredSizeOverrideExtend(t *testing.T) {
	v := NewView("v", compositor.IRect{})
	v.SetContentSize(compositor.Point{X: 5, Y: 5}, compositor.Point{X: 100, Y: 100})
	v.SetWidthOverride(OverrideExtend, OverrideNone, 20, 0)

	got := v.PreferredSize(false)
	if got.X != 20 {
		t.Fatalf("expected floor of 20, got %v", got.X)
	}
}

func TestPreferredSizeOverrideLimit(t *testing.T) {
	v := NewView("v", compositor.IRect{})
	v.SetContentSize(compositor.Point{X: 5, Y: 5}, compositor.Point{X: 500, Y: 500})
	v.SetWidthOverride(OverrideNone, OverrideLimit, 0, 50)

	got := v.PreferredSize(true)
	if got.X != 50 {
		t.Fatalf("expected ceiling of 50, got %v", got.X)
	}
}

func TestContentSizeUnionsLayoutChildren(t *testing.T) {
	parent := NewView("parent", compositor.IRect{Left: 0, Top: 0, Right: 10, Bottom: 10})
	parent.SetLayoutNode(layout.Stacked{})
	child := NewView("child", compositor.IRect{})
	child.SetContentSize(compositor.Point{X: 40, Y: 25}, compositor.Point{X: 40, Y: 25})
	parent.AddChild(child)

	got := parent.ContentSize(false)
	if got.X != 40 || got.Y != 25 {
		t.Fatalf("expected content size to pick up child's preferred size, got %v", got)
	}
}

func TestSetFrameRunsLayoutOnChildren(t *testing.T) {
	parent := NewView("parent", compositor.IRect{Left: 0, Top: 0, Right: 10, Bottom: 10})
	parent.SetLayoutNode(layout.Stacked{})
	child := NewView("child", compositor.IRect{})
	parent.AddChild(child)

	parent.SetFrame(compositor.IRect{Left: 0, Top: 0, Right: 50, Bottom: 60})

	want := compositor.IRect{Left: 0, Top: 0, Right: 50, Bottom: 60}
	if child.Frame_ != want {
		t.Fatalf("expected child frame to follow Stacked layout after resize, got %v", child.Frame_)
	}
}
