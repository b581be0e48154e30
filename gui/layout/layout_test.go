// PadOS
// https://github.com/kavionic/pados
//
// Copyright (c) The PadOS Authors.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package layout

import (
	"testing"

	"github.com/kavionic/pados/compositor"
)

// fakeView is a minimal layout.View for exercising Node implementations
// without depending on gui's concrete View (which itself depends on this
// package).
type fakeView struct {
	frame     compositor.IRect
	children  []*fakeView
	wheight   float64
	min, max  compositor.Point
}

func (f *fakeView) Frame() compositor.IRect    { return f.frame }
func (f *fakeView) SetFrame(r compositor.IRect) { f.frame = r }
func (f *fakeView) Wheight() float64           { return f.wheight }
func (f *fakeView) Children() []View {
	out := make([]View, len(f.children))
	for i, c := range f.children {
		out[i] = c
	}
	return out
}
func (f *fakeView) PreferredSize(largest bool) compositor.Point {
	if largest {
		return f.max
	}
	return f.min
}

func newFakeView(wheight float64, min, max compositor.Point) *fakeView {
	return &fakeView{wheight: wheight, min: min, max: max}
}

func TestStackedFillsBounds(t *testing.T) {
	parent := &fakeView{frame: compositor.IRect{Left: 0, Top: 0, Right: 50, Bottom: 30}}
	a := newFakeView(1, compositor.Point{}, compositor.Point{X: 1000, Y: 1000})
	b := newFakeView(1, compositor.Point{}, compositor.Point{X: 1000, Y: 1000})
	parent.children = []*fakeView{a, b}

	Stacked{}.Layout(parent)

	want := compositor.IRect{Left: 0, Top: 0, Right: 50, Bottom: 30}
	if a.frame != want || b.frame != want {
		t.Fatalf("expected both children to fill bounds, got a=%v b=%v", a.frame, b.frame)
	}
}

func TestSpacerReportsFixedSize(t *testing.T) {
	s := Spacer{Min: compositor.Point{X: 10, Y: 20}, Max: compositor.Point{X: 10, Y: 20}}
	if got := s.PreferredSize(nil, false); got != s.Min {
		t.Fatalf("got %v want %v", got, s.Min)
	}
}

func TestSpaceOutDistributesByWeightAndCaps(t *testing.T) {
	// Three entries sharing 100px of slack on top of a 30px total min:
	// equal weights except one capped low.
	mins := []float64{10, 10, 10}
	maxs := []float64{1000, 15, 1000}
	wheights := []float64{1, 1, 1}

	sizes, unused := spaceOut(130, 30, 3, mins, maxs, wheights)

	if sizes[1] != 15 {
		t.Fatalf("expected entry 1 capped at 15, got %v", sizes[1])
	}
	sum := sizes[0] + sizes[1] + sizes[2]
	if sum+unused != 130 {
		t.Fatalf("sizes+unused should account for total: sum=%v unused=%v", sum, unused)
	}
	if sizes[0] != sizes[2] {
		t.Fatalf("uncapped equal-weight entries should end up equal, got %v and %v", sizes[0], sizes[2])
	}
}

func TestHorizontalLayoutPlacesChildrenLeftToRight(t *testing.T) {
	parent := &fakeView{frame: compositor.IRect{Left: 0, Top: 0, Right: 100, Bottom: 40}}
	a := newFakeView(1, compositor.Point{X: 20, Y: 10}, compositor.Point{X: 1000, Y: 1000})
	b := newFakeView(1, compositor.Point{X: 20, Y: 10}, compositor.Point{X: 1000, Y: 1000})
	parent.children = []*fakeView{a, b}

	Horizontal{}.Layout(parent)

	if a.frame.Left >= a.frame.Right {
		t.Fatalf("child a got a degenerate frame: %v", a.frame)
	}
	if a.frame.Right > b.frame.Left {
		t.Fatalf("expected a to sit left of b, got a=%v b=%v", a.frame, b.frame)
	}
	if b.frame.Right > 100 {
		t.Fatalf("children should not overflow parent bounds, got b=%v", b.frame)
	}
}

func TestVerticalLayoutPlacesChildrenTopToBottom(t *testing.T) {
	parent := &fakeView{frame: compositor.IRect{Left: 0, Top: 0, Right: 40, Bottom: 100}}
	a := newFakeView(1, compositor.Point{X: 10, Y: 20}, compositor.Point{X: 1000, Y: 1000})
	b := newFakeView(1, compositor.Point{X: 10, Y: 20}, compositor.Point{X: 1000, Y: 1000})
	parent.children = []*fakeView{a, b}

	Vertical{}.Layout(parent)

	if a.frame.Bottom > b.frame.Top {
		t.Fatalf("expected a above b, got a=%v b=%v", a.frame, b.frame)
	}
	if b.frame.Bottom > 100 {
		t.Fatalf("children should not overflow parent bounds, got b=%v", b.frame)
	}
}
