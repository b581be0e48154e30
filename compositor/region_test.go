// PadOS
// https://github.com/kavionic/pados
//
// Copyright (c) The PadOS Authors.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package compositor

import "testing"

func TestRegionIncludeSplitsOverlap(t *testing.T) {
	reg := NewRegion(IRect{0, 0, 10, 10})
	reg.Include(IRect{5, 5, 15, 15})

	area := 0
	for _, r := range reg.rects {
		area += r.Width() * r.Height()
	}
	if area != 175 { // 100 + (100-25 overlap removed) = 100 + 75
		t.Fatalf("expected union area 175, got %d (%v)", area, reg.rects)
	}
	assertNonOverlapping(t, reg.rects)
}

func TestRegionExcludeSplitsIntoFragments(t *testing.T) {
	reg := NewRegion(IRect{0, 0, 10, 10})
	reg.Exclude(IRect{3, 3, 6, 6})

	area := 0
	for _, r := range reg.rects {
		area += r.Width() * r.Height()
	}
	if area != 100-9 {
		t.Fatalf("expected area %d, got %d (%v)", 100-9, area, reg.rects)
	}
	assertNonOverlapping(t, reg.rects)
}

func TestRegionExcludeFullyCoveredRemovesRect(t *testing.T) {
	reg := NewRegion(IRect{0, 0, 10, 10})
	reg.Exclude(IRect{-5, -5, 20, 20})
	if !reg.IsEmpty() {
		t.Fatalf("expected region emptied, got %v", reg.rects)
	}
}

func TestRegionIntersect(t *testing.T) {
	a := NewRegion(IRect{0, 0, 10, 10})
	b := NewRegion(IRect{5, 5, 20, 20})
	a.Intersect(b)

	if len(a.rects) != 1 || a.rects[0] != (IRect{5, 5, 10, 10}) {
		t.Fatalf("unexpected intersection: %v", a.rects)
	}
}

func TestRegionOptimizeMergesAdjacent(t *testing.T) {
	reg := &Region{}
	reg.AddRect(IRect{0, 0, 5, 10})
	reg.AddRect(IRect{5, 0, 10, 10})
	reg.Optimize()

	if len(reg.rects) != 1 || reg.rects[0] != (IRect{0, 0, 10, 10}) {
		t.Fatalf("expected merge into one rect, got %v", reg.rects)
	}
}

func TestRegionOptimizeMergesVerticallyThenHorizontally(t *testing.T) {
	reg := &Region{}
	reg.AddRect(IRect{0, 0, 10, 5})
	reg.AddRect(IRect{0, 5, 10, 10})
	reg.AddRect(IRect{10, 0, 20, 10})
	reg.Optimize()

	area := 0
	for _, r := range reg.rects {
		area += r.Width() * r.Height()
	}
	if area != 200 {
		t.Fatalf("expected total area preserved at 200, got %d (%v)", area, reg.rects)
	}
	if len(reg.rects) != 1 || reg.rects[0] != (IRect{0, 0, 20, 10}) {
		t.Fatalf("expected vertical then horizontal merge into one rect, got %v", reg.rects)
	}
}

func TestClipLineBothEndpointsInside(t *testing.T) {
	rect := IRect{0, 0, 100, 100}
	p1, p2, ok := ClipLine(rect, Point{10, 10}, Point{50, 50})
	if !ok || p1 != (Point{10, 10}) || p2 != (Point{50, 50}) {
		t.Fatalf("expected unchanged segment, got %v %v %v", p1, p2, ok)
	}
}

func TestClipLineEntirelyOutsideRejected(t *testing.T) {
	rect := IRect{0, 0, 10, 10}
	_, _, ok := ClipLine(rect, Point{20, 20}, Point{30, 30})
	if ok {
		t.Fatalf("expected line fully outside rect to be rejected")
	}
}

func TestClipLineOneEndpointOutside(t *testing.T) {
	rect := IRect{0, 0, 10, 10}
	p1, p2, ok := ClipLine(rect, Point{5, 5}, Point{20, 5})
	if !ok {
		t.Fatalf("expected line crossing the right edge to clip")
	}
	if p1 != (Point{5, 5}) {
		t.Fatalf("expected inside endpoint preserved, got %v", p1)
	}
	if p2.X != 9 {
		t.Fatalf("expected outside endpoint clipped to right edge, got %v", p2)
	}
}

func assertNonOverlapping(t *testing.T, rects []IRect) {
	t.Helper()
	for i := range rects {
		for j := i + 1; j < len(rects); j++ {
			if rects[i].Intersect(rects[j]).IsValid() {
				t.Fatalf("rects %v and %v overlap", rects[i], rects[j])
			}
		}
	}
}
