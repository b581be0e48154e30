// PadOS
// https://github.com/kavionic/pados
//
// Copyright (c) The PadOS Authors.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package compositor

// Region is a semantic set of non-overlapping integer rectangles, per
// spec §4.2.3. Grounded on the original's Region/ClipRectList
// (PadOS/System/GUI/Region.cpp): that implementation keeps rectangles on
// an intrusive free-listed linked list to avoid allocation on an
// embedded target; here a plain slice plays the same role; the Go
// garbage collector is the allocator the original hand-rolled.
type Region struct {
	rects []IRect
}

// NewRegion returns a region containing a single rectangle, or an empty
// region if r is not valid.
func NewRegion(r IRect) *Region {
	reg := &Region{}
	if r.IsValid() {
		reg.rects = append(reg.rects, r)
	}
	return reg
}

// Clone returns an independent copy of reg.
func (reg *Region) Clone() *Region {
	out := &Region{rects: make([]IRect, len(reg.rects))}
	copy(out.rects, reg.rects)
	return out
}

// IsEmpty reports whether the region contains no area.
func (reg *Region) IsEmpty() bool { return len(reg.rects) == 0 }

// Rects returns the region's rectangles. The caller must not modify the
// returned slice.
func (reg *Region) Rects() []IRect { return reg.rects }

// Clear empties the region.
func (reg *Region) Clear() { reg.rects = reg.rects[:0] }

// Set replaces the region's contents with a single rectangle.
func (reg *Region) Set(r IRect) {
	reg.Clear()
	if r.IsValid() {
		reg.rects = append(reg.rects, r)
	}
}

// AddRect appends r verbatim, without checking for overlap with existing
// rectangles. Callers that need the non-overlap invariant preserved use
// Include instead.
func (reg *Region) AddRect(r IRect) {
	if r.IsValid() {
		reg.rects = append(reg.rects, r)
	}
}

// Bounds returns the smallest rectangle enclosing every rectangle in reg.
func (reg *Region) Bounds() IRect {
	if len(reg.rects) == 0 {
		return IRect{}
	}
	b := reg.rects[0]
	for _, r := range reg.rects[1:] {
		b = b.Union(r)
	}
	return b
}

// Include unions rect into the region: the new rectangle is split
// against every rectangle it overlaps so the non-overlap invariant of
// spec §3.2 invariant (f) holds afterward.
func (reg *Region) Include(rect IRect) {
	add := &Region{rects: []IRect{rect}}
	for _, existing := range reg.rects {
		add.excludeOne(existing)
	}
	reg.rects = append(reg.rects, add.rects...)
}

// Exclude removes rect from the region, replacing every rectangle it
// intersects with up to four surrounding fragments (above, below,
// left-center, right-center), dropping any that are empty.
func (reg *Region) Exclude(rect IRect) {
	reg.excludeOne(rect)
}

func (reg *Region) excludeOne(rect IRect) {
	out := make([]IRect, 0, len(reg.rects))

	for _, r := range reg.rects {
		hide := rect.Intersect(r)
		if !hide.IsValid() {
			out = append(out, r)
			continue
		}

		above := IRect{r.Left, r.Top, r.Right, hide.Top}
		below := IRect{r.Left, hide.Bottom, r.Right, r.Bottom}
		left := IRect{r.Left, hide.Top, hide.Left, hide.Bottom}
		right := IRect{hide.Right, hide.Top, r.Right, hide.Bottom}

		for _, frag := range [4]IRect{above, below, left, right} {
			if frag.IsValid() {
				out = append(out, frag)
			}
		}
	}

	reg.rects = out
}

// ExcludeRegion excludes every rectangle of other from reg.
func (reg *Region) ExcludeRegion(other *Region) {
	for _, r := range other.rects {
		reg.excludeOne(r)
	}
}

// ExcludeRegionOffset excludes every rectangle of other, translated by
// offset, from reg. Used to subtract a sibling's shape region expressed
// in the sibling's own local coordinates (§4.2.2 step 2).
func (reg *Region) ExcludeRegionOffset(other *Region, offset Point) {
	for _, r := range other.rects {
		reg.excludeOne(r.OffsetPt(offset))
	}
}

// Intersect replaces reg with the cross-product of per-rectangle
// intersections between reg and other, dropping empties.
func (reg *Region) Intersect(other *Region) {
	out := make([]IRect, 0, len(reg.rects))
	for _, a := range reg.rects {
		for _, b := range other.rects {
			c := a.Intersect(b)
			if c.IsValid() {
				out = append(out, c)
			}
		}
	}
	reg.rects = out
}

// IntersectOffset intersects reg with other translated by offset.
func (reg *Region) IntersectOffset(other *Region, offset Point) {
	out := make([]IRect, 0, len(reg.rects))
	for _, a := range reg.rects {
		for _, b := range other.rects {
			c := a.Intersect(b.OffsetPt(offset))
			if c.IsValid() {
				out = append(out, c)
			}
		}
	}
	reg.rects = out
}

// Subtract returns a new region holding (reg − other): the area present
// in reg but not in other. Used by region recomputation to derive
// newly-exposed damage as (new visible − previous visible).
func (reg *Region) Subtract(other *Region) *Region {
	out := reg.Clone()
	out.ExcludeRegion(other)
	return out
}

// Optimize merges adjacent rectangles that share a full edge, first
// horizontally (same top/bottom, abutting left/right edges) then
// vertically, iterating until a pass produces no merge. Grounded on
// Region::Optimize's two-pass sort-and-scan.
func (reg *Region) Optimize() {
	if len(reg.rects) <= 1 {
		return
	}

	for {
		mergedAny := false

		sortByLeft(reg.rects)
		reg.rects, mergedAny = mergePass(reg.rects, mergedAny, func(a, b IRect) (IRect, bool) {
			if a.Right == b.Left && a.Top == b.Top && a.Bottom == b.Bottom {
				a.Right = b.Right
				return a, true
			}
			return a, false
		})

		if len(reg.rects) <= 1 {
			return
		}

		sortByTop(reg.rects)
		reg.rects, mergedAny = mergePass(reg.rects, mergedAny, func(a, b IRect) (IRect, bool) {
			if a.Bottom == b.Top && a.Left == b.Left && a.Right == b.Right {
				a.Bottom = b.Bottom
				return a, true
			}
			return a, false
		})

		if !mergedAny {
			return
		}
	}
}

func mergePass(rects []IRect, mergedAny bool, tryMerge func(a, b IRect) (IRect, bool)) ([]IRect, bool) {
	for i := 0; i < len(rects)-1; i++ {
		for j := i + 1; j < len(rects); {
			merged, ok := tryMerge(rects[i], rects[j])
			if ok {
				rects[i] = merged
				rects = append(rects[:j], rects[j+1:]...)
				mergedAny = true
				j = i + 1
			} else {
				j++
			}
		}
	}
	return rects, mergedAny
}

func sortByLeft(rects []IRect) {
	insertionSort(rects, func(a, b IRect) bool { return a.Left < b.Left })
}

func sortByTop(rects []IRect) {
	insertionSort(rects, func(a, b IRect) bool { return a.Top < b.Top })
}

// insertionSort keeps the region's rectangle count small enough (a
// handful of siblings per view, rarely hundreds) that an O(n^2) sort
// avoids pulling in sort.Slice's reflection-based comparator overhead.
func insertionSort(rects []IRect, less func(a, b IRect) bool) {
	for i := 1; i < len(rects); i++ {
		for j := i; j > 0 && less(rects[j], rects[j-1]); j-- {
			rects[j], rects[j-1] = rects[j-1], rects[j]
		}
	}
}

// ClipLine clips the segment (p1, p2) against rect using Cohen-Sutherland
// style endpoint clipping. It reports false if the segment lies entirely
// outside rect. Grounded on Region::ClipLine.
func ClipLine(rect IRect, p1, p2 Point) (Point, Point, bool) {
	in1 := rect.Contains(int(p1.X), int(p1.Y))
	in2 := rect.Contains(int(p2.X), int(p2.Y))

	if in1 && in2 {
		return p1, p2, true
	}

	if !in1 && !in2 {
		if (p1.X < float64(rect.Left) && p2.X < float64(rect.Left)) ||
			(p1.X >= float64(rect.Right) && p2.X >= float64(rect.Right)) ||
			(p1.Y < float64(rect.Top) && p2.Y < float64(rect.Top)) ||
			(p1.Y >= float64(rect.Bottom) && p2.Y >= float64(rect.Bottom)) {
			return p1, p2, false
		}
	}

	out1, out2 := p1, p2
	clip1 := clipEndpoint(rect, p2, &out1)
	clip2 := clipEndpoint(rect, p1, &out2)

	return out1, out2, clip1 || clip2
}

// clipEndpoint moves *moving toward fixed until it lies on rect's
// boundary, following the edge the segment actually crosses. A no-op
// (returns false, *moving untouched) when moving already lies inside
// rect, so callers may invoke it unconditionally for both endpoints.
func clipEndpoint(rect IRect, fixed Point, moving *Point) bool {
	dx := moving.X - fixed.X
	dy := moving.Y - fixed.Y

	var xi, yi float64
	var left, right, top, bottom bool

	if moving.X >= float64(rect.Right) {
		right = true
		if dx != 0 {
			yi = dy*(float64(rect.Right)-1-fixed.X)/dx + fixed.Y
		}
	} else if moving.X < float64(rect.Left) {
		left = true
		if dx != 0 {
			yi = dy*(float64(rect.Left)-fixed.X)/dx + fixed.Y
		}
	}

	if moving.Y >= float64(rect.Bottom) {
		bottom = true
		if dy != 0 {
			xi = dx*(float64(rect.Bottom)-1-fixed.Y)/dy + fixed.X
		}
	} else if moving.Y < float64(rect.Top) {
		top = true
		if dy != 0 {
			xi = dx*(float64(rect.Top)-fixed.Y)/dy + fixed.X
		}
	}

	clipped := false

	if right && yi >= float64(rect.Top) && yi < float64(rect.Bottom) {
		*moving = Point{float64(rect.Right) - 1, yi}
		clipped = true
	} else if left && yi >= float64(rect.Top) && yi < float64(rect.Bottom) {
		*moving = Point{float64(rect.Left), yi}
		clipped = true
	}

	if bottom && xi >= float64(rect.Left) && xi < float64(rect.Right) {
		*moving = Point{xi, float64(rect.Bottom) - 1}
		clipped = true
	} else if top && xi >= float64(rect.Left) && xi < float64(rect.Right) {
		*moving = Point{xi, float64(rect.Top)}
		clipped = true
	}

	return clipped
}
