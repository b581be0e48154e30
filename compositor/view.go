// PadOS
// https://github.com/kavionic/pados
//
// Copyright (c) The PadOS Authors.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package compositor

// Handle identifies a server-side view to clients.
type Handle uint32

// Flag is the view flag bitset of spec §6.3.
type Flag uint32

const (
	FlagFullUpdateOnResizeH Flag = 1 << 0
	FlagFullUpdateOnResizeV Flag = 1 << 1
	FlagIgnoreWhenHidden    Flag = 1 << 2
	FlagWillDraw            Flag = 1 << 3
	FlagTransparent         Flag = 1 << 4
	FlagClearBackground     Flag = 1 << 5
	FlagDrawOnChildren      Flag = 1 << 6
	FlagEavesdropper        Flag = 1 << 7
	FlagIgnoreMouse         Flag = 1 << 8
	FlagForceHandleMouse    Flag = 1 << 9
	FlagIsAttachedToScreen  Flag = 1 << 10
)

// Has reports whether all of mask's bits are set.
func (f Flag) Has(mask Flag) bool { return f&mask == mask }

// View is a server-side view, the unit the compositor composes: a node
// in a tree rooted at each top-level application window, per spec §3.2.
// Child order is z-order: Children[0] is topmost.
type View struct {
	Handle   Handle
	app      *Application
	Name     string
	Parent   *View
	Children []*View // front (topmost) first

	Frame        IRect // in parent coordinates
	ScrollOffset Point
	Flags        Flag
	hideCount    int

	FgColor, BgColor, EraseColor uint16
	PenPos                       Point
	PenWidth                     float64

	ShapeRegion *Region // optional clip, in local coordinates
	DrawRegion  *Region // optional additional clip for draw calls

	fullReg    *Region
	visibleReg *Region
	prevFull   *Region
	prevVis    *Region

	damageReg       *Region
	activeDamageReg *Region
	hasInvalidRegs  bool
	isUpdating      bool

	attached bool
}

// NewView constructs a detached view; AddChild attaches it to the tree.
func NewView(handle Handle, name string, frame IRect, flags Flag) *View {
	return &View{
		Handle:    handle,
		Name:      name,
		Frame:     frame,
		Flags:     flags,
		hideCount: 0,
	}
}

// IsVisible reports whether the view and every ancestor has a zero hide
// count, per spec §3.2's View definition.
func (v *View) IsVisible() bool {
	for n := v; n != nil; n = n.Parent {
		if n.hideCount > 0 {
			return false
		}
	}
	return true
}

// Show/Hide adjust the view's own hide count; a positive count at any
// ancestor also hides the view (IsVisible walks the chain).
func (v *View) Show() {
	if v.hideCount > 0 {
		v.hideCount--
	}
	v.markRegionsInvalid(true)
}

func (v *View) Hide() {
	v.hideCount++
	v.markRegionsInvalid(true)
}

// AddChild inserts child at the front (topmost) of v's child list and
// marks regions invalid so the next recompute accounts for it.
func (v *View) AddChild(child *View) {
	child.Parent = v
	v.Children = append([]*View{child}, v.Children...)
	v.markRegionsInvalid(true)
}

// RemoveChild detaches child from v.
func (v *View) RemoveChild(child *View) {
	for i, c := range v.Children {
		if c == child {
			v.Children = append(v.Children[:i], v.Children[i+1:]...)
			break
		}
	}
	child.Parent = nil
	v.markRegionsInvalid(true)
}

// SetFrame changes the view's frame, in parent coordinates, and marks
// regions invalid for recompute (§4.2.1 SetViewFrame).
func (v *View) SetFrame(frame IRect) {
	v.Frame = frame
	v.markRegionsInvalid(true)
	if v.Parent != nil {
		v.Parent.markRegionsInvalid(true)
	}
}

func (v *View) markRegionsInvalid(force bool) {
	if force {
		v.hasInvalidRegs = true
	}
	for _, c := range v.Children {
		c.markRegionsInvalid(force)
	}
}

// Invalidate adds rect (view-local coordinates) to the view's damage
// region, per spec §3.2 invariant (d).
func (v *View) Invalidate(rect IRect) {
	if v.damageReg == nil {
		v.damageReg = &Region{}
	}
	v.damageReg.Include(rect)
}

// InvalidateAll damages the view's entire full region.
func (v *View) InvalidateAll() {
	if v.fullReg == nil {
		return
	}
	v.Invalidate(v.fullReg.Bounds())
}

// RebuildRegion recomputes full and visible regions top-down, per spec
// §4.2.2. Grounded on View::RebuildRegion.
func (v *View) RebuildRegion(force bool) {
	if v.hideCount > 0 {
		v.fullReg = nil
		v.visibleReg = nil
		return
	}

	if force {
		v.hasInvalidRegs = true
	}

	if v.hasInvalidRegs {
		v.DrawRegion = nil

		v.prevVis = v.visibleReg
		v.prevFull = v.fullReg

		// Regions are kept in the view's local coordinates.
		origin := v.Frame.LeftTop()
		bounds := v.Frame.OffsetPt(Point{-origin.X, -origin.Y})
		if v.Parent == nil {
			v.fullReg = NewRegion(bounds)
		} else if v.Parent.fullReg == nil {
			v.fullReg = NewRegion(bounds)
		} else {
			v.fullReg = NewRegion(bounds)
			v.fullReg.IntersectOffset(v.Parent.fullReg, Point{-origin.X, -origin.Y})
		}
		if v.ShapeRegion != nil {
			v.fullReg.Intersect(v.ShapeRegion)
		}

		// Subtract every topmost-first sibling that precedes v and is
		// not transparent: spec §3.2 invariant (b).
		if v.Parent != nil {
			for _, sibling := range v.Parent.Children {
				if sibling == v {
					break
				}
				if sibling.hideCount > 0 || sibling.Flags.Has(FlagTransparent) {
					continue
				}
				if !sibling.Frame.Intersect(v.Frame).IsValid() {
					continue
				}
				if sibling.ShapeRegion == nil {
					v.fullReg.Exclude(sibling.Frame.OffsetPt(Point{-origin.X, -origin.Y}))
				} else {
					v.fullReg.ExcludeRegionOffset(sibling.ShapeRegion, sibling.Frame.LeftTop().Sub(origin))
				}
			}
		}

		v.fullReg.Optimize()
		v.visibleReg = v.fullReg.Clone()

		if !v.Flags.Has(FlagDrawOnChildren) {
			modified := false
			for _, child := range v.Children {
				if child.hideCount > 0 || child.Flags.Has(FlagTransparent) {
					continue
				}
				if child.ShapeRegion == nil {
					v.visibleReg.Exclude(child.Frame)
				} else {
					v.visibleReg.ExcludeRegionOffset(child.ShapeRegion, child.Frame.LeftTop())
				}
				modified = true
			}
			if modified {
				v.visibleReg.Optimize()
			}
		}
	}

	for _, child := range v.Children {
		child.RebuildRegion(force)
	}
}

// InvalidateNewAreas compares each view's previous and rebuilt visible
// region and damages the difference (new areas becoming visible), per
// §4.2.2's "after rebuild ... the set difference is added to the
// damage region".
func (v *View) InvalidateNewAreas() {
	if v.hasInvalidRegs && v.visibleReg != nil {
		if v.prevVis == nil {
			v.Invalidate(v.visibleReg.Bounds())
		} else {
			newArea := v.visibleReg.Subtract(v.prevVis)
			if !newArea.IsEmpty() {
				if v.damageReg == nil {
					v.damageReg = &Region{}
				}
				for _, r := range newArea.Rects() {
					v.damageReg.Include(r)
				}
			}
		}
		v.prevVis = nil
		v.prevFull = nil
	}
	for _, child := range v.Children {
		child.InvalidateNewAreas()
	}
}

// ClearDirtyRegFlags resets the per-recompute dirty marker after a full
// pass, per View::ClearDirtyRegFlags.
func (v *View) ClearDirtyRegFlags() {
	v.hasInvalidRegs = false
	for _, c := range v.Children {
		c.ClearDirtyRegFlags()
	}
}

// EffectiveClip returns the region drawing commands are clipped to: the
// visible region intersected with the optional draw-constrain region,
// or with the active damage region while painting (§4.2.5's GetRegion).
func (v *View) EffectiveClip() *Region {
	if v.visibleReg == nil {
		return &Region{}
	}
	if v.isUpdating {
		if v.DrawRegion == nil {
			v.DrawRegion = v.visibleReg.Clone()
			if v.activeDamageReg != nil {
				v.DrawRegion.Intersect(v.activeDamageReg)
			}
			if v.ShapeRegion != nil {
				v.DrawRegion.Intersect(v.ShapeRegion)
			}
			v.DrawRegion.Optimize()
		}
		return v.DrawRegion
	}
	if v.DrawRegion == nil {
		return v.visibleReg
	}
	return v.DrawRegion
}

// BeginUpdate/EndUpdate implement the paint loop of §4.2.5: atomically
// swap damage to active-damage, optimize, paint under that clip, then
// promote anything that accrued mid-paint to the next round's
// active-damage.
func (v *View) BeginUpdate() bool {
	if v.damageReg == nil || v.damageReg.IsEmpty() {
		return false
	}
	v.activeDamageReg = v.damageReg
	v.damageReg = nil
	v.activeDamageReg.Optimize()
	v.isUpdating = true
	return true
}

func (v *View) EndUpdate() {
	v.activeDamageReg = nil
	v.DrawRegion = nil
	v.isUpdating = false
}

// ActiveDamageBounds returns the bounding box of the region currently
// being painted, the argument OnPaint receives.
func (v *View) ActiveDamageBounds() IRect {
	if v.activeDamageReg == nil {
		return IRect{}
	}
	return v.activeDamageReg.Bounds()
}

// HasDamage reports whether the view has pending, unpainted damage.
func (v *View) HasDamage() bool {
	return v.damageReg != nil && !v.damageReg.IsEmpty()
}

// Walk calls fn for v and every descendant, depth-first: a parent before
// its children, and children in Children order (topmost first).
func (v *View) Walk(fn func(*View)) {
	fn(v)
	for _, c := range v.Children {
		c.Walk(fn)
	}
}

// ScreenOrigin computes v's top-left corner in root (screen)
// coordinates by walking up the parent chain.
func (v *View) ScreenOrigin() Point {
	origin := Point{}
	for n := v; n != nil; n = n.Parent {
		origin = origin.Add(n.Frame.LeftTop())
	}
	return origin
}
