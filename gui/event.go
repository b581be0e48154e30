// PadOS
// https://github.com/kavionic/pados
//
// Copyright (c) The PadOS Authors.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package gui

import (
	"context"
	"encoding/binary"

	"github.com/kavionic/pados/compositor"
	"github.com/kavionic/pados/internal/log"
	"github.com/kavionic/pados/wire"
)

// captureState tracks the view a mouse press has captured, per spec
// §4.3.3: "true captures the pointer (subsequent move/up routed to the
// same view regardless of position)."
type captureState struct {
	view *View
	// origin is the captured view's position relative to the view the
	// server-addressed event targets, so later move/up events (still
	// reported in that outer view's coordinates) can be translated.
	origin compositor.Point
}

// Dispatch decodes one envelope arriving on the client's reply port and
// routes it to the view it targets, per spec §4.3.3. Call this in a loop
// from the application's own thread.
func (c *Client) Dispatch(ctx context.Context, e wire.Envelope) {
	msgs, err := wire.DecodeAll(e.Payload)
	if err != nil {
		log.Warnf("gui", "dropping malformed server message: %v", err)
		return
	}
	for _, m := range msgs {
		c.dispatchOne(ctx, m)
	}
}

func (c *Client) dispatchOne(ctx context.Context, m wire.Message) {
	if len(m.Body) < 4 {
		return
	}
	handle := compositor.Handle(binary.LittleEndian.Uint32(m.Body[0:4]))
	view, ok := c.byHandle[handle]
	if !ok {
		log.Warnf("gui", "server message %d against unknown view %d", m.Code, handle)
		return
	}
	body := m.Body[4:]

	switch m.Code {
	case wire.PaintView:
		c.dispatchPaint(view, body)
	case wire.HandleMouseDown:
		c.dispatchMouseDown(view, decodePoint(body))
	case wire.HandleMouseUp:
		c.dispatchMouseUp(view, decodePoint(body))
	case wire.HandleMouseMove:
		c.dispatchMouseMove(view, decodePoint(body))
	case wire.ViewFocusChanged:
		view.hasFocus = len(body) > 0 && body[0] != 0
	case wire.ViewFrameChanged:
		if len(body) >= 32 {
			view.Frame_ = decodeRect(body)
		}
	default:
		log.Warnf("gui", "unrecognized server message code %d", m.Code)
	}
}

func (c *Client) dispatchPaint(view *View, body []byte) {
	if len(body) < 32 {
		return
	}
	damage := decodeRect(body)
	if view.OnPaintFn != nil {
		view.OnPaintFn(view, damage)
	}
}

// hitResult is a hit-tested view together with the event position
// translated into that view's own local coordinate space.
type hitResult struct {
	view *View
	pos  compositor.Point
}

// hitTest descends from view (with pos already local to view) picking the
// topmost child containing pos at each level, per spec §4.3.3 ("topmost
// under position first"), skipping ignore-mouse views. It returns the
// deepest eligible view hit, or view itself if no child qualifies.
func hitTest(view *View, pos compositor.Point) hitResult {
	for _, child := range view.children {
		if child.Flags&compositor.FlagIgnoreMouse != 0 {
			continue
		}
		if !child.Frame_.Contains(int(pos.X), int(pos.Y)) {
			continue
		}
		local := compositor.Point{X: pos.X - float64(child.Frame_.Left), Y: pos.Y - float64(child.Frame_.Top)}
		return hitTest(child, local)
	}
	return hitResult{view: view, pos: pos}
}

// descendPath returns the chain [root...hit] from the view the server
// addressed down to the hit-tested target, so a force-handle-mouse
// ancestor can be asked before the hit child, per spec §4.3.3:
// "force-handle-mouse lets a parent consume an event even if a child
// would normally hit."
func descendPath(root, target *View) []*View {
	var reverse []*View
	for v := target; v != nil; v = v.Parent {
		reverse = append(reverse, v)
		if v == root {
			break
		}
	}
	path := make([]*View, len(reverse))
	for i, v := range reverse {
		path[len(reverse)-1-i] = v
	}
	return path
}

// localFor translates pos (local to hit.view) into the coordinate space
// of ancestor v, which must lie on hit.view's parent chain.
func localFor(hit hitResult, v *View) compositor.Point {
	p := hit.pos
	for node := hit.view; node != nil && node != v; node = node.Parent {
		p.X += float64(node.Frame_.Left)
		p.Y += float64(node.Frame_.Top)
	}
	return p
}

func (c *Client) dispatchMouseDown(view *View, pos compositor.Point) {
	hit := hitTest(view, pos)
	hit.view.BeginLongPressWatch(hit.pos)

	// Force-handle-mouse ancestors get first refusal, ahead of the
	// normal hit-test order, per spec §4.3.3.
	for _, v := range descendPath(view, hit.view) {
		if v == hit.view || v.Flags&compositor.FlagForceHandleMouse == 0 {
			continue
		}
		if v.OnMouseDownFn == nil {
			continue
		}
		local := localFor(hit, v)
		if v.OnMouseDownFn(v, local) {
			c.capture = &captureState{view: v, origin: compositor.Point{
				X: pos.X - local.X,
				Y: pos.Y - local.Y,
			}}
			return
		}
	}

	if target, local, ok := tryMouseDown(view, pos); ok {
		c.capture = &captureState{view: target, origin: compositor.Point{
			X: pos.X - local.X,
			Y: pos.Y - local.Y,
		}}
	}
}

// tryMouseDown offers the mouse-down to the topmost child under pos first,
// recursing depth-first so the deepest hit is tried before any of its
// ancestors. If a child's whole subtree declines, the next eligible
// sibling under the same position is tried, and only once every child has
// declined does view itself get a chance - the "next eligible sibling
// (topmost under position first) and then the parent" fallthrough of spec
// §4.3.3. pos is in view's own local coordinates; the returned point is
// local to whichever view accepted the event.
func tryMouseDown(view *View, pos compositor.Point) (*View, compositor.Point, bool) {
	for _, child := range view.children {
		if child.Flags&compositor.FlagIgnoreMouse != 0 {
			continue
		}
		if !child.Frame_.Contains(int(pos.X), int(pos.Y)) {
			continue
		}
		local := compositor.Point{X: pos.X - float64(child.Frame_.Left), Y: pos.Y - float64(child.Frame_.Top)}
		if target, p, ok := tryMouseDown(child, local); ok {
			return target, p, true
		}
	}
	if view.OnMouseDownFn != nil && view.OnMouseDownFn(view, pos) {
		return view, pos, true
	}
	return nil, compositor.Point{}, false
}

func (c *Client) dispatchMouseUp(view *View, pos compositor.Point) {
	if c.capture != nil {
		target := c.capture.view
		local := compositor.Point{X: pos.X - c.capture.origin.X, Y: pos.Y - c.capture.origin.Y}
		c.capture = nil
		target.CancelLongPressWatch()
		if target.OnMouseUpFn != nil {
			target.OnMouseUpFn(target, local)
		}
		return
	}
	hit := hitTest(view, pos)
	hit.view.CancelLongPressWatch()
	if hit.view.OnMouseUpFn != nil {
		hit.view.OnMouseUpFn(hit.view, hit.pos)
	}
}

func (c *Client) dispatchMouseMove(view *View, pos compositor.Point) {
	if c.capture != nil {
		target := c.capture.view
		local := compositor.Point{X: pos.X - c.capture.origin.X, Y: pos.Y - c.capture.origin.Y}
		target.UpdateLongPressWatch(local)
		if target.OnMouseMoveFn != nil {
			target.OnMouseMoveFn(target, local)
		}
		return
	}
	hit := hitTest(view, pos)
	hit.view.UpdateLongPressWatch(hit.pos)
	if hit.view.OnMouseMoveFn != nil {
		hit.view.OnMouseMoveFn(hit.view, hit.pos)
	}
}
