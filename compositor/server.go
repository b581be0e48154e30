// PadOS
// https://github.com/kavionic/pados
//
// Copyright (c) The PadOS Authors.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package compositor

import (
	"context"
	"encoding/binary"
	"math"

	"github.com/kavionic/pados/internal/log"
	"github.com/kavionic/pados/wire"
)

const invalidHandle Handle = 0

// Server is the application server of spec §3.2/§4.2: one goroutine
// receiving every client's framed bundles on a single port (§5
// "Compositor thread"), a tree of server-side views per application, and
// the hardware display it exclusively owns.
type Server struct {
	port    *wire.Port
	display Display

	root *View

	apps      map[AppHandle]*Application
	nextApp   AppHandle
	views     map[Handle]*View
	nextView  Handle

	stop chan struct{}
}

// NewServer constructs a compositor rooted at a view spanning the whole
// display.
func NewServer(display Display) *Server {
	w, h := display.Size()
	root := NewView(invalidHandle+1, "root", IRect{0, 0, w, h}, FlagClearBackground)
	root.attached = true
	root.Flags |= FlagIsAttachedToScreen

	s := &Server{
		port:     wire.NewPort(64),
		display:  display,
		root:     root,
		apps:     make(map[AppHandle]*Application),
		views:    map[Handle]*View{root.Handle: root},
		nextApp:  1,
		nextView: root.Handle + 1,
		stop:     make(chan struct{}),
	}
	root.RebuildRegion(true)
	root.ClearDirtyRegFlags()
	return s
}

// Port returns the server's incoming message port; applications Send or
// Request against it.
func (s *Server) Port() *wire.Port { return s.port }

// Run processes one bundle to completion before taking the next, per
// spec §5: "receives all client bundles on its port and processes them
// to completion before taking the next". It returns when Stop is called
// or ctx is done.
func (s *Server) Run(ctx context.Context) {
	recvCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.stop:
			cancel()
		case <-recvCtx.Done():
		}
	}()

	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		e, err := s.port.Receive(recvCtx)
		if err != nil {
			return
		}
		s.handleEnvelope(ctx, e)
	}
}

// Stop ends Run's loop after the in-flight envelope, if any.
func (s *Server) Stop() { close(s.stop) }

func (s *Server) handleEnvelope(ctx context.Context, e wire.Envelope) {
	msgs, err := wire.DecodeAll(e.Payload)
	if err != nil {
		log.Warnf("compositor", "dropping malformed message: %v", err)
		return
	}
	for _, m := range msgs {
		s.dispatch(ctx, m, e.ReplyTo)
	}
}

func (s *Server) dispatch(ctx context.Context, m wire.Message, replyTo *wire.Port) {
	switch m.Code {
	case wire.RegisterApplication:
		s.handleRegisterApplication(ctx, m, replyTo)
	case wire.CreateView:
		s.handleCreateView(ctx, m, replyTo)
	case wire.DeleteView:
		s.handleDeleteView(m)
	case wire.ViewSetFrame:
		s.handleSetViewFrame(m)
	case wire.ViewInvalidate:
		s.handleInvalidateView(m)
	case wire.MessageBundle:
		s.handleBundle(m)
	case wire.Sync:
		s.handleSync(ctx, replyTo)
	default:
		log.Warnf("compositor", "dropping unrecognized message code %d", m.Code)
	}
}

func (s *Server) handleRegisterApplication(ctx context.Context, m wire.Message, replyTo *wire.Port) {
	name := string(m.Body)
	handle := s.nextApp
	s.nextApp++

	app := newApplication(handle, name, replyTo)
	s.apps[handle] = app

	reply := make([]byte, 4)
	binary.LittleEndian.PutUint32(reply, uint32(handle))
	_ = wire.Reply(ctx, wire.Envelope{ReplyTo: replyTo}, reply)
}

// decodeCreateView parses CreateView's fixed-layout request body:
// {app(4), parent(4), flags(4), frame(32 as 4 float64), nameLen(2), name}.
func decodeCreateView(body []byte) (app AppHandle, parent Handle, flags Flag, frame IRect, name string, ok bool) {
	if len(body) < 46 {
		return 0, 0, 0, IRect{}, "", false
	}
	app = AppHandle(binary.LittleEndian.Uint32(body[0:4]))
	parent = Handle(binary.LittleEndian.Uint32(body[4:8]))
	flags = Flag(binary.LittleEndian.Uint32(body[8:12]))
	frame = decodeRect(body[12:44])
	nameLen := int(binary.LittleEndian.Uint16(body[44:46]))
	if len(body) < 46+nameLen {
		return 0, 0, 0, IRect{}, "", false
	}
	name = string(body[46 : 46+nameLen])
	return app, parent, flags, frame, name, true
}

func (s *Server) handleCreateView(ctx context.Context, m wire.Message, replyTo *wire.Port) {
	appHandle, parentHandle, flags, frame, name, ok := decodeCreateView(m.Body)
	if !ok {
		s.replyHandle(ctx, replyTo, invalidHandle)
		return
	}

	app, known := s.apps[appHandle]
	parent, haveParent := s.views[parentHandle]
	if !known || (parentHandle != invalidHandle && !haveParent) {
		s.replyHandle(ctx, replyTo, invalidHandle)
		return
	}
	if !haveParent {
		parent = s.root
	}

	handle := s.nextView
	s.nextView++

	view := NewView(handle, name, frame, flags)
	view.app = app
	parent.AddChild(view)
	s.views[handle] = view

	if parent == s.root {
		app.Roots = append(app.Roots, view)
	}

	s.recompute()
	s.replyHandle(ctx, replyTo, handle)
}

func (s *Server) replyHandle(ctx context.Context, replyTo *wire.Port, h Handle) {
	reply := make([]byte, 4)
	binary.LittleEndian.PutUint32(reply, uint32(h))
	_ = wire.Reply(ctx, wire.Envelope{ReplyTo: replyTo}, reply)
}

func (s *Server) handleDeleteView(m wire.Message) {
	if len(m.Body) < 4 {
		return
	}
	handle := Handle(binary.LittleEndian.Uint32(m.Body[0:4]))
	view, ok := s.views[handle]
	if !ok {
		return
	}
	view.Walk(func(v *View) { delete(s.views, v.Handle) })
	if view.Parent != nil {
		view.Parent.RemoveChild(view)
	}
	s.recompute()
}

func (s *Server) handleSetViewFrame(m wire.Message) {
	if len(m.Body) < 36 {
		return
	}
	handle := Handle(binary.LittleEndian.Uint32(m.Body[0:4]))
	view, ok := s.views[handle]
	if !ok {
		return
	}
	view.SetFrame(decodeRect(m.Body[4:36]))
	s.recompute()
}

func (s *Server) handleInvalidateView(m wire.Message) {
	if len(m.Body) < 36 {
		return
	}
	handle := Handle(binary.LittleEndian.Uint32(m.Body[0:4]))
	view, ok := s.views[handle]
	if !ok {
		return
	}
	view.Invalidate(decodeRect(m.Body[4:36]))
}

func (s *Server) handleBundle(m wire.Message) {
	subs, err := wire.DecodeAll(m.Body)
	if err != nil {
		log.Warnf("compositor", "dropping malformed bundle: %v", err)
		return
	}
	for _, sub := range subs {
		s.applyDrawingMessage(sub)
	}
}

func (s *Server) handleSync(ctx context.Context, replyTo *wire.Port) {
	s.recompute()
	s.PaintDamaged()
	_ = wire.Reply(ctx, wire.Envelope{ReplyTo: replyTo}, nil)
}

// recompute runs the top-down region rebuild pass of §4.2.2 against the
// whole tree rooted at s.root.
func (s *Server) recompute() {
	s.root.RebuildRegion(false)
	s.root.InvalidateNewAreas()
	s.root.ClearDirtyRegFlags()
}

func decodeRect(b []byte) IRect {
	return IRect{
		Left:   int(math.Float64frombits(binary.LittleEndian.Uint64(b[0:8]))),
		Top:    int(math.Float64frombits(binary.LittleEndian.Uint64(b[8:16]))),
		Right:  int(math.Float64frombits(binary.LittleEndian.Uint64(b[16:24]))),
		Bottom: int(math.Float64frombits(binary.LittleEndian.Uint64(b[24:32]))),
	}
}

func encodeRect(r IRect, out []byte) {
	binary.LittleEndian.PutUint64(out[0:8], math.Float64bits(float64(r.Left)))
	binary.LittleEndian.PutUint64(out[8:16], math.Float64bits(float64(r.Top)))
	binary.LittleEndian.PutUint64(out[16:24], math.Float64bits(float64(r.Right)))
	binary.LittleEndian.PutUint64(out[24:32], math.Float64bits(float64(r.Bottom)))
}

func decodePoint(b []byte) Point {
	return Point{
		X: math.Float64frombits(binary.LittleEndian.Uint64(b[0:8])),
		Y: math.Float64frombits(binary.LittleEndian.Uint64(b[8:16])),
	}
}
