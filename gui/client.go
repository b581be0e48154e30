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
	"math"
	"sync"

	"github.com/kavionic/pados/compositor"
	"github.com/kavionic/pados/wire"
)

// sendBufferLimit bounds the per-application batching buffer of spec
// §4.3.1: adding a message that would overflow it first triggers a flush.
const sendBufferLimit = 4096

// Client is an application's connection to the compositor: it owns the
// per-application bundle buffer, the reply port events arrive on, and the
// root of the client-side view tree.
type Client struct {
	mu sync.Mutex

	name       string
	serverPort *wire.Port
	replyPort  *wire.Port

	app compositor.AppHandle

	bundle wire.Bundle
	roots  []*View
	byHandle map[compositor.Handle]*View

	capture *captureState
}

// NewClient registers name with the compositor over serverPort and returns
// a Client ready to add views. RegisterApplication is request/reply, per
// spec §6.2. The reply is routed to the client's own long-lived reply
// port rather than Port.Request's ephemeral one, since the compositor
// keeps that same ReplyTo around as the application's incoming port for
// every later PaintView/HandleMouse* request (compositor.Application.Reply).
func NewClient(ctx context.Context, serverPort *wire.Port, name string) (*Client, error) {
	replyPort := wire.NewPort(32)
	msg := wire.Encode(wire.RegisterApplication, []byte(name))
	if err := serverPort.Send(ctx, wire.Envelope{Payload: msg, ReplyTo: replyPort}); err != nil {
		return nil, err
	}
	e, err := replyPort.Receive(ctx)
	if err != nil {
		return nil, err
	}

	c := &Client{
		name:       name,
		serverPort: serverPort,
		replyPort:  replyPort,
		app:        compositor.AppHandle(binary.LittleEndian.Uint32(e.Payload)),
		byHandle:   make(map[compositor.Handle]*View),
	}
	return c, nil
}

// ReplyPort is the port the compositor sends PaintView/HandleMouse*
// requests and Sync replies to; a caller runs Dispatch in a loop reading
// from it.
func (c *Client) ReplyPort() *wire.Port { return c.replyPort }

// AddView allocates the server-side view for v (and recursively for its
// already-added children), stores the returned handle, then runs the
// AttachedToScreen/AllAttachedToScreen hooks of spec §4.3.1. parent nil
// means v becomes a root view.
func (c *Client) AddView(ctx context.Context, v *View, parent *View) error {
	var parentHandle compositor.Handle
	if parent != nil {
		parentHandle = parent.Handle
		v.Parent = parent
	} else {
		c.roots = append(c.roots, v)
	}
	v.client = c

	if err := c.createViewRecursive(ctx, v, parentHandle); err != nil {
		return err
	}

	v.attachedToScreenBottomUp()
	v.allAttachedToScreenTopDown()
	return nil
}

func (c *Client) createViewRecursive(ctx context.Context, v *View, parentHandle compositor.Handle) error {
	handle, err := c.requestCreateView(ctx, v, parentHandle)
	if err != nil {
		return err
	}
	v.Handle = handle
	v.client = c
	c.byHandle[handle] = v

	for _, child := range v.children {
		if err := c.createViewRecursive(ctx, child, handle); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) requestCreateView(ctx context.Context, v *View, parentHandle compositor.Handle) (compositor.Handle, error) {
	name := v.Name
	body := make([]byte, 44+2+len(name))
	binary.LittleEndian.PutUint32(body[0:4], uint32(c.app))
	binary.LittleEndian.PutUint32(body[4:8], uint32(parentHandle))
	binary.LittleEndian.PutUint32(body[8:12], uint32(v.Flags))
	encodeRectInto(body[12:44], v.Frame_)
	binary.LittleEndian.PutUint16(body[44:46], uint16(len(name)))
	copy(body[46:], name)

	reply, err := c.serverPort.Request(ctx, wire.Encode(wire.CreateView, body))
	if err != nil {
		return 0, err
	}
	return compositor.Handle(binary.LittleEndian.Uint32(reply)), nil
}

// attachedToScreenBottomUp and allAttachedToScreenTopDown implement spec
// §4.3.1's creation hook ordering: "issues AttachedToScreen hooks
// bottom-up and AllAttachedToScreen top-down."
func (v *View) attachedToScreenBottomUp() {
	for _, c := range v.children {
		c.attachedToScreenBottomUp()
	}
	// A concrete widget overrides this via embedding; the framework default
	// is a no-op hook point.
}

func (v *View) allAttachedToScreenTopDown() {
	for _, c := range v.children {
		c.allAttachedToScreenTopDown()
	}
}

// RemoveView detaches v from the server and the local tree.
func (c *Client) RemoveView(ctx context.Context, v *View) error {
	body := make([]byte, 4)
	binary.LittleEndian.PutUint32(body, uint32(v.Handle))
	if err := c.serverPort.Send(ctx, wire.Envelope{Payload: wire.Encode(wire.DeleteView, body)}); err != nil {
		return err
	}
	delete(c.byHandle, v.Handle)
	if v.Parent != nil {
		v.Parent.removeChild(v)
	}
	return nil
}

func (v *View) removeChild(child *View) {
	for i, c := range v.children {
		if c == child {
			v.children = append(v.children[:i], v.children[i+1:]...)
			return
		}
	}
}

// add queues a framed drawing sub-message, flushing first if it would
// overflow the batching buffer (spec §4.3.1).
func (c *Client) add(ctx context.Context, code wire.Code, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bundle.Len()+wire.HeaderSize+len(body) > sendBufferLimit {
		c.flushLocked(ctx)
	}
	c.bundle.Add(code, body)
}

// Flush sends any buffered messages as one bundle.
func (c *Client) Flush(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flushLocked(ctx)
}

func (c *Client) flushLocked(ctx context.Context) error {
	if c.bundle.Empty() {
		return nil
	}
	payload := wire.Encode(wire.MessageBundle, c.bundle.Bytes())
	c.bundle.Reset()
	return c.serverPort.Send(ctx, wire.Envelope{Payload: payload})
}

// Sync flushes any pending bundle plus an explicit Sync request and blocks
// for the reply, per spec §4.3.1.
func (c *Client) Sync(ctx context.Context) error {
	c.mu.Lock()
	if !c.bundle.Empty() {
		payload := wire.Encode(wire.MessageBundle, c.bundle.Bytes())
		c.bundle.Reset()
		if err := c.serverPort.Send(ctx, wire.Envelope{Payload: payload}); err != nil {
			c.mu.Unlock()
			return err
		}
	}
	c.mu.Unlock()

	_, err := c.serverPort.Request(ctx, wire.Encode(wire.Sync, nil))
	return err
}

// --- drawing command queuing -------------------------------------------

func (c *Client) sendSetFrame(v *View, f compositor.IRect) {
	body := make([]byte, 36)
	binary.LittleEndian.PutUint32(body[0:4], uint32(v.Handle))
	encodeRectInto(body[4:36], f)
	c.add(context.Background(), wire.ViewSetFrame, body)
}

// SetFgColor queues ViewSetFgColor.
func (v *View) SetFgColor(color uint16) {
	v.FgColor = color
	if v.client == nil {
		return
	}
	body := make([]byte, 6)
	binary.LittleEndian.PutUint32(body[0:4], uint32(v.Handle))
	binary.LittleEndian.PutUint16(body[4:6], color)
	v.client.add(context.Background(), wire.ViewSetFgColor, body)
}

// FillRect queues ViewFillRect against rect (view-local coordinates).
func (v *View) FillRect(rect compositor.IRect) {
	if v.client == nil {
		return
	}
	body := make([]byte, 36)
	binary.LittleEndian.PutUint32(body[0:4], uint32(v.Handle))
	encodeRectInto(body[4:36], rect)
	v.client.add(context.Background(), wire.ViewFillRect, body)
}

// DrawLine queues an absolute ViewDrawLine2 from-to.
func (v *View) DrawLine(from, to compositor.Point) {
	if v.client == nil {
		return
	}
	body := make([]byte, 4+32)
	binary.LittleEndian.PutUint32(body[0:4], uint32(v.Handle))
	encodePointInto(body[4:20], from)
	encodePointInto(body[20:36], to)
	v.client.add(context.Background(), wire.ViewDrawLine2, body)
}

// DrawString queues ViewDrawString at pos.
func (v *View) DrawString(pos compositor.Point, text string) {
	if v.client == nil {
		return
	}
	body := make([]byte, 4+16+2+len(text))
	binary.LittleEndian.PutUint32(body[0:4], uint32(v.Handle))
	encodePointInto(body[4:20], pos)
	binary.LittleEndian.PutUint16(body[20:22], uint16(len(text)))
	copy(body[22:], text)
	v.client.add(context.Background(), wire.ViewDrawString, body)
}

// Invalidate queues ViewInvalidate against rect.
func (v *View) Invalidate(rect compositor.IRect) {
	if v.client == nil {
		return
	}
	body := make([]byte, 36)
	binary.LittleEndian.PutUint32(body[0:4], uint32(v.Handle))
	encodeRectInto(body[4:36], rect)
	v.client.add(context.Background(), wire.ViewInvalidate, body)
}

func encodeRectInto(b []byte, r compositor.IRect) {
	binary.LittleEndian.PutUint64(b[0:8], math.Float64bits(float64(r.Left)))
	binary.LittleEndian.PutUint64(b[8:16], math.Float64bits(float64(r.Top)))
	binary.LittleEndian.PutUint64(b[16:24], math.Float64bits(float64(r.Right)))
	binary.LittleEndian.PutUint64(b[24:32], math.Float64bits(float64(r.Bottom)))
}

func encodePointInto(b []byte, p compositor.Point) {
	binary.LittleEndian.PutUint64(b[0:8], math.Float64bits(p.X))
	binary.LittleEndian.PutUint64(b[8:16], math.Float64bits(p.Y))
}

func decodeRect(b []byte) compositor.IRect {
	return compositor.IRect{
		Left:   int(math.Float64frombits(binary.LittleEndian.Uint64(b[0:8]))),
		Top:    int(math.Float64frombits(binary.LittleEndian.Uint64(b[8:16]))),
		Right:  int(math.Float64frombits(binary.LittleEndian.Uint64(b[16:24]))),
		Bottom: int(math.Float64frombits(binary.LittleEndian.Uint64(b[24:32]))),
	}
}

func decodePoint(b []byte) compositor.Point {
	return compositor.Point{
		X: math.Float64frombits(binary.LittleEndian.Uint64(b[0:8])),
		Y: math.Float64frombits(binary.LittleEndian.Uint64(b[8:16])),
	}
}
