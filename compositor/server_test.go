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
	"testing"
	"time"

	"github.com/kavionic/pados/wire"
)

func registerApp(t *testing.T, s *Server, name string) (AppHandle, *wire.Port) {
	t.Helper()
	reply := wire.NewPort(1)
	ctx := context.Background()

	msg := wire.Encode(wire.RegisterApplication, []byte(name))
	if err := s.Port().Send(ctx, wire.Envelope{Payload: msg, ReplyTo: reply}); err != nil {
		t.Fatalf("send RegisterApplication: %v", err)
	}
	e, err := reply.Receive(ctx)
	if err != nil {
		t.Fatalf("receive reply: %v", err)
	}
	return AppHandle(binary.LittleEndian.Uint32(e.Payload)), reply
}

func createView(t *testing.T, s *Server, app AppHandle, parent Handle, frame IRect, flags Flag, name string) Handle {
	t.Helper()
	reply := wire.NewPort(1)
	ctx := context.Background()

	body := make([]byte, 46+len(name))
	binary.LittleEndian.PutUint32(body[0:4], uint32(app))
	binary.LittleEndian.PutUint32(body[4:8], uint32(parent))
	binary.LittleEndian.PutUint32(body[8:12], uint32(flags))
	encodeRect(frame, body[12:44])
	binary.LittleEndian.PutUint16(body[44:46], uint16(len(name)))
	copy(body[46:], name)

	msg := wire.Encode(wire.CreateView, body)
	if err := s.Port().Send(ctx, wire.Envelope{Payload: msg, ReplyTo: reply}); err != nil {
		t.Fatalf("send CreateView: %v", err)
	}
	e, err := reply.Receive(ctx)
	if err != nil {
		t.Fatalf("receive reply: %v", err)
	}
	return Handle(binary.LittleEndian.Uint32(e.Payload))
}

func runServer(t *testing.T, s *Server) func() {
	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	t.Cleanup(cancel)
	return cancel
}

func TestRegisterApplicationAndCreateView(t *testing.T) {
	display := NewSimDisplay(100, 100)
	s := NewServer(display)
	runServer(t, s)

	app, _ := registerApp(t, s, "demo")
	if app == 0 {
		t.Fatalf("expected non-zero application handle")
	}

	view := createView(t, s, app, invalidHandle, IRect{10, 10, 40, 40}, 0, "view1")
	if view == invalidHandle {
		t.Fatalf("expected a valid view handle")
	}
}

func TestCreateViewUnknownAppReturnsInvalidHandle(t *testing.T) {
	display := NewSimDisplay(100, 100)
	s := NewServer(display)
	runServer(t, s)

	view := createView(t, s, AppHandle(999), invalidHandle, IRect{0, 0, 10, 10}, 0, "v")
	if view != invalidHandle {
		t.Fatalf("expected invalid handle sentinel for unknown app, got %d", view)
	}
}

func TestMessageBundleFillRectIssuesHardwareCall(t *testing.T) {
	display := NewSimDisplay(100, 100)
	s := NewServer(display)
	runServer(t, s)

	app, _ := registerApp(t, s, "demo")
	view := createView(t, s, app, invalidHandle, IRect{10, 10, 40, 40}, 0, "view1")

	var bundle wire.Bundle
	colorBody := make([]byte, 6)
	binary.LittleEndian.PutUint32(colorBody[0:4], uint32(view))
	binary.LittleEndian.PutUint16(colorBody[4:6], 0xffff)
	bundle.Add(wire.ViewSetFgColor, colorBody)

	rectBody := make([]byte, 36)
	binary.LittleEndian.PutUint32(rectBody[0:4], uint32(view))
	encodeRect(IRect{0, 0, 10, 10}, rectBody[4:36])
	bundle.Add(wire.ViewFillRect, rectBody)

	msg := wire.Encode(wire.MessageBundle, bundle.Bytes())
	if err := s.Port().Send(context.Background(), wire.Envelope{Payload: msg}); err != nil {
		t.Fatalf("send bundle: %v", err)
	}

	// The bundle is one-way; give the server goroutine a moment to drain it.
	deadline := time.After(time.Second)
	for {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for FillRect to be applied")
		default:
		}
		found := false
		for _, c := range display.Calls {
			if c.Op == "fillrect" {
				found = true
			}
		}
		if found {
			break
		}
		time.Sleep(time.Millisecond)
	}
}

func TestDecodeRectRoundTrip(t *testing.T) {
	r := IRect{1, 2, 300, 400}
	buf := make([]byte, 32)
	encodeRect(r, buf)
	got := decodeRect(buf)
	if got != r {
		t.Fatalf("round trip mismatch: got %v want %v", got, r)
	}
}

func TestDecodeFloatRoundTrip(t *testing.T) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, math.Float64bits(3.5))
	if got := decodeFloat(buf); got != 3.5 {
		t.Fatalf("got %v want 3.5", got)
	}
}
