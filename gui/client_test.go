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
	"testing"

	"github.com/kavionic/pados/compositor"
)

func startServer(t *testing.T) (*compositor.Server, *compositor.SimDisplay) {
	t.Helper()
	display := compositor.NewSimDisplay(200, 200)
	s := compositor.NewServer(display)
	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	t.Cleanup(cancel)
	return s, display
}

func TestNewClientRegistersApplication(t *testing.T) {
	s, _ := startServer(t)
	ctx := context.Background()

	c, err := NewClient(ctx, s.Port(), "demo")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.app == 0 {
		t.Fatalf("expected a non-zero application handle")
	}
}

func TestAddViewAllocatesServerHandleAndChildren(t *testing.T) {
	s, _ := startServer(t)
	ctx := context.Background()

	c, err := NewClient(ctx, s.Port(), "demo")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	root := NewView("root", compositor.IRect{Left: 0, Top: 0, Right: 100, Bottom: 100})
	child := NewView("child", compositor.IRect{Left: 0, Top: 0, Right: 50, Bottom: 50})
	root.AddChild(child)

	if err := c.AddView(ctx, root, nil); err != nil {
		t.Fatalf("AddView: %v", err)
	}
	if root.Handle == 0 {
		t.Fatalf("expected root to receive a server handle")
	}
	if child.Handle == 0 {
		t.Fatalf("expected child to receive a server handle")
	}
	if c.byHandle[root.Handle] != root || c.byHandle[child.Handle] != child {
		t.Fatalf("expected both views registered in byHandle")
	}
}

func TestFlushSendsBufferedDrawingAsOneBundle(t *testing.T) {
	s, display := startServer(t)
	ctx := context.Background()

	c, err := NewClient(ctx, s.Port(), "demo")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	root := NewView("root", compositor.IRect{Left: 0, Top: 0, Right: 100, Bottom: 100})
	if err := c.AddView(ctx, root, nil); err != nil {
		t.Fatalf("AddView: %v", err)
	}

	root.SetFgColor(0x1234)
	root.FillRect(root.Frame())
	if err := c.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if err := c.Sync(ctx); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	// Sync's reply only arrives once the server has processed the prior
	// flush, so the fill should already be visible on the simulated
	// display by the time Sync returns.
	found := false
	for _, call := range display.Calls {
		if call.Op == "fillrect" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a FillRect call to have reached the display by the time Sync returned")
	}
}
