// PadOS
// https://github.com/kavionic/pados
//
// Copyright (c) The PadOS Authors.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Command pados boots the reference touchscreen device: it brings up the
// platform via periph.io/x/host/v3 the way periph-devices' own example
// commands do, starts the SD/MMC monitor thread, starts the compositor,
// and registers a small demo application against it.
package main

import (
	"context"

	"periph.io/x/host/v3"

	"github.com/kavionic/pados/boardcfg"
	_ "github.com/kavionic/pados/boardcfg/padtouch"
	"github.com/kavionic/pados/compositor"
	"github.com/kavionic/pados/gui"
	"github.com/kavionic/pados/hal"
	"github.com/kavionic/pados/internal/log"
	"github.com/kavionic/pados/sdmmc"
	"github.com/kavionic/pados/vfs"
)

func main() {
	if _, err := host.Init(); err != nil {
		log.Errorf("pados", "platform init: %v", err)
		return
	}
	log.Infof("pados", "board=%s panel=%dx%d", boardcfg.Current.Name,
		boardcfg.Current.Panel.WidthPx, boardcfg.Current.Panel.HeightPx)

	registry := vfs.NewRegistry()
	startStorage(registry)

	display := compositor.NewSimDisplay(boardcfg.Current.Panel.WidthPx, boardcfg.Current.Panel.HeightPx)
	server := compositor.NewServer(display)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go server.Run(ctx)

	runDemoApplication(ctx, server)
}

// startStorage wires the SD/MMC driver against a simulated controller: a
// real board replaces sdmmc.NewSimController with a register-backed
// Controller over its uSDHC instance (see sdmmc.Controller's doc comment
// and DESIGN.md for why that port isn't carried in this tree).
func startStorage(registry *vfs.Registry) {
	pool := hal.NewPool(hal.CacheLineSize*64, nil)
	ctl := sdmmc.NewSimController()
	driver := sdmmc.New("mmcblk0", ctl, registry, pool)

	detect := hal.NewSimulatedIRQController()
	go driver.Run(detect, 0)
}

// runDemoApplication registers one client application, creates a single
// view spanning the whole panel, and paints it once — enough to exercise
// RegisterApplication/CreateView/MessageBundle/Sync end-to-end per spec
// §6.2, standing in for a real shell/launcher application.
func runDemoApplication(ctx context.Context, server *compositor.Server) {
	client, err := gui.NewClient(ctx, server.Port(), "pados-shell")
	if err != nil {
		log.Errorf("pados", "register application: %v", err)
		return
	}

	root := gui.NewView("desktop", compositor.IRect{
		Left: 0, Top: 0,
		Right:  boardcfg.Current.Panel.WidthPx,
		Bottom: boardcfg.Current.Panel.HeightPx,
	})
	root.Flags |= compositor.FlagClearBackground

	if err := client.AddView(ctx, root, nil); err != nil {
		log.Errorf("pados", "create root view: %v", err)
		return
	}

	root.SetFgColor(0xffff)
	root.FillRect(root.Frame())

	if err := client.Sync(ctx); err != nil {
		log.Errorf("pados", "sync: %v", err)
		return
	}

	go dispatchLoop(ctx, client)
}

func dispatchLoop(ctx context.Context, client *gui.Client) {
	for {
		e, err := client.ReplyPort().Receive(ctx)
		if err != nil {
			return
		}
		client.Dispatch(ctx, e)
	}
}
