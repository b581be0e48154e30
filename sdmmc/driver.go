// PadOS
// https://github.com/kavionic/pados
//
// Copyright (c) The PadOS Authors.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package sdmmc

import (
	"time"

	"github.com/kavionic/pados/hal"
	"github.com/kavionic/pados/internal/log"
	"github.com/kavionic/pados/sched"
	"github.com/kavionic/pados/vfs"
)

// Driver owns one SD/MMC controller instance: the monitor thread, the
// current Card, and the raw/partition device inodes published in the
// VFS, per spec §2 item 4 and §4.1.
type Driver struct {
	name string
	ctl  Controller
	pool *hal.Pool

	mu    sched.Mutex
	cond  *sched.Cond
	sem   *sched.Semaphore // device semaphore, spec §3.1 invariant (a)
	card  Card
	stop  bool
	ready chan struct{} // closed once, the first time the card becomes Ready

	registry  *vfs.Registry
	rawPath   string
	rawHandle vfs.Handle
	parts     *vfs.PartitionManager
}

// New returns a Driver bound to ctl, publishing device nodes under
// "/dev/disk/" into registry. pool supplies cache-aligned scratch buffers
// for the partition-table read; a nil pool falls back to a private
// single-buffer pool sized for one block.
func New(name string, ctl Controller, registry *vfs.Registry, pool *hal.Pool) *Driver {
	if pool == nil {
		pool = hal.NewPool(BlockSize, nil)
	}

	d := &Driver{
		name:     name,
		ctl:      ctl,
		pool:     pool,
		sem:      sched.NewSemaphore(1),
		registry: registry,
		rawPath:  "/dev/disk/raw",
		ready:    make(chan struct{}),
	}
	d.cond = sched.NewCond(&d.mu)
	d.parts = vfs.NewPartitionManager(registry, "/dev/disk/")
	d.card.State = StateNoCard

	return d
}

// Card returns a snapshot of the current card state.
func (d *Driver) Card() Card {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.card
}

// Run drives the monitor thread described in spec §4.1.2: it loops on
// card-detect edges debounced by 100ms, (re)initializing on insertion and
// retiring device nodes on removal. It returns when ctx-like cancellation
// is requested via Stop.
func (d *Driver) Run(detect hal.IRQController, detectLine int) {
	wake := make(chan struct{}, 1)
	detect.Register(detectLine, func() {
		select {
		case wake <- struct{}{}:
		default:
		}
	})
	defer detect.Unregister(detectLine)

	for {
		d.mu.Lock()
		stop := d.stop
		d.mu.Unlock()
		if stop {
			return
		}

		present := d.ctl.CardDetected()
		d.mu.Lock()
		state := d.card.State
		d.mu.Unlock()

		switch {
		case present && (state == StateNoCard):
			time.Sleep(cardDetectDebounce)
			if !d.ctl.CardDetected() {
				continue
			}
			d.handleInsertion()
		case !present && state != StateNoCard:
			d.handleRemoval()
		case state == StateUnusable:
			time.Sleep(unusableRetryDelay)
		}

		select {
		case <-wake:
		case <-time.After(cardDetectDebounce):
		}
	}
}

// Stop requests the monitor thread to exit after its current iteration.
func (d *Driver) Stop() {
	d.mu.Lock()
	d.stop = true
	d.mu.Unlock()
}

func (d *Driver) handleInsertion() {
	d.mu.Lock()
	d.card.State = StateInitializing
	d.mu.Unlock()

	if err := d.initialize(); err != nil {
		log.Errorf("sdmmc", "%s: initialization failed: %v", d.name, err)
		d.mu.Lock()
		d.card.State = StateUnusable
		d.mu.Unlock()
		return
	}

	d.mu.Lock()
	d.card.State = StateReady
	d.mu.Unlock()

	d.registerRaw()
	if err := d.RereadPartitionTable(false); err != nil {
		log.Warnf("sdmmc", "%s: initial partition scan: %v", d.name, err)
	}

	select {
	case <-d.ready:
	default:
		close(d.ready)
	}
}

func (d *Driver) handleRemoval() {
	d.mu.Lock()
	d.card = Card{State: StateNoCard}
	d.mu.Unlock()

	d.registry.Remove(d.rawHandle)
	// An open partition with a positive open-count is retained by force=true
	// and simply dropped from the published namespace; callers holding it
	// continue to reference the Partition struct directly, per spec §3.1
	// invariant (c).
	_ = d.parts.Reconcile(nil, true, func(*vfs.Partition) vfs.Device { return nil })
}

// rawDevice adapts Driver to vfs.Device for the whole-medium node.
type rawDevice struct {
	d *Driver
}

func (r rawDevice) Open(int) error { return nil }
func (r rawDevice) Close() error   { return nil }

func (r rawDevice) Read(p []byte, offset int64) (int, error) {
	return r.d.readAt(p, offset)
}

func (r rawDevice) Write(p []byte, offset int64) (int, error) {
	return r.d.writeAt(p, offset)
}

func (r rawDevice) DeviceControl(req int, in, out []byte) error {
	return r.d.deviceControl(req, in, out)
}

func (d *Driver) registerRaw() {
	h, err := d.registry.Register(d.rawPath, rawDevice{d})
	if err != nil {
		log.Warnf("sdmmc", "%s: register raw device: %v", d.name, err)
		return
	}
	d.rawHandle = h
}
