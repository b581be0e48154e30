// PadOS
// https://github.com/kavionic/pados
//
// Copyright (c) The PadOS Authors.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package gui

import (
	"time"

	"github.com/kavionic/pados/compositor"
	"github.com/kavionic/pados/sched"
)

// Timing constants of spec §4.3.4, grounded on the original's
// System/Utils/EventTimer.cpp-driven key repeat and long press.
const (
	KeyRepeatDelay  = 300 * time.Millisecond
	KeyRepeatRepeat = 80 * time.Millisecond
	LongPressDelay  = 500 * time.Millisecond
	BeginDragOffset = 20.0 // pixels
)

// keyRepeater calls its callback once per repeat interval for one held
// key. The callback receives only the key code; no repeat qualifier bit
// is passed.
type keyRepeater struct {
	timer   *sched.Timer
	keyCode int
}

// BeginKeyRepeat starts (or restarts) the repeat timer for keyCode: after
// KeyRepeatDelay, onRepeat fires every KeyRepeatRepeat until EndKeyRepeat
// is called for the same key.
func (v *View) BeginKeyRepeat(keyCode int, onRepeat func(keyCode int)) {
	v.stopKeyRepeat()
	v.keyRepeat = &keyRepeater{
		keyCode: keyCode,
		timer:   sched.NewRepeatingTimer(KeyRepeatDelay, KeyRepeatRepeat, func() { onRepeat(keyCode) }),
	}
}

// EndKeyRepeat stops the repeat timer if it is running for keyCode.
func (v *View) EndKeyRepeat(keyCode int) {
	if v.keyRepeat != nil && v.keyRepeat.keyCode == keyCode {
		v.stopKeyRepeat()
	}
}

func (v *View) stopKeyRepeat() {
	if v.keyRepeat != nil {
		v.keyRepeat.timer.Stop()
		v.keyRepeat = nil
	}
}

// longPressTracker watches one held touch for LongPressDelay without
// moving past BeginDragOffset, per spec §4.3.4.
type longPressTracker struct {
	timer  *sched.Timer
	origin compositor.Point
}

// BeginLongPressWatch arms the long-press timer for a touch that just went
// down at pos. Call UpdateLongPressWatch on every subsequent move and
// CancelLongPressWatch on release.
func (v *View) BeginLongPressWatch(pos compositor.Point) {
	v.cancelLongPressWatch()
	v.longPress = &longPressTracker{origin: pos}
	v.longPress.timer = sched.AfterFunc(LongPressDelay, func() {
		if v.OnLongPressFn != nil {
			v.OnLongPressFn(v, v.longPress.origin)
		}
	})
}

// UpdateLongPressWatch cancels the pending long-press if pos has moved
// more than BeginDragOffset from where the touch began — the touch has
// become a drag rather than a long press.
func (v *View) UpdateLongPressWatch(pos compositor.Point) {
	if v.longPress == nil {
		return
	}
	dx := pos.X - v.longPress.origin.X
	dy := pos.Y - v.longPress.origin.Y
	if dx*dx+dy*dy > BeginDragOffset*BeginDragOffset {
		v.cancelLongPressWatch()
	}
}

// CancelLongPressWatch stops the timer, e.g. on touch-up.
func (v *View) CancelLongPressWatch() { v.cancelLongPressWatch() }

func (v *View) cancelLongPressWatch() {
	if v.longPress != nil {
		v.longPress.timer.Stop()
		v.longPress = nil
	}
}
