// PadOS
// https://github.com/kavionic/pados
//
// Copyright (c) The PadOS Authors.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package sched

import (
	"sync"
	"time"
)

// Timer fires a callback once after a delay and, if Period is non-zero,
// again every Period thereafter until stopped. gui's key-repeat
// (KEYREPEAT_DELAY then KEYREPEAT_REPEAT) and long-press (LONG_PRESS_DELAY,
// one-shot) timers are both this same primitive with different Period
// values, per spec §4.3.4.
type Timer struct {
	mu      sync.Mutex
	timer   *time.Timer
	period  time.Duration
	fn      func()
	stopped bool
}

// AfterFunc starts a one-shot timer that calls fn after delay.
func AfterFunc(delay time.Duration, fn func()) *Timer {
	return newRepeating(delay, 0, fn)
}

// NewRepeatingTimer starts a timer that calls fn once after delay, then
// again every period until Stop is called. period <= 0 makes it one-shot.
func NewRepeatingTimer(delay, period time.Duration, fn func()) *Timer {
	return newRepeating(delay, period, fn)
}

func newRepeating(delay, period time.Duration, fn func()) *Timer {
	t := &Timer{period: period, fn: fn}
	t.timer = time.AfterFunc(delay, t.fire)
	return t
}

func (t *Timer) fire() {
	t.mu.Lock()
	stopped := t.stopped
	period := t.period
	fn := t.fn
	t.mu.Unlock()

	if stopped {
		return
	}

	fn()

	if period > 0 {
		t.mu.Lock()
		if !t.stopped {
			t.timer = time.AfterFunc(period, t.fire)
		}
		t.mu.Unlock()
	}
}

// Stop cancels the timer. It is safe to call more than once.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
	}
}

// Reset stops any pending fire and restarts the one-shot delay, keeping
// the configured repeat period.
func (t *Timer) Reset(delay time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = false
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(delay, t.fire)
}
