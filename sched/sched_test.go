package sched

import (
	"testing"
	"time"
)

func TestSemaphoreSerializes(t *testing.T) {
	s := NewSemaphore(1)
	s.Acquire()

	acquired := make(chan struct{})
	go func() {
		s.Acquire()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatalf("second acquire should have blocked")
	case <-time.After(20 * time.Millisecond):
	}

	s.Release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatalf("second acquire never unblocked after release")
	}
}

func TestCondSignal(t *testing.T) {
	var m Mutex
	c := NewCond(&m)

	ready := false
	woke := make(chan struct{})

	go func() {
		m.Lock()
		for !ready {
			c.Wait()
		}
		m.Unlock()
		close(woke)
	}()

	time.Sleep(10 * time.Millisecond)

	m.Lock()
	ready = true
	m.Unlock()
	c.Signal()

	select {
	case <-woke:
	case <-time.After(time.Second):
		t.Fatalf("waiter never woke")
	}
}

func TestThreadWait(t *testing.T) {
	ran := false
	th := Go("worker", func() { ran = true })
	th.Wait()
	if !ran {
		t.Fatalf("thread function did not run")
	}
}

func TestTimerRepeats(t *testing.T) {
	fires := make(chan struct{}, 8)
	tm := NewRepeatingTimer(5*time.Millisecond, 5*time.Millisecond, func() {
		fires <- struct{}{}
	})
	defer tm.Stop()

	for i := 0; i < 3; i++ {
		select {
		case <-fires:
		case <-time.After(time.Second):
			t.Fatalf("timer did not repeat, got %d fires", i)
		}
	}
}

func TestTimerStopPreventsFurtherFire(t *testing.T) {
	fires := make(chan struct{}, 8)
	tm := AfterFunc(5*time.Millisecond, func() { fires <- struct{}{} })
	tm.Stop()

	select {
	case <-fires:
		t.Fatalf("stopped timer still fired")
	case <-time.After(30 * time.Millisecond):
	}
}
