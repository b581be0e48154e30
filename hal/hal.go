// PadOS
// https://github.com/kavionic/pados
//
// Copyright (c) The PadOS Authors.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package hal is the hardware-abstraction layer described in spec §2 item
// 1: digital pins, peripheral clock gating, interrupt registration, and
// cache-line-aligned buffer allocation. Every concrete SoC/board package
// wires its pins and buses through periph.io's conn/v3 interfaces
// (gpio.PinIO, i2c.Bus) so the driver layer above never imports a
// vendor-specific register package directly — the same separation
// periph-devices' sensor drivers rely on, just applied one layer down to
// PadOS's own HAL instead of to a hosted Linux gpiochip.
package hal

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// Pin is the HAL's digital-pin contract: a periph gpio.PinIO, which already
// covers Out/Read/In/WaitForEdge.
type Pin = gpio.PinIO

// Bus is the HAL's I²C bus contract. Concrete sensor drivers (BME280,
// INA3221) consume a Bus; they are named out-of-core collaborators and are
// not implemented here.
type Bus = i2c.Bus

// ClockGate enables or disables the peripheral clock feeding one SoC
// subsystem (the SDMMC controller, the display bus, an I²C controller).
// Board packages implement it over their own clock-control register
// (grounded on the teacher's imx6 CCM gate/ungate pattern).
type ClockGate interface {
	Enable(peripheral string, hz physic.Frequency) error
	Disable(peripheral string)
}

// IRQHandler is invoked on a registered interrupt. It runs in interrupt
// context conceptually; the simulated controller's Fire calls it directly
// on the caller's goroutine.
type IRQHandler func()

// IRQController registers and unregisters interrupt handlers by line
// number. A board package provides the concrete implementation (NVIC on a
// Cortex-M target); sdmmc's Driver.Run registers its card-detect handler
// through it.
type IRQController interface {
	Register(line int, h IRQHandler) error
	Unregister(line int)
}

// staticIRQ is a host-testable IRQController: Fire() simulates the line
// going active, for driver tests that exercise the card-detect edge path
// without real silicon.
type staticIRQ struct {
	mu       sync.Mutex
	handlers map[int]IRQHandler
}

// NewSimulatedIRQController returns an IRQController suitable for unit
// tests and for the hosted simulation build; a real board substitutes its
// own NVIC-backed controller at the same call sites.
func NewSimulatedIRQController() IRQController {
	return &staticIRQ{handlers: make(map[int]IRQHandler)}
}

func (s *staticIRQ) Register(line int, h IRQHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.handlers[line]; exists {
		return fmt.Errorf("hal: irq line %d already registered", line)
	}
	s.handlers[line] = h
	return nil
}

func (s *staticIRQ) Unregister(line int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handlers, line)
}

// Fire invokes the handler registered for line, if any. Test-only entry
// point, exported so sdmmc/compositor tests in other packages can simulate
// an edge without a real IRQController type assertion.
func Fire(c IRQController, line int) {
	if s, ok := c.(*staticIRQ); ok {
		s.mu.Lock()
		h := s.handlers[line]
		s.mu.Unlock()
		if h != nil {
			h()
		}
	}
}
