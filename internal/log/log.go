// PadOS
// https://github.com/kavionic/pados
//
// Copyright (c) The PadOS Authors.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package log is the leveled console logger shared by every PadOS
// subsystem, in the spirit of the teacher's package-level kprintf: a
// single global sink, no per-call allocation of a logger object, safe for
// concurrent use from the monitor thread, the compositor thread, and any
// number of application threads.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Level orders log severities, low to high.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "?"
	}
}

const (
	colorReset  = "\x1b[0m"
	colorYellow = "\x1b[33m"
	colorRed    = "\x1b[31;1m"
	colorDim    = "\x1b[90m"
)

// Logger writes leveled, category-tagged lines to a single console writer.
// The zero value is not usable; construct with New.
type Logger struct {
	mu       sync.Mutex
	out      io.Writer
	colorize bool
	min      Level
}

var console = New(os.Stderr)

// Default returns the process-wide console logger, the one every PadOS
// package logs through unless a board explicitly redirects it (for example
// to the UART console inode once the VFS is up).
func Default() *Logger { return console }

// SetOutput redirects the default logger, e.g. once the board has attached
// a UART console device, letting a generic driver defer to board-specific
// wiring.
func SetOutput(w io.Writer) { console.SetOutput(w) }

// New wraps w (typically a UART console writer, or os.Stderr on a hosted
// debug build) with ANSI colorization when the underlying stream looks
// like a real terminal.
func New(w io.Writer) *Logger {
	out := w
	colorize := false

	if f, ok := w.(*os.File); ok {
		colorize = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		out = colorable.NewColorable(f)
	}

	return &Logger{
		out:      out,
		colorize: colorize,
		min:      Info,
	}
}

// SetOutput replaces the logger's writer.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = w
}

// SetMinLevel suppresses any line below level.
func (l *Logger) SetMinLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.min = level
}

func (l *Logger) log(level Level, category string, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.min {
		return
	}

	tag := level.String()
	if l.colorize {
		switch level {
		case Warn:
			tag = colorYellow + tag + colorReset
		case Error:
			tag = colorRed + tag + colorReset
		default:
			tag = colorDim + tag + colorReset
		}
	}

	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(l.out, "%s [%s] %-5s %s: %s\n", time.Now().Format("15:04:05.000"), tag, level, category, msg)
}

func Debugf(category, format string, args ...any) { console.log(Debug, category, format, args...) }
func Infof(category, format string, args ...any)  { console.log(Info, category, format, args...) }
func Warnf(category, format string, args ...any)  { console.log(Warn, category, format, args...) }
func Errorf(category, format string, args ...any) { console.log(Error, category, format, args...) }
