// PadOS
// https://github.com/kavionic/pados
//
// Copyright (c) The PadOS Authors.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package wire is the client-compositor transport of spec §6.2: every
// message is framed with a 4-byte little-endian header, a 16-bit code and
// a 16-bit length including the header, and a MessageBundle concatenates
// a run of sub-messages under one envelope. Port is a reliable,
// ordered, in-process mailbox standing in for the source's message-port
// IPC primitive — both ends of the system run as goroutines in this
// module, so the "port" is a buffered channel rather than a kernel IPC
// object, but the framing and ordering contract it exposes is identical.
package wire

import (
	"encoding/binary"

	"github.com/kavionic/pados/internal/perr"
)

// Code identifies a message type. Values are assigned in the groups spec
// §6.2 lists (session, view state, drawing, input); see codes.go.
type Code uint16

// HeaderSize is the framing overhead of every message: a 16-bit code and
// a 16-bit length, little-endian, length included.
const HeaderSize = 4

// Encode returns a single framed message: header followed by body.
func Encode(code Code, body []byte) []byte {
	buf := make([]byte, HeaderSize+len(body))
	binary.LittleEndian.PutUint16(buf[0:2], uint16(code))
	binary.LittleEndian.PutUint16(buf[2:4], uint16(HeaderSize+len(body)))
	copy(buf[HeaderSize:], body)
	return buf
}

// Message is one decoded frame: its code and body (header stripped).
type Message struct {
	Code Code
	Body []byte
}

// DecodeAll splits a byte stream — a single message or a MessageBundle's
// concatenated payload — into its framed messages. It fails InvalidArg on
// a truncated header, an implausible length (< HeaderSize), or a body
// shorter than the frame declares, the same malformed-message handling
// spec §7 assigns to the compositor: "malformed messages are logged and
// dropped."
func DecodeAll(buf []byte) ([]Message, error) {
	var out []Message

	for len(buf) > 0 {
		if len(buf) < HeaderSize {
			return nil, perr.New("wire.DecodeAll", perr.InvalidArg, "truncated message header")
		}

		code := Code(binary.LittleEndian.Uint16(buf[0:2]))
		length := int(binary.LittleEndian.Uint16(buf[2:4]))

		if length < HeaderSize || length > len(buf) {
			return nil, perr.New("wire.DecodeAll", perr.InvalidArg, "invalid message length")
		}

		out = append(out, Message{Code: code, Body: buf[HeaderSize:length]})
		buf = buf[length:]
	}

	return out, nil
}

// Bundle accumulates framed sub-messages for a single flush, the send
// buffer of spec §4.3.1 and §9 ("batched command transport"). It is not
// itself concurrency-safe; callers serialize access the same way the
// source serializes a view's drawing calls under the application thread's
// own mutex.
type Bundle struct {
	buf []byte
}

// Add appends a framed sub-message to the bundle.
func (b *Bundle) Add(code Code, body []byte) {
	b.buf = append(b.buf, Encode(code, body)...)
}

// Len reports the bundle's current encoded size, for overflow checks
// against a caller's buffer limit.
func (b *Bundle) Len() int { return len(b.buf) }

// Empty reports whether the bundle has no pending sub-messages.
func (b *Bundle) Empty() bool { return len(b.buf) == 0 }

// Bytes returns the bundle's concatenated wire payload.
func (b *Bundle) Bytes() []byte { return b.buf }

// Reset clears the bundle for reuse after a flush.
func (b *Bundle) Reset() { b.buf = b.buf[:0] }
