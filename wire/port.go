// PadOS
// https://github.com/kavionic/pados
//
// Copyright (c) The PadOS Authors.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package wire

import (
	"context"

	"github.com/kavionic/pados/internal/perr"
)

// Envelope is one delivery on a Port: a raw wire payload (a single
// message or a bundle's concatenated payload) plus an optional ReplyTo
// port for request/reply codes (RegisterApplication, CreateView, Sync).
// One-way codes (DeleteView, ViewInvalidate, MessageBundle's own
// sub-messages) leave ReplyTo nil.
type Envelope struct {
	Payload []byte
	ReplyTo *Port
}

// Port is a reliable, ordered, in-process mailbox: the transport spec §5
// calls a "FIFO port" — "within one application, the order of commands
// against one view is preserved end-to-end (FIFO port)". Each endpoint is
// a single goroutine's inbox; fan-in from many application threads to the
// compositor's single Port is what gives the compositor its "processes
// bundles in arrival order" guarantee.
type Port struct {
	ch chan Envelope
}

// NewPort returns a Port with the given mailbox depth. A depth of 0 makes
// Send synchronous with the receiver, matching a port with no backlog.
func NewPort(depth int) *Port {
	return &Port{ch: make(chan Envelope, depth)}
}

// Send enqueues an envelope, blocking if the mailbox is full. This is the
// "blocks on the port send" backpressure spec §4.3.1 and §9 describe for
// a bundle flush against a full send buffer.
func (p *Port) Send(ctx context.Context, e Envelope) error {
	select {
	case p.ch <- e:
		return nil
	case <-ctx.Done():
		return perr.Wrap("wire.Port.Send", perr.IOError, ctx.Err())
	}
}

// Receive blocks for the next envelope.
func (p *Port) Receive(ctx context.Context) (Envelope, error) {
	select {
	case e := <-p.ch:
		return e, nil
	case <-ctx.Done():
		return Envelope{}, perr.Wrap("wire.Port.Receive", perr.IOError, ctx.Err())
	}
}

// TryReceive returns the next envelope without blocking, or ok=false if
// the mailbox is currently empty.
func (p *Port) TryReceive() (e Envelope, ok bool) {
	select {
	case e = <-p.ch:
		return e, true
	default:
		return Envelope{}, false
	}
}

// Request sends payload and blocks for the single reply on a fresh,
// depth-1 reply port, implementing the request/reply codes of spec §6.2
// (RegisterApplication, CreateView, Sync) on top of the one-way Send.
func (p *Port) Request(ctx context.Context, payload []byte) ([]byte, error) {
	reply := NewPort(1)
	if err := p.Send(ctx, Envelope{Payload: payload, ReplyTo: reply}); err != nil {
		return nil, err
	}
	e, err := reply.Receive(ctx)
	if err != nil {
		return nil, err
	}
	return e.Payload, nil
}

// Reply answers a request previously received via Receive/TryReceive,
// if it carried a ReplyTo port.
func Reply(ctx context.Context, e Envelope, payload []byte) error {
	if e.ReplyTo == nil {
		return nil
	}
	return e.ReplyTo.Send(ctx, Envelope{Payload: payload})
}
