package wire

import (
	"context"
	"reflect"
	"testing"
	"time"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	msg := Encode(ViewFillRect, []byte{1, 2, 3, 4})

	out, err := DecodeAll(msg)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || out[0].Code != ViewFillRect || !reflect.DeepEqual(out[0].Body, []byte{1, 2, 3, 4}) {
		t.Fatalf("unexpected decode result: %+v", out)
	}
}

func TestBundleRoundTrip(t *testing.T) {
	var b Bundle
	b.Add(ViewSetFgColor, []byte{0xff, 0, 0})
	b.Add(ViewDrawLine2, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	b.Add(ViewFillRect, nil)

	out, err := DecodeAll(b.Bytes())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 sub-messages, got %d", len(out))
	}
	if out[0].Code != ViewSetFgColor || out[1].Code != ViewDrawLine2 || out[2].Code != ViewFillRect {
		t.Fatalf("unexpected codes: %+v", out)
	}
}

func TestDecodeRejectsTruncatedHeader(t *testing.T) {
	if _, err := DecodeAll([]byte{1, 2}); err == nil {
		t.Fatalf("expected error for truncated header")
	}
}

func TestDecodeRejectsOversizedLength(t *testing.T) {
	buf := Encode(ViewFillRect, []byte{1})
	buf[2] = 0xff // corrupt declared length beyond the actual buffer
	buf[3] = 0xff
	if _, err := DecodeAll(buf); err == nil {
		t.Fatalf("expected error for implausible length")
	}
}

func TestPortRequestReply(t *testing.T) {
	p := NewPort(4)
	ctx := context.Background()

	go func() {
		e, err := p.Receive(ctx)
		if err != nil {
			return
		}
		Reply(ctx, e, Encode(CreateViewReply, []byte{9}))
	}()

	reply, err := p.Request(ctx, Encode(CreateView, []byte{1}))
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	msgs, err := DecodeAll(reply)
	if err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Code != CreateViewReply {
		t.Fatalf("unexpected reply: %+v", msgs)
	}
}

func TestPortSendBlocksWhenFull(t *testing.T) {
	p := NewPort(1)
	ctx := context.Background()

	if err := p.Send(ctx, Envelope{Payload: []byte{1}}); err != nil {
		t.Fatalf("first send: %v", err)
	}

	ctx2, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()

	if err := p.Send(ctx2, Envelope{Payload: []byte{2}}); err == nil {
		t.Fatalf("expected second send on a full depth-1 port to time out")
	}
}
