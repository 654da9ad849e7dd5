package catalog

import (
	"errors"
	"testing"

	"github.com/danmuck/poslink/internal/protocol"
)

func TestChannelSizes(t *testing.T) {
	cases := []struct {
		ch   *Channel
		want int
	}{
		{Terminal, 90},
		{Input, 29},
		{Printer, 4},
		{PrinterAck, 3},
	}
	for _, tc := range cases {
		if tc.ch.Len() != tc.want {
			t.Fatalf("%s has %d opcodes, want %d", tc.ch, tc.ch.Len(), tc.want)
		}
		entries := tc.ch.Entries()
		for i, e := range entries {
			if int(e.Op) != i+1 {
				t.Fatalf("%s opcodes not dense at %d: got %d", tc.ch, i+1, e.Op)
			}
		}
	}
}

func TestLookupAndName(t *testing.T) {
	e, ok := Terminal.Lookup(TermDie)
	if !ok || e.Name != "TERM_DIE" {
		t.Fatalf("lookup TermDie = %+v, %v", e, ok)
	}
	if got := Input.Name(ServerTouch); got != "SERVER_TOUCH" {
		t.Fatalf("name = %q", got)
	}
	if got := Printer.Name(200); got != "UNKNOWN(200)" {
		t.Fatalf("unknown name = %q", got)
	}
	if _, ok := PrinterAck.Lookup(0); ok {
		t.Fatalf("opcode 0 must not exist")
	}
}

func TestValidateAcceptsExactBody(t *testing.T) {
	q := protocol.NewQueue(64)
	msg := protocol.NewMessage(ServerCCProcessed,
		protocol.U32(1001), protocol.U8(1), protocol.Fixed(25.5), protocol.LLong(77), protocol.Str("A1B2"))
	if err := protocol.Encode(q, msg); err != nil {
		t.Fatalf("encode: %v", err)
	}
	op, body, err := q.Frame()
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	if err := Input.Validate(op, body); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if body.Size() == 0 {
		t.Fatalf("validate consumed the body")
	}
	fields, err := Input.Decode(op, body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if fields[2].Num != 25.5 || fields[4].Str != "A1B2" {
		t.Fatalf("fields = %+v", fields)
	}
}

func TestValidateRejectsShortAndLongBodies(t *testing.T) {
	short := protocol.NewQueue(16)
	_ = protocol.Encode(short, protocol.NewMessage(ServerTouch, protocol.U16(10)))
	op, body, _ := short.Frame()
	if err := Input.Validate(op, body); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("short body: expected ErrShapeMismatch, got %v", err)
	}

	extra := protocol.NewQueue(16)
	_ = protocol.Encode(extra, protocol.NewMessage(ServerTouch, protocol.U16(10), protocol.U16(20), protocol.U8(1)))
	op, body, _ = extra.Frame()
	if err := Input.Validate(op, body); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("long body: expected ErrShapeMismatch, got %v", err)
	}
}

func TestValidateUnknownOpcode(t *testing.T) {
	q := protocol.NewQueue(8)
	_ = protocol.Encode(q, protocol.NewMessage(99))
	op, body, _ := q.Frame()
	err := Printer.Validate(op, body)
	if !errors.Is(err, ErrUnknownOpcode) {
		t.Fatalf("expected ErrUnknownOpcode, got %v", err)
	}
	var uerr *UnknownOpcodeError
	if !errors.As(err, &uerr) || uerr.Op != 99 || uerr.Channel != "printer" {
		t.Fatalf("unexpected error detail %v", err)
	}
}

func TestMinBody(t *testing.T) {
	e, _ := Terminal.Lookup(TermTextL)
	if got := e.MinBody(); got != 2+2+2+1+1+2 {
		t.Fatalf("min body = %d", got)
	}
}
