// Package catalog holds the opcode tables shared by the host and its peers.
// Each channel maps an opcode to a wire name and the ordered field kinds of
// its body. Channels are built once at init and never modified.
package catalog

import (
	"errors"
	"fmt"
	"sort"

	"github.com/danmuck/poslink/internal/protocol"
)

var (
	ErrUnknownOpcode = errors.New("catalog: unknown opcode")
	ErrShapeMismatch = errors.New("catalog: body does not match opcode shape")
)

const (
	u8    = protocol.KindU8
	u16   = protocol.KindU16
	u32   = protocol.KindU32
	long  = protocol.KindLong
	llong = protocol.KindLLong
	str   = protocol.KindString
	fixed = protocol.KindFixed
)

// Entry describes one opcode.
type Entry struct {
	Op     protocol.Opcode
	Name   string
	Fields []protocol.Kind
}

// MinBody is the smallest body that can satisfy the entry's shape.
func (e Entry) MinBody() int {
	n := 0
	for _, k := range e.Fields {
		if w := k.Width(); w > 0 {
			n += w
		} else {
			n += 2
		}
	}
	return n
}

func entry(op protocol.Opcode, name string, fields ...protocol.Kind) Entry {
	return Entry{Op: op, Name: name, Fields: fields}
}

// Channel is an immutable opcode table for one direction of one peer type.
type Channel struct {
	name    string
	entries map[protocol.Opcode]Entry
}

func newChannel(name string, entries ...Entry) *Channel {
	c := &Channel{name: name, entries: make(map[protocol.Opcode]Entry, len(entries))}
	for _, e := range entries {
		if _, dup := c.entries[e.Op]; dup {
			panic(fmt.Sprintf("catalog: %s: duplicate opcode %d", name, e.Op))
		}
		c.entries[e.Op] = e
	}
	return c
}

func (c *Channel) String() string { return c.name }

// Len returns the number of opcodes in the channel.
func (c *Channel) Len() int { return len(c.entries) }

// Lookup returns the entry for op.
func (c *Channel) Lookup(op protocol.Opcode) (Entry, bool) {
	e, ok := c.entries[op]
	return e, ok
}

// Name returns the wire name of op, or UNKNOWN(op) if the channel has no such
// opcode.
func (c *Channel) Name(op protocol.Opcode) string {
	if e, ok := c.entries[op]; ok {
		return e.Name
	}
	return fmt.Sprintf("UNKNOWN(%d)", op)
}

// Entries returns all entries ordered by opcode.
func (c *Channel) Entries() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Op < out[j].Op })
	return out
}

// Validate walks the shape of op over body without consuming it. The body
// must decode exactly: short bodies and trailing bytes both fail with
// ErrShapeMismatch.
func (c *Channel) Validate(op protocol.Opcode, body *protocol.Queue) error {
	e, ok := c.entries[op]
	if !ok {
		return &UnknownOpcodeError{Channel: c.name, Op: op}
	}
	if _, err := protocol.DecodeFields(body.View(), e.Fields); err != nil {
		return fmt.Errorf("%w: %s(%d): %v", ErrShapeMismatch, e.Name, op, err)
	}
	return nil
}

// Decode validates body against op and returns its fields. body is consumed.
func (c *Channel) Decode(op protocol.Opcode, body *protocol.Queue) ([]protocol.Field, error) {
	e, ok := c.entries[op]
	if !ok {
		return nil, &UnknownOpcodeError{Channel: c.name, Op: op}
	}
	fields, err := protocol.DecodeFields(body, e.Fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %s(%d): %v", ErrShapeMismatch, e.Name, op, err)
	}
	return fields, nil
}

// UnknownOpcodeError reports an opcode that is not in the channel.
type UnknownOpcodeError struct {
	Channel string
	Op      protocol.Opcode
}

func (e *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("catalog: %s: unknown opcode %d", e.Channel, e.Op)
}

func (e *UnknownOpcodeError) Unwrap() error { return ErrUnknownOpcode }
