// Package dispatch decodes frames from a link's inbound queue and routes
// them to per-opcode handlers.
package dispatch

import (
	"fmt"

	"github.com/danmuck/poslink/internal/protocol"
	"github.com/danmuck/poslink/internal/protocol/catalog"
)

// Message is one validated inbound frame handed to a handler. Body is a
// cursor over the frame body and is only valid for the duration of the call.
type Message struct {
	Link  string
	Op    protocol.Opcode
	Entry catalog.Entry
	Body  *protocol.Queue
}

// Name returns the wire name of the opcode.
func (m *Message) Name() string {
	if m.Entry.Name == "" {
		return fmt.Sprintf("UNKNOWN(%d)", m.Op)
	}
	return m.Entry.Name
}

// Fields decodes the remaining body using the catalog shape.
func (m *Message) Fields() ([]protocol.Field, error) {
	return protocol.DecodeFields(m.Body, m.Entry.Fields)
}

type HandlerFunc func(*Message) error

// Table maps the opcodes of one channel to handlers. It is immutable once
// built.
type Table struct {
	channel  *catalog.Channel
	handlers map[protocol.Opcode]HandlerFunc
	unknown  HandlerFunc
}

// Builder collects handlers for a Table.
type Builder struct {
	channel  *catalog.Channel
	handlers map[protocol.Opcode]HandlerFunc
	unknown  HandlerFunc
	built    bool
}

func NewTable(ch *catalog.Channel) *Builder {
	return &Builder{channel: ch, handlers: make(map[protocol.Opcode]HandlerFunc)}
}

// Handle registers h for op. It panics if op is not part of the channel or
// already has a handler, so a bad table fails at startup.
func (b *Builder) Handle(op protocol.Opcode, h HandlerFunc) *Builder {
	if b.built {
		panic("dispatch: Handle after Build")
	}
	if _, ok := b.channel.Lookup(op); !ok {
		panic(fmt.Sprintf("dispatch: %s has no opcode %d", b.channel, op))
	}
	if _, dup := b.handlers[op]; dup {
		panic(fmt.Sprintf("dispatch: %s opcode %s registered twice", b.channel, b.channel.Name(op)))
	}
	if h == nil {
		panic("dispatch: nil handler")
	}
	b.handlers[op] = h
	return b
}

// Unknown sets the handler for opcodes the channel does not define.
func (b *Builder) Unknown(h HandlerFunc) *Builder {
	if b.built {
		panic("dispatch: Unknown after Build")
	}
	b.unknown = h
	return b
}

func (b *Builder) Build() *Table {
	b.built = true
	handlers := make(map[protocol.Opcode]HandlerFunc, len(b.handlers))
	for op, h := range b.handlers {
		handlers[op] = h
	}
	unknown := b.unknown
	if unknown == nil {
		unknown = RejectUnknown(b.channel)
	}
	return &Table{channel: b.channel, handlers: handlers, unknown: unknown}
}

// RejectUnknown is the default unknown-opcode handler.
func RejectUnknown(ch *catalog.Channel) HandlerFunc {
	return func(m *Message) error {
		return &catalog.UnknownOpcodeError{Channel: ch.String(), Op: m.Op}
	}
}

func (t *Table) Channel() *catalog.Channel { return t.channel }

// Handler returns the handler registered for op.
func (t *Table) Handler(op protocol.Opcode) (HandlerFunc, bool) {
	h, ok := t.handlers[op]
	return h, ok
}

// Len returns the number of registered handlers.
func (t *Table) Len() int { return len(t.handlers) }
