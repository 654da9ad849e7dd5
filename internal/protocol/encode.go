package protocol

import "fmt"

// Message is an opcode plus its ordered field values.
type Message struct {
	Op     Opcode
	Fields []Field
}

// NewMessage builds a message for op.
func NewMessage(op Opcode, fields ...Field) Message {
	return Message{Op: op, Fields: fields}
}

// Kinds returns the field shape of m.
func (m Message) Kinds() []Kind {
	out := make([]Kind, len(m.Fields))
	for i, f := range m.Fields {
		out[i] = f.Kind
	}
	return out
}

// Encode appends m to q as one frame. On failure the partial frame is rolled
// back and q is left as it was.
func Encode(q *Queue, m Message) error {
	if err := q.Begin(m.Op); err != nil {
		return err
	}
	for i, f := range m.Fields {
		if err := f.Put(q); err != nil {
			q.Abort()
			return fmt.Errorf("encode op=%d field=%d: %w", m.Op, i, err)
		}
	}
	return q.End()
}
