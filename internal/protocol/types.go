package protocol

import "encoding/binary"

// HeaderSize is opcode (1) + body length (2).
const HeaderSize = 3

// MaxBody is the largest body a single frame can declare.
const MaxBody = 0xFFFF

// DefaultCapacity holds at least one maximum-size frame with room to spare.
const DefaultCapacity = 2 * (HeaderSize + MaxBody)

var order = binary.NativeEndian

// Opcode identifies a message type within one channel.
type Opcode uint8

// Kind is the wire shape of one field.
type Kind uint8

const (
	KindU8 Kind = iota + 1
	KindU16
	KindU32
	KindLong
	KindLLong
	KindString
	KindFixed
)

func (k Kind) String() string {
	switch k {
	case KindU8:
		return "u8"
	case KindU16:
		return "u16"
	case KindU32:
		return "u32"
	case KindLong:
		return "long"
	case KindLLong:
		return "llong"
	case KindString:
		return "string"
	case KindFixed:
		return "fixed"
	default:
		return "unknown"
	}
}

// Width returns the fixed encoded size of k, or 0 for variable-size kinds.
func (k Kind) Width() int {
	switch k {
	case KindU8:
		return 1
	case KindU16:
		return 2
	case KindU32, KindLong, KindFixed:
		return 4
	case KindLLong:
		return 8
	default:
		return 0
	}
}
