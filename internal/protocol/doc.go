// Package protocol owns the peer wire contract and its codec primitives.
//
// Ownership boundary:
// - bounded typed byte queue (put/get, socket read/write)
// - message framing: [opcode u8][body length u16][body]
// - field kinds and message encode/decode helpers
//
// Integers are written in host byte order. Peers are always local or on a
// trusted LAN, so no byte-order negotiation takes place.
package protocol
