package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrDecodeUnderflow = errors.New("protocol: decode underflow")
	ErrBufferFull      = errors.New("protocol: buffer full")
	ErrStringTruncated = errors.New("protocol: string truncated")
	ErrFrameOpen       = errors.New("protocol: frame already open")
	ErrNoFrame         = errors.New("protocol: no open frame")
	ErrFrameTooLarge   = errors.New("protocol: frame body too large")
	ErrUnknownKind     = errors.New("protocol: unknown field kind")
	ErrKindMismatch    = errors.New("protocol: field kind mismatch")
)

// IOError is a fatal socket failure. It drives the owning link's failure
// counter and is never fatal to the process.
type IOError struct {
	Op  string
	FD  int
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("protocol: %s fd=%d: %v", e.Op, e.FD, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
