package protocol

import "fmt"

// Begin starts a frame for op. Fields put after Begin form the frame body
// until End patches the body length into the header.
func (q *Queue) Begin(op Opcode) error {
	if q.frame >= 0 {
		return ErrFrameOpen
	}
	b, err := q.reserve(HeaderSize)
	if err != nil {
		return err
	}
	b[0] = byte(op)
	b[1], b[2] = 0, 0
	q.frame = q.write - HeaderSize
	return nil
}

// End closes the open frame. A body longer than MaxBody rolls the frame back.
func (q *Queue) End() error {
	if q.frame < 0 {
		return ErrNoFrame
	}
	n := q.write - q.frame - HeaderSize
	if n > MaxBody {
		q.Abort()
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, n)
	}
	order.PutUint16(q.buf[q.frame+1:], uint16(n))
	q.frame = -1
	return nil
}

// Abort discards the open frame, restoring the queue to its state before
// Begin.
func (q *Queue) Abort() {
	if q.frame < 0 {
		return
	}
	q.write = q.frame
	q.frame = -1
}

// PeekFrame reports the header of the next frame without consuming it. ok is
// false until the whole frame, body included, is buffered.
func (q *Queue) PeekFrame() (op Opcode, bodyLen int, ok bool) {
	if q.Size() < HeaderSize {
		return 0, 0, false
	}
	op = Opcode(q.buf[q.read])
	bodyLen = int(order.Uint16(q.buf[q.read+1:]))
	return op, bodyLen, q.Size() >= HeaderSize+bodyLen
}

// Frame consumes one complete frame and returns its opcode and a cursor over
// the body. The cursor shares the queue's memory and is only valid until the
// queue is next written or read into.
func (q *Queue) Frame() (Opcode, *Queue, error) {
	op, n, ok := q.PeekFrame()
	if !ok {
		return 0, nil, fmt.Errorf("%w: %s incomplete frame, %d bytes buffered", ErrDecodeUnderflow, q.label(), q.Size())
	}
	start := q.read + HeaderSize
	body := &Queue{
		buf:   q.buf[start : start+n : start+n],
		write: n,
		frame: -1,
		code:  -1,
	}
	q.read = start + n
	return op, body, nil
}

// View returns an independent cursor over the unread bytes of q. Reads from
// the view do not advance q.
func (q *Queue) View() *Queue {
	return &Queue{
		buf:   q.buf[q.read:q.write:q.write],
		write: q.write - q.read,
		frame: -1,
		name:  q.name,
		code:  q.code,
	}
}
