package protocol

import (
	"fmt"
	"io"
	"math"

	"golang.org/x/sys/unix"
)

// Queue is a fixed-capacity byte buffer with typed put/get operations.
//
// Invariant: 0 <= read <= write <= len(buf). Writes that would pass the end
// of the buffer are rejected and leave existing content untouched. A Queue is
// owned by exactly one link and is not safe for concurrent use.
type Queue struct {
	buf   []byte
	read  int
	write int
	frame int // start of the frame under construction, -1 when none

	name string
	code int
}

// NewQueue allocates a queue of the given capacity. Non-positive capacities
// select DefaultCapacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{buf: make([]byte, capacity), frame: -1, code: -1}
}

// Cap returns the fixed capacity.
func (q *Queue) Cap() int { return len(q.buf) }

// Size returns the number of buffered, unread bytes.
func (q *Queue) Size() int { return q.write - q.read }

// Free returns how many more bytes can be written, counting space that a
// compaction would reclaim.
func (q *Queue) Free() int { return len(q.buf) - q.Size() }

// Clear resets the cursors without releasing the backing array.
func (q *Queue) Clear() {
	q.read = 0
	q.write = 0
	q.frame = -1
}

// SetCode tags the queue with the opcode currently being decoded. The tag is
// only used in error messages.
func (q *Queue) SetCode(name string, code int) {
	q.name = name
	q.code = code
}

// Code returns the diagnostic tag set by SetCode.
func (q *Queue) Code() (string, int) { return q.name, q.code }

func (q *Queue) label() string {
	if q.name == "" {
		return "queue"
	}
	return fmt.Sprintf("%s(%d)", q.name, q.code)
}

// compact moves unread bytes to the front of the buffer.
func (q *Queue) compact() {
	if q.read == 0 {
		return
	}
	n := copy(q.buf, q.buf[q.read:q.write])
	if q.frame >= 0 {
		q.frame -= q.read
	}
	q.read = 0
	q.write = n
}

func (q *Queue) reserve(n int) ([]byte, error) {
	if q.write+n > len(q.buf) {
		q.compact()
	}
	if q.write+n > len(q.buf) {
		return nil, fmt.Errorf("%w: %s needs %d bytes, %d free", ErrBufferFull, q.label(), n, len(q.buf)-q.write)
	}
	b := q.buf[q.write : q.write+n]
	q.write += n
	return b, nil
}

func (q *Queue) need(n int, what string) error {
	if q.Size() < n {
		return fmt.Errorf("%w: %s %s needs %d bytes, %d buffered", ErrDecodeUnderflow, q.label(), what, n, q.Size())
	}
	return nil
}

func (q *Queue) Put8(v uint8) error {
	b, err := q.reserve(1)
	if err != nil {
		return err
	}
	b[0] = v
	return nil
}

func (q *Queue) Put16(v uint16) error {
	b, err := q.reserve(2)
	if err != nil {
		return err
	}
	order.PutUint16(b, v)
	return nil
}

func (q *Queue) Put32(v uint32) error {
	b, err := q.reserve(4)
	if err != nil {
		return err
	}
	order.PutUint32(b, v)
	return nil
}

// PutLong appends a signed 4-byte integer.
func (q *Queue) PutLong(v int32) error {
	return q.Put32(uint32(v))
}

// PutLLong appends a signed 8-byte integer.
func (q *Queue) PutLLong(v int64) error {
	b, err := q.reserve(8)
	if err != nil {
		return err
	}
	order.PutUint64(b, uint64(v))
	return nil
}

// PutFixed appends f as a 4-byte integer equal to round(f * 100).
func (q *Queue) PutFixed(f float64) error {
	return q.PutLong(int32(math.Round(f * 100)))
}

// PutString appends a 2-byte length followed by the raw bytes of s. A zero n
// sends all of s; a smaller n sends a prefix and a larger n pads with zeros.
func (q *Queue) PutString(s string, n int) error {
	if n <= 0 {
		n = len(s)
	}
	if n > MaxBody {
		return fmt.Errorf("%w: %s string length %d", ErrFrameTooLarge, q.label(), n)
	}
	b, err := q.reserve(2 + n)
	if err != nil {
		return err
	}
	order.PutUint16(b, uint16(n))
	c := copy(b[2:], s)
	clear(b[2+c:])
	return nil
}

// PutBytes appends raw bytes with no length prefix.
func (q *Queue) PutBytes(p []byte) error {
	b, err := q.reserve(len(p))
	if err != nil {
		return err
	}
	copy(b, p)
	return nil
}

func (q *Queue) Get8() (uint8, error) {
	if err := q.need(1, "get8"); err != nil {
		return 0, err
	}
	v := q.buf[q.read]
	q.read++
	return v, nil
}

func (q *Queue) Get16() (uint16, error) {
	if err := q.need(2, "get16"); err != nil {
		return 0, err
	}
	v := order.Uint16(q.buf[q.read:])
	q.read += 2
	return v, nil
}

func (q *Queue) Get32() (uint32, error) {
	if err := q.need(4, "get32"); err != nil {
		return 0, err
	}
	v := order.Uint32(q.buf[q.read:])
	q.read += 4
	return v, nil
}

// GetLong decodes a signed 4-byte integer.
func (q *Queue) GetLong() (int32, error) {
	v, err := q.Get32()
	return int32(v), err
}

// GetLLong decodes a signed 8-byte integer.
func (q *Queue) GetLLong() (int64, error) {
	if err := q.need(8, "getllong"); err != nil {
		return 0, err
	}
	v := order.Uint64(q.buf[q.read:])
	q.read += 8
	return int64(v), nil
}

// GetFixed decodes a value written by PutFixed.
func (q *Queue) GetFixed() (float64, error) {
	v, err := q.GetLong()
	if err != nil {
		return 0, err
	}
	return float64(v) / 100, nil
}

// GetString decodes a length-prefixed string. When the declared length is
// larger than limit the whole declared length is consumed, the first limit
// bytes are returned and the error wraps ErrStringTruncated. A non-positive
// limit accepts any length.
func (q *Queue) GetString(limit int) (string, error) {
	if err := q.need(2, "getstring"); err != nil {
		return "", err
	}
	n := int(order.Uint16(q.buf[q.read:]))
	if err := q.need(2+n, "getstring"); err != nil {
		return "", err
	}
	start := q.read + 2
	q.read = start + n
	if limit > 0 && n > limit {
		return string(q.buf[start : start+limit]), fmt.Errorf("%w: %s declared %d, limit %d", ErrStringTruncated, q.label(), n, limit)
	}
	return string(q.buf[start : start+n]), nil
}

// Skip discards n buffered bytes.
func (q *Queue) Skip(n int) error {
	if err := q.need(n, "skip"); err != nil {
		return err
	}
	q.read += n
	return nil
}

// Bytes returns a copy of the unread bytes.
func (q *Queue) Bytes() []byte {
	out := make([]byte, q.Size())
	copy(out, q.buf[q.read:q.write])
	return out
}

// flushable is the end of the bytes that may go on the wire; an unfinished
// frame is held back.
func (q *Queue) flushable() int {
	if q.frame >= 0 {
		return q.frame
	}
	return q.write
}

// Write flushes buffered bytes to fd. Partial writes are retried until the
// queue is empty or the socket would block. The queue is cleared only once
// everything has been written.
func (q *Queue) Write(fd int) (int, error) {
	total := 0
	for q.read < q.flushable() {
		n, err := unix.Write(fd, q.buf[q.read:q.flushable()])
		if n > 0 {
			q.read += n
			total += n
		}
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				break
			}
			return total, &IOError{Op: "write", FD: fd, Err: err}
		}
		if n == 0 {
			break
		}
	}
	if q.read == q.write {
		q.Clear()
	} else {
		q.compact()
	}
	return total, nil
}

// Read appends whatever fd has available to the tail of the queue. It
// returns (0, nil) when no data is ready, (0, io.EOF) when the peer has hung
// up and (-1, *IOError) on socket failure.
func (q *Queue) Read(fd int) (int, error) {
	q.compact()
	if q.write == len(q.buf) {
		return 0, fmt.Errorf("%w: %s cannot read, %d bytes pending", ErrBufferFull, q.label(), q.Size())
	}
	for {
		n, err := unix.Read(fd, q.buf[q.write:])
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				return 0, nil
			}
			return -1, &IOError{Op: "read", FD: fd, Err: err}
		}
		if n == 0 {
			return 0, io.EOF
		}
		q.write += n
		return n, nil
	}
}
