package dispatch

import (
	"fmt"

	"github.com/danmuck/poslink/internal/observability"
	"github.com/danmuck/poslink/internal/protocol"
	"github.com/rs/zerolog/log"
)

type State int

const (
	Idle State = iota
	Decoding
	Dispatched
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Decoding:
		return "decoding"
	case Dispatched:
		return "dispatched"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Reporter receives non-fatal errors. Implementations must not block.
type Reporter interface {
	ReportError(msg string)
}

// Source is the inbound side of a link as seen by the dispatcher.
type Source interface {
	Read() (int, error)
	Inbound() *protocol.Queue
	ReadFailed(err error)
	ReadSucceeded()
}

// Dispatcher drains one link's inbound queue through a Table.
type Dispatcher struct {
	link     string
	table    *Table
	reporter Reporter
	state    State
}

func New(link string, table *Table, reporter Reporter) *Dispatcher {
	return &Dispatcher{link: link, table: table, reporter: reporter}
}

func (d *Dispatcher) State() State { return d.state }

func (d *Dispatcher) Table() *Table { return d.table }

// OnReadable reads from src and drains whatever complete frames arrived. A
// read of zero or fewer bytes counts as a failure and nothing is drained.
func (d *Dispatcher) OnReadable(src Source) int {
	n, err := src.Read()
	if n <= 0 {
		src.ReadFailed(err)
		return 0
	}
	src.ReadSucceeded()
	return d.Drain(src.Inbound())
}

// Drain dispatches every complete frame in q in arrival order and returns how
// many frames were consumed. An incomplete trailing frame is left in q.
func (d *Dispatcher) Drain(q *protocol.Queue) int {
	ch := d.table.channel
	count := 0
	defer func() { d.state = Idle }()
	for {
		op, n, ok := q.PeekFrame()
		if !ok {
			if q.Size() >= protocol.HeaderSize && protocol.HeaderSize+n > q.Cap() {
				d.report(fmt.Sprintf("%s frame %s declares %d bytes, queue holds %d; dropping buffered input",
					ch, ch.Name(op), n, q.Cap()))
				q.Clear()
			}
			return count
		}
		d.state = Decoding
		_, body, err := q.Frame()
		if err != nil {
			return count
		}
		count++

		name := ch.Name(op)
		q.SetCode(name, int(op))
		body.SetCode(name, int(op))
		msg := &Message{Link: d.link, Op: op, Body: body}

		entry, known := ch.Lookup(op)
		if !known {
			observability.RecordFrame(d.link, ch.String(), observability.ResultUnknown)
			if err := d.invoke(d.table.unknown, msg); err != nil {
				d.report(err.Error())
			}
			continue
		}
		msg.Entry = entry

		if err := ch.Validate(op, body); err != nil {
			observability.RecordFrame(d.link, ch.String(), observability.ResultRejected)
			d.report(err.Error())
			continue
		}

		h, ok := d.table.handlers[op]
		if !ok {
			observability.RecordFrame(d.link, ch.String(), observability.ResultIgnored)
			log.Debug().Str("link", d.link).Str("op", name).Msg("no handler")
			continue
		}

		d.state = Dispatched
		if err := d.invoke(h, msg); err != nil {
			d.report(fmt.Sprintf("%s: %v", name, err))
		} else if left := body.Size(); left > 0 {
			d.report(fmt.Sprintf("%s: handler left %d body bytes unread", name, left))
		}
	}
}

func (d *Dispatcher) invoke(h HandlerFunc, msg *Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			observability.RecordFrame(d.link, d.table.channel.String(), observability.ResultPanic)
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	err = h(msg)
	if err == nil && msg.Entry.Name != "" {
		observability.RecordFrame(d.link, d.table.channel.String(), observability.ResultHandled)
	}
	return err
}

func (d *Dispatcher) report(msg string) {
	log.Warn().Str("link", d.link).Msg(msg)
	if d.reporter != nil {
		d.reporter.ReportError(fmt.Sprintf("%s: %s", d.link, msg))
	}
}
