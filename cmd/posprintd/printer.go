package main

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/danmuck/poslink/internal/protocol"
	"github.com/danmuck/poslink/internal/protocol/catalog"
	"github.com/rs/zerolog"
)

var errDie = errors.New("posprintd: die requested")

// printer owns one connection to a network receipt printer. Jobs run one at
// a time on the daemon's read loop.
type printer struct {
	addr    string
	model   string
	timeout time.Duration
	logger  zerolog.Logger
}

func newPrinter(host string, port int, model string, logger zerolog.Logger) *printer {
	return &printer{
		addr:    net.JoinHostPort(host, strconv.Itoa(port)),
		model:   strings.ToLower(model),
		timeout: 5 * time.Second,
		logger:  logger,
	}
}

func (p *printer) dial() (net.Conn, error) {
	conn, err := net.DialTimeout("tcp", p.addr, p.timeout)
	if err != nil {
		return nil, err
	}
	_ = conn.SetDeadline(time.Now().Add(p.timeout))
	return conn, nil
}

// drawerKick returns the pulse sequence that opens drawer n.
func (p *printer) drawerKick(n uint8) []byte {
	if p.model == "star" {
		if n == 0 {
			return []byte{0x07}
		}
		return []byte{0x1a}
	}
	return []byte{0x1b, 'p', n & 1, 25, 250}
}

// handle runs one request and returns the ack to send back, if any.
func (p *printer) handle(op protocol.Opcode, body *protocol.Queue) (protocol.Message, bool, error) {
	fields, err := catalog.Printer.Decode(op, body)
	if err != nil {
		p.logger.Warn().Err(err).Int("op", int(op)).Msg("bad request")
		return protocol.NewMessage(catalog.PrinterError, protocol.Str(err.Error())), true, nil
	}
	switch op {
	case catalog.PrinterFile:
		return p.printFile(fields[0].Str), true, nil
	case catalog.PrinterOpenDrawer:
		if err := p.write(p.drawerKick(uint8(fields[0].Uint))); err != nil {
			return protocol.NewMessage(catalog.PrinterError, protocol.Str("drawer: "+err.Error())), true, nil
		}
		p.logger.Info().Uint64("drawer", fields[0].Uint).Msg("drawer opened")
		return protocol.Message{}, false, nil
	case catalog.PrinterCancel:
		p.logger.Debug().Msg("cancel with no job in flight")
		return protocol.Message{}, false, nil
	case catalog.PrinterDie:
		return protocol.Message{}, false, errDie
	}
	return protocol.Message{}, false, nil
}

func (p *printer) printFile(path string) protocol.Message {
	f, err := os.Open(path)
	if err != nil {
		p.logger.Warn().Err(err).Str("file", path).Msg("spool file unreadable")
		return protocol.NewMessage(catalog.PrinterBadFile, protocol.Str(path))
	}
	defer f.Close()

	conn, err := p.dial()
	if err != nil {
		return protocol.NewMessage(catalog.PrinterError, protocol.Str(fmt.Sprintf("printer %s: %v", p.addr, err)))
	}
	defer conn.Close()
	n, err := io.Copy(conn, f)
	if err != nil {
		return protocol.NewMessage(catalog.PrinterError, protocol.Str(fmt.Sprintf("printer %s: %v", p.addr, err)))
	}
	p.logger.Info().Str("file", path).Int64("bytes", n).Msg("printed")
	return protocol.NewMessage(catalog.PrinterDone, protocol.Str(path))
}

func (p *printer) write(b []byte) error {
	conn, err := p.dial()
	if err != nil {
		return err
	}
	defer conn.Close()
	_, err = conn.Write(b)
	return err
}

// serve reads printer requests from conn until the host hangs up or asks the
// daemon to die.
func serve(conn io.ReadWriter, p *printer) error {
	in := protocol.NewQueue(protocol.DefaultCapacity)
	out := protocol.NewQueue(protocol.DefaultCapacity)
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			if perr := in.PutBytes(buf[:n]); perr != nil {
				return perr
			}
		}
		for {
			if _, _, ok := in.PeekFrame(); !ok {
				break
			}
			op, body, ferr := in.Frame()
			if ferr != nil {
				return ferr
			}
			reply, ok, herr := p.handle(op, body)
			if ok {
				if eerr := protocol.Encode(out, reply); eerr != nil {
					return eerr
				}
				if _, werr := conn.Write(out.Bytes()); werr != nil {
					return werr
				}
				out.Clear()
			}
			if herr != nil {
				return herr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}
