package link

import (
	"errors"
	"fmt"
	"os"

	"github.com/danmuck/poslink/internal/protocol"
	"github.com/danmuck/poslink/internal/protocol/catalog"
	"github.com/danmuck/poslink/internal/protocol/dispatch"
	"github.com/rs/zerolog/log"
)

// PrintObserver learns the outcome of print jobs.
type PrintObserver interface {
	PrintDone(link, file string)
	PrintFailed(link, file, reason string)
}

// SendFile asks the print daemon to print a spooled file. The host removes
// the file once the daemon reports it done.
func (l *Link) SendFile(path string) error {
	if l.spec.Kind != KindPrinter {
		return ErrWrongKind
	}
	if err := l.Send(protocol.NewMessage(catalog.PrinterFile, protocol.Str(path))); err != nil {
		return err
	}
	l.spooled[path] = struct{}{}
	return nil
}

// Cancel aborts the job the daemon is working on.
func (l *Link) Cancel() error {
	if l.spec.Kind != KindPrinter {
		return ErrWrongKind
	}
	return l.Send(protocol.NewMessage(catalog.PrinterCancel))
}

// OpenDrawer kicks cash drawer n attached to the printer.
func (l *Link) OpenDrawer(n uint8) error {
	if l.spec.Kind != KindPrinter {
		return ErrWrongKind
	}
	return l.Send(protocol.NewMessage(catalog.PrinterOpenDrawer, protocol.U8(n)))
}

// Spooled returns the number of files sent and not yet acknowledged.
func (l *Link) Spooled() int { return len(l.spooled) }

func (l *Link) printerAckTable() *dispatch.Table {
	return dispatch.NewTable(catalog.PrinterAck).
		Handle(catalog.PrinterDone, func(m *dispatch.Message) error {
			file, err := m.Body.GetString(0)
			if err != nil {
				return err
			}
			l.release(file)
			if l.observer != nil {
				l.observer.PrintDone(l.spec.ID, file)
			}
			return nil
		}).
		Handle(catalog.PrinterBadFile, func(m *dispatch.Message) error {
			file, err := m.Body.GetString(0)
			if err != nil {
				return err
			}
			delete(l.spooled, file)
			if l.observer != nil {
				l.observer.PrintFailed(l.spec.ID, file, "bad file")
			}
			return fmt.Errorf("daemon rejected %s", file)
		}).
		Handle(catalog.PrinterError, func(m *dispatch.Message) error {
			reason, err := m.Body.GetString(0)
			if err != nil {
				return err
			}
			if l.observer != nil {
				l.observer.PrintFailed(l.spec.ID, "", reason)
			}
			return errors.New(reason)
		}).
		Build()
}

// release removes a spooled file the daemon has finished with. Names the
// link never spooled are left alone.
func (l *Link) release(file string) {
	if _, ok := l.spooled[file]; !ok {
		log.Debug().Str("link", l.spec.ID).Str("file", file).Msg("done for unknown spool file")
		return
	}
	delete(l.spooled, file)
	if err := os.Remove(file); err != nil && !errors.Is(err, os.ErrNotExist) {
		l.report(fmt.Sprintf("remove spool file: %v", err))
	}
}
