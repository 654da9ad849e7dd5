package host

import (
	"github.com/danmuck/poslink/internal/protocol/catalog"
	"github.com/danmuck/poslink/internal/protocol/dispatch"
)

// inputTable routes terminal input. Lifecycle opcodes are handled here; the
// rest is decoded and passed to the configured InputFunc.
func (h *Host) inputTable() *dispatch.Table {
	b := dispatch.NewTable(catalog.Input).
		Handle(catalog.ServerTermInfo, h.onTermInfo).
		Handle(catalog.ServerError, h.onServerError).
		Handle(catalog.ServerShutdown, h.onShutdown)
	for _, e := range catalog.Input.Entries() {
		switch e.Op {
		case catalog.ServerTermInfo, catalog.ServerError, catalog.ServerShutdown:
			continue
		}
		b.Handle(e.Op, h.forward)
	}
	return b.Build()
}

func (h *Host) onTermInfo(m *dispatch.Message) error {
	f, err := m.Fields()
	if err != nil {
		return err
	}
	h.logger.Info().
		Str("link", m.Link).
		Str("terminal", f[0].Str).
		Uint64("width", f[1].Uint).
		Uint64("height", f[2].Uint).
		Uint64("depth", f[3].Uint).
		Msg("terminal info")
	return nil
}

func (h *Host) onServerError(m *dispatch.Message) error {
	msg, err := m.Body.GetString(0)
	if err != nil {
		return err
	}
	h.board.ReportError(m.Link + ": terminal error: " + msg)
	return nil
}

// onShutdown closes the terminal's link on the next reactor turn, after the
// current drain has finished with the inbound queue.
func (h *Host) onShutdown(m *dispatch.Message) error {
	id := m.Link
	h.loop.RegisterTimer(0, func() {
		if l, ok := h.registry.Get(id); ok {
			h.logger.Info().Str("link", id).Msg("terminal requested shutdown")
			_ = l.Close()
		}
	})
	return nil
}

func (h *Host) forward(m *dispatch.Message) error {
	f, err := m.Fields()
	if err != nil {
		return err
	}
	if h.inputFn != nil {
		h.inputFn(m.Link, m.Name(), f)
		return nil
	}
	h.logger.Debug().Str("link", m.Link).Str("op", m.Name()).Int("fields", len(f)).Msg("input")
	return nil
}
