package config

import "github.com/danmuck/poslink/internal/link"

// LinkSpecs turns the roster into link specs. runID namespaces the printer
// rendezvous paths.
func LinkSpecs(cfg SuiteConfig, runID string) []link.Spec {
	specs := make([]link.Spec, 0, len(cfg.Terminals)+len(cfg.Printers))
	for _, term := range cfg.Terminals {
		specs = append(specs, link.Spec{
			ID:      term.ID,
			Kind:    link.KindTerminal,
			Address: link.Address{Network: term.Network, Addr: term.Address},
		})
	}
	for _, p := range cfg.Printers {
		specs = append(specs, link.Spec{
			ID:       p.ID,
			Kind:     link.KindPrinter,
			Instance: p.Instance,
			RunDir:   cfg.Host.RunDir,
			RunID:    runID,
			Daemon: link.DaemonSpec{
				Path:  p.Daemon,
				Host:  p.Host,
				Port:  p.Port,
				Model: p.Model,
			},
		})
	}
	return specs
}
