// Command posprintd is the companion process of a printer link. The host
// spawns it with the rendezvous path and the printer's address.
package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/danmuck/poslink/internal/observability"
)

func main() {
	if len(os.Args) != 5 {
		fmt.Fprintf(os.Stderr, "usage: %s <rendezvous> <host> <port> <model>\n", os.Args[0])
		os.Exit(2)
	}
	if err := run(os.Args[1], os.Args[2], os.Args[3], os.Args[4]); err != nil {
		fmt.Fprintf(os.Stderr, "posprintd: %v\n", err)
		os.Exit(1)
	}
}

func run(rendezvous, host, portArg, model string) error {
	logger := observability.InitLogger("posprintd")
	port, err := strconv.Atoi(portArg)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port %q", portArg)
	}
	conn, err := net.Dial("unix", rendezvous)
	if err != nil {
		return fmt.Errorf("connect %s: %w", rendezvous, err)
	}
	defer conn.Close()

	p := newPrinter(host, port, model, logger.With().Str("printer", host).Logger())
	logger.Info().Str("rendezvous", rendezvous).Str("model", model).Msg("connected to host")
	err = serve(conn, p)
	if errors.Is(err, errDie) {
		logger.Info().Msg("exit requested by host")
		return nil
	}
	return err
}
