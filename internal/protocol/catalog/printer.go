package catalog

import "github.com/danmuck/poslink/internal/protocol"

// Printer opcodes, host to print daemon.
const (
	PrinterFile protocol.Opcode = iota + 1
	PrinterCancel
	PrinterOpenDrawer
	PrinterDie
)

// Printer ack opcodes, print daemon to host.
const (
	PrinterError protocol.Opcode = iota + 1
	PrinterDone
	PrinterBadFile
)

// Printer carries spool and drawer requests to the print daemon.
var Printer = newChannel("printer",
	entry(PrinterFile, "PRINTER_FILE", str),
	entry(PrinterCancel, "PRINTER_CANCEL"),
	entry(PrinterOpenDrawer, "PRINTER_OPENDRAWER", u8),
	entry(PrinterDie, "PRINTER_DIE"),
)

// PrinterAck carries job results back from the print daemon.
var PrinterAck = newChannel("printer-ack",
	entry(PrinterError, "PRINTER_ERROR", str),
	entry(PrinterDone, "PRINTER_DONE", str),
	entry(PrinterBadFile, "PRINTER_BADFILE", str),
)
