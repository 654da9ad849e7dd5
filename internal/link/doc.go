// Package link supervises the socket between the host and one peer: a
// display terminal that connects on its own, or a print daemon the host
// spawns. A Link owns its inbound and outbound queues, counts read failures
// and decides the Online/Offline transitions that gate Send.
//
// Everything in this package runs on the reactor goroutine and is not safe
// for concurrent use.
package link
