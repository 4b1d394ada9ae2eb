// Package kplex implements an any-to-any multiplexer for NMEA-0183
// sentence streams. It reads framed sentences from a configurable set
// of input endpoints, merges them into one logical stream on a
// central queue, and fans that stream out to a configurable set of
// output endpoints — bridging heterogeneous marine electronics
// (serial lines, pseudo-terminals, TCP sockets, UDP broadcasts,
// files) so that talkers and listeners on different transports can
// interoperate.
//
// The byte-level transport drivers are not part of this package; they
// are adapters registered with Register and plugged into a
// Supervisor at startup. See package internal/adapter for the
// concrete adapters shipped with kplex, and cmd/kplexd for the daemon
// that wires them together.
package kplex
