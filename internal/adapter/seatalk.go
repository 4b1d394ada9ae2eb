// +build linux

package adapter

import (
	"github.com/pkg/errors"

	"github.com/lanikai/kplex"
)

func init() {
	kplex.Register("seatalk", openSeatalk)
}

// openSeatalk registers the experimental SeaTalk type (a 9-bit,
// datagram-ish protocol carried over a standard serial line at 4800
// baud, distinguished from plain NMEA by a parity bit marking the
// first byte of each command) but opens nothing: it always returns an
// error pointing at type=serial. No SeaTalk decoding, translation to
// NMEA-0183 or pass-through is implemented.
func openSeatalk(d *kplex.Descriptor) ([]*kplex.Endpoint, error) {
	return nil, errors.Errorf("seatalk %q: bit-level SeaTalk decoding is not implemented; use type=serial against a device that already emits NMEA-0183", d.Name)
}
