// Package adapter holds the concrete endpoint adapters: file, tcp,
// broadcast, serial, pty, and seatalk. Each file registers its type
// name with the core kplex package from an init() function; the
// [global] config section is handled directly by kplex.Config and has
// no corresponding adapter here.
package adapter

import "github.com/lanikai/kplex/internal/logging"

var log = logging.DefaultLogger.WithTag("adapter")
