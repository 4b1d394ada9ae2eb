package kplex

import "sync"

// Direction describes which way data flows through an Endpoint.
type Direction int

const (
	// DirNone marks an endpoint scheduled for quiet exit: its task
	// must return immediately without ever joining an active list.
	DirNone Direction = iota
	DirIn
	DirOut
	DirBoth
)

func (d Direction) String() string {
	switch d {
	case DirIn:
		return "in"
	case DirOut:
		return "out"
	case DirBoth:
		return "both"
	default:
		return "none"
	}
}

// ReadFunc is supplied by an adapter for an IN endpoint. It blocks,
// constructing SenBlk units from the underlying transport and pushing
// them onto ep.Queue(), until the source is exhausted, an I/O error
// occurs, or ep.Done() is closed.
type ReadFunc func(ep *Endpoint) error

// WriteFunc is supplied by an adapter for an OUT endpoint. It blocks,
// pulling from ep.Queue() and writing to the underlying transport,
// until it receives end-of-stream.
type WriteFunc func(ep *Endpoint) error

// CleanupFunc releases adapter-private state. It is safe to assume it
// is called exactly once per endpoint, during Router.Unlink.
type CleanupFunc func(ep *Endpoint)

// DupInfoFunc duplicates adapter-private state when the Router splits
// a single BOTH-direction endpoint into its IN and OUT halves (e.g.
// dup'ing a file descriptor so each half owns its own handle).
// Adapters that always return a pre-split chain need not supply one.
type DupInfoFunc func(info interface{}) (interface{}, error)

// Endpoint is a named I/O participant: an input, an output, or (until
// the Router splits it) a bidirectional pair sharing one underlying
// transport.
type Endpoint struct {
	Name      string
	Type      string // adapter kind: "serial", "pty", "tcp", "broadcast", "file", "seatalk"
	Direction Direction

	Info interface{} // adapter-private state

	read    ReadFunc
	write   WriteFunc
	cleanup CleanupFunc
	dupInfo DupInfoFunc

	// q is, for IN, a shared reference to the Router's central queue;
	// for OUT, a private queue owned exclusively by this endpoint.
	q *Queue

	// pair is a weak back-reference to the sibling endpoint of a
	// bidirectional transport. Nulling it is only ever observed or
	// performed under the Router's mutex.
	pair *Endpoint

	router *Router
	next   *Endpoint // intrusive link for whichever Router list holds this endpoint

	quitOnce sync.Once
	quit     chan struct{}
}

func newEndpoint(name, typ string, dir Direction) *Endpoint {
	return &Endpoint{
		Name:      name,
		Type:      typ,
		Direction: dir,
		quit:      make(chan struct{}),
	}
}

// NewInputEndpoint builds an IN endpoint for an adapter. Its Queue()
// is bound to the router's central queue once the endpoint is linked
// in -- an adapter constructing one never sees the central queue
// itself. read is invoked by its task once Router.Promote has run.
func NewInputEndpoint(name, typ string, read ReadFunc, cleanup CleanupFunc, info interface{}) *Endpoint {
	ep := newEndpoint(name, typ, DirIn)
	ep.read = read
	ep.cleanup = cleanup
	ep.Info = info
	return ep
}

// NewOutputEndpoint builds an OUT endpoint for an adapter, allocating
// it a private queue of the given size.
func NewOutputEndpoint(name, typ string, qsize int, write WriteFunc, cleanup CleanupFunc, info interface{}) (*Endpoint, error) {
	q, err := NewQueue(qsize)
	if err != nil {
		return nil, err
	}
	ep := newEndpoint(name, typ, DirOut)
	ep.q = q
	ep.write = write
	ep.cleanup = cleanup
	ep.Info = info
	return ep, nil
}

// NewBothEndpoint builds a single endpoint representing both halves of
// a bidirectional transport, for adapters (e.g. serial, pty, file) that
// read and write the same underlying connection. The Router splits it
// into separate IN and OUT endpoints via Split before either task
// starts; dupInfo, if non-nil, is used to duplicate Info for the OUT
// half (e.g. dup'ing a file descriptor so each half owns its own
// handle). If dupInfo is nil, both halves share the same Info value.
func NewBothEndpoint(name, typ string, read ReadFunc, write WriteFunc, cleanup CleanupFunc, dupInfo DupInfoFunc, info interface{}) *Endpoint {
	ep := newEndpoint(name, typ, DirBoth)
	ep.read = read
	ep.write = write
	ep.cleanup = cleanup
	ep.dupInfo = dupInfo
	ep.Info = info
	return ep
}

// Read invokes this endpoint's adapter-supplied ReadFunc. Called by
// the supervisor's per-endpoint task after Router.Promote.
func (ep *Endpoint) Read() error {
	return ep.read(ep)
}

// Write invokes this endpoint's adapter-supplied WriteFunc. Called by
// the supervisor's per-endpoint task after Router.Promote.
func (ep *Endpoint) Write() error {
	return ep.write(ep)
}

// Queue returns the queue this endpoint pushes into (IN, the shared
// central queue) or pulls from (OUT, a private queue of its own).
func (ep *Endpoint) Queue() *Queue { return ep.q }

// Pair returns the sibling endpoint of a bidirectional transport, or
// nil if this endpoint is unpaired or its sibling has already been
// unlinked.
func (ep *Endpoint) Pair() *Endpoint { return ep.pair }

// Done returns a channel that is closed when this endpoint has been
// asked to exit -- because an external shutdown is in progress, or
// because its paired output died and the input side is now pointless.
// An adapter's ReadFunc/WriteFunc should select on this alongside its
// blocking I/O wherever the underlying transport supports
// cancellation.
func (ep *Endpoint) Done() <-chan struct{} { return ep.quit }

// signalQuit asks this endpoint's task to exit. Safe to call more
// than once or concurrently; only the first call has any effect.
func (ep *Endpoint) signalQuit() {
	ep.quitOnce.Do(func() { close(ep.quit) })
}
