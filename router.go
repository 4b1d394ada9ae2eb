package kplex

import (
	"sync"

	"github.com/lanikai/kplex/internal/logging"
)

// Router owns the shared endpoint lists and the central queue. All
// list mutations, and the direction/pair fields that list membership
// depends on, are guarded by mu.
type Router struct {
	mu sync.Mutex

	initialized *Endpoint
	inputs      *Endpoint
	outputs     *Endpoint
	dead        *Endpoint

	initCond *sync.Cond
	deadCond *sync.Cond

	central *Queue

	// timeToDie is set under mu by RequestShutdown and observed by the
	// supervisor's reaper loop.
	timeToDie bool

	log *logging.Logger
}

// NewRouter creates a Router around the given central queue.
func NewRouter(central *Queue, log *logging.Logger) *Router {
	r := &Router{
		central: central,
		log:     log,
	}
	r.initCond = sync.NewCond(&r.mu)
	r.deadCond = sync.NewCond(&r.mu)
	return r
}

// listPrepend links ep onto the front of the list headed by *head.
func listPrepend(head **Endpoint, ep *Endpoint) {
	ep.next = *head
	*head = ep
}

// listRemove unlinks ep from the list headed by *head, scanning for
// its predecessor. Reports whether ep was found.
func listRemove(head **Endpoint, ep *Endpoint) bool {
	if *head == ep {
		*head = ep.next
		ep.next = nil
		return true
	}
	for cur := *head; cur != nil; cur = cur.next {
		if cur.next == ep {
			cur.next = ep.next
			ep.next = nil
			return true
		}
	}
	return false
}

func listLen(head *Endpoint) int {
	n := 0
	for e := head; e != nil; e = e.next {
		n++
	}
	return n
}

// LinkInitialized links ep onto the initializing list. Called by the
// supervisor once an adapter's OpenFunc has returned it, before its
// task has started.
func (r *Router) LinkInitialized(ep *Endpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ep.router = r
	if ep.Direction == DirIn || ep.Direction == DirBoth {
		ep.q = r.central
	}
	listPrepend(&r.initialized, ep)
}

// Split converts a single endpoint with Direction == DirBoth into a
// linked IN/OUT pair, duplicating adapter state via ep.dupInfo if one
// was supplied. The original endpoint becomes the IN half and keeps
// ep's read function; a new endpoint is returned as the OUT half and
// takes ep's write function. Both keep ep's cleanup function and
// reference each other via Pair.
//
// Splitting happens once, before either half's task starts, which is
// why it is a separate step from Promote: a single Endpoint's next
// field can only ever link it onto one Router list at a time, so a
// still-BOTH endpoint cannot itself occupy both the inputs and outputs
// lists simultaneously -- it must first become two endpoints.
func (r *Router) Split(ep *Endpoint) (*Endpoint, error) {
	out := newEndpoint(ep.Name, ep.Type, DirOut)
	out.write = ep.write
	out.cleanup = ep.cleanup

	q, err := NewQueue(DefaultQueueSize)
	if err != nil {
		return nil, err
	}
	out.q = q

	info := ep.Info
	if ep.dupInfo != nil {
		dup, err := ep.dupInfo(ep.Info)
		if err != nil {
			return nil, err
		}
		info = dup
	}
	out.Info = info

	ep.Direction = DirIn
	ep.write = nil

	ep.pair = out
	out.pair = ep

	r.mu.Lock()
	out.router = r
	listPrepend(&r.initialized, out)
	r.mu.Unlock()

	return out, nil
}

// Promote moves ep from the initializing list onto its active list
// (inputs for DirIn, outputs for DirOut). Called from within ep's own
// task, at the start of its run, after Direction has been resolved to
// DirIn or DirOut (never DirBoth -- see Split).
func (r *Router) Promote(ep *Endpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	listRemove(&r.initialized, ep)

	switch ep.Direction {
	case DirIn:
		listPrepend(&r.inputs, ep)
	case DirOut:
		listPrepend(&r.outputs, ep)
	}

	if r.initialized == nil {
		r.initCond.Broadcast()
	}
}

// Unlink removes ep from its active list, notifies its pair (if any),
// runs its cleanup, and prepends it to the dead list for the
// supervisor's reaper to join. It is intended to run exactly once per
// endpoint, as the final step of that endpoint's task (e.g. via
// defer), which is also what stands in here for "run with the
// per-task termination signal blocked": nothing re-enters Unlink for
// the same endpoint, because nothing but that one deferred call ever
// invokes it.
func (r *Router) Unlink(ep *Endpoint) {
	r.mu.Lock()

	switch ep.Direction {
	case DirIn:
		listRemove(&r.inputs, ep)
	case DirOut:
		listRemove(&r.outputs, ep)
	}

	if sib := ep.pair; sib != nil {
		ep.pair = nil
		sib.pair = nil
		switch sib.Direction {
		case DirOut:
			if q := sib.q; q != nil {
				q.Push(nil)
			}
		case DirIn:
			sib.signalQuit()
		}
	}

	if ep.cleanup != nil {
		ep.cleanup(ep)
	}
	ep.Info = nil

	if ep.Direction == DirOut {
		ep.q = nil
	}

	if ep.Direction == DirIn && r.inputs == nil {
		r.central.Push(nil)
	}

	listPrepend(&r.dead, ep)
	r.deadCond.Broadcast()

	r.mu.Unlock()
}

// ReapDead detaches and returns the entire dead list, in reverse of
// arrival order, so the supervisor's reaper can join each task and
// release the Endpoint record.
func (r *Router) ReapDead() []*Endpoint {
	r.mu.Lock()
	defer r.mu.Unlock()

	var dead []*Endpoint
	for e := r.dead; e != nil; {
		next := e.next
		e.next = nil
		dead = append(dead, e)
		e = next
	}
	r.dead = nil
	return dead
}

// WaitInitializing blocks until the initializing list is empty.
func (r *Router) WaitInitializing() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.initialized != nil {
		r.initCond.Wait()
	}
}

// WaitDead blocks until either an endpoint has been unlinked or an
// external shutdown has been requested.
func (r *Router) WaitDead() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.dead == nil && !r.timeToDie {
		r.deadCond.Wait()
	}
}

// RequestShutdown sets the external-termination flag and wakes the
// reaper loop. Safe to call from a signal handler goroutine.
func (r *Router) RequestShutdown() {
	r.mu.Lock()
	r.timeToDie = true
	r.deadCond.Broadcast()
	r.mu.Unlock()
}

// ShutdownRequested reports and clears the external-termination flag.
func (r *Router) ShutdownRequested() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	requested := r.timeToDie
	r.timeToDie = false
	return requested
}

// Counts reports the current length of each list, for diagnostics and
// for the reaper's termination condition.
func (r *Router) Counts() (initializing, inputs, outputs, dead int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return listLen(r.initialized), listLen(r.inputs), listLen(r.outputs), listLen(r.dead)
}

// SignalAllInputs sends the per-task termination signal to every
// active input endpoint, asking each to exit voluntarily. Used by the
// supervisor when an external shutdown is requested or when the
// output tier has drained away.
func (r *Router) SignalAllInputs() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for e := r.inputs; e != nil; e = e.next {
		e.signalQuit()
	}
}
