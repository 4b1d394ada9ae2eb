package kplex

import "github.com/lanikai/kplex/internal/logging"

// Engine drains the central queue and fans each unit out to every
// active output, skipping the output paired with the unit's own
// source so a bidirectional endpoint never echoes a sentence back out
// the side it came in on.
type Engine struct {
	central *Queue
	router  *Router
	log     *logging.Logger
}

// NewEngine builds an Engine over the given central queue and router.
func NewEngine(central *Queue, router *Router, log *logging.Logger) *Engine {
	return &Engine{central: central, router: router, log: log}
}

// Run drains the central queue until it is closed, fanning every unit
// out to the current output list. It returns once end-of-stream is
// observed, which happens only after the last input endpoint has been
// unlinked. Run is meant to be called once, from its own goroutine.
func (e *Engine) Run() {
	for {
		unit := e.central.Next()
		if unit == nil {
			e.log.Debug("engine: central queue closed, closing outputs")
			e.closeOutputs()
			return
		}

		e.router.mu.Lock()
		var origin *Endpoint
		if unit.src != nil {
			origin = unit.src.pair
		}
		for o := e.router.outputs; o != nil; o = o.next {
			if o == origin {
				continue
			}
			if q := o.q; q != nil {
				q.Push(unit)
			}
		}
		e.router.mu.Unlock()

		e.central.Free(unit)
	}
}

// closeOutputs pushes end-of-stream onto every currently active
// output's private queue. Called once, when the central queue closes,
// so outputs with no paired input of their own (the common case) are
// not left blocked in Next forever once there is nothing left to feed
// them.
func (e *Engine) closeOutputs() {
	e.router.mu.Lock()
	defer e.router.mu.Unlock()

	for o := e.router.outputs; o != nil; o = o.next {
		if q := o.q; q != nil {
			q.Push(nil)
		}
	}
}
