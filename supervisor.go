package kplex

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/pkg/errors"

	"github.com/lanikai/kplex/internal/logging"
)

// Supervisor brings up every configured endpoint, starts the fan-out
// engine, installs the OS signal handler, and runs the termination
// protocol: once every input has exited (voluntarily or because it
// was asked to), it drains the outputs and returns.
type Supervisor struct {
	cfg    *Config
	router *Router
	engine *Engine
	log    *logging.Logger

	wg sync.WaitGroup
}

// NewSupervisor builds a Supervisor from a resolved Config. It does
// not open any endpoints; call Run to do that.
func NewSupervisor(cfg *Config, log *logging.Logger) (*Supervisor, error) {
	central, err := NewQueue(cfg.QueueSize)
	if err != nil {
		return nil, err
	}

	router := NewRouter(central, log)
	engine := NewEngine(central, router, log)

	return &Supervisor{
		cfg:    cfg,
		router: router,
		engine: engine,
		log:    log,
	}, nil
}

// Run opens every configured endpoint, starts the engine and every
// endpoint task, then blocks until shutdown completes -- either
// because every input has exited and the outputs have drained, or
// because an OS termination signal arrived. It returns a process exit
// code: 0 for clean shutdown, 1 if any descriptor failed to open.
func (s *Supervisor) Run() int {
	if err := AssignNames(s.cfg.Endpoints); err != nil {
		s.log.Error("%v", err)
		return 1
	}

	opened := 0
	for _, d := range s.cfg.Endpoints {
		eps, err := openDescriptor(d)
		if err != nil {
			s.log.Error("opening %s %q: %v", d.Type, d.Name, err)
			return 1
		}
		for _, ep := range eps {
			s.router.LinkInitialized(ep)
			s.startEndpoint(ep)
			opened++
		}
	}

	if opened == 0 {
		s.log.Error("%v", ErrNoEndpoints)
		return 1
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		s.log.Info("received termination signal, shutting down")
		s.router.RequestShutdown()
	}()

	// Start the engine only once every endpoint has joined its active
	// list, so no output misses a sentence or the end-of-stream fan-out.
	s.router.WaitInitializing()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.engine.Run()
	}()

	s.reap()

	s.wg.Wait()
	return 0
}

// startEndpoint launches ep's task: promote it onto its active list,
// run its adapter loop to completion, then unlink it. A DirBoth
// endpoint is split into its IN/OUT halves first, each getting its
// own task.
func (s *Supervisor) startEndpoint(ep *Endpoint) {
	if ep.Direction == DirBoth {
		out, err := s.router.Split(ep)
		if err != nil {
			s.log.Error("splitting %s %q: %v", ep.Type, ep.Name, err)
			s.router.Unlink(ep)
			return
		}
		s.startEndpoint(ep)
		s.startEndpoint(out)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.router.Unlink(ep)

		s.router.Promote(ep)

		var err error
		switch ep.Direction {
		case DirIn:
			err = ep.Read()
		case DirOut:
			err = ep.Write()
		}
		if err != nil {
			s.log.Warn("%s %q: %v", ep.Type, ep.Name, err)
		}
	}()
}

// reap waits for initialization to finish, then loops joining
// endpoints as they die until every input and output is gone, signaling any
// remaining inputs to exit once the output tier has drained away or
// an external shutdown was requested.
func (s *Supervisor) reap() {
	s.router.WaitInitializing()

	for {
		s.router.WaitDead()

		if s.router.ShutdownRequested() {
			s.router.SignalAllInputs()
		}

		dead := s.router.ReapDead()
		for _, ep := range dead {
			s.log.Debug("%s %q exited", ep.Type, ep.Name)
		}

		_, inputs, outputs, _ := s.router.Counts()
		if inputs == 0 {
			if outputs == 0 {
				return
			}
			// No inputs remain: close the central queue (a no-op if
			// the last input's Unlink already did) so the engine
			// reaches end-of-stream and closes every output's queue;
			// the remaining outputs then exit on their own. Keep
			// reaping until they do.
			s.router.central.Push(nil)
			continue
		}
		if outputs == 0 {
			// No outputs remain: further input is pointless.
			s.router.SignalAllInputs()
		}
	}
}
