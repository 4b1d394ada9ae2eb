package adapter

import (
	"bufio"
	"net"
	"sync"

	"github.com/pkg/errors"

	"github.com/lanikai/kplex"
)

func init() {
	kplex.Register("tcp", openTCP)
}

// openTCP implements the TCP adapter. direction=in either dials a
// remote talker (key "address") or listens (key "address" is the
// local bind address, key "listen=true") and treats every line from
// every accepted/dialed connection as a sentence source. direction=out
// runs a net.Listener loop, fanning each sentence out to every
// currently-connected client -- grounded on the teacher's
// internal/signaling local HTTP server pattern of one handler
// goroutine per accepted connection.
func openTCP(d *kplex.Descriptor) ([]*kplex.Endpoint, error) {
	addr, ok := d.Key("address")
	if !ok {
		return nil, errors.Errorf("tcp %q: missing address= key", d.Name)
	}

	switch d.Direction {
	case kplex.DirIn:
		return openTCPInput(d, addr)
	case kplex.DirOut:
		return openTCPOutput(d, addr)
	default:
		return nil, errors.Wrapf(kplex.ErrBadDirection, "tcp %q: direction=both is not supported, open two tcp endpoints", d.Name)
	}
}

func openTCPInput(d *kplex.Descriptor, addr string) ([]*kplex.Endpoint, error) {
	if d.KeyOr("listen", "false") == "true" {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, errors.Wrapf(err, "tcp %q", d.Name)
		}
		ep := kplex.NewInputEndpoint(d.Name, "tcp", readTCPListener, cleanupTCPListener, ln)
		return []*kplex.Endpoint{ep}, nil
	}

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "tcp %q", d.Name)
	}
	ep := kplex.NewInputEndpoint(d.Name, "tcp", readTCPConn, cleanupTCPConn, conn)
	return []*kplex.Endpoint{ep}, nil
}

// tcpOutputState is shared by the accept goroutine, which adds every
// new client connection to conns, and the endpoint's single write
// loop, which drains the endpoint queue, writes each sentence to every
// connection in conns, and closes and removes any connection whose
// write fails.
type tcpOutputState struct {
	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

func openTCPOutput(d *kplex.Descriptor, addr string) ([]*kplex.Endpoint, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "tcp %q", d.Name)
	}

	state := &tcpOutputState{conns: map[net.Conn]struct{}{}}
	info := &tcpListenerInfo{ln: ln, out: state}

	ep, err := kplex.NewOutputEndpoint(d.Name, "tcp", kplex.DefaultQueueSize, writeTCPListener, cleanupTCPListener, info)
	if err != nil {
		ln.Close()
		return nil, err
	}
	return []*kplex.Endpoint{ep}, nil
}

type tcpListenerInfo struct {
	ln  net.Listener
	out *tcpOutputState
}

func readTCPConn(ep *kplex.Endpoint) error {
	conn := ep.Info.(net.Conn)

	go func() {
		<-ep.Done()
		conn.Close()
	}()

	r := bufio.NewReaderSize(conn, kplex.SENMAX+2)
	for {
		line, err := readCRLFLine(r)
		if err != nil {
			return err
		}
		if line == nil {
			continue
		}
		ep.Queue().Push(kplex.NewSenBlk(ep, line))
	}
}

func cleanupTCPConn(ep *kplex.Endpoint) {
	if conn, ok := ep.Info.(net.Conn); ok {
		conn.Close()
	}
}

func readTCPListener(ep *kplex.Endpoint) error {
	ln := ep.Info.(net.Listener)

	go func() {
		<-ep.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ep.Done():
				return nil
			default:
				return err
			}
		}
		go readTCPAcceptedConn(ep, conn)
	}
}

func readTCPAcceptedConn(ep *kplex.Endpoint, conn net.Conn) {
	defer conn.Close()

	r := bufio.NewReaderSize(conn, kplex.SENMAX+2)
	for {
		select {
		case <-ep.Done():
			return
		default:
		}
		line, err := readCRLFLine(r)
		if err != nil {
			return
		}
		if line == nil {
			continue
		}
		ep.Queue().Push(kplex.NewSenBlk(ep, line))
	}
}

func cleanupTCPListener(ep *kplex.Endpoint) {
	if ln, ok := ep.Info.(net.Listener); ok {
		ln.Close()
		return
	}
	if info, ok := ep.Info.(*tcpListenerInfo); ok {
		info.ln.Close()
		info.out.mu.Lock()
		for c := range info.out.conns {
			c.Close()
		}
		info.out.mu.Unlock()
	}
}

func writeTCPListener(ep *kplex.Endpoint) error {
	info := ep.Info.(*tcpListenerInfo)

	go acceptTCPOutputClients(ep, info)

	q := ep.Queue()
	for {
		unit := q.Next()
		if unit == nil {
			return nil
		}

		info.out.mu.Lock()
		for c := range info.out.conns {
			if _, err := c.Write(unit.Bytes()); err != nil {
				c.Close()
				delete(info.out.conns, c)
				continue
			}
			c.Write([]byte("\r\n"))
		}
		info.out.mu.Unlock()

		q.Free(unit)
	}
}

func acceptTCPOutputClients(ep *kplex.Endpoint, info *tcpListenerInfo) {
	go func() {
		<-ep.Done()
		info.ln.Close()
	}()

	for {
		conn, err := info.ln.Accept()
		if err != nil {
			return
		}
		info.out.mu.Lock()
		info.out.conns[conn] = struct{}{}
		info.out.mu.Unlock()
	}
}
