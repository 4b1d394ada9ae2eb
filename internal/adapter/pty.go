// +build linux

package adapter

import (
	"bufio"
	"os"

	"github.com/creack/pty"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/lanikai/kplex"
)

func init() {
	kplex.Register("pty", openPty)
}

type ptyInfo struct {
	f    *os.File
	name string
}

// openPty implements the pseudo-terminal adapter on top of
// github.com/creack/pty's Open, which wraps the posix_openpt/unlockpt/
// ptsname sequence the teacher's V4L2 device hand-rolls a different
// ioctl dance for. Always direction=both, returning a single BOTH
// endpoint over the master side for the Router to split (dupPty gives
// the OUT half its own descriptor). The slave handle is closed again
// immediately after its path is logged -- kplex only ever talks to
// the master; an external process (e.g. a chart plotter simulator)
// opens the slave path on its own.
func openPty(d *kplex.Descriptor) ([]*kplex.Endpoint, error) {
	master, slave, err := pty.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "pty %q", d.Name)
	}
	slaveName := slave.Name()
	slave.Close()

	log.Info("pty %q: slave device %s", d.Name, slaveName)

	info := &ptyInfo{f: master, name: slaveName}
	ep := kplex.NewBothEndpoint(d.Name, "pty", readPty, writePty, cleanupPty, dupPty, info)
	return []*kplex.Endpoint{ep}, nil
}

func readPty(ep *kplex.Endpoint) error {
	info := ep.Info.(*ptyInfo)

	go func() {
		<-ep.Done()
		info.f.Close()
	}()

	r := bufio.NewReaderSize(info.f, kplex.SENMAX+2)
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

func writePty(ep *kplex.Endpoint) error {
	info := ep.Info.(*ptyInfo)
	q := ep.Queue()

	for {
		unit := q.Next()
		if unit == nil {
			return nil
		}
		_, err := info.f.Write(append(append([]byte{}, unit.Bytes()...), '\r', '\n'))
		q.Free(unit)
		if err != nil {
			return err
		}
	}
}

func cleanupPty(ep *kplex.Endpoint) {
	if info, ok := ep.Info.(*ptyInfo); ok {
		info.f.Close()
	}
}

// dupPty gives the OUT half of a split pty endpoint its own
// independently closeable handle on the master side. creack/pty has
// no API for wrapping an already-open descriptor, so this falls back
// to unix.Dup -- the one piece of the old hand-rolled implementation
// still worth keeping, since duplicating a file description is a
// syscall-level operation no higher-level PTY library needs to wrap.
func dupPty(v interface{}) (interface{}, error) {
	info := v.(*ptyInfo)
	newFd, err := unix.Dup(int(info.f.Fd()))
	if err != nil {
		return nil, err
	}
	return &ptyInfo{f: os.NewFile(uintptr(newFd), info.f.Name()), name: info.name}, nil
}
