package adapter

import (
	"bufio"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/lanikai/kplex"
)

func init() {
	kplex.Register("file", openFile)
}

type fileInfo struct {
	in  *os.File
	out *os.File
}

// openFile implements the file/FIFO adapter: direction=in reads
// CRLF-framed lines from one file and pushes a SenBlk per line,
// discarding any line longer than SENMAX before the terminator;
// direction=out appends a CRLF-terminated line per sentence to
// another file; direction=both opens two files, one per key ("in" and
// "out"), and returns a single BOTH endpoint for the Router to split.
// No DupInfoFunc is supplied (there is nothing to dup -- each
// direction already has its own path): both halves share one fileInfo,
// and each half's cleanup closes only its own direction's file.
func openFile(d *kplex.Descriptor) ([]*kplex.Endpoint, error) {
	switch d.Direction {
	case kplex.DirIn:
		path, ok := d.Key("file")
		if !ok {
			return nil, errors.Errorf("file %q: missing file= key", d.Name)
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "file %q", d.Name)
		}
		ep := kplex.NewInputEndpoint(d.Name, "file", readFile, cleanupFile, &fileInfo{in: f})
		return []*kplex.Endpoint{ep}, nil

	case kplex.DirOut:
		path, ok := d.Key("file")
		if !ok {
			return nil, errors.Errorf("file %q: missing file= key", d.Name)
		}
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return nil, errors.Wrapf(err, "file %q", d.Name)
		}
		qsize := kplex.DefaultQueueSize
		ep, err := kplex.NewOutputEndpoint(d.Name, "file", qsize, writeFile, cleanupFile, &fileInfo{out: f})
		if err != nil {
			f.Close()
			return nil, err
		}
		return []*kplex.Endpoint{ep}, nil

	case kplex.DirBoth:
		inPath, ok := d.Key("in")
		if !ok {
			return nil, errors.Errorf("file %q: direction=both requires in= and out= keys", d.Name)
		}
		outPath, ok := d.Key("out")
		if !ok {
			return nil, errors.Errorf("file %q: direction=both requires in= and out= keys", d.Name)
		}

		in, err := os.Open(inPath)
		if err != nil {
			return nil, errors.Wrapf(err, "file %q", d.Name)
		}
		out, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			in.Close()
			return nil, errors.Wrapf(err, "file %q", d.Name)
		}

		ep := kplex.NewBothEndpoint(d.Name, "file", readFile, writeFile, cleanupFile, nil, &fileInfo{in: in, out: out})
		return []*kplex.Endpoint{ep}, nil

	default:
		return nil, errors.Wrapf(kplex.ErrBadDirection, "file %q", d.Name)
	}
}

func readFile(ep *kplex.Endpoint) error {
	info := ep.Info.(*fileInfo)
	r := bufio.NewReaderSize(info.in, kplex.SENMAX+2)

	for {
		select {
		case <-ep.Done():
			return nil
		default:
		}

		line, err := readCRLFLine(r)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if line == nil {
			// Oversize sentence, discarded per the framing rule.
			continue
		}

		ep.Queue().Push(kplex.NewSenBlk(ep, line))
	}
}

func writeFile(ep *kplex.Endpoint) error {
	info := ep.Info.(*fileInfo)
	q := ep.Queue()

	for {
		unit := q.Next()
		if unit == nil {
			return nil
		}
		if _, err := info.out.Write(unit.Bytes()); err != nil {
			q.Free(unit)
			return err
		}
		if _, err := info.out.Write([]byte("\r\n")); err != nil {
			q.Free(unit)
			return err
		}
		q.Free(unit)
	}
}

func cleanupFile(ep *kplex.Endpoint) {
	info, ok := ep.Info.(*fileInfo)
	if !ok {
		return
	}
	if info.in != nil && ep.Direction != kplex.DirOut {
		info.in.Close()
	}
	if info.out != nil && ep.Direction != kplex.DirIn {
		info.out.Close()
	}
}

// readCRLFLine reads up to and including the next LF, returning the
// line without its terminator (the LF and a CR just before it, if
// any; a bare LF also ends a line). A line exceeding
// SENMAX bytes before its terminator is consumed but reported as a
// nil slice with a nil error, so the caller can silently drop it and
// continue reading, per the wire framing rule.
func readCRLFLine(r *bufio.Reader) ([]byte, error) {
	raw, err := r.ReadBytes('\n')
	if len(raw) == 0 {
		return nil, err
	}

	trimmed := raw
	if n := len(trimmed); n > 0 && trimmed[n-1] == '\n' {
		trimmed = trimmed[:n-1]
	}
	if n := len(trimmed); n > 0 && trimmed[n-1] == '\r' {
		trimmed = trimmed[:n-1]
	}

	if len(trimmed) > kplex.SENMAX {
		return nil, err
	}

	out := make([]byte, len(trimmed))
	copy(out, trimmed)
	return out, err
}
