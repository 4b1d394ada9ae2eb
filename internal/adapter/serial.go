// +build linux

package adapter

import (
	"bufio"
	"strconv"

	goserial "github.com/daedaluz/goserial"
	"github.com/pkg/errors"

	"github.com/lanikai/kplex"
)

func init() {
	kplex.Register("serial", openSerial)
}

var baudRates = map[int]goserial.CFlag{
	4800:   goserial.B4800,
	9600:   goserial.B9600,
	19200:  goserial.B19200,
	38400:  goserial.B38400,
	57600:  goserial.B57600,
	115200: goserial.B115200,
}

type serialInfo struct {
	port  *goserial.Port
	path  string
	speed goserial.CFlag
}

// openSerial implements the termios-backed serial line adapter on top
// of goserial.Port, which wraps the open/GetAttr/SetAttr ioctl dance
// the teacher's V4L2 device hand-rolls for a different device class.
// direction=both is the common case and returns a single BOTH endpoint
// for the Router to split; dupSerial gives the OUT half's Info its own
// handle, opened separately on the same device path, so each half can
// be torn down on its own.
func openSerial(d *kplex.Descriptor) ([]*kplex.Endpoint, error) {
	path, ok := d.Key("device")
	if !ok {
		return nil, errors.Errorf("serial %q: missing device= key", d.Name)
	}
	baud, err := strconv.Atoi(d.KeyOr("baud", "4800"))
	if err != nil {
		return nil, errors.Wrapf(err, "serial %q: bad baud=", d.Name)
	}
	speed, ok := baudRates[baud]
	if !ok {
		return nil, errors.Errorf("serial %q: unsupported baud rate %d", d.Name, baud)
	}

	port, err := goserial.Open(path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "serial %q", d.Name)
	}

	if err := configureTermios(port, speed); err != nil {
		port.Close()
		return nil, errors.Wrapf(err, "serial %q", d.Name)
	}

	info := &serialInfo{port: port, path: path, speed: speed}

	switch d.Direction {
	case kplex.DirIn:
		ep := kplex.NewInputEndpoint(d.Name, "serial", readSerial, cleanupSerial, info)
		return []*kplex.Endpoint{ep}, nil
	case kplex.DirOut:
		ep, err := kplex.NewOutputEndpoint(d.Name, "serial", kplex.DefaultQueueSize, writeSerial, cleanupSerial, info)
		if err != nil {
			port.Close()
			return nil, err
		}
		return []*kplex.Endpoint{ep}, nil
	default:
		ep := kplex.NewBothEndpoint(d.Name, "serial", readSerial, writeSerial, cleanupSerial, dupSerial, info)
		return []*kplex.Endpoint{ep}, nil
	}
}

// configureTermios puts port into raw 8N1 mode at the given speed.
func configureTermios(port *goserial.Port, speed goserial.CFlag) error {
	attrs, err := port.GetAttr()
	if err != nil {
		return err
	}
	attrs.MakeRaw()
	attrs.SetSpeed(speed)
	attrs.Cc[goserial.VMIN] = 1
	attrs.Cc[goserial.VTIME] = 0
	return port.SetAttr(goserial.TCSANOW, attrs)
}

func readSerial(ep *kplex.Endpoint) error {
	info := ep.Info.(*serialInfo)

	go func() {
		<-ep.Done()
		info.port.Close()
	}()

	r := bufio.NewReaderSize(info.port, kplex.SENMAX+2)
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

func writeSerial(ep *kplex.Endpoint) error {
	info := ep.Info.(*serialInfo)
	q := ep.Queue()

	for {
		unit := q.Next()
		if unit == nil {
			return nil
		}
		_, err := info.port.Write(append(append([]byte{}, unit.Bytes()...), '\r', '\n'))
		q.Free(unit)
		if err != nil {
			return err
		}
	}
}

func cleanupSerial(ep *kplex.Endpoint) {
	if info, ok := ep.Info.(*serialInfo); ok {
		info.port.Close()
	}
}

// dupSerial gives the OUT half of a split serial endpoint its own
// independently closeable handle on the same device. goserial.Port
// does not expose a way to wrap an already-duplicated file
// descriptor, so this reopens the device by path instead of dup(2)'ing
// the existing one; termios settings live on the tty line itself, not
// per open file description, so the new handle inherits the same
// configured line discipline without needing to be reconfigured.
func dupSerial(v interface{}) (interface{}, error) {
	info := v.(*serialInfo)
	newPort, err := goserial.Open(info.path, nil)
	if err != nil {
		return nil, err
	}
	return &serialInfo{port: newPort, path: info.path, speed: info.speed}, nil
}
