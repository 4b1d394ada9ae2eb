package adapter

import (
	"net"
	"strconv"

	"github.com/pkg/errors"
	"golang.org/x/net/ipv4"

	"github.com/lanikai/kplex"
)

func init() {
	kplex.Register("broadcast", openBroadcast)
}

type broadcastInfo struct {
	conn *net.UDPConn
	pc   *ipv4.PacketConn
	dst  *net.UDPAddr
}

// openBroadcast implements the UDP broadcast/multicast adapter,
// configured with golang.org/x/net/ipv4 the same way the teacher's
// mDNS client sets up its multicast socket: wrap a *net.UDPConn in an
// ipv4.PacketConn and enable multicast loopback so a broadcast can be
// observed on the same host it was sent from (useful when bridging
// onto localhost for testing). direction=in listens and pushes a
// SenBlk per received datagram (oversize datagrams truncated to
// SENMAX, there is no line framing on this transport); direction=out
// sends one datagram per sentence to the configured address.
func openBroadcast(d *kplex.Descriptor) ([]*kplex.Endpoint, error) {
	addr, ok := d.Key("address")
	if !ok {
		return nil, errors.Errorf("broadcast %q: missing address= key", d.Name)
	}
	port, err := strconv.Atoi(d.KeyOr("port", "10110"))
	if err != nil {
		return nil, errors.Wrapf(err, "broadcast %q: bad port=", d.Name)
	}

	udpAddr := &net.UDPAddr{IP: net.ParseIP(addr), Port: port}
	if udpAddr.IP == nil {
		return nil, errors.Errorf("broadcast %q: bad address %q", d.Name, addr)
	}

	switch d.Direction {
	case kplex.DirIn:
		conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: port})
		if err != nil {
			return nil, errors.Wrapf(err, "broadcast %q", d.Name)
		}
		pc := ipv4.NewPacketConn(conn)
		if err := pc.SetMulticastLoopback(true); err != nil {
			conn.Close()
			return nil, errors.Wrapf(err, "broadcast %q", d.Name)
		}
		info := &broadcastInfo{conn: conn, pc: pc}
		ep := kplex.NewInputEndpoint(d.Name, "broadcast", readBroadcast, cleanupBroadcast, info)
		return []*kplex.Endpoint{ep}, nil

	case kplex.DirOut:
		conn, err := net.ListenUDP("udp4", &net.UDPAddr{})
		if err != nil {
			return nil, errors.Wrapf(err, "broadcast %q", d.Name)
		}
		pc := ipv4.NewPacketConn(conn)
		if err := pc.SetMulticastLoopback(true); err != nil {
			conn.Close()
			return nil, errors.Wrapf(err, "broadcast %q", d.Name)
		}
		info := &broadcastInfo{conn: conn, pc: pc, dst: udpAddr}
		ep, err := kplex.NewOutputEndpoint(d.Name, "broadcast", kplex.DefaultQueueSize, writeBroadcast, cleanupBroadcast, info)
		if err != nil {
			conn.Close()
			return nil, err
		}
		return []*kplex.Endpoint{ep}, nil

	default:
		return nil, errors.Wrapf(kplex.ErrBadDirection, "broadcast %q", d.Name)
	}
}

func readBroadcast(ep *kplex.Endpoint) error {
	info := ep.Info.(*broadcastInfo)

	go func() {
		<-ep.Done()
		info.conn.Close()
	}()

	buf := make([]byte, kplex.SENMAX)
	for {
		n, _, err := info.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ep.Done():
				return nil
			default:
				return err
			}
		}
		ep.Queue().Push(kplex.NewSenBlk(ep, buf[:n]))
	}
}

func writeBroadcast(ep *kplex.Endpoint) error {
	info := ep.Info.(*broadcastInfo)
	q := ep.Queue()

	for {
		unit := q.Next()
		if unit == nil {
			return nil
		}
		_, err := info.conn.WriteToUDP(unit.Bytes(), info.dst)
		q.Free(unit)
		if err != nil {
			return err
		}
	}
}

func cleanupBroadcast(ep *kplex.Endpoint) {
	if info, ok := ep.Info.(*broadcastInfo); ok {
		info.conn.Close()
	}
}
