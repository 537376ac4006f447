package fasttransport

import (
	"net"
	"sync"
	"time"
)

// udpMaxPayload is a conservative UDP datagram size kept well under
// common path MTUs, so fragmentation stays fasttransport's job rather
// than the IP layer's.
const udpMaxPayload = 1400

// UDPDriver is a Driver backed by a net.PacketConn. Packet buffers are
// pooled with sync.Pool, the same pooling idiom the teacher uses for
// its read/write buffers, to keep poll() allocation-free on the
// steady-state path.
type UDPDriver struct {
	conn net.PacketConn
	pool sync.Pool
}

// NewUDPDriver opens a UDP socket at addr ("" picks an ephemeral
// port). addr may be a client-side "" or a server-side ":port".
func NewUDPDriver(addr string) (*UDPDriver, error) {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, err
	}
	d := &UDPDriver{conn: conn}
	d.pool.New = func() interface{} {
		return make([]byte, udpMaxPayload)
	}
	return d, nil
}

func (d *UDPDriver) SendPacket(addr net.Addr, header []byte, payload *Buffer) error {
	buf := d.pool.Get().([]byte)[:0]
	defer d.pool.Put(buf) //nolint:staticcheck // size reset by [:0] above, reused verbatim

	buf = append(buf, header...)
	if payload != nil {
		payload.Iterate(func(data []byte) bool {
			buf = append(buf, data...)
			return true
		})
	}
	_, err := d.conn.WriteTo(buf, addr)
	return err
}

func (d *UDPDriver) TryRecvPacket() (Received, bool) {
	buf := d.pool.Get().([]byte)
	buf = buf[:cap(buf)]

	if err := d.conn.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
		d.pool.Put(buf)
		return Received{}, false
	}
	n, addr, err := d.conn.ReadFrom(buf)
	if err != nil {
		d.pool.Put(buf)
		return Received{}, false
	}
	return Received{Addr: addr, Payload: buf[:n]}, true
}

func (d *UDPDriver) Release(buf []byte) {
	d.pool.Put(buf[:cap(buf)]) //nolint:staticcheck
}

func (d *UDPDriver) MaxPayloadSize() uint32 { return udpMaxPayload }

func (d *UDPDriver) LocalAddr() net.Addr { return d.conn.LocalAddr() }

func (d *UDPDriver) Close() error { return d.conn.Close() }
