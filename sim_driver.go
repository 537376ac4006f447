package fasttransport

import "net"

// simAddr identifies one endpoint of a SimDriver pair.
type simAddr string

func (a simAddr) Network() string { return "sim" }
func (a simAddr) String() string  { return string(a) }

// SimDriver is an in-memory Driver for deterministic tests: two
// SimDrivers constructed by NewSimDriverPair exchange datagrams via
// buffered channels instead of a socket, and expose hooks to drop or
// duplicate specific fragments so tests can reproduce the scenarios in
// spec.md §8 exactly. Packets are delivered in send order; there is no
// reorder hook.
type SimDriver struct {
	self, peer simAddr
	maxPayload uint32
	inbox      chan simPacket

	// DropOnce, if non-nil, is consulted once per outbound packet
	// before it reaches the peer's inbox; returning true consumes one
	// drop and discards the packet.
	DropOnce func(hdr []byte, payload []byte) bool

	// DuplicateOnce, mirrored, re-enqueues the packet an extra time
	// when it returns true.
	DuplicateOnce func(hdr []byte, payload []byte) bool

	peerInbox chan simPacket
}

type simPacket struct {
	from net.Addr
	data []byte
}

// NewSimDriverPair returns two SimDrivers, each other's peer, sharing
// no state but a pair of channels.
func NewSimDriverPair(maxPayload uint32) (*SimDriver, *SimDriver) {
	aInbox := make(chan simPacket, 256)
	bInbox := make(chan simPacket, 256)

	a := &SimDriver{self: "simA", peer: "simB", maxPayload: maxPayload, inbox: aInbox, peerInbox: bInbox}
	b := &SimDriver{self: "simB", peer: "simA", maxPayload: maxPayload, inbox: bInbox, peerInbox: aInbox}
	return a, b
}

func (d *SimDriver) SendPacket(addr net.Addr, header []byte, payload *Buffer) error {
	buf := make([]byte, 0, len(header)+64)
	buf = append(buf, header...)
	if payload != nil {
		payload.Iterate(func(data []byte) bool {
			buf = append(buf, data...)
			return true
		})
	}

	if d.DropOnce != nil && d.DropOnce(header, buf[len(header):]) {
		return nil
	}
	pkt := simPacket{from: simAddr(d.self), data: buf}
	d.peerInbox <- pkt
	if d.DuplicateOnce != nil && d.DuplicateOnce(header, buf[len(header):]) {
		d.peerInbox <- pkt
	}
	return nil
}

func (d *SimDriver) TryRecvPacket() (Received, bool) {
	select {
	case pkt := <-d.inbox:
		return Received{Addr: pkt.from, Payload: pkt.data}, true
	default:
		return Received{}, false
	}
}

func (d *SimDriver) Release(buf []byte) {}

func (d *SimDriver) MaxPayloadSize() uint32 { return d.maxPayload }

func (d *SimDriver) LocalAddr() net.Addr { return simAddr(d.self) }

func (d *SimDriver) Close() error { return nil }
