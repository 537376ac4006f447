package fasttransport

import "net"

// fakeSession is a minimal session implementation for unit-testing
// InboundMessage/OutboundMessage in isolation, without a real
// ServerSession/ClientSession and SessionTable wired up.
type fakeSession struct {
	addr     net.Addr
	rpcId    uint32
	timeouts int
}

func (s *fakeSession) fillHeader(h *Header, channelId uint8) {
	h.RpcId = s.rpcId
	h.ChannelId = channelId
	h.SessionToken = 0xAAAA
}

func (s *fakeSession) peerAddr() net.Addr { return s.addr }

func (s *fakeSession) noteTimeout() { s.timeouts++ }

// newTestTransport returns a Transport wired to one half of a
// SimDriver pair, with a virtualClock so timeout-driven behavior is
// advanced deterministically instead of by sleeping. The returned
// *SimDriver is the *peer* side: anything the Transport sends shows up
// there via TryRecvPacket.
func newTestTransport(maxPayload uint32) (*Transport, *virtualClock, *SimDriver) {
	driver, peer := NewSimDriverPair(maxPayload)
	transport := NewTransport(driver, DefaultSettings(), nil)
	clock := newVirtualClock()
	transport.clock = clock
	return transport, clock, peer
}
