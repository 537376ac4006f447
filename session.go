package fasttransport

import (
	"crypto/rand"
	"encoding/binary"
	"net"
)

// session is the contract InboundMessage and OutboundMessage need from
// their enclosing ServerSession/ClientSession: where to send on the
// wire, how to stamp a header, and where to report a reassembly stall.
type session interface {
	fillHeader(h *Header, channelId uint8)
	peerAddr() net.Addr
	noteTimeout()
}

// generateToken mints an unauthenticated 64-bit random session token,
// per spec's explicit non-goal that session tokens disambiguate reuse
// rather than authenticate. crypto/rand is used only because it is the
// readily available stdlib randomness source, not for any security
// property.
func generateToken() uint64 {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return binary.BigEndian.Uint64(b[:])
}
