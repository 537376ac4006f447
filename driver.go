package fasttransport

import "net"

// Driver is the unreliable datagram transport fasttransport is layered
// on: fixed-size payload, possible loss, reorder, duplication. It is
// exclusively owned by a single Transport.
type Driver interface {
	// SendPacket transmits header followed by payload to addr,
	// fire-and-forget; no ownership transfer of either.
	SendPacket(addr net.Addr, header []byte, payload *Buffer) error

	// TryRecvPacket is non-blocking. It reports false if nothing is
	// pending.
	TryRecvPacket() (Received, bool)

	// Release returns memory previously stolen from a Received via
	// Steal.
	Release(buf []byte)

	// MaxPayloadSize bounds the total datagram size a single send or
	// receive may use, header included.
	MaxPayloadSize() uint32

	// LocalAddr reports the address packets are received on.
	LocalAddr() net.Addr

	// Close releases any underlying socket. Safe to call once.
	Close() error
}

// Received wraps one inbound datagram. Payload is valid until Steal or
// the next TryRecvPacket call on the owning Driver; Steal transfers
// ownership to the caller, who must eventually call Driver.Release.
type Received struct {
	Addr    net.Addr
	Payload []byte

	stolen bool
}

// Steal transfers ownership of the backing memory to the caller. It
// must be called at most once per Received.
func (r *Received) Steal() []byte {
	r.stolen = true
	return r.Payload
}

// GetOffset returns the sub-slice of Payload starting at off, bounds
// checked, mirroring original_source's Received::getOffset<T>.
func (r *Received) GetOffset(off int) ([]byte, bool) {
	if off < 0 || off > len(r.Payload) {
		return nil, false
	}
	return r.Payload[off:], true
}
