package fasttransport

import "encoding/binary"

// payloadType enumerates the kind of payload following a Header on the
// wire.
type payloadType uint8

const (
	payloadData payloadType = iota
	payloadAck
	payloadSessionOpen
	payloadBadSession
)

// direction distinguishes client-originated from server-originated
// datagrams; it is packed into Header.flags rather than carried as its
// own byte, per the Design Notes' instruction to lay out bitfields
// explicitly instead of relying on compiler packing.
type direction uint8

const (
	clientToServer direction = 0
	serverToClient direction = 1
)

const (
	flagDirection   byte = 1 << 0
	flagRequestAck  byte = 1 << 1
	flagPleaseDrop  byte = 1 << 2
)

// headerSize is sizeof(Header) on the wire: 8+4+4+4+2+2+1+1+1 bytes.
const headerSize = 27

// Header is present on every datagram, fixed-size and big-endian.
// Field widths resolve the spec's Open Question on rpcId/channelId by
// following original_source's actual arithmetic: rpcId is a 32-bit
// counter (channel->rpcId + 1 == header->rpcId), channelId is 8 bits.
type Header struct {
	SessionToken       uint64
	RpcId              uint32
	ClientSessionHint  uint32
	ServerSessionHint  uint32
	FragNumber         uint16
	TotalFrags         uint16
	ChannelId          uint8
	Direction          direction
	RequestAck         bool
	PleaseDrop         bool
	PayloadType        payloadType
}

// Encode writes the header's wire form into dst, which must be at
// least headerSize bytes, and returns the number of bytes written.
func (h *Header) Encode(dst []byte) int {
	binary.BigEndian.PutUint64(dst[0:8], h.SessionToken)
	binary.BigEndian.PutUint32(dst[8:12], h.RpcId)
	binary.BigEndian.PutUint32(dst[12:16], h.ClientSessionHint)
	binary.BigEndian.PutUint32(dst[16:20], h.ServerSessionHint)
	binary.BigEndian.PutUint16(dst[20:22], h.FragNumber)
	binary.BigEndian.PutUint16(dst[22:24], h.TotalFrags)
	dst[24] = h.ChannelId

	var flags byte
	if h.Direction == serverToClient {
		flags |= flagDirection
	}
	if h.RequestAck {
		flags |= flagRequestAck
	}
	if h.PleaseDrop {
		flags |= flagPleaseDrop
	}
	dst[25] = flags
	dst[26] = byte(h.PayloadType)
	return headerSize
}

// DecodeHeader parses a Header from the front of src. It reports false
// if src is shorter than headerSize, which the dispatcher treats as an
// invalid packet to be discarded per spec §4.1 rule 1.
func DecodeHeader(src []byte) (Header, bool) {
	var h Header
	if len(src) < headerSize {
		return h, false
	}
	h.SessionToken = binary.BigEndian.Uint64(src[0:8])
	h.RpcId = binary.BigEndian.Uint32(src[8:12])
	h.ClientSessionHint = binary.BigEndian.Uint32(src[12:16])
	h.ServerSessionHint = binary.BigEndian.Uint32(src[16:20])
	h.FragNumber = binary.BigEndian.Uint16(src[20:22])
	h.TotalFrags = binary.BigEndian.Uint16(src[22:24])
	h.ChannelId = src[24]

	flags := src[25]
	if flags&flagDirection != 0 {
		h.Direction = serverToClient
	} else {
		h.Direction = clientToServer
	}
	h.RequestAck = flags&flagRequestAck != 0
	h.PleaseDrop = flags&flagPleaseDrop != 0
	h.PayloadType = payloadType(src[26])
	return h, true
}

// ackResponseSize is sizeof(AckResponse): firstMissingFrag u16 +
// stagingVector u32.
const ackResponseSize = 6

// AckResponse is the payload of a payloadAck datagram. Bit i of
// StagingVector set means the fragment at FirstMissingFrag+1+i has
// been received into the receiver's staging ring.
type AckResponse struct {
	FirstMissingFrag uint16
	StagingVector    uint32
}

func (a *AckResponse) Encode(dst []byte) int {
	binary.BigEndian.PutUint16(dst[0:2], a.FirstMissingFrag)
	binary.BigEndian.PutUint32(dst[2:6], a.StagingVector)
	return ackResponseSize
}

func DecodeAckResponse(src []byte) (AckResponse, bool) {
	var a AckResponse
	if len(src) < ackResponseSize {
		return a, false
	}
	a.FirstMissingFrag = binary.BigEndian.Uint16(src[0:2])
	a.StagingVector = binary.BigEndian.Uint32(src[2:6])
	return a, true
}

// sessionOpenResponseSize is sizeof(SessionOpenResponse): maxChannelId u8.
const sessionOpenResponseSize = 1

// SessionOpenResponse is the payload of a server's reply to a
// payloadSessionOpen request.
type SessionOpenResponse struct {
	MaxChannelId uint8
}

func (s *SessionOpenResponse) Encode(dst []byte) int {
	dst[0] = s.MaxChannelId
	return sessionOpenResponseSize
}

func DecodeSessionOpenResponse(src []byte) (SessionOpenResponse, bool) {
	var s SessionOpenResponse
	if len(src) < sessionOpenResponseSize {
		return s, false
	}
	s.MaxChannelId = src[0]
	return s, true
}
