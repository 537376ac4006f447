package fasttransport

import "net"

// ServerSession is a (client, server) binding on the server side,
// multiplexing concurrent RPCs across a fixed number of channels.
// Grounded on original_source's ServerSession
// (FastTransport.cc ~960-1232).
type ServerSession struct {
	transport *Transport
	id        uint32

	clientAddr        net.Addr
	clientSessionHint uint32
	token             uint64
	lastActivityTime  uint64
	numTimeouts       uint32

	channels []ServerChannel
}

func newServerSession(t *Transport, id uint32) *ServerSession {
	s := &ServerSession{
		transport:         t,
		id:                id,
		clientSessionHint: InvalidHint,
		token:             InvalidToken,
		channels:          make([]ServerChannel, t.settings.uint64(settNumChannelsPerSession, DefaultNumChannelsPerSession)),
	}
	for i := range s.channels {
		s.channels[i].setup(t, s, uint8(i))
	}
	return s
}

func (s *ServerSession) fillHeader(h *Header, channelId uint8) {
	h.RpcId = s.channels[channelId].rpcId
	h.ChannelId = channelId
	h.Direction = serverToClient
	h.ClientSessionHint = s.clientSessionHint
	h.ServerSessionHint = s.id
	h.SessionToken = s.token
}

func (s *ServerSession) peerAddr() net.Addr { return s.clientAddr }

func (s *ServerSession) noteTimeout() {
	s.numTimeouts++
	threshold := uint32(s.transport.settings.uint64(settNumTimeoutsAbort, DefaultNumTimeoutsAbortThreshold))
	if s.numTimeouts >= threshold {
		s.transport.log.Warnf("fasttransport: server session %d exceeded timeout threshold, closing", s.id)
		s.close()
	}
}

// close forces every channel back to IDLE and invalidates the token and
// hint, mirroring ClientSession.close. Unlike the client side, a
// ServerRpc carries no abort state for the application to observe: the
// handler that is mid-PROCESSING simply finds its reply can no longer
// reach the client once the channel is reset under it.
func (s *ServerSession) close() {
	for i := range s.channels {
		if s.channels[i].state != serverIdle {
			s.channels[i].reset()
		}
	}
	s.token = InvalidToken
	s.clientSessionHint = InvalidHint
	s.lastActivityTime = 0
	s.clientAddr = nil
}

// startSession mints a token, records the client's address and hint,
// and replies with a SESSION_OPEN response naming the server's channel
// cardinality.
func (s *ServerSession) startSession(clientAddr net.Addr, clientSessionHint uint32) {
	s.clientAddr = clientAddr
	s.clientSessionHint = clientSessionHint
	s.token = generateToken()

	h := Header{
		Direction:         serverToClient,
		ClientSessionHint: clientSessionHint,
		ServerSessionHint: s.id,
		SessionToken:      s.token,
		ChannelId:         0,
		PayloadType:       payloadSessionOpen,
	}

	resp := SessionOpenResponse{MaxChannelId: uint8(len(s.channels) - 1)}
	payload := NewBuffer()
	buf := make([]byte, sessionOpenResponseSize)
	resp.Encode(buf)
	payload.Append(buf, nil)

	s.transport.sendPacket(clientAddr, h, payload)
	s.lastActivityTime = s.transport.clock.Now()
}

// beginSending transitions channelId from PROCESSING to
// SENDING_WAITING and starts the reply.
func (s *ServerSession) beginSending(channelId uint8) {
	s.channels[channelId].beginSending()
	s.lastActivityTime = s.transport.clock.Now()
}

// processInboundPacket dispatches by channel id and rpcId, per spec
// §4.5's ServerSession::processInboundPacket.
func (s *ServerSession) processInboundPacket(r *Received, h Header) {
	s.lastActivityTime = s.transport.clock.Now()
	s.numTimeouts = 0

	if int(h.ChannelId) >= len(s.channels) {
		s.transport.log.Debugf("fasttransport: drop due to invalid channel %d", h.ChannelId)
		return
	}

	channel := &s.channels[h.ChannelId]
	switch {
	case channel.rpcId == h.RpcId:
		switch h.PayloadType {
		case payloadData:
			channel.processReceivedData(s.transport, r, h)
		case payloadAck:
			ack, ok := DecodeAckResponse(r.Payload[headerSize:])
			if ok {
				channel.processReceivedAck(ack)
			}
		default:
			s.transport.log.Debugf("fasttransport: drop current rpcId with bad type")
		}

	case channel.rpcId+1 == h.RpcId:
		switch h.PayloadType {
		case payloadData:
			channel.reset()
			channel.state = serverReceiving
			channel.rpcId = h.RpcId
			channel.currentRpc = newServerRpc(s, h.ChannelId)
			channel.inboundMsg.init(h.TotalFrags, channel.currentRpc.recvPayload)
			channel.processReceivedData(s.transport, r, h)
		default:
			s.transport.log.Debugf("fasttransport: drop new rpcId with bad type")
		}

	default:
		s.transport.log.Debugf("fasttransport: drop old packet")
	}
}

// expire resets the session to free, provided no channel is
// PROCESSING. Returns false (cannot expire yet) otherwise.
func (s *ServerSession) expire() bool {
	if s.lastActivityTime == 0 {
		return true
	}
	for i := range s.channels {
		if s.channels[i].state == serverProcessing {
			return false
		}
	}
	for i := range s.channels {
		if s.channels[i].state != serverIdle {
			s.channels[i].reset()
		}
	}
	s.token = InvalidToken
	s.clientSessionHint = InvalidHint
	s.lastActivityTime = 0
	s.clientAddr = nil
	return true
}

func (s *ServerSession) lastActivity() uint64 { return s.lastActivityTime }
