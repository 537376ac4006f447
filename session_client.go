package fasttransport

import "net"

// ClientSession is a (client, server) binding on the client side. Its
// channels are not allocated until the SESSION_OPEN response arrives;
// RPCs issued before then queue on channelQueue. Grounded on
// original_source's ClientSession (FastTransport.cc ~1260-1632).
type ClientSession struct {
	transport *Transport
	id        uint32

	serverAddr        net.Addr
	serverSessionHint uint32
	token             uint64
	lastActivityTime  uint64
	numTimeouts       uint32

	channels     []ClientChannel
	channelQueue []*ClientRpc
}

func newClientSession(t *Transport, id uint32) *ClientSession {
	return &ClientSession{
		transport:         t,
		id:                id,
		serverSessionHint: InvalidHint,
		token:             InvalidToken,
	}
}

func (s *ClientSession) fillHeader(h *Header, channelId uint8) {
	h.RpcId = s.channels[channelId].rpcId
	h.ChannelId = channelId
	h.Direction = clientToServer
	h.ClientSessionHint = s.id
	h.ServerSessionHint = s.serverSessionHint
	h.SessionToken = s.token
}

func (s *ClientSession) peerAddr() net.Addr { return s.serverAddr }

func (s *ClientSession) noteTimeout() {
	s.numTimeouts++
	threshold := uint32(s.transport.settings.uint64(settNumTimeoutsAbort, DefaultNumTimeoutsAbortThreshold))
	if s.numTimeouts >= threshold {
		s.transport.log.Warnf("fasttransport: client session %d exceeded timeout threshold, closing", s.id)
		s.close()
	}
}

// isConnected reports whether the SESSION_OPEN handshake has
// completed and channels are allocated.
func (s *ClientSession) isConnected() bool { return len(s.channels) != 0 }

// connect sends a SESSION_OPEN request to serverAddr (or reuses the
// previously recorded address when serverAddr is nil, for BAD_SESSION
// recovery).
func (s *ClientSession) connect(serverAddr net.Addr) {
	if serverAddr != nil {
		s.serverAddr = serverAddr
	}

	h := Header{
		Direction:         clientToServer,
		ClientSessionHint: s.id,
		ServerSessionHint: s.serverSessionHint,
		SessionToken:      s.token,
		ChannelId:         0,
		PayloadType:       payloadSessionOpen,
	}
	s.transport.sendPacket(s.serverAddr, h, nil)
	s.lastActivityTime = s.transport.clock.Now()
}

// startRpc assigns rpc to an idle channel, or queues it if none is
// available.
func (s *ClientSession) startRpc(rpc *ClientRpc) {
	s.lastActivityTime = s.transport.clock.Now()
	for i := range s.channels {
		if s.channels[i].state == clientIdle {
			s.channels[i].assign(rpc)
			return
		}
	}
	s.transport.log.Debugf("fasttransport: queueing RPC, no idle channel")
	s.channelQueue = append(s.channelQueue, rpc)
}

// dequeueChannelQueue pops the next queued RPC in FIFO order.
func (s *ClientSession) dequeueChannelQueue() (*ClientRpc, bool) {
	if len(s.channelQueue) == 0 {
		return nil, false
	}
	rpc := s.channelQueue[0]
	s.channelQueue = s.channelQueue[1:]
	return rpc, true
}

// processInboundPacket dispatches by channel id and rpcId, per spec
// §4.5's ClientSession::processInboundPacket.
func (s *ClientSession) processInboundPacket(r *Received, h Header) {
	s.lastActivityTime = s.transport.clock.Now()
	s.numTimeouts = 0

	if int(h.ChannelId) >= len(s.channels) {
		if h.PayloadType == payloadSessionOpen {
			s.processSessionOpenResponse(r, h)
		} else {
			s.transport.log.Debugf("fasttransport: drop due to invalid channel %d", h.ChannelId)
		}
		return
	}

	channel := &s.channels[h.ChannelId]
	if channel.rpcId != h.RpcId {
		if h.PayloadType == payloadData && h.RequestAck {
			s.transport.log.Debugf("fasttransport: stale packet requested ack, ignoring")
		} else {
			s.transport.log.Debugf("fasttransport: drop old packet")
		}
		return
	}

	switch h.PayloadType {
	case payloadData:
		channel.processReceivedData(s, r, h)
	case payloadAck:
		ack, ok := DecodeAckResponse(r.Payload[headerSize:])
		if ok {
			channel.processReceivedAck(ack)
		}
	case payloadBadSession:
		s.handleBadSession()
	default:
		s.transport.log.Debugf("fasttransport: drop current rpcId with bad type")
	}
}

// handleBadSession requeues all in-flight RPCs and reconnects, per
// spec §4.5's BAD_SESSION recovery path.
func (s *ClientSession) handleBadSession() {
	for i := range s.channels {
		if s.channels[i].currentRpc != nil {
			s.channelQueue = append(s.channelQueue, s.channels[i].currentRpc)
		}
	}
	s.clearChannels()
	s.serverSessionHint = InvalidHint
	s.token = InvalidToken
	s.connect(nil)
}

// processSessionOpenResponse completes the handshake, allocates
// channels, and drains the channel queue onto them.
func (s *ClientSession) processSessionOpenResponse(r *Received, h Header) {
	if s.isConnected() {
		return
	}
	resp, ok := DecodeSessionOpenResponse(r.Payload[headerSize:])
	if !ok {
		return
	}

	s.serverSessionHint = h.ServerSessionHint
	s.token = h.SessionToken

	numChannels := uint32(resp.MaxChannelId) + 1
	maxChannels := uint32(s.transport.settings.uint64(settMaxChannelsPerSession, DefaultMaxNumChannelsPerSession))
	if numChannels > maxChannels {
		numChannels = maxChannels
	}

	s.channels = make([]ClientChannel, numChannels)
	for i := range s.channels {
		s.channels[i].setup(s.transport, s, uint8(i))
	}

	for i := range s.channels {
		rpc, ok := s.dequeueChannelQueue()
		if !ok {
			break
		}
		s.channels[i].assign(rpc)
	}
}

// clearChannels discards the channel array, aborting nothing itself;
// callers (close, handleBadSession) are responsible for the RPCs.
func (s *ClientSession) clearChannels() {
	s.channels = nil
}

// close aborts every in-flight and queued RPC and releases channels.
func (s *ClientSession) close() {
	for i := range s.channels {
		if s.channels[i].currentRpc != nil {
			s.channels[i].currentRpc.aborted()
		}
	}
	for _, rpc := range s.channelQueue {
		rpc.aborted()
	}
	s.channelQueue = nil
	s.clearChannels()
	s.serverSessionHint = InvalidHint
	s.token = InvalidToken
}

// expire closes the session if it is fully idle, reporting whether it
// did so.
func (s *ClientSession) expire() bool {
	for i := range s.channels {
		if s.channels[i].currentRpc != nil {
			return false
		}
	}
	if len(s.channelQueue) != 0 {
		return false
	}
	s.close()
	return true
}

func (s *ClientSession) lastActivity() uint64 { return s.lastActivityTime }
