package fasttransport

// clientChannelState is ClientChannel's state machine, per spec §4.4.
type clientChannelState int

const (
	clientIdle clientChannelState = iota
	clientSending
	clientReceiving
)

// ClientChannel is a half-duplex pipeline within a ClientSession
// carrying at most one RPC at a time. Grounded on original_source's
// ClientSession::ClientChannel (FastTransport.cc ~1260-1632).
type ClientChannel struct {
	state      clientChannelState
	rpcId      uint32
	currentRpc *ClientRpc

	inboundMsg  InboundMessage
	outboundMsg OutboundMessage
}

func (c *ClientChannel) setup(t *Transport, s session, channelId uint8) {
	c.inboundMsg.setup(t, s, channelId, true)
	c.outboundMsg.setup(t, s, channelId, true)
}

// assign transitions an IDLE channel to SENDING and starts the RPC's
// request transmission.
func (c *ClientChannel) assign(rpc *ClientRpc) {
	c.state = clientSending
	c.currentRpc = rpc
	c.outboundMsg.beginSending(rpc.requestBuffer)
}

func (c *ClientChannel) processReceivedAck(ack AckResponse) {
	if c.state == clientSending {
		c.outboundMsg.processReceivedAck(ack)
	}
}

// processReceivedData routes an already-addressed DATA fragment. When
// the response completes, it marks the ClientRpc completed and pulls
// the session's next queued RPC onto this channel, if there is one.
func (c *ClientChannel) processReceivedData(s *ClientSession, r *Received, h Header) {
	if c.state == clientIdle {
		return
	}
	if c.state == clientSending {
		c.outboundMsg.clear()
		c.inboundMsg.init(h.TotalFrags, c.currentRpc.responseBuffer)
		c.state = clientReceiving
	}
	if c.inboundMsg.processReceivedData(r, h) {
		completed := c.currentRpc
		completed.completed()
		c.rpcId++
		c.outboundMsg.clear()
		c.inboundMsg.clear()

		if next, ok := s.dequeueChannelQueue(); ok {
			c.state = clientSending
			c.currentRpc = next
			c.outboundMsg.beginSending(next.requestBuffer)
		} else {
			c.state = clientIdle
			c.currentRpc = nil
		}
	}
}
