package fasttransport

// serverChannelState is ServerChannel's state machine, per spec §4.4.
type serverChannelState int

const (
	serverIdle serverChannelState = iota
	serverReceiving
	serverProcessing
	serverSendingWaiting
)

// ServerChannel is a half-duplex pipeline within a ServerSession
// carrying at most one RPC at a time. Grounded on original_source's
// ServerSession::ServerChannel (FastTransport.cc ~960-1232).
type ServerChannel struct {
	state      serverChannelState
	rpcId      uint32
	currentRpc *ServerRpc

	inboundMsg  InboundMessage
	outboundMsg OutboundMessage
}

func (c *ServerChannel) setup(t *Transport, s session, channelId uint8) {
	c.rpcId = ^uint32(0)
	c.inboundMsg.setup(t, s, channelId, true)
	c.outboundMsg.setup(t, s, channelId, true)
}

// reset returns the channel to IDLE between RPCs.
func (c *ServerChannel) reset() {
	c.state = serverIdle
	c.rpcId = ^uint32(0)
	c.currentRpc = nil
	c.inboundMsg.clear()
	c.outboundMsg.clear()
}

// processReceivedData routes an already-addressed DATA fragment by
// current state, per spec §4.4/§4.5 ServerSession::processReceivedData.
func (c *ServerChannel) processReceivedData(t *Transport, r *Received, h Header) {
	switch c.state {
	case serverIdle:
		// dropped: caller only reaches here after confirming the
		// fragment belongs to the channel's current or next rpcId.
	case serverReceiving:
		if c.inboundMsg.processReceivedData(r, h) {
			t.enqueueReady(c.currentRpc)
			c.state = serverProcessing
		}
	case serverProcessing:
		// ACK semantics when the request is fully received but the
		// channel is PROCESSING: preserved per spec's Open Question
		// on client-side loss recovery.
		if h.RequestAck {
			c.inboundMsg.sendAck()
		}
	case serverSendingWaiting:
		// Extraneous DATA while SENDING_WAITING: the source marks
		// this as needing further understanding; preserved here as a
		// defensive retransmit per spec's Open Question.
		t.log.Warnf("fasttransport: extraneous data on SENDING_WAITING channel")
		c.outboundMsg.send()
	}
}

func (c *ServerChannel) processReceivedAck(ack AckResponse) {
	if c.state == serverSendingWaiting {
		c.outboundMsg.processReceivedAck(ack)
	}
}

// beginSending transitions PROCESSING to SENDING_WAITING and starts
// transmitting the RPC's reply.
func (c *ServerChannel) beginSending() {
	c.state = serverSendingWaiting
	c.outboundMsg.beginSending(c.currentRpc.replyPayload)
}
