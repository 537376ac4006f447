package fasttransport

import (
	"net"
	"testing"
)

func newRpcWithBuffers(t *testing.T, session *ClientSession, serviceAddr net.Addr, request string) *ClientRpc {
	t.Helper()
	req := NewBuffer()
	req.Append([]byte(request), nil)
	return &ClientRpc{
		session:        session,
		state:          rpcInProgress,
		requestBuffer:  req,
		responseBuffer: NewBuffer(),
		serviceAddr:    serviceAddr,
	}
}

func TestClientSessionConnectSendsSessionOpen(t *testing.T) {
	transport, _, driver := newTestTransport(1400)
	session, id := transport.clientSessions.get()

	serverAddr := &net.UDPAddr{Port: 8000}
	session.connect(serverAddr)

	pkt, ok := driver.TryRecvPacket()
	if !ok {
		t.Fatalf("expected a SESSION_OPEN request")
	}
	h, ok := DecodeHeader(pkt.Payload)
	if !ok || h.PayloadType != payloadSessionOpen {
		t.Fatalf("expected SESSION_OPEN, got %+v", h)
	}
	if h.ClientSessionHint != id {
		t.Errorf("expected ClientSessionHint=%d, got %d", id, h.ClientSessionHint)
	}
}

func TestClientSessionStartRpcQueuesWhenNoIdleChannel(t *testing.T) {
	transport, _, _ := newTestTransport(1400)
	session, _ := transport.clientSessions.get()

	// Simulate a completed handshake with a single channel.
	session.channels = make([]ClientChannel, 1)
	session.channels[0].setup(transport, session, 0)
	session.channels[0].state = clientSending // busy

	rpc := newRpcWithBuffers(t, session, nil, "queued")
	session.startRpc(rpc)

	if len(session.channelQueue) != 1 {
		t.Fatalf("expected the RPC to queue, got channelQueue len=%d", len(session.channelQueue))
	}
}

// TestClientSessionQueuedRpcsDrainFIFO covers spec §8.6: once earlier
// RPCs complete, queued RPCs begin sending in FIFO order.
func TestClientSessionQueuedRpcsDrainFIFO(t *testing.T) {
	transport, _, driver := newTestTransport(headerSize + 100)
	session, id := transport.clientSessions.get()

	session.channels = make([]ClientChannel, 1)
	session.channels[0].setup(transport, session, 0)

	first := newRpcWithBuffers(t, session, nil, "first")
	second := newRpcWithBuffers(t, session, nil, "second")
	session.startRpc(first)
	session.startRpc(second)

	if session.channels[0].currentRpc != first {
		t.Fatalf("expected the first RPC assigned directly to the channel")
	}
	if len(session.channelQueue) != 1 || session.channelQueue[0] != second {
		t.Fatalf("expected the second RPC queued FIFO")
	}
	drainData(t, driver) // the first RPC's request fragment

	// Server replies to the first RPC's request.
	h := Header{
		SessionToken: session.token, RpcId: 0, ClientSessionHint: id,
		ServerSessionHint: session.serverSessionHint, ChannelId: 0, TotalFrags: 1,
		PayloadType: payloadData, Direction: serverToClient,
	}
	r := buildPacket(h, []byte("reply"))
	session.processInboundPacket(r, h)

	if first.state != rpcCompleted {
		t.Fatalf("expected the first RPC to complete, state=%v", first.state)
	}
	if session.channels[0].currentRpc != second {
		t.Fatalf("expected the queued RPC to begin sending next")
	}
	if len(session.channelQueue) != 0 {
		t.Errorf("expected the queue drained")
	}
}

func TestClientSessionHandleBadSessionRequeuesAndReconnects(t *testing.T) {
	transport, _, driver := newTestTransport(1400)
	session, _ := transport.clientSessions.get()
	session.serverAddr = &net.UDPAddr{Port: 8001}
	session.serverSessionHint = 3
	session.token = 0xABCD

	session.channels = make([]ClientChannel, 1)
	session.channels[0].setup(transport, session, 0)
	rpc := newRpcWithBuffers(t, session, nil, "in-flight")
	session.channels[0].state = clientSending
	session.channels[0].currentRpc = rpc

	session.handleBadSession()

	if len(session.channelQueue) != 1 || session.channelQueue[0] != rpc {
		t.Fatalf("expected the in-flight RPC requeued")
	}
	if session.isConnected() {
		t.Errorf("expected channels cleared pending reconnection")
	}
	if session.token != InvalidToken || session.serverSessionHint != InvalidHint {
		t.Errorf("expected token/hint invalidated")
	}

	pkt, ok := driver.TryRecvPacket()
	if !ok {
		t.Fatalf("expected a reconnect SESSION_OPEN")
	}
	h, _ := DecodeHeader(pkt.Payload)
	if h.PayloadType != payloadSessionOpen {
		t.Errorf("expected SESSION_OPEN on reconnect, got %+v", h)
	}
}

func TestClientSessionProcessSessionOpenResponseDrainsQueue(t *testing.T) {
	transport, _, _ := newTestTransport(1400)
	session, id := transport.clientSessions.get()
	session.serverAddr = &net.UDPAddr{Port: 8002}

	rpc := newRpcWithBuffers(t, session, nil, "queued-before-connect")
	session.channelQueue = append(session.channelQueue, rpc)

	h := Header{
		ServerSessionHint: 9, SessionToken: 0x1234,
		ClientSessionHint: id, ChannelId: 99, PayloadType: payloadSessionOpen,
		Direction: serverToClient,
	}
	resp := SessionOpenResponse{MaxChannelId: 3}
	payload := make([]byte, sessionOpenResponseSize)
	resp.Encode(payload)
	r := buildPacket(h, payload)

	session.processInboundPacket(r, h)

	if !session.isConnected() {
		t.Fatalf("expected the session connected after SESSION_OPEN response")
	}
	if len(session.channels) != 4 {
		t.Errorf("expected 4 channels (MaxChannelId=3), got %d", len(session.channels))
	}
	if session.channels[0].currentRpc != rpc {
		t.Errorf("expected the queued RPC assigned to channel 0")
	}
	if len(session.channelQueue) != 0 {
		t.Errorf("expected the queue drained")
	}
}

func TestClientSessionExpireClosesWhenFullyIdle(t *testing.T) {
	transport, _, _ := newTestTransport(1400)
	session, _ := transport.clientSessions.get()
	session.channels = make([]ClientChannel, 1)
	session.channels[0].setup(transport, session, 0)

	if !session.expire() {
		t.Fatalf("expected an idle session to expire")
	}
	if session.isConnected() {
		t.Errorf("expected channels cleared after expire")
	}
}

func TestClientSessionExpireRefusesWithInFlightRpc(t *testing.T) {
	transport, _, _ := newTestTransport(1400)
	session, _ := transport.clientSessions.get()
	session.channels = make([]ClientChannel, 1)
	session.channels[0].setup(transport, session, 0)
	session.channels[0].currentRpc = newRpcWithBuffers(t, session, nil, "busy")

	if session.expire() {
		t.Errorf("expected expire() to refuse with an in-flight RPC")
	}
}
