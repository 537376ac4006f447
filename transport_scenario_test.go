package fasttransport

import "testing"

// TestScenarioLossyLargeRequestRetransmits covers spec §8.2: a
// multi-fragment request loses one fragment in transit; the server's
// selective ACK lets the client retransmit only the missing fragment,
// and the request still completes.
func TestScenarioLossyLargeRequestRetransmits(t *testing.T) {
	dataPerFragment := uint32(100)
	clientDriver, serverDriver := NewSimDriverPair(headerSize + dataPerFragment)

	client := NewTransport(clientDriver, DefaultSettings(), nil)
	clientClock := newVirtualClock()
	client.clock = clientClock

	server := NewTransport(serverDriver, DefaultSettings(), nil)
	serverClock := newVirtualClock()
	server.clock = serverClock

	dropped := false
	clientDriver.DropOnce = func(hdr, payload []byte) bool {
		h, ok := DecodeHeader(hdr)
		if ok && !dropped && h.PayloadType == payloadData && h.FragNumber == 2 {
			dropped = true
			return true
		}
		return false
	}

	body := make([]byte, 550) // 6 fragments of 100 bytes (last partial)
	for i := range body {
		body[i] = byte('a' + i%26)
	}
	request := NewBuffer()
	request.Append(body, nil)
	response := NewBuffer()

	rpc, err := client.ClientSend(server.driver.LocalAddr(), request, response)
	if err != nil {
		t.Fatalf("ClientSend returned %v", err)
	}

	var serverRpc *ServerRpc
	for i := 0; i < 10 && serverRpc == nil; i++ {
		client.poll()
		server.poll()
		if len(server.serverReady) > 0 {
			serverRpc = server.serverReady[0]
			server.serverReady = server.serverReady[1:]
		}
	}
	if serverRpc != nil {
		t.Fatalf("request should not complete with fragment 2 missing")
	}
	if !dropped {
		t.Fatalf("test setup failed: fragment 2 was never dropped")
	}

	// Advance past the retransmit timeout. The timers fire, the server's
	// ACK reports fragment 2 missing with 3-5 staged, and the client then
	// retransmits fragment 2.
	clientClock.Advance(DefaultTimeout + 1)
	serverClock.Advance(DefaultTimeout + 1)

	for i := 0; i < 20 && serverRpc == nil; i++ {
		client.poll()
		server.poll()
		if len(server.serverReady) > 0 {
			serverRpc = server.serverReady[0]
			server.serverReady = server.serverReady[1:]
		}
	}
	if serverRpc == nil {
		t.Fatalf("request never completed after retransmit")
	}
	if got := serverRpc.RequestPayload().Bytes(); string(got) != string(body) {
		t.Errorf("reassembled request does not match original body")
	}
}

// TestScenarioBadSessionRecovery covers spec §8.5: the client holds a
// session hint/token the server no longer recognizes (simulating a
// server restart). The server's BAD_SESSION reply drives the client to
// requeue its in-flight RPC, reconnect, and complete once a fresh
// SESSION_OPEN handshake finishes.
func TestScenarioBadSessionRecovery(t *testing.T) {
	client, server, _, _ := newTransportPair(t, 1400)

	// Complete one RPC normally to establish a live, connected
	// ClientSession with the server.
	request1 := NewBuffer()
	request1.Append([]byte("before-restart"), nil)
	response1 := NewBuffer()
	rpc1, err := client.ClientSend(server.driver.LocalAddr(), request1, response1)
	if err != nil {
		t.Fatalf("ClientSend returned %v", err)
	}

	var serverRpc1 *ServerRpc
	for i := 0; i < 10 && serverRpc1 == nil; i++ {
		client.poll()
		server.poll()
		if len(server.serverReady) > 0 {
			serverRpc1 = server.serverReady[0]
			server.serverReady = server.serverReady[1:]
		}
	}
	if serverRpc1 == nil {
		t.Fatalf("setup failed: first request never reached the server")
	}
	serverRpc1.ReplyPayload().Append([]byte("ok"), nil)
	serverRpc1.SendReply()
	for i := 0; i < 10 && rpc1.state != rpcCompleted; i++ {
		client.poll()
		server.poll()
	}
	if rpc1.state != rpcCompleted {
		t.Fatalf("setup failed: first RPC never completed")
	}

	// Simulate a server restart: every session is forgotten, so the
	// client's still-valid-looking hint/token no longer resolves.
	server.serverSessions = newSessionTable(func(id uint32) *ServerSession { return newServerSession(server, id) })

	// Issue a second RPC on the same (now-stale) ClientSession.
	clientSession := rpc1.session
	request2 := NewBuffer()
	request2.Append([]byte("after-restart"), nil)
	response2 := NewBuffer()
	rpc2 := &ClientRpc{
		transport: client, session: clientSession, state: rpcInProgress,
		requestBuffer: request2, responseBuffer: response2, serviceAddr: server.driver.LocalAddr(),
	}
	clientSession.startRpc(rpc2)

	// The stale DATA fragment elicits BAD_SESSION; the client should
	// requeue rpc2, reconnect, and a fresh handshake should redeliver
	// the request to the (new) server session.
	var serverRpc2 *ServerRpc
	for i := 0; i < 20 && serverRpc2 == nil; i++ {
		client.poll()
		server.poll()
		if len(server.serverReady) > 0 {
			serverRpc2 = server.serverReady[0]
			server.serverReady = server.serverReady[1:]
		}
	}
	if serverRpc2 == nil {
		t.Fatalf("request never redelivered after BAD_SESSION recovery")
	}
	if got := serverRpc2.RequestPayload().Bytes(); string(got) != "after-restart" {
		t.Errorf("unexpected redelivered request payload %q", got)
	}
}
