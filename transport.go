package fasttransport

import (
	"io"
	"math/rand"
	"net"
)

// Transport is the top-level dispatcher: it owns the driver, the two
// session tables, the ready-RPC queue for server-side delivery, and
// the timer list. Grounded on original_source's FastTransport
// (FastTransport.cc ~25-285).
type Transport struct {
	driver   Driver
	settings Settings
	log      Logger
	clock    MonotonicTicks

	clientSessions *SessionTable[*ClientSession]
	serverSessions *SessionTable[*ServerSession]

	serverReady []*ServerRpc
	timers      timerList

	stats *transportStats

	closed bool
}

// NewTransport attaches a Transport to driver. settings and logger may
// be nil, in which case DefaultSettings() and a golog.SystemLog logger
// are used.
func NewTransport(driver Driver, settings Settings, logger Logger) *Transport {
	if settings == nil {
		settings = DefaultSettings()
	}
	t := &Transport{
		driver:   driver,
		settings: settings,
		clock:    newRealClock(),
	}
	t.log = setLogger(logger, settings)
	t.clientSessions = newSessionTable(func(id uint32) *ClientSession { return newClientSession(t, id) })
	t.serverSessions = newSessionTable(func(id uint32) *ServerSession { return newServerSession(t, id) })

	name := settings.str(settTransportName, "")
	if name == "" {
		name = driver.LocalAddr().String()
	}
	t.stats = newTransportStats(name)
	return t
}

// Stat reports a single named counter (e.g. "tx_fragments",
// "dropped_packets") and whether it exists.
func (t *Transport) Stat(name string) (uint64, bool) {
	v, ok := t.stats.snapshot()[name]
	return v, ok
}

// Stats returns a snapshot of every counter this Transport tracks,
// keyed by the same bare names Stat accepts.
func (t *Transport) Stats() map[string]uint64 {
	return t.stats.snapshot()
}

// WriteStats appends this Transport's counters, labelled by its
// transport name, to w in Prometheus exposition format.
func (t *Transport) WriteStats(w io.Writer) {
	t.stats.WritePrometheus(w)
}

func (t *Transport) dataPerFragment() uint32 {
	return t.driver.MaxPayloadSize() - headerSize
}

func (t *Transport) timeoutTicks() uint64 {
	return t.settings.uint64(settTimeoutNs, uint64(DefaultTimeout.Nanoseconds()))
}

func (t *Transport) enqueueReady(rpc *ServerRpc) {
	t.serverReady = append(t.serverReady, rpc)
}

// sendPacket transmits header+payload through the driver, applying
// the test-only egress loss simulation from spec §4.1.
func (t *Transport) sendPacket(addr net.Addr, h Header, payload *Buffer) {
	lossPct := t.settings.uint64(settPacketLossPercentage, DefaultPacketLossPercentage)
	h.PleaseDrop = uint64(rand.Intn(100)) < lossPct

	buf := make([]byte, headerSize)
	h.Encode(buf)

	if err := t.driver.SendPacket(addr, buf, payload); err != nil {
		t.log.Debugf("fasttransport: send to %v failed: %v", addr, err)
		return
	}
	switch h.PayloadType {
	case payloadData:
		t.stats.txFragments.Inc()
	case payloadAck:
		t.stats.acksSent.Inc()
	}
}

// ClientSend obtains or creates a ClientSession addressed to service,
// places the RPC in IN_PROGRESS, and assigns it to a channel or the
// session's queue. It reports ErrTransportClosed once Close has been
// called.
func (t *Transport) ClientSend(service net.Addr, request, response *Buffer) (*ClientRpc, error) {
	if t.closed {
		return nil, ErrTransportClosed
	}
	if response.TotalLength() > 0 {
		response.Release()
	}

	rpc := &ClientRpc{
		transport:      t,
		state:          rpcInProgress,
		requestBuffer:  request,
		responseBuffer: response,
		serviceAddr:    service,
	}

	var session *ClientSession
	for _, s := range t.clientSessions.sessions {
		if s.serverAddr != nil && s.serverAddr.String() == service.String() {
			session = s
			break
		}
	}
	if session == nil {
		session, _ = t.clientSessions.get()
	}
	rpc.session = session
	if !session.isConnected() {
		session.connect(service)
	}
	session.startRpc(rpc)
	return rpc, nil
}

// ServerRecv blocks, draining packets via poll, until the ready queue
// is non-empty, then removes and returns its head. It reports
// ErrTransportClosed once Close has been called.
func (t *Transport) ServerRecv() (*ServerRpc, error) {
	for len(t.serverReady) == 0 {
		if t.closed {
			return nil, ErrTransportClosed
		}
		t.poll()
	}
	rpc := t.serverReady[0]
	t.serverReady = t.serverReady[1:]
	return rpc, nil
}

// poll pulls datagrams from the driver until none remain, firing due
// timers between each; a final sweep runs even when idle.
func (t *Transport) poll() {
	defer recoverPanic(t.log)
	for t.tryProcessPacket() {
		t.timers.fireDue(t.clock.Now())
	}
	t.timers.fireDue(t.clock.Now())
}

// tryProcessPacket pulls one datagram and dispatches it, reporting
// whether one was available.
func (t *Transport) tryProcessPacket() bool {
	r, ok := t.driver.TryRecvPacket()
	if !ok {
		return false
	}

	h, ok := DecodeHeader(r.Payload)
	if !ok {
		t.log.Debugf("fasttransport: packet too small")
		t.driver.Release(r.Payload)
		return true
	}
	if h.PleaseDrop {
		t.stats.droppedPackets.Inc()
		t.driver.Release(r.Payload)
		return true
	}

	if h.Direction == clientToServer {
		t.stats.rxFragments.Inc()
		t.dispatchToServer(&r, h)
	} else {
		t.stats.rxFragments.Inc()
		t.dispatchToClient(&r, h)
	}
	if !r.stolen {
		t.driver.Release(r.Payload)
	}
	return true
}

func (t *Transport) dispatchToServer(r *Received, h Header) {
	if session, ok := t.serverSessions.at(h.ServerSessionHint); ok {
		if session.token == h.SessionToken {
			session.processInboundPacket(r, h)
			return
		}
		t.log.Debugf("fasttransport: bad token for server session hint %d", h.ServerSessionHint)
	}

	switch h.PayloadType {
	case payloadSessionOpen:
		if t.serverSessions.expire() {
			t.stats.sessionsExpired.Inc()
		}
		session, _ := t.serverSessions.get()
		session.startSession(r.Addr, h.ClientSessionHint)

	default:
		reply := Header{
			SessionToken:      h.SessionToken,
			RpcId:             h.RpcId,
			ClientSessionHint: h.ClientSessionHint,
			ServerSessionHint: h.ServerSessionHint,
			ChannelId:         h.ChannelId,
			PayloadType:       payloadBadSession,
			Direction:         serverToClient,
		}
		t.sendPacket(r.Addr, reply, nil)
		t.stats.badSession.Inc()
	}
}

func (t *Transport) dispatchToClient(r *Received, h Header) {
	session, ok := t.clientSessions.at(h.ClientSessionHint)
	if !ok {
		t.log.Debugf("fasttransport: bad client session hint %d", h.ClientSessionHint)
		return
	}
	session.processInboundPacket(r, h)
}

// Close releases the underlying driver. Subsequent calls are no-ops.
func (t *Transport) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	return t.driver.Close()
}

// --- ClientRpc ---

type rpcState int

const (
	rpcIdle rpcState = iota
	rpcInProgress
	rpcCompleted
	rpcAborted
)

// ClientRpc is a client-submitted RPC: IDLE -> IN_PROGRESS ->
// {COMPLETED, ABORTED}.
type ClientRpc struct {
	transport *Transport
	session   *ClientSession

	requestBuffer  *Buffer
	responseBuffer *Buffer
	serviceAddr    net.Addr

	state rpcState
}

// GetReply blocks until the RPC completes, spinning on poll, and
// reports ErrRPCAborted if the enclosing session was closed first, or
// ErrTransportClosed if the Transport itself is closed before the RPC
// completes.
func (rpc *ClientRpc) GetReply() error {
	for {
		switch rpc.state {
		case rpcInProgress:
			if rpc.transport.closed {
				return ErrTransportClosed
			}
			rpc.transport.poll()
		case rpcCompleted:
			return nil
		case rpcAborted:
			return ErrRPCAborted
		default:
			rpc.transport.log.Errorf("fasttransport: getReply called while IDLE")
			return ErrRPCAborted
		}
	}
}

func (rpc *ClientRpc) aborted()   { rpc.state = rpcAborted }
func (rpc *ClientRpc) completed() { rpc.state = rpcCompleted }

// --- ServerRpc ---

// ServerRpc is a server-side RPC delivered via Transport.ServerRecv.
type ServerRpc struct {
	session   *ServerSession
	channelId uint8

	recvPayload  *Buffer
	replyPayload *Buffer
}

func newServerRpc(session *ServerSession, channelId uint8) *ServerRpc {
	return &ServerRpc{
		session:      session,
		channelId:    channelId,
		recvPayload:  NewBuffer(),
		replyPayload: NewBuffer(),
	}
}

// RequestPayload returns the reassembled request buffer.
func (rpc *ServerRpc) RequestPayload() *Buffer { return rpc.recvPayload }

// ReplyPayload returns the buffer the handler should append its
// response to before calling SendReply.
func (rpc *ServerRpc) ReplyPayload() *Buffer { return rpc.replyPayload }

// SendReply begins transmitting the reply buffer back to the client.
func (rpc *ServerRpc) SendReply() {
	rpc.session.beginSending(rpc.channelId)
}
