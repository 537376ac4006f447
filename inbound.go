package fasttransport

// stagingSlot holds one out-of-order fragment's stolen payload,
// pending contiguous append to dataBuffer.
type stagingSlot struct {
	payload []byte
	release func()
}

func (s *stagingSlot) occupied() bool { return s.payload != nil }

func (s *stagingSlot) clear() {
	if s.release != nil {
		s.release()
	}
	s.payload = nil
	s.release = nil
}

// InboundMessage reassembles one multi-fragment message from a stream
// of received datagrams. It is set up once per Channel and
// reinitialized per RPC via init. Grounded on original_source's
// InboundMessage (FastTransport.cc ~480-710): the staging ring holds
// fragments strictly above firstMissingFrag, indexed by
// fragNumber-firstMissingFrag-1.
type InboundMessage struct {
	transport *Transport
	session   session
	channelId uint8
	useTimer  bool

	totalFrags       uint16
	firstMissingFrag uint16
	dataBuffer       *Buffer
	staging          []stagingSlot

	timer Timer
}

// setup permanently attaches this instance to a session/channel, as
// original_source's InboundMessage::setup does for array-allocated
// Channels.
func (m *InboundMessage) setup(t *Transport, s session, channelId uint8, useTimer bool) {
	m.transport = t
	m.session = s
	m.channelId = channelId
	m.useTimer = useTimer
	if m.staging == nil {
		m.staging = make([]stagingSlot, t.settings.uint64(settMaxStagingFragments, DefaultMaxStagingFragments))
	}
	t.timers.remove(&m.timer)
	m.timer.fire = m.fireTimer
}

// clear releases staged memory, resets counters, and cancels any
// pending timer. Safe to call repeatedly.
func (m *InboundMessage) clear() {
	m.totalFrags = 0
	m.firstMissingFrag = 0
	m.dataBuffer = nil
	for i := range m.staging {
		m.staging[i].clear()
	}
	if m.useTimer {
		m.transport.timers.remove(&m.timer)
	}
}

// init readies a cleared InboundMessage to receive totalFrags
// fragments into dataBuffer.
func (m *InboundMessage) init(totalFrags uint16, dataBuffer *Buffer) {
	m.clear()
	m.totalFrags = totalFrags
	m.dataBuffer = dataBuffer
	if m.useTimer {
		m.transport.timers.add(&m.timer, m.transport.clock.Now()+m.transport.timeoutTicks())
	}
}

// complete reports whether every fragment has been appended.
func (m *InboundMessage) complete() bool {
	return m.firstMissingFrag == m.totalFrags
}

// processReceivedData incorporates one fragment and reports whether
// the message is now complete.
func (m *InboundMessage) processReceivedData(r *Received, h Header) bool {
	if h.TotalFrags != m.totalFrags {
		m.transport.log.Debugf("fasttransport: totalFrags mismatch, got %d want %d", h.TotalFrags, m.totalFrags)
		return m.complete()
	}

	switch {
	case h.FragNumber == m.firstMissingFrag:
		payload := r.Steal()
		m.dataBuffer.Append(payload[headerSize:], func() { m.transport.driver.Release(payload) })
		m.firstMissingFrag++
		for len(m.staging) > 0 && m.staging[0].occupied() {
			slot := m.staging[0]
			m.dataBuffer.Append(slot.payload[headerSize:], slot.release)
			copy(m.staging, m.staging[1:])
			m.staging[len(m.staging)-1] = stagingSlot{}
			m.firstMissingFrag++
		}

	case h.FragNumber > m.firstMissingFrag:
		gap := int(h.FragNumber) - int(m.firstMissingFrag)
		if gap > len(m.staging) {
			m.transport.log.Debugf("fasttransport: fragNumber %d too far ahead of %d", h.FragNumber, m.firstMissingFrag)
		} else {
			i := gap - 1
			if !m.staging[i].occupied() {
				payload := r.Steal()
				m.staging[i] = stagingSlot{payload: payload, release: func() { m.transport.driver.Release(payload) }}
			} else {
				m.transport.log.Debugf("fasttransport: duplicate fragment %d", h.FragNumber)
			}
		}

	default:
		// stale duplicate, no-op
	}

	if h.RequestAck {
		m.sendAck()
	}
	if m.useTimer {
		m.transport.timers.add(&m.timer, m.transport.clock.Now()+m.transport.timeoutTicks())
	}

	return m.complete()
}

// sendAck transmits the current reassembly state so the peer can
// decide what to retransmit.
func (m *InboundMessage) sendAck() {
	var h Header
	m.session.fillHeader(&h, m.channelId)
	h.PayloadType = payloadAck

	ack := AckResponse{FirstMissingFrag: m.firstMissingFrag}
	for i := range m.staging {
		if m.staging[i].occupied() {
			ack.StagingVector |= 1 << uint(i)
		}
	}

	payload := NewBuffer()
	buf := make([]byte, ackResponseSize)
	ack.Encode(buf)
	payload.Append(buf, nil)

	m.transport.sendPacket(m.session.peerAddr(), h, payload)
}

// fireTimer requests an ACK from the peer on a reassembly stall, per
// spec §4.2's timer contract; repeated firings without progress are
// counted by the enclosing session toward its abort threshold.
func (m *InboundMessage) fireTimer(now uint64) {
	if m.complete() {
		return
	}
	m.sendAck()
	m.transport.timers.add(&m.timer, now+m.transport.timeoutTicks())
	m.session.noteTimeout()
}
