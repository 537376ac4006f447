package fasttransport

// sentSlot tracks one outstanding fragment's transmission state. when
// is the tick it was last sent, valid only if transmitted is true (tick
// 0 is a legitimate send time, so it cannot double as a "never sent"
// sentinel); when==ackedSentinel means selectively acknowledged.
type sentSlot struct {
	when        uint64
	transmitted bool
}

func (s sentSlot) acked() bool { return s.transmitted && s.when == ackedSentinel }
func (s sentSlot) sent() bool  { return s.transmitted && s.when != ackedSentinel }

// OutboundMessage fragments one source buffer and drives it to
// completion under a sliding window, retransmitting on timeout.
// Grounded on original_source's OutboundMessage
// (FastTransport.cc ~712-956).
type OutboundMessage struct {
	transport *Transport
	session   session
	channelId uint8
	useTimer  bool

	sendBuffer         *Buffer
	dataPerFragment    uint32
	firstMissingFrag   uint16
	totalFrags         uint16
	packetsSinceAckReq uint32
	numAcked           uint16
	sentTimes          []sentSlot

	timer Timer
}

func (m *OutboundMessage) setup(t *Transport, s session, channelId uint8, useTimer bool) {
	m.transport = t
	m.session = s
	m.channelId = channelId
	m.useTimer = useTimer
	if m.sentTimes == nil {
		m.sentTimes = make([]sentSlot, t.settings.uint64(settWindowSize, DefaultWindowSize))
	}
	m.timer.fire = m.fireTimer
	m.clear()
}

// clear marks the message inactive; beginSending must be called again
// before send() may run.
func (m *OutboundMessage) clear() {
	m.sendBuffer = nil
	m.firstMissingFrag = 0
	m.totalFrags = 0
	m.packetsSinceAckReq = 0
	m.numAcked = 0
	for i := range m.sentTimes {
		m.sentTimes[i] = sentSlot{}
	}
	if m.useTimer {
		m.transport.timers.remove(&m.timer)
	}
}

// complete reports whether every fragment of sendBuffer has been
// acknowledged.
func (m *OutboundMessage) complete() bool {
	return m.sendBuffer != nil && m.firstMissingFrag == m.totalFrags
}

// beginSending fragments dataBuffer at dataPerFragment-sized
// boundaries and starts transmission. Requires clear() since.
func (m *OutboundMessage) beginSending(dataBuffer *Buffer) {
	m.sendBuffer = dataBuffer
	m.dataPerFragment = m.transport.dataPerFragment()
	m.totalFrags = numFrags(dataBuffer, m.dataPerFragment)
	m.send()
}

func numFrags(b *Buffer, dataPerFragment uint32) uint16 {
	if dataPerFragment == 0 {
		return 0
	}
	total := uint32(b.TotalLength())
	n := (total + dataPerFragment - 1) / dataPerFragment
	if n == 0 {
		n = 1
	}
	return uint16(n)
}

// send is the core transmission step: sends or retransmits fragments
// within the current window, then reschedules the outbound timer for
// the earliest outstanding deadline.
func (m *OutboundMessage) send() {
	if m.sendBuffer == nil {
		return
	}
	now := m.transport.clock.Now()
	timeout := m.transport.timeoutTicks()

	stop := m.totalFrags
	if v := m.numAcked + uint16(len(m.sentTimes)); v < stop {
		stop = v
	}
	// The peer stages at most MAX_STAGING_FRAGMENTS fragments beyond
	// firstMissingFrag, so nothing past that can be accepted.
	staging := uint16(m.transport.settings.uint64(settMaxStagingFragments, DefaultMaxStagingFragments))
	if v := m.firstMissingFrag + staging + 1; v < stop {
		stop = v
	}
	// sentTimes only covers the window starting at firstMissingFrag.
	if v := m.firstMissingFrag + uint16(len(m.sentTimes)); v < stop {
		stop = v
	}

	reqAckAfter := uint32(m.transport.settings.uint64(settReqAckAfter, DefaultReqAckAfter))

	for i := uint16(0); i < stop-m.firstMissingFrag; i++ {
		slot := m.sentTimes[i]
		if slot.acked() {
			continue
		}
		if slot.sent() && slot.when+timeout >= now {
			continue
		}
		isRetransmit := slot.sent()
		fragNumber := m.firstMissingFrag + i
		requestAck := isRetransmit ||
			(m.packetsSinceAckReq == reqAckAfter-1 && fragNumber != m.totalFrags-1)

		m.sendOneData(fragNumber, requestAck)
		m.sentTimes[i] = sentSlot{when: now, transmitted: true}
		if isRetransmit {
			m.transport.stats.retransmits.Inc()
			break
		}
	}

	if m.useTimer {
		oldest := ^uint64(0)
		for i := uint16(0); i < stop-m.firstMissingFrag; i++ {
			slot := m.sentTimes[i]
			if !slot.transmitted {
				break
			}
			if !slot.acked() && slot.when < oldest {
				oldest = slot.when
			}
		}
		if oldest != ^uint64(0) {
			m.transport.timers.add(&m.timer, oldest+timeout)
		}
	}
}

// processReceivedAck advances the window per ack and reports whether
// the message is now fully acknowledged.
func (m *OutboundMessage) processReceivedAck(ack AckResponse) bool {
	if m.sendBuffer == nil {
		return false
	}

	switch {
	case ack.FirstMissingFrag < m.firstMissingFrag:
		m.transport.log.Debugf("fasttransport: dropped stale ACK")
	case uint16(ack.FirstMissingFrag) > m.totalFrags:
		m.transport.log.Debugf("fasttransport: dropped invalid ACK")
	case uint16(ack.FirstMissingFrag) > m.firstMissingFrag+uint16(len(m.sentTimes)):
		m.transport.log.Debugf("fasttransport: dropped ACK advancing too far")
	default:
		advance := uint16(ack.FirstMissingFrag) - m.firstMissingFrag
		copy(m.sentTimes, m.sentTimes[advance:])
		for i := len(m.sentTimes) - int(advance); i < len(m.sentTimes); i++ {
			m.sentTimes[i] = sentSlot{}
		}
		m.firstMissingFrag = uint16(ack.FirstMissingFrag)
		m.numAcked = m.firstMissingFrag

		for i := 0; i < len(m.sentTimes)-1; i++ {
			if ack.StagingVector>>uint(i)&1 == 1 {
				m.sentTimes[i+1] = sentSlot{when: ackedSentinel, transmitted: true}
				m.numAcked++
			}
		}
	}

	m.send()
	return m.complete()
}

// sendOneData transmits a single fragment drawn from sendBuffer.
func (m *OutboundMessage) sendOneData(fragNumber uint16, requestAck bool) {
	var h Header
	m.session.fillHeader(&h, m.channelId)
	h.FragNumber = fragNumber
	h.TotalFrags = m.totalFrags
	h.RequestAck = requestAck
	h.PayloadType = payloadData

	payload := fragmentSlice(m.sendBuffer, fragNumber, m.dataPerFragment)

	m.transport.sendPacket(m.session.peerAddr(), h, payload)

	if requestAck {
		m.packetsSinceAckReq = 0
	} else {
		m.packetsSinceAckReq++
	}
}

// fragmentSlice returns the dataPerFragment-sized window of b
// starting at fragNumber*dataPerFragment, as a freshly-built Buffer
// view (no ownership, no release action: the caller only reads it for
// one send).
func fragmentSlice(b *Buffer, fragNumber uint16, dataPerFragment uint32) *Buffer {
	flat := b.Bytes()
	start := int(fragNumber) * int(dataPerFragment)
	end := start + int(dataPerFragment)
	if end > len(flat) {
		end = len(flat)
	}
	if start > len(flat) {
		start = len(flat)
	}
	out := NewBuffer()
	out.Append(flat[start:end], nil)
	return out
}

func (m *OutboundMessage) fireTimer(now uint64) {
	m.session.noteTimeout()
	m.send()
}
