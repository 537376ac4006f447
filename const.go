package fasttransport

import "time"

// Tunables governing the reliability protocol. All are overridable via
// Settings passed to NewTransport, per spec's recommendation that
// implementers expose these for testing.
const (
	// DefaultWindowSize bounds the number of unacknowledged outbound
	// fragments in flight for a single message.
	DefaultWindowSize = 10

	// DefaultMaxStagingFragments bounds how far ahead of firstMissingFrag
	// an InboundMessage will buffer out-of-order fragments.
	DefaultMaxStagingFragments = 10

	// DefaultReqAckAfter is the number of fresh (non-retransmit)
	// fragments sent before one is marked requestAck, absent a
	// timeout-driven request.
	DefaultReqAckAfter = 10

	// DefaultTimeout governs retransmission and inbound keepalive-ACK
	// scheduling.
	DefaultTimeout = 10 * time.Millisecond

	// DefaultNumChannelsPerSession is the fixed channel cardinality of a
	// ServerSession.
	DefaultNumChannelsPerSession = 8

	// DefaultMaxNumChannelsPerSession bounds how many channels a
	// ClientSession will allocate even if the server offers more.
	DefaultMaxNumChannelsPerSession = 8

	// DefaultPacketLossPercentage is the probability, in percent, that
	// an outgoing datagram is marked pleaseDrop for test purposes.
	DefaultPacketLossPercentage = 0

	// DefaultNumTimeoutsAbortThreshold is how many consecutive timeouts
	// without progress on a channel's messages before the enclosing
	// session is closed and its RPCs aborted.
	DefaultNumTimeoutsAbortThreshold = 500
)

// InvalidToken marks a free ServerSession/ClientSession slot, or a
// ClientSession that has not yet received a SessionOpenResponse.
const InvalidToken uint64 = 0xCCCCCCCCCCCCCCCC

// InvalidHint marks a session hint that has not yet been learned.
const InvalidHint uint32 = 0xCCCCCCCC

// ackedSentinel marks a fragment slot in OutboundMessage.sentTimes as
// selectively acknowledged. It sits outside the range of ordinary tick
// values returned by a MonotonicTicks source.
const ackedSentinel uint64 = ^uint64(0)
