package fasttransport

// DefaultSettings returns a Settings populated with the protocol's
// default tunables. Applications typically start from this and override
// only what they need, mirroring the teacher's DefaultSettings() shape.
func DefaultSettings() Settings {
	return Settings{
		settWindowSize:            uint64(DefaultWindowSize),
		settMaxStagingFragments:   uint64(DefaultMaxStagingFragments),
		settReqAckAfter:           uint64(DefaultReqAckAfter),
		settTimeoutNs:             uint64(DefaultTimeout.Nanoseconds()),
		settNumChannelsPerSession: uint64(DefaultNumChannelsPerSession),
		settMaxChannelsPerSession: uint64(DefaultMaxNumChannelsPerSession),
		settPacketLossPercentage:  uint64(DefaultPacketLossPercentage),
		settNumTimeoutsAbort:      uint64(DefaultNumTimeoutsAbortThreshold),
		settLogLevel:              "info",
	}
}
