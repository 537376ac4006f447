package fasttransport

import s "github.com/prataprc/gosettings"

// Settings carries the tunable knobs for a Transport. It is the teacher's
// own configuration type (github.com/prataprc/gosettings.Settings), a
// map[string]interface{} with typed accessors, so tests and applications
// can override any protocol tunable without a recompile.
type Settings s.Settings

// settings keys.
const (
	settWindowSize            = "window.size"
	settMaxStagingFragments   = "staging.maxfragments"
	settReqAckAfter           = "reqack.after"
	settTimeoutNs             = "timeout.ns"
	settNumChannelsPerSession = "session.channels"
	settMaxChannelsPerSession = "session.maxchannels"
	settPacketLossPercentage  = "test.packetloss"
	settNumTimeoutsAbort      = "timeout.abortafter"
	settLogLevel              = "log.level"
	settTransportName         = "transport.name"
)

func (st Settings) gs() s.Settings { return s.Settings(st) }

func (st Settings) uint64(key string, def uint64) uint64 {
	if _, ok := st[key]; !ok {
		return def
	}
	return st.gs().Uint64(key)
}

func (st Settings) int64(key string, def int64) int64 {
	if _, ok := st[key]; !ok {
		return def
	}
	return st.gs().Int64(key)
}

func (st Settings) str(key string, def string) string {
	if _, ok := st[key]; !ok {
		return def
	}
	return st.gs().String(key)
}

// With returns a copy of st with key set to value, for fluent
// construction from CLI flags (NewTransport itself takes a plain
// Settings, not a builder).
func (st Settings) With(key string, value interface{}) Settings {
	out := make(Settings, len(st)+1)
	for k, v := range st {
		out[k] = v
	}
	out[key] = value
	return out
}
