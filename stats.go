package fasttransport

import (
	"fmt"
	"io"

	metrics "github.com/VictoriaMetrics/metrics"
)

// transportStats are the per-Transport counters every dispatch path
// updates. Replaces the teacher's raw atomic.Uint64 fields plus
// hand-rolled Stat()/Stats() aggregation with VictoriaMetrics/metrics
// counters, re-expressed per ValentinKolb-dKV's instrumentation style.
// Each Transport gets its own metrics.Set rather than registering into
// the package-global default set, so two Transports in one process
// (a loopback test, or a process running both a client and a server)
// don't collide on metric names; the transport's name is carried as a
// label on every counter.
type transportStats struct {
	set *metrics.Set

	txFragments     *metrics.Counter
	rxFragments     *metrics.Counter
	retransmits     *metrics.Counter
	acksSent        *metrics.Counter
	sessionsExpired *metrics.Counter
	badSession      *metrics.Counter
	droppedPackets  *metrics.Counter
}

func newTransportStats(name string) *transportStats {
	set := metrics.NewSet()
	counter := func(metric string) *metrics.Counter {
		return set.NewCounter(fmt.Sprintf("%s{transport=%q}", metric, name))
	}
	return &transportStats{
		set:             set,
		txFragments:     counter("fasttransport_tx_fragments_total"),
		rxFragments:     counter("fasttransport_rx_fragments_total"),
		retransmits:     counter("fasttransport_retransmits_total"),
		acksSent:        counter("fasttransport_acks_sent_total"),
		sessionsExpired: counter("fasttransport_sessions_expired_total"),
		badSession:      counter("fasttransport_bad_session_total"),
		droppedPackets:  counter("fasttransport_dropped_packets_total"),
	}
}

// snapshot reports every counter under its bare, label-free name.
func (ts *transportStats) snapshot() map[string]uint64 {
	return map[string]uint64{
		"tx_fragments":     ts.txFragments.Get(),
		"rx_fragments":     ts.rxFragments.Get(),
		"retransmits":      ts.retransmits.Get(),
		"acks_sent":        ts.acksSent.Get(),
		"sessions_expired": ts.sessionsExpired.Get(),
		"bad_session":      ts.badSession.Get(),
		"dropped_packets":  ts.droppedPackets.Get(),
	}
}

// WritePrometheus appends this transport's counters, in Prometheus
// exposition format, to w.
func (ts *transportStats) WritePrometheus(w io.Writer) {
	ts.set.WritePrometheus(w)
}
