package base

import (
	"github.com/VictoriaMetrics/metrics"
)

// serverMetrics holds the counters of one server transport.
// Every transport owns its own set, so several servers can live in one process.
type serverMetrics struct {
	set *metrics.Set

	accepted     *metrics.Counter
	rejected     *metrics.Counter
	acceptErrors *metrics.Counter
	frameErrors  *metrics.Counter
	calls        *metrics.Counter
	queued       *metrics.Counter
	active       *metrics.Counter
}

func newServerMetrics(transportName string) *serverMetrics {
	set := metrics.NewSet()
	name := func(metric string) string {
		return metric + `{transport="` + transportName + `"}`
	}
	return &serverMetrics{
		set:          set,
		accepted:     set.NewCounter(name("dht_channels_accepted_total")),
		rejected:     set.NewCounter(name("dht_channels_rejected_total")),
		acceptErrors: set.NewCounter(name("dht_accept_errors_total")),
		frameErrors:  set.NewCounter(name("dht_frame_errors_total")),
		calls:        set.NewCounter(name("dht_transport_calls_total")),
		queued:       set.NewCounter(name("dht_channels_queued")),
		active:       set.NewCounter(name("dht_channels_active")),
	}
}
