// Package metrics exposes transfer progress as Prometheus metrics.
package metrics

import (
	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/robotalks/send-gcode/pkg/comm"
	"github.com/robotalks/send-gcode/pkg/gcode"
)

const namespace = "sendgcode"

// Collector records Sender events and line conditions.
// It implements gcode.Observer and comm.StatusHandler.
type Collector struct {
	Frames           prometheus.Counter
	Resets           prometheus.Counter
	ControllerResets prometheus.Counter
	Resends          prometheus.Counter
	Conditions       *prometheus.CounterVec
	Line             prometheus.Gauge
	ConsumedBytes    prometheus.Gauge
	TotalBytes       prometheus.Gauge
	Done             prometheus.Gauge
}

// NewCollector creates the metrics and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		Frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_sent_total",
			Help:      "Command frames sent, including resends.",
		}),
		Resets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reset_frames_sent_total",
			Help:      "Line number reset frames sent.",
		}),
		ControllerResets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "controller_resets_total",
			Help:      "Controller restarts observed.",
		}),
		Resends: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resend_requests_total",
			Help:      "Resend requests received.",
		}),
		Conditions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "line_conditions_total",
			Help:      "Advisory serial line conditions.",
		}, []string{"condition"}),
		Line: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "line_number",
			Help:      "Last line number used.",
		}),
		ConsumedBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "source_consumed_bytes",
			Help:      "Bytes of the source already sent.",
		}),
		TotalBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "source_total_bytes",
			Help:      "Size of the source.",
		}),
		Done: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "done",
			Help:      "1 once all commands are sent.",
		}),
	}
	reg.MustRegister(
		c.Frames,
		c.Resets,
		c.ControllerResets,
		c.Resends,
		c.Conditions,
		c.Line,
		c.ConsumedBytes,
		c.TotalBytes,
		c.Done,
	)
	return c
}

// Observe implements gcode.Observer.
func (c *Collector) Observe(ev gcode.Event) {
	switch ev.Kind {
	case gcode.EventReset:
		c.Resets.Inc()
	case gcode.EventFrame:
		c.Frames.Inc()
	case gcode.EventControllerReset:
		c.ControllerResets.Inc()
	case gcode.EventResend:
		c.Resends.Inc()
	}
	c.Line.Set(float64(ev.Progress.Line))
	c.ConsumedBytes.Set(float64(ev.Progress.Consumed))
	c.TotalBytes.Set(float64(ev.Progress.Total))
	if ev.Progress.Done {
		c.Done.Set(1)
	} else {
		c.Done.Set(0)
	}
}

// HandleStatus implements comm.StatusHandler.
func (c *Collector) HandleStatus(st comm.LineStatus) {
	glog.Warning(st.String())
	st.Each(func(s comm.LineStatus) {
		c.Conditions.WithLabelValues(s.String()).Inc()
	})
}
