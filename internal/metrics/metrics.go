package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trades-director/internal/events"
)

const namespace = "trades_director"

// Pipeline 记录流水线各环节的计数。
type Pipeline struct {
	registry   *prometheus.Registry
	dispatched *prometheus.CounterVec
	rejections *prometheus.CounterVec
	polls      prometheus.Counter
	newBars    prometheus.Counter
	queueDepth prometheus.Gauge
}

// NewPipeline 在独立的 Registry 上创建计数器。
func NewPipeline() *Pipeline {
	p := &Pipeline{
		registry: prometheus.NewRegistry(),
		dispatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "events_dispatched_total", Help: "Events dispatched by the director"},
			[]string{"type", "symbol"},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "rejections_total", Help: "Trades suppressed by a pipeline stage"},
			[]string{"stage", "symbol"},
		),
		polls: prometheus.NewCounter(
			prometheus.CounterOpts{Namespace: namespace, Name: "data_polls_total", Help: "Idle iterations that polled the market"},
		),
		newBars: prometheus.NewCounter(
			prometheus.CounterOpts{Namespace: namespace, Name: "new_bars_total", Help: "Closed bars turned into DATA events"},
		),
		queueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{Namespace: namespace, Name: "queue_depth", Help: "Events waiting in the queue"},
		),
	}
	p.registry.MustRegister(p.dispatched, p.rejections, p.polls, p.newBars, p.queueDepth)
	return p
}

// Registry 返回底层 Registry。
func (p *Pipeline) Registry() *prometheus.Registry {
	return p.registry
}

// Handler 返回 /metrics 处理器。
func (p *Pipeline) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Dispatched 记录一次事件分发。
func (p *Pipeline) Dispatched(e events.Event) {
	p.dispatched.WithLabelValues(string(e.GetType()), e.GetSymbol()).Inc()
}

// Rejected 记录一次环节拒绝。
func (p *Pipeline) Rejected(stage, symbol, _ string) {
	p.rejections.WithLabelValues(stage, symbol).Inc()
}

// Polled 记录一次空闲轮询及其产生的新K线数。
func (p *Pipeline) Polled(emitted int) {
	p.polls.Inc()
	p.newBars.Add(float64(emitted))
}

// QueueDepth 更新队列积压。
func (p *Pipeline) QueueDepth(n int) {
	p.queueDepth.Set(float64(n))
}
