package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"trades-director/internal/events"
)

func TestPipelineCounters(t *testing.T) {
	p := NewPipeline()

	p.Dispatched(events.DataEvent{Symbol: "EURUSD"})
	p.Dispatched(events.DataEvent{Symbol: "EURUSD"})
	p.Rejected("sizing", "EURUSD", "止损价 0 无效")
	p.Polled(3)
	p.QueueDepth(5)

	mfs, err := p.Registry().Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	values := map[string]float64{}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				values[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				values[mf.GetName()] = m.GetGauge().GetValue()
			}
		}
	}

	want := map[string]float64{
		"trades_director_events_dispatched_total": 2,
		"trades_director_rejections_total":        1,
		"trades_director_data_polls_total":        1,
		"trades_director_new_bars_total":          3,
		"trades_director_queue_depth":             5,
	}
	for name, v := range want {
		if values[name] != v {
			t.Errorf("%s = %v, want %v", name, values[name], v)
		}
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	p := NewPipeline()
	p.Polled(0)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "trades_director_data_polls_total 1") {
		t.Fatalf("metrics output missing poll counter:\n%s", rec.Body.String())
	}
}
