package signal

import (
	"context"
	"errors"
	"testing"
	"time"

	"trades-director/internal/ai"
	"trades-director/internal/config"
	"trades-director/internal/events"
	"trades-director/internal/exchange"
	"trades-director/internal/portfolio"
)

var scenarioCloses = []float64{1.2080, 1.2079, 1.2101, 1.2105, 1.2110}

func TestGenerateSignal_CrossoverBuy(t *testing.T) {
	queue := events.NewQueue()
	gen := newCrossover(t, scenarioCloses, portfolio.Counts{}, queue)

	signal, ok := gen.GenerateSignal(context.Background(), dataEvent("EURUSD"))
	if !ok {
		t.Fatal("expected a BUY signal")
	}
	if signal.Signal != events.SideBuy || signal.TargetOrder != events.OrderMarket {
		t.Errorf("unexpected signal: %+v", signal)
	}
	if signal.SL != 0 || signal.TP != 0 || signal.TargetPrice != 0 {
		t.Errorf("market signal must not carry prices: %+v", signal)
	}
	if signal.MagicNumber != 12345 || signal.Symbol != "EURUSD" {
		t.Errorf("unexpected identity: %+v", signal)
	}

	queued, ok := queue.TryDequeue()
	if !ok || queued.GetType() != events.TypeSignal {
		t.Fatalf("expected SIGNAL in queue, got %v", queued)
	}
	if _, ok := queue.TryDequeue(); ok {
		t.Fatal("expected exactly one enqueue")
	}
}

func TestGenerateSignal_DecisionTable(t *testing.T) {
	falling := []float64{1.2110, 1.2105, 1.2101, 1.2079, 1.2080}
	flat := []float64{1.25, 1.25, 1.25, 1.25, 1.25}

	cases := []struct {
		name   string
		closes []float64
		counts portfolio.Counts
		want   events.Side
	}{
		{"fast above slow", scenarioCloses, portfolio.Counts{}, events.SideBuy},
		{"fast above slow with long open", scenarioCloses, portfolio.Counts{Long: 1}, ""},
		{"fast above slow with short open", scenarioCloses, portfolio.Counts{Short: 1}, events.SideBuy},
		{"slow above fast", falling, portfolio.Counts{}, events.SideSell},
		{"slow above fast with short open", falling, portfolio.Counts{Short: 2}, ""},
		{"equal averages", flat, portfolio.Counts{}, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			queue := events.NewQueue()
			gen := newCrossover(t, tc.closes, tc.counts, queue)

			signal, ok := gen.GenerateSignal(context.Background(), dataEvent("EURUSD"))
			if tc.want == "" {
				if ok || queue.Len() != 0 {
					t.Fatalf("expected no signal, got %+v", signal)
				}
				return
			}
			if !ok || signal.Signal != tc.want {
				t.Fatalf("expected %s, got ok=%v %+v", tc.want, ok, signal)
			}
		})
	}
}

func TestGenerateSignal_Idempotent(t *testing.T) {
	queue := events.NewQueue()
	gen := newCrossover(t, scenarioCloses, portfolio.Counts{}, queue)
	event := dataEvent("EURUSD")

	first, _ := gen.GenerateSignal(context.Background(), event)
	for i := 0; i < 5; i++ {
		next, ok := gen.GenerateSignal(context.Background(), event)
		if !ok || next != first {
			t.Fatalf("iteration %d: %+v differs from %+v", i, next, first)
		}
	}
}

func TestGenerateSignal_UnavailableIsNoSignal(t *testing.T) {
	queue := events.NewQueue()
	method, err := NewMACrossover(config.MACrossoverConfig{FastPeriod: 3, SlowPeriod: 5}, "1m",
		fakeBars{closes: scenarioCloses}, fakeCounter{err: exchange.ErrUnavailable}, nil)
	if err != nil {
		t.Fatalf("NewMACrossover returned error: %v", err)
	}
	gen := NewGenerator(method, 1, queue, nil)
	if _, ok := gen.GenerateSignal(context.Background(), dataEvent("EURUSD")); ok {
		t.Fatal("unavailable positions must not produce a signal")
	}

	method, _ = NewMACrossover(config.MACrossoverConfig{FastPeriod: 3, SlowPeriod: 5}, "1m",
		fakeBars{err: exchange.ErrUnavailable}, fakeCounter{}, nil)
	gen = NewGenerator(method, 1, queue, nil)
	if _, ok := gen.GenerateSignal(context.Background(), dataEvent("EURUSD")); ok {
		t.Fatal("unavailable bars must not produce a signal")
	}

	if queue.Len() != 0 {
		t.Fatalf("queue should be empty, len=%d", queue.Len())
	}
}

func TestNewMACrossover_Periods(t *testing.T) {
	m, err := NewMACrossover(config.MACrossoverConfig{FastPeriod: 0, SlowPeriod: 1}, "1m", fakeBars{}, fakeCounter{}, nil)
	if err != nil {
		t.Fatalf("clamped periods should be valid: %v", err)
	}
	if fast, slow := m.Periods(); fast != 2 || slow != 3 {
		t.Fatalf("expected clamped periods 2/3, got %d/%d", fast, slow)
	}

	for _, props := range []config.MACrossoverConfig{
		{FastPeriod: 10, SlowPeriod: 5},
		{FastPeriod: 5, SlowPeriod: 5},
		{FastPeriod: 3, SlowPeriod: 2},
	} {
		if _, err := NewMACrossover(props, "1m", fakeBars{}, fakeCounter{}, nil); !errors.Is(err, config.ErrConfiguration) {
			t.Errorf("%+v: expected ErrConfiguration, got %v", props, err)
		}
	}
}

func TestNew_UnknownMethod(t *testing.T) {
	cfg := config.StrategyConfig{Signal: config.SignalConfig{Method: "rsi_reversal"}}
	if _, err := New(cfg, Deps{Bars: fakeBars{}, Positions: fakeCounter{}}, events.NewQueue(), nil); !errors.Is(err, config.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}

	cfg.Signal.Method = MethodAIAdvisor
	if _, err := New(cfg, Deps{Bars: fakeBars{}, Positions: fakeCounter{}}, events.NewQueue(), nil); !errors.Is(err, config.ErrConfiguration) {
		t.Fatalf("ai_advisor without advisor should fail, got %v", err)
	}
}

func TestAIAdvisor_UsesAdviceStops(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 1.20 + float64(i)*0.001
	}
	advisor := &fakeAdvisor{advice: ai.Advice{Action: ai.ActionBuy, Confidence: 0.8, StopLoss: 1.2, TakeProfit: 1.3, Reasoning: "trend"}}
	cfg := config.StrategyConfig{
		MagicNumber: 9,
		Timeframe:   "1h",
		Signal:      config.SignalConfig{Method: MethodAIAdvisor, AIAdvisor: config.AIAdvisorConfig{Lookback: 40}},
	}

	queue := events.NewQueue()
	gen, err := New(cfg, Deps{Bars: fakeBars{closes: closes}, Positions: fakeCounter{}, Advisor: advisor}, queue, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	signal, ok := gen.GenerateSignal(context.Background(), dataEvent("EURUSD"))
	if !ok {
		t.Fatal("expected BUY from advisor")
	}
	if signal.SL != 1.2 || signal.TP != 1.3 || signal.MagicNumber != 9 {
		t.Errorf("unexpected signal: %+v", signal)
	}
	if advisor.last.Symbol != "EURUSD" || advisor.last.Timeframe != "1h" {
		t.Errorf("unexpected request: %+v", advisor.last)
	}

	advisor.advice = ai.Advice{Action: ai.ActionBuy, StopLoss: 5, Reasoning: "x"}
	signal, ok = gen.GenerateSignal(context.Background(), dataEvent("EURUSD"))
	if !ok || signal.SL != 0 {
		t.Errorf("stop on the wrong side should be cleared, got %+v", signal)
	}

	advisor.advice = ai.Advice{Action: ai.ActionNone}
	if _, ok := gen.GenerateSignal(context.Background(), dataEvent("EURUSD")); ok {
		t.Error("NONE must not produce a signal")
	}
}

func newCrossover(t *testing.T, closes []float64, counts portfolio.Counts, queue *events.Queue) *Generator {
	t.Helper()
	cfg := config.StrategyConfig{
		MagicNumber: 12345,
		Timeframe:   "1h",
		Signal: config.SignalConfig{
			Method:      MethodMACrossover,
			MACrossover: config.MACrossoverConfig{FastPeriod: 3, SlowPeriod: 5},
		},
	}
	gen, err := New(cfg, Deps{Bars: fakeBars{closes: closes}, Positions: fakeCounter{counts: counts}}, queue, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return gen
}

func dataEvent(symbol string) events.DataEvent {
	return events.DataEvent{Symbol: symbol, Data: events.Bar{Timestamp: time.Unix(0, 0), Close: 1.2110}}
}

type fakeBars struct {
	closes []float64
	err    error
}

func (f fakeBars) LatestClosedBars(_ context.Context, _ string, _ string, count int) ([]events.Bar, error) {
	if f.err != nil {
		return nil, f.err
	}
	closes := f.closes
	if len(closes) > count {
		closes = closes[len(closes)-count:]
	}
	bars := make([]events.Bar, len(closes))
	for i, c := range closes {
		bars[i] = events.Bar{
			Timestamp: time.Unix(int64(i*60), 0),
			Open:      c,
			High:      c + 0.0005,
			Low:       c - 0.0005,
			Close:     c,
			Volume:    100,
		}
	}
	return bars, nil
}

type fakeCounter struct {
	counts portfolio.Counts
	err    error
}

func (f fakeCounter) OpenPositionCounts(context.Context, string) (portfolio.Counts, error) {
	return f.counts, f.err
}

type fakeAdvisor struct {
	advice ai.Advice
	err    error
	last   ai.Request
}

func (f *fakeAdvisor) Advise(_ context.Context, req ai.Request) (ai.Advice, error) {
	f.last = req
	return f.advice, f.err
}
