package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"trades-director/internal/config"
	"trades-director/internal/director"
	"trades-director/internal/events"
	"trades-director/internal/exchange"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Environment: "test"},
		Exchange: config.ExchangeConfig{
			Name:          "binanceusdm",
			Symbols:       []string{"BTC/USDT:USDT"},
			UseSandbox:    true,
			PollInterval:  time.Second,
			FXSymbolStyle: "slash",
		},
		Account: config.AccountConfig{Currency: "USDT"},
		Strategy: config.StrategyConfig{
			MagicNumber: 12345,
			Timeframe:   "1m",
			Signal: config.SignalConfig{
				Method:      "ma_crossover",
				MACrossover: config.MACrossoverConfig{FastPeriod: 5, SlowPeriod: 10},
			},
			Sizing: config.SizingConfig{Method: "min_size"},
			Risk:   config.RiskConfig{Method: "max_leverage_factor", MaxLeverageFactor: 5},
		},
		Director:  config.DirectorConfig{SleepInterval: 10 * time.Millisecond},
		Execution: config.ExecutionConfig{Mode: config.ExecutionModeDryRun, Slippage: 0.01},
	}
}

func newMarket(t *testing.T, cfg *config.Config) *exchange.Client {
	t.Helper()
	market, err := exchange.NewClient(exchangeOptions(cfg), zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return market
}

func TestBuildPipeline_DryRun(t *testing.T) {
	cfg := testConfig()
	p, err := buildPipeline(cfg, newMarket(t, cfg), cfg.Exchange.Symbols, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("buildPipeline returned error: %v", err)
	}
	if p.director.State() != director.StateRunning {
		t.Fatalf("expected RUNNING, got %s", p.director.State())
	}
	if p.metrics == nil || p.queue == nil {
		t.Fatal("pipeline components missing")
	}
}

func TestBuildPipeline_UnknownMethodIsConfigurationError(t *testing.T) {
	cases := map[string]func(*config.Config){
		"signal": func(c *config.Config) { c.Strategy.Signal.Method = "rsi_divergence" },
		"sizing": func(c *config.Config) { c.Strategy.Sizing.Method = "kelly" },
		"risk":   func(c *config.Config) { c.Strategy.Risk.Method = "var" },
		"ma":     func(c *config.Config) { c.Strategy.Signal.MACrossover.FastPeriod = 20 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			mutate(cfg)
			_, err := buildPipeline(cfg, newMarket(t, cfg), cfg.Exchange.Symbols, nil, zap.NewNop())
			if !errors.Is(err, config.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestBuildPipeline_AIAdvisorNeedsKey(t *testing.T) {
	cfg := testConfig()
	cfg.Strategy.Signal.Method = "ai_advisor"
	cfg.Strategy.Signal.AIAdvisor.Lookback = 60
	if _, err := buildPipeline(cfg, newMarket(t, cfg), cfg.Exchange.Symbols, nil, zap.NewNop()); err == nil {
		t.Fatal("expected error without openai key")
	}
}

func TestNewTradeVenue(t *testing.T) {
	cfg := testConfig()
	market := newMarket(t, cfg)

	venue, err := newTradeVenue(cfg, market, zap.NewNop())
	if err != nil {
		t.Fatalf("newTradeVenue returned error: %v", err)
	}
	if venue != accountVenue(market) {
		t.Fatal("dry run should reuse the market client")
	}

	cfg.Execution.Mode = config.ExecutionModeLive
	cfg.Trade = config.TradeExchangeConfig{Name: "hyperliquid", UseSandbox: true, Wallet: "0xabc", PrivateKey: "0xdef"}
	venue, err = newTradeVenue(cfg, market, zap.NewNop())
	if err != nil {
		t.Fatalf("newTradeVenue returned error: %v", err)
	}
	if venue == accountVenue(market) {
		t.Fatal("live mode with a trade exchange should use a separate client")
	}

	cfg.Trade.Name = "kraken"
	if _, err := newTradeVenue(cfg, market, zap.NewNop()); err == nil {
		t.Fatal("expected error for unsupported trade exchange")
	}
}

func TestStopOnDone_EnqueuesSentinel(t *testing.T) {
	queue := events.NewQueue()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		stopOnDone(ctx, queue, zap.NewNop())
		close(done)
	}()

	if queue.Len() != 0 {
		t.Fatal("sentinel enqueued before cancel")
	}
	cancel()
	<-done

	e, ok := queue.TryDequeue()
	if !ok || e != nil {
		t.Fatalf("expected sentinel, got %v %v", e, ok)
	}
}
