package signal

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"trades-director/internal/ai"
	"trades-director/internal/config"
	"trades-director/internal/events"
	"trades-director/internal/exchange"
	"trades-director/internal/portfolio"
)

const (
	MethodMACrossover = "ma_crossover"
	MethodAIAdvisor   = "ai_advisor"
)

// PositionCounter 提供策略在某品种上的多空持仓笔数。
type PositionCounter interface {
	OpenPositionCounts(ctx context.Context, symbol string) (portfolio.Counts, error)
}

// Advisor 为模型建议来源。
type Advisor interface {
	Advise(ctx context.Context, req ai.Request) (ai.Advice, error)
}

// Method 为一种信号规则，返回 false 表示本次不出信号。
type Method interface {
	Name() string
	Decide(ctx context.Context, event events.DataEvent) (events.Intent, bool)
}

// Deps 为信号规则依赖的外部服务。
type Deps struct {
	Bars      exchange.BarSource
	Positions PositionCounter
	Advisor   Advisor
}

// Generator 消费 DATA 事件，至多投递一个 SIGNAL 事件。
type Generator struct {
	method    Method
	magic     int64
	publisher events.Publisher
	logger    *zap.Logger
}

// New 根据配置选择信号规则，未知规则返回配置错误。
func New(cfg config.StrategyConfig, deps Deps, publisher events.Publisher, logger *zap.Logger) (*Generator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		method Method
		err    error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Signal.Method)) {
	case MethodMACrossover:
		method, err = NewMACrossover(cfg.Signal.MACrossover, cfg.Timeframe, deps.Bars, deps.Positions, logger)
	case MethodAIAdvisor:
		method, err = NewAIAdvisor(cfg.Signal.AIAdvisor, cfg.Timeframe, deps.Bars, deps.Positions, deps.Advisor, logger)
	default:
		err = config.Errorf("未知的信号方法 %q", cfg.Signal.Method)
	}
	if err != nil {
		return nil, err
	}

	return NewGenerator(method, cfg.MagicNumber, publisher, logger), nil
}

// NewGenerator 使用指定规则创建信号生成器。
func NewGenerator(method Method, magic int64, publisher events.Publisher, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		method:    method,
		magic:     magic,
		publisher: publisher,
		logger:    logger,
	}
}

// Method 返回当前规则名称。
func (g *Generator) Method() string {
	return g.method.Name()
}

// GenerateSignal 对一个 DATA 事件应用信号规则。
func (g *Generator) GenerateSignal(ctx context.Context, event events.DataEvent) (events.SignalEvent, bool) {
	intent, ok := g.method.Decide(ctx, event)
	if !ok {
		return events.SignalEvent{}, false
	}
	intent.Symbol = event.Symbol
	intent.MagicNumber = g.magic

	signal, err := events.NewSignalEvent(intent)
	if err != nil {
		g.logger.Warn("信号不合法，已丢弃",
			zap.String("symbol", event.Symbol),
			zap.String("method", g.method.Name()),
			zap.Error(err),
		)
		return events.SignalEvent{}, false
	}

	g.publisher.Enqueue(signal)
	return signal, true
}
