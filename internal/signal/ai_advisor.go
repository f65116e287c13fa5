package signal

import (
	"context"

	"go.uber.org/zap"

	"trades-director/internal/ai"
	"trades-director/internal/config"
	"trades-director/internal/events"
	"trades-director/internal/exchange"
	"trades-director/internal/indicator"
)

const minAdvisorLookback = 30

// AIAdvisor 把指标摘要交给模型，由模型给出方向与止损止盈。
type AIAdvisor struct {
	bars      exchange.BarSource
	positions PositionCounter
	advisor   Advisor
	timeframe string
	lookback  int
	logger    *zap.Logger
}

// NewAIAdvisor 创建模型建议规则。
func NewAIAdvisor(props config.AIAdvisorConfig, timeframe string, bars exchange.BarSource, positions PositionCounter, advisor Advisor, logger *zap.Logger) (*AIAdvisor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if advisor == nil {
		return nil, config.Errorf("ai_advisor 需要配置 openai")
	}
	if bars == nil || positions == nil {
		return nil, config.Errorf("ai_advisor 需要K线与持仓数据源")
	}

	lookback := props.Lookback
	if lookback < minAdvisorLookback {
		lookback = minAdvisorLookback
	}

	return &AIAdvisor{
		bars:      bars,
		positions: positions,
		advisor:   advisor,
		timeframe: timeframe,
		lookback:  lookback,
		logger:    logger,
	}, nil
}

// Name 返回规则名称。
func (a *AIAdvisor) Name() string { return MethodAIAdvisor }

// Decide 与均线规则相同，已有同向持仓时不再重复开仓。
func (a *AIAdvisor) Decide(ctx context.Context, event events.DataEvent) (events.Intent, bool) {
	symbol := event.Symbol

	bars, err := a.bars.LatestClosedBars(ctx, symbol, a.timeframe, a.lookback)
	if err != nil {
		a.logger.Warn("获取K线失败，不出信号", zap.String("symbol", symbol), zap.Error(err))
		return events.Intent{}, false
	}
	snapshot, err := indicator.Compute(bars)
	if err != nil {
		a.logger.Warn("指标计算失败", zap.String("symbol", symbol), zap.Error(err))
		return events.Intent{}, false
	}

	counts, err := a.positions.OpenPositionCounts(ctx, symbol)
	if err != nil {
		a.logger.Warn("持仓查询不可用，不出信号", zap.String("symbol", symbol), zap.Error(err))
		return events.Intent{}, false
	}

	advice, err := a.advisor.Advise(ctx, ai.Request{
		Symbol:     symbol,
		Timeframe:  a.timeframe,
		Indicators: snapshot,
		Long:       counts.Long,
		Short:      counts.Short,
	})
	if err != nil {
		a.logger.Warn("模型建议不可用，不出信号", zap.String("symbol", symbol), zap.Error(err))
		return events.Intent{}, false
	}

	intent := events.Intent{
		TargetOrder: events.OrderMarket,
		SL:          advice.StopLoss,
		TP:          advice.TakeProfit,
	}
	switch {
	case advice.Action == ai.ActionBuy && counts.Long == 0:
		intent.Signal = events.SideBuy
	case advice.Action == ai.ActionSell && counts.Short == 0:
		intent.Signal = events.SideSell
	default:
		return events.Intent{}, false
	}

	// 止损必须位于入场方向的反侧，否则交给下游按未设置处理。
	if intent.SL > 0 && ((intent.Signal == events.SideBuy && intent.SL >= snapshot.Close) ||
		(intent.Signal == events.SideSell && intent.SL <= snapshot.Close)) {
		a.logger.Warn("模型止损位于错误一侧，已清空",
			zap.String("symbol", symbol),
			zap.Float64("close", snapshot.Close),
			zap.Float64("sl", intent.SL),
		)
		intent.SL = 0
	}

	return intent, true
}
