package signal

import (
	"context"

	"go.uber.org/zap"

	"trades-director/internal/config"
	"trades-director/internal/events"
	"trades-director/internal/exchange"
	"trades-director/internal/indicator"
)

// MACrossover 为快慢均线交叉规则。
type MACrossover struct {
	bars      exchange.BarSource
	positions PositionCounter
	timeframe string
	fast      int
	slow      int
	logger    *zap.Logger
}

// NewMACrossover 创建均线交叉规则，快线周期至少为2，慢线至少为3。
func NewMACrossover(props config.MACrossoverConfig, timeframe string, bars exchange.BarSource, positions PositionCounter, logger *zap.Logger) (*MACrossover, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	fast := props.FastPeriod
	if fast < 2 {
		fast = 2
	}
	slow := props.SlowPeriod
	if slow < 3 {
		slow = 3
	}
	if fast >= slow {
		return nil, config.Errorf("快线周期 %d 必须小于慢线周期 %d", fast, slow)
	}
	if bars == nil || positions == nil {
		return nil, config.Errorf("均线交叉需要K线与持仓数据源")
	}

	return &MACrossover{
		bars:      bars,
		positions: positions,
		timeframe: timeframe,
		fast:      fast,
		slow:      slow,
		logger:    logger,
	}, nil
}

// Name 返回规则名称。
func (m *MACrossover) Name() string { return MethodMACrossover }

// Periods 返回生效的快慢周期。
func (m *MACrossover) Periods() (int, int) { return m.fast, m.slow }

// Decide 快线在上且无多单时做多，慢线在上且无空单时做空。
func (m *MACrossover) Decide(ctx context.Context, event events.DataEvent) (events.Intent, bool) {
	symbol := event.Symbol

	bars, err := m.bars.LatestClosedBars(ctx, symbol, m.timeframe, m.slow)
	if err != nil {
		m.logger.Warn("获取K线失败，不出信号", zap.String("symbol", symbol), zap.Error(err))
		return events.Intent{}, false
	}

	closes := indicator.NewSeries(bars).Close
	fastMA, err := indicator.SMA(closes, m.fast)
	if err != nil {
		m.logger.Warn("快线计算失败", zap.String("symbol", symbol), zap.Int("bars", len(closes)), zap.Error(err))
		return events.Intent{}, false
	}
	slowMA, err := indicator.SMA(closes, m.slow)
	if err != nil {
		m.logger.Warn("慢线计算失败", zap.String("symbol", symbol), zap.Int("bars", len(closes)), zap.Error(err))
		return events.Intent{}, false
	}

	counts, err := m.positions.OpenPositionCounts(ctx, symbol)
	if err != nil {
		m.logger.Warn("持仓查询不可用，不出信号", zap.String("symbol", symbol), zap.Error(err))
		return events.Intent{}, false
	}

	var side events.Side
	switch {
	case counts.Long == 0 && fastMA > slowMA:
		side = events.SideBuy
	case counts.Short == 0 && slowMA > fastMA:
		side = events.SideSell
	default:
		return events.Intent{}, false
	}

	m.logger.Debug("均线交叉信号",
		zap.String("symbol", symbol),
		zap.Float64("fast_ma", fastMA),
		zap.Float64("slow_ma", slowMA),
		zap.String("side", string(side)),
	)

	return events.Intent{
		Signal:      side,
		TargetOrder: events.OrderMarket,
	}, true
}
