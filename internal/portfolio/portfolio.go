package portfolio

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"trades-director/internal/exchange"
)

// Counts 为某品种按方向统计的持仓笔数。
type Counts struct {
	Long  int
	Short int
}

// Portfolio 提供按策略编号过滤后的持仓查询。
type Portfolio struct {
	source exchange.PositionSource
	magic  int64
	logger *zap.Logger
}

// New 创建组合查询服务。
func New(source exchange.PositionSource, magic int64, logger *zap.Logger) *Portfolio {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Portfolio{source: source, magic: magic, logger: logger}
}

// MagicNumber 返回策略编号。
func (p *Portfolio) MagicNumber() int64 {
	return p.magic
}

// StrategyOpenPositions 返回本策略的全部持仓。
func (p *Portfolio) StrategyOpenPositions(ctx context.Context) ([]exchange.Position, error) {
	all, err := p.source.OpenPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("portfolio: 获取持仓失败: %w", err)
	}

	owned := make([]exchange.Position, 0, len(all))
	for _, pos := range all {
		if pos.MagicNumber == p.magic {
			owned = append(owned, pos)
		}
	}
	return owned, nil
}

// OpenPositionCounts 统计本策略在 symbol 上的多空持仓笔数。
func (p *Portfolio) OpenPositionCounts(ctx context.Context, symbol string) (Counts, error) {
	positions, err := p.StrategyOpenPositions(ctx)
	if err != nil {
		return Counts{}, err
	}

	var counts Counts
	for _, pos := range positions {
		if !strings.EqualFold(pos.Symbol, symbol) {
			continue
		}
		switch pos.Type {
		case exchange.PositionLong:
			counts.Long++
		case exchange.PositionShort:
			counts.Short++
		}
	}

	p.logger.Debug("持仓统计",
		zap.String("symbol", symbol),
		zap.Int("long", counts.Long),
		zap.Int("short", counts.Short),
	)
	return counts, nil
}
