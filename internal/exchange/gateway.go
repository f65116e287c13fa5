package exchange

import (
	"context"

	"trades-director/internal/events"
)

// TickSource 提供最新报价。
type TickSource interface {
	LatestTick(ctx context.Context, symbol string) (Tick, error)
}

// BarSource 提供已收盘K线，按时间升序排列。
type BarSource interface {
	LatestClosedBars(ctx context.Context, symbol, timeframe string, count int) ([]events.Bar, error)
}

// SymbolSource 提供品种元数据。
type SymbolSource interface {
	SymbolInfo(ctx context.Context, symbol string) (SymbolInfo, error)
}

// AccountSource 提供账户快照。
type AccountSource interface {
	AccountSnapshot(ctx context.Context) (AccountSnapshot, error)
}

// PositionSource 提供账户下的全部持仓。
type PositionSource interface {
	OpenPositions(ctx context.Context) ([]Position, error)
}

// Gateway 聚合流水线需要的全部行情终端能力。
// 任何查询无数据时返回包装 ErrUnavailable 的错误。
type Gateway interface {
	TickSource
	BarSource
	SymbolSource
	AccountSource
	PositionSource
}

var _ Gateway = (*Client)(nil)
