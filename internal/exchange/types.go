package exchange

import "time"

// Tick 为最新报价。
type Tick struct {
	Bid  float64
	Ask  float64
	Time time.Time
}

// SymbolInfo 描述下单与估值所需的品种元数据。
type SymbolInfo struct {
	Symbol         string
	VolumeStep     float64
	VolumeMin      float64
	TickSize       float64
	ContractSize   float64
	Currency       string // 基础货币
	CurrencyProfit string // 盈亏结算货币
}

// AccountSnapshot 为账户快照。
type AccountSnapshot struct {
	Equity   float64
	Balance  float64
	Currency string
}

// PositionType 表示持仓方向。
type PositionType string

const (
	PositionLong  PositionType = "LONG"
	PositionShort PositionType = "SHORT"
)

// Position 为单笔持仓。
type Position struct {
	Symbol      string
	Volume      float64
	Type        PositionType
	MagicNumber int64
}
