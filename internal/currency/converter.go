package currency

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"trades-director/internal/exchange"
)

// SymbolStyle 决定外汇品种的书写方式。
type SymbolStyle string

const (
	StylePlain SymbolStyle = "plain" // EURUSD
	StyleSlash SymbolStyle = "slash" // EUR/USD
)

// Majors 为换汇使用的主要货币对与交叉盘。
var Majors = []string{
	"AUDCAD", "AUDCHF", "AUDJPY", "AUDNZD", "AUDUSD", "CADCHF", "CADJPY", "CHFJPY", "EURAUD", "EURCAD",
	"EURCHF", "EURGBP", "EURJPY", "EURNZD", "EURUSD", "GBPAUD", "GBPCAD", "GBPCHF", "GBPJPY", "GBPNZD",
	"GBPUSD", "NZDCAD", "NZDCHF", "NZDJPY", "NZDUSD", "USDCAD", "USDCHF", "USDJPY", "USDSEK", "USDNOK",
}

// Converter 通过最新买价在两种货币间换算金额。
type Converter struct {
	ticks  exchange.TickSource
	style  SymbolStyle
	logger *zap.Logger
}

// NewConverter 创建换汇服务。
func NewConverter(ticks exchange.TickSource, style SymbolStyle, logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if style == "" {
		style = StylePlain
	}
	return &Converter{ticks: ticks, style: style, logger: logger}
}

// Convert 将 amount 从 from 换算为 to。
// 找不到货币对或报价不可用时返回 0。
func (c *Converter) Convert(ctx context.Context, amount float64, from, to string) float64 {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == to {
		return amount
	}

	pair, ok := FindPair(from, to)
	if !ok {
		c.logger.Warn("没有可用于换汇的货币对",
			zap.String("from", from),
			zap.String("to", to),
			zap.Float64("amount", amount),
		)
		return 0
	}

	symbol := c.format(pair)
	tick, err := c.ticks.LatestTick(ctx, symbol)
	if err != nil || tick.Bid <= 0 {
		c.logger.Warn("获取换汇报价失败",
			zap.String("symbol", symbol),
			zap.String("from", from),
			zap.String("to", to),
			zap.Float64("bid", tick.Bid),
			zap.Error(err),
		)
		return 0
	}

	if pair[:3] == to {
		return amount / tick.Bid
	}
	return amount * tick.Bid
}

// FindPair 返回同时包含两种货币的货币对。
func FindPair(a, b string) (string, bool) {
	for _, pair := range Majors {
		base, quote := pair[:3], pair[3:]
		if (base == a && quote == b) || (base == b && quote == a) {
			return pair, true
		}
	}
	return "", false
}

func (c *Converter) format(pair string) string {
	if c.style == StyleSlash {
		return pair[:3] + "/" + pair[3:]
	}
	return pair
}
