package exchange

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	ccxt "github.com/ccxt/ccxt/go/v4"

	"trades-director/internal/events"
)

// precisionMode 对应 ccxt 交易所的精度模式，零值为步长模式。
type precisionMode int

const (
	precisionTickSize precisionMode = iota
	precisionDecimalPlaces
)

// parseMarket 从 ccxt 市场描述中提取品种元数据。
func parseMarket(symbol string, raw interface{}, mode precisionMode) (SymbolInfo, error) {
	market, ok := raw.(map[string]interface{})
	if !ok || len(market) == 0 {
		return SymbolInfo{}, unavailable("品种 %s 无市场元数据", symbol)
	}

	info := SymbolInfo{
		Symbol:       symbol,
		ContractSize: parseNumeric(market["contractSize"]),
		Currency:     strings.ToUpper(stringField(market, "base")),
	}
	if info.ContractSize <= 0 {
		info.ContractSize = 1
	}

	info.CurrencyProfit = strings.ToUpper(stringField(market, "settle"))
	if info.CurrencyProfit == "" {
		info.CurrencyProfit = strings.ToUpper(stringField(market, "quote"))
	}

	if precision, ok := market["precision"].(map[string]interface{}); ok {
		info.VolumeStep = precisionStep(parseNumeric(precision["amount"]), mode)
		info.TickSize = precisionStep(parseNumeric(precision["price"]), mode)
	}
	if limits, ok := market["limits"].(map[string]interface{}); ok {
		if amount, ok := limits["amount"].(map[string]interface{}); ok {
			info.VolumeMin = parseNumeric(amount["min"])
		}
	}

	if info.VolumeStep <= 0 {
		info.VolumeStep = info.VolumeMin
	}
	if info.VolumeMin <= 0 {
		info.VolumeMin = info.VolumeStep
	}

	if info.VolumeStep <= 0 || info.TickSize <= 0 {
		return info, unavailable("品种 %s 缺少精度信息 step=%v tick=%v", symbol, info.VolumeStep, info.TickSize)
	}
	return info, nil
}

// precisionStep 将精度换算为步长。步长模式下原样返回，1 表示整手。
func precisionStep(value float64, mode precisionMode) float64 {
	if value <= 0 {
		return 0
	}
	if mode == precisionDecimalPlaces && value == math.Trunc(value) {
		return math.Pow10(-int(value))
	}
	return value
}

func convertOHLCV(raw []ccxt.OHLCV) []events.Bar {
	bars := make([]events.Bar, 0, len(raw))
	for _, item := range raw {
		bars = append(bars, events.Bar{
			Timestamp: time.UnixMilli(item.Timestamp).UTC(),
			Open:      item.Open,
			High:      item.High,
			Low:       item.Low,
			Close:     item.Close,
			Volume:    item.Volume,
		})
	}
	return bars
}

// balanceFor 优先取账户币种，其次稳定币。
func balanceFor(balances ccxt.Balances, currency string) (float64, string) {
	codes := []string{strings.ToUpper(currency), "USDC", "USD", "USDT"}
	if balances.Total != nil {
		for _, code := range codes {
			if total, ok := balances.Total[code]; ok && total != nil {
				return *total, code
			}
		}
	}
	return 0, ""
}

// equityFromInfo 读取 Hyperliquid 一类交易所在 info 中给出的账户净值。
func equityFromInfo(info map[string]interface{}) float64 {
	if info == nil {
		return 0
	}
	if summary, ok := info["marginSummary"].(map[string]interface{}); ok {
		if v := parseNumeric(summary["accountValue"]); v > 0 {
			return v
		}
	}
	if cross, ok := info["crossMarginSummary"].(map[string]interface{}); ok {
		if v := parseNumeric(cross["accountValue"]); v > 0 {
			return v
		}
	}
	return 0
}

func convertPositions(raw []ccxt.Position, magic int64) []Position {
	positions := make([]Position, 0, len(raw))
	for _, rawPos := range raw {
		symbol := derefString(rawPos.Symbol)
		size := math.Abs(derefFloat(rawPos.Contracts))
		if symbol == "" || size == 0 {
			continue
		}

		posType := PositionLong
		if strings.EqualFold(strings.TrimSpace(derefString(rawPos.Side)), "short") {
			posType = PositionShort
		}

		positions = append(positions, Position{
			Symbol:      symbol,
			Volume:      size,
			Type:        posType,
			MagicNumber: magic,
		})
	}
	return positions
}

func stringField(m map[string]interface{}, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case *string:
		return derefString(v)
	}
	return ""
}

func derefFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func parseNumeric(value interface{}) float64 {
	switch v := value.(type) {
	case nil:
		return 0
	case float64:
		return v
	case *float64:
		if v != nil {
			return *v
		}
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case int32:
		return float64(v)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	case fmt.Stringer:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v.String()), 64); err == nil {
			return f
		}
	}
	return 0
}
