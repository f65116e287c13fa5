package indicator

import (
	"fmt"
	"math"

	talib "github.com/markcheno/go-talib"

	"trades-director/internal/events"
)

// SMA 返回 values 末尾 period 个值的简单均线。
func SMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("indicator: 均线周期无效 %d", period)
	}
	if len(values) < period {
		return 0, fmt.Errorf("indicator: 数据不足 需要 %d 根，实际 %d 根", period, len(values))
	}
	if period == 1 {
		return Last(values), nil
	}

	sma := Last(talib.Sma(values[len(values)-period:], period))
	if math.IsNaN(sma) {
		return 0, fmt.Errorf("indicator: 均线计算结果无效")
	}
	return sma, nil
}

// Snapshot 为一组K线的指标摘要。
type Snapshot struct {
	Bars        int     `json:"bars"`
	Close       float64 `json:"close"`
	ChangePct   float64 `json:"change_pct"`
	EMA12       float64 `json:"ema12"`
	EMA26       float64 `json:"ema26"`
	RSI14       float64 `json:"rsi14"`
	ATR14       float64 `json:"atr14"`
	ATRRelative float64 `json:"atr_relative"`
	VolumeRatio float64 `json:"volume_ratio"`
}

const minSnapshotBars = 27

// Compute 依据给定K线计算摘要指标。
func Compute(bars []events.Bar) (Snapshot, error) {
	if len(bars) < minSnapshotBars {
		return Snapshot{}, fmt.Errorf("indicator: 计算指标至少需要 %d 根K线，实际 %d 根", minSnapshotBars, len(bars))
	}

	series := NewSeries(bars)
	closes := series.Close

	atr := Last(talib.Atr(series.High, series.Low, closes, 14))
	lastClose := Last(closes)

	volumeAvg := average(series.Volume[len(series.Volume)-20:])

	return Snapshot{
		Bars:        series.Len(),
		Close:       lastClose,
		ChangePct:   SafeDivide(lastClose-closes[0], closes[0]) * 100,
		EMA12:       Last(talib.Ema(closes, 12)),
		EMA26:       Last(talib.Ema(closes, 26)),
		RSI14:       Last(talib.Rsi(closes, 14)),
		ATR14:       atr,
		ATRRelative: SafeDivide(atr, lastClose),
		VolumeRatio: SafeDivide(Last(series.Volume), volumeAvg),
	}, nil
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
