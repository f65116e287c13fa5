package sizing

import "github.com/shopspring/decimal"

// RoundToStep 将手数四舍五入到 step 的整数倍。
func RoundToStep(volume, step float64) float64 {
	if step <= 0 {
		return 0
	}
	d := decimal.NewFromFloat(step)
	return decimal.NewFromFloat(volume).Div(d).Round(0).Mul(d).InexactFloat64()
}

// FloorToStep 将手数向下取整到 step 的整数倍。
func FloorToStep(volume, step float64) float64 {
	if step <= 0 {
		return 0
	}
	d := decimal.NewFromFloat(step)
	return decimal.NewFromFloat(volume).Div(d).Floor().Mul(d).InexactFloat64()
}

// TicksBetween 返回两个价格之间完整的最小变动价位个数。
func TicksBetween(a, b, tickSize float64) int64 {
	if tickSize <= 0 {
		return 0
	}
	return decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Abs().
		Div(decimal.NewFromFloat(tickSize)).Floor().IntPart()
}
