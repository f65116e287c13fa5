package risk

import (
	"math"

	"trades-director/internal/config"
	"trades-director/internal/events"
	"trades-director/internal/sizing"
)

const epsilon = 1e-9

// MaxLeverageFactor 限制 |当前敞口 + 新增敞口| / 净值 不超过给定倍数。
type MaxLeverageFactor struct {
	factor float64
}

// NewMaxLeverageFactor 创建杠杆上限规则。
func NewMaxLeverageFactor(factor float64) (*MaxLeverageFactor, error) {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return nil, config.Errorf("max_leverage_factor 必须为正，当前为 %v", factor)
	}
	return &MaxLeverageFactor{factor: factor}, nil
}

// Name 返回规则名称。
func (m *MaxLeverageFactor) Name() string { return MethodMaxLeverageFactor }

// Assess 未超限时原样通过；超限时按剩余额度缩减手数并向下取整到步长，
// 缩减后仍不满足上限或不足一个步长则拒绝。
func (m *MaxLeverageFactor) Assess(a Assessment) events.Verdict {
	if a.Equity <= 0 {
		return events.Reject("账户净值 %v 无效", a.Equity)
	}
	if a.Volume <= 0 {
		return events.Reject("手数 %v 无效", a.Volume)
	}

	limit := m.factor * a.Equity
	total := a.CurrentExposure + a.ProposedExposure
	if math.Abs(total) <= limit+epsilon {
		return events.Accept(a.Volume)
	}

	unit := math.Abs(a.ValuePerLot)
	if unit <= 0 {
		return events.Reject("单手价值无效")
	}

	// 沿新仓位方向度量的当前敞口
	along := a.CurrentExposure
	if a.ValuePerLot < 0 {
		along = -along
	}

	maxVolume := (limit - along) / unit
	minVolume := math.Max(0, (-limit-along)/unit)

	volume := math.Min(a.Volume, maxVolume)
	if a.VolumeStep > 0 {
		volume = sizing.FloorToStep(volume, a.VolumeStep)
	}

	step := math.Max(a.VolumeStep, a.VolumeMin)
	if volume <= 0 || volume+epsilon < step || volume+epsilon < minVolume || volume >= a.Volume {
		return events.Reject("超出杠杆上限 leverage=%.4f factor=%v current=%.2f proposed=%.2f",
			math.Abs(total)/a.Equity, m.factor, a.CurrentExposure, a.ProposedExposure)
	}

	return events.Accept(volume)
}
