package sizing

import (
	"context"

	"trades-director/internal/config"
	"trades-director/internal/events"
	"trades-director/internal/exchange"
)

// MinSize 总是使用品种允许的最小手数。
type MinSize struct {
	symbols exchange.SymbolSource
}

// NewMinSize 创建最小手数规则。
func NewMinSize(deps Deps) (*MinSize, error) {
	if deps.Symbols == nil {
		return nil, config.Errorf("min_size 需要品种信息服务")
	}
	return &MinSize{symbols: deps.Symbols}, nil
}

// Name 返回规则名称。
func (m *MinSize) Name() string { return MethodMinSize }

// Size 返回最小手数。
func (m *MinSize) Size(ctx context.Context, signal events.SignalEvent) events.Verdict {
	info, err := m.symbols.SymbolInfo(ctx, signal.Symbol)
	if err != nil {
		return events.Reject("品种信息不可用: %v", err)
	}
	volume := info.VolumeMin
	if volume <= 0 {
		volume = info.VolumeStep
	}
	return events.Accept(volume)
}

// Fixed 使用配置的固定手数，按品种步长取整。
type Fixed struct {
	volume  float64
	symbols exchange.SymbolSource
}

// NewFixed 创建固定手数规则。
func NewFixed(volume float64, deps Deps) (*Fixed, error) {
	if volume <= 0 {
		return nil, config.Errorf("固定手数必须为正，当前为 %v", volume)
	}
	if deps.Symbols == nil {
		return nil, config.Errorf("fixed 需要品种信息服务")
	}
	return &Fixed{volume: volume, symbols: deps.Symbols}, nil
}

// Name 返回规则名称。
func (f *Fixed) Name() string { return MethodFixed }

// Size 返回取整后的固定手数。
func (f *Fixed) Size(ctx context.Context, signal events.SignalEvent) events.Verdict {
	info, err := f.symbols.SymbolInfo(ctx, signal.Symbol)
	if err != nil {
		return events.Reject("品种信息不可用: %v", err)
	}
	volume := RoundToStep(f.volume, info.VolumeStep)
	if volume < info.VolumeMin {
		return events.Reject("固定手数 %v 低于最小手数 %v", volume, info.VolumeMin)
	}
	return events.Accept(volume)
}
