package sizing

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"trades-director/internal/config"
	"trades-director/internal/events"
	"trades-director/internal/exchange"
)

const (
	MethodRiskPct = "risk_pct"
	MethodMinSize = "min_size"
	MethodFixed   = "fixed"
)

// Converter 将金额换算为另一种货币，失败时返回 0。
type Converter interface {
	Convert(ctx context.Context, amount float64, from, to string) float64
}

// Deps 为仓位计算依赖的行情与账户服务。
type Deps struct {
	Ticks           exchange.TickSource
	Symbols         exchange.SymbolSource
	Account         exchange.AccountSource
	Converter       Converter
	AccountCurrency string
}

// Method 为一种仓位计算规则，拒绝时 Verdict.Volume 为 0。
type Method interface {
	Name() string
	Size(ctx context.Context, signal events.SignalEvent) events.Verdict
}

// Sizer 消费 SIGNAL 事件，手数为正时投递 SIZING 事件。
type Sizer struct {
	method    Method
	publisher events.Publisher
	logger    *zap.Logger
}

// New 根据配置选择仓位计算规则，未知规则返回配置错误。
func New(cfg config.SizingConfig, deps Deps, publisher events.Publisher, logger *zap.Logger) (*Sizer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		method Method
		err    error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Method)) {
	case MethodRiskPct:
		method, err = NewRiskPct(cfg.RiskPct, deps, logger)
	case MethodMinSize:
		method, err = NewMinSize(deps)
	case MethodFixed:
		method, err = NewFixed(cfg.Volume, deps)
	default:
		err = config.Errorf("未知的仓位计算方法 %q", cfg.Method)
	}
	if err != nil {
		return nil, err
	}

	return NewSizer(method, publisher, logger), nil
}

// NewSizer 使用指定规则创建仓位计算器。
func NewSizer(method Method, publisher events.Publisher, logger *zap.Logger) *Sizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sizer{method: method, publisher: publisher, logger: logger}
}

// Method 返回当前规则名称。
func (s *Sizer) Method() string {
	return s.method.Name()
}

// SizeSignal 计算手数，手数为正时投递 SIZING 事件。
// 任何计算失败都只会得到拒绝结果，不会中断流水线。
func (s *Sizer) SizeSignal(ctx context.Context, signal events.SignalEvent) events.Verdict {
	verdict := s.method.Size(ctx, signal)
	if !verdict.Accepted() {
		s.logger.Warn("仓位计算拒绝交易",
			zap.String("symbol", signal.Symbol),
			zap.String("method", s.method.Name()),
			zap.String("signal", string(signal.Signal)),
			zap.String("reason", verdict.Reason),
		)
		return verdict
	}

	sizing, err := signal.Sized(verdict.Volume)
	if err != nil {
		s.logger.Warn("构造 SIZING 事件失败", zap.String("symbol", signal.Symbol), zap.Error(err))
		return events.Reject("构造 SIZING 事件失败: %v", err)
	}

	s.publisher.Enqueue(sizing)
	return verdict
}
