package risk

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"trades-director/internal/config"
	"trades-director/internal/events"
	"trades-director/internal/exchange"
)

const MethodMaxLeverageFactor = "max_leverage_factor"

// Converter 将金额换算为另一种货币，失败时返回 0。
type Converter interface {
	Convert(ctx context.Context, amount float64, from, to string) float64
}

// PositionLister 返回本策略的全部持仓。
type PositionLister interface {
	StrategyOpenPositions(ctx context.Context) ([]exchange.Position, error)
}

// Deps 为风控依赖的行情、账户与持仓服务。
type Deps struct {
	Ticks           exchange.TickSource
	Symbols         exchange.SymbolSource
	Account         exchange.AccountSource
	Converter       Converter
	Positions       PositionLister
	AccountCurrency string
}

// Assessment 为一次风控评估的输入，金额均为账户货币，空头为负。
type Assessment struct {
	Symbol           string
	Volume           float64
	VolumeStep       float64
	VolumeMin        float64
	ValuePerLot      float64
	CurrentExposure  float64
	ProposedExposure float64
	Equity           float64
}

// Method 为一种组合层面的风控规则，返回调整后的手数。
type Method interface {
	Name() string
	Assess(a Assessment) events.Verdict
}

// Manager 消费 SIZING 事件，通过风控后投递 ORDER 事件。
type Manager struct {
	method    Method
	deps      Deps
	publisher events.Publisher
	logger    *zap.Logger
}

// New 根据配置选择风控规则，未知规则返回配置错误。
func New(cfg config.RiskConfig, deps Deps, publisher events.Publisher, logger *zap.Logger) (*Manager, error) {
	var (
		method Method
		err    error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Method)) {
	case MethodMaxLeverageFactor:
		method, err = NewMaxLeverageFactor(cfg.MaxLeverageFactor)
	default:
		err = config.Errorf("未知的风控方法 %q", cfg.Method)
	}
	if err != nil {
		return nil, err
	}

	return NewManager(method, deps, publisher, logger)
}

// NewManager 使用指定规则创建风控管理器。
func NewManager(method Method, deps Deps, publisher events.Publisher, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Ticks == nil || deps.Symbols == nil || deps.Account == nil || deps.Converter == nil || deps.Positions == nil {
		return nil, config.Errorf("风控需要报价、品种、账户、换汇与持仓服务")
	}
	return &Manager{
		method:    method,
		deps:      deps,
		publisher: publisher,
		logger:    logger,
	}, nil
}

// Method 返回当前规则名称。
func (m *Manager) Method() string {
	return m.method.Name()
}

// AssessOrder 评估 SIZING 事件，通过时投递手数调整后的 ORDER 事件。
// 拒绝属于正常结果，只记录日志。
func (m *Manager) AssessOrder(ctx context.Context, sizing events.SizingEvent) events.Verdict {
	verdict := m.assess(ctx, sizing)
	if !verdict.Accepted() {
		m.logger.Warn("风控拒绝订单",
			zap.String("symbol", sizing.Symbol),
			zap.String("method", m.method.Name()),
			zap.String("signal", string(sizing.Signal)),
			zap.Float64("volume", sizing.Volume),
			zap.String("reason", verdict.Reason),
		)
		return verdict
	}

	order, err := sizing.ToOrder(verdict.Volume)
	if err != nil {
		m.logger.Warn("构造 ORDER 事件失败", zap.String("symbol", sizing.Symbol), zap.Error(err))
		return events.Reject("构造 ORDER 事件失败: %v", err)
	}

	m.publisher.Enqueue(order)
	return verdict
}

func (m *Manager) assess(ctx context.Context, sizing events.SizingEvent) events.Verdict {
	account, err := m.deps.Account.AccountSnapshot(ctx)
	if err != nil {
		return events.Reject("账户信息不可用: %v", err)
	}
	info, err := m.deps.Symbols.SymbolInfo(ctx, sizing.Symbol)
	if err != nil {
		return events.Reject("品种信息不可用: %v", err)
	}

	current, err := m.CurrentExposure(ctx)
	if err != nil {
		return events.Reject("持仓估值失败: %v", err)
	}

	posType := exchange.PositionLong
	if sizing.Signal == events.SideSell {
		posType = exchange.PositionShort
	}
	valuePerLot, err := m.PositionValue(ctx, sizing.Symbol, 1, posType)
	if err != nil {
		return events.Reject("新仓位估值失败: %v", err)
	}

	assessment := Assessment{
		Symbol:           sizing.Symbol,
		Volume:           sizing.Volume,
		VolumeStep:       info.VolumeStep,
		VolumeMin:        info.VolumeMin,
		ValuePerLot:      valuePerLot,
		CurrentExposure:  current,
		ProposedExposure: valuePerLot * sizing.Volume,
		Equity:           account.Equity,
	}

	m.logger.Debug("风控评估",
		zap.String("symbol", sizing.Symbol),
		zap.Float64("volume", sizing.Volume),
		zap.Float64("current_exposure", assessment.CurrentExposure),
		zap.Float64("proposed_exposure", assessment.ProposedExposure),
		zap.Float64("equity", assessment.Equity),
	)

	return m.method.Assess(assessment)
}

// CurrentExposure 汇总本策略全部持仓的带符号价值。
func (m *Manager) CurrentExposure(ctx context.Context) (float64, error) {
	positions, err := m.deps.Positions.StrategyOpenPositions(ctx)
	if err != nil {
		return 0, err
	}

	total := 0.0
	for _, pos := range positions {
		value, err := m.PositionValue(ctx, pos.Symbol, pos.Volume, pos.Type)
		if err != nil {
			return 0, err
		}
		total += value
	}
	return total, nil
}

// PositionValue 以账户货币估算持仓价值：手数 × 合约单位 × 买价，空头取负。
func (m *Manager) PositionValue(ctx context.Context, symbol string, volume float64, posType exchange.PositionType) (float64, error) {
	info, err := m.deps.Symbols.SymbolInfo(ctx, symbol)
	if err != nil {
		return 0, err
	}
	tick, err := m.deps.Ticks.LatestTick(ctx, symbol)
	if err != nil {
		return 0, err
	}

	valueProfit := volume * info.ContractSize * tick.Bid
	value := m.deps.Converter.Convert(ctx, valueProfit, info.CurrencyProfit, m.accountCurrency(ctx))
	if volume != 0 && (value <= 0 || math.IsNaN(value) || math.IsInf(value, 0)) {
		return 0, fmt.Errorf("%s 估值无效 volume=%v bid=%v value=%v", symbol, volume, tick.Bid, value)
	}

	if posType == exchange.PositionShort {
		return -value, nil
	}
	return value, nil
}

func (m *Manager) accountCurrency(ctx context.Context) string {
	if account, err := m.deps.Account.AccountSnapshot(ctx); err == nil && account.Currency != "" {
		return account.Currency
	}
	return m.deps.AccountCurrency
}
