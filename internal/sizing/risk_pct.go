package sizing

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"trades-director/internal/config"
	"trades-director/internal/events"
)

// RiskPct 按止损距离计算手数，使止损触发时亏损为净值的固定比例。
type RiskPct struct {
	riskPct float64
	deps    Deps
	logger  *zap.Logger
}

// NewRiskPct 创建固定风险比例规则。
// 比例不为正时仍可构造，每次计算都会拒绝交易。
func NewRiskPct(riskPct float64, deps Deps, logger *zap.Logger) (*RiskPct, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Ticks == nil || deps.Symbols == nil || deps.Account == nil || deps.Converter == nil {
		return nil, config.Errorf("risk_pct 需要报价、品种、账户与换汇服务")
	}
	return &RiskPct{riskPct: riskPct, deps: deps, logger: logger}, nil
}

// Name 返回规则名称。
func (r *RiskPct) Name() string { return MethodRiskPct }

// Size 计算手数。
func (r *RiskPct) Size(ctx context.Context, signal events.SignalEvent) events.Verdict {
	if r.riskPct <= 0 {
		return events.Reject("风险比例 %v 无效", r.riskPct)
	}
	if signal.SL <= 0 {
		return events.Reject("止损价 %v 无效", signal.SL)
	}

	entry, err := entryPrice(ctx, r.deps, signal)
	if err != nil {
		return events.Reject("无法确定入场价: %v", err)
	}

	info, err := r.deps.Symbols.SymbolInfo(ctx, signal.Symbol)
	if err != nil {
		return events.Reject("品种信息不可用: %v", err)
	}
	account, err := r.deps.Account.AccountSnapshot(ctx)
	if err != nil {
		return events.Reject("账户信息不可用: %v", err)
	}

	accountCcy := account.Currency
	if accountCcy == "" {
		accountCcy = r.deps.AccountCurrency
	}

	tickValueProfit := info.ContractSize * info.TickSize
	tickValueAccount := r.deps.Converter.Convert(ctx, tickValueProfit, info.CurrencyProfit, accountCcy)

	ticks := TicksBetween(entry, signal.SL, info.TickSize)
	monetaryRisk := account.Equity * r.riskPct

	fields := []zap.Field{
		zap.String("symbol", signal.Symbol),
		zap.Float64("equity", account.Equity),
		zap.Float64("entry_price", entry),
		zap.Float64("sl", signal.SL),
		zap.Float64("tick_size", info.TickSize),
		zap.Float64("volume_step", info.VolumeStep),
		zap.Float64("tick_value", tickValueAccount),
		zap.Int64("ticks", ticks),
		zap.String("currency_profit", strings.ToUpper(info.CurrencyProfit)),
		zap.String("account_currency", strings.ToUpper(accountCcy)),
	}

	if ticks <= 0 || tickValueAccount <= 0 || info.VolumeStep <= 0 || monetaryRisk <= 0 {
		r.logger.Warn("仓位计算输入无效", fields...)
		return events.Reject("计算输入无效 ticks=%d tick_value=%v step=%v risk=%v",
			ticks, tickValueAccount, info.VolumeStep, monetaryRisk)
	}

	raw := monetaryRisk / (float64(ticks) * tickValueAccount)
	volume := RoundToStep(raw, info.VolumeStep)

	r.logger.Debug("按风险比例计算手数", append(fields, zap.Float64("raw_volume", raw), zap.Float64("volume", volume))...)

	return events.Accept(volume)
}

func entryPrice(ctx context.Context, deps Deps, signal events.SignalEvent) (float64, error) {
	if signal.IsPending() {
		return signal.TargetPrice, nil
	}

	tick, err := deps.Ticks.LatestTick(ctx, signal.Symbol)
	if err != nil {
		return 0, err
	}
	price := tick.Ask
	if signal.Signal == events.SideSell {
		price = tick.Bid
	}
	if price <= 0 {
		return 0, fmt.Errorf("报价无效 bid=%v ask=%v", tick.Bid, tick.Ask)
	}
	return price, nil
}
