package exchange

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

type sessionVenue interface {
	SymbolSource
	AccountSource
	Name() string
	Sandbox() bool
	LoadMarkets(ctx context.Context) error
}

// Session 管理行情终端的一次连接周期：启动时检查账户与品种，结束时释放。
type Session struct {
	venue   sessionVenue
	logger  *zap.Logger
	symbols []string
	closed  bool
}

// OpenSession 加载市场、打印账户信息并筛出可交易品种。
// 没有任何可用品种时返回错误。
func OpenSession(ctx context.Context, venue sessionVenue, symbols []string, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if !venue.Sandbox() {
		logger.Warn("当前连接的是实盘环境，订单将真实成交", zap.String("exchange", venue.Name()))
	}

	if err := venue.LoadMarkets(ctx); err != nil {
		return nil, fmt.Errorf("exchange: 初始化会话失败: %w", err)
	}

	account, err := venue.AccountSnapshot(ctx)
	if err != nil {
		if !errors.Is(err, ErrUnavailable) {
			return nil, fmt.Errorf("exchange: 读取账户信息失败: %w", err)
		}
		logger.Warn("账户信息暂不可用", zap.Error(err))
	} else {
		logger.Info("账户信息",
			zap.String("exchange", venue.Name()),
			zap.Float64("equity", account.Equity),
			zap.Float64("balance", account.Balance),
			zap.String("currency", account.Currency),
		)
	}

	available := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		info, err := venue.SymbolInfo(ctx, symbol)
		if err != nil {
			logger.Warn("品种不可用，已跳过", zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		logger.Info("已订阅品种",
			zap.String("symbol", symbol),
			zap.Float64("volume_step", info.VolumeStep),
			zap.Float64("tick_size", info.TickSize),
			zap.Float64("contract_size", info.ContractSize),
			zap.String("currency_profit", info.CurrencyProfit),
		)
		available = append(available, symbol)
	}

	if len(available) == 0 {
		return nil, fmt.Errorf("exchange: 配置的品种均不可用: %v", symbols)
	}

	return &Session{
		venue:   venue,
		logger:  logger,
		symbols: available,
	}, nil
}

// Symbols 返回会话内可交易的品种。
func (s *Session) Symbols() []string {
	return append([]string(nil), s.symbols...)
}

// Close 结束会话，可重复调用。
func (s *Session) Close() {
	if s == nil || s.closed {
		return
	}
	s.closed = true
	s.logger.Info("行情终端会话已关闭", zap.String("exchange", s.venue.Name()))
}
