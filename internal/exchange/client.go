package exchange

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	ccxt "github.com/ccxt/ccxt/go/v4"
	"go.uber.org/zap"

	"trades-director/internal/events"
)

// OrderAPI 为下单所需的 ccxt 能力。
type OrderAPI interface {
	CreateMarketOrder(symbol string, side string, amount float64, options ...ccxt.CreateMarketOrderOptions) (ccxt.Order, error)
	CreateLimitOrder(symbol string, side string, amount float64, price float64, options ...ccxt.CreateLimitOrderOptions) (ccxt.Order, error)
}

type venue interface {
	OrderAPI
	FetchOHLCV(symbol string, options ...ccxt.FetchOHLCVOptions) ([]ccxt.OHLCV, error)
	FetchTicker(symbol string, options ...ccxt.FetchTickerOptions) (ccxt.Ticker, error)
	FetchBalance(params ...interface{}) (ccxt.Balances, error)
	FetchPositions(options ...ccxt.FetchPositionsOptions) ([]ccxt.Position, error)
}

// Options 描述连接一个交易所所需的参数。
type Options struct {
	Name            string
	APIKey          string
	APISecret       string
	APIPass         string
	Wallet          string
	PrivateKey      string
	UseSandbox      bool
	MagicNumber     int64
	AccountCurrency string
}

// Client 是基于 ccxt 的行情终端实现。
type Client struct {
	opts   Options
	logger *zap.Logger

	api         venue
	precision   precisionMode // 已支持的交易所均为步长模式
	loadMarkets func() error
	market      func(symbol string) interface{}

	marketsMu     sync.Mutex
	marketsLoaded bool
}

// NewClient 按名称构造 ccxt 交易所客户端。
func NewClient(opts Options, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	userConfig := map[string]interface{}{
		"enableRateLimit": true,
	}
	if opts.APIKey != "" {
		userConfig["apiKey"] = opts.APIKey
	}
	if opts.APISecret != "" {
		userConfig["secret"] = opts.APISecret
	}
	if opts.APIPass != "" {
		userConfig["password"] = opts.APIPass
	}
	if opts.Wallet != "" {
		userConfig["walletAddress"] = opts.Wallet
	}
	if opts.PrivateKey != "" {
		userConfig["privateKey"] = opts.PrivateKey
	}

	client := &Client{opts: opts, logger: logger}

	switch strings.ToLower(strings.TrimSpace(opts.Name)) {
	case "binanceusdm":
		userConfig["options"] = map[string]interface{}{
			"adjustForTimeDifference": true,
			"defaultType":             "future",
		}
		ex := ccxt.NewBinanceusdm(userConfig)
		if opts.UseSandbox {
			ex.SetSandboxMode(true)
		}
		client.api = ex
		client.loadMarkets = func() error {
			_, err := ex.LoadMarkets()
			return err
		}
		client.market = func(symbol string) interface{} { return ex.Market(symbol) }
	case "hyperliquid":
		ex := ccxt.NewHyperliquid(userConfig)
		if opts.UseSandbox {
			ex.SetSandboxMode(true)
		}
		client.api = ex
		client.loadMarkets = func() error {
			_, err := ex.LoadMarkets()
			return err
		}
		client.market = func(symbol string) interface{} { return ex.Market(symbol) }
	default:
		return nil, fmt.Errorf("exchange: 不支持的交易所 %q", opts.Name)
	}

	return client, nil
}

// Name 返回交易所名称。
func (c *Client) Name() string {
	return c.opts.Name
}

// Sandbox 表示是否连接测试环境。
func (c *Client) Sandbox() bool {
	return c.opts.UseSandbox
}

// Orders 返回下单接口。
func (c *Client) Orders() OrderAPI {
	return c.api
}

// LoadMarkets 加载市场元数据，只在首次成功后生效。
func (c *Client) LoadMarkets(ctx context.Context) error {
	c.marketsMu.Lock()
	defer c.marketsMu.Unlock()

	if c.marketsLoaded {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := guard("load_markets", c.loadMarkets); err != nil {
		return classifyError("load_markets", err)
	}

	c.marketsLoaded = true
	c.logger.Info("已完成市场元数据加载", zap.String("exchange", c.opts.Name))
	return nil
}

// LatestTick 获取最新买一卖一。
func (c *Client) LatestTick(ctx context.Context, symbol string) (Tick, error) {
	if err := c.LoadMarkets(ctx); err != nil {
		return Tick{}, err
	}

	var ticker ccxt.Ticker
	err := guard("fetch_ticker", func() error {
		result, err := c.api.FetchTicker(symbol)
		ticker = result
		return err
	})
	if err != nil {
		return Tick{}, classifyError("fetch_ticker", err)
	}

	tick := Tick{
		Bid:  derefFloat(ticker.Bid),
		Ask:  derefFloat(ticker.Ask),
		Time: time.Now().UTC(),
	}
	if ticker.Timestamp != nil {
		tick.Time = time.UnixMilli(*ticker.Timestamp).UTC()
	}
	if tick.Bid <= 0 || tick.Ask <= 0 {
		return tick, classifyError("fetch_ticker", unavailable("%s 报价为空 bid=%v ask=%v", symbol, tick.Bid, tick.Ask))
	}
	return tick, nil
}

// LatestClosedBars 返回最近 count 根已收盘K线，最新的在末尾。
// 交易所返回的最后一根为未收盘K线，予以丢弃。
func (c *Client) LatestClosedBars(ctx context.Context, symbol, timeframe string, count int) ([]events.Bar, error) {
	if count <= 0 {
		count = 1
	}
	if err := c.LoadMarkets(ctx); err != nil {
		return nil, err
	}

	var raw []ccxt.OHLCV
	err := guard("fetch_ohlcv", func() error {
		result, err := c.api.FetchOHLCV(
			symbol,
			ccxt.WithFetchOHLCVTimeframe(timeframe),
			ccxt.WithFetchOHLCVLimit(int64(count+1)),
		)
		raw = result
		return err
	})
	if err != nil {
		return nil, classifyError(fmt.Sprintf("fetch_ohlcv_%s", timeframe), err)
	}

	bars := closedBars(convertOHLCV(raw), count)
	if len(bars) == 0 {
		return nil, classifyError("fetch_ohlcv", unavailable("%s 无已收盘K线", symbol))
	}
	return bars, nil
}

// SymbolInfo 读取品种元数据。
func (c *Client) SymbolInfo(ctx context.Context, symbol string) (SymbolInfo, error) {
	if err := c.LoadMarkets(ctx); err != nil {
		return SymbolInfo{}, err
	}

	var raw interface{}
	if err := guard("market", func() error {
		raw = c.market(symbol)
		return nil
	}); err != nil {
		return SymbolInfo{}, classifyError("market", err)
	}

	info, err := parseMarket(symbol, raw, c.precision)
	if err != nil {
		return info, classifyError("market", err)
	}
	return info, nil
}

// AccountSnapshot 获取账户净值与余额。
func (c *Client) AccountSnapshot(ctx context.Context) (AccountSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return AccountSnapshot{}, err
	}

	var balances ccxt.Balances
	err := guard("fetch_balance", func() error {
		result, err := c.api.FetchBalance()
		balances = result
		return err
	})
	if err != nil {
		return AccountSnapshot{}, classifyError("fetch_balance", err)
	}

	balance, code := balanceFor(balances, c.opts.AccountCurrency)
	snapshot := AccountSnapshot{
		Equity:   equityFromInfo(balances.Info),
		Balance:  balance,
		Currency: code,
	}
	if snapshot.Equity == 0 {
		snapshot.Equity = balance
	}
	if snapshot.Currency == "" {
		snapshot.Currency = strings.ToUpper(c.opts.AccountCurrency)
	}
	if snapshot.Equity <= 0 {
		return snapshot, classifyError("fetch_balance", unavailable("账户净值为空"))
	}
	return snapshot, nil
}

// OpenPositions 返回账户下全部持仓。
// 交易所不记录策略编号，账户视为该策略独占，统一标记配置的编号。
func (c *Client) OpenPositions(ctx context.Context) ([]Position, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var raw []ccxt.Position
	err := guard("fetch_positions", func() error {
		result, err := c.api.FetchPositions()
		raw = result
		return err
	})
	if err != nil {
		return nil, classifyError("fetch_positions", err)
	}

	return convertPositions(raw, c.opts.MagicNumber), nil
}

func closedBars(bars []events.Bar, count int) []events.Bar {
	if len(bars) <= 1 {
		return nil
	}
	bars = bars[:len(bars)-1]
	if len(bars) > count {
		bars = bars[len(bars)-count:]
	}
	return bars
}
