package app

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"trades-director/internal/ai"
	"trades-director/internal/config"
	"trades-director/internal/currency"
	"trades-director/internal/director"
	"trades-director/internal/events"
	"trades-director/internal/exchange"
	"trades-director/internal/execution"
	"trades-director/internal/log"
	"trades-director/internal/metrics"
	"trades-director/internal/monitor"
	"trades-director/internal/portfolio"
	"trades-director/internal/risk"
	"trades-director/internal/signal"
	"trades-director/internal/sizing"
)

// pipeline 汇总一次运行所需的全部组件。
type pipeline struct {
	queue    *events.Queue
	director *director.Director
	metrics  *metrics.Pipeline
}

// accountVenue 为账户、持仓与下单的来源。
type accountVenue interface {
	exchange.AccountSource
	exchange.PositionSource
	Orders() exchange.OrderAPI
}

func exchangeOptions(cfg *config.Config) exchange.Options {
	return exchange.Options{
		Name:            cfg.Exchange.Name,
		APIKey:          cfg.Exchange.APIKey,
		APISecret:       cfg.Exchange.APISecret,
		APIPass:         cfg.Exchange.APIPass,
		UseSandbox:      cfg.Exchange.UseSandbox,
		MagicNumber:     cfg.Strategy.MagicNumber,
		AccountCurrency: cfg.Account.Currency,
	}
}

func tradeOptions(cfg *config.Config) exchange.Options {
	return exchange.Options{
		Name:            cfg.Trade.Name,
		APIKey:          cfg.Trade.APIKey,
		APISecret:       cfg.Trade.APISecret,
		APIPass:         cfg.Trade.APIPass,
		Wallet:          cfg.Trade.Wallet,
		PrivateKey:      cfg.Trade.PrivateKey,
		UseSandbox:      cfg.Trade.UseSandbox,
		MagicNumber:     cfg.Strategy.MagicNumber,
		AccountCurrency: cfg.Account.Currency,
	}
}

// newTradeVenue 在实盘模式下返回执行端；未单独配置时沿用行情端。
func newTradeVenue(cfg *config.Config, market *exchange.Client, logger *zap.Logger) (accountVenue, error) {
	if cfg.Execution.Mode != config.ExecutionModeLive || cfg.Trade.Name == "" {
		return market, nil
	}
	if strings.EqualFold(cfg.Trade.Name, cfg.Exchange.Name) && cfg.Trade.APIKey == "" && cfg.Trade.Wallet == "" {
		return market, nil
	}
	client, err := exchange.NewClient(tradeOptions(cfg), logger.Named("trade"))
	if err != nil {
		return nil, fmt.Errorf("初始化交易客户端失败: %w", err)
	}
	return client, nil
}

func buildPipeline(cfg *config.Config, market *exchange.Client, symbols []string, journal *monitor.Service, logger *zap.Logger) (*pipeline, error) {
	trade, err := newTradeVenue(cfg, market, logger)
	if err != nil {
		return nil, err
	}

	queue := events.NewQueue()
	pipelineMetrics := metrics.NewPipeline()

	provider := exchange.NewDataProvider(market, queue, symbols, cfg.Strategy.Timeframe, cfg.Exchange.PollInterval, log.Stage(logger, "data"))
	converter := currency.NewConverter(market, currency.SymbolStyle(cfg.Exchange.FXSymbolStyle), log.Stage(logger, "currency"))
	positions := portfolio.New(trade, cfg.Strategy.MagicNumber, log.Stage(logger, "portfolio"))

	signalDeps := signal.Deps{
		Bars:      market,
		Positions: positions,
	}
	if strings.EqualFold(cfg.Strategy.Signal.Method, signal.MethodAIAdvisor) {
		advisor, err := ai.NewClient(cfg.OpenAI, log.Stage(logger, "ai"))
		if err != nil {
			return nil, fmt.Errorf("初始化AI客户端失败: %w", err)
		}
		signalDeps.Advisor = advisor
	}
	generator, err := signal.New(cfg.Strategy, signalDeps, queue, log.Stage(logger, "signal"))
	if err != nil {
		return nil, fmt.Errorf("初始化信号生成器失败: %w", err)
	}

	sizer, err := sizing.New(cfg.Strategy.Sizing, sizing.Deps{
		Ticks:           market,
		Symbols:         market,
		Account:         trade,
		Converter:       converter,
		AccountCurrency: cfg.Account.Currency,
	}, queue, log.Stage(logger, "sizing"))
	if err != nil {
		return nil, fmt.Errorf("初始化仓位计算失败: %w", err)
	}

	riskMgr, err := risk.New(cfg.Strategy.Risk, risk.Deps{
		Ticks:           market,
		Symbols:         market,
		Account:         trade,
		Converter:       converter,
		Positions:       positions,
		AccountCurrency: cfg.Account.Currency,
	}, queue, log.Stage(logger, "risk"))
	if err != nil {
		return nil, fmt.Errorf("初始化风险管理失败: %w", err)
	}

	opts := director.Options{
		SleepInterval: cfg.Director.SleepInterval,
		Metrics:       pipelineMetrics,
	}
	var execJournal execution.Journal
	if journal != nil {
		opts.Journal = journal
		execJournal = journal
	}

	execOpts := execution.Options{
		Slippage:    cfg.Execution.Slippage,
		TimeInForce: cfg.Execution.TimeInForce,
	}
	if cfg.Execution.Mode == config.ExecutionModeLive {
		executor, err := execution.NewExecutor(trade.Orders(), execOpts, execJournal, log.Stage(logger, "execution"))
		if err != nil {
			return nil, fmt.Errorf("初始化执行器失败: %w", err)
		}
		opts.Orders = executor
	} else {
		logger.Info("执行器处于模拟模式")
		opts.Orders = execution.NewDryRun(execOpts, execJournal, log.Stage(logger, "execution"))
	}

	dir, err := director.New(queue, director.Stages{
		Data:   provider,
		Signal: generator,
		Sizing: sizer,
		Risk:   riskMgr,
	}, opts, log.Stage(logger, "director"))
	if err != nil {
		return nil, err
	}

	logger.Info("流水线已就绪",
		zap.Strings("symbols", symbols),
		zap.String("timeframe", cfg.Strategy.Timeframe),
		zap.String("signal", generator.Method()),
		zap.String("sizing", sizer.Method()),
		zap.String("risk", riskMgr.Method()),
		zap.String("execution", cfg.Execution.Mode),
	)

	return &pipeline{
		queue:    queue,
		director: dir,
		metrics:  pipelineMetrics,
	}, nil
}

// stopOnDone 在 ctx 结束时投递停机哨兵。
func stopOnDone(ctx context.Context, queue *events.Queue, logger *zap.Logger) {
	<-ctx.Done()
	logger.Info("收到退出信号，投递停机哨兵")
	queue.Stop()
}
